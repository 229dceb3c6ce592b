package rundir

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/pavilion-hpc/pavilion/errkind"
)

// Dir is a single test run's on-disk directory: spec §4.4's "resolved
// config, job handle, script/log files, a variables snapshot, the status
// journal and an optional RUN_COMPLETE marker."
type Dir struct {
	ID      string
	Path    string
	Journal *Journal
}

// fileNames are the fixed file names a Dir maintains inside its own
// directory. Keeping them named constants (rather than scattering literal
// strings across build/scheduler/result) is what lets every package write
// to the same run directory without importing each other.
const (
	ConfigFileName    = "config.yaml"
	VariablesFileName = "variables.json"
	JobHandleFileName = "job_handle.json"
	ScriptFileName    = "run.sh"
	LogFileName       = "run.log"
	ResultFileName    = "result.json"
	StatusFileName    = "status"
)

// Allocate reserves the next free, sequential run directory under root for
// the given label and returns it Created. IDs are assigned by racing
// os.Mkdir(..., 0o755) with O_EXCL semantics upward from 1: the first
// caller to win a given candidate number owns it, exactly mirroring the
// build lock's create-exclusive idiom, so two hosts allocating runs
// concurrently in a shared directory never collide (spec §4.4: "ID
// assignment happens in rundir, not resolver, to avoid resolver/rundir
// races").
func Allocate(root, label string) (*Dir, error) {
	base := filepath.Join(root, label)
	if err := os.MkdirAll(base, 0o755); err != nil {
		return nil, errkind.Wrap(errkind.Concurrency, err, "creating run namespace %s", base)
	}

	for n := 1; ; n++ {
		id := strconv.Itoa(n)
		path := filepath.Join(base, id)
		if err := os.Mkdir(path, 0o755); err != nil {
			if os.IsExist(err) {
				continue
			}
			return nil, errkind.Wrap(errkind.Concurrency, err, "allocating run directory %s", path)
		}

		d := &Dir{ID: id, Path: path, Journal: Open(filepath.Join(path, StatusFileName))}
		if err := d.Journal.Append(Created, "run directory allocated"); err != nil {
			return nil, err
		}
		return d, nil
	}
}

// OpenDir returns a Dir handle onto an already-allocated run directory (e.g.
// from the `_run <id>` entrypoint, which receives its id as an argument
// rather than allocating one).
func OpenDir(root, label, id string) *Dir {
	path := filepath.Join(root, label, id)
	return &Dir{ID: id, Path: path, Journal: Open(filepath.Join(path, StatusFileName))}
}

// file returns the absolute path of one of Dir's fixed files.
func (d *Dir) file(name string) string { return filepath.Join(d.Path, name) }

func (d *Dir) ConfigPath() string    { return d.file(ConfigFileName) }
func (d *Dir) VariablesPath() string { return d.file(VariablesFileName) }
func (d *Dir) JobHandlePath() string { return d.file(JobHandleFileName) }
func (d *Dir) ScriptPath() string    { return d.file(ScriptFileName) }
func (d *Dir) LogPath() string       { return d.file(LogFileName) }
func (d *Dir) ResultPath() string    { return d.file(ResultFileName) }

// WriteFile writes content to one of Dir's fixed files.
func (d *Dir) WriteFile(name string, content []byte) error {
	if err := os.WriteFile(d.file(name), content, 0o644); err != nil {
		return errkind.Wrap(errkind.Concurrency, err, "writing %s in run directory %s", name, d.Path)
	}
	return nil
}

// MarkComplete writes the RUN_COMPLETE marker into this run's directory.
func (d *Dir) MarkComplete() error {
	return MarkComplete(d.Path)
}

// IsComplete reports whether this run's RUN_COMPLETE marker is present.
func (d *Dir) IsComplete() bool {
	return IsComplete(d.Path)
}
