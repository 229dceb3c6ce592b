package rundir

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pavilion-hpc/pavilion/errkind"
)

// Entry is one line of a run's append-only status journal (spec §4.4): an
// ISO-8601 timestamp, a state tag, and a free-form note.
type Entry struct {
	Time  time.Time
	State State
	Note  string
}

// Journal is the append-only status file for one test run. Each line is a
// single write() call sized well under PIPE_BUF, so concurrent readers
// never observe a torn entry (spec §4.4, "a reader may see intermediate
// states but never a torn entry").
type Journal struct {
	path string
}

// Open returns a Journal backed by the status file at path. The file is
// created empty on first Append if it does not yet exist.
func Open(path string) *Journal {
	return &Journal{path: path}
}

// Append records a new state transition, refusing (with an
// errkind.Concurrency error) any transition that is not monotone forward
// per CanTransition.
func (j *Journal) Append(state State, note string) error {
	current, err := j.Current()
	switch {
	case err == nil:
		if !CanTransition(current, state) {
			return illegalTransition(current, state)
		}
	case os.IsNotExist(err):
		// No prior entries: any starting state is acceptable.
	default:
		return err
	}

	f, err := os.OpenFile(j.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return errkind.Wrap(errkind.Concurrency, err, "opening status journal %s", j.path)
	}
	defer f.Close()

	line := fmt.Sprintf("%s\t%s\t%s\n", time.Now().UTC().Format(time.RFC3339Nano), state, sanitizeNote(note))
	if _, err := f.WriteString(line); err != nil {
		return errkind.Wrap(errkind.Concurrency, err, "appending to status journal %s", j.path)
	}
	return nil
}

func sanitizeNote(note string) string {
	return strings.ReplaceAll(strings.ReplaceAll(note, "\n", " "), "\t", " ")
}

// Current returns the run's current state: the last entry in the journal.
func (j *Journal) Current() (State, error) {
	entries, err := j.Entries()
	if err != nil {
		return "", err
	}
	if len(entries) == 0 {
		return "", os.ErrNotExist
	}
	return entries[len(entries)-1].State, nil
}

// Entries parses the whole journal, in order.
func (j *Journal) Entries() ([]Entry, error) {
	f, err := os.Open(j.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errkind.Wrap(errkind.Concurrency, err, "reading status journal %s", j.path)
	}
	defer f.Close()

	var out []Entry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, "\t", 3)
		if len(parts) < 2 {
			continue
		}
		ts, _ := time.Parse(time.RFC3339Nano, parts[0])
		e := Entry{Time: ts, State: State(parts[1])}
		if len(parts) == 3 {
			e.Note = parts[2]
		}
		out = append(out, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, errkind.Wrap(errkind.Concurrency, err, "scanning status journal %s", j.path)
	}
	return out, nil
}

// completeMarkerName is the sentinel file spec §4.4 calls RUN_COMPLETE: an
// atomic marker distinct from the status file, so an observer can cheaply
// ask "is this run still in play" without parsing the journal.
const completeMarkerName = "RUN_COMPLETE"

// MarkComplete atomically creates the RUN_COMPLETE marker in dir. It
// writes to a temporary file and renames it into place: on a POSIX
// filesystem rename(2) is atomic, so no reader ever observes a partially
// written marker (spec §8, Testable Property "RUN_COMPLETE correlation").
func MarkComplete(dir string) error {
	final := filepath.Join(dir, completeMarkerName)
	tmp := final + ".tmp"
	if err := os.WriteFile(tmp, []byte(time.Now().UTC().Format(time.RFC3339Nano)+"\n"), 0o644); err != nil {
		return errkind.Wrap(errkind.Concurrency, err, "writing RUN_COMPLETE marker")
	}
	if err := os.Rename(tmp, final); err != nil {
		return errkind.Wrap(errkind.Concurrency, err, "renaming RUN_COMPLETE marker into place")
	}
	return nil
}

// IsComplete reports whether dir's RUN_COMPLETE marker is present.
func IsComplete(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, completeMarkerName))
	return err == nil
}
