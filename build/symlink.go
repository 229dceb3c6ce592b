package build

import (
	"os"
	"path/filepath"

	"github.com/pavilion-hpc/pavilion/errkind"
)

// SymlinkCopy produces a per-run view of a shared build artifact: every
// regular file in buildDir becomes a symlink in runDir, except paths
// matching one of copyGlobs (standard glob syntax: *, ?, […], and the
// recursive ** form), which are copied as real, writable files so the test
// may overwrite them (spec §4.3, "Per-run copy").
func SymlinkCopy(buildDir, runDir string, copyGlobs []string) error {
	return filepath.Walk(buildDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(buildDir, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return os.MkdirAll(runDir, 0o755)
		}
		target := filepath.Join(runDir, rel)

		if info.IsDir() {
			return os.MkdirAll(target, 0o755)
		}

		if matchesAny(rel, copyGlobs) {
			return copyFile(path, target, info.Mode())
		}

		abs, err := filepath.Abs(path)
		if err != nil {
			return errkind.Wrap(errkind.Build, err, "resolving absolute path for %s", path)
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return errkind.Wrap(errkind.Build, err, "creating parent dir for %s", target)
		}
		if err := os.Symlink(abs, target); err != nil {
			return errkind.Wrap(errkind.Build, err, "symlinking %s -> %s", target, abs)
		}
		return nil
	})
}

// matchesAny reports whether rel matches one of globs, supporting the
// recursive "**" segment in addition to filepath.Match's *, ?, […].
func matchesAny(rel string, globs []string) bool {
	for _, g := range globs {
		if matchGlob(g, rel) {
			return true
		}
	}
	return false
}

// matchGlob implements glob matching with "**" meaning "any number of path
// segments", by splitting both pattern and path on "/" and matching
// segment-by-segment with backtracking over "**".
func matchGlob(pattern, name string) bool {
	pSegs := splitPath(pattern)
	nSegs := splitPath(name)
	return matchSegs(pSegs, nSegs)
}

func splitPath(p string) []string {
	return filepathSplit(p)
}

func filepathSplit(p string) []string {
	var out []string
	cur := ""
	for _, r := range p {
		if r == '/' {
			out = append(out, cur)
			cur = ""
			continue
		}
		cur += string(r)
	}
	out = append(out, cur)
	return out
}

func matchSegs(pat, name []string) bool {
	if len(pat) == 0 {
		return len(name) == 0
	}
	if pat[0] == "**" {
		if matchSegs(pat[1:], name) {
			return true
		}
		if len(name) == 0 {
			return false
		}
		return matchSegs(pat, name[1:])
	}
	if len(name) == 0 {
		return false
	}
	ok, err := filepath.Match(pat[0], name[0])
	if err != nil || !ok {
		return false
	}
	return matchSegs(pat[1:], name[1:])
}
