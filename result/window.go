package result

import (
	"bufio"
	"os"
	"path/filepath"
	"regexp"
	"sort"

	"github.com/pavilion-hpc/pavilion/errkind"
)

// fileLines is one candidate file's content split into lines, read once and
// shared across every ParserConfig that globs over it.
type fileLines struct {
	name  string // the matched path, relative to workDir
	lines []string
}

// resolveFiles expands globs (default ["../run.log"], spec §4.6 Phase A)
// against workDir. A glob matching nothing contributes the sentinel name
// "_unmatched_glob" with no lines, so per-file aggregation can still count
// it for all/any.
func resolveFiles(workDir string, globs []string) ([]fileLines, error) {
	if len(globs) == 0 {
		globs = []string{"../run.log"}
	}
	var out []fileLines
	for _, g := range globs {
		matches, err := filepath.Glob(filepath.Join(workDir, g))
		if err != nil {
			return nil, errkind.Wrap(errkind.Parse, err, "invalid file glob %q", g)
		}
		if len(matches) == 0 {
			out = append(out, fileLines{name: "_unmatched_glob"})
			continue
		}
		sort.Strings(matches)
		for _, m := range matches {
			lines, err := readLines(m)
			if err != nil {
				return nil, errkind.Wrap(errkind.Parse, err, "reading result source file %s", m)
			}
			rel, err := filepath.Rel(workDir, m)
			if err != nil {
				rel = m
			}
			out = append(out, fileLines{name: rel, lines: lines})
		}
	}
	return out, nil
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	return lines, scanner.Err()
}

// candidateLines returns the indices into fl.lines that satisfy
// for_lines_matching (anchored-implicit, default match-every-line) and are
// immediately preceded by the ordered preceded_by chain. Matching is a
// sliding window: after a successful candidate, the scan resumes on the
// line after it (spec §4.6 Phase A).
func candidateLines(lines []string, forLinesMatching string, precededBy []string) ([]int, error) {
	candRe, err := anchoredRegexp(forLinesMatching)
	if err != nil {
		return nil, err
	}
	chain := make([]*regexp.Regexp, len(precededBy))
	for i, p := range precededBy {
		re, err := anchoredRegexp(p)
		if err != nil {
			return nil, err
		}
		chain[i] = re
	}

	var out []int
	i := 0
	for i < len(lines) {
		if candRe != nil && !candRe.MatchString(lines[i]) {
			i++
			continue
		}
		if len(chain) > 0 {
			start := i - len(chain)
			if start < 0 || !chainMatches(lines, start, chain) {
				i++
				continue
			}
		}
		out = append(out, i)
		i++ // resume scanning on the line after the successful candidate
	}
	return out, nil
}

func chainMatches(lines []string, start int, chain []*regexp.Regexp) bool {
	for k, re := range chain {
		if !re.MatchString(lines[start+k]) {
			return false
		}
	}
	return true
}

// anchoredRegexp compiles pattern with implicit ^(?:...)$ anchoring, the
// convention used throughout the expression/skip engine (spec §4.1, §4.2).
// An empty pattern matches every line (nil regexp).
func anchoredRegexp(pattern string) (*regexp.Regexp, error) {
	if pattern == "" {
		return nil, nil
	}
	re, err := regexp.Compile("^(?:" + pattern + ")$")
	if err != nil {
		return nil, errkind.Wrap(errkind.Parse, err, "compiling regex %q", pattern)
	}
	return re, nil
}
