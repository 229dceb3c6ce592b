package result

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/pavilion-hpc/pavilion/corectx"
	"github.com/pavilion-hpc/pavilion/errkind"
)

// runOne executes Phase A (window), Phase B (parser invocation across every
// matched file) and Phase C (per_file aggregation) for one ParserConfig,
// and returns the aggregated value ready for Phase action application.
// notes carries non-fatal Parse-kind diagnostics (e.g. a per_file name
// collision) that belong in the result's errors array even though they did
// not abort aggregation.
func (p *Pipeline) runOne(reg *corectx.Registry, pc ParserConfig) (val interface{}, notes []string, err error) {
	files, err := resolveFiles(p.WorkDir, pc.Files)
	if err != nil {
		return nil, nil, err
	}

	parser, ok := Lookup(reg, pc.Parser)
	if !ok {
		return nil, nil, errkind.New(errkind.Parse, "unknown result parser %q", pc.Parser)
	}

	perFile := make(map[string]interface{}, len(files))
	order := make([]string, 0, len(files))
	for _, fl := range files {
		order = append(order, fl.name)
		if fl.lines == nil && fl.name == "_unmatched_glob" {
			perFile[fl.name] = nil
			continue
		}
		fileVal, err := parseOneFile(parser, fl, pc)
		if err != nil {
			return nil, nil, errkind.Wrap(errkind.Parse, err, "parsing %s for key %q", fl.name, pc.Key)
		}
		perFile[fl.name] = fileVal
	}

	return aggregate(pc.PerFile, order, perFile)
}

// parseOneFile runs Phase A+B for a single matched file: finds candidate
// lines, invokes the parser at each, and applies match_select.
func parseOneFile(parser Parser, fl fileLines, pc ParserConfig) (interface{}, error) {
	candidates, err := candidateLines(fl.lines, pc.ForLinesMatching, pc.PrecededBy)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	var matches []interface{}
	for _, idx := range candidates {
		v, err := parser(fl.lines, idx, pc.Args)
		if err != nil {
			return nil, err
		}
		matches = append(matches, v)
	}
	return selectMatch(matches, pc.MatchSelect)
}

func selectMatch(matches []interface{}, sel string) (interface{}, error) {
	if len(matches) == 0 {
		return nil, nil
	}
	switch sel {
	case "", "first":
		return matches[0], nil
	case "last":
		return matches[len(matches)-1], nil
	case "all":
		return matches, nil
	default:
		idx, err := strconv.Atoi(sel)
		if err != nil {
			return nil, errkind.New(errkind.Parse, "invalid match_select %q", sel)
		}
		if idx < 0 || idx >= len(matches) {
			return nil, errkind.New(errkind.Parse, "match_select index %d out of range (%d matches)", idx, len(matches))
		}
		return matches[idx], nil
	}
}

// aggregate implements Phase C (spec §4.6): per_file turns the {file:
// value} mapping collected across every matched file into the final shape.
// Names starting with "_" (the _unmatched_glob sentinel) are dropped from
// name/fullname/list output but still count toward all/any. notes carries
// non-fatal Parse-kind diagnostics (name/fullname key collisions) that the
// caller should fold into the result's errors array.
func aggregate(perFile string, order []string, values map[string]interface{}) (result interface{}, notes []string, err error) {
	switch perFile {
	case "", "first":
		for _, name := range order {
			if v := values[name]; !isEmpty(v) {
				return v, nil, nil
			}
		}
		return nil, nil, nil
	case "last":
		for i := len(order) - 1; i >= 0; i-- {
			if v := values[order[i]]; !isEmpty(v) {
				return v, nil, nil
			}
		}
		return nil, nil, nil
	case "all":
		for _, name := range order {
			if category(values[name]) != categoryMatch {
				return false, nil, nil
			}
		}
		return true, nil, nil
	case "any":
		for _, name := range order {
			if category(values[name]) == categoryMatch {
				return true, nil, nil
			}
		}
		return false, nil, nil
	case "list":
		var out []interface{}
		for _, name := range order {
			v := values[name]
			if v == nil || strings.HasPrefix(name, "_") {
				continue
			}
			out = append(out, v)
		}
		return out, nil, nil
	case "name", "fullname":
		rootKey := "n"
		if perFile == "fullname" {
			rootKey = "fn"
		}
		nested := make(map[string]interface{})
		wonBy := make(map[string]string, len(order))
		var collisions []string
		for _, name := range order {
			if strings.HasPrefix(name, "_") {
				continue
			}
			key := normalizeFileName(name, perFile == "name")
			if key == "result" {
				return nil, nil, errkind.New(errkind.Configuration, "result is not permitted as a per_file key name")
			}
			// A collision on the normalized key is recorded, not silently
			// overwritten without trace: the later file in declared order
			// still wins the map slot.
			if prior, collided := wonBy[key]; collided {
				collisions = append(collisions, errkind.New(errkind.Parse,
					"per_file %s key %q collides between %q and %q; %q wins", perFile, key, prior, name, name).Error())
			}
			wonBy[key] = name
			nested[key] = values[name]
		}
		return map[string]interface{}{rootKey: nested}, collisions, nil
	case "name_list", "fullname_list":
		var out []string
		for _, name := range order {
			if strings.HasPrefix(name, "_") {
				continue
			}
			if v := values[name]; category(v) == categoryMatch {
				if perFile == "name_list" {
					out = append(out, stripExt(name))
				} else {
					out = append(out, name)
				}
			}
		}
		return out, nil, nil
	default:
		return nil, nil, errkind.New(errkind.Configuration, "unknown per_file mode %q", perFile)
	}
}

type valueCategory int

const (
	categoryEmpty valueCategory = iota
	categoryMatch
	categoryFalse
)

// category classifies a value per spec §4.6: "empty" (null or empty list),
// "match" (non-empty and not false), "false" (neither empty nor a match).
func category(v interface{}) valueCategory {
	switch t := v.(type) {
	case nil:
		return categoryEmpty
	case bool:
		if !t {
			return categoryFalse
		}
		return categoryMatch
	case []interface{}:
		if len(t) == 0 {
			return categoryEmpty
		}
		return categoryMatch
	case string:
		if t == "" {
			return categoryEmpty
		}
		return categoryMatch
	default:
		return categoryMatch
	}
}

func isEmpty(v interface{}) bool { return category(v) == categoryEmpty }

var nonAlnum = regexp.MustCompile(`[^A-Za-z0-9]+`)

// normalizeFileName implements spec §4.6's file-name normalization:
// non-alphanumeric characters become underscores. stripExtension controls
// the "name" (extension stripped) vs "fullname" (full name) variants. Two
// distinct file names that normalize to the same key is a collision the
// caller records (aggregate's "name"/"fullname" case), not something this
// function disambiguates.
func normalizeFileName(name string, stripExtension bool) string {
	base := name
	if stripExtension {
		base = stripExt(name)
	}
	key := nonAlnum.ReplaceAllString(base, "_")
	key = strings.Trim(key, "_")
	if key == "" {
		key = "f"
	}
	return key
}

func stripExt(name string) string {
	if i := strings.LastIndex(name, "."); i > 0 {
		return name[:i]
	}
	return name
}
