package result

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/pavilion-hpc/pavilion/corectx"
	"github.com/pavilion-hpc/pavilion/errkind"
)

// ParserKind is the capability name under which result parsers register in
// a corectx.Registry (spec §6, "Plugin capabilities": "Result Parser").
const ParserKind = "parser"

// Parser is the plugin contract of spec §4.6 Phase B: "parse(file_handle,
// args) -> value", modeled here as a function over the file's lines
// starting at the matched index.
type Parser func(lines []string, start int, args map[string]interface{}) (interface{}, error)

// RegisterBuiltins installs the four built-in parsers into reg at priority
// 0, so a user plugin registered at a higher priority can shadow any of
// them by name.
func RegisterBuiltins(reg *corectx.Registry) {
	reg.Register(ParserKind, "regex", 0, Parser(parseRegex))
	reg.Register(ParserKind, "split", 0, Parser(parseSplit))
	reg.Register(ParserKind, "const", 0, Parser(parseConst))
	reg.Register(ParserKind, "table", 0, Parser(parseTable))
}

// Lookup resolves a parser by name from reg.
func Lookup(reg *corectx.Registry, name string) (Parser, bool) {
	v, ok := reg.Lookup(ParserKind, name)
	if !ok {
		return nil, false
	}
	p, ok := v.(Parser)
	return p, ok
}

// parseRegex returns the captured group(s) of args["regex"] matched
// against lines[start]: a single string if one group, a list if more than
// one (spec §4.6 Phase B).
func parseRegex(lines []string, start int, args map[string]interface{}) (interface{}, error) {
	pattern, _ := args["regex"].(string)
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, errkind.Wrap(errkind.Parse, err, "compiling regex parser pattern %q", pattern)
	}
	m := re.FindStringSubmatch(lines[start])
	if m == nil {
		return nil, nil
	}
	groups := m[1:]
	if len(groups) == 0 {
		return m[0], nil
	}
	if len(groups) == 1 {
		return groups[0], nil
	}
	out := make([]interface{}, len(groups))
	for i, g := range groups {
		out[i] = g
	}
	return out, nil
}

// parseSplit tokenizes lines[start] on args["sep"] (default: any run of
// whitespace) and returns the token at args["index"] (default: the whole
// token list).
func parseSplit(lines []string, start int, args map[string]interface{}) (interface{}, error) {
	var fields []string
	if sep, ok := args["sep"].(string); ok && sep != "" {
		fields = strings.Split(lines[start], sep)
	} else {
		fields = strings.Fields(lines[start])
	}
	if idxRaw, ok := args["index"]; ok {
		idx, err := toInt(idxRaw)
		if err != nil {
			return nil, err
		}
		if idx < 0 || idx >= len(fields) {
			return nil, errkind.New(errkind.Parse, "split index %d out of range (%d fields)", idx, len(fields))
		}
		return fields[idx], nil
	}
	out := make([]interface{}, len(fields))
	for i, f := range fields {
		out[i] = f
	}
	return out, nil
}

// parseConst ignores the matched line and returns the literal args["value"].
func parseConst(lines []string, start int, args map[string]interface{}) (interface{}, error) {
	return args["value"], nil
}

// parseTable reads header-less columnar data starting at
// lines[start]: args["key_col"]/args["value_col"] pick which whitespace-
// delimited field is the row key and which is its value, scanning until a
// blank line or end of file, and returns a {key: value} mapping.
func parseTable(lines []string, start int, args map[string]interface{}) (interface{}, error) {
	keyCol, _ := toInt(args["key_col"])
	valCol, _ := toInt(args["value_col"])

	out := make(map[string]interface{})
	for i := start; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			break
		}
		fields := strings.Fields(lines[i])
		if keyCol >= len(fields) || valCol >= len(fields) {
			continue
		}
		out[fields[keyCol]] = fields[valCol]
	}
	return out, nil
}

func toInt(v interface{}) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case float64:
		return int(n), nil
	case string:
		i, err := strconv.Atoi(n)
		if err != nil {
			return 0, errkind.Wrap(errkind.Parse, err, "parsing integer argument %q", n)
		}
		return i, nil
	case nil:
		return 0, nil
	default:
		return 0, errkind.New(errkind.Parse, "argument %v is not an integer", v)
	}
}
