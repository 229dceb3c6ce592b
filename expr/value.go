package expr

import (
	"strconv"

	"github.com/pkg/errors"
)

type valueKind int

const (
	kindInt valueKind = iota
	kindFloat
	kindBool
	kindString
	kindList
)

// value is a dynamic value produced while evaluating an expression: a
// number, boolean, string or list thereof (spec §4.1).
type value struct {
	kind valueKind
	i    int64
	f    float64
	b    bool
	s    string
	list []value
}

func intVal(i int64) value      { return value{kind: kindInt, i: i} }
func floatVal(f float64) value  { return value{kind: kindFloat, f: f} }
func boolVal(b bool) value      { return value{kind: kindBool, b: b} }
func stringVal(s string) value  { return value{kind: kindString, s: s} }
func listVal(vs []value) value  { return value{kind: kindList, list: vs} }

// convert implements the numeric auto-conversion rule of spec §4.1: a
// string value is parsed as integer, then float, then boolean, else left
// as a string.
func convert(s string) value {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return intVal(i)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return floatVal(f)
	}
	if s == "True" {
		return boolVal(true)
	}
	if s == "False" {
		return boolVal(false)
	}
	return stringVal(s)
}

func (v value) isNumeric() bool { return v.kind == kindInt || v.kind == kindFloat }

func (v value) asFloat() float64 {
	switch v.kind {
	case kindInt:
		return float64(v.i)
	case kindFloat:
		return v.f
	case kindBool:
		if v.b {
			return 1
		}
		return 0
	default:
		return 0
	}
}

// truthy implements the truthiness rule used by and/or/not and the boolean
// coercion into result values (spec §4.6 "match" category uses the same
// idea for non-empty, non-false values).
func (v value) truthy() bool {
	switch v.kind {
	case kindBool:
		return v.b
	case kindInt:
		return v.i != 0
	case kindFloat:
		return v.f != 0
	case kindString:
		return v.s != ""
	case kindList:
		return len(v.list) > 0
	default:
		return false
	}
}

// render formats v the way a substitution without an explicit format spec
// does: the default string rendering for each kind.
func (v value) render() (string, error) {
	switch v.kind {
	case kindInt:
		return strconv.FormatInt(v.i, 10), nil
	case kindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64), nil
	case kindBool:
		if v.b {
			return "True", nil
		}
		return "False", nil
	case kindString:
		return v.s, nil
	case kindList:
		return "", errors.New("cannot render a list value directly; use an iteration")
	default:
		return "", errors.Errorf("unsupported value kind %d", v.kind)
	}
}

// native returns the Go value matching v's kind, for use as a fmt.Sprintf
// argument when a printf-style format spec follows the expression.
func (v value) native() interface{} {
	switch v.kind {
	case kindInt:
		return v.i
	case kindFloat:
		return v.f
	case kindBool:
		return v.b
	case kindString:
		return v.s
	default:
		return nil
	}
}
