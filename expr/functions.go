package expr

import (
	"math"

	"github.com/pkg/errors"

	"github.com/pavilion-hpc/pavilion/vartable"
)

// builtin is a registered expression function. Most operate on already
// evaluated argument values; keys() is special-cased in evalCall because it
// needs the raw variable reference rather than its resolved value.
type builtin func(args []value) (value, error)

// builtins holds the fixed set of functions spec §4.1 names: min, max, len,
// sum, round and keys. Unlike corectx.Registry (used for pluggable
// scheduler/parser/chunker capabilities), this set is closed — the
// expression grammar itself names exactly these functions.
var builtins = map[string]builtin{
	"min":   fnMin,
	"max":   fnMax,
	"len":   fnLen,
	"sum":   fnSum,
	"round": fnRound,
}

func evalCall(e callNode, t *vartable.Table) (value, error) {
	if e.name == "keys" {
		return evalKeys(e, t)
	}
	fn, ok := builtins[e.name]
	if !ok {
		return value{}, errors.Errorf("unknown function %q", e.name)
	}
	args := make([]value, len(e.args))
	for i, a := range e.args {
		v, err := evalNode(a, t)
		if err != nil {
			return value{}, err
		}
		args[i] = v
	}
	return fn(args)
}

func evalKeys(e callNode, t *vartable.Table) (value, error) {
	if len(e.args) != 1 {
		return value{}, errors.New("keys() takes exactly one argument")
	}
	ref, ok := e.args[0].(refNode)
	if !ok {
		return value{}, errors.New("keys() requires a bare variable reference")
	}
	parsed, err := vartable.ParseReference(ref.text)
	if err != nil {
		return value{}, err
	}
	names, err := t.Keys(parsed)
	if err != nil {
		return value{}, err
	}
	out := make([]value, len(names))
	for i, n := range names {
		out[i] = stringVal(n)
	}
	return listVal(out), nil
}

// argsAsFlatList flattens arguments into one slice of numeric values,
// accepting either a single list argument or multiple scalar arguments —
// both min(x.*.a) and min(1, 2, 3) are valid (spec §4.1).
func argsAsFlatList(name string, args []value) ([]value, error) {
	if len(args) == 1 && args[0].kind == kindList {
		return args[0].list, nil
	}
	return args, nil
}

func fnMin(args []value) (value, error) {
	vals, err := argsAsFlatList("min", args)
	if err != nil {
		return value{}, err
	}
	if len(vals) == 0 {
		return value{}, errors.New("min() requires at least one value")
	}
	best := vals[0]
	for _, v := range vals[1:] {
		if !v.isNumeric() || !best.isNumeric() {
			return value{}, errors.New("min() requires numeric operands")
		}
		if v.asFloat() < best.asFloat() {
			best = v
		}
	}
	return best, nil
}

func fnMax(args []value) (value, error) {
	vals, err := argsAsFlatList("max", args)
	if err != nil {
		return value{}, err
	}
	if len(vals) == 0 {
		return value{}, errors.New("max() requires at least one value")
	}
	best := vals[0]
	for _, v := range vals[1:] {
		if !v.isNumeric() || !best.isNumeric() {
			return value{}, errors.New("max() requires numeric operands")
		}
		if v.asFloat() > best.asFloat() {
			best = v
		}
	}
	return best, nil
}

func fnLen(args []value) (value, error) {
	if len(args) != 1 {
		return value{}, errors.New("len() takes exactly one argument")
	}
	switch args[0].kind {
	case kindList:
		return intVal(int64(len(args[0].list))), nil
	case kindString:
		return intVal(int64(len(args[0].s))), nil
	}
	return value{}, errors.New("len() requires a list or string operand")
}

func fnSum(args []value) (value, error) {
	vals, err := argsAsFlatList("sum", args)
	if err != nil {
		return value{}, err
	}
	allInt := true
	var fsum float64
	var isum int64
	for _, v := range vals {
		if !v.isNumeric() {
			return value{}, errors.New("sum() requires numeric operands")
		}
		if v.kind != kindInt {
			allInt = false
		}
		fsum += v.asFloat()
		if v.kind == kindInt {
			isum += v.i
		}
	}
	if allInt {
		return intVal(isum), nil
	}
	return floatVal(fsum), nil
}

func fnRound(args []value) (value, error) {
	if len(args) < 1 || len(args) > 2 {
		return value{}, errors.New("round() takes one or two arguments")
	}
	if !args[0].isNumeric() {
		return value{}, errors.New("round() requires a numeric first argument")
	}
	digits := 0
	if len(args) == 2 {
		if args[1].kind != kindInt {
			return value{}, errors.New("round() precision argument must be an integer")
		}
		digits = int(args[1].i)
	}
	scale := math.Pow(10, float64(digits))
	r := math.Round(args[0].asFloat()*scale) / scale
	if digits <= 0 {
		return intVal(int64(r)), nil
	}
	return floatVal(r), nil
}
