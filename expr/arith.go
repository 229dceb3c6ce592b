package expr

import (
	"math"

	"github.com/pkg/errors"
)

// binaryOp applies a scalar binary operator to two values, broadcasting
// across lists per spec §4.1: "List-to-list operations require equal
// length and apply element-wise; list-to-scalar distributes the scalar."
func binaryOp(op string, a, b value, scalar func(a, b value) (value, error)) (value, error) {
	if a.kind == kindList && b.kind == kindList {
		if len(a.list) != len(b.list) {
			return value{}, errors.Errorf("%s: list operands have different lengths (%d vs %d)", op, len(a.list), len(b.list))
		}
		out := make([]value, len(a.list))
		for i := range a.list {
			v, err := binaryOp(op, a.list[i], b.list[i], scalar)
			if err != nil {
				return value{}, err
			}
			out[i] = v
		}
		return listVal(out), nil
	}
	if a.kind == kindList {
		out := make([]value, len(a.list))
		for i := range a.list {
			v, err := binaryOp(op, a.list[i], b, scalar)
			if err != nil {
				return value{}, err
			}
			out[i] = v
		}
		return listVal(out), nil
	}
	if b.kind == kindList {
		out := make([]value, len(b.list))
		for i := range b.list {
			v, err := binaryOp(op, a, b.list[i], scalar)
			if err != nil {
				return value{}, err
			}
			out[i] = v
		}
		return listVal(out), nil
	}
	return scalar(a, b)
}

func add(a, b value) (value, error) {
	return binaryOp("+", a, b, func(a, b value) (value, error) {
		if a.kind == kindString || b.kind == kindString {
			as, err := a.render()
			if err != nil {
				return value{}, err
			}
			bs, err := b.render()
			if err != nil {
				return value{}, err
			}
			return stringVal(as + bs), nil
		}
		if !a.isNumeric() || !b.isNumeric() {
			return value{}, errors.New("+ requires numeric or string operands")
		}
		if a.kind == kindInt && b.kind == kindInt {
			return intVal(a.i + b.i), nil
		}
		return floatVal(a.asFloat() + b.asFloat()), nil
	})
}

func sub(a, b value) (value, error) {
	return binaryOp("-", a, b, func(a, b value) (value, error) {
		if !a.isNumeric() || !b.isNumeric() {
			return value{}, errors.New("- requires numeric operands")
		}
		if a.kind == kindInt && b.kind == kindInt {
			return intVal(a.i - b.i), nil
		}
		return floatVal(a.asFloat() - b.asFloat()), nil
	})
}

func mul(a, b value) (value, error) {
	return binaryOp("*", a, b, func(a, b value) (value, error) {
		if !a.isNumeric() || !b.isNumeric() {
			return value{}, errors.New("* requires numeric operands")
		}
		if a.kind == kindInt && b.kind == kindInt {
			return intVal(a.i * b.i), nil
		}
		return floatVal(a.asFloat() * b.asFloat()), nil
	})
}

// trueDiv implements "/": always a float result, even for int/int.
func trueDiv(a, b value) (value, error) {
	return binaryOp("/", a, b, func(a, b value) (value, error) {
		if !a.isNumeric() || !b.isNumeric() {
			return value{}, errors.New("/ requires numeric operands")
		}
		if b.asFloat() == 0 {
			return value{}, errors.New("division by zero")
		}
		return floatVal(a.asFloat() / b.asFloat()), nil
	})
}

// floorDiv implements "//": floor division, staying an int when both
// operands are ints.
func floorDiv(a, b value) (value, error) {
	return binaryOp("//", a, b, func(a, b value) (value, error) {
		if !a.isNumeric() || !b.isNumeric() {
			return value{}, errors.New("// requires numeric operands")
		}
		if b.asFloat() == 0 {
			return value{}, errors.New("division by zero")
		}
		if a.kind == kindInt && b.kind == kindInt {
			q := a.i / b.i
			if (a.i%b.i != 0) && ((a.i < 0) != (b.i < 0)) {
				q--
			}
			return intVal(q), nil
		}
		return floatVal(math.Floor(a.asFloat() / b.asFloat())), nil
	})
}

func mod(a, b value) (value, error) {
	return binaryOp("%", a, b, func(a, b value) (value, error) {
		if !a.isNumeric() || !b.isNumeric() {
			return value{}, errors.New("%% requires numeric operands")
		}
		if b.asFloat() == 0 {
			return value{}, errors.New("division by zero")
		}
		if a.kind == kindInt && b.kind == kindInt {
			return intVal(a.i % b.i), nil
		}
		return floatVal(math.Mod(a.asFloat(), b.asFloat())), nil
	})
}

func pow(a, b value) (value, error) {
	return binaryOp("^", a, b, func(a, b value) (value, error) {
		if !a.isNumeric() || !b.isNumeric() {
			return value{}, errors.New("^ requires numeric operands")
		}
		r := math.Pow(a.asFloat(), b.asFloat())
		if a.kind == kindInt && b.kind == kindInt && b.i >= 0 {
			return intVal(int64(r)), nil
		}
		return floatVal(r), nil
	})
}

func compare(op string, a, b value) (value, error) {
	return binaryOp(op, a, b, func(a, b value) (value, error) {
		var cmp int
		switch {
		case a.kind == kindString || b.kind == kindString:
			as, _ := a.render()
			bs, _ := b.render()
			switch {
			case as < bs:
				cmp = -1
			case as > bs:
				cmp = 1
			}
		default:
			af, bf := a.asFloat(), b.asFloat()
			switch {
			case af < bf:
				cmp = -1
			case af > bf:
				cmp = 1
			}
		}
		switch op {
		case "==":
			return boolVal(cmp == 0), nil
		case "!=":
			return boolVal(cmp != 0), nil
		case "<":
			return boolVal(cmp < 0), nil
		case "<=":
			return boolVal(cmp <= 0), nil
		case ">":
			return boolVal(cmp > 0), nil
		case ">=":
			return boolVal(cmp >= 0), nil
		}
		return value{}, errors.Errorf("unknown comparison operator %q", op)
	})
}
