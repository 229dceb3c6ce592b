package expr

import (
	"github.com/pkg/errors"

	"github.com/pavilion-hpc/pavilion/vartable"
)

// ErrDeferred is returned (via errors.Cause) when evaluation reaches a
// reference to a Deferred Variable whose value is not yet known. Callers
// that evaluate expressions ahead of allocation (e.g. the test resolver)
// should catch this and leave the expression as a deferred substitution
// point rather than fail the run (spec §3).
var ErrDeferred = errors.New("reference to a deferred variable")

// Eval parses and evaluates src against t, returning its default string
// rendering. Eval is the entry point used by template substitution.
func Eval(src string, t *vartable.Table) (string, error) {
	n, err := parseExpr(src)
	if err != nil {
		return "", errors.Wrapf(err, "parsing expression %q", src)
	}
	v, err := evalNode(n, t)
	if err != nil {
		return "", err
	}
	return v.render()
}

// EvalValue parses and evaluates src, returning the native Go value for use
// with a printf-style format spec.
func EvalValue(src string, t *vartable.Table) (interface{}, error) {
	n, err := parseExpr(src)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing expression %q", src)
	}
	v, err := evalNode(n, t)
	if err != nil {
		return nil, err
	}
	return v.native(), nil
}

// EvalBool parses and evaluates src as a boolean condition, per the
// truthiness rule (spec §4.1), for use by only_if/not_if evaluation.
func EvalBool(src string, t *vartable.Table) (bool, error) {
	n, err := parseExpr(src)
	if err != nil {
		return false, errors.Wrapf(err, "parsing expression %q", src)
	}
	v, err := evalNode(n, t)
	if err != nil {
		return false, err
	}
	return v.truthy(), nil
}

func evalNode(n node, t *vartable.Table) (value, error) {
	switch e := n.(type) {
	case numberNode:
		return convert(e.text), nil
	case stringNode:
		return stringVal(e.text), nil
	case boolNode:
		return boolVal(e.b), nil
	case refNode:
		return evalRef(e.text, t)
	case unaryNode:
		inner, err := evalNode(e.expr, t)
		if err != nil {
			return value{}, err
		}
		switch e.op {
		case tokMinus:
			if !inner.isNumeric() {
				return value{}, errors.New("unary '-' requires a numeric operand")
			}
			if inner.kind == kindInt {
				return intVal(-inner.i), nil
			}
			return floatVal(-inner.f), nil
		case tokNot:
			return boolVal(!inner.truthy()), nil
		}
		return value{}, errors.Errorf("unknown unary operator %v", e.op)
	case binaryNode:
		return evalBinary(e, t)
	case callNode:
		return evalCall(e, t)
	}
	return value{}, errors.Errorf("unknown expression node %T", n)
}

func evalRef(text string, t *vartable.Table) (value, error) {
	ref, err := vartable.ParseReference(text)
	if err != nil {
		return value{}, err
	}
	res, err := t.Resolve(ref)
	if err != nil {
		return value{}, err
	}
	if res.Deferred {
		return value{}, errors.Wrapf(ErrDeferred, "%s", text)
	}
	if res.IsList {
		vals := make([]value, len(res.List))
		for i, s := range res.List {
			vals[i] = convert(s)
		}
		return listVal(vals), nil
	}
	return convert(res.Scalar), nil
}

func evalBinary(e binaryNode, t *vartable.Table) (value, error) {
	if e.op == tokAnd || e.op == tokOr {
		left, err := evalNode(e.left, t)
		if err != nil {
			return value{}, err
		}
		if e.op == tokAnd && !left.truthy() {
			return left, nil
		}
		if e.op == tokOr && left.truthy() {
			return left, nil
		}
		return evalNode(e.right, t)
	}

	left, err := evalNode(e.left, t)
	if err != nil {
		return value{}, err
	}
	right, err := evalNode(e.right, t)
	if err != nil {
		return value{}, err
	}

	switch e.op {
	case tokPlus:
		return add(left, right)
	case tokMinus:
		return sub(left, right)
	case tokStar:
		return mul(left, right)
	case tokSlash:
		return trueDiv(left, right)
	case tokSlashSlash:
		return floorDiv(left, right)
	case tokPercent:
		return mod(left, right)
	case tokCaret:
		return pow(left, right)
	case tokEq:
		return compare("==", left, right)
	case tokNeq:
		return compare("!=", left, right)
	case tokLt:
		return compare("<", left, right)
	case tokLe:
		return compare("<=", left, right)
	case tokGt:
		return compare(">", left, right)
	case tokGe:
		return compare(">=", left, right)
	}
	return value{}, errors.Errorf("unknown binary operator %v", e.op)
}
