package result

import (
	"encoding/json"
	"fmt"

	"github.com/pavilion-hpc/pavilion/errkind"
	"github.com/pavilion-hpc/pavilion/expr"
	"github.com/pavilion-hpc/pavilion/vartable"
)

// evaluate implements Phase D (spec §4.6): result_evaluate runs key:
// expression pairs through the same expression engine as §4.1, with
// variables now referencing prior result entries (including ones added by
// earlier evaluations in the same sequence) instead of the suite's
// variable table.
//
// Values are preserved in their native type rather than coerced to
// strings; the evaluator builds a fresh vartable.Table from the result's
// current contents before each expression, so a later expression sees
// every earlier one's output.
func evaluate(res *Result, exprs []KeyExpr) error {
	for _, ke := range exprs {
		t := resultTable(res)
		v, err := expr.EvalValue(ke.Expression, t)
		if err != nil {
			return errkind.Wrap(errkind.Resolution, err, "evaluating result_evaluate key %q", ke.Key)
		}
		if ke.Key == "result" {
			res.Result = boolToPassFail(nativeTruthy(v))
			continue
		}
		res.Extra[ke.Key] = v
	}
	return nil
}

// resultTable projects the result's current fields into a vartable.Table
// so expr.EvalValue can resolve references by name. Lists become
// multi-valued string variables (lossy for nested structures); this is a
// deliberate simplification of the expression engine's scalar/list-only
// value model, documented in the design notes.
func resultTable(res *Result) *vartable.Table {
	t := vartable.New()
	set := func(name string, v interface{}) {
		switch x := v.(type) {
		case []interface{}:
			ss := make([]string, len(x))
			for i, e := range x {
				ss[i] = renderString(e)
			}
			t.Set(vartable.ScopeVar, name, vartable.NewList(ss))
		default:
			t.Set(vartable.ScopeVar, name, vartable.NewScalar(renderString(x)))
		}
	}

	set("name", res.Name)
	set("id", res.ID)
	set("return_value", res.ReturnValue)
	set("duration", res.DurationSec)
	if res.Result != "" {
		set("result", res.Result)
	}
	for k, v := range res.Extra {
		set(k, v)
	}
	return t
}

func nativeTruthy(v interface{}) bool {
	switch x := v.(type) {
	case bool:
		return x
	case nil:
		return false
	case string:
		return x != ""
	case int64:
		return x != 0
	case float64:
		return x != 0
	default:
		return true
	}
}

func toJSONString(v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}
