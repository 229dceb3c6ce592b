package resolver

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/pavilion-hpc/pavilion/expr"
	"github.com/pavilion-hpc/pavilion/vartable"
)

// substituteTree walks section (a nested map/list/scalar TestSpec value, as
// produced by yaml.v2 normalization) and substitutes every string leaf
// against table. A leaf whose expression touches a Deferred Variable is
// left as-is, and its dotted path relative to prefix is appended to
// *deferred — the run carries it forward as a deferred substitution point
// rather than failing resolution (spec §3, §4.2 step 3/5).
func substituteTree(v interface{}, table *vartable.Table, prefix string, deferred *[]string) (interface{}, error) {
	switch t := v.(type) {
	case string:
		rendered, err := expr.Substitute(t, table)
		if err != nil {
			if errors.Cause(err) == expr.ErrDeferred {
				*deferred = append(*deferred, prefix)
				return t, nil
			}
			return nil, err
		}
		return rendered, nil
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, e := range t {
			child := prefix + "." + k
			if prefix == "" {
				child = k
			}
			rv, err := substituteTree(e, table, child, deferred)
			if err != nil {
				return nil, err
			}
			out[k] = rv
		}
		return out, nil
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, e := range t {
			rv, err := substituteTree(e, table, fmt.Sprintf("%s.%d", prefix, i), deferred)
			if err != nil {
				return nil, err
			}
			out[i] = rv
		}
		return out, nil
	default:
		return v, nil
	}
}
