package resolver

import (
	"fmt"

	"github.com/pavilion-hpc/pavilion/errkind"
	"github.com/pavilion-hpc/pavilion/vartable"
)

// buildVariables installs spec's "variables" section into table's var
// scope (spec §3, §4.1). Each entry is one of:
//
//   - a scalar (string/number/bool): a single-value scalar Variable.
//   - a list: a multi-value scalar Variable.
//   - a mapping { deferred: true, value: ... }: a Deferred Variable (spec
//     §3's "at most one value, may be a mapping with fixed keys").
//   - any other mapping: a single-value mapping Variable, whose entries may
//     themselves be scalars or lists.
func buildVariables(table *vartable.Table, spec TestSpec) error {
	raw, ok := spec["variables"].(map[string]interface{})
	if !ok {
		return nil
	}
	for name, v := range raw {
		variable, err := buildVariable(name, v)
		if err != nil {
			return err
		}
		if err := variable.Validate(); err != nil {
			return errkind.Wrap(errkind.Configuration, err, "variable %q", name)
		}
		table.Set(vartable.ScopeVar, name, variable)
	}
	return nil
}

func buildVariable(name string, v interface{}) (*vartable.Variable, error) {
	switch t := v.(type) {
	case []interface{}:
		list := make([]string, len(t))
		for i, e := range t {
			list[i] = fmt.Sprint(e)
		}
		return vartable.NewList(list), nil
	case map[string]interface{}:
		if deferred, ok := t["deferred"].(bool); ok && deferred {
			val, err := buildValue(t["value"])
			if err != nil {
				return nil, err
			}
			return vartable.NewDeferred(val), nil
		}
		mapping := vartable.NewMapping()
		for k, entry := range t {
			switch e := entry.(type) {
			case []interface{}:
				list := make([]string, len(e))
				for i, x := range e {
					list[i] = fmt.Sprint(x)
				}
				mapping.SetList(k, list)
			default:
				mapping.Set(k, fmt.Sprint(e))
			}
		}
		return vartable.NewMappingVar(mapping), nil
	default:
		return vartable.NewScalar(fmt.Sprint(t)), nil
	}
}

func buildValue(v interface{}) (vartable.Value, error) {
	if m, ok := v.(map[string]interface{}); ok {
		mapping := vartable.NewMapping()
		for k, entry := range m {
			mapping.Set(k, fmt.Sprint(entry))
		}
		return vartable.MapValue{Mapping: mapping}, nil
	}
	return vartable.StringValue(fmt.Sprint(v)), nil
}
