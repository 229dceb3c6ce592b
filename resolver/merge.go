package resolver

// mergeInto implements the layered-override rule of spec §4.2 step 1: src
// is overlaid onto dst. Nested maps merge recursively (so e.g. only
// run.image is replaced while run.cmds survives untouched). Lists replace
// wholesale, except the run section's prepend_cmds/append_cmds keys, which
// splice onto dst's existing "cmds" list instead of replacing it — the one
// override exception spec §4.2 calls out by name.
func mergeInto(dst, src map[string]interface{}) map[string]interface{} {
	out := cloneMap(dst)
	if out == nil {
		out = map[string]interface{}{}
	}

	for k, v := range src {
		switch k {
		case "prepend_cmds":
			out["cmds"] = concatStringLists(asStringList(v), asStringList(out["cmds"]))
		case "append_cmds":
			out["cmds"] = concatStringLists(asStringList(out["cmds"]), asStringList(v))
		default:
			if srcMap, ok := v.(map[string]interface{}); ok {
				var dstMap map[string]interface{}
				if existing, ok := out[k].(map[string]interface{}); ok {
					dstMap = existing
				}
				out[k] = mergeInto(dstMap, srcMap)
			} else {
				out[k] = v
			}
		}
	}
	return out
}

func asStringList(v interface{}) []string {
	items, ok := v.([]interface{})
	if !ok {
		if s, ok := v.(string); ok {
			return []string{s}
		}
		return nil
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		if s, ok := it.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func concatStringLists(lists ...[]string) []interface{} {
	var out []interface{}
	for _, l := range lists {
		for _, s := range l {
			out = append(out, s)
		}
	}
	return out
}
