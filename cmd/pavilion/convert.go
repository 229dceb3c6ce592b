package main

// asMap type-asserts v as a nested configuration section, returning an
// empty map rather than failing when the key was never set: most §4.2
// sections (build, schedule, result_parse) are optional.
func asMap(v interface{}) map[string]interface{} {
	m, _ := v.(map[string]interface{})
	return m
}

func asString(v interface{}) string {
	s, _ := v.(string)
	return s
}

func asBool(v interface{}) bool {
	b, _ := v.(bool)
	return b
}

func asInt(v interface{}) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}

func asStringSlice(v interface{}) []string {
	switch l := v.(type) {
	case []string:
		return l
	case []interface{}:
		out := make([]string, 0, len(l))
		for _, e := range l {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

func asSliceOfMaps(v interface{}) []map[string]interface{} {
	l, _ := v.([]interface{})
	out := make([]map[string]interface{}, 0, len(l))
	for _, e := range l {
		out = append(out, asMap(e))
	}
	return out
}
