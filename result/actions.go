package result

import "strconv"

// applyAction implements spec §4.6's "Actions" step: after Phase C
// aggregation produces val, action converts/stores it under key. The
// result key is special-cased per spec: its value must end up boolean,
// store_true is the forced default action, and it is surfaced as the
// string PASS/FAIL rather than a raw bool.
func applyAction(res *Result, key, action string, val interface{}) {
	if key == "result" {
		if action == "" {
			action = "store_true"
		}
		res.Result = boolToPassFail(resultTruthy(action, val))
		return
	}

	switch action {
	case "store_str":
		res.Extra[key] = renderString(val)
	case "store_true":
		res.Extra[key] = truthy(val)
	case "store_false":
		res.Extra[key] = !truthy(val)
	case "count":
		res.Extra[key] = countOf(val)
	case "store", "":
		res.Extra[key] = autoConvert(val)
	default:
		res.Extra[key] = autoConvert(val)
	}
}

// resultTruthy evaluates the result key's forced-boolean value under its
// action.
func resultTruthy(action string, val interface{}) bool {
	switch action {
	case "store_false":
		return !truthy(val)
	case "count":
		return countOf(val) != 0
	default: // store_true and any other action still coerce to boolean here
		return truthy(val)
	}
}

func truthy(v interface{}) bool {
	return category(v) == categoryMatch
}

func countOf(v interface{}) int {
	switch t := v.(type) {
	case []interface{}:
		return len(t)
	case nil:
		return 0
	default:
		if category(v) == categoryMatch {
			return 1
		}
		return 0
	}
}

func renderString(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return ""
	case bool:
		if t {
			return "True"
		}
		return "False"
	default:
		return toJSONString(v)
	}
}

// autoConvert implements store's "auto-type-convert strings to
// int/float/bool where unambiguous" (spec §4.6).
func autoConvert(v interface{}) interface{} {
	s, ok := v.(string)
	if !ok {
		return v
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	if s == "True" {
		return true
	}
	if s == "False" {
		return false
	}
	return s
}
