package main

import "github.com/pavilion-hpc/pavilion/result"

// parserConfigsFrom translates a run's "result_parse" section into the
// result package's ParserConfig list (spec §4.6 Phase A/B/C).
func parserConfigsFrom(v interface{}) []result.ParserConfig {
	var out []result.ParserConfig
	for key, raw := range asMap(v) {
		m := asMap(raw)
		out = append(out, result.ParserConfig{
			Key:              key,
			Files:            asStringSlice(m["files"]),
			ForLinesMatching: asString(m["for_lines_matching"]),
			PrecededBy:       asStringSlice(m["preceded_by"]),
			Parser:           asString(m["parser"]),
			Args:             asMap(m["args"]),
			MatchSelect:      asString(m["match_select"]),
			PerFile:          asString(m["per_file"]),
			Action:           asString(m["action"]),
		})
	}
	return out
}

// keyExprsFrom translates a run's "result_evaluate" section into the
// result package's declared-order KeyExpr list (spec §4.6 Phase D). The
// section is a list of single-key maps so evaluation order is preserved,
// since a later expression may reference an earlier one's output.
func keyExprsFrom(v interface{}) []result.KeyExpr {
	var out []result.KeyExpr
	for _, entry := range asSliceOfMaps(v) {
		for k, expr := range entry {
			out = append(out, result.KeyExpr{Key: k, Expression: asString(expr)})
		}
	}
	return out
}
