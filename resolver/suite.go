// Package resolver implements the Test Resolver (spec §4.2): it merges
// host, suite, mode and override configuration, expands inheritance and
// permutations, substitutes everything but deferred values, and evaluates
// only_if/not_if to produce one or more finalized Test-Run specs per suite
// test. The merge/override idiom is grounded on pkg/defaults.CopyWithDefaults
// and config/defaults.go's layered-default approach, generalized from a
// single fixed LoadTest shape to the suite map's free-form attributes.
package resolver

import (
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"

	"github.com/pavilion-hpc/pavilion/errkind"
)

// TestSpec is one entry of a Suite Map: a free-form attribute bag (spec
// §4.2's "free-form attributes including scheduler, schedule, build, run,
// result_parse, result_evaluate, variables, permute_on, only_if, not_if,
// subtitle, summary"). It is kept untyped, like a parsed YAML document,
// rather than a fixed struct: suite authors can attach arbitrary nested
// attributes, and the resolver's job is to merge them, not to validate
// every domain-specific shape.
type TestSpec map[string]interface{}

// Suite is the parsed Suite Map: test base-name to TestSpec.
type Suite map[string]TestSpec

// LoadSuite parses a YAML suite-map document into a Suite, normalizing the
// map[interface{}]interface{} shape yaml.v2 produces for nested maps into
// map[string]interface{} throughout so later merge code need not special-
// case it.
func LoadSuite(data []byte) (Suite, error) {
	var raw map[string]map[interface{}]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, errkind.Wrap(errkind.Configuration, err, "parsing suite map")
	}
	out := make(Suite, len(raw))
	for name, spec := range raw {
		out[name] = TestSpec(normalizeMap(spec))
	}
	return out, nil
}

// normalizeMap recursively converts a map[interface{}]interface{} (and any
// []interface{} containing them) into map[string]interface{}, which is the
// shape merge.go and the variable builder expect.
func normalizeMap(m map[interface{}]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		ks, ok := k.(string)
		if !ok {
			continue
		}
		out[ks] = normalizeValue(v)
	}
	return out
}

func normalizeValue(v interface{}) interface{} {
	switch t := v.(type) {
	case map[interface{}]interface{}:
		return normalizeMap(t)
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, e := range t {
			out[i] = normalizeValue(e)
		}
		return out
	default:
		return v
	}
}

// clone returns a deep-enough copy of a TestSpec for merge destinations: map
// values are copied recursively, list and scalar values are shared (they
// are replaced wholesale on override, never mutated in place).
func (s TestSpec) clone() TestSpec {
	out := make(TestSpec, len(s))
	for k, v := range s {
		if m, ok := v.(map[string]interface{}); ok {
			out[k] = cloneMap(m)
		} else {
			out[k] = v
		}
	}
	return out
}

func cloneMap(m map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		if nested, ok := v.(map[string]interface{}); ok {
			out[k] = cloneMap(nested)
		} else {
			out[k] = v
		}
	}
	return out
}

// stringOr returns s[key] as a string, or "" if absent or not a string.
func (s TestSpec) stringOr(key string) string {
	v, ok := s[key].(string)
	if !ok {
		return ""
	}
	return v
}

var errMissingBase = errors.New("inherits_from names a test not present in this suite")
