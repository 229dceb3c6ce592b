package resolver

import (
	"regexp"

	"github.com/pkg/errors"

	"github.com/pavilion-hpc/pavilion/errkind"
	"github.com/pavilion-hpc/pavilion/expr"
	"github.com/pavilion-hpc/pavilion/vartable"
)

// evaluateSkip implements spec §4.2 step 4: only_if is a conjunction over
// its keys (a key matches iff the resolved key fully matches any of its
// listed, implicitly-anchored regex patterns) and not_if is a disjunction
// (any match anywhere means skip). It returns (skip, deferred, err):
// deferred is true when a condition could not yet be evaluated because it
// referenced a Deferred Variable, per spec §4.2's "deferred-variable
// conditions are re-evaluated post-allocation."
func evaluateSkip(table *vartable.Table, spec TestSpec) (skip bool, deferred bool, err error) {
	onlyOK, onlyDeferred, err := evaluateConjunction(table, spec["only_if"])
	if err != nil {
		return false, false, err
	}
	notTriggered, notDeferred, err := evaluateDisjunction(table, spec["not_if"])
	if err != nil {
		return false, false, err
	}
	if onlyDeferred || notDeferred {
		return false, true, nil
	}
	return !onlyOK || notTriggered, false, nil
}

// evaluateConjunction reports whether every key in raw matches at least one
// of its patterns (an empty/absent only_if is vacuously true).
func evaluateConjunction(table *vartable.Table, raw interface{}) (ok bool, deferred bool, err error) {
	conds, ok2 := raw.(map[string]interface{})
	if !ok2 {
		return true, false, nil
	}
	for key, patterns := range conds {
		matched, isDeferred, err := matchAny(table, key, patterns)
		if err != nil {
			return false, false, err
		}
		if isDeferred {
			return false, true, nil
		}
		if !matched {
			return false, false, nil
		}
	}
	return true, false, nil
}

// evaluateDisjunction reports whether any key in raw matches any of its
// patterns (an empty/absent not_if is vacuously false).
func evaluateDisjunction(table *vartable.Table, raw interface{}) (triggered bool, deferred bool, err error) {
	conds, ok := raw.(map[string]interface{})
	if !ok {
		return false, false, nil
	}
	for key, patterns := range conds {
		matched, isDeferred, err := matchAny(table, key, patterns)
		if err != nil {
			return false, false, err
		}
		if isDeferred {
			return false, true, nil
		}
		if matched {
			return true, false, nil
		}
	}
	return false, false, nil
}

func matchAny(table *vartable.Table, keyTemplate string, patternsRaw interface{}) (matched bool, deferred bool, err error) {
	resolved, err := expr.Substitute(keyTemplate, table)
	if err != nil {
		if errors.Cause(err) == expr.ErrDeferred {
			return false, true, nil
		}
		return false, false, err
	}
	for _, p := range asStringList(patternsRaw) {
		anchored := "^(?:" + p + ")$"
		re, compileErr := regexp.Compile(anchored)
		if compileErr != nil {
			return false, false, errkind.Wrap(errkind.Configuration, compileErr, "invalid only_if/not_if pattern %q", p)
		}
		if re.MatchString(resolved) {
			return true, false, nil
		}
	}
	return false, false, nil
}
