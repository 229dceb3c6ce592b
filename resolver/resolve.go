package resolver

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pavilion-hpc/pavilion/errkind"
	"github.com/pavilion-hpc/pavilion/vartable"
)

// Options carries the layers the Resolver merges before a suite's own test
// specs, and the engine-provided sys/pav scope variables every test sees
// (spec §4.2 step 1, §3 scopes).
type Options struct {
	Defaults  TestSpec
	Host      TestSpec
	Modes     []TestSpec
	Overrides TestSpec
	SysVars   map[string]string
	PavVars   map[string]string
}

// Resolve runs every test in suite through the full resolution pipeline
// (spec §4.2) and returns the flattened list of TestRuns across every test
// and every permutation, in deterministic (sorted-name) order. A test
// whose own resolution fails does not prevent the rest of the suite from
// resolving (spec §4.2: "failure aborts the single test only"); its name
// and error are folded into the returned error, but every other test's
// runs are still present in the returned slice.
func Resolve(suite Suite, opts Options) ([]*TestRun, error) {
	names := make([]string, 0, len(suite))
	for name := range suite {
		names = append(names, name)
	}
	sort.Strings(names)

	var runs []*TestRun
	var failures []string
	for _, name := range names {
		testRuns, err := resolveOne(suite, name, opts)
		if err != nil {
			failures = append(failures, fmt.Sprintf("%q: %v", name, err))
			continue
		}
		runs = append(runs, testRuns...)
	}
	if len(failures) > 0 {
		return runs, errkind.New(errkind.Configuration, "failed to resolve %d test(s): %s", len(failures), strings.Join(failures, "; "))
	}
	return runs, nil
}

func resolveOne(suite Suite, name string, opts Options) ([]*TestRun, error) {
	suiteSpec, err := resolveInheritance(suite, name)
	if err != nil {
		return nil, err
	}

	merged := mergeInto(opts.Defaults, opts.Host)
	merged = mergeInto(merged, suiteSpec)
	for _, mode := range opts.Modes {
		merged = mergeInto(merged, mode)
	}
	merged = mergeInto(merged, opts.Overrides)

	table := vartable.New()
	for k, v := range opts.SysVars {
		table.Set(vartable.ScopeSys, k, vartable.NewScalar(v))
	}
	for k, v := range opts.PavVars {
		table.Set(vartable.ScopePav, k, vartable.NewScalar(v))
	}
	if err := buildVariables(table, merged); err != nil {
		return nil, err
	}

	permuteOn := asStringList(merged["permute_on"])
	combos, err := expandPermutations(table, permuteOn)
	if err != nil {
		return nil, err
	}

	runs := make([]*TestRun, 0, len(combos))
	for _, combo := range combos {
		run, err := buildRun(name, merged, table, combo)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, nil
}

func buildRun(name string, merged TestSpec, table *vartable.Table, combo permutation) (*TestRun, error) {
	scopedTable, err := applyPermutation(table, combo)
	if err != nil {
		return nil, err
	}

	label, err := computeLabel(name, merged, scopedTable)
	if err != nil {
		return nil, err
	}

	var deferredFields []string

	// schedule and build are pre-dispatch contexts: spec §4.1 forbids a
	// Deferred Variable reference in either, the same way computeLabel
	// forbids one in subtitle. Substitute them in isolation so a deferred
	// reference anywhere inside either section is caught immediately,
	// rather than surfacing later as an unresolved "{{ ... }}" literal
	// shipped into a build script or sbatch invocation.
	scheduleRaw, _ := merged["schedule"]
	var scheduleDeferred []string
	scheduleSub, err := substituteTree(scheduleRaw, scopedTable, "schedule", &scheduleDeferred)
	if err != nil {
		return nil, err
	}
	if len(scheduleDeferred) > 0 {
		return nil, errkind.New(errkind.Configuration, "schedule section may not reference a deferred variable (%s)", scheduleDeferred[0])
	}

	rest := merged.clone()
	delete(rest, "schedule")

	buildRaw, _ := rest["build"]
	var buildDeferred []string
	buildSub, err := substituteTree(buildRaw, scopedTable, "build", &buildDeferred)
	if err != nil {
		return nil, err
	}
	if len(buildDeferred) > 0 {
		return nil, errkind.New(errkind.Configuration, "build section may not reference a deferred variable (%s)", buildDeferred[0])
	}
	delete(rest, "build")

	restSub, err := substituteTree(map[string]interface{}(rest), scopedTable, "", &deferredFields)
	if err != nil {
		return nil, err
	}
	restMap := restSub.(map[string]interface{})
	restMap["schedule"] = scheduleSub
	restMap["build"] = buildSub

	skip, skipDeferred, err := evaluateSkip(scopedTable, merged)
	if err != nil {
		return nil, err
	}

	buildSpec, _ := restMap["build"].(map[string]interface{})
	scheduleSpec, _ := restMap["schedule"].(map[string]interface{})

	return &TestRun{
		Label:          label,
		Config:         TestSpec(restMap),
		BuildSpec:      TestSpec(buildSpec),
		ScheduleSpec:   TestSpec(scheduleSpec),
		DeferredFields: deferredFields,
		Skip:           skip,
		SkipDeferred:   skipDeferred,
		Vars:           scopedTable,
	}, nil
}

// computeLabel renders the test's subtitle template (if any) against the
// permutation-pinned table and appends it to the base test name, producing
// names like "t.a-1" for permute_on=[m,n] (spec §3's Permutation entry,
// scenario S2).
func computeLabel(name string, merged TestSpec, table *vartable.Table) (string, error) {
	subtitle := merged.stringOr("subtitle")
	if subtitle == "" {
		return name, nil
	}
	var deferred []string
	rendered, err := substituteTree(subtitle, table, "subtitle", &deferred)
	if err != nil {
		return "", err
	}
	if len(deferred) > 0 {
		return "", errkind.New(errkind.Configuration, "subtitle may not reference a deferred variable")
	}
	return fmt.Sprintf("%s.%s", name, rendered), nil
}
