package resolver

import "github.com/pavilion-hpc/pavilion/vartable"

// TestRun is the Resolver's output for one candidate run (spec §4.2,
// "Output: one or more Test-Run specs per input test"). ID assignment
// within the label namespace happens later, when the run directory is
// created (package rundir) — two resolver runs can legally race to create
// the same Label's next numbered directory, so ID is not decided here.
type TestRun struct {
	// Label names the test this run was produced from, including any
	// permutation subtitle (e.g. "t.a-1" for permute_on=[m,n] combination
	// m=a, n=1).
	Label string

	// Config is the fully merged, substituted (non-deferred portions)
	// finalized config for this run (spec §4.2 step 5).
	Config TestSpec

	// BuildSpec is Config's "build" section, substituted.
	BuildSpec TestSpec

	// ScheduleSpec is Config's "schedule" section, substituted first per
	// spec §4.2 step 3 ("its results must be known before dispatch").
	ScheduleSpec TestSpec

	// DeferredFields lists the dotted config paths (e.g. "run.cmds.0")
	// whose value still contains an unresolved deferred-variable
	// expression, to be substituted post-allocation.
	DeferredFields []string

	// Skip marks a run whose only_if/not_if evaluation (spec §4.2 step 4)
	// determined it should not execute; rundir records it directly as
	// State Skipped without ever entering Building/Running.
	Skip bool

	// SkipDeferred marks a run whose skip condition referenced a deferred
	// variable and must be re-evaluated after allocation, per spec §4.2
	// step 4's "deferred-variable conditions are re-evaluated
	// post-allocation."
	SkipDeferred bool

	// Vars is the fully populated variable table (after permutation
	// pinning) backing this run's remaining deferred substitutions.
	Vars *vartable.Table
}
