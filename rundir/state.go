// Package rundir implements the Run Directory & State Machine (spec §4.4):
// an append-only status journal per test run plus an atomic RUN_COMPLETE
// marker, so any host sharing the working directory can cheaply poll a
// run's progress without a coordinator. The State enum and the pattern of
// mapping a terminal/non-terminal condition is grounded on status/status.go
// (State, StateForContainerStatus), generalized from the three pod-level
// states (Pending/Succeeded/Errored) to the run's full lifecycle.
package rundir

import "github.com/pavilion-hpc/pavilion/errkind"

// State is one entry of a run's status journal (spec §4.4).
type State string

const (
	Created        State = "Created"
	Resolved       State = "Resolved"
	BuildWait      State = "BuildWait"
	Building       State = "Building"
	BuildDone      State = "BuildDone"
	Scheduled      State = "Scheduled"
	Running        State = "Running"
	ResultsParsing State = "ResultsParsing"
	Complete       State = "Complete"
	Failed         State = "Failed"
	Cancelled      State = "Cancelled"
	TimedOut       State = "TimedOut"
	Skipped        State = "Skipped"
	Error          State = "Error"
)

// order gives every non-Error state a rank, enforcing the "monotone
// forward" transition rule of spec §4.4. Error is not ranked: it may be
// entered from any non-terminal state, reflecting internal corruption
// rather than a test-run outcome.
var order = map[State]int{
	Created:        0,
	Resolved:       1,
	BuildWait:      2,
	Building:       3,
	BuildDone:      4,
	Scheduled:      5,
	Running:        6,
	ResultsParsing: 7,
	Complete:       8,
	Failed:         8,
	Cancelled:      8,
	TimedOut:       8,
	Skipped:        8,
}

// IsTerminated reports whether s is one of the run lifecycle's terminal
// states (spec §4.4).
func (s State) IsTerminated() bool {
	switch s {
	case Complete, Failed, Cancelled, TimedOut, Skipped, Error:
		return true
	default:
		return false
	}
}

// CanTransition reports whether moving from `from` to `to` is a legal
// monotone-forward transition (spec §4.4). Error is reachable from any
// non-terminal state; once any terminal state is reached, no further
// transition is legal (a fresh run directory is required to retry).
func CanTransition(from, to State) bool {
	if to == Error {
		return !from.IsTerminated()
	}
	if from.IsTerminated() {
		return false
	}
	fromRank, fromOK := order[from]
	toRank, toOK := order[to]
	if !fromOK || !toOK {
		return false
	}
	return toRank >= fromRank
}

// errIllegalTransitionFmt formats the errkind.Concurrency error returned
// when a caller attempts to append a journal entry that would move a run's
// state backward, per the monotonicity invariant (spec §8, Testable Property
// "Status monotonicity").
var errIllegalTransitionFmt = "illegal transition from %q to %q"

func illegalTransition(from, to State) error {
	return errkind.New(errkind.Concurrency, errIllegalTransitionFmt, from, to)
}
