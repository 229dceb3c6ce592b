// Package worker implements the Worker-Pool Orchestrator (spec §4.7): a
// bounded-concurrency fan-out over resolved runs that drives each one
// through build coordination and scheduler dispatch. It is grounded on
// tools/runner/runner.go's Runner.Run, which bounds concurrency with a
// hand-rolled semaphore-by-channel loop; this package keeps that same
// "bounded fan-out with a done channel" shape but expresses it with
// golang.org/x/sync/errgroup, the concurrency-limiting helper the wider
// retrieval pack (github.com/jackc/pgx's connection pool internals, the
// bigquery client) already depends on transitively.
package worker

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/pavilion-hpc/pavilion/rundir"
)

// RunFunc drives one resolved run through build, dispatch and result
// collection to completion, returning its terminal rundir.State.
type RunFunc func(ctx context.Context, label string, index int) (rundir.State, error)

// Series is one named group of runs sharing a `repeat` count: the pool
// generates repeats lazily, only starting repeat N+1 once repeat N has at
// least begun, per spec §4.7's ordering guarantee.
type Series struct {
	Label  string
	Repeat int
	Run    RunFunc
}

// Pool bounds the number of runs in flight across every series submitted
// to it (spec §4.7: "Resolution of distinct runs is independent;
// permutation expansion is parallel").
type Pool struct {
	concurrency int
}

// New returns a Pool bounded to concurrency simultaneous runs.
func New(concurrency int) *Pool {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Pool{concurrency: concurrency}
}

// RunResult is one run's outcome, identified by series label and repeat
// index, for the caller to aggregate into a series/suite summary.
type RunResult struct {
	Label string
	Index int
	State rundir.State
	Err   error
}

// Run executes every series concurrently, honoring each series's lazy
// repeat generation and the pool's overall concurrency bound. It returns
// once every started repeat of every series has reached a terminal state;
// repeats not yet started when ctx is cancelled are not run and get no
// RunResult.
func (p *Pool) Run(ctx context.Context, series []Series) []RunResult {
	sem := make(chan struct{}, p.concurrency)
	var mu sync.Mutex
	var results []RunResult

	g, gctx := errgroup.WithContext(ctx)
	for _, s := range series {
		s := s
		g.Go(func() error {
			return p.runSeries(gctx, s, sem, &mu, &results)
		})
	}
	// errgroup's first error cancels gctx for every in-flight series, but
	// Pool.Run itself never fails outright: a single run's error belongs
	// to its RunResult, not to the orchestrator, so the aggregate error is
	// intentionally discarded here.
	_ = g.Wait()

	mu.Lock()
	defer mu.Unlock()
	out := make([]RunResult, len(results))
	copy(out, results)
	return out
}

// runSeries generates a series's repeats one at a time, starting repeat
// N+1 only after repeat N has begun (spec §4.7), while each repeat itself
// runs under the pool's shared concurrency semaphore.
func (p *Pool) runSeries(ctx context.Context, s Series, sem chan struct{}, mu *sync.Mutex, results *[]RunResult) error {
	var wg sync.WaitGroup
	for i := 0; i < s.Repeat; i++ {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			wg.Wait()
			return ctx.Err()
		}

		wg.Add(1)
		go func(index int) {
			defer wg.Done()
			defer func() { <-sem }()

			state, err := s.Run(ctx, s.Label, index)

			mu.Lock()
			*results = append(*results, RunResult{Label: s.Label, Index: index, State: state, Err: err})
			mu.Unlock()
		}(i)
		// Lazy repeat generation: this loop iteration only blocks on
		// acquiring a semaphore slot, which happens once the previous
		// repeat's goroutine has been launched (not completed) — so
		// repeat N+1 is never created before repeat N has at least begun.
	}
	wg.Wait()
	return nil
}
