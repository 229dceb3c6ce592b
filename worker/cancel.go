package worker

import (
	"context"
	"sync"

	"github.com/pavilion-hpc/pavilion/errkind"
	"github.com/pavilion-hpc/pavilion/rundir"
	"github.com/pavilion-hpc/pavilion/scheduler"
)

// Canceler tracks one outstanding job handle per run label/index, so a
// series-level cancel request can reach every pending, queued and running
// run of that series (spec §4.7: "Series-level cancel propagates to every
// pending, queued, and running test of the series").
type Canceler struct {
	mu   sync.Mutex
	jobs map[string]trackedJob
	done map[string]bool
}

type trackedJob struct {
	sched  scheduler.Scheduler
	handle scheduler.JobHandle
	dir    *rundir.Dir
}

// NewCanceler returns an empty Canceler.
func NewCanceler() *Canceler {
	return &Canceler{jobs: make(map[string]trackedJob), done: make(map[string]bool)}
}

// Track registers a run's outstanding job handle, overwriting any earlier
// registration for the same key (a run moves through at most one handle at
// a time).
func (c *Canceler) Track(key string, sched scheduler.Scheduler, handle scheduler.JobHandle, dir *rundir.Dir) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.done[key] {
		return
	}
	c.jobs[key] = trackedJob{sched: sched, handle: handle, dir: dir}
}

// Forget removes a run's tracked job once it reaches a terminal state on
// its own, so a later CancelAll call is a no-op for it.
func (c *Canceler) Forget(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.jobs, key)
	c.done[key] = true
}

// CancelAll cancels every run whose key has keyPrefix as a prefix
// (series label + "/"): idempotent per spec §4.7, since Forget/done makes
// a second call to the same key a no-op.
func (c *Canceler) CancelAll(ctx context.Context, keyPrefix string) []error {
	c.mu.Lock()
	var toCancel []string
	for key := range c.jobs {
		if hasPrefix(key, keyPrefix) {
			toCancel = append(toCancel, key)
		}
	}
	c.mu.Unlock()

	var errs []error
	for _, key := range toCancel {
		if err := c.cancelOne(ctx, key); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

// cancelOne sets the run Cancelled, invokes the scheduler's cancel if the
// run has an outstanding job handle, and writes RUN_COMPLETE (spec §4.7).
func (c *Canceler) cancelOne(ctx context.Context, key string) error {
	c.mu.Lock()
	job, ok := c.jobs[key]
	if ok {
		delete(c.jobs, key)
	}
	c.done[key] = true
	c.mu.Unlock()
	if !ok {
		return nil
	}

	if err := job.dir.Journal.Append(rundir.Cancelled, "cancelled by series-level request"); err != nil {
		return err
	}
	var cancelErr error
	if job.sched != nil && job.handle != nil {
		if err := job.sched.Cancel(ctx, job.handle); err != nil {
			// Cancel failure is reported but the run is still forced to
			// Cancelled locally and the marker still written (spec §7,
			// "Scheduler" kind).
			cancelErr = errkind.Wrap(errkind.Scheduler, err, "cancelling job for run %q", key)
		}
	}
	if err := job.dir.MarkComplete(); err != nil {
		return err
	}
	return cancelErr
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[:len(prefix)] == prefix
}
