// Package local implements the "local" scheduler plugin: a basic (non-
// advanced) Scheduler that runs a kickoff script as a plain child process
// on the current host instead of submitting it to an external resource
// manager. It exists for single-host development and CI use, the way the
// teacher's controller ran pods directly against one cluster without a
// separate batch-scheduler layer.
package local

import (
	"context"
	"os"
	"os/exec"
	"strconv"
	"sync"
	"syscall"

	"github.com/pavilion-hpc/pavilion/corectx"
	"github.com/pavilion-hpc/pavilion/errkind"
	"github.com/pavilion-hpc/pavilion/scheduler"
)

// Register installs the local plugin's constructor into reg. Registration
// is explicit, called from cmd/pavilion's wiring — not a package-level
// init() side effect — per the capability-module pattern's "explicit
// registration, no reflection-based discovery."
func Register(reg *corectx.Registry) {
	scheduler.Register(reg, "local", 0, func(config map[string]string) (scheduler.Scheduler, error) {
		return New(), nil
	})
}

// Scheduler is the local, single-host Scheduler implementation.
type Scheduler struct {
	mu   sync.Mutex
	jobs map[string]*os.Process
	next int
}

// New returns a ready local Scheduler.
func New() *Scheduler {
	return &Scheduler{jobs: make(map[string]*os.Process)}
}

func (s *Scheduler) Name() string { return "local" }

// Available always reports true: there is nothing external to probe.
func (s *Scheduler) Available(ctx context.Context) (bool, error) { return true, nil }

// Kickoff runs scriptPath as a child process and returns a handle carrying
// a job id from this Scheduler's own counter ("1", "2", ... in call order)
// and the local hostname, per spec §4.5's "originating host/system name"
// requirement.
func (s *Scheduler) Kickoff(ctx context.Context, params scheduler.RequestParams, scriptPath string) (scheduler.JobHandle, error) {
	cmd := exec.Command("/bin/sh", scriptPath)
	if err := cmd.Start(); err != nil {
		return nil, errkind.Wrap(errkind.Scheduler, err, "starting local kickoff script %s", scriptPath)
	}

	host, _ := os.Hostname()
	s.mu.Lock()
	s.next++
	id := strconv.Itoa(s.next)
	s.jobs[id] = cmd.Process
	s.mu.Unlock()

	go cmd.Wait() // reap in the background; JobStatus polls via Signal(0)

	return scheduler.JobHandle{
		scheduler.HandleJobID: id,
		scheduler.HandleHost:  host,
	}, nil
}

func (s *Scheduler) JobStatus(ctx context.Context, handle scheduler.JobHandle) (scheduler.JobStatus, error) {
	s.mu.Lock()
	proc, ok := s.jobs[handle[scheduler.HandleJobID]]
	s.mu.Unlock()
	if !ok {
		return scheduler.SchedError, errkind.New(errkind.Scheduler, "unknown local job id %q", handle[scheduler.HandleJobID])
	}
	if err := proc.Signal(syscall.Signal(0)); err != nil {
		// The process is gone from the OS process table, but JobStatus has
		// no "finished" value to report (same coarse four-value enum
		// slurm.Scheduler.JobStatus maps a completed squeue exit onto);
		// run completion is tracked via the status journal, not by polling
		// this method, so SchedRunning is the closest honest answer here.
		return scheduler.SchedRunning, nil
	}
	return scheduler.SchedRunning, nil
}

func (s *Scheduler) Cancel(ctx context.Context, handle scheduler.JobHandle) error {
	s.mu.Lock()
	proc, ok := s.jobs[handle[scheduler.HandleJobID]]
	s.mu.Unlock()
	if !ok {
		return errkind.New(errkind.Scheduler, "unknown local job id %q", handle[scheduler.HandleJobID])
	}
	if err := proc.Kill(); err != nil {
		return errkind.Wrap(errkind.Scheduler, err, "cancelling local job %q", handle[scheduler.HandleJobID])
	}
	return nil
}

// GetAllocNodes returns the local hostname as the (single-node)
// allocation, since a local run has no real allocation to enumerate.
func (s *Scheduler) GetAllocNodes(ctx context.Context) ([]string, error) {
	host, err := os.Hostname()
	if err != nil {
		return nil, errkind.Wrap(errkind.Scheduler, err, "reading local hostname")
	}
	return []string{host}, nil
}
