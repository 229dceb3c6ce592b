// Package scheduler defines the pluggable scheduler capability (spec §4.5):
// a basic Scheduler interface every plugin implements, an optional
// AdvancedScheduler extension for node-inventory-aware plugins, and the
// node filtering, chunking and job-sharing logic that runs in front of any
// plugin. The capability-module shape — small typed interfaces registered
// explicitly, no reflection-based plugin discovery (spec's own Non-goal) —
// is grounded on controllers/gang.go's PoolManager, which plays the same
// "what nodes are available, can this request fit" role for a single,
// Kubernetes-specific scheduler; here it is generalized into an interface
// so more than one backend (local, Slurm, ...) can implement it.
package scheduler

import "context"

// JobStatus is the coarse, scheduler-agnostic mapping of a native
// scheduler's job state (spec §4.5).
type JobStatus string

const (
	SchedError     JobStatus = "SchedError"
	SchedCancelled JobStatus = "SchedCancelled"
	SchedRunning   JobStatus = "SchedRunning"
	Scheduled      JobStatus = "Scheduled"
)

// JobHandle is the scheduler-assigned identity of one submitted job (spec
// §4.5): "a mapping of strings including the scheduler-assigned id and the
// originating host/system name (so later operations can refuse to act from
// an unrelated host)."
type JobHandle map[string]string

const (
	HandleJobID = "job_id"
	HandleHost  = "host"
)

// RequestParams is the universal subset of the schedule section every
// plugin understands (spec §4.5, "Request parameters").
type RequestParams struct {
	Nodes          string // exact count, "N%", or "all"
	MinNodes       int
	TasksPerNode   int
	Partition      string
	TimeLimit      string
	MemPerNode     string
	ShareAllocation bool
	Chunk          *ChunkSpec
	Wrapper        string
	ClusterNodeCount int // basic-scheduler fallback for nodes: all
}

// ChunkSpec is the schedule section's chunking.{size, node_selection,
// extra} plus the top-level chunk index to run (spec §4.5).
type ChunkSpec struct {
	Size          string // absolute count or "N%"
	NodeSelection string // contiguous (default), distributed, random, rand-dist
	Extra         string // backfill (default) or discard
	Chunk         int    // which chunk this run executes in
	Seed          int64  // deterministic seed for random/rand-dist
}

// Scheduler is the capability every plugin must implement (spec §4.5).
type Scheduler interface {
	Name() string
	Available(ctx context.Context) (bool, error)
	Kickoff(ctx context.Context, params RequestParams, scriptPath string) (JobHandle, error)
	JobStatus(ctx context.Context, handle JobHandle) (JobStatus, error)
	Cancel(ctx context.Context, handle JobHandle) error
	GetAllocNodes(ctx context.Context) ([]string, error)
}

// NodeRecord is one normalized inventory entry (spec §4.5: "each record
// must contain an up/allocated state, CPUs, memory, and a set of scheduler-
// group names").
type NodeRecord struct {
	Name      string
	Up        bool
	Allocated bool
	CPUs      int
	MemoryMB  int
	Groups    map[string]bool
}

// AdvancedScheduler is the optional extension for plugins that can report
// live node inventory (spec §4.5).
type AdvancedScheduler interface {
	Scheduler
	RawNodeData(ctx context.Context) (interface{}, error)
	Normalize(raw interface{}) (map[string]NodeRecord, error)
}
