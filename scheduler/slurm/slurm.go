// Package slurm implements the "slurm" scheduler plugin: an advanced
// Scheduler backed by the Slurm command-line tools (sbatch, squeue,
// scancel, sinfo) rather than the Slurm REST API. The request/response
// shapes it models (job id, job state, node/partition inventory) are
// grounded on the retrieval pack's Slurm REST client reference manifest
// (other_examples/manifests/jontk-slurm-client), reworked from an HTTP
// client into CLI-subprocess form since Pavilion dispatches through the
// scheduler's own command-line tools, never its REST service.
package slurm

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/pavilion-hpc/pavilion/corectx"
	"github.com/pavilion-hpc/pavilion/errkind"
	"github.com/pavilion-hpc/pavilion/scheduler"
)

// Register installs the slurm plugin's constructor into reg.
func Register(reg *corectx.Registry) {
	scheduler.Register(reg, "slurm", 0, func(config map[string]string) (scheduler.Scheduler, error) {
		return New(config["bin_dir"]), nil
	})
}

// Scheduler is the CLI-subprocess-backed Slurm plugin. It implements
// scheduler.AdvancedScheduler.
type Scheduler struct {
	binDir string
}

// New returns a Scheduler that invokes Slurm's CLI tools from binDir (or
// the process $PATH if binDir is empty).
func New(binDir string) *Scheduler {
	return &Scheduler{binDir: binDir}
}

func (s *Scheduler) bin(name string) string {
	if s.binDir == "" {
		return name
	}
	return s.binDir + "/" + name
}

func (s *Scheduler) Name() string { return "slurm" }

// Available runs `sinfo --version` as a cheap probe.
func (s *Scheduler) Available(ctx context.Context) (bool, error) {
	cmd := exec.CommandContext(ctx, s.bin("sinfo"), "--version")
	if err := cmd.Run(); err != nil {
		return false, nil
	}
	return true, nil
}

// Kickoff submits scriptPath with sbatch, translating the universal
// RequestParams subset into sbatch flags.
func (s *Scheduler) Kickoff(ctx context.Context, params scheduler.RequestParams, scriptPath string) (scheduler.JobHandle, error) {
	args := []string{"--parsable"}
	if params.Nodes != "" && params.Nodes != "all" {
		args = append(args, "-N", params.Nodes)
	}
	if params.Partition != "" {
		args = append(args, "-p", params.Partition)
	}
	if params.TimeLimit != "" {
		args = append(args, "-t", params.TimeLimit)
	}
	if params.MemPerNode != "" {
		args = append(args, "--mem", params.MemPerNode)
	}
	if params.TasksPerNode > 0 {
		args = append(args, "--ntasks-per-node", strconv.Itoa(params.TasksPerNode))
	}
	args = append(args, scriptPath)

	var out bytes.Buffer
	cmd := exec.CommandContext(ctx, s.bin("sbatch"), args...)
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return nil, errkind.Wrap(errkind.Scheduler, err, "sbatch submission failed")
	}

	jobID := strings.TrimSpace(out.String())
	host, _ := os.Hostname()
	return scheduler.JobHandle{
		scheduler.HandleJobID: jobID,
		scheduler.HandleHost:  host,
	}, nil
}

// JobStatus runs `squeue -j <id> -h -o %T` and maps Slurm's native job
// state onto the coarse scheduler.JobStatus taxonomy.
func (s *Scheduler) JobStatus(ctx context.Context, handle scheduler.JobHandle) (scheduler.JobStatus, error) {
	var out bytes.Buffer
	cmd := exec.CommandContext(ctx, s.bin("squeue"), "-j", handle[scheduler.HandleJobID], "-h", "-o", "%T")
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		// squeue returns non-zero once the job has left the queue;
		// JobStatus has no finished value, so this reports SchedRunning
		// rather than an error.
		return scheduler.SchedRunning, nil
	}
	state := strings.TrimSpace(out.String())
	switch state {
	case "":
		return scheduler.SchedRunning, nil
	case "PENDING", "CONFIGURING":
		return scheduler.Scheduled, nil
	case "RUNNING", "COMPLETING":
		return scheduler.SchedRunning, nil
	case "CANCELLED":
		return scheduler.SchedCancelled, nil
	case "FAILED", "NODE_FAIL", "TIMEOUT", "OUT_OF_MEMORY":
		return scheduler.SchedError, nil
	default:
		return scheduler.SchedRunning, nil
	}
}

// Cancel runs `scancel <id>`.
func (s *Scheduler) Cancel(ctx context.Context, handle scheduler.JobHandle) error {
	cmd := exec.CommandContext(ctx, s.bin("scancel"), handle[scheduler.HandleJobID])
	if err := cmd.Run(); err != nil {
		return errkind.Wrap(errkind.Scheduler, err, "scancel failed for job %q", handle[scheduler.HandleJobID])
	}
	return nil
}

// GetAllocNodes reads $SLURM_JOB_NODELIST via `scontrol show hostnames`,
// valid only from inside an allocation (spec §4.5).
func (s *Scheduler) GetAllocNodes(ctx context.Context) ([]string, error) {
	nodelist := os.Getenv("SLURM_JOB_NODELIST")
	if nodelist == "" {
		return nil, errkind.New(errkind.Scheduler, "SLURM_JOB_NODELIST is unset; not running inside a Slurm allocation")
	}
	var out bytes.Buffer
	cmd := exec.CommandContext(ctx, s.bin("scontrol"), "show", "hostnames", nodelist)
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return nil, errkind.Wrap(errkind.Scheduler, err, "expanding Slurm node list %q", nodelist)
	}
	var nodes []string
	for _, line := range strings.Split(out.String(), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			nodes = append(nodes, line)
		}
	}
	return nodes, nil
}

// sinfoNode mirrors the per-node record shape of the retrieval pack's
// Slurm REST client reference, trimmed to the fields RawNodeData/Normalize
// need from `sinfo --json`.
type sinfoNode struct {
	Name       string   `json:"name"`
	State      []string `json:"state"`
	CPUs       int      `json:"cpus"`
	RealMemory int      `json:"real_memory"`
	Partitions []string `json:"partitions"`
}

// RawNodeData runs `sinfo --json` and returns the parsed node list.
func (s *Scheduler) RawNodeData(ctx context.Context) (interface{}, error) {
	var out bytes.Buffer
	cmd := exec.CommandContext(ctx, s.bin("sinfo"), "--json")
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return nil, errkind.Wrap(errkind.Scheduler, err, "fetching Slurm node inventory")
	}
	var doc struct {
		Nodes []sinfoNode `json:"nodes"`
	}
	if err := json.Unmarshal(out.Bytes(), &doc); err != nil {
		return nil, errkind.Wrap(errkind.Parse, err, "parsing sinfo --json output")
	}
	return doc.Nodes, nil
}

// Normalize converts RawNodeData's []sinfoNode into the scheduler-agnostic
// NodeRecord shape (spec §4.5).
func (s *Scheduler) Normalize(raw interface{}) (map[string]scheduler.NodeRecord, error) {
	nodes, ok := raw.([]sinfoNode)
	if !ok {
		return nil, errkind.New(errkind.Scheduler, "Normalize called with data not produced by RawNodeData")
	}
	out := make(map[string]scheduler.NodeRecord, len(nodes))
	for _, n := range nodes {
		groups := make(map[string]bool, len(n.Partitions))
		for _, p := range n.Partitions {
			groups[p] = true
		}
		up, allocated := classifyState(n.State)
		out[n.Name] = scheduler.NodeRecord{
			Name:      n.Name,
			Up:        up,
			Allocated: allocated,
			CPUs:      n.CPUs,
			MemoryMB:  n.RealMemory,
			Groups:    groups,
		}
	}
	return out, nil
}

func classifyState(states []string) (up, allocated bool) {
	up = true
	for _, st := range states {
		switch strings.ToUpper(st) {
		case "DOWN", "DRAIN", "DRAINED", "FAIL", "FAILING", "UNKNOWN":
			up = false
		case "ALLOCATED", "MIXED", "COMPLETING":
			allocated = true
		}
	}
	return up, allocated
}
