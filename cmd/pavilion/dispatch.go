package main

import (
	"context"
	"path/filepath"

	"github.com/pavilion-hpc/pavilion/corectx"
	"github.com/pavilion-hpc/pavilion/rundir"
	"github.com/pavilion-hpc/pavilion/scheduler"
)

// requestParamsFrom translates a resolved TestRun's "schedule" section into
// the universal scheduler.RequestParams (spec §4.5, "Request parameters").
func requestParamsFrom(spec map[string]interface{}) scheduler.RequestParams {
	params := scheduler.RequestParams{
		Nodes:           asString(spec["nodes"]),
		MinNodes:        asInt(spec["min_nodes"]),
		TasksPerNode:    asInt(spec["tasks_per_node"]),
		Partition:       asString(spec["partition"]),
		TimeLimit:       asString(spec["time_limit"]),
		MemPerNode:      asString(spec["mem_per_node"]),
		ShareAllocation: asBool(spec["share_allocation"]),
		Wrapper:         asString(spec["wrapper"]),
	}
	if chunk := asMap(spec["chunking"]); len(chunk) > 0 {
		params.Chunk = &scheduler.ChunkSpec{
			Size:          asString(chunk["size"]),
			NodeSelection: asString(chunk["node_selection"]),
			Extra:         asString(chunk["extra"]),
			Chunk:         asInt(spec["chunk"]),
			Seed:          int64(asInt(chunk["seed"])),
		}
	}
	return params
}

// headerComposerFor returns the scheduler-specific kickoff header composer,
// per spec §4.5's "the default header is just the shebang" with Slurm's
// #SBATCH override.
func headerComposerFor(name string) scheduler.HeaderComposer {
	if name == "slurm" {
		return func(params scheduler.RequestParams) string {
			return "#SBATCH -N " + params.Nodes + "\n"
		}
	}
	return scheduler.DefaultHeader
}

// schedulerFor builds the named scheduler plugin with no extra config, a
// convenience for callers (e.g. Canceler.Track) that need the same plugin
// instance dispatchRun already looked up by name.
func schedulerFor(cc *corectx.Context, name string) (scheduler.Scheduler, error) {
	return scheduler.Lookup(cc.Registry, name, nil)
}

// dispatchRun submits dir's kickoff script through the named scheduler
// plugin and returns the resulting job handle.
func dispatchRun(ctx context.Context, cc *corectx.Context, schedName string, params scheduler.RequestParams, dir *rundir.Dir, binPath string) (scheduler.JobHandle, error) {
	sched, err := scheduler.Lookup(cc.Registry, schedName, nil)
	if err != nil {
		return nil, err
	}

	kickoff := scheduler.ComposeKickoff(headerComposerFor(schedName), params, dir.ConfigPath(), binPath, []string{dir.ID})
	const kickoffName = "kickoff.sh"
	if err := dir.WriteFile(kickoffName, []byte(kickoff)); err != nil {
		return nil, err
	}
	kickoffPath := filepath.Join(dir.Path, kickoffName)

	if err := dir.Journal.Append(rundir.Scheduled, "submitted to "+schedName); err != nil {
		return nil, err
	}

	handle, err := sched.Kickoff(ctx, params, kickoffPath)
	if err != nil {
		_ = dir.Journal.Append(rundir.Error, err.Error())
		return nil, err
	}
	return handle, nil
}
