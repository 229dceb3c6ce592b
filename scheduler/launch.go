package scheduler

import (
	"fmt"
	"strings"
)

// LaunchBuilder renders a scheduler's native command-launcher prefix (e.g.
// Slurm's "srun -N ... -n ...") from the resolved request parameters and
// the size of the chunk actually allocated. Each plugin supplies its own,
// published to the run's variable table as sched.launch (spec §4.5,
// "Command launcher").
type LaunchBuilder func(params RequestParams, allocatedNodes int) string

// WithWrapper inserts params.Wrapper between the launcher and the user's
// command, when set (spec §4.5).
func WithWrapper(launcher string, params RequestParams) string {
	if params.Wrapper == "" {
		return launcher
	}
	return strings.TrimRight(launcher, " ") + " " + params.Wrapper
}

// SrunLaunch is the Slurm plugin's LaunchBuilder.
func SrunLaunch(params RequestParams, allocatedNodes int) string {
	tasks := allocatedNodes
	if params.TasksPerNode > 0 {
		tasks = allocatedNodes * params.TasksPerNode
	}
	launch := fmt.Sprintf("srun -N %d -n %d", allocatedNodes, tasks)
	return WithWrapper(launch, params)
}

// LocalLaunch is the local plugin's LaunchBuilder: there is no real
// allocation to address, so the launcher is empty (commands run directly).
func LocalLaunch(params RequestParams, allocatedNodes int) string {
	return WithWrapper("", params)
}
