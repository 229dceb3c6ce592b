package scheduler

import (
	"github.com/pavilion-hpc/pavilion/corectx"
	"github.com/pavilion-hpc/pavilion/errkind"
)

// registryKind is the corectx.Registry namespace scheduler plugins register
// under, following the explicit-registration capability pattern (spec §9
// design note: no reflection-based plugin discovery).
const registryKind = "scheduler"

// Register installs a Scheduler constructor under name at the given
// priority (higher wins on a name collision), called from each plugin
// package's own Register function.
func Register(reg *corectx.Registry, name string, priority int, ctor func(config map[string]string) (Scheduler, error)) {
	reg.Register(registryKind, name, priority, ctor)
}

// Lookup builds a Scheduler named name from reg, erroring with
// errkind.Configuration if no such plugin was registered.
func Lookup(reg *corectx.Registry, name string, config map[string]string) (Scheduler, error) {
	v, ok := reg.Lookup(registryKind, name)
	if !ok {
		return nil, errkind.New(errkind.Configuration, "unknown scheduler plugin %q", name)
	}
	ctor, ok := v.(func(config map[string]string) (Scheduler, error))
	if !ok {
		return nil, errkind.New(errkind.Configuration, "scheduler plugin %q registered with the wrong constructor shape", name)
	}
	return ctor(config)
}
