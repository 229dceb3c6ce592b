package catalog

import (
	"github.com/pavilion-hpc/pavilion/corectx"
	"github.com/pavilion-hpc/pavilion/errkind"
)

// registryKind is the corectx.Registry namespace result-sink plugins
// register under, mirroring scheduler.registryKind's explicit-registration
// capability pattern (spec §9: no reflection-based plugin discovery).
const registryKind = "result_sink"

// Register installs a Sink constructor under name at the given priority
// (higher wins on a name collision).
func Register(reg *corectx.Registry, name string, priority int, ctor func(config map[string]string) (Sink, error)) {
	reg.Register(registryKind, name, priority, ctor)
}

// Lookup builds a Sink named name from reg, erroring with
// errkind.Configuration if no such plugin was registered.
func Lookup(reg *corectx.Registry, name string, config map[string]string) (Sink, error) {
	v, ok := reg.Lookup(registryKind, name)
	if !ok {
		return nil, errkind.New(errkind.Configuration, "unknown result sink plugin %q", name)
	}
	ctor, ok := v.(func(config map[string]string) (Sink, error))
	if !ok {
		return nil, errkind.New(errkind.Configuration, "result sink plugin %q registered with the wrong constructor shape", name)
	}
	return ctor(config)
}
