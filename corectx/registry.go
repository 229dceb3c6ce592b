package corectx

import (
	"fmt"
	"sort"
	"sync"
)

// record is one named, prioritized capability of some kind (scheduler,
// result parser, expression function, system variable, module wrapper).
// Higher priority wins when two plugins register the same name; this lets a
// plugin registered at a higher priority shadow a built-in without either
// side needing runtime type introspection (spec §9).
type record struct {
	name     string
	priority int
	value    interface{}
}

// Registry is a set of capability records keyed by kind+name, populated at
// startup by explicit Register calls only. There is no filesystem scan for
// user plugins and no reflection-based discovery: every entry is added by an
// explicit function call.
type Registry struct {
	mu    sync.RWMutex
	kinds map[string]map[string][]record
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{kinds: make(map[string]map[string][]record)}
}

// Register adds value under (kind, name) at the given priority. Schedulers
// register under kind "scheduler", result parsers under "parser", and so
// on; each package defines its own kind constant next to its capability
// interface.
func (r *Registry) Register(kind, name string, priority int, value interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.kinds[kind] == nil {
		r.kinds[kind] = make(map[string][]record)
	}
	r.kinds[kind][name] = append(r.kinds[kind][name], record{name: name, priority: priority, value: value})
	sort.SliceStable(r.kinds[kind][name], func(i, j int) bool {
		return r.kinds[kind][name][i].priority > r.kinds[kind][name][j].priority
	})
}

// Lookup returns the highest-priority value registered under (kind, name).
func (r *Registry) Lookup(kind, name string) (interface{}, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	records, ok := r.kinds[kind][name]
	if !ok || len(records) == 0 {
		return nil, false
	}
	return records[0].value, true
}

// Names returns every name registered under kind, sorted for stable output.
func (r *Registry) Names(kind string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.kinds[kind]))
	for name := range r.kinds[kind] {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// MustLookup is Lookup, panicking with a descriptive message on miss. It is
// meant for call sites where the name was already validated during
// resolution (spec §4.2) and a miss indicates a programming error, not user
// input.
func (r *Registry) MustLookup(kind, name string) interface{} {
	v, ok := r.Lookup(kind, name)
	if !ok {
		panic(fmt.Sprintf("corectx: no %s registered under name %q", kind, name))
	}
	return v
}
