// Package vartable implements the Variable Store of §3: four named scopes
// (var, sys, pav, sched) holding ordered sequences of string-or-mapping
// values, looked up by the dotted reference forms of §4.1.
package vartable

import "github.com/pkg/errors"

// Scope names one of the Variable Store's four lookup scopes, checked in
// this order when a reference is unqualified.
type Scope string

const (
	ScopeVar   Scope = "var"
	ScopeSys   Scope = "sys"
	ScopePav   Scope = "pav"
	ScopeSched Scope = "sched"
)

// ScopeOrder is the precedence order used to resolve an unqualified
// reference (spec §3, "Variable Store").
var ScopeOrder = []Scope{ScopeVar, ScopeSys, ScopePav, ScopeSched}

func (s Scope) valid() bool {
	switch s {
	case ScopeVar, ScopeSys, ScopePav, ScopeSched:
		return true
	default:
		return false
	}
}

// Entry is one key's value inside a Mapping. A mapping value's keys are
// unique strings whose own values are strings or, nesting one level, an
// ordered sequence of strings (spec §3).
type Entry struct {
	Str    string
	List   []string
	IsList bool
}

// Mapping is an ordered string-keyed map: insertion order is preserved so
// that keys(x) (spec §4.1) and per_file-style iteration over entries are
// deterministic.
type Mapping struct {
	keys    []string
	entries map[string]Entry
}

// NewMapping returns an empty, ordered Mapping.
func NewMapping() *Mapping {
	return &Mapping{entries: make(map[string]Entry)}
}

// Set inserts or overwrites key with a scalar string entry, appending to the
// key order only the first time key is seen.
func (m *Mapping) Set(key, value string) {
	m.setEntry(key, Entry{Str: value})
}

// SetList inserts or overwrites key with a nested ordered string-list entry.
func (m *Mapping) SetList(key string, values []string) {
	m.setEntry(key, Entry{List: values, IsList: true})
}

func (m *Mapping) setEntry(key string, e Entry) {
	if _, ok := m.entries[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.entries[key] = e
}

// Get returns the entry stored under key, in insertion order it was set.
func (m *Mapping) Get(key string) (Entry, bool) {
	e, ok := m.entries[key]
	return e, ok
}

// Keys returns the mapping's keys in insertion order, backing the keys(x)
// expression function (spec §4.1).
func (m *Mapping) Keys() []string {
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// Value is either a plain string or a *Mapping. Every value inside one
// Variable must share the same shape (spec §3 invariant).
type Value interface {
	isValue()
}

// StringValue is the scalar case of Value.
type StringValue string

func (StringValue) isValue() {}

// MapValue is the mapping case of Value.
type MapValue struct {
	*Mapping
}

func (MapValue) isValue() {}

// IsMapping reports whether v is a MapValue.
func IsMapping(v Value) bool {
	_, ok := v.(MapValue)
	return ok
}

// AsString returns v's scalar string, erroring if v is a mapping (spec
// §4.1, "referencing a mapping variable without a subkey").
func AsString(v Value) (string, error) {
	switch t := v.(type) {
	case StringValue:
		return string(t), nil
	case MapValue:
		return "", errors.New("value is a mapping; a subkey is required")
	default:
		return "", errors.Errorf("unsupported value type %T", v)
	}
}
