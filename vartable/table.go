package vartable

import "github.com/pkg/errors"

// Table is the Variable Store: four named scopes, each mapping a variable
// name to a *Variable (spec §3).
type Table struct {
	scopes map[Scope]map[string]*Variable
}

// New returns an empty Table with all four scopes initialized.
func New() *Table {
	t := &Table{scopes: make(map[Scope]map[string]*Variable)}
	for _, s := range ScopeOrder {
		t.scopes[s] = make(map[string]*Variable)
	}
	return t
}

// Set installs v under (scope, name), replacing anything previously there.
// Callers implementing inheritance/mode-overlay merge semantics should read
// the existing Variable first if they need `+`-suffix append behavior.
func (t *Table) Set(scope Scope, name string, v *Variable) {
	t.scopes[scope][name] = v
}

// Get returns the variable at (scope, name), if any.
func (t *Table) Get(scope Scope, name string) (*Variable, bool) {
	v, ok := t.scopes[scope][name]
	return v, ok
}

// Lookup resolves an unqualified name using scope precedence var, sys, pav,
// sched (spec §3).
func (t *Table) Lookup(name string) (*Variable, Scope, bool) {
	for _, s := range ScopeOrder {
		if v, ok := t.scopes[s][name]; ok {
			return v, s, true
		}
	}
	return nil, "", false
}

// Scope returns the full set of variables registered under one scope, for
// callers (e.g. the resolver's finalized-config dump) that need to iterate
// every sys or pav variable.
func (t *Table) Scope(scope Scope) map[string]*Variable {
	return t.scopes[scope]
}

// ErrUnknownReference is returned when a reference names a variable absent
// from every applicable scope (spec §4.1 Errors).
var ErrUnknownReference = errors.New("unknown variable reference")

// Clone returns a shallow copy of t: a new set of scope maps pointing at the
// same *Variable values. Overlaying a single variable (see WithScalar) never
// mutates the original Table, which callers keep reusing across iteration
// combinations and permutations.
func (t *Table) Clone() *Table {
	out := &Table{scopes: make(map[Scope]map[string]*Variable, len(t.scopes))}
	for s, vars := range t.scopes {
		m := make(map[string]*Variable, len(vars))
		for k, v := range vars {
			m[k] = v
		}
		out.scopes[s] = m
	}
	return out
}

// WithScalar returns a clone of t in which the variable named name (found by
// scope precedence, as Lookup would) is replaced by a single-valued copy
// holding only its value at idx. It is used by the `[~ ~]` iteration
// evaluator (package expr) to pin one element of a multi-valued variable for
// the duration of rendering one iteration.
func (t *Table) WithScalar(name string, idx int) (*Table, error) {
	v, scope, ok := t.Lookup(name)
	if !ok {
		return nil, errors.Wrapf(ErrUnknownReference, "%s", name)
	}
	val, err := v.At(idx)
	if err != nil {
		return nil, err
	}
	pinned := &Variable{Values: []Value{val}, Expected: v.Expected}
	clone := t.Clone()
	clone.scopes[scope][name] = pinned
	return clone, nil
}
