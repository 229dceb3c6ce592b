package vartable

import "github.com/pkg/errors"

// Deferred is the sentinel value a Deferred Variable holds until the
// allocation-side second pass supplies the real value (spec §3, §4.3 design
// note in SPEC_FULL.md). It is distinguishable from any real string or
// mapping value.
type Deferred struct{}

func (Deferred) isValue() {}

// IsDeferredValue reports whether v is the unresolved Deferred sentinel.
func IsDeferredValue(v Value) bool {
	_, ok := v.(Deferred)
	return ok
}

// Variable holds one named variable's ordered sequence of values plus the
// bookkeeping the resolver needs for override semantics (spec §4.1,
// "Override semantics on names").
type Variable struct {
	// Values is the ordered sequence of values. Invariant: every element
	// has the same shape (all StringValue, or all MapValue) unless the
	// variable IsDeferred, in which case it holds at most one value.
	Values []Value

	// IsDeferred marks a Deferred Variable: at most one value, forbidden
	// in build/schedule/permute_on/subtitle contexts until after
	// dispatch.
	IsDeferred bool

	// Expected marks a variable declared with the `?` name suffix: an
	// inner layer may leave it with zero values, requiring an outer layer
	// to supply at least one before resolution succeeds.
	Expected bool

	// Appended marks a variable declared with the `+` name suffix: when
	// merged during inheritance/mode overlay, new values extend rather
	// than replace the inherited list.
	Appended bool
}

// NewScalar builds a single-valued, non-deferred Variable from one string.
func NewScalar(s string) *Variable {
	return &Variable{Values: []Value{StringValue(s)}}
}

// NewList builds a multi-valued, non-deferred Variable from a slice of
// strings.
func NewList(ss []string) *Variable {
	values := make([]Value, len(ss))
	for i, s := range ss {
		values[i] = StringValue(s)
	}
	return &Variable{Values: values}
}

// NewDeferred builds a Deferred Variable with at most one value.
func NewDeferred(v Value) *Variable {
	return &Variable{Values: []Value{v}, IsDeferred: true}
}

// NewMappingVar builds a single-valued, non-deferred Variable holding one
// mapping.
func NewMappingVar(m *Mapping) *Variable {
	return &Variable{Values: []Value{MapValue{Mapping: m}}}
}

// Validate checks the Variable's shape invariant (spec §3): every value has
// the same shape, and a deferred variable carries at most one value.
func (v *Variable) Validate() error {
	if v.IsDeferred && len(v.Values) > 1 {
		return errors.New("deferred variable may hold at most one value")
	}
	if len(v.Values) == 0 {
		return nil
	}
	wantMapping := IsMapping(v.Values[0])
	for i, val := range v.Values[1:] {
		if IsMapping(val) != wantMapping {
			return errors.Errorf("value %d has a different shape than value 0", i+1)
		}
	}
	return nil
}

// Len returns the number of values the variable holds; this is the
// cardinality an iteration or permute_on uses when this variable is
// multi-valued (spec §4.1 Iteration, §4.2 permute_on).
func (v *Variable) Len() int {
	return len(v.Values)
}

// IsMultiValued reports whether the variable has more than one value, the
// condition that makes it contribute to an iteration's Cartesian product.
func (v *Variable) IsMultiValued() bool {
	return len(v.Values) > 1
}

// At returns the value at index i, or an error if out of range.
func (v *Variable) At(i int) (Value, error) {
	if i < 0 || i >= len(v.Values) {
		return nil, errors.Errorf("index %d out of range (variable has %d values)", i, len(v.Values))
	}
	return v.Values[i], nil
}

// Append extends the variable's value list, used to implement the `+`
// suffix override semantics during config merge (spec §4.1, §4.2).
func (v *Variable) Append(values ...Value) {
	v.Values = append(v.Values, values...)
}
