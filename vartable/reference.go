package vartable

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Reference is a parsed variable reference in one of the forms described in
// spec §4.1: name, scope.name, name.index, name.subkey,
// scope.name.index.subkey, and the wildcard form a.*.b.
type Reference struct {
	Scope Scope  // empty when the reference was unqualified
	Name  string
	Rest  []string // index/subkey/wildcard segments following the name
}

// ParseReference splits a dotted reference string into its scope, name and
// remaining segments. A leading segment is only treated as a scope name
// when it is one of the four known scopes AND at least one more segment
// follows it (otherwise "var" could never be used as an ordinary variable
// name).
func ParseReference(ref string) (*Reference, error) {
	if ref == "" {
		return nil, errors.New("empty variable reference")
	}
	parts := strings.Split(ref, ".")
	if maybeScope := Scope(parts[0]); maybeScope.valid() && len(parts) > 1 {
		return &Reference{Scope: maybeScope, Name: parts[1], Rest: parts[2:]}, nil
	}
	return &Reference{Name: parts[0], Rest: parts[1:]}, nil
}

// Result is what resolving a Reference against a Table produces: either a
// single scalar string, an ordered list of strings (the wildcard form, or a
// bare reference to a multi-valued variable used in list context), or a
// deferred marker when the named variable is a Deferred Variable whose real
// value is not yet known.
type Result struct {
	Scalar   string
	List     []string
	IsList   bool
	Deferred bool
}

// Resolve looks up ref against t, applying scope precedence for unqualified
// references (spec §3) and walking index/subkey/wildcard segments (spec
// §4.1).
func (t *Table) Resolve(ref *Reference) (Result, error) {
	variable, err := t.lookupVariable(ref)
	if err != nil {
		return Result{}, err
	}

	if variable.IsDeferred {
		return Result{Deferred: true}, nil
	}

	if len(ref.Rest) > 0 && ref.Rest[0] == "*" {
		return resolveWildcard(variable, ref.Rest[1:])
	}

	return resolveIndexed(variable, ref.Rest)
}

func (t *Table) lookupVariable(ref *Reference) (*Variable, error) {
	if ref.Scope != "" {
		v, ok := t.Get(ref.Scope, ref.Name)
		if !ok {
			return nil, errors.Wrapf(ErrUnknownReference, "%s.%s", ref.Scope, ref.Name)
		}
		return v, nil
	}
	v, _, ok := t.Lookup(ref.Name)
	if !ok {
		return nil, errors.Wrapf(ErrUnknownReference, "%s", ref.Name)
	}
	return v, nil
}

// resolveWildcard implements the a.*.b form: walk every value of variable,
// apply the remaining segments (normally a single subkey) to each, and
// collect the ordered list of results (spec §4.1).
func resolveWildcard(variable *Variable, rest []string) (Result, error) {
	out := make([]string, 0, len(variable.Values))
	for i := range variable.Values {
		r, err := resolveIndexed(variable, append([]string{strconv.Itoa(i)}, rest...))
		if err != nil {
			return Result{}, err
		}
		if r.IsList {
			return Result{}, errors.New("wildcard reference cannot select a nested list entry")
		}
		out = append(out, r.Scalar)
	}
	return Result{List: out, IsList: true}, nil
}

// resolveIndexed walks rest, which is a sequence of at most one numeric
// index followed by at most one subkey, against variable's values.
func resolveIndexed(variable *Variable, rest []string) (Result, error) {
	idx := 0
	if len(rest) > 0 {
		if n, err := strconv.Atoi(rest[0]); err == nil {
			idx = n
			rest = rest[1:]
		}
	}

	value, err := variable.At(idx)
	if err != nil {
		return Result{}, err
	}

	if len(rest) == 0 {
		switch v := value.(type) {
		case StringValue:
			return Result{Scalar: string(v)}, nil
		case MapValue:
			return Result{}, errors.New("referencing a mapping variable without a subkey")
		default:
			return Result{}, errors.Errorf("unsupported value type %T", value)
		}
	}

	mapping, ok := value.(MapValue)
	if !ok {
		return Result{}, errors.New("subkey reference on a non-mapping value")
	}
	if len(rest) != 1 {
		return Result{}, errors.New("mappings nest only one level")
	}

	entry, ok := mapping.Get(rest[0])
	if !ok {
		return Result{}, errors.Wrapf(ErrUnknownReference, "subkey %q", rest[0])
	}
	if entry.IsList {
		return Result{List: entry.List, IsList: true}, nil
	}
	return Result{Scalar: entry.Str}, nil
}

// Keys resolves the variable named by ref (which must have exactly one
// mapping value) and returns its ordered keys, backing the keys(x)
// expression function (spec §4.1).
func (t *Table) Keys(ref *Reference) ([]string, error) {
	variable, err := t.lookupVariable(ref)
	if err != nil {
		return nil, err
	}
	if variable.IsDeferred {
		return nil, errors.New("cannot take keys() of a deferred variable")
	}
	value, err := variable.At(0)
	if err != nil {
		return nil, err
	}
	mapping, ok := value.(MapValue)
	if !ok {
		return nil, errors.New("keys() requires a mapping variable")
	}
	return mapping.Keys(), nil
}
