package resolver

import (
	"github.com/pavilion-hpc/pavilion/errkind"
	"github.com/pavilion-hpc/pavilion/vartable"
)

// permutation is one combination produced by expanding permute_on: for each
// listed variable, the index into its value list to pin for this candidate
// run (spec §4.2 step 2, Testable Property "Permutation cardinality").
type permutation map[string]int

// expandPermutations reads spec's permute_on list and table's var-scope
// variables and returns every combination of their values (the Cartesian
// product), as a slice of permutation index-maps. An empty permute_on list
// yields a single empty permutation (one run, the common case).
func expandPermutations(table *vartable.Table, names []string) ([]permutation, error) {
	if len(names) == 0 {
		return []permutation{{}}, nil
	}

	lengths := make([]int, len(names))
	for i, name := range names {
		if err := checkPermutable(table, name); err != nil {
			return nil, err
		}
		v, _, _ := table.Lookup(name)
		n := v.Len()
		if n == 0 {
			n = 1
		}
		lengths[i] = n
	}

	var out []permutation
	combo := make([]int, len(names))
	for {
		p := make(permutation, len(names))
		for i, name := range names {
			p[name] = combo[i]
		}
		out = append(out, p)

		pos := len(combo) - 1
		for pos >= 0 {
			combo[pos]++
			if combo[pos] < lengths[pos] {
				break
			}
			combo[pos] = 0
			pos--
		}
		if pos < 0 {
			break
		}
	}
	return out, nil
}

// checkPermutable enforces spec §4.2's restriction: "permute_on may
// reference only non-deferred, non-scheduler variables."
func checkPermutable(table *vartable.Table, name string) error {
	v, scope, ok := table.Lookup(name)
	if !ok {
		return errkind.Wrap(errkind.Configuration, vartable.ErrUnknownReference, "permute_on variable %q", name)
	}
	if v.IsDeferred {
		return errkind.New(errkind.Configuration, "permute_on variable %q is deferred", name)
	}
	if scope == vartable.ScopeSched {
		return errkind.New(errkind.Configuration, "permute_on variable %q is a scheduler variable", name)
	}
	return nil
}

// applyPermutation returns a clone of table with every permuted variable
// pinned to its chosen index, via vartable.Table.WithScalar.
func applyPermutation(table *vartable.Table, p permutation) (*vartable.Table, error) {
	cur := table
	for name, idx := range p {
		next, err := cur.WithScalar(name, idx)
		if err != nil {
			return nil, err
		}
		cur = next
	}
	return cur, nil
}
