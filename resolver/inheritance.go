package resolver

import "github.com/pavilion-hpc/pavilion/errkind"

// resolveInheritance walks name's inherits_from chain within suite,
// rejecting cycles with a visited/stack pair and merging base-to-derived in
// topological order (spec §4.2 step 1, Testable Property "Inheritance
// closure" in spec §8): a test that inherits A→B→C sees C overridden by B
// overridden by A.
func resolveInheritance(suite Suite, name string) (TestSpec, error) {
	return resolveInheritanceVisit(suite, name, map[string]bool{})
}

func resolveInheritanceVisit(suite Suite, name string, stack map[string]bool) (TestSpec, error) {
	if stack[name] {
		return nil, errkind.New(errkind.Configuration, "cyclic inherits_from involving %q", name)
	}
	spec, ok := suite[name]
	if !ok {
		return nil, errkind.Wrap(errkind.Configuration, errMissingBase, "%q", name)
	}

	base := spec.stringOr("inherits_from")
	if base == "" {
		return spec.clone(), nil
	}

	stack[name] = true
	baseResolved, err := resolveInheritanceVisit(suite, base, stack)
	if err != nil {
		return nil, err
	}
	delete(stack, name)

	merged := mergeInto(baseResolved, spec)
	delete(merged, "inherits_from")
	return merged, nil
}
