package resolver

import (
	"testing"

	. "github.com/onsi/gomega"
)

func TestResolveInheritanceAppliesBaseThenDerivedOverride(t *testing.T) {
	g := NewWithT(t)

	suite := Suite{
		"base": TestSpec{"run": map[string]interface{}{"image": "base-image", "cmds": []interface{}{"echo hi"}}},
		"child": TestSpec{
			"inherits_from": "base",
			"run":           map[string]interface{}{"image": "child-image"},
		},
	}

	resolved, err := resolveInheritance(suite, "child")
	g.Expect(err).NotTo(HaveOccurred())

	run := resolved["run"].(map[string]interface{})
	g.Expect(run["image"]).To(Equal("child-image"))
	g.Expect(run["cmds"]).To(Equal([]interface{}{"echo hi"}))
	g.Expect(resolved).NotTo(HaveKey("inherits_from"))
}

func TestResolveInheritanceChainsThroughMultipleLevels(t *testing.T) {
	g := NewWithT(t)

	suite := Suite{
		"a": TestSpec{"variables": map[string]interface{}{"x": "1", "y": "1"}},
		"b": TestSpec{"inherits_from": "a", "variables": map[string]interface{}{"y": "2"}},
		"c": TestSpec{"inherits_from": "b", "variables": map[string]interface{}{"z": "3"}},
	}

	resolved, err := resolveInheritance(suite, "c")
	g.Expect(err).NotTo(HaveOccurred())

	vars := resolved["variables"].(map[string]interface{})
	g.Expect(vars["x"]).To(Equal("1"))
	g.Expect(vars["y"]).To(Equal("2"))
	g.Expect(vars["z"]).To(Equal("3"))
}

func TestResolveInheritanceDetectsCycle(t *testing.T) {
	g := NewWithT(t)

	suite := Suite{
		"a": TestSpec{"inherits_from": "b"},
		"b": TestSpec{"inherits_from": "a"},
	}

	_, err := resolveInheritance(suite, "a")
	g.Expect(err).To(HaveOccurred())
}

func TestResolveInheritanceRejectsMissingBase(t *testing.T) {
	g := NewWithT(t)

	suite := Suite{"child": TestSpec{"inherits_from": "ghost"}}
	_, err := resolveInheritance(suite, "child")
	g.Expect(err).To(HaveOccurred())
}

func TestResolveInheritanceWithNoBaseReturnsClone(t *testing.T) {
	g := NewWithT(t)

	suite := Suite{"solo": TestSpec{"run": map[string]interface{}{"image": "x"}}}
	resolved, err := resolveInheritance(suite, "solo")
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(resolved["run"]).To(Equal(map[string]interface{}{"image": "x"}))
}
