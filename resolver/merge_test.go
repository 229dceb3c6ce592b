package resolver

import (
	"testing"

	. "github.com/onsi/gomega"
)

func TestMergeIntoOverlaysScalarsAndRecursesIntoMaps(t *testing.T) {
	g := NewWithT(t)

	dst := map[string]interface{}{
		"run": map[string]interface{}{"image": "base", "cmds": []interface{}{"a"}},
	}
	src := map[string]interface{}{
		"run": map[string]interface{}{"image": "override"},
	}

	out := mergeInto(dst, src)
	run := out["run"].(map[string]interface{})
	g.Expect(run["image"]).To(Equal("override"))
	g.Expect(run["cmds"]).To(Equal([]interface{}{"a"}))
}

func TestMergeIntoReplacesListsWholesaleByDefault(t *testing.T) {
	g := NewWithT(t)

	dst := map[string]interface{}{"schedule": map[string]interface{}{"nodes": []interface{}{"a", "b"}}}
	src := map[string]interface{}{"schedule": map[string]interface{}{"nodes": []interface{}{"c"}}}

	out := mergeInto(dst, src)
	g.Expect(out["schedule"].(map[string]interface{})["nodes"]).To(Equal([]interface{}{"c"}))
}

func TestMergeIntoPrependCmdsSplicesOntoExisting(t *testing.T) {
	g := NewWithT(t)

	dst := map[string]interface{}{"cmds": []interface{}{"main"}}
	src := map[string]interface{}{"prepend_cmds": []interface{}{"setup"}}

	out := mergeInto(dst, src)
	g.Expect(out["cmds"]).To(Equal([]interface{}{"setup", "main"}))
}

func TestMergeIntoAppendCmdsSplicesOntoExisting(t *testing.T) {
	g := NewWithT(t)

	dst := map[string]interface{}{"cmds": []interface{}{"main"}}
	src := map[string]interface{}{"append_cmds": []interface{}{"teardown"}}

	out := mergeInto(dst, src)
	g.Expect(out["cmds"]).To(Equal([]interface{}{"main", "teardown"}))
}

func TestMergeIntoDoesNotMutateDst(t *testing.T) {
	g := NewWithT(t)

	dst := map[string]interface{}{"run": map[string]interface{}{"image": "base"}}
	src := map[string]interface{}{"run": map[string]interface{}{"image": "changed"}}

	mergeInto(dst, src)
	g.Expect(dst["run"].(map[string]interface{})["image"]).To(Equal("base"))
}
