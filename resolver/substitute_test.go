package resolver

import (
	"testing"

	. "github.com/onsi/gomega"

	"github.com/pavilion-hpc/pavilion/vartable"
)

func newSubstituteTable() *vartable.Table {
	t := vartable.New()
	t.Set(vartable.ScopeVar, "name", vartable.NewScalar("bench"))
	t.Set(vartable.ScopeSched, "nodes", vartable.NewDeferred(vartable.StringValue("")))
	return t
}

func TestSubstituteTreeRendersStringLeaves(t *testing.T) {
	g := NewWithT(t)
	var deferred []string
	out, err := substituteTree("test: {{ name }}", newSubstituteTable(), "", &deferred)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(out).To(Equal("test: bench"))
	g.Expect(deferred).To(BeEmpty())
}

func TestSubstituteTreeRecursesIntoNestedMaps(t *testing.T) {
	g := NewWithT(t)
	var deferred []string
	section := map[string]interface{}{
		"build": map[string]interface{}{
			"cmds": []interface{}{"echo {{ name }}"},
		},
	}
	out, err := substituteTree(section, newSubstituteTable(), "", &deferred)
	g.Expect(err).NotTo(HaveOccurred())

	m := out.(map[string]interface{})
	cmds := m["build"].(map[string]interface{})["cmds"].([]interface{})
	g.Expect(cmds[0]).To(Equal("echo bench"))
}

func TestSubstituteTreeCollectsDeferredPathsAndLeavesValueUnchanged(t *testing.T) {
	g := NewWithT(t)
	var deferred []string
	section := map[string]interface{}{
		"schedule": map[string]interface{}{
			"nodes": "{{ sched.nodes }}",
		},
	}
	out, err := substituteTree(section, newSubstituteTable(), "", &deferred)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(deferred).To(Equal([]string{"schedule.nodes"}))

	m := out.(map[string]interface{})
	g.Expect(m["schedule"].(map[string]interface{})["nodes"]).To(Equal("{{ sched.nodes }}"))
}

func TestSubstituteTreeListIndexesPathsNumerically(t *testing.T) {
	g := NewWithT(t)
	var deferred []string
	section := []interface{}{"{{ sched.nodes }}", "literal"}
	out, err := substituteTree(section, newSubstituteTable(), "cmds", &deferred)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(deferred).To(Equal([]string{"cmds.0"}))

	list := out.([]interface{})
	g.Expect(list[1]).To(Equal("literal"))
}

func TestSubstituteTreeNonStringScalarPassesThroughUnchanged(t *testing.T) {
	g := NewWithT(t)
	var deferred []string
	out, err := substituteTree(42, newSubstituteTable(), "", &deferred)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(out).To(Equal(42))
}

func TestSubstituteTreePropagatesNonDeferredError(t *testing.T) {
	g := NewWithT(t)
	var deferred []string
	_, err := substituteTree("{{ unknownfn(1) }}", newSubstituteTable(), "", &deferred)
	g.Expect(err).To(HaveOccurred())
	g.Expect(deferred).To(BeEmpty())
}
