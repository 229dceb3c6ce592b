package vartable

import (
	"testing"

	. "github.com/onsi/gomega"
)

func TestLookupRespectsScopePrecedence(t *testing.T) {
	g := NewWithT(t)

	table := New()
	table.Set(ScopeSched, "nodes", NewScalar("from-sched"))
	table.Set(ScopeVar, "nodes", NewScalar("from-var"))

	v, scope, ok := table.Lookup("nodes")
	g.Expect(ok).To(BeTrue())
	g.Expect(scope).To(Equal(ScopeVar))
	g.Expect(string(v.Values[0].(StringValue))).To(Equal("from-var"))
}

func TestLookupMissingReturnsFalse(t *testing.T) {
	g := NewWithT(t)
	table := New()
	_, _, ok := table.Lookup("ghost")
	g.Expect(ok).To(BeFalse())
}

func TestCloneIsIndependentOfOriginal(t *testing.T) {
	g := NewWithT(t)

	table := New()
	table.Set(ScopeVar, "x", NewScalar("1"))
	clone := table.Clone()
	clone.Set(ScopeVar, "x", NewScalar("2"))

	v, _, _ := table.Lookup("x")
	g.Expect(string(v.Values[0].(StringValue))).To(Equal("1"))

	v2, _, _ := clone.Lookup("x")
	g.Expect(string(v2.Values[0].(StringValue))).To(Equal("2"))
}

func TestWithScalarPinsOneValueWithoutMutatingOriginal(t *testing.T) {
	g := NewWithT(t)

	table := New()
	table.Set(ScopeVar, "size", NewList([]string{"1", "2", "3"}))

	pinned, err := table.WithScalar("size", 1)
	g.Expect(err).NotTo(HaveOccurred())

	pv, _, _ := pinned.Lookup("size")
	g.Expect(pv.Len()).To(Equal(1))
	g.Expect(string(pv.Values[0].(StringValue))).To(Equal("2"))

	orig, _, _ := table.Lookup("size")
	g.Expect(orig.Len()).To(Equal(3))
}

func TestWithScalarRejectsUnknownVariable(t *testing.T) {
	g := NewWithT(t)
	table := New()
	_, err := table.WithScalar("ghost", 0)
	g.Expect(err).To(HaveOccurred())
}

func TestWithScalarRejectsOutOfRangeIndex(t *testing.T) {
	g := NewWithT(t)
	table := New()
	table.Set(ScopeVar, "size", NewList([]string{"1"}))
	_, err := table.WithScalar("size", 5)
	g.Expect(err).To(HaveOccurred())
}
