package expr

import (
	"testing"

	. "github.com/onsi/gomega"
	"github.com/pkg/errors"

	"github.com/pavilion-hpc/pavilion/vartable"
)

func newEvalTable() *vartable.Table {
	t := vartable.New()
	t.Set(vartable.ScopeVar, "qps", vartable.NewScalar("12"))
	t.Set(vartable.ScopeVar, "ratio", vartable.NewScalar("1.5"))
	t.Set(vartable.ScopeVar, "name", vartable.NewScalar("bench"))
	t.Set(vartable.ScopeVar, "sizes", vartable.NewList([]string{"1", "2", "3"}))
	return t
}

func TestEvalArithmeticOnReferencedVariables(t *testing.T) {
	g := NewWithT(t)
	out, err := Eval("qps * 2", newEvalTable())
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(out).To(Equal("24"))
}

func TestEvalFloatDivisionAlwaysFloat(t *testing.T) {
	g := NewWithT(t)
	out, err := Eval("4 / 2", newEvalTable())
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(out).To(Equal("2"))
}

func TestEvalFloorDivisionStaysInt(t *testing.T) {
	g := NewWithT(t)
	out, err := Eval("7 // 2", newEvalTable())
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(out).To(Equal("3"))
}

func TestEvalFloorDivisionRoundsTowardNegativeInfinity(t *testing.T) {
	g := NewWithT(t)
	out, err := Eval("-7 // 2", newEvalTable())
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(out).To(Equal("-4"))
}

func TestEvalDivisionByZeroErrors(t *testing.T) {
	g := NewWithT(t)
	_, err := Eval("1 / 0", newEvalTable())
	g.Expect(err).To(HaveOccurred())
}

func TestEvalComparisonReturnsBoolRendering(t *testing.T) {
	g := NewWithT(t)
	out, err := Eval("qps == 12", newEvalTable())
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(out).To(Equal("True"))
}

func TestEvalStringConcatenation(t *testing.T) {
	g := NewWithT(t)
	out, err := Eval(`name + "-1"`, newEvalTable())
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(out).To(Equal("bench-1"))
}

func TestEvalLogicalAndOrShortCircuit(t *testing.T) {
	g := NewWithT(t)
	b, err := EvalBool("qps > 0 and name == \"bench\"", newEvalTable())
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(b).To(BeTrue())

	b, err = EvalBool("qps < 0 or not (name == \"other\")", newEvalTable())
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(b).To(BeTrue())
}

func TestEvalListBroadcastsScalarAcrossElements(t *testing.T) {
	g := NewWithT(t)
	out, err := Eval("sum(sizes * 2)", newEvalTable())
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(out).To(Equal("12"))
}

func TestEvalRenderingAListDirectlyErrors(t *testing.T) {
	g := NewWithT(t)
	_, err := Eval("sizes", newEvalTable())
	g.Expect(err).To(HaveOccurred())
}

func TestEvalListLengthMismatchErrors(t *testing.T) {
	g := NewWithT(t)
	table := newEvalTable()
	table.Set(vartable.ScopeVar, "other", vartable.NewList([]string{"1", "2"}))
	_, err := Eval("sizes + other", table)
	g.Expect(err).To(HaveOccurred())
}

func TestEvalDeferredReferenceReturnsErrDeferred(t *testing.T) {
	g := NewWithT(t)
	table := vartable.New()
	table.Set(vartable.ScopeVar, "alloc_host", vartable.NewDeferred(vartable.StringValue("")))

	_, err := Eval("alloc_host", table)
	g.Expect(err).To(HaveOccurred())
	g.Expect(errors.Cause(err)).To(Equal(ErrDeferred))
}

func TestEvalFunctionsMinMaxSumLenRound(t *testing.T) {
	g := NewWithT(t)
	table := newEvalTable()

	out, err := Eval("min(sizes)", table)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(out).To(Equal("1"))

	out, err = Eval("max(sizes)", table)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(out).To(Equal("3"))

	out, err = Eval("sum(sizes)", table)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(out).To(Equal("6"))

	out, err = Eval("len(sizes)", table)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(out).To(Equal("3"))

	out, err = Eval("round(ratio)", table)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(out).To(Equal("2"))
}

func TestEvalUnknownFunctionErrors(t *testing.T) {
	g := NewWithT(t)
	_, err := Eval("bogus(1)", newEvalTable())
	g.Expect(err).To(HaveOccurred())
}

func TestEvalRejectsTrailingTokens(t *testing.T) {
	g := NewWithT(t)
	_, err := Eval("1 + 1 2", newEvalTable())
	g.Expect(err).To(HaveOccurred())
}
