package expr

import (
	"testing"

	. "github.com/onsi/gomega"

	"github.com/pavilion-hpc/pavilion/vartable"
)

func TestSubstituteRendersExpressionInline(t *testing.T) {
	g := NewWithT(t)
	out, err := Substitute("qps is {{ qps }}", newEvalTable())
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(out).To(Equal("qps is 12"))
}

func TestSubstitutePassesThroughPlainText(t *testing.T) {
	g := NewWithT(t)
	out, err := Substitute("no templates here", newEvalTable())
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(out).To(Equal("no templates here"))
}

func TestSubstituteEscapesLiteralDelimiters(t *testing.T) {
	g := NewWithT(t)
	out, err := Substitute(`\{{ literal }} and \[~ and \~ and \\`, newEvalTable())
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(out).To(Equal(`{{ literal }} and [~ and ~ and \`))
}

func TestSubstituteUnrecognizedEscapeErrors(t *testing.T) {
	g := NewWithT(t)
	_, err := Substitute(`\q`, newEvalTable())
	g.Expect(err).To(HaveOccurred())
}

func TestSubstituteUnterminatedExpressionErrors(t *testing.T) {
	g := NewWithT(t)
	_, err := Substitute("{{ qps", newEvalTable())
	g.Expect(err).To(HaveOccurred())
}

func TestSubstituteFormatSpecAppliesSprintf(t *testing.T) {
	g := NewWithT(t)
	out, err := Substitute("{{ ratio : %.3f }}", newEvalTable())
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(out).To(Equal("1.500"))
}

func TestSubstituteIterationExpandsOverListVariable(t *testing.T) {
	g := NewWithT(t)
	out, err := Substitute("[~{{sizes}}~,]", newEvalTable())
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(out).To(Equal("1,2,3"))
}

func TestSubstituteIterationWithoutListVariableRendersOnce(t *testing.T) {
	g := NewWithT(t)
	out, err := Substitute("[~{{name}}~,]", newEvalTable())
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(out).To(Equal("bench"))
}

func TestSubstituteNestedIterationErrors(t *testing.T) {
	g := NewWithT(t)
	_, err := Substitute("[~[~{{sizes}}~,]~;]", newEvalTable())
	g.Expect(err).To(HaveOccurred())
}

func TestSubstituteUnterminatedIterationErrors(t *testing.T) {
	g := NewWithT(t)
	_, err := Substitute("[~{{sizes}}", newEvalTable())
	g.Expect(err).To(HaveOccurred())
}

func TestSplitFormatSpecIgnoresColonInsideQuotedString(t *testing.T) {
	g := NewWithT(t)
	exprSrc, formatSpec, ok := splitFormatSpec(`"a:b" : %s`)
	g.Expect(ok).To(BeTrue())
	g.Expect(exprSrc).To(Equal(`"a:b"`))
	g.Expect(formatSpec).To(Equal("%s"))
}

func TestSplitFormatSpecNoColonReturnsFalse(t *testing.T) {
	g := NewWithT(t)
	_, _, ok := splitFormatSpec("qps")
	g.Expect(ok).To(BeFalse())
}

func TestListVariableNamesFindsMultiValuedReference(t *testing.T) {
	g := NewWithT(t)
	names, err := listVariableNames("{{ sizes }} and {{ name }}", newEvalTable())
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(names).To(Equal([]string{"sizes"}))
}

func TestListVariableNamesIgnoresIndexedReference(t *testing.T) {
	g := NewWithT(t)
	tbl := vartable.New()
	tbl.Set(vartable.ScopeVar, "sizes", vartable.NewList([]string{"1", "2"}))
	names, err := listVariableNames("{{ sizes.0 }}", tbl)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(names).To(BeEmpty())
}
