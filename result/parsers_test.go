package result

import (
	"testing"

	"github.com/pavilion-hpc/pavilion/corectx"

	. "github.com/onsi/gomega"
)

func TestRegisterBuiltinsInstallsAllFourParsers(t *testing.T) {
	g := NewWithT(t)
	reg := corectx.NewRegistry()
	RegisterBuiltins(reg)

	for _, name := range []string{"regex", "split", "const", "table"} {
		_, ok := Lookup(reg, name)
		g.Expect(ok).To(BeTrue(), "expected parser %q registered", name)
	}
}

func TestLookupMissingParserReturnsFalse(t *testing.T) {
	g := NewWithT(t)
	reg := corectx.NewRegistry()
	_, ok := Lookup(reg, "ghost")
	g.Expect(ok).To(BeFalse())
}

func TestParseRegexSingleGroupReturnsString(t *testing.T) {
	g := NewWithT(t)
	v, err := parseRegex([]string{"duration: 4.2s"}, 0, map[string]interface{}{"regex": `duration: ([\d.]+)s`})
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(v).To(Equal("4.2"))
}

func TestParseRegexMultipleGroupsReturnsList(t *testing.T) {
	g := NewWithT(t)
	v, err := parseRegex([]string{"x=1 y=2"}, 0, map[string]interface{}{"regex": `x=(\d+) y=(\d+)`})
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(v).To(Equal([]interface{}{"1", "2"}))
}

func TestParseRegexNoGroupsReturnsWholeMatch(t *testing.T) {
	g := NewWithT(t)
	v, err := parseRegex([]string{"PASSED"}, 0, map[string]interface{}{"regex": `PASSED`})
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(v).To(Equal("PASSED"))
}

func TestParseRegexNoMatchReturnsNilNil(t *testing.T) {
	g := NewWithT(t)
	v, err := parseRegex([]string{"nope"}, 0, map[string]interface{}{"regex": `PASSED`})
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(v).To(BeNil())
}

func TestParseRegexInvalidPatternErrors(t *testing.T) {
	g := NewWithT(t)
	_, err := parseRegex([]string{"x"}, 0, map[string]interface{}{"regex": `(unclosed`})
	g.Expect(err).To(HaveOccurred())
}

func TestParseSplitDefaultWhitespaceReturnsAllFields(t *testing.T) {
	g := NewWithT(t)
	v, err := parseSplit([]string{"a b  c"}, 0, nil)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(v).To(Equal([]interface{}{"a", "b", "c"}))
}

func TestParseSplitCustomSeparatorAndIndex(t *testing.T) {
	g := NewWithT(t)
	v, err := parseSplit([]string{"a,b,c"}, 0, map[string]interface{}{"sep": ",", "index": 1})
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(v).To(Equal("b"))
}

func TestParseSplitIndexOutOfRangeErrors(t *testing.T) {
	g := NewWithT(t)
	_, err := parseSplit([]string{"a b"}, 0, map[string]interface{}{"index": 5})
	g.Expect(err).To(HaveOccurred())
}

func TestParseSplitIndexNotIntegerErrors(t *testing.T) {
	g := NewWithT(t)
	_, err := parseSplit([]string{"a b"}, 0, map[string]interface{}{"index": "notanint"})
	g.Expect(err).To(HaveOccurred())
}

func TestParseConstReturnsLiteralValueIgnoringLine(t *testing.T) {
	g := NewWithT(t)
	v, err := parseConst([]string{"irrelevant"}, 0, map[string]interface{}{"value": 42})
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(v).To(Equal(42))
}

func TestParseTableCollectsUntilBlankLine(t *testing.T) {
	g := NewWithT(t)
	lines := []string{
		"nodes 4",
		"cpus 128",
		"",
		"ignored after blank",
	}
	v, err := parseTable(lines, 0, map[string]interface{}{"key_col": 0, "value_col": 1})
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(v).To(Equal(map[string]interface{}{"nodes": "4", "cpus": "128"}))
}

func TestParseTableSkipsShortRows(t *testing.T) {
	g := NewWithT(t)
	lines := []string{"onlyonefield"}
	v, err := parseTable(lines, 0, map[string]interface{}{"key_col": 0, "value_col": 1})
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(v).To(Equal(map[string]interface{}{}))
}

func TestToIntHandlesAllSupportedKinds(t *testing.T) {
	g := NewWithT(t)

	v, err := toInt(3)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(v).To(Equal(3))

	v, err = toInt(3.9)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(v).To(Equal(3))

	v, err = toInt("7")
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(v).To(Equal(7))

	v, err = toInt(nil)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(v).To(Equal(0))

	_, err = toInt("not-a-number")
	g.Expect(err).To(HaveOccurred())

	_, err = toInt(true)
	g.Expect(err).To(HaveOccurred())
}
