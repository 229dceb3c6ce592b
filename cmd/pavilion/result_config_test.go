package main

import (
	"testing"

	. "github.com/onsi/gomega"
)

func TestParserConfigsFromTranslatesSection(t *testing.T) {
	g := NewWithT(t)
	section := map[string]interface{}{
		"qps": map[string]interface{}{
			"files":              []interface{}{"run.log"},
			"for_lines_matching": "throughput: .*",
			"parser":             "regex",
			"args":               map[string]interface{}{"regex": "x"},
			"match_select":       "first",
			"per_file":           "first",
			"action":             "store",
		},
	}
	out := parserConfigsFrom(section)
	g.Expect(out).To(HaveLen(1))
	g.Expect(out[0].Key).To(Equal("qps"))
	g.Expect(out[0].Files).To(Equal([]string{"run.log"}))
	g.Expect(out[0].Parser).To(Equal("regex"))
	g.Expect(out[0].Args).To(Equal(map[string]interface{}{"regex": "x"}))
}

func TestParserConfigsFromEmptySectionReturnsNil(t *testing.T) {
	g := NewWithT(t)
	g.Expect(parserConfigsFrom(nil)).To(BeNil())
}

func TestKeyExprsFromPreservesDeclaredOrder(t *testing.T) {
	g := NewWithT(t)
	section := []interface{}{
		map[string]interface{}{"first": "1 + 1"},
		map[string]interface{}{"second": "first + 1"},
	}
	out := keyExprsFrom(section)
	g.Expect(out).To(HaveLen(2))
	g.Expect(out[0].Key).To(Equal("first"))
	g.Expect(out[0].Expression).To(Equal("1 + 1"))
	g.Expect(out[1].Key).To(Equal("second"))
}

func TestKeyExprsFromEmptySectionReturnsNil(t *testing.T) {
	g := NewWithT(t)
	g.Expect(keyExprsFrom(nil)).To(BeNil())
}
