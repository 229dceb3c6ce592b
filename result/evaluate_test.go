package result

import (
	"testing"

	. "github.com/onsi/gomega"
)

func TestEvaluateSetsResultKeyAsPassFail(t *testing.T) {
	g := NewWithT(t)
	res := &Result{Extra: map[string]interface{}{}}
	err := evaluate(res, []KeyExpr{{Key: "result", Expression: "1 == 1"}})
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(res.Result).To(Equal("PASS"))
}

func TestEvaluateNonResultKeyGoesToExtra(t *testing.T) {
	g := NewWithT(t)
	res := &Result{ReturnValue: 3, Extra: map[string]interface{}{}}
	err := evaluate(res, []KeyExpr{{Key: "doubled", Expression: "return_value * 2"}})
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(res.Extra["doubled"]).NotTo(BeNil())
}

func TestEvaluateLaterExpressionSeesEarlierOutput(t *testing.T) {
	g := NewWithT(t)
	res := &Result{Extra: map[string]interface{}{}}
	err := evaluate(res, []KeyExpr{
		{Key: "first", Expression: "1 + 1"},
		{Key: "second", Expression: "first + 1"},
	})
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(res.Extra["second"]).NotTo(BeNil())
}

func TestEvaluatePropagatesExpressionError(t *testing.T) {
	g := NewWithT(t)
	res := &Result{Extra: map[string]interface{}{}}
	err := evaluate(res, []KeyExpr{{Key: "bad", Expression: "unknownfn(1)"}})
	g.Expect(err).To(HaveOccurred())
}

func TestResultTableProjectsFixedFieldsAndExtra(t *testing.T) {
	g := NewWithT(t)
	res := &Result{
		Name:        "mytest",
		ID:          "42",
		ReturnValue: 0,
		DurationSec: 1.5,
		Extra:       map[string]interface{}{"qps": "100"},
	}
	tbl := resultTable(res)
	v, _, ok := tbl.Lookup("name")
	g.Expect(ok).To(BeTrue())
	g.Expect(v).NotTo(BeNil())

	v, _, ok = tbl.Lookup("qps")
	g.Expect(ok).To(BeTrue())
	g.Expect(v).NotTo(BeNil())
}

func TestNativeTruthyVariants(t *testing.T) {
	g := NewWithT(t)
	g.Expect(nativeTruthy(true)).To(BeTrue())
	g.Expect(nativeTruthy(false)).To(BeFalse())
	g.Expect(nativeTruthy(nil)).To(BeFalse())
	g.Expect(nativeTruthy("")).To(BeFalse())
	g.Expect(nativeTruthy("x")).To(BeTrue())
	g.Expect(nativeTruthy(int64(0))).To(BeFalse())
	g.Expect(nativeTruthy(int64(1))).To(BeTrue())
	g.Expect(nativeTruthy(float64(0))).To(BeFalse())
	g.Expect(nativeTruthy([]interface{}{})).To(BeTrue())
}

func TestToJSONStringRendersValidJSON(t *testing.T) {
	g := NewWithT(t)
	g.Expect(toJSONString(map[string]interface{}{"a": 1})).To(Equal(`{"a":1}`))
	g.Expect(toJSONString([]interface{}{1, 2})).To(Equal(`[1,2]`))
}
