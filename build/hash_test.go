package build

import (
	"testing"

	. "github.com/onsi/gomega"
)

func TestComputeIsDeterministic(t *testing.T) {
	g := NewWithT(t)

	in := HashInput{ScriptText: "make", Specificity: "x86_64"}
	g.Expect(Compute(in)).To(Equal(Compute(in)))
}

func TestComputeDiffersOnScriptText(t *testing.T) {
	g := NewWithT(t)

	a := Compute(HashInput{ScriptText: "make"})
	b := Compute(HashInput{ScriptText: "make all"})
	g.Expect(a).NotTo(Equal(b))
}

func TestComputeIsOrderIndependentOverExtraFiles(t *testing.T) {
	g := NewWithT(t)

	a := Compute(HashInput{ExtraFiles: []FileDigest{
		{Path: "b.txt", Sum: []byte("2")},
		{Path: "a.txt", Sum: []byte("1")},
	}})
	b := Compute(HashInput{ExtraFiles: []FileDigest{
		{Path: "a.txt", Sum: []byte("1")},
		{Path: "b.txt", Sum: []byte("2")},
	}})
	g.Expect(a).To(Equal(b))
}

func TestComputeDoesNotMutateCallerSlice(t *testing.T) {
	g := NewWithT(t)

	files := []FileDigest{{Path: "b.txt"}, {Path: "a.txt"}}
	Compute(HashInput{ExtraFiles: files})
	g.Expect(files[0].Path).To(Equal("b.txt"))
}

func TestComputeFallsBackToSourceMTimeWhenBytesNil(t *testing.T) {
	g := NewWithT(t)

	a := Compute(HashInput{SourceMTime: "2024-01-01T00:00:00Z"})
	b := Compute(HashInput{SourceMTime: "2024-01-02T00:00:00Z"})
	g.Expect(a).NotTo(Equal(b))
}

func TestComputePrefersSourceBytesOverMTimeWhenBothSet(t *testing.T) {
	g := NewWithT(t)

	a := Compute(HashInput{SourceBytes: []byte("same"), SourceMTime: "t1"})
	b := Compute(HashInput{SourceBytes: []byte("same"), SourceMTime: "t2"})
	g.Expect(a).To(Equal(b))
}
