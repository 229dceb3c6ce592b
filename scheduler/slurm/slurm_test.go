package slurm

import (
	"testing"

	. "github.com/onsi/gomega"
)

func TestNormalizeClassifiesNodeState(t *testing.T) {
	g := NewWithT(t)
	s := New("")

	raw := []sinfoNode{
		{Name: "node01", State: []string{"IDLE"}, CPUs: 64, RealMemory: 256000, Partitions: []string{"batch"}},
		{Name: "node02", State: []string{"ALLOCATED"}, CPUs: 64, RealMemory: 256000, Partitions: []string{"batch", "gpu"}},
		{Name: "node03", State: []string{"DOWN"}, CPUs: 64, RealMemory: 256000, Partitions: []string{"batch"}},
	}

	out, err := s.Normalize(raw)
	g.Expect(err).NotTo(HaveOccurred())

	g.Expect(out["node01"].Up).To(BeTrue())
	g.Expect(out["node01"].Allocated).To(BeFalse())

	g.Expect(out["node02"].Up).To(BeTrue())
	g.Expect(out["node02"].Allocated).To(BeTrue())
	g.Expect(out["node02"].Groups).To(HaveKey("gpu"))

	g.Expect(out["node03"].Up).To(BeFalse())
}

func TestNormalizeRejectsForeignData(t *testing.T) {
	g := NewWithT(t)
	s := New("")

	_, err := s.Normalize("not a node list")
	g.Expect(err).To(HaveOccurred())
}

func TestBinPathPrefix(t *testing.T) {
	g := NewWithT(t)

	s := New("")
	g.Expect(s.bin("sbatch")).To(Equal("sbatch"))

	s = New("/opt/slurm/bin")
	g.Expect(s.bin("sbatch")).To(Equal("/opt/slurm/bin/sbatch"))
}
