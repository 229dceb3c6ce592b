package scheduler

import (
	"testing"

	. "github.com/onsi/gomega"
)

func TestWithWrapperAppendsWhenSet(t *testing.T) {
	g := NewWithT(t)
	g.Expect(WithWrapper("srun -N 2", RequestParams{Wrapper: "strace -f"})).To(Equal("srun -N 2 strace -f"))
}

func TestWithWrapperNoopWhenUnset(t *testing.T) {
	g := NewWithT(t)
	g.Expect(WithWrapper("srun -N 2", RequestParams{})).To(Equal("srun -N 2"))
}

func TestSrunLaunchDefaultsTasksToNodeCount(t *testing.T) {
	g := NewWithT(t)
	g.Expect(SrunLaunch(RequestParams{}, 4)).To(Equal("srun -N 4 -n 4"))
}

func TestSrunLaunchMultipliesByTasksPerNode(t *testing.T) {
	g := NewWithT(t)
	g.Expect(SrunLaunch(RequestParams{TasksPerNode: 3}, 4)).To(Equal("srun -N 4 -n 12"))
}

func TestSrunLaunchIncludesWrapper(t *testing.T) {
	g := NewWithT(t)
	out := SrunLaunch(RequestParams{Wrapper: "ddt"}, 2)
	g.Expect(out).To(Equal("srun -N 2 -n 2 ddt"))
}

func TestLocalLaunchEmptyByDefault(t *testing.T) {
	g := NewWithT(t)
	g.Expect(LocalLaunch(RequestParams{}, 1)).To(Equal(""))
}

func TestLocalLaunchCarriesWrapperOnly(t *testing.T) {
	g := NewWithT(t)
	g.Expect(LocalLaunch(RequestParams{Wrapper: "gdb"}, 1)).To(Equal(" gdb"))
}
