package build

import (
	"os"
	"path/filepath"
	"testing"

	. "github.com/onsi/gomega"
)

func TestSymlinkCopyLinksRegularFilesByDefault(t *testing.T) {
	g := NewWithT(t)
	buildDir := t.TempDir()
	runDir := filepath.Join(t.TempDir(), "run")
	g.Expect(os.WriteFile(filepath.Join(buildDir, "bin"), []byte("exe"), 0o755)).To(Succeed())

	g.Expect(SymlinkCopy(buildDir, runDir, nil)).To(Succeed())

	info, err := os.Lstat(filepath.Join(runDir, "bin"))
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(info.Mode() & os.ModeSymlink).NotTo(Equal(os.FileMode(0)))
}

func TestSymlinkCopyCopiesMatchedGlobAsRealFile(t *testing.T) {
	g := NewWithT(t)
	buildDir := t.TempDir()
	runDir := filepath.Join(t.TempDir(), "run")
	g.Expect(os.WriteFile(filepath.Join(buildDir, "output.dat"), []byte("data"), 0o644)).To(Succeed())

	g.Expect(SymlinkCopy(buildDir, runDir, []string{"output.dat"})).To(Succeed())

	info, err := os.Lstat(filepath.Join(runDir, "output.dat"))
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(info.Mode() & os.ModeSymlink).To(Equal(os.FileMode(0)))
	got, err := os.ReadFile(filepath.Join(runDir, "output.dat"))
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(string(got)).To(Equal("data"))
}

func TestSymlinkCopyRecreatesSubdirectories(t *testing.T) {
	g := NewWithT(t)
	buildDir := t.TempDir()
	runDir := filepath.Join(t.TempDir(), "run")
	g.Expect(os.MkdirAll(filepath.Join(buildDir, "sub"), 0o755)).To(Succeed())
	g.Expect(os.WriteFile(filepath.Join(buildDir, "sub", "f.txt"), []byte("f"), 0o644)).To(Succeed())

	g.Expect(SymlinkCopy(buildDir, runDir, nil)).To(Succeed())

	info, err := os.Stat(filepath.Join(runDir, "sub"))
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(info.IsDir()).To(BeTrue())
}

func TestMatchGlobRecursiveDoubleStarMatchesAnyDepth(t *testing.T) {
	g := NewWithT(t)
	g.Expect(matchGlob("**/*.log", "a/b/c.log")).To(BeTrue())
	g.Expect(matchGlob("**/*.log", "c.log")).To(BeTrue())
	g.Expect(matchGlob("**/*.log", "c.txt")).To(BeFalse())
}

func TestMatchGlobPlainSegmentMatching(t *testing.T) {
	g := NewWithT(t)
	g.Expect(matchGlob("output/*.dat", "output/run.dat")).To(BeTrue())
	g.Expect(matchGlob("output/*.dat", "other/run.dat")).To(BeFalse())
}

func TestMatchesAnyChecksEveryPattern(t *testing.T) {
	g := NewWithT(t)
	g.Expect(matchesAny("a/b.txt", []string{"x/*", "a/*.txt"})).To(BeTrue())
	g.Expect(matchesAny("a/b.txt", []string{"x/*"})).To(BeFalse())
}
