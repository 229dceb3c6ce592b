package build

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"os"
	"path/filepath"
	"testing"

	. "github.com/onsi/gomega"
)

func TestClassifyDetectsDirectory(t *testing.T) {
	g := NewWithT(t)
	dir := t.TempDir()
	kind, err := Classify(dir)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(kind).To(Equal(KindDirectory))
}

func TestClassifyDetectsPlainFile(t *testing.T) {
	g := NewWithT(t)
	path := filepath.Join(t.TempDir(), "f.txt")
	g.Expect(os.WriteFile(path, []byte("hello"), 0o644)).To(Succeed())

	kind, err := Classify(path)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(kind).To(Equal(KindPlainFile))
}

func TestClassifyDetectsGzip(t *testing.T) {
	g := NewWithT(t)
	path := filepath.Join(t.TempDir(), "a.tgz")
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	g.Expect(tw.Close()).To(Succeed())
	g.Expect(gz.Close()).To(Succeed())
	g.Expect(os.WriteFile(path, buf.Bytes(), 0o644)).To(Succeed())

	kind, err := Classify(path)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(kind).To(Equal(KindTarGzip))
}

func TestClassifyDetectsZip(t *testing.T) {
	g := NewWithT(t)
	path := filepath.Join(t.TempDir(), "a.zip")
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	g.Expect(zw.Close()).To(Succeed())
	g.Expect(os.WriteFile(path, buf.Bytes(), 0o644)).To(Succeed())

	kind, err := Classify(path)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(kind).To(Equal(KindZip))
}

func TestAcquireSourcePlainFileCopiesIntoDestDir(t *testing.T) {
	g := NewWithT(t)
	root := t.TempDir()
	src := filepath.Join(root, "payload.txt")
	g.Expect(os.WriteFile(src, []byte("data"), 0o644)).To(Succeed())
	dest := filepath.Join(root, "dest")

	g.Expect(AcquireSource(src, dest)).To(Succeed())
	got, err := os.ReadFile(filepath.Join(dest, "payload.txt"))
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(string(got)).To(Equal("data"))
}

func TestAcquireSourceDirectoryCopiesRecursively(t *testing.T) {
	g := NewWithT(t)
	root := t.TempDir()
	src := filepath.Join(root, "srcdir")
	g.Expect(os.MkdirAll(filepath.Join(src, "sub"), 0o755)).To(Succeed())
	g.Expect(os.WriteFile(filepath.Join(src, "sub", "f.txt"), []byte("x"), 0o644)).To(Succeed())
	dest := filepath.Join(root, "dest")

	g.Expect(AcquireSource(src, dest)).To(Succeed())
	got, err := os.ReadFile(filepath.Join(dest, "sub", "f.txt"))
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(string(got)).To(Equal("x"))
}

func TestAcquireSourceTarGzFoldsSingleTopLevelDir(t *testing.T) {
	g := NewWithT(t)
	root := t.TempDir()
	archivePath := filepath.Join(root, "src.tar.gz")
	writeTarGz(g, archivePath, map[string]string{
		"wrapper/file.txt":     "contents",
		"wrapper/sub/deep.txt": "deep",
	})
	dest := filepath.Join(root, "dest")

	g.Expect(AcquireSource(archivePath, dest)).To(Succeed())
	got, err := os.ReadFile(filepath.Join(dest, "file.txt"))
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(string(got)).To(Equal("contents"))
	got, err = os.ReadFile(filepath.Join(dest, "sub", "deep.txt"))
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(string(got)).To(Equal("deep"))
}

func TestAcquireSourceTarGzKeepsMultipleTopLevelEntries(t *testing.T) {
	g := NewWithT(t)
	root := t.TempDir()
	archivePath := filepath.Join(root, "src.tar.gz")
	writeTarGz(g, archivePath, map[string]string{
		"a.txt": "A",
		"b.txt": "B",
	})
	dest := filepath.Join(root, "dest")

	g.Expect(AcquireSource(archivePath, dest)).To(Succeed())
	got, err := os.ReadFile(filepath.Join(dest, "a.txt"))
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(string(got)).To(Equal("A"))
}

func TestAcquireSourceZipFoldsSingleTopLevelDir(t *testing.T) {
	g := NewWithT(t)
	root := t.TempDir()
	archivePath := filepath.Join(root, "src.zip")
	writeZip(g, archivePath, map[string]string{
		"wrapper/file.txt": "zipped",
	})
	dest := filepath.Join(root, "dest")

	g.Expect(AcquireSource(archivePath, dest)).To(Succeed())
	got, err := os.ReadFile(filepath.Join(dest, "file.txt"))
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(string(got)).To(Equal("zipped"))
}

func writeTarGz(g Gomega, path string, files map[string]string) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	for name, content := range files {
		g.Expect(tw.WriteHeader(&tar.Header{
			Name: name,
			Mode: 0o644,
			Size: int64(len(content)),
		})).To(Succeed())
		_, err := tw.Write([]byte(content))
		g.Expect(err).NotTo(HaveOccurred())
	}
	g.Expect(tw.Close()).To(Succeed())
	g.Expect(gz.Close()).To(Succeed())
	g.Expect(os.WriteFile(path, buf.Bytes(), 0o644)).To(Succeed())
}

func writeZip(g Gomega, path string, files map[string]string) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		g.Expect(err).NotTo(HaveOccurred())
		_, err = w.Write([]byte(content))
		g.Expect(err).NotTo(HaveOccurred())
	}
	g.Expect(zw.Close()).To(Succeed())
	g.Expect(os.WriteFile(path, buf.Bytes(), 0o644)).To(Succeed())
}
