package build

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/bzip2"
	"compress/gzip"
	"io"
	"os"
	"path/filepath"

	"github.com/ulikunitz/xz"

	"github.com/pavilion-hpc/pavilion/errkind"
)

// Kind is the file-magic classification of a source artifact (spec §4.3:
// "classified by file-magic, never extension").
type Kind int

const (
	KindPlainFile Kind = iota
	KindDirectory
	KindTarGzip
	KindTarBzip2
	KindTarXz
	KindTar
	KindZip
)

var magicTable = []struct {
	kind   Kind
	prefix []byte
}{
	{KindTarGzip, []byte{0x1f, 0x8b}},
	{KindTarBzip2, []byte("BZh")},
	{KindTarXz, []byte{0xfd, '7', 'z', 'X', 'Z', 0x00}},
	{KindZip, []byte("PK\x03\x04")},
}

// Classify inspects path's leading bytes (never its extension) to pick a
// Kind. A directory is detected via os.Stat, not by reading bytes.
func Classify(path string) (Kind, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, errkind.Wrap(errkind.Build, err, "statting source %s", path)
	}
	if info.IsDir() {
		return KindDirectory, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return 0, errkind.Wrap(errkind.Build, err, "opening source %s", path)
	}
	defer f.Close()

	head := make([]byte, 262)
	n, _ := io.ReadFull(f, head)
	head = head[:n]

	for _, m := range magicTable {
		if bytes.HasPrefix(head, m.prefix) {
			return m.kind, nil
		}
	}
	if looksLikeTar(head) {
		return KindTar, nil
	}
	return KindPlainFile, nil
}

// looksLikeTar checks for a POSIX ustar magic at its fixed offset, since a
// plain (uncompressed) tar has no leading magic bytes of its own.
func looksLikeTar(head []byte) bool {
	const ustarOffset = 257
	return len(head) >= ustarOffset+5 && bytes.Equal(head[ustarOffset:ustarOffset+5], []byte("ustar"))
}

// AcquireSource resolves and stages one test's source into destDir, per
// spec §4.3's "Source acquisition" and "Build directory shape": archives
// are extracted, plain files and directories are copied; if extraction
// yields exactly one top-level directory, that directory's contents become
// destDir's contents (the wrapper directory is stripped).
func AcquireSource(sourcePath, destDir string) error {
	kind, err := Classify(sourcePath)
	if err != nil {
		return err
	}

	switch kind {
	case KindDirectory:
		return copyDir(sourcePath, destDir)
	case KindPlainFile:
		return copyPlainFile(sourcePath, destDir)
	case KindTarGzip, KindTarBzip2, KindTarXz, KindTar:
		return extractTar(sourcePath, kind, destDir)
	case KindZip:
		return extractZip(sourcePath, destDir)
	default:
		return errkind.New(errkind.Build, "unrecognized source kind for %s", sourcePath)
	}
}

func copyPlainFile(src, destDir string) error {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return errkind.Wrap(errkind.Build, err, "creating build root")
	}
	return copyFile(src, filepath.Join(destDir, filepath.Base(src)), 0o644)
}

func copyFile(src, dst string, mode os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return errkind.Wrap(errkind.Build, err, "opening %s", src)
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return errkind.Wrap(errkind.Build, err, "creating parent dir for %s", dst)
	}
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, mode)
	if err != nil {
		return errkind.Wrap(errkind.Build, err, "creating %s", dst)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return errkind.Wrap(errkind.Build, err, "copying %s to %s", src, dst)
	}
	return nil
}

func copyDir(src, dst string) error {
	return filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if info.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		return copyFile(path, target, info.Mode())
	})
}

// extractTar streams a (possibly compressed) tar archive into destDir,
// folding a single top-level directory entry away per the "Build directory
// shape" rule.
func extractTar(path string, kind Kind, destDir string) error {
	f, err := os.Open(path)
	if err != nil {
		return errkind.Wrap(errkind.Build, err, "opening archive %s", path)
	}
	defer f.Close()

	var r io.Reader = f
	switch kind {
	case KindTarGzip:
		gz, err := gzip.NewReader(f)
		if err != nil {
			return errkind.Wrap(errkind.Build, err, "opening gzip stream in %s", path)
		}
		defer gz.Close()
		r = gz
	case KindTarBzip2:
		r = bzip2.NewReader(f)
	case KindTarXz:
		xr, err := xz.NewReader(f)
		if err != nil {
			return errkind.Wrap(errkind.Build, err, "opening xz stream in %s", path)
		}
		r = xr
	}

	tr := tar.NewReader(r)
	roots := map[string]bool{}
	var entries []string

	tmp, err := os.MkdirTemp(filepath.Dir(destDir), ".extract-*")
	if err != nil {
		return errkind.Wrap(errkind.Build, err, "creating extraction staging dir")
	}
	defer os.RemoveAll(tmp)

	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return errkind.Wrap(errkind.Build, err, "reading tar entry from %s", path)
		}
		target := filepath.Join(tmp, hdr.Name)
		if top := firstSegment(hdr.Name); top != "" {
			roots[top] = true
		}
		entries = append(entries, hdr.Name)

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return errkind.Wrap(errkind.Build, err, "creating %s", target)
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return errkind.Wrap(errkind.Build, err, "creating parent of %s", target)
			}
			out, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, os.FileMode(hdr.Mode))
			if err != nil {
				return errkind.Wrap(errkind.Build, err, "creating %s", target)
			}
			if _, err := io.Copy(out, tr); err != nil {
				out.Close()
				return errkind.Wrap(errkind.Build, err, "writing %s", target)
			}
			out.Close()
		}
	}

	return foldRoot(tmp, roots, destDir)
}

func extractZip(path, destDir string) error {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return errkind.Wrap(errkind.Build, err, "opening zip archive %s", path)
	}
	defer zr.Close()

	tmp, err := os.MkdirTemp(filepath.Dir(destDir), ".extract-*")
	if err != nil {
		return errkind.Wrap(errkind.Build, err, "creating extraction staging dir")
	}
	defer os.RemoveAll(tmp)

	roots := map[string]bool{}
	for _, f := range zr.File {
		target := filepath.Join(tmp, f.Name)
		if top := firstSegment(f.Name); top != "" {
			roots[top] = true
		}
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return errkind.Wrap(errkind.Build, err, "creating %s", target)
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return errkind.Wrap(errkind.Build, err, "creating parent of %s", target)
		}
		rc, err := f.Open()
		if err != nil {
			return errkind.Wrap(errkind.Build, err, "reading zip entry %s", f.Name)
		}
		out, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, f.Mode())
		if err != nil {
			rc.Close()
			return errkind.Wrap(errkind.Build, err, "creating %s", target)
		}
		_, copyErr := io.Copy(out, rc)
		rc.Close()
		out.Close()
		if copyErr != nil {
			return errkind.Wrap(errkind.Build, copyErr, "writing %s", target)
		}
	}

	return foldRoot(tmp, roots, destDir)
}

func firstSegment(name string) string {
	name = filepath.ToSlash(name)
	if i := bytes.IndexByte([]byte(name), '/'); i >= 0 {
		return name[:i]
	}
	return ""
}

// foldRoot implements "Build directory shape": if extraction produced
// exactly one top-level directory, that directory's contents become
// destDir; otherwise the whole staging tree becomes destDir.
func foldRoot(stagingDir string, roots map[string]bool, destDir string) error {
	entries, err := os.ReadDir(stagingDir)
	if err != nil {
		return errkind.Wrap(errkind.Build, err, "reading extraction staging dir")
	}
	if len(roots) == 1 && len(entries) == 1 && entries[0].IsDir() {
		return os.Rename(filepath.Join(stagingDir, entries[0].Name()), destDir)
	}
	if err := os.MkdirAll(filepath.Dir(destDir), 0o755); err != nil {
		return err
	}
	return os.Rename(stagingDir, destDir)
}
