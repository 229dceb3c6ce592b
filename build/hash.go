// Package build implements the Build Engine (spec §4.3): source
// acquisition and classification, a content hash that selects a shared,
// content-addressed build directory, cross-process coordination over that
// directory via an exclusive-lock sentinel file, POSIX shell-script
// composition and execution, and the symlink-copy step that gives each run
// its own writable view of a shared artifact.
package build

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
)

// FileDigest is one (path, content-or-size) pair contributing to the
// canonical hash input (spec §4.3, "sorted (path, bytes) pairs").
type FileDigest struct {
	Path string
	Sum  []byte
}

// HashInput is the full, order-independent set of material spec §4.3 says
// the content hash covers. Compute sorts every slice internally so callers
// never need to pre-sort.
type HashInput struct {
	// ScriptText is the normalized (whitespace-trimmed per line) build
	// script text.
	ScriptText string

	// Specificity is the specificity string distinguishing builds that
	// would otherwise collide (e.g. target architecture, compiler
	// version) — opaque to the Build Engine itself.
	Specificity string

	// SourceBytes is the source archive/file's own content hash, or nil
	// if SourceMTime should be used instead (spec §4.3: "source bytes (or
	// most-recent directory mtime)").
	SourceBytes []byte

	// SourceMTime is a stable representation of a source directory's
	// most-recent modification time, used only when SourceBytes is nil.
	SourceMTime string

	ExtraFiles    []FileDigest
	GeneratedFiles []FileDigest
}

// Compute returns the hex-encoded SHA-256 digest selecting this build's
// content-addressed directory name (spec §4.3, "Hash input").
func Compute(in HashInput) string {
	h := sha256.New()

	h.Write([]byte(in.ScriptText))
	h.Write([]byte{0})
	h.Write([]byte(in.Specificity))
	h.Write([]byte{0})
	if in.SourceBytes != nil {
		h.Write(in.SourceBytes)
	} else {
		h.Write([]byte(in.SourceMTime))
	}
	h.Write([]byte{0})

	writeSorted(h, in.ExtraFiles)
	h.Write([]byte{0})
	writeSorted(h, in.GeneratedFiles)

	return hex.EncodeToString(h.Sum(nil))
}

func writeSorted(h interface{ Write([]byte) (int, error) }, files []FileDigest) {
	sorted := make([]FileDigest, len(files))
	copy(sorted, files)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Path < sorted[j].Path })
	for _, f := range sorted {
		h.Write([]byte(f.Path))
		h.Write([]byte{0})
		h.Write(f.Sum)
		h.Write([]byte{0})
	}
}
