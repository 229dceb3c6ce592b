package build

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	. "github.com/onsi/gomega"
)

func TestAcquireReleaseRoundTrip(t *testing.T) {
	g := NewWithT(t)
	dir := t.TempDir()
	log := filepath.Join(dir, "build.log")
	g.Expect(os.WriteFile(log, []byte("x"), 0o644)).To(Succeed())

	lock, err := Acquire(context.Background(), dir, log, time.Second)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(lock).NotTo(BeNil())

	_, err = os.Stat(filepath.Join(dir, lockFileName))
	g.Expect(err).NotTo(HaveOccurred())

	g.Expect(lock.Release()).To(Succeed())
	_, err = os.Stat(filepath.Join(dir, lockFileName))
	g.Expect(os.IsNotExist(err)).To(BeTrue())
}

func TestAcquireReclaimsStalledLock(t *testing.T) {
	g := NewWithT(t)
	dir := t.TempDir()
	g.Expect(os.MkdirAll(dir, 0o755)).To(Succeed())

	log := filepath.Join(dir, "build.log")
	g.Expect(os.WriteFile(log, []byte("x"), 0o644)).To(Succeed())

	// Simulate a holder that died: sentinel present, progress log stale.
	stale := filepath.Join(dir, lockFileName)
	g.Expect(os.WriteFile(stale, []byte(""), 0o644)).To(Succeed())
	old := time.Now().Add(-time.Hour)
	g.Expect(os.Chtimes(log, old, old)).To(Succeed())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	lock, err := Acquire(ctx, dir, log, 10*time.Millisecond)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(lock).NotTo(BeNil())
}

func TestAcquireRespectsContextCancellation(t *testing.T) {
	g := NewWithT(t)
	dir := t.TempDir()
	g.Expect(os.MkdirAll(dir, 0o755)).To(Succeed())
	log := filepath.Join(dir, "build.log")
	g.Expect(os.WriteFile(log, []byte("x"), 0o644)).To(Succeed())

	held, ok, err := tryAcquire(dir)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(ok).To(BeTrue())
	defer held.Release()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = Acquire(ctx, dir, log, time.Hour)
	g.Expect(err).To(HaveOccurred())
}
