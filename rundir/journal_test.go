package rundir

import (
	"path/filepath"
	"testing"

	. "github.com/onsi/gomega"
)

func TestEntriesOnMissingFileReturnsEmptyNoError(t *testing.T) {
	g := NewWithT(t)
	j := Open(filepath.Join(t.TempDir(), "status"))
	entries, err := j.Entries()
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(entries).To(BeEmpty())
}

func TestEntriesParsesTimeStateAndNoteInOrder(t *testing.T) {
	g := NewWithT(t)
	j := Open(filepath.Join(t.TempDir(), "status"))
	g.Expect(j.Append(Resolved, "resolved ok")).To(Succeed())
	g.Expect(j.Append(Scheduled, "submitted")).To(Succeed())

	entries, err := j.Entries()
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(entries).To(HaveLen(2))
	g.Expect(entries[0].State).To(Equal(Resolved))
	g.Expect(entries[0].Note).To(Equal("resolved ok"))
	g.Expect(entries[1].State).To(Equal(Scheduled))
	g.Expect(entries[0].Time.Before(entries[1].Time) || entries[0].Time.Equal(entries[1].Time)).To(BeTrue())
}

func TestAppendSanitizesNewlinesAndTabsInNote(t *testing.T) {
	g := NewWithT(t)
	j := Open(filepath.Join(t.TempDir(), "status"))
	g.Expect(j.Append(Resolved, "line1\nline2\twith tab")).To(Succeed())

	entries, err := j.Entries()
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(entries[0].Note).To(Equal("line1 line2 with tab"))
}

func TestCurrentOnEmptyJournalReturnsNotExist(t *testing.T) {
	g := NewWithT(t)
	j := Open(filepath.Join(t.TempDir(), "status"))
	_, err := j.Current()
	g.Expect(err).To(HaveOccurred())
}

func TestMarkCompleteAndIsComplete(t *testing.T) {
	g := NewWithT(t)
	dir := t.TempDir()
	g.Expect(IsComplete(dir)).To(BeFalse())
	g.Expect(MarkComplete(dir)).To(Succeed())
	g.Expect(IsComplete(dir)).To(BeTrue())
}
