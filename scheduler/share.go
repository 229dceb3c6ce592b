package scheduler

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Shareable is the dispatch-identity fingerprint of one run, used to decide
// whether two runs may be grouped into one Job (spec §4.5, "Job sharing"):
// "When two runs present identical dispatch parameters (same scheduler,
// same normalized schedule section, same chunk selection) and both have
// share_allocation true, they are grouped into one Job."
type Shareable struct {
	RunLabel        string
	SchedulerName   string
	NormalizedParams string // e.g. a canonical encoding of RequestParams
	ChunkIndex      int
	ShareAllocation bool
}

// GroupKey returns the fingerprint two Shareables must match to share a
// Job: empty (never shares) if ShareAllocation is false.
func (s Shareable) GroupKey() string {
	if !s.ShareAllocation {
		return ""
	}
	h := sha256.Sum256([]byte(fmt.Sprintf("%s\x00%s\x00%d", s.SchedulerName, s.NormalizedParams, s.ChunkIndex)))
	return hex.EncodeToString(h[:])
}

// Job is one or more runs dispatched together; the kickoff script runs
// them serially, and each run's success/failure is tracked independently
// (spec §4.5).
type Job struct {
	Key     string // "" for a job holding exactly one non-shared run
	RunLabels []string
}

// GroupForSharing partitions runs into Jobs by GroupKey, preserving the
// input order of first appearance within each group, and keeping every run
// with an empty GroupKey (share_allocation false) in its own singleton Job.
func GroupForSharing(runs []Shareable) []Job {
	var jobs []Job
	index := map[string]int{}
	for _, r := range runs {
		key := r.GroupKey()
		if key == "" {
			jobs = append(jobs, Job{RunLabels: []string{r.RunLabel}})
			continue
		}
		if i, ok := index[key]; ok {
			jobs[i].RunLabels = append(jobs[i].RunLabels, r.RunLabel)
			continue
		}
		index[key] = len(jobs)
		jobs = append(jobs, Job{Key: key, RunLabels: []string{r.RunLabel}})
	}
	return jobs
}
