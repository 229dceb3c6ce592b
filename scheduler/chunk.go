package scheduler

import (
	"math/rand"
	"sort"
	"strconv"
	"strings"

	"github.com/pavilion-hpc/pavilion/errkind"
)

// FilterNodes keeps only nodes that are up, unallocated, and a member of
// every requested group (partition/reservation), in deterministic name
// order — the fixed "filter order" spec §4.5 says chunk ids are assigned
// against.
func FilterNodes(nodes map[string]NodeRecord, acceptedStates []string, requiredGroups []string) []string {
	wantUp := containsFold(acceptedStates, "up") || len(acceptedStates) == 0
	names := make([]string, 0, len(nodes))
	for name, rec := range nodes {
		if wantUp && (!rec.Up || rec.Allocated) {
			continue
		}
		ok := true
		for _, g := range requiredGroups {
			if !rec.Groups[g] {
				ok = false
				break
			}
		}
		if ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

func containsFold(haystack []string, needle string) bool {
	for _, s := range haystack {
		if strings.EqualFold(s, needle) {
			return true
		}
	}
	return false
}

// resolveSize turns an absolute count or a "N%" string into an absolute
// chunk size against total, per spec §4.5 ("absolute or percentage of
// filtered count").
func resolveSize(spec string, total int) (int, error) {
	spec = strings.TrimSpace(spec)
	if strings.HasSuffix(spec, "%") {
		pct, err := strconv.Atoi(strings.TrimSuffix(spec, "%"))
		if err != nil {
			return 0, errkind.New(errkind.Configuration, "invalid chunk size percentage %q", spec)
		}
		return (total * pct) / 100, nil
	}
	n, err := strconv.Atoi(spec)
	if err != nil {
		return 0, errkind.New(errkind.Configuration, "invalid chunk size %q", spec)
	}
	return n, nil
}

// Chunk partitions filtered (already ordered) into ⌊N/k⌋ chunks of size k,
// applying one of the four deterministic node-selection disciplines (spec
// §4.5, "Chunking"). Residual nodes are folded per extra: "backfill" (the
// default) merges them into the second-to-last chunk, "discard" drops
// them. Chunk ids are 0,1,2,… in filter order.
func Chunk(filtered []string, spec ChunkSpec) ([][]string, error) {
	size, err := resolveSize(spec.Size, len(filtered))
	if err != nil {
		return nil, err
	}
	if size <= 0 {
		return nil, errkind.New(errkind.Configuration, "chunk size must resolve to a positive count (got %d from %q against %d nodes)", size, spec.Size, len(filtered))
	}

	ordered := reorder(filtered, spec)

	numChunks := len(ordered) / size
	if numChunks == 0 {
		return [][]string{}, nil
	}

	chunks := make([][]string, numChunks)
	for i := 0; i < numChunks; i++ {
		chunks[i] = append([]string{}, ordered[i*size:(i+1)*size]...)
	}

	residual := ordered[numChunks*size:]
	if len(residual) == 0 {
		return chunks, nil
	}

	switch spec.Extra {
	case "discard":
		return chunks, nil
	case "backfill", "":
		// fall through to the backfill merge below
	default:
		return nil, errkind.New(errkind.Configuration, "unknown chunking.extra %q", spec.Extra)
	}

	target := len(chunks) - 2
	if target < 0 {
		target = len(chunks) - 1
	}
	if target < 0 {
		chunks = append(chunks, residual)
		return chunks, nil
	}
	chunks[target] = append(chunks[target], residual...)
	return chunks, nil
}

// reorder applies the node-selection discipline to filtered, which is
// already sorted in filter order; the discipline only changes which nodes
// land in which position, never the filter-order chunk numbering applied
// afterward.
func reorder(filtered []string, spec ChunkSpec) []string {
	switch spec.NodeSelection {
	case "", "contiguous":
		return append([]string{}, filtered...)
	case "distributed":
		return distribute(filtered)
	case "random":
		return shuffled(filtered, spec.Seed)
	case "rand-dist":
		return shuffleWithinBuckets(distribute(filtered), spec.Seed)
	default:
		return append([]string{}, filtered...)
	}
}

// distribute picks "every r-th" node, where r = number of eventual chunks'
// worth of stride — implemented as an interleave: index i of the result is
// filtered[i*step % len mapped across rows], producing an even spread
// across the original ordering rather than contiguous runs.
func distribute(filtered []string) []string {
	n := len(filtered)
	if n == 0 {
		return nil
	}
	step := 2
	for step < n && n%step == 0 && step < n-1 {
		step++
	}
	out := make([]string, 0, n)
	seen := make([]bool, n)
	idx := 0
	for len(out) < n {
		if !seen[idx] {
			seen[idx] = true
			out = append(out, filtered[idx])
		}
		idx = (idx + step) % n
	}
	return out
}

func shuffled(filtered []string, seed int64) []string {
	out := append([]string{}, filtered...)
	r := rand.New(rand.NewSource(seed))
	r.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

// shuffleWithinBuckets shuffles each contiguous run of equal length within
// already-distributed, implementing "random within distributed buckets":
// the distribution determines bucket membership, a seeded shuffle
// determines order inside each bucket.
func shuffleWithinBuckets(distributed []string, seed int64) []string {
	const bucketSize = 8
	out := append([]string{}, distributed...)
	r := rand.New(rand.NewSource(seed))
	for start := 0; start < len(out); start += bucketSize {
		end := start + bucketSize
		if end > len(out) {
			end = len(out)
		}
		bucket := out[start:end]
		r.Shuffle(len(bucket), func(i, j int) { bucket[i], bucket[j] = bucket[j], bucket[i] })
	}
	return out
}
