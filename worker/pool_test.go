package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	. "github.com/onsi/gomega"

	"github.com/pavilion-hpc/pavilion/rundir"
)

func TestPoolRunsEveryRepeat(t *testing.T) {
	g := NewWithT(t)

	var count int32
	series := []Series{
		{
			Label:  "bench",
			Repeat: 5,
			Run: func(ctx context.Context, label string, index int) (rundir.State, error) {
				atomic.AddInt32(&count, 1)
				return rundir.Complete, nil
			},
		},
	}

	p := New(2)
	results := p.Run(context.Background(), series)

	g.Expect(results).To(HaveLen(5))
	g.Expect(count).To(Equal(int32(5)))
	for _, r := range results {
		g.Expect(r.State).To(Equal(rundir.Complete))
		g.Expect(r.Err).NotTo(HaveOccurred())
	}
}

func TestPoolBoundsConcurrency(t *testing.T) {
	g := NewWithT(t)

	var inFlight, maxInFlight int32
	var mu sync.Mutex
	series := []Series{
		{
			Label:  "a",
			Repeat: 6,
			Run: func(ctx context.Context, label string, index int) (rundir.State, error) {
				n := atomic.AddInt32(&inFlight, 1)
				mu.Lock()
				if n > maxInFlight {
					maxInFlight = n
				}
				mu.Unlock()
				time.Sleep(10 * time.Millisecond)
				atomic.AddInt32(&inFlight, -1)
				return rundir.Complete, nil
			},
		},
	}

	p := New(2)
	p.Run(context.Background(), series)

	g.Expect(maxInFlight).To(BeNumerically("<=", 2))
}

func TestPoolCollectsPerRunErrors(t *testing.T) {
	g := NewWithT(t)

	series := []Series{
		{
			Label:  "flaky",
			Repeat: 3,
			Run: func(ctx context.Context, label string, index int) (rundir.State, error) {
				if index == 1 {
					return rundir.Error, context.DeadlineExceeded
				}
				return rundir.Complete, nil
			},
		},
	}

	p := New(4)
	results := p.Run(context.Background(), series)

	failures := 0
	for _, r := range results {
		if r.Err != nil {
			failures++
		}
	}
	g.Expect(failures).To(Equal(1))
}

func TestNewClampsConcurrency(t *testing.T) {
	g := NewWithT(t)
	p := New(0)
	g.Expect(p.concurrency).To(Equal(1))
}
