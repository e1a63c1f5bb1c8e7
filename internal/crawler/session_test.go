package crawler

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestSessionBudget(t *testing.T) {
	t.Parallel()

	t.Run("zero budget never runs out", func(t *testing.T) {
		t.Parallel()

		s := newSession(0, nil, nil)
		if s.Spend(1_000_000) || s.Exhausted() {
			t.Error("unlimited budget reported exhaustion")
		}
	})

	t.Run("reaching the cap exhausts", func(t *testing.T) {
		t.Parallel()

		m := NewMetrics(prometheus.NewRegistry())
		s := newSession(5, nil, m)
		if s.Spend(4) {
			t.Error("Spend(4) of 5 should not exhaust")
		}
		if !s.Spend(1) || !s.Exhausted() {
			t.Error("Spend reaching the cap should exhaust")
		}
		if got := testutil.ToFloat64(m.Blocks); got != 5 {
			t.Errorf("blocks metric = %v, want 5", got)
		}
	})
}

func TestSessionClaimDatabaseOnce(t *testing.T) {
	t.Parallel()

	s := newSession(0, nil, nil)
	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := "33333333-3333-3333-3333-333333333333"
			if i%2 == 0 {
				id = "33333333333333333333333333333333"
			}
			if s.claimDatabase(id) {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	if wins.Load() != 1 {
		t.Errorf("claimDatabase succeeded %d times, want 1", wins.Load())
	}
}
