package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"
)

func TestRunBounded(t *testing.T) {
	t.Parallel()

	t.Run("returns outcomes in task order", func(t *testing.T) {
		t.Parallel()

		tasks := make([]Task[int], 10)
		for i := range tasks {
			tasks[i] = func(context.Context) (int, error) {
				time.Sleep(time.Duration(10-i) * time.Millisecond)
				return i * i, nil
			}
		}
		outcomes := RunBounded(context.Background(), 4, tasks)
		if len(outcomes) != 10 {
			t.Fatalf("got %d outcomes, want 10", len(outcomes))
		}
		for i, o := range outcomes {
			if o.Err != nil || o.Value != i*i {
				t.Errorf("outcome[%d] = %+v, want %d", i, o, i*i)
			}
		}
	})

	t.Run("never exceeds the limit", func(t *testing.T) {
		t.Parallel()

		const limit = 3
		var inFlight, peak atomic.Int32
		tasks := make([]Task[struct{}], 20)
		for i := range tasks {
			tasks[i] = func(context.Context) (struct{}, error) {
				n := inFlight.Add(1)
				for {
					p := peak.Load()
					if n <= p || peak.CompareAndSwap(p, n) {
						break
					}
				}
				time.Sleep(5 * time.Millisecond)
				inFlight.Add(-1)
				return struct{}{}, nil
			}
		}
		RunBounded(context.Background(), limit, tasks)
		if got := peak.Load(); got > limit {
			t.Errorf("peak concurrency = %d, want <= %d", got, limit)
		}
	})

	t.Run("limit one runs sequentially in order", func(t *testing.T) {
		t.Parallel()

		var order []int
		tasks := make([]Task[int], 5)
		for i := range tasks {
			tasks[i] = func(context.Context) (int, error) {
				order = append(order, i)
				return i, nil
			}
		}
		RunBounded(context.Background(), 1, tasks)
		for i, v := range order {
			if v != i {
				t.Fatalf("order = %v, want sequential", order)
			}
		}
		if len(order) != 5 {
			t.Errorf("ran %d tasks, want 5", len(order))
		}
	})

	t.Run("failures do not cancel siblings", func(t *testing.T) {
		t.Parallel()

		errBoom := errors.New("boom")
		var ran atomic.Int32
		tasks := []Task[string]{
			func(context.Context) (string, error) { return "", errBoom },
			func(ctx context.Context) (string, error) {
				time.Sleep(10 * time.Millisecond)
				ran.Add(1)
				return "ok", ctx.Err()
			},
			func(context.Context) (string, error) { panic("kaboom") },
		}
		outcomes := RunBounded(context.Background(), 3, tasks)
		if !errors.Is(outcomes[0].Err, errBoom) {
			t.Errorf("outcome[0].Err = %v, want %v", outcomes[0].Err, errBoom)
		}
		if outcomes[1].Err != nil || outcomes[1].Value != "ok" {
			t.Errorf("outcome[1] = %+v, want ok", outcomes[1])
		}
		if outcomes[2].Err == nil {
			t.Error("panicking task should be reported as a failure")
		}
		if ran.Load() != 1 {
			t.Error("sibling task should have run to completion")
		}
	})

	t.Run("empty task list", func(t *testing.T) {
		t.Parallel()

		if got := RunBounded[int](context.Background(), 3, nil); len(got) != 0 {
			t.Errorf("RunBounded(nil) = %v, want empty", got)
		}
	})

	t.Run("every task is started", func(t *testing.T) {
		t.Parallel()

		for _, limit := range []int{0, 1, 2, 50} {
			t.Run(fmt.Sprintf("limit=%d", limit), func(t *testing.T) {
				t.Parallel()

				var count atomic.Int32
				tasks := make([]Task[int], 30)
				for i := range tasks {
					tasks[i] = func(context.Context) (int, error) {
						count.Add(1)
						return 0, nil
					}
				}
				RunBounded(context.Background(), limit, tasks)
				if count.Load() != 30 {
					t.Errorf("ran %d tasks, want 30", count.Load())
				}
			})
		}
	})
}
