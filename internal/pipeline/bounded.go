package pipeline

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Task is one unit of work for RunBounded.
type Task[T any] func(ctx context.Context) (T, error)

// Outcome is the result of one task. Exactly one of Value and Err is meaningful.
type Outcome[T any] struct {
	Value T
	Err   error
}

// RunBounded runs every task to completion with at most limit tasks in
// flight and returns their outcomes in task order. A limit of 1 or less
// runs the tasks sequentially in order.
//
// A failing task does not cancel its siblings; deciding what to do with
// failures is left to the caller. A panicking task is reported as a failure.
func RunBounded[T any](ctx context.Context, limit int, tasks []Task[T]) []Outcome[T] {
	outcomes := make([]Outcome[T], len(tasks))
	if len(tasks) == 0 {
		return outcomes
	}

	if limit <= 1 {
		for i, task := range tasks {
			outcomes[i] = runTask(ctx, task)
		}
		return outcomes
	}

	// A plain Group: errgroup.WithContext would cancel siblings on the first error.
	var g errgroup.Group
	g.SetLimit(limit)
	for i, task := range tasks {
		g.Go(func() error {
			// Each goroutine writes only its own index.
			outcomes[i] = runTask(ctx, task)
			return nil
		})
	}
	_ = g.Wait() //nolint:errcheck // tasks never return errors to the group
	return outcomes
}

func runTask[T any](ctx context.Context, task Task[T]) (out Outcome[T]) {
	defer func() {
		if r := recover(); r != nil {
			out = Outcome[T]{Err: fmt.Errorf("task panicked: %v", r)}
		}
	}()
	v, err := task(ctx)
	return Outcome[T]{Value: v, Err: err}
}
