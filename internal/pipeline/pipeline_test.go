package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/nao1215/notionscan/internal/model"
)

// mockStep is a test helper that implements the Step interface.
type mockStep struct {
	name      string
	doFunc    func(ctx context.Context, scan *model.Scan) error
	callCount int
}

// Do implements Step.Do.
func (m *mockStep) Do(ctx context.Context, scan *model.Scan) error {
	m.callCount++
	if m.doFunc != nil {
		return m.doFunc(ctx, scan)
	}
	return nil
}

// Name implements Step.Name.
func (m *mockStep) Name() string {
	return m.name
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testScan(t *testing.T) *model.Scan {
	t.Helper()

	id, err := model.NewNotionID("1f2e3d4c5b6a7980a1b2c3d4e5f60718")
	if err != nil {
		t.Fatalf("NewNotionID() error = %v", err)
	}
	return model.NewScan(id, "CLI")
}

func TestPipelineExecute(t *testing.T) {
	t.Parallel()

	t.Run("runs steps in order", func(t *testing.T) {
		t.Parallel()

		var order []string
		record := func(name string) *mockStep {
			return &mockStep{name: name, doFunc: func(context.Context, *model.Scan) error {
				order = append(order, name)
				return nil
			}}
		}
		p := New([]Step{record("a"), record("b"), record("c")}, WithLogger(discardLogger()))

		scan := testScan(t)
		if err := p.Execute(context.Background(), scan); err != nil {
			t.Fatalf("Execute() error = %v", err)
		}
		if len(order) != 3 || order[0] != "a" || order[2] != "c" {
			t.Errorf("order = %v, want [a b c]", order)
		}
		if len(scan.PerformedSteps) != 3 {
			t.Errorf("PerformedSteps = %v, want 3 entries", scan.PerformedSteps)
		}
		if names := p.StepNames(); len(names) != 3 || names[1] != "b" {
			t.Errorf("StepNames() = %v", names)
		}
	})

	t.Run("stops on first error", func(t *testing.T) {
		t.Parallel()

		errBoom := errors.New("boom")
		failing := &mockStep{name: "fail", doFunc: func(context.Context, *model.Scan) error { return errBoom }}
		after := &mockStep{name: "after"}
		p := New([]Step{failing, after}, WithLogger(discardLogger()))

		scan := testScan(t)
		err := p.Execute(context.Background(), scan)
		if !errors.Is(err, errBoom) {
			t.Fatalf("Execute() error = %v, want %v", err, errBoom)
		}
		if after.callCount != 0 {
			t.Error("step after failure should not run")
		}
		if !errors.Is(scan.Err, errBoom) {
			t.Errorf("scan.Err = %v, want %v", scan.Err, errBoom)
		}
	})

	t.Run("respects cancellation between steps", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		first := &mockStep{name: "first", doFunc: func(context.Context, *model.Scan) error {
			cancel()
			return nil
		}}
		second := &mockStep{name: "second"}
		p := New([]Step{first, second}, WithLogger(discardLogger()))

		err := p.Execute(ctx, testScan(t))
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Execute() error = %v, want context.Canceled", err)
		}
		if second.callCount != 0 {
			t.Error("second step should not run after cancellation")
		}
	})
}
