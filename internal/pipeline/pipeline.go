package pipeline

import (
	"context"
	"log/slog"

	"github.com/nao1215/notionscan/internal/model"
)

// Step defines the interface that all pipeline steps must implement.
// Steps are executed in sequence, each receiving the scan state
// accumulated by the previous steps.
type Step interface {
	// Do executes the pipeline step.
	// Non-critical problems should be recorded in the scan and return nil.
	Do(ctx context.Context, scan *model.Scan) error

	// Name returns the step's name for logging purposes.
	Name() string
}

// Pipeline orchestrates the execution of multiple steps.
type Pipeline struct {
	// steps contains the ordered list of steps to execute.
	steps []Step

	// logger is used for structured logging during execution.
	logger *slog.Logger
}

// Option is a function that configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// New creates a new Pipeline with the given steps and options.
func New(steps []Step, opts ...Option) *Pipeline {
	p := &Pipeline{
		steps: append([]Step(nil), steps...),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// Execute runs all pipeline steps in sequence and stops at the first
// failing step. Cancellation is checked between steps; a running step
// handles its own.
func (p *Pipeline) Execute(ctx context.Context, scan *model.Scan) error {
	for _, step := range p.steps {
		if err := ctx.Err(); err != nil {
			p.logger.Warn("pipeline cancelled", "step", step.Name(), "reason", err)
			return err
		}

		p.logger.Debug("executing step", "step", step.Name(), "root", scan.RootID.Masked())

		if err := step.Do(ctx, scan); err != nil {
			p.logger.Debug("step failed", "step", step.Name(), "error", err)
			if scan.Err == nil {
				scan.Err = err
			}
			return err
		}
		scan.PerformedSteps = append(scan.PerformedSteps, step.Name())
	}
	return nil
}

// StepNames returns the names of all steps in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}
