package retry

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const (
	// DefaultMaxRetries is the number of retries after the first attempt.
	DefaultMaxRetries = 5

	// DefaultBaseDelay is the delay before the first retry.
	DefaultBaseDelay = 300 * time.Millisecond
)

// Classifier decides whether an error is worth retrying.
type Classifier func(err error) bool

// statusCoder is implemented by errors that carry an HTTP status.
type statusCoder interface {
	StatusCode() int
}

// IsRateLimit is the default classifier: status 429, or an error message
// containing "Rate limit".
func IsRateLimit(err error) bool {
	if err == nil {
		return false
	}
	var sc statusCoder
	if errors.As(err, &sc) && sc.StatusCode() == http.StatusTooManyRequests {
		return true
	}
	return strings.Contains(err.Error(), "Rate limit")
}

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// sleepContext is the production SleepFunc.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Executor wraps remote calls with backoff on rate limiting.
// An Executor holds no per-call state and is safe for concurrent use;
// the attempt count lives on each call's stack.
type Executor struct {
	maxRetries int
	baseDelay  time.Duration
	classify   Classifier
	sleep      SleepFunc
	metrics    *Metrics
	logger     *slog.Logger
}

// Option configures an Executor.
type Option func(*Executor)

// WithMaxRetries sets how many retries follow the first attempt.
func WithMaxRetries(n int) Option {
	return func(e *Executor) {
		if n >= 0 {
			e.maxRetries = n
		}
	}
}

// WithBaseDelay sets the delay before the first retry.
func WithBaseDelay(d time.Duration) Option {
	return func(e *Executor) {
		if d >= 0 {
			e.baseDelay = d
		}
	}
}

// WithClassifier replaces the rate-limit classifier.
func WithClassifier(c Classifier) Option {
	return func(e *Executor) {
		if c != nil {
			e.classify = c
		}
	}
}

// WithSleep replaces the sleep function. Tests use it to record delays.
func WithSleep(s SleepFunc) Option {
	return func(e *Executor) {
		if s != nil {
			e.sleep = s
		}
	}
}

// WithMetrics records retries on m.
func WithMetrics(m *Metrics) Option {
	return func(e *Executor) {
		e.metrics = m
	}
}

// WithLogger sets the logger used for retry messages.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Executor) {
		e.logger = logger
	}
}

// NewExecutor creates an Executor with 5 retries and a 300ms base delay.
func NewExecutor(opts ...Option) *Executor {
	e := &Executor{
		maxRetries: DefaultMaxRetries,
		baseDelay:  DefaultBaseDelay,
		classify:   IsRateLimit,
		sleep:      sleepContext,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e
}

// Delay returns the backoff before retry number attempt (zero based).
func (e *Executor) Delay(attempt int) time.Duration {
	return e.baseDelay << attempt
}

// Do runs op, retrying rate-limited failures with exponential backoff.
// name labels the call in logs and metrics.
func Do[T any](ctx context.Context, e *Executor, name string, op func(ctx context.Context) (T, error)) (T, error) {
	for attempt := 0; ; attempt++ {
		v, err := op(ctx)
		if err == nil {
			return v, nil
		}
		if !e.classify(err) {
			return v, err
		}
		if attempt >= e.maxRetries {
			if e.metrics != nil {
				e.metrics.Exhausted.WithLabelValues(name).Inc()
			}
			e.logger.Warn("retries exhausted", "operation", name, "attempts", attempt+1, "error", err)
			return v, err
		}

		delay := e.Delay(attempt)
		if e.metrics != nil {
			e.metrics.Retries.WithLabelValues(name).Inc()
			e.metrics.Backoff.WithLabelValues(name).Observe(delay.Seconds())
		}
		e.logger.Debug("rate limited, backing off", "operation", name, "attempt", attempt+1, "delay", delay)

		if err := e.sleep(ctx, delay); err != nil {
			var zero T
			return zero, err
		}
	}
}

// Run is Do for calls that return only an error.
func Run(ctx context.Context, e *Executor, name string, op func(ctx context.Context) error) error {
	_, err := Do(ctx, e, name, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	})
	return err
}
