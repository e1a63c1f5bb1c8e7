// Package retry runs single remote calls with exponential backoff on
// rate-limit signals.
//
// Only errors classified as rate limiting are retried. Everything else
// is returned to the caller on the first failure. The delay before retry
// n (counting from zero) is BaseDelay * 2^n with no jitter; callers are
// already bounded by the crawler's concurrency limit, so bursts stay small.
package retry
