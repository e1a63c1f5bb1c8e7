package retry

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records retry behaviour. It registers on a caller-supplied
// registry, never on the global default one.
type Metrics struct {
	// Retries counts retry attempts by operation.
	Retries *prometheus.CounterVec

	// Exhausted counts calls that ran out of attempts.
	Exhausted *prometheus.CounterVec

	// Backoff observes the time slept before each retry.
	Backoff *prometheus.HistogramVec
}

// NewMetrics creates the retry metrics and registers them on reg.
// A nil reg leaves them unregistered, which is handy in tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "notionscan",
			Name:      "retries_total",
			Help:      "Total number of rate-limited calls that were retried, by operation.",
		}, []string{"operation"}),
		Exhausted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "notionscan",
			Name:      "retry_exhausted_total",
			Help:      "Total number of calls that failed after exhausting retries, by operation.",
		}, []string{"operation"}),
		Backoff: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "notionscan",
			Name:      "retry_backoff_seconds",
			Help:      "Backoff slept before a retry, by operation.",
			Buckets:   []float64{0.3, 0.6, 1.2, 2.4, 4.8, 9.6, 19.2},
		}, []string{"operation"}),
	}
	if reg != nil {
		reg.MustRegister(m.Retries, m.Exhausted, m.Backoff)
	}
	return m
}
