package crawler

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts traversal work. Like retry.Metrics it registers on a
// caller-supplied registry.
type Metrics struct {
	// Blocks counts blocks fetched from block children listings.
	Blocks prometheus.Counter

	// Databases counts databases processed successfully.
	Databases prometheus.Counter

	// Pages counts page records created.
	Pages prometheus.Counter

	// Failures counts non-fatal failures by scope.
	Failures *prometheus.CounterVec

	// Truncations counts listings cut short by the block budget.
	Truncations prometheus.Counter
}

// NewMetrics creates the crawler metrics and registers them on reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Blocks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "notionscan",
			Subsystem: "crawler",
			Name:      "blocks_fetched_total",
			Help:      "Total number of blocks fetched.",
		}),
		Databases: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "notionscan",
			Subsystem: "crawler",
			Name:      "databases_total",
			Help:      "Total number of databases processed.",
		}),
		Pages: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "notionscan",
			Subsystem: "crawler",
			Name:      "pages_total",
			Help:      "Total number of distinct pages recorded.",
		}),
		Failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "notionscan",
			Subsystem: "crawler",
			Name:      "failures_total",
			Help:      "Total number of non-fatal failures, by scope.",
		}, []string{"scope"}),
		Truncations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "notionscan",
			Subsystem: "crawler",
			Name:      "truncations_total",
			Help:      "Total number of listings truncated by the block budget.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Blocks, m.Databases, m.Pages, m.Failures, m.Truncations)
	}
	return m
}
