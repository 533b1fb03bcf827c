// Package metrics provides Prometheus observability for the search
// pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the search pipeline.
type Metrics struct {
	// Searches by query kind and outcome
	Searches *prometheus.CounterVec

	// Provider call outcomes by source
	ProviderCalls *prometheus.CounterVec

	// Cache lookups by outcome
	CacheLookups *prometheus.CounterVec

	// Provider call latencies by source
	ProviderLatency *prometheus.HistogramVec

	// End-to-end search latency
	SearchLatency prometheus.Histogram

	// Cluster count per search
	Clusters prometheus.Histogram
}

// New creates a new Metrics instance with all pipeline metrics registered.
func New() *Metrics {
	return &Metrics{
		Searches: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "trace_search_searches_total",
			Help: "Total search requests by query kind and outcome",
		}, []string{"kind", "outcome"}), // outcome: "ok", "error", "cached"

		ProviderCalls: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "trace_search_provider_calls_total",
			Help: "Total provider calls by source and outcome",
		}, []string{"source", "outcome"}),

		CacheLookups: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "trace_search_cache_lookups_total",
			Help: "Total cache lookups by outcome",
		}, []string{"outcome"}), // outcome: "hit", "miss", "error"

		ProviderLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "trace_search_provider_duration_seconds",
			Help:    "Duration of provider calls by source",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15},
		}, []string{"source"}),

		SearchLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "trace_search_duration_seconds",
			Help:    "Duration of full search pipeline including provider fan-out",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),

		Clusters: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "trace_search_clusters",
			Help:    "Entity clusters formed per search",
			Buckets: []float64{1, 2, 5, 10, 25, 50, 100},
		}),
	}
}

// IncrementSearch records a completed search outcome.
func (m *Metrics) IncrementSearch(kind, outcome string) {
	if m != nil {
		m.Searches.WithLabelValues(kind, outcome).Inc()
	}
}

// IncrementProviderCall records a provider call outcome.
func (m *Metrics) IncrementProviderCall(source, outcome string) {
	if m != nil {
		m.ProviderCalls.WithLabelValues(source, outcome).Inc()
	}
}

// IncrementCacheLookup records a cache lookup outcome.
func (m *Metrics) IncrementCacheLookup(outcome string) {
	if m != nil {
		m.CacheLookups.WithLabelValues(outcome).Inc()
	}
}

// ObserveProviderLatency records the duration of one provider call.
func (m *Metrics) ObserveProviderLatency(source string, d time.Duration) {
	if m != nil {
		m.ProviderLatency.WithLabelValues(source).Observe(d.Seconds())
	}
}

// ObserveSearchLatency records the total pipeline duration.
func (m *Metrics) ObserveSearchLatency(d time.Duration) {
	if m != nil {
		m.SearchLatency.Observe(d.Seconds())
	}
}

// ObserveClusters records the cluster count of one search.
func (m *Metrics) ObserveClusters(n int) {
	if m != nil {
		m.Clusters.Observe(float64(n))
	}
}
