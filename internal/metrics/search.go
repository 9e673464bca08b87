package metrics

import "github.com/prometheus/client_golang/prometheus"

// Search and reconciliation Prometheus metrics.
var (
	SearchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "poidex",
			Name:      "searches_total",
			Help:      "Total number of searches served, by source",
		},
		[]string{"source"}, // "store" / "scout"
	)

	ScoutRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "poidex",
			Name:      "scout_requests_total",
			Help:      "Total number of generative lookup requests",
		},
		[]string{"model", "status"},
	)

	ScoutRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "poidex",
			Name:      "scout_request_duration_seconds",
			Help:      "Generative lookup request duration in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"model"},
	)

	ScoutRateLimitedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "poidex",
			Name:      "scout_rate_limited_total",
			Help:      "Searches degraded by generative lookup rate limits",
		},
	)

	CacheFallbackTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "poidex",
			Name:      "cache_fallback_total",
			Help:      "Radius queries that fell through to a regional registry fetch",
		},
	)

	EnrichmentTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "poidex",
			Name:      "enrichment_total",
			Help:      "Place enrichment outcomes",
		},
		[]string{"status"}, // "ok" / "error"
	)

	ReconcileDeletedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "poidex",
			Name:      "reconcile_deleted_total",
			Help:      "Duplicate rows deleted by batch reconciliation",
		},
	)

	ReconcileErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "poidex",
			Name:      "reconcile_errors_total",
			Help:      "Failed deletions during batch reconciliation",
		},
	)
)

// RegisterSearchMetrics registers the search metrics explicitly (no init()).
func RegisterSearchMetrics() {
	prometheus.MustRegister(
		SearchesTotal,
		ScoutRequestsTotal,
		ScoutRequestDuration,
		ScoutRateLimitedTotal,
		CacheFallbackTotal,
		EnrichmentTotal,
		ReconcileDeletedTotal,
		ReconcileErrorsTotal,
	)
}
