package metrics

import "github.com/prometheus/client_golang/prometheus"

// Matching engine Prometheus metrics.
var (
	ClassifierDecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "classifier_decisions_total",
			Help:      "Query routing decisions by strategy and mode",
		},
		[]string{"strategy", "mode"},
	)

	ClassifierFallbacksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "classifier_fallbacks_total",
			Help:      "Tool-routing failures that fell back to semantic mode",
		},
	)

	HybridHitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hybrid_hits_total",
			Help:      "Raw index hits returned per retrieval channel",
		},
		[]string{"channel"}, // "lexical" / "vector"
	)

	HybridChannelErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hybrid_channel_errors_total",
			Help:      "Failed retrieval channel queries",
		},
		[]string{"channel"},
	)

	FilterCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "filter_cache_total",
			Help:      "Filter value cache lookups",
		},
		[]string{"field", "result"}, // result: "hit" / "miss" / "error"
	)

	JobTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_job_transitions_total",
			Help:      "Search job rag status transitions",
		},
		[]string{"rag_status"},
	)

	JobStageDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_job_stage_duration_seconds",
			Help:      "Background semantic stage duration in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
	)
)

var engineMetricsRegistered bool

// RegisterEngineMetrics registers matching engine metrics. Must be called once from main.
func RegisterEngineMetrics() {
	if engineMetricsRegistered {
		return
	}
	prometheus.MustRegister(
		ClassifierDecisionsTotal,
		ClassifierFallbacksTotal,
		HybridHitsTotal,
		HybridChannelErrorsTotal,
		FilterCacheTotal,
		JobTransitionsTotal,
		JobStageDuration,
	)
	engineMetricsRegistered = true
}
