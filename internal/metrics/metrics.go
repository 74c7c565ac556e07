package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Session metrics
	SessionsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ods_sessions_created_total",
			Help: "Total number of research sessions created",
		},
	)

	SessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ods_sessions_active",
			Help: "Number of research sessions currently held in the store",
		},
	)

	SessionsEvicted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ods_sessions_evicted_total",
			Help: "Total number of sessions evicted from the store",
		},
	)

	SubQuestionsPerSession = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ods_sub_questions_per_session",
			Help:    "Number of sub-questions produced per session",
			Buckets: []float64{1, 2, 3, 4, 5, 7, 10},
		},
	)

	// Search metrics
	SearchesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ods_searches_total",
			Help: "Total number of search collaborator invocations",
		},
	)

	SearchErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ods_search_errors_total",
			Help: "Total number of failed search invocations",
		},
	)

	SearchLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ods_search_latency_seconds",
			Help:    "Search collaborator call latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Orchestrator metrics
	OperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ods_operation_duration_seconds",
			Help:    "Research operation duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	OperationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ods_operation_errors_total",
			Help: "Total number of failed research operations",
		},
		[]string{"operation", "kind"},
	)

	StepsAppended = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ods_steps_appended_total",
			Help: "Total number of research steps appended",
		},
		[]string{"type"},
	)

	ReportsSynthesized = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ods_reports_synthesized_total",
			Help: "Total number of final reports synthesized",
		},
	)
)
