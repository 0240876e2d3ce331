package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Dispatch metrics
	Dispatches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tradingagents_dispatches_total",
			Help: "Total number of LLM dispatches",
		},
		[]string{"provider", "status"}, // status: success|transient|permanent|cancelled
	)

	DispatchLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tradingagents_dispatch_latency_seconds",
			Help:    "LLM dispatch latency in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
		},
		[]string{"provider", "model"},
	)

	DispatchTokens = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tradingagents_dispatch_tokens_total",
			Help: "Total tokens consumed by dispatches",
		},
		[]string{"provider", "model", "type"}, // type: input|output
	)

	// Pipeline metrics
	StageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tradingagents_stage_duration_seconds",
			Help:    "Pipeline stage duration in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"stage"},
	)

	Decisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tradingagents_decisions_total",
			Help: "Total completed decision runs by final token",
		},
		[]string{"decision"},
	)

	RunFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tradingagents_run_failures_total",
			Help: "Total failed decision runs by error kind",
		},
		[]string{"kind"},
	)

	// Memory metrics
	MemoryRetrievals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tradingagents_memory_retrievals_total",
			Help: "Total persona memory retrievals",
		},
		[]string{"persona", "status"},
	)

	// Database metrics
	DBQueries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tradingagents_db_queries_total",
			Help: "Total number of database queries",
		},
		[]string{"operation", "status"},
	)
)

// Init registers all metrics with the default registry.
// Call once at startup.
func Init() {
	prometheus.MustRegister(Dispatches)
	prometheus.MustRegister(DispatchLatency)
	prometheus.MustRegister(DispatchTokens)
	prometheus.MustRegister(StageDuration)
	prometheus.MustRegister(Decisions)
	prometheus.MustRegister(RunFailures)
	prometheus.MustRegister(MemoryRetrievals)
	prometheus.MustRegister(DBQueries)
}

// Handler returns the HTTP handler exposing the metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveStage records one stage execution.
func ObserveStage(stage string, start time.Time) {
	StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}
