package observability

import (
	"database/sql"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clipquery_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)
	httpRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "clipquery_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"method", "route", "status"},
	)

	analyzeRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clipquery_analyze_requests_total",
			Help: "Total number of analyze requests by terminal outcome.",
		},
		[]string{"outcome"},
	)
	generationFallbackTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clipquery_generation_fallback_total",
			Help: "Total number of SQL generations that degraded to the fallback statement.",
		},
		[]string{"reason"},
	)
	generationLatencyMs = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "clipquery_generation_latency_ms",
			Help:    "Latency of natural-language to SQL translation in milliseconds.",
			Buckets: []float64{50, 100, 250, 500, 1000, 2000, 5000, 10000, 30000},
		},
	)
	executionLatencyMs = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "clipquery_execution_latency_ms",
			Help:    "Latency of generated statement execution in milliseconds, including connection acquisition.",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 5000, 15000},
		},
	)
	nullResultsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "clipquery_null_results_total",
			Help: "Total number of executions whose scalar was NULL or absent and coerced to zero.",
		},
	)
	ingestRowsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clipquery_ingest_rows_total",
			Help: "Total number of rows copied into the store by the loader.",
		},
		[]string{"table"},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpRequestDurationSeconds,
		analyzeRequestsTotal,
		generationFallbackTotal,
		generationLatencyMs,
		executionLatencyMs,
		nullResultsTotal,
		ingestRowsTotal,
	)
}

func ObserveAnalyze(outcome string) {
	analyzeRequestsTotal.WithLabelValues(outcome).Inc()
}

func ObserveGeneration(elapsed time.Duration, fallbackReason string) {
	generationLatencyMs.Observe(float64(elapsed.Milliseconds()))
	if fallbackReason != "" {
		generationFallbackTotal.WithLabelValues(fallbackReason).Inc()
	}
}

func ObserveExecution(elapsed time.Duration) {
	executionLatencyMs.Observe(float64(elapsed.Milliseconds()))
}

func IncrementNullResult() {
	nullResultsTotal.Inc()
}

func AddIngestRows(table string, rows int64) {
	if rows <= 0 {
		return
	}
	ingestRowsTotal.WithLabelValues(table).Add(float64(rows))
}

// RegisterDBStats exposes database/sql pool statistics under db_name.
// Registering the same name twice is a no-op.
func RegisterDBStats(db *sql.DB, dbName string) error {
	if db == nil {
		return nil
	}
	err := prometheus.Register(collectors.NewDBStatsCollector(db, dbName))
	var already prometheus.AlreadyRegisteredError
	if errors.As(err, &already) {
		return nil
	}
	return err
}
