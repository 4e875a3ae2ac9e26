// Package metrics provides Prometheus metrics for sync runs and the HTTP server.
//
// Sync metrics:
//   - sync_runs_total: Counter with a result label (success, no_data, cancelled, error)
//   - sync_tables_total: Counter with an outcome label, one increment per table per run
//   - sync_duration_seconds: Histogram of complete run durations
//   - sync_last_success_timestamp_seconds: Gauge, unix time of the last run that wrote db.json
//
// HTTP metrics:
//   - http_request_total: Counter with method, path, and status labels
//   - http_request_duration_seconds: Histogram with method and path labels
//   - http_request_in_flight: Gauge for concurrent requests
//
// All metrics are registered with the Prometheus default registry during package initialization.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Run results
const (
	RunSuccess   = "success"
	RunNoData    = "no_data"
	RunCancelled = "cancelled"
	RunError     = "error"
)

// Table outcomes
const (
	TableSynced     = "synced"
	TableEmpty      = "empty"
	TableFetchError = "fetch_error"
	TableParseError = "parse_error"
	TableWriteError = "write_error"
)

var (
	SyncRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sync_runs_total",
			Help: "Total sync runs by result",
		},
		[]string{"result"},
	)

	SyncTablesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sync_tables_total",
			Help: "Total tables processed by outcome",
		},
		[]string{"outcome"},
	)

	SyncDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sync_duration_seconds",
			Help:    "Duration of complete sync runs",
			Buckets: []float64{.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
	)

	SyncLastSuccess = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "sync_last_success_timestamp_seconds",
			Help: "Unix time of the last run that produced data",
		},
	)

	HTTPRequestTotals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_request_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method", "path"},
	)

	HTTPRequestInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_request_in_flight",
			Help: "Current in-flight requests",
		},
	)

	RateLimiterBucketsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "rate_limiter_buckets_total",
			Help: "Total number of rate limiter buckets (IPs seen in last ~5 minutes)",
		},
	)
)

func init() {
	prometheus.MustRegister(SyncRunsTotal)
	prometheus.MustRegister(SyncTablesTotal)
	prometheus.MustRegister(SyncDuration)
	prometheus.MustRegister(SyncLastSuccess)
	prometheus.MustRegister(HTTPRequestTotals)
	prometheus.MustRegister(HTTPRequestDuration)
	prometheus.MustRegister(HTTPRequestInFlight)
	prometheus.MustRegister(RateLimiterBucketsTotal)
}
