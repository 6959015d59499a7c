package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Database Connection Metrics
var (
	// DBAuthAttemptsTotal tracks connection attempts by result (success/failure)
	DBAuthAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "db_auth_attempts_total",
			Help: "Total database authentication attempts by result",
		},
		[]string{"result"},
	)

	// DBAuthRetriesTotal tracks backoff retries taken after a failed attempt
	DBAuthRetriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "db_auth_retries_total",
			Help: "Total database authentication retries",
		},
	)

	// DBConnected is 1 while the connection manager holds a live pool, 0 otherwise
	DBConnected = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_connected",
			Help: "1 if the database connection is established, 0 if disconnected",
		},
	)
)

// Database Operation Metrics
var (
	// DBOperationDuration tracks query, exec, sync and transaction latency in seconds
	DBOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_operation_duration_seconds",
			Help:    "Database operation duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)

	// DBErrorsTotal tracks classified database failures by error kind
	DBErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "db_errors_total",
			Help: "Total database errors by kind",
		},
		[]string{"kind"},
	)

	// DBStatementDuration tracks per-statement latency observed by the postgres tracer
	DBStatementDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_statement_duration_seconds",
			Help:    "Database statement duration in seconds by statement verb",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"statement"},
	)
)

// HTTP Metrics
var (
	// HTTPRequestsTotal tracks HTTP requests by method, route pattern and status code
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests by method, route and status",
		},
		[]string{"method", "route", "status"},
	)

	// HTTPRequestDuration tracks HTTP request latency in seconds
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

// Error Log Metrics
var (
	// ErrorLogRecordsTotal tracks records written to the error log
	ErrorLogRecordsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "errorlog_records_total",
			Help: "Total error records written to the error log",
		},
	)

	// ErrorLogDroppedTotal tracks records dropped because the writer queue was full
	ErrorLogDroppedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "errorlog_dropped_total",
			Help: "Total error records dropped because the write queue was full",
		},
	)
)
