package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP Metrics
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Current number of HTTP requests being processed",
		},
	)

	// Store Metrics
	StoreOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "store_operation_duration_seconds",
			Help:    "Time spent loading or saving a JSON collection file",
			Buckets: []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"store", "operation", "status"},
	)

	StoreLoadFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_load_failures_total",
			Help: "Total number of collection loads that found a corrupt file and recovered with an empty collection",
		},
		[]string{"store"},
	)

	// Authentication Metrics
	LoginAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "login_attempts_total",
			Help: "Total number of login attempts",
		},
		[]string{"status"}, // success, failed
	)

	RegistrationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "registrations_total",
			Help: "Total number of user registrations",
		},
	)

	TokenVerificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "token_verifications_total",
			Help: "Total number of bearer token verifications",
		},
		[]string{"status"}, // valid, missing, invalid
	)

	AdminAuthFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "admin_auth_failures_total",
			Help: "Total number of rejected admin key checks",
		},
	)

	// Request Workflow Metrics
	RequestsSubmitted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "requests_submitted_total",
			Help: "Total number of customer requests submitted",
		},
	)

	RequestStatusUpdates = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "request_status_updates_total",
			Help: "Total number of request status changes by new status",
		},
		[]string{"status"},
	)

	// Rate Limiting Metrics
	RateLimitExceeded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limit_exceeded_total",
			Help: "Total number of rate limit violations",
		},
		[]string{"endpoint"},
	)

	// Error Metrics
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "errors_total",
			Help: "Total number of errors by type",
		},
		[]string{"type", "code"},
	)

	// System Metrics
	SystemInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "system_info",
			Help: "System information",
		},
		[]string{"version", "go_version", "start_time"},
	)
)

// Store Helpers
func RecordStoreOperation(store, operation string, duration float64, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	StoreOperationDuration.WithLabelValues(store, operation, status).Observe(duration)
}

func IncrementStoreLoadFailures(store string) {
	StoreLoadFailures.WithLabelValues(store).Inc()
}

// Auth Helpers
func RecordLoginAttempt(success bool) {
	status := "success"
	if !success {
		status = "failed"
	}
	LoginAttemptsTotal.WithLabelValues(status).Inc()
}

func IncrementRegistrations() {
	RegistrationsTotal.Inc()
}

func RecordTokenVerification(status string) {
	TokenVerificationsTotal.WithLabelValues(status).Inc()
}

func IncrementAdminAuthFailures() {
	AdminAuthFailures.Inc()
}

// Request Workflow Helpers
func IncrementRequestsSubmitted() {
	RequestsSubmitted.Inc()
}

func RecordStatusUpdate(status string) {
	RequestStatusUpdates.WithLabelValues(status).Inc()
}

// Rate Limiting Helpers
func IncrementRateLimitExceeded(endpoint string) {
	RateLimitExceeded.WithLabelValues(sanitizePath(endpoint)).Inc()
}

// Error Helpers
func RecordError(errorType, errorCode string) {
	ErrorsTotal.WithLabelValues(errorType, errorCode).Inc()
}
