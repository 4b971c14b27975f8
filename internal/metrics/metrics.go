// Package metrics holds the Prometheus collectors of the service.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metric collectors / Contient tous les collecteurs de métriques Prometheus
type Metrics struct {
	// Dispatch metrics
	DispatchRequests *prometheus.CounterVec   // Dispatched requests by request type and outcome
	DispatchDuration *prometheus.HistogramVec // Pipeline latency by request type

	// Storage metrics
	StorageCalls    *prometheus.CounterVec   // Storage calls by container, operation and outcome
	StorageDuration *prometheus.HistogramVec // Storage call latency

	// Authentication metrics
	LoginAttempts     *prometheus.CounterVec // Login attempts by status
	RegistrationTotal prometheus.Counter     // Registered users
	InvalidTokens     prometheus.Counter     // Rejected access tokens

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	ActiveConnections   prometheus.Gauge

	// Security metrics
	RateLimitHits     *prometheus.CounterVec // Rate limit violations by endpoint
	PermissionDenials *prometheus.CounterVec // Refused permission checks by permission

	// Audit
	AuditFailures *prometheus.CounterVec // Audit entries a sink failed to store

	// System metrics
	DatabaseConnections prometheus.Gauge
	BackgroundTasks     *prometheus.GaugeVec // 1=running, 0=stopped
}

// latencyBuckets cover 1ms to 10s.
var latencyBuckets = []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

// NewMetrics initializes Metrics instance / Initialise une instance Metrics
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		DispatchRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dispatch_requests_total",
				Help: "Total number of dispatched requests by request type and outcome",
			},
			[]string{"request", "outcome"},
		),
		DispatchDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dispatch_request_duration_seconds",
				Help:    "Time spent in the request pipeline in seconds",
				Buckets: latencyBuckets,
			},
			[]string{"request"},
		),

		StorageCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "storage_calls_total",
				Help: "Total number of storage medium calls by container, operation and outcome",
			},
			[]string{"container", "operation", "outcome"},
		),
		StorageDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "storage_call_duration_seconds",
				Help:    "Storage medium call latency in seconds",
				Buckets: latencyBuckets,
			},
			[]string{"container", "operation"},
		),

		LoginAttempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auth_login_attempts_total",
				Help: "Total number of login attempts by status (success, failure, unverified)",
			},
			[]string{"status"},
		),
		RegistrationTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "auth_registrations_total",
				Help: "Total number of user registrations",
			},
		),
		InvalidTokens: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "auth_invalid_tokens_total",
				Help: "Total number of invalid or expired access tokens",
			},
		),

		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests by method, path, and status code",
			},
			[]string{"method", "path", "status_code"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		ActiveConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_active_connections",
				Help: "Current number of active HTTP connections",
			},
		),

		RateLimitHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "security_rate_limit_hits_total",
				Help: "Total number of rate limit violations by endpoint",
			},
			[]string{"endpoint"},
		),
		PermissionDenials: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "authz_permission_denials_total",
				Help: "Total number of refused permission checks by permission",
			},
			[]string{"permission"},
		),

		AuditFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "audit_write_failures_total",
				Help: "Total number of audit entries a sink failed to store",
			},
			[]string{"sink"},
		),

		DatabaseConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "database_connections_active",
				Help: "Current number of open database connections",
			},
		),
		BackgroundTasks: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "background_tasks_status",
				Help: "Status of background tasks (1=running, 0=stopped)",
			},
			[]string{"task_name"},
		),
	}
}

// RecordDispatch records one pass through the request pipeline.
// Outcome is "ok" or the failing error kind.
func (m *Metrics) RecordDispatch(request, outcome string, d time.Duration) {
	m.DispatchRequests.WithLabelValues(request, outcome).Inc()
	m.DispatchDuration.WithLabelValues(request).Observe(d.Seconds())
}

// RecordStorageCall records one storage medium call.
func (m *Metrics) RecordStorageCall(container, operation, outcome string, d time.Duration) {
	m.StorageCalls.WithLabelValues(container, operation, outcome).Inc()
	m.StorageDuration.WithLabelValues(container, operation).Observe(d.Seconds())
}

// RecordLoginAttempt records a login attempt with the given status.
func (m *Metrics) RecordLoginAttempt(status string) {
	m.LoginAttempts.WithLabelValues(status).Inc()
}

// RecordRegistration increments the registration counter.
func (m *Metrics) RecordRegistration() {
	m.RegistrationTotal.Inc()
}

// RecordInvalidToken increments the invalid token counter.
func (m *Metrics) RecordInvalidToken() {
	m.InvalidTokens.Inc()
}

// RecordHTTPRequest records an HTTP request with method, path, and status code.
func (m *Metrics) RecordHTTPRequest(method, path string, statusCode int) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, statusCodeToString(statusCode)).Inc()
}

// RecordHTTPDuration records the duration of an HTTP request.
func (m *Metrics) RecordHTTPDuration(method, path string, duration time.Duration) {
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// IncrementActiveConnections increments the active connections gauge.
func (m *Metrics) IncrementActiveConnections() {
	m.ActiveConnections.Inc()
}

// DecrementActiveConnections decrements the active connections gauge.
func (m *Metrics) DecrementActiveConnections() {
	m.ActiveConnections.Dec()
}

// RecordRateLimitHit records a rate limit violation for a specific endpoint.
func (m *Metrics) RecordRateLimitHit(endpoint string) {
	m.RateLimitHits.WithLabelValues(endpoint).Inc()
}

// RecordPermissionDenial increments permission denial counter / Incrémente le compteur de refus de permission
func (m *Metrics) RecordPermissionDenial(permission string) {
	m.PermissionDenials.WithLabelValues(permission).Inc()
}

// RecordAuditFailure counts an audit entry lost by sink.
func (m *Metrics) RecordAuditFailure(sink string) {
	m.AuditFailures.WithLabelValues(sink).Inc()
}

// UpdateDatabaseConnections updates the database connections gauge.
func (m *Metrics) UpdateDatabaseConnections(count int) {
	m.DatabaseConnections.Set(float64(count))
}

// SetBackgroundTaskStatus sets the status of a background task.
func (m *Metrics) SetBackgroundTaskStatus(taskName string, running bool) {
	status := 0.0
	if running {
		status = 1.0
	}
	m.BackgroundTasks.WithLabelValues(taskName).Set(status)
}

// exactStatusCodes keep their own label; other codes are grouped by class.
var exactStatusCodes = map[int]bool{
	200: true, 201: true, 204: true,
	400: true, 401: true, 403: true, 404: true, 409: true, 422: true, 429: true,
	500: true, 503: true,
}

// statusCodeToString converts HTTP status code to string / Convertit le code de statut HTTP en chaîne
func statusCodeToString(code int) string {
	if exactStatusCodes[code] {
		return strconv.Itoa(code)
	}
	if code >= 200 && code < 600 {
		return strconv.Itoa(code/100) + "xx"
	}
	return "unknown"
}
