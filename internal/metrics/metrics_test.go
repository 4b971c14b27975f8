package metrics_test

import (
	"strings"
	"testing"
	"time"

	"github.com/BinaryAlley/Lyrida-sub002/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNewMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewMetrics(reg)
	assert.NotNil(t, m)
	assert.NotNil(t, m.DispatchRequests)
	assert.NotNil(t, m.StorageCalls)
	assert.NotNil(t, m.HTTPRequestsTotal)
	assert.NotNil(t, m.DatabaseConnections)
}

func TestRecordDispatch(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewMetrics(reg)
	m.RecordDispatch("GetPagesQuery", "ok", 20*time.Millisecond)
	m.RecordDispatch("GetPagesQuery", "ok", 30*time.Millisecond)
	m.RecordDispatch("DeletePageCommand", "unauthorized", time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.DispatchRequests.WithLabelValues("GetPagesQuery", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DispatchRequests.WithLabelValues("DeletePageCommand", "unauthorized")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.DispatchDuration))
}

func TestRecordStorageCall(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewMetrics(reg)
	m.RecordStorageCall("pages", "select", "ok", time.Millisecond)
	m.RecordStorageCall("pages", "insert", "rejected", time.Millisecond)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StorageCalls.WithLabelValues("pages", "select", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StorageCalls.WithLabelValues("pages", "insert", "rejected")))
}

func TestRecordLoginAttempt(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewMetrics(reg)
	m.RecordLoginAttempt("success")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LoginAttempts.WithLabelValues("success")))
	m.RecordLoginAttempt("failure")
	m.RecordLoginAttempt("failure")
	assert.Equal(t, 2.0, testutil.ToFloat64(m.LoginAttempts.WithLabelValues("failure")))
}

func TestRecordRegistrationAndInvalidToken(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewMetrics(reg)
	m.RecordRegistration()
	m.RecordInvalidToken()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RegistrationTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.InvalidTokens))
}

func TestRecordHTTPRequest(t *testing.T) {
	tests := []struct {
		code  int
		label string
	}{
		{200, "200"},
		{409, "409"},
		{422, "422"},
		{302, "3xx"},
		{418, "4xx"},
		{504, "5xx"},
		{99, "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			reg := prometheus.NewRegistry()
			m := metrics.NewMetrics(reg)
			m.RecordHTTPRequest("GET", "/test", tt.code)
			assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/test", tt.label)))
		})
	}
}

func TestRecordHTTPDuration(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewMetrics(reg)
	m.RecordHTTPDuration("GET", "/test", 1*time.Second)

	expected := `
# HELP http_request_duration_seconds HTTP request latency in seconds
# TYPE http_request_duration_seconds histogram
http_request_duration_seconds_bucket{method="GET",path="/test",le="0.01"} 0
http_request_duration_seconds_bucket{method="GET",path="/test",le="0.05"} 0
http_request_duration_seconds_bucket{method="GET",path="/test",le="0.1"} 0
http_request_duration_seconds_bucket{method="GET",path="/test",le="0.25"} 0
http_request_duration_seconds_bucket{method="GET",path="/test",le="0.5"} 0
http_request_duration_seconds_bucket{method="GET",path="/test",le="1"} 1
http_request_duration_seconds_bucket{method="GET",path="/test",le="2.5"} 1
http_request_duration_seconds_bucket{method="GET",path="/test",le="5"} 1
http_request_duration_seconds_bucket{method="GET",path="/test",le="10"} 1
http_request_duration_seconds_bucket{method="GET",path="/test",le="+Inf"} 1
http_request_duration_seconds_sum{method="GET",path="/test"} 1
http_request_duration_seconds_count{method="GET",path="/test"} 1
`
	err := testutil.CollectAndCompare(m.HTTPRequestDuration, strings.NewReader(expected), "http_request_duration_seconds")
	assert.NoError(t, err)
}

func TestIncrementDecrementActiveConnections(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewMetrics(reg)
	m.IncrementActiveConnections()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ActiveConnections))
	m.DecrementActiveConnections()
	assert.Equal(t, 0.0, testutil.ToFloat64(m.ActiveConnections))
}

func TestRecordRateLimitHit(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewMetrics(reg)
	m.RecordRateLimitHit("/api/login")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RateLimitHits.WithLabelValues("/api/login")))
}

func TestRecordPermissionDenial(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewMetrics(reg)
	m.RecordPermissionDenial("roles:manage")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PermissionDenials.WithLabelValues("roles:manage")))
}

func TestRecordAuditFailure(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewMetrics(reg)
	m.RecordAuditFailure("redis")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AuditFailures.WithLabelValues("redis")))
}

func TestUpdateDatabaseConnections(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewMetrics(reg)
	m.UpdateDatabaseConnections(10)
	assert.Equal(t, 10.0, testutil.ToFloat64(m.DatabaseConnections))
}

func TestSetBackgroundTaskStatus(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewMetrics(reg)
	m.SetBackgroundTaskStatus("backup", true)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BackgroundTasks.WithLabelValues("backup")))
	m.SetBackgroundTaskStatus("backup", false)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.BackgroundTasks.WithLabelValues("backup")))
}
