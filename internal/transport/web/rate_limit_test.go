package web

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetIPWithTrustedProxies(t *testing.T) {
	trusted := []string{"10.0.0.1"}

	tests := []struct {
		name           string
		remoteAddr     string
		xForwardedFor  string
		xRealIP        string
		trustedProxies []string
		expectedIP     string
	}{
		{name: "Direct connection", remoteAddr: "192.168.1.100:12345", expectedIP: "192.168.1.100"},
		{name: "No port in RemoteAddr", remoteAddr: "192.168.1.1", expectedIP: "192.168.1.1"},
		{name: "IPv6", remoteAddr: "[2001:db8::1]:12345", expectedIP: "2001:db8::1"},
		{
			name:          "Forwarded header ignored without trusted proxies",
			remoteAddr:    "10.0.0.1:8080",
			xForwardedFor: "203.0.113.45",
			expectedIP:    "10.0.0.1",
		},
		{
			name:           "Forwarded header from trusted proxy",
			remoteAddr:     "10.0.0.1:8080",
			xForwardedFor:  "203.0.113.45",
			trustedProxies: trusted,
			expectedIP:     "203.0.113.45",
		},
		{
			name:           "First entry of the forwarded chain",
			remoteAddr:     "10.0.0.1:8080",
			xForwardedFor:  " 203.0.113.45 , 198.51.100.20, 192.0.2.30",
			trustedProxies: trusted,
			expectedIP:     "203.0.113.45",
		},
		{
			name:           "X-Real-IP from trusted proxy",
			remoteAddr:     "10.0.0.1:8080",
			xRealIP:        "203.0.113.45",
			trustedProxies: trusted,
			expectedIP:     "203.0.113.45",
		},
		{
			name:           "X-Forwarded-For wins over X-Real-IP",
			remoteAddr:     "10.0.0.1:8080",
			xForwardedFor:  "203.0.113.45",
			xRealIP:        "198.51.100.20",
			trustedProxies: trusted,
			expectedIP:     "203.0.113.45",
		},
		{
			name:           "Invalid forwarded IP falls back to X-Real-IP",
			remoteAddr:     "10.0.0.1:8080",
			xForwardedFor:  "not-an-ip",
			xRealIP:        "203.0.113.45",
			trustedProxies: trusted,
			expectedIP:     "203.0.113.45",
		},
		{
			name:           "Invalid headers fall back to RemoteAddr",
			remoteAddr:     "10.0.0.1:8080",
			xForwardedFor:  "not-an-ip",
			trustedProxies: trusted,
			expectedIP:     "10.0.0.1",
		},
		{
			name:           "Untrusted source cannot spoof",
			remoteAddr:     "99.99.99.99:8080",
			xForwardedFor:  "203.0.113.45",
			trustedProxies: trusted,
			expectedIP:     "99.99.99.99",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "http://example.com", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.xForwardedFor != "" {
				req.Header.Set("X-Forwarded-For", tt.xForwardedFor)
			}
			if tt.xRealIP != "" {
				req.Header.Set("X-Real-IP", tt.xRealIP)
			}

			assert.Equal(t, tt.expectedIP, getIPWithTrustedProxies(req, tt.trustedProxies))
		})
	}
}

func TestHashIP(t *testing.T) {
	assert.Equal(t, hashIP("192.168.1.1"), hashIP("192.168.1.1"))
	assert.NotEqual(t, hashIP("192.168.1.1"), hashIP("192.168.1.2"))
	assert.Len(t, hashIP("203.0.113.45"), 64)
}

func TestRateLimiter_BurstPerVisitor(t *testing.T) {
	rl := NewRateLimiter(context.Background(), 0.001, 2)
	defer rl.Stop()

	assert.True(t, rl.Allow("a"))
	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"), "burst exhausted")
	assert.True(t, rl.Allow("b"), "visitors have their own bucket")
}

func TestRateLimiter_PruneIdleVisitors(t *testing.T) {
	rl := NewRateLimiter(context.Background(), 1, 1)
	defer rl.Stop()

	rl.Allow("idle")
	rl.Allow("active")
	rl.mu.Lock()
	rl.visitors["idle"].lastSeen = time.Now().Add(-time.Hour)
	rl.mu.Unlock()

	rl.prune(time.Now())

	rl.mu.Lock()
	defer rl.mu.Unlock()
	assert.NotContains(t, rl.visitors, "idle")
	assert.Contains(t, rl.visitors, "active")
}

func TestSendRateLimitError(t *testing.T) {
	rec := httptest.NewRecorder()
	sendRateLimitErrorAdvanced(rec, "slow down", 30)

	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "30", rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), `"rate_limit_exceeded"`)
}
