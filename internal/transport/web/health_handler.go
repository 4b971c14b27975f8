package web

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// HealthResponse represents the response structure for health check endpoints.
type HealthResponse struct {
	Status    string            `json:"status"`           // "ok" or "error"
	Timestamp time.Time         `json:"timestamp"`        // Current server time
	Checks    map[string]string `json:"checks,omitempty"` // Individual component health
	Uptime    string            `json:"uptime,omitempty"`
}

var startTime = time.Now()

// HealthCheck handles the /health endpoint.
// It answers 200 while the process runs and does NOT check dependencies;
// use /readiness for that.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC(),
		Uptime:    formatUptime(time.Since(startTime)),
	})
}

// ReadinessCheck handles the /readiness endpoint.
// Returns 200 when the storage medium answers, 503 otherwise.
func (h *Handler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{
		"storage_type": h.container.StorageType(),
		"storage":      h.checkStorage(r.Context()),
	}

	response := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC(),
		Checks:    checks,
	}
	status := http.StatusOK
	if checks["storage"] != "ok" {
		response.Status = "error"
		status = http.StatusServiceUnavailable
	}

	jsonResponse(w, status, response)
}

// checkStorage pings the storage medium with a short deadline.
func (h *Handler) checkStorage(ctx context.Context) string {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := h.container.Ping(ctx); err != nil {
		slog.Warn("readiness: storage unreachable", "error", err)
		return "error"
	}
	return "ok"
}

// formatUptime renders d as e.g. "1d 5h 23m", "2h 15m 30s" or "45s".
func formatUptime(d time.Duration) string {
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh %dm", days, hours, minutes)
	case hours > 0:
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	case minutes > 0:
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	default:
		return fmt.Sprintf("%ds", seconds)
	}
}
