package web

import (
	"context"
	"net/http"
	"time"

	"github.com/BinaryAlley/Lyrida-sub002/internal/app"
	"github.com/BinaryAlley/Lyrida-sub002/internal/domain"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// requestTimeout bounds every request / Durée maximale d'une requête
const requestTimeout = 30 * time.Second

// NewMux creates and configures the HTTP router / Crée et configure le routeur HTTP
// The rate limiters stop when ctx ends.
func NewMux(ctx context.Context, h *Handler, container *app.Container) http.Handler {
	mux := http.NewServeMux()
	mw := NewMiddleware(ctx, container.Config, container.Metrics, container.Tokens, container.Resolver, container.Gate)

	// Health check endpoints (no auth, no rate limiting for load balancers)
	mux.HandleFunc("GET /health", h.HealthCheck)
	mux.HandleFunc("GET /readiness", h.ReadinessCheck)

	// Internal metrics are for operators only
	mux.Handle("GET /metrics", chain(promhttp.Handler().ServeHTTP,
		mw.Auth, mw.RequirePermission(domain.PermissionUsersRead)))

	// Public credential endpoints
	mux.Handle("POST /api/register", chain(h.Register, mw.RateLimitStrict))
	mux.Handle("POST /api/login", chain(h.Login, mw.RateLimitStrict))

	// Protected user endpoints
	user := func(f http.HandlerFunc) http.Handler { return chain(f, mw.Auth, mw.RateLimitByUser) }

	mux.Handle("GET /api/me", user(h.Me))
	mux.Handle("GET /api/me/permissions", user(h.MyPermissions))
	mux.Handle("PUT /api/me/password", chain(h.ChangePassword, mw.Auth, mw.RateLimitStrict))

	mux.Handle("GET /api/pages", user(h.ListPages))
	mux.Handle("POST /api/pages", user(h.CreatePage))
	mux.Handle("GET /api/pages/{id}", user(h.GetPage))
	mux.Handle("PUT /api/pages/{id}", user(h.UpdatePage))
	mux.Handle("DELETE /api/pages/{id}", user(h.DeletePage))

	mux.Handle("GET /api/environments", user(h.ListEnvironments))
	mux.Handle("POST /api/environments", user(h.CreateEnvironment))
	mux.Handle("PUT /api/environments/{id}", user(h.UpdateEnvironment))
	mux.Handle("DELETE /api/environments/{id}", user(h.DeleteEnvironment))

	mux.Handle("GET /api/preferences", user(h.GetPreferences))
	mux.Handle("PUT /api/preferences", user(h.UpdatePreferences))

	// Admin endpoints: the handlers check the granular permissions themselves
	mux.Handle("GET /api/admin/users", user(h.ListUsers))
	mux.Handle("DELETE /api/admin/users/{id}", user(h.DeleteUser))
	mux.Handle("POST /api/admin/users/{id}/verify", user(h.VerifyUser))
	mux.Handle("PUT /api/admin/users/{id}/role", user(h.SetUserRole))
	mux.Handle("GET /api/admin/users/{id}/permissions", user(h.UserPermissions))
	mux.Handle("PUT /api/admin/users/{id}/permissions/{permission}", user(h.GrantUserPermission))
	mux.Handle("DELETE /api/admin/users/{id}/permissions/{permission}", user(h.RevokeUserPermission))

	mux.Handle("GET /api/admin/roles", user(h.ListRoles))
	mux.Handle("POST /api/admin/roles", user(h.CreateRole))
	mux.Handle("DELETE /api/admin/roles/{id}", user(h.DeleteRole))
	mux.Handle("PUT /api/admin/roles/{id}/permissions/{permission}", user(h.GrantRolePermission))
	mux.Handle("DELETE /api/admin/roles/{id}/permissions/{permission}", user(h.RevokeRolePermission))
	mux.Handle("GET /api/admin/permissions", user(h.ListPermissions))
	mux.Handle("GET /api/admin/audit", user(h.AuditTrail))

	// Global middlewares - applied in reverse order / Middlewares globaux appliqués en ordre inverse
	var handler http.Handler = mux
	handler = mw.RateLimit(handler)
	handler = mw.SecurityHeaders(handler)
	handler = mw.MetricsMiddleware(handler) // reads the pattern the mux matched
	handler = Timeout(requestTimeout)(handler)
	handler = Logging(handler)   // Logging includes request ID
	handler = RequestID(handler) // RequestID first - generates ID for all middleware

	return handler
}

// chain applies middleware to HTTP handler / Applique les middlewares au gestionnaire HTTP
func chain(f http.HandlerFunc, middlewares ...func(http.Handler) http.Handler) http.Handler {
	var handler http.Handler = f

	for i := len(middlewares) - 1; i >= 0; i-- {
		handler = middlewares[i](handler)
	}

	return handler
}
