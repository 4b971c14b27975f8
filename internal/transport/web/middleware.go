package web

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/BinaryAlley/Lyrida-sub002/internal/authz"
	"github.com/BinaryAlley/Lyrida-sub002/internal/config"
	"github.com/BinaryAlley/Lyrida-sub002/internal/domain"
	"github.com/BinaryAlley/Lyrida-sub002/internal/metrics"
	"github.com/google/uuid"
)

const (
	bearerPrefix    = "Bearer "
	RequestIDHeader = "X-Request-ID"
)

// RequestID generates unique request ID / Génère un ID unique pour la requête
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}

		ctx := context.WithValue(r.Context(), requestIDContextKey, requestID)
		w.Header().Set(RequestIDHeader, requestID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Logging logs HTTP requests and prevents token leaks / Enregistre les requêtes et prévient les fuites
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		if strings.Contains(r.URL.RawQuery, "access_token=") ||
			strings.Contains(r.URL.RawQuery, bearerPrefix) {
			slog.Error("🚨 TOKEN LEAK DETECTED", "path", r.URL.Path, "ip", r.RemoteAddr)
			ErrorResponse(w, "forbidden", http.StatusForbidden)
			return
		}

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		slog.Info("request",
			"request_id", GetRequestID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"status", rw.statusCode,
			"remote", r.RemoteAddr,
			"duration", time.Since(start),
		)
	})
}

// MetricsMiddleware tracks HTTP request metrics / Suit les métriques des requêtes HTTP
func (m *Middleware) MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		m.metrics.IncrementActiveConnections()
		defer m.metrics.DecrementActiveConnections()

		rw := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(rw, r)

		// The mux fills r.Pattern; the route pattern keeps label cardinality bounded.
		path := r.Pattern
		if path == "" {
			path = "unmatched"
		}
		m.metrics.RecordHTTPRequest(r.Method, path, rw.statusCode)
		m.metrics.RecordHTTPDuration(r.Method, path, time.Since(start))
	})
}

// Timeout adds request timeout / Ajoute un timeout aux requêtes
func Timeout(duration time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, duration, `{"error":"request timeout"}`)
	}
}

// Middleware holds middleware configuration and dependencies / Contient la configuration middleware
type Middleware struct {
	conf          *config.Config
	globalLimiter *RateLimiter
	strictLimiter *RateLimiter
	userLimiter   *RateLimiter
	metrics       *metrics.Metrics
	tokens        *authz.TokenIssuer
	resolver      *authz.Resolver
	gate          *authz.Gate
}

// responseWriter wraps ResponseWriter to capture status / Encapsule ResponseWriter pour capturer le statut
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

// WriteHeader captures status code / Capture le code de statut
func (rw *responseWriter) WriteHeader(code int) {
	if !rw.written {
		rw.statusCode = code
		rw.written = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	rw.written = true
	return rw.ResponseWriter.Write(b)
}

// NewMiddleware creates middleware with rate limiters / Crée le middleware avec limiteurs
func NewMiddleware(ctx context.Context, conf *config.Config, m *metrics.Metrics, tokens *authz.TokenIssuer, resolver *authz.Resolver, gate *authz.Gate) *Middleware {
	mw := &Middleware{
		conf:     conf,
		metrics:  m,
		tokens:   tokens,
		resolver: resolver,
		gate:     gate,
	}

	if conf.RateLimiter.Enabled {
		mw.globalLimiter = NewRateLimiter(ctx, conf.RateLimiter.RPS, conf.RateLimiter.Burst)

		strictRPS := conf.RateLimiter.RPS
		strictBurst := conf.RateLimiter.Burst

		if conf.IsProduction() {
			strictRPS = strictRPS / 2
			if strictBurst > 2 {
				strictBurst = strictBurst / 2
			}
		}
		mw.strictLimiter = NewRateLimiter(ctx, strictRPS, strictBurst)

		mw.userLimiter = NewRateLimiter(ctx, conf.RateLimiter.RPS*2, conf.RateLimiter.Burst*2)
	}

	return mw
}

// Stop stops the limiters' cleanup goroutines.
func (m *Middleware) Stop() {
	for _, rl := range []*RateLimiter{m.globalLimiter, m.strictLimiter, m.userLimiter} {
		if rl != nil {
			rl.Stop()
		}
	}
}

// Auth validates the bearer token and resolves the caller's permissions into
// the request context / Valide le token et résout les permissions de l'appelant
func (m *Middleware) Auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authorization := r.Header.Get("Authorization")
		if !strings.HasPrefix(authorization, bearerPrefix) {
			ErrorResponse(w, "authentication required", http.StatusUnauthorized)
			return
		}

		claims, err := m.tokens.Parse(strings.TrimPrefix(authorization, bearerPrefix))
		if err != nil {
			m.metrics.RecordInvalidToken()
			ErrorResponse(w, "invalid token", http.StatusUnauthorized)
			return
		}

		userID, err := claims.UserID()
		if err != nil {
			slog.Error("Failed to parse user ID from token", "subject", claims.Subject, "error", err)
			m.metrics.RecordInvalidToken()
			ErrorResponse(w, "invalid token", http.StatusUnauthorized)
			return
		}

		// Permissions are read again on every request so revocations apply at once
		resolved := m.resolver.Resolve(r.Context(), userID)
		principal, ok := resolved.Value()
		if !ok {
			writeErrors(w, r, resolved.Errors())
			return
		}

		next.ServeHTTP(w, r.WithContext(authz.WithPrincipal(r.Context(), principal)))
	})
}

// RequirePermission checks user permission / Vérifie la permission de l'utilisateur
func (m *Middleware) RequirePermission(permission domain.PermissionName) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if allowed := m.gate.Require(r.Context(), permission); allowed.IsErr() {
				slog.Warn("Permission denied",
					"permission", permission,
					"path", r.URL.Path,
					"method", r.Method,
				)
				writeErrors(w, r, allowed.Errors())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// SecurityHeaders adds security headers / Ajoute les en-têtes de sécurité
func (m *Middleware) SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// JSON API only: nothing may be framed or executed
		w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")

		// Prevent MIME type sniffing
		w.Header().Set("X-Content-Type-Options", "nosniff")

		// Prevent clickjacking
		w.Header().Set("X-Frame-Options", "DENY")

		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		// Strict Transport Security - Enforce HTTPS (only in production)
		if m.conf.IsProduction() {
			w.Header().Set("Strict-Transport-Security", "max-age=63072000; includeSubDomains; preload")
		}

		next.ServeHTTP(w, r)
	})
}
