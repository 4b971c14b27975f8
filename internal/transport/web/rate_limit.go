package web

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/BinaryAlley/Lyrida-sub002/internal/authz"
	"golang.org/x/time/rate"
)

const (
	visitorIdleTTL  = 3 * time.Minute
	cleanupInterval = 5 * time.Minute
	retryAfter      = 60 // seconds
)

// RateLimiter keeps one token bucket per visitor key (hashed IP or user ID).
type RateLimiter struct {
	visitors map[string]*Visitor
	mu       sync.Mutex
	rate     rate.Limit
	burst    int
	cancel   context.CancelFunc
}

// Visitor is a visitor's bucket and the last time it was used.
type Visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter creates a limiter allowing rps requests per second per
// visitor. Idle visitors are dropped until ctx ends or Stop is called.
func NewRateLimiter(ctx context.Context, rps float64, burst int) *RateLimiter {
	cleanupCtx, cancel := context.WithCancel(ctx)

	rl := &RateLimiter{
		visitors: make(map[string]*Visitor),
		rate:     rate.Limit(rps),
		burst:    burst,
		cancel:   cancel,
	}
	go rl.cleanupVisitors(cleanupCtx)
	return rl
}

// Stop ends the cleanup goroutine / Arrête la goroutine de nettoyage
func (rl *RateLimiter) Stop() {
	rl.cancel()
}

// getVisitor returns the bucket of key, creating it on first use.
func (rl *RateLimiter) getVisitor(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, exists := rl.visitors[key]
	if !exists {
		v = &Visitor{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.visitors[key] = v
	}
	v.lastSeen = time.Now()
	return v.limiter
}

// Allow reports whether key may make one more request now.
func (rl *RateLimiter) Allow(key string) bool {
	return rl.getVisitor(key).Allow()
}

func (rl *RateLimiter) cleanupVisitors(ctx context.Context) {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.prune(time.Now())
		case <-ctx.Done():
			return
		}
	}
}

// prune drops the visitors idle since before now - visitorIdleTTL.
func (rl *RateLimiter) prune(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for key, v := range rl.visitors {
		if now.Sub(v.lastSeen) > visitorIdleTTL {
			delete(rl.visitors, key)
		}
	}
}

// getIPWithTrustedProxies extracts the client IP. Proxy headers are only
// believed when RemoteAddr is one of trustedProxies; X-Forwarded-For wins
// over X-Real-IP and only its first (client) entry is used.
func getIPWithTrustedProxies(r *http.Request, trustedProxies []string) string {
	remoteIP, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		remoteIP = r.RemoteAddr // no port
	}

	if !slices.Contains(trustedProxies, remoteIP) {
		return remoteIP
	}

	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		clientIP, _, _ := strings.Cut(forwarded, ",")
		clientIP = strings.TrimSpace(clientIP)
		if net.ParseIP(clientIP) != nil {
			return clientIP
		}
	}

	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); net.ParseIP(realIP) != nil {
		return realIP
	}

	return remoteIP
}

// hashIP keys limiters by SHA-256 of the IP so raw addresses are never kept.
func hashIP(ip string) string {
	h := sha256.Sum256([]byte(ip))
	return hex.EncodeToString(h[:])
}

// limitBy rejects the request with 429 when key has no token left in rl.
func (mw *Middleware) limitBy(rl *RateLimiter, key, label string, w http.ResponseWriter) bool {
	if rl.Allow(key) {
		return true
	}
	mw.metrics.RecordRateLimitHit(label)
	sendRateLimitErrorAdvanced(w, "Too many requests. Please try again later.", retryAfter)
	return false
}

func (mw *Middleware) clientKey(r *http.Request) string {
	return hashIP(getIPWithTrustedProxies(r, mw.conf.RateLimiter.TrustedProxies))
}

// RateLimit applies the global per-IP limit / Applique la limite globale par IP
func (mw *Middleware) RateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !mw.conf.RateLimiter.Enabled || mw.limitBy(mw.globalLimiter, mw.clientKey(r), "global", w) {
			next.ServeHTTP(w, r)
		}
	})
}

// RateLimitStrict applies the stricter per-IP limit of the credential
// endpoints (register, login).
func (mw *Middleware) RateLimitStrict(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !mw.conf.RateLimiter.Enabled || mw.limitBy(mw.strictLimiter, mw.clientKey(r), "strict", w) {
			next.ServeHTTP(w, r)
		}
	})
}

// RateLimitByUser applies rate limit per user / Applique une limite de taux par utilisateur
// Callers without a principal are keyed by IP.
func (mw *Middleware) RateLimitByUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !mw.conf.RateLimiter.Enabled {
			next.ServeHTTP(w, r)
			return
		}

		key, label := mw.clientKey(r), "user_ip"
		if principal, ok := authz.PrincipalFrom(r.Context()); ok {
			key, label = "user_"+strconv.FormatInt(principal.UserID, 10), "user_authenticated"
		}
		if mw.limitBy(mw.userLimiter, key, label, w) {
			next.ServeHTTP(w, r)
		}
	})
}

// RateLimitErrorResponse is the body of a 429 answer.
type RateLimitErrorResponse struct {
	Error      string    `json:"error"`
	Message    string    `json:"message"`
	Code       int       `json:"code"`
	RetryAfter int       `json:"retry_after_seconds"`
	Timestamp  time.Time `json:"timestamp"`
}

// sendRateLimitErrorAdvanced writes 429 with Retry-After headers and a JSON body.
func sendRateLimitErrorAdvanced(w http.ResponseWriter, message string, retryAfter int) {
	seconds := strconv.Itoa(retryAfter)
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-RateLimit-Retry-After", seconds)
	w.Header().Set("Retry-After", seconds)
	w.WriteHeader(http.StatusTooManyRequests)

	json.NewEncoder(w).Encode(RateLimitErrorResponse{
		Error:      "rate_limit_exceeded",
		Message:    message,
		Code:       http.StatusTooManyRequests,
		RetryAfter: retryAfter,
		Timestamp:  time.Now().UTC(),
	})
}
