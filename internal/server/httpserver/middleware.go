package httpserver

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/yndnr/objhost-go/internal/core/domain"
	"github.com/yndnr/objhost-go/internal/server/httpserver/handler"
	"github.com/yndnr/objhost-go/internal/telemetry/logger"
	"github.com/yndnr/objhost-go/internal/telemetry/metric"
	"github.com/yndnr/objhost-go/pkg/cmap"
)

// Context keys for request-scoped values.
type contextKey string

// ContextKeyStartTime is the context key for request start time.
const ContextKeyStartTime contextKey = "start_time"

// HeaderRequestID carries the request ID in both directions.
const HeaderRequestID = "X-Request-ID"

// maxRequestIDLength bounds a caller-supplied request ID.
const maxRequestIDLength = 64

// Middleware wraps an http.Handler with additional functionality.
type Middleware func(http.Handler) http.Handler

// Chain chains multiple middlewares together. The first middleware is
// the outermost.
func Chain(h http.Handler, middlewares ...Middleware) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}

// RequestID assigns each request an ID and a request-scoped logger.
// A well-formed incoming X-Request-ID is kept; otherwise an ohrq- ULID is
// generated.
func RequestID(base *slog.Logger) Middleware {
	l := logger.FromSlog(base)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get(HeaderRequestID)
			if !validRequestID(requestID) {
				requestID = domain.NewRequestID()
			}

			w.Header().Set(HeaderRequestID, requestID)

			ctx := logger.WithRequestID(r.Context(), requestID)
			ctx = logger.WithLogger(ctx, l)
			ctx = context.WithValue(ctx, ContextKeyStartTime, time.Now())

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLength {
		return false
	}
	for _, c := range id {
		if c < '!' || c > '~' {
			return false
		}
	}
	return true
}

// Recover recovers from panics and returns 500 error.
func Recover(base *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					if err == http.ErrAbortHandler {
						panic(err)
					}
					base.Error("panic recovered",
						"request_id", logger.RequestIDFromContext(r.Context()),
						"error", err,
						"path", r.URL.Path,
					)
					writeError(w, r, domain.ErrInternalServer)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// RateLimitConfig configures the per-client rate limiter.
type RateLimitConfig struct {
	// Rate is the sustained requests per second per client IP.
	Rate float64
	// Burst defaults to Rate rounded up.
	Burst int
	// IdleTTL evicts limiters of clients not seen for this long.
	IdleTTL time.Duration
}

type clientLimiter struct {
	limiter  *rate.Limiter
	mu       sync.Mutex
	lastSeen time.Time
}

// rateLimiter keeps one token bucket per client IP.
type rateLimiter struct {
	limit   rate.Limit
	burst   int
	idleTTL time.Duration

	clients   *cmap.Map[*clientLimiter]
	sweepMu   sync.Mutex
	lastSweep time.Time
}

func newRateLimiter(cfg RateLimitConfig) *rateLimiter {
	burst := cfg.Burst
	if burst <= 0 {
		burst = int(cfg.Rate)
		if float64(burst) < cfg.Rate {
			burst++
		}
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 5 * time.Minute
	}
	return &rateLimiter{
		limit:     rate.Limit(cfg.Rate),
		burst:     burst,
		idleTTL:   cfg.IdleTTL,
		clients:   cmap.New[*clientLimiter](),
		lastSweep: time.Now(),
	}
}

// allow reports whether ip may make a request now.
func (rl *rateLimiter) allow(ip string, now time.Time) bool {
	c, ok := rl.clients.Get(ip)
	if !ok {
		fresh := &clientLimiter{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		if !rl.clients.SetIfAbsent(ip, fresh) {
			c, _ = rl.clients.Get(ip)
		}
		if c == nil {
			c = fresh
		}
	}

	c.mu.Lock()
	c.lastSeen = now
	c.mu.Unlock()

	rl.maybeSweep(now)
	return c.limiter.AllowN(now, 1)
}

// maybeSweep drops idle clients at most once per idleTTL.
func (rl *rateLimiter) maybeSweep(now time.Time) {
	if !rl.sweepMu.TryLock() {
		return
	}
	defer rl.sweepMu.Unlock()
	if now.Sub(rl.lastSweep) < rl.idleTTL {
		return
	}
	rl.lastSweep = now
	rl.clients.PopIf(func(_ string, c *clientLimiter) bool {
		c.mu.Lock()
		defer c.mu.Unlock()
		return now.Sub(c.lastSeen) >= rl.idleTTL
	})
}

// RateLimit applies per-client-IP rate limiting with a token bucket.
// A zero rate disables limiting.
func RateLimit(cfg RateLimitConfig) Middleware {
	if cfg.Rate <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	rl := newRateLimiter(cfg)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !rl.allow(clientIP(r), time.Now()) {
				w.Header().Set("Retry-After", "1")
				writeError(w, r, domain.ErrRateLimited)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Audit logs each completed request and records request metrics.
// metrics may be nil.
func Audit(metrics *metric.Registry) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(wrapped, r)

			startTime, ok := r.Context().Value(ContextKeyStartTime).(time.Time)
			if !ok {
				startTime = time.Now()
			}
			duration := time.Since(startTime)

			route := r.Pattern
			if route == "" {
				route = "unmatched"
			}
			metrics.RecordRequest(r.Method, route, strconv.Itoa(wrapped.statusCode))
			metrics.ObserveRequestDuration(r.Method, route, duration.Seconds())

			attrs := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"route", route,
				"status", wrapped.statusCode,
				"duration_ms", duration.Milliseconds(),
				"client_ip", clientIP(r),
			}

			l := logger.L(r.Context())
			switch {
			case wrapped.statusCode >= 500:
				l.Error("request completed with error", attrs...)
			case wrapped.statusCode >= 400:
				l.Warn("request completed with client error", attrs...)
			default:
				l.Debug("request completed", attrs...)
			}
		})
	}
}

// NetworkACLConfig holds configuration for network ACL middleware.
type NetworkACLConfig struct {
	// AllowList is the list of allowed IP/CIDR entries.
	// Empty list means no restriction.
	AllowList []string

	// Logger for logging denied requests.
	Logger *slog.Logger
}

// NetworkACL creates a middleware that checks client IP against an allowlist.
func NetworkACL(cfg *NetworkACLConfig) Middleware {
	var networks []*net.IPNet
	var singleIPs []net.IP

	for _, entry := range cfg.AllowList {
		entry = strings.TrimSpace(entry)
		if strings.Contains(entry, "/") {
			_, ipNet, err := net.ParseCIDR(entry)
			if err != nil {
				if cfg.Logger != nil {
					cfg.Logger.Warn("invalid CIDR in allowlist", "entry", entry, "error", err)
				}
				continue
			}
			networks = append(networks, ipNet)
		} else {
			ip := net.ParseIP(entry)
			if ip == nil {
				if cfg.Logger != nil {
					cfg.Logger.Warn("invalid IP in allowlist", "entry", entry)
				}
				continue
			}
			singleIPs = append(singleIPs, ip)
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(networks) == 0 && len(singleIPs) == 0 {
				next.ServeHTTP(w, r)
				return
			}

			addr := clientIP(r)
			ip := net.ParseIP(addr)
			if ip == nil {
				writeError(w, r, domain.ErrForbidden.WithDetails("invalid client IP"))
				return
			}

			for _, allowedIP := range singleIPs {
				if allowedIP.Equal(ip) {
					next.ServeHTTP(w, r)
					return
				}
			}
			for _, network := range networks {
				if network.Contains(ip) {
					next.ServeHTTP(w, r)
					return
				}
			}

			if cfg.Logger != nil {
				cfg.Logger.Warn("request denied by network ACL",
					"client_ip", addr,
					"path", r.URL.Path,
				)
			}
			writeError(w, r, domain.ErrForbidden.WithDetails("IP not in allowlist"))
		})
	}
}

// AdminToken requires "Authorization: Bearer <token>" when token is set.
func AdminToken(token string) Middleware {
	return func(next http.Handler) http.Handler {
		if token == "" {
			return next
		}
		want := []byte(token)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || subtle.ConstantTimeCompare([]byte(got), want) != 1 {
				w.Header().Set("WWW-Authenticate", `Bearer realm="objhost-admin"`)
				writeError(w, r, domain.ErrUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// responseWriter wraps http.ResponseWriter to capture status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func (w *responseWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.statusCode = code
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *responseWriter) Write(b []byte) (int, error) {
	w.wroteHeader = true
	return w.ResponseWriter.Write(b)
}

func (w *responseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// writeError writes a middleware-generated error in the API envelope.
func writeError(w http.ResponseWriter, r *http.Request, de *domain.DomainError) {
	var details any
	if de.Details != "" {
		details = de.Details
	}
	resp := handler.NewErrorResponse(logger.RequestIDFromContext(r.Context()), de.Code, de.Message, details)

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Error-Code", de.Code)
	w.WriteHeader(de.HTTPStatus())
	json.NewEncoder(w).Encode(resp)
}

// clientIP returns the peer address of the connection. Forwarding
// headers are ignored since they are caller-controlled.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
