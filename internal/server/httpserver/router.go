package httpserver

import (
	"log/slog"
	"net/http"

	"github.com/yndnr/objhost-go/internal/server/httpserver/handler"
	"github.com/yndnr/objhost-go/internal/telemetry/metric"
)

// RouterConfig holds configuration for the HTTP router.
type RouterConfig struct {
	Objects   handler.ObjectStore
	Lifecycle handler.LifecycleControl
	Registry  handler.ClassSource

	// Metrics serves /metrics and receives request metrics. Optional.
	Metrics *metric.Registry

	// Logger for request logging.
	Logger *slog.Logger

	// RateLimit is the per-client-IP rate in requests/second (0 = off).
	RateLimit float64
	RateBurst int

	// AdminAllowList is the IP/CIDR allowlist for /admin (empty = no restriction).
	AdminAllowList []string

	// AdminToken, when set, is required as a bearer token on /admin.
	AdminToken string

	// SetLogLevel and GetLogLevel override the process log level hooks.
	SetLogLevel func(string) error
	GetLogLevel func() string
}

// NewRouter creates and configures the HTTP router with all routes and middleware.
func NewRouter(cfg *RouterConfig) http.Handler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	log := cfg.Logger.With("component", "http")

	guard := func(next http.Handler) http.Handler {
		return Chain(next,
			NetworkACL(&NetworkACLConfig{AllowList: cfg.AdminAllowList, Logger: log}),
			AdminToken(cfg.AdminToken),
		)
	}

	h := handler.New(handler.Config{
		Objects:     cfg.Objects,
		Lifecycle:   cfg.Lifecycle,
		Classes:     cfg.Registry,
		Logger:      log,
		SetLogLevel: cfg.SetLogLevel,
		GetLogLevel: cfg.GetLogLevel,
		AdminGuard:  guard,
	})

	mux := http.NewServeMux()
	if cfg.Metrics != nil {
		mux.Handle("GET /metrics", cfg.Metrics.Handler())
	}
	mux.Handle("/", h)

	// Order: Recover -> RequestID -> RateLimit -> Audit -> routes
	return Chain(mux,
		Recover(log),
		RequestID(log),
		RateLimit(RateLimitConfig{Rate: cfg.RateLimit, Burst: cfg.RateBurst}),
		Audit(cfg.Metrics),
	)
}
