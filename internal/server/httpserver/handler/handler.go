package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/yndnr/objhost-go/internal/core/domain"
	"github.com/yndnr/objhost-go/internal/core/lifecycle"
	"github.com/yndnr/objhost-go/internal/core/service"
	"github.com/yndnr/objhost-go/internal/registry"
	"github.com/yndnr/objhost-go/internal/telemetry/logger"
)

// ObjectStore is the object API used by the handlers.
// *service.ObjectService implements it.
type ObjectStore interface {
	Create(ctx context.Context, req *service.CreateObjectRequest) (*domain.Object, error)
	Get(ctx context.Context, id string) (*domain.Object, error)
	List(ctx context.Context) []*domain.Object
	Renew(ctx context.Context, id string) (*domain.Object, error)
	Release(ctx context.Context, id string) error
	Reclaim(ctx context.Context) error
	Count() int
}

// LifecycleControl exposes the server lifecycle. *lifecycle.Server
// implements it.
type LifecycleControl interface {
	Status() lifecycle.Status
	Ready() bool
	RequestForcedStop() bool
}

// ClassSource lists registered classes. *registry.Badger implements it.
type ClassSource interface {
	Classes(ctx context.Context) ([]registry.Registration, error)
}

// Config holds the dependencies of a Handler.
type Config struct {
	Objects   ObjectStore
	Lifecycle LifecycleControl
	Classes   ClassSource
	Logger    *slog.Logger

	// SetLogLevel changes the process log level. Defaults to logger.SetLevel.
	SetLogLevel func(level string) error
	// GetLogLevel reports the process log level. Defaults to logger.GetLevel.
	GetLogLevel func() string

	// AdminGuard wraps every /admin route, e.g. with a network ACL.
	AdminGuard func(http.Handler) http.Handler
}

// Handler is the main HTTP handler that routes requests to appropriate handlers.
type Handler struct {
	objects     ObjectStore
	lifecycle   LifecycleControl
	classes     ClassSource
	logger      *slog.Logger
	setLogLevel func(string) error
	getLogLevel func() string
	adminGuard  func(http.Handler) http.Handler
	mux         *http.ServeMux
}

// New creates a new Handler.
func New(cfg Config) *Handler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.SetLogLevel == nil {
		cfg.SetLogLevel = logger.SetLevel
	}
	if cfg.GetLogLevel == nil {
		cfg.GetLogLevel = logger.GetLevel
	}

	h := &Handler{
		objects:     cfg.Objects,
		lifecycle:   cfg.Lifecycle,
		classes:     cfg.Classes,
		logger:      cfg.Logger,
		setLogLevel: cfg.SetLogLevel,
		getLogLevel: cfg.GetLogLevel,
		adminGuard:  cfg.AdminGuard,
		mux:         http.NewServeMux(),
	}

	h.registerRoutes()
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// registerRoutes registers all HTTP routes.
func (h *Handler) registerRoutes() {
	h.mux.HandleFunc("GET /health", h.handleHealth)
	h.mux.HandleFunc("GET /ready", h.handleReady)
	h.mux.HandleFunc("GET /status", h.handleStatus)

	h.mux.HandleFunc("GET /classes", h.handleListClasses)

	h.mux.HandleFunc("POST /objects", h.handleCreateObject)
	h.mux.HandleFunc("GET /objects", h.handleListObjects)
	h.mux.HandleFunc("GET /objects/{id}", h.handleGetObject)
	h.mux.HandleFunc("POST /objects/{id}/renew", h.handleRenewObject)
	h.mux.HandleFunc("DELETE /objects/{id}", h.handleReleaseObject)

	h.mux.Handle("POST /admin/shutdown", h.admin(h.handleShutdown))
	h.mux.Handle("POST /admin/reclaim", h.admin(h.handleReclaim))
	h.mux.Handle("GET /admin/loglevel", h.admin(h.handleGetLogLevel))
	h.mux.Handle("PUT /admin/loglevel", h.admin(h.handleSetLogLevel))
}

// admin applies the admin guard to fn.
func (h *Handler) admin(fn http.HandlerFunc) http.Handler {
	if h.adminGuard == nil {
		return fn
	}
	return h.adminGuard(fn)
}

// writeJSON writes a JSON response with standard envelope format.
func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	requestID := logger.RequestIDFromContext(r.Context())
	response := NewResponse(requestID, data)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

// writeError writes an error response with standard envelope format.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, status int, code, message string, details any) {
	requestID := logger.RequestIDFromContext(r.Context())
	response := NewErrorResponse(requestID, code, message, details)

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Error-Code", code)
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(response)
}

// handleServiceError converts service errors to HTTP responses.
func (h *Handler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var de *domain.DomainError
	if errors.As(err, &de) {
		var details any
		if de.Details != "" {
			details = de.Details
		}
		if de.HTTPStatus() >= http.StatusInternalServerError {
			logger.L(r.Context()).Error("request failed", "code", de.Code, "error", err)
		}
		h.writeError(w, r, de.HTTPStatus(), de.Code, de.Message, details)
		return
	}

	logger.L(r.Context()).Error("internal error", "error", err)
	ie := domain.ErrInternalServer
	h.writeError(w, r, ie.HTTPStatus(), ie.Code, ie.Message, nil)
}

// decodeJSON decodes the request body into v, rejecting unknown fields.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return domain.ErrBadRequest.WithDetails("invalid request body: " + err.Error())
	}
	return nil
}
