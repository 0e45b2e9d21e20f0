package localserver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/yndnr/objhost-go/internal/core/lifecycle"
	"github.com/yndnr/objhost-go/internal/infra/buildinfo"
	"github.com/yndnr/objhost-go/internal/telemetry/logger"
)

// commandTimeout bounds commands that do work, such as reclaim.
const commandTimeout = 30 * time.Second

// Lifecycle is the lifecycle surface used by local commands.
type Lifecycle interface {
	Status() lifecycle.Status
	RequestForcedStop() bool
}

// Objects is the object surface used by local commands.
type Objects interface {
	Reclaim(ctx context.Context) error
	Count() int
}

// HandlerConfig holds the dependencies of a Handler.
type HandlerConfig struct {
	Lifecycle Lifecycle
	Objects   Objects

	// Reload re-reads the configuration file. Optional.
	Reload func() error

	// SetLogLevel and GetLogLevel default to the logger package.
	SetLogLevel func(string) error
	GetLogLevel func() string
}

// Reply is one JSON line written per command.
type Reply struct {
	OK    bool   `json:"ok"`
	Data  any    `json:"data,omitempty"`
	Error string `json:"error,omitempty"`
}

// StatusReply is the data of the status command.
type StatusReply struct {
	Lifecycle lifecycle.Status `json:"lifecycle"`
	Objects   int              `json:"objects"`
	Build     buildinfo.Info   `json:"build"`
}

// Handler handles local management commands.
type Handler struct {
	cfg HandlerConfig
}

// NewHandler creates a new Handler.
func NewHandler(cfg HandlerConfig) *Handler {
	if cfg.SetLogLevel == nil {
		cfg.SetLogLevel = logger.SetLevel
	}
	if cfg.GetLogLevel == nil {
		cfg.GetLogLevel = logger.GetLevel
	}
	return &Handler{cfg: cfg}
}

// Execute executes a local management command and writes one reply line.
// The returned error is the command failure, already reported to w.
func (h *Handler) Execute(w io.Writer, cmd string, args []string) error {
	data, err := h.dispatch(cmd, args)
	reply := Reply{OK: err == nil, Data: data}
	if err != nil {
		reply.Error = err.Error()
	}
	if werr := json.NewEncoder(w).Encode(reply); werr != nil {
		return werr
	}
	return err
}

func (h *Handler) dispatch(cmd string, args []string) (any, error) {
	switch cmd {
	case "status":
		return h.handleStatus()
	case "shutdown":
		return h.handleShutdown()
	case "reclaim":
		return h.handleReclaim()
	case "loglevel":
		return h.handleLogLevel(args)
	case "reload":
		return h.handleReload()
	default:
		return nil, fmt.Errorf("unknown command: %s", cmd)
	}
}

func (h *Handler) handleStatus() (any, error) {
	return StatusReply{
		Lifecycle: h.cfg.Lifecycle.Status(),
		Objects:   h.cfg.Objects.Count(),
		Build:     buildinfo.Get(),
	}, nil
}

func (h *Handler) handleShutdown() (any, error) {
	if !h.cfg.Lifecycle.RequestForcedStop() {
		return nil, fmt.Errorf("server is %s", h.cfg.Lifecycle.Status().State)
	}
	return map[string]any{"accepted": true}, nil
}

func (h *Handler) handleReclaim() (any, error) {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	before := h.cfg.Objects.Count()
	err := h.cfg.Objects.Reclaim(ctx)
	return map[string]int{"before": before, "after": h.cfg.Objects.Count()}, err
}

func (h *Handler) handleLogLevel(args []string) (any, error) {
	switch len(args) {
	case 0:
	case 1:
		if err := h.cfg.SetLogLevel(args[0]); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("usage: loglevel [debug|info|warn|error]")
	}
	return map[string]string{"level": h.cfg.GetLogLevel()}, nil
}

func (h *Handler) handleReload() (any, error) {
	if h.cfg.Reload == nil {
		return nil, fmt.Errorf("reload is not configured")
	}
	if err := h.cfg.Reload(); err != nil {
		return nil, fmt.Errorf("reload: %w", err)
	}
	return map[string]string{"level": h.cfg.GetLogLevel()}, nil
}
