package shutdown

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

// Hook is a cleanup function run during shutdown.
type Hook func(context.Context) error

// Handler coordinates signal-triggered stop and shutdown hooks.
type Handler struct {
	timeout time.Duration
	logger  *slog.Logger

	mu    sync.Mutex
	hooks []Hook

	runOnce sync.Once
	runErr  error
	done    chan struct{}

	signals []os.Signal
}

// NewHandler creates a new shutdown handler. Hooks share a single
// deadline of timeout.
func NewHandler(timeout time.Duration) *Handler {
	return &Handler{
		timeout: timeout,
		logger:  slog.Default(),
		hooks:   make([]Hook, 0),
		done:    make(chan struct{}),
		signals: []os.Signal{syscall.SIGINT, syscall.SIGTERM},
	}
}

// SetLogger sets the logger used for signal and hook reporting.
func (h *Handler) SetLogger(logger *slog.Logger) {
	if logger != nil {
		h.logger = logger
	}
}

// OnShutdown registers a shutdown hook.
// Hooks are called in reverse order of registration.
func (h *Handler) OnShutdown(hook Hook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.hooks = append(h.hooks, hook)
}

// Notify calls stop on the first SIGINT or SIGTERM. Later signals are
// logged and ignored. Signal delivery is released when ctx is done or
// Run has completed.
func (h *Handler) Notify(ctx context.Context, stop func()) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, h.signals...)

	go func() {
		defer signal.Stop(sigCh)
		stopped := false
		for {
			select {
			case sig := <-sigCh:
				if stopped {
					h.logger.Warn("shutdown already in progress, ignoring signal", "signal", sig.String())
					continue
				}
				stopped = true
				h.logger.Info("received signal, stopping", "signal", sig.String())
				stop()
			case <-ctx.Done():
				return
			case <-h.done:
				return
			}
		}
	}()
}

// Wait blocks until SIGINT or SIGTERM is received, then runs the hooks.
func (h *Handler) Wait() error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, h.signals...)
	<-sigCh
	signal.Stop(sigCh)

	return h.Run()
}

// Run executes the registered hooks in reverse order under the handler
// timeout. Every hook runs even if an earlier one fails. Subsequent calls
// return the first result.
func (h *Handler) Run() error {
	h.runOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
		defer cancel()

		h.mu.Lock()
		hooks := make([]Hook, len(h.hooks))
		copy(hooks, h.hooks)
		h.mu.Unlock()

		var errs []error
		for i := len(hooks) - 1; i >= 0; i-- {
			if err := hooks[i](ctx); err != nil {
				h.logger.Error("shutdown hook failed", "error", err)
				errs = append(errs, err)
			}
		}
		h.runErr = errors.Join(errs...)
		close(h.done)
	})
	return h.runErr
}

// Done returns a channel that closes when shutdown is complete.
func (h *Handler) Done() <-chan struct{} {
	return h.done
}
