package lifecycle

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/yndnr/objhost-go/internal/telemetry/metric"
)

// ReclaimFunc asks the object implementations to reclaim objects that are
// no longer reachable.
type ReclaimFunc func(ctx context.Context) error

// ReclaimScheduler invokes a ReclaimFunc at a fixed interval on its own
// goroutine. Errors and panics from the hook are logged and swallowed.
//
// A scheduler is single use: once stopped it cannot be started again.
type ReclaimScheduler struct {
	logger  *slog.Logger
	metrics *metric.Lifecycle

	mu      sync.Mutex
	started bool
	stopped bool
	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}

	runs     atomic.Int64
	failures atomic.Int64
}

// NewReclaimScheduler creates a stopped scheduler. metrics may be nil.
func NewReclaimScheduler(logger *slog.Logger, metrics *metric.Lifecycle) *ReclaimScheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReclaimScheduler{
		logger:  logger,
		metrics: metrics,
	}
}

// Start schedules hook every interval. The first invocation happens one
// full interval after Start.
func (s *ReclaimScheduler) Start(interval time.Duration, hook ReclaimFunc) error {
	if interval <= 0 {
		return ErrInvalidInterval
	}
	if hook == nil {
		return fmt.Errorf("lifecycle: reclaim hook is nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started || s.stopped {
		return ErrSchedulerStarted
	}
	s.started = true
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.done = make(chan struct{})

	go s.loop(interval, hook)
	return nil
}

// Stop prevents any further invocation from starting. An invocation that
// is already running sees its context cancelled but is not waited for.
func (s *ReclaimScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopped = true
	if s.cancel != nil {
		s.cancel()
	}
}

// Close stops the scheduler and waits for its goroutine to exit, including
// any invocation in flight, or for ctx to expire.
func (s *ReclaimScheduler) Close(ctx context.Context) error {
	s.Stop()

	s.mu.Lock()
	done := s.done
	s.mu.Unlock()
	if done == nil {
		return nil
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("lifecycle: close reclaim scheduler: %w", ctx.Err())
	}
}

// Runs returns the number of hook invocations started.
func (s *ReclaimScheduler) Runs() int64 {
	if s == nil {
		return 0
	}
	return s.runs.Load()
}

// Failures returns the number of invocations that returned an error or
// panicked.
func (s *ReclaimScheduler) Failures() int64 {
	if s == nil {
		return 0
	}
	return s.failures.Load()
}

func (s *ReclaimScheduler) loop(interval time.Duration, hook ReclaimFunc) {
	defer close(s.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			if !s.begin() {
				return
			}
			s.invoke(hook)
		}
	}
}

// begin linearizes the start of an invocation against Stop.
func (s *ReclaimScheduler) begin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return false
	}
	s.runs.Add(1)
	return true
}

func (s *ReclaimScheduler) invoke(hook ReclaimFunc) {
	start := time.Now()
	kind := ""

	defer func() {
		if r := recover(); r != nil {
			kind = "panic"
			s.logger.Error("reclaim hook panicked",
				"panic", r,
				"stack", string(debug.Stack()),
			)
		}
		if kind != "" {
			s.failures.Add(1)
		}
		s.metrics.RecordReclaim(kind, time.Since(start).Seconds())
	}()

	if err := hook(s.ctx); err != nil {
		kind = "error"
		s.logger.Warn("reclaim hook failed", "error", err)
		return
	}
	s.logger.Debug("reclaim hook completed", "duration", time.Since(start))
}
