package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/yndnr/objhost-go/internal/core/domain"
	"github.com/yndnr/objhost-go/internal/telemetry/metric"
)

// Default timings.
const (
	DefaultReclaimInterval = 5 * time.Second
	DefaultGracePeriod     = time.Second
)

// Config configures a Server.
type Config struct {
	// Gateway publishes classes. Required.
	Gateway Gateway

	// Classes are registered in order on every Run.
	Classes []domain.Class

	// Reclaim is invoked every ReclaimInterval while running. Optional.
	Reclaim ReclaimFunc

	// ReclaimInterval defaults to DefaultReclaimInterval.
	ReclaimInterval time.Duration

	// GracePeriod is waited at the end of teardown so in-flight calls can
	// drain. Defaults to DefaultGracePeriod.
	GracePeriod time.Duration

	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// Metrics may be nil.
	Metrics *metric.Lifecycle
}

// Status is a diagnostic snapshot of a Server.
type Status struct {
	State           State      `json:"state"`
	ActiveCount     int64      `json:"active_count"`
	RunID           string     `json:"run_id,omitempty"`
	StartedAt       time.Time  `json:"started_at,omitzero"`
	ReclaimRuns     int64      `json:"reclaim_runs"`
	ReclaimFailures int64      `json:"reclaim_failures"`
	LastStopReason  StopReason `json:"last_stop_reason"`
}

type registration struct {
	token   Token
	classID string
}

type runInfo struct {
	id        string
	startedAt time.Time
}

// Server coordinates the lifetime of an object host process.
//
// Run is the only blocking method. AcquireHandle, ReleaseHandle,
// RequestForcedStop and the diagnostics may be called from any goroutine.
type Server struct {
	gateway         Gateway
	classes         []domain.Class
	reclaim         ReclaimFunc
	reclaimInterval time.Duration
	gracePeriod     time.Duration
	logger          *slog.Logger
	metrics         *metric.Lifecycle

	counter LockCounter

	// mu guards state transitions and tokens.
	mu     sync.Mutex
	state  atomic.Int32
	tokens []registration

	signal    atomic.Pointer[ShutdownSignal]
	scheduler atomic.Pointer[ReclaimScheduler]
	run       atomic.Pointer[runInfo]
	lastStop  atomic.Int32

	// genMu orders handle releases against counter resets.
	genMu sync.RWMutex
	gen   uint64
}

// New creates an idle Server.
func New(cfg Config) (*Server, error) {
	if cfg.Gateway == nil {
		return nil, ErrNoGateway
	}
	if cfg.ReclaimInterval == 0 {
		cfg.ReclaimInterval = DefaultReclaimInterval
	}
	if cfg.ReclaimInterval < 0 {
		return nil, ErrInvalidInterval
	}
	if cfg.GracePeriod == 0 {
		cfg.GracePeriod = DefaultGracePeriod
	}
	if cfg.GracePeriod < 0 {
		return nil, fmt.Errorf("lifecycle: grace period must not be negative")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	seen := make(map[string]struct{}, len(cfg.Classes))
	for _, c := range cfg.Classes {
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("lifecycle: %w", err)
		}
		if _, dup := seen[c.ID]; dup {
			return nil, fmt.Errorf("lifecycle: duplicate class %q", c.ID)
		}
		seen[c.ID] = struct{}{}
	}

	return &Server{
		gateway:         cfg.Gateway,
		classes:         append([]domain.Class(nil), cfg.Classes...),
		reclaim:         cfg.Reclaim,
		reclaimInterval: cfg.ReclaimInterval,
		gracePeriod:     cfg.GracePeriod,
		logger:          cfg.Logger.With("component", "lifecycle"),
		metrics:         cfg.Metrics,
	}, nil
}

// Run registers the classes, announces readiness and blocks until a stop
// is requested, then tears down and returns.
//
// Calling Run while another Run is starting or running returns nil
// immediately. Calling it while a run is still tearing down returns
// ErrStopping; the caller may retry once the server is idle.
// A registration or announcement failure is returned as *StartupFailure
// after rollback; teardown failures are logged and never returned.
// A panic from the Gateway during startup rolls back the same way and is
// then re-raised.
func (s *Server) Run(ctx context.Context) error {
	// 1. Idle -> Starting
	s.mu.Lock()
	if cur := s.State(); cur != StateIdle {
		s.mu.Unlock()
		if cur == StateStopping {
			return ErrStopping
		}
		s.logger.Debug("run ignored, server already active", "state", cur.String())
		return nil
	}
	s.setState(StateStarting)
	sig := NewShutdownSignal()
	s.signal.Store(sig)
	s.mu.Unlock()

	s.logger.Info("server starting", "classes", len(s.classes))

	phase, classID, started := PhaseRegister, "", false
	defer func() {
		if started {
			return
		}
		if r := recover(); r != nil {
			_ = s.abortStartup(ctx, &StartupFailure{Phase: phase, ClassID: classID, Err: fmt.Errorf("panic: %v", r)})
			panic(r)
		}
	}()

	// 2. Register classes
	for _, c := range s.classes {
		classID = c.ID
		tok, err := s.gateway.Register(ctx, c)
		if err != nil {
			return s.abortStartup(ctx, &StartupFailure{Phase: PhaseRegister, ClassID: c.ID, Err: err})
		}
		s.mu.Lock()
		s.tokens = append(s.tokens, registration{token: tok, classID: c.ID})
		s.mu.Unlock()
		s.logger.Debug("class registered", "class", c.ID, "token", string(tok))
	}

	// 3. Announce readiness
	phase, classID = PhaseAnnounce, ""
	if err := s.gateway.AnnounceReady(ctx); err != nil {
		return s.abortStartup(ctx, &StartupFailure{Phase: PhaseAnnounce, Err: err})
	}

	// 4. Pin the loop, reset the count, start reclaiming
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	info := &runInfo{id: domain.NewRunID(), startedAt: time.Now()}
	s.run.Store(info)

	s.genMu.Lock()
	s.counter.Reset()
	s.gen++
	s.genMu.Unlock()

	sched := NewReclaimScheduler(s.logger, s.metrics)
	if s.reclaim != nil {
		if err := sched.Start(s.reclaimInterval, s.reclaim); err != nil {
			s.logger.Error("failed to start reclaim scheduler", "error", err)
		}
	}
	s.scheduler.Store(sched)

	started = true
	defer s.teardown(ctx, sig, sched, info)

	// 5. Running
	s.mu.Lock()
	s.setState(StateRunning)
	s.mu.Unlock()
	s.metrics.RecordRun()

	s.logger.Info("server running",
		"run_id", info.id,
		"reclaim_interval", s.reclaimInterval,
	)

	reason := sig.Wait(ctx)
	if reason == ReasonContext {
		s.metrics.RecordStop(reason.String())
	}
	s.logger.Info("stop requested", "run_id", info.id, "reason", reason.String())
	return nil
}

// abortStartup rolls back every registration and returns the server to Idle.
func (s *Server) abortStartup(ctx context.Context, failure *StartupFailure) error {
	s.logger.Error("server startup failed",
		"phase", failure.Phase,
		"class", failure.ClassID,
		"error", failure.Err,
	)
	s.metrics.RecordStartupFailure(failure.Phase)

	s.mu.Lock()
	tokens := s.tokens
	s.tokens = nil
	s.mu.Unlock()

	s.unregisterAll(context.WithoutCancel(ctx), tokens)

	s.mu.Lock()
	s.signal.Store(nil)
	s.setState(StateIdle)
	s.mu.Unlock()

	return failure
}

// teardown runs on every exit from the Running phase, including a panic.
func (s *Server) teardown(ctx context.Context, sig *ShutdownSignal, sched *ReclaimScheduler, info *runInfo) {
	s.mu.Lock()
	s.setState(StateStopping)
	tokens := s.tokens
	s.tokens = nil
	s.mu.Unlock()

	reason := sig.Reason()
	s.lastStop.Store(int32(reason))

	// Handles from this run are stale from here on.
	s.genMu.Lock()
	s.gen++
	s.genMu.Unlock()

	tctx := context.WithoutCancel(ctx)

	failures := s.unregisterAll(tctx, tokens)

	sched.Stop()
	closeCtx, cancel := context.WithTimeout(tctx, s.reclaimInterval)
	if err := sched.Close(closeCtx); err != nil {
		s.logger.Warn("reclaim hook still running at shutdown", "error", err)
	}
	cancel()

	if n := s.counter.Value(); n > 0 {
		s.logger.Warn("handles still outstanding at shutdown",
			"run_id", info.id,
			"active_count", n,
			"reason", reason.String(),
		)
	}

	timer := time.NewTimer(s.gracePeriod)
	<-timer.C

	s.mu.Lock()
	s.signal.Store(nil)
	s.setState(StateIdle)
	s.mu.Unlock()

	s.logger.Info("server stopped",
		"run_id", info.id,
		"reason", reason.String(),
		"uptime", time.Since(info.startedAt),
		"teardown_failures", len(failures),
	)
}

// unregisterAll revokes tokens in reverse registration order. Failures are
// logged and collected; every token is attempted.
func (s *Server) unregisterAll(ctx context.Context, tokens []registration) []*TeardownFailure {
	var failures []*TeardownFailure
	for i := len(tokens) - 1; i >= 0; i-- {
		r := tokens[i]
		if err := s.gateway.Unregister(ctx, r.token); err != nil {
			f := &TeardownFailure{Token: r.token, ClassID: r.classID, Err: err}
			failures = append(failures, f)
			s.metrics.RecordTeardownFailure()
			s.logger.Warn("failed to unregister class", "class", r.classID, "error", err)
			continue
		}
		s.logger.Debug("class unregistered", "class", r.classID)
	}
	return failures
}

// AcquireHandle records one outstanding handle and returns the new count.
func (s *Server) AcquireHandle() int64 {
	n := s.counter.Increment()
	s.metrics.RecordAcquire()
	return n
}

// ReleaseHandle drops one handle and returns the new count. While the
// server is Running, the release that brings the count to zero requests a
// stop; outside Running it only updates the count. Releasing more handles
// than were acquired panics with *InvariantViolation.
func (s *Server) ReleaseHandle() int64 {
	n := s.counter.Decrement()
	s.metrics.RecordRelease()
	if n == 0 && s.State() == StateRunning {
		if sig := s.signal.Load(); sig != nil && sig.RequestStop(ReasonLastHandle) {
			s.metrics.RecordStop(ReasonLastHandle.String())
			s.logger.Info("last handle released, stop requested")
		}
	}
	return n
}

// ActiveCount returns a snapshot of the outstanding handle count.
func (s *Server) ActiveCount() int64 {
	return s.counter.Value()
}

// Acquire returns a Handle guard bound to the current run.
func (s *Server) Acquire() *Handle {
	s.genMu.RLock()
	defer s.genMu.RUnlock()

	h := &Handle{srv: s, gen: s.gen}
	s.AcquireHandle()
	return h
}

func (s *Server) releaseGeneration(gen uint64) bool {
	s.genMu.RLock()
	defer s.genMu.RUnlock()

	if gen != s.gen {
		s.logger.Debug("ignoring release of handle from a finished run")
		return false
	}
	s.ReleaseHandle()
	return true
}

// RequestForcedStop asks the current run to stop regardless of the handle
// count. It reports whether this call fired the stop. It has no effect
// while the server is idle.
func (s *Server) RequestForcedStop() bool {
	if s.State() == StateIdle {
		return false
	}
	sig := s.signal.Load()
	if sig == nil || !sig.RequestStop(ReasonForced) {
		return false
	}
	s.metrics.RecordStop(ReasonForced.String())
	s.logger.Info("forced stop requested", "active_count", s.counter.Value())
	return true
}

// State returns the current lifecycle state.
func (s *Server) State() State {
	return State(s.state.Load())
}

// StateName returns the current state name.
func (s *Server) StateName() string {
	return s.State().String()
}

// Status returns a diagnostic snapshot. It never blocks on Run.
func (s *Server) Status() Status {
	st := Status{
		State:          s.State(),
		ActiveCount:    s.counter.Value(),
		LastStopReason: StopReason(s.lastStop.Load()),
	}
	if info := s.run.Load(); info != nil {
		st.RunID = info.id
		st.StartedAt = info.startedAt
	}
	if sched := s.scheduler.Load(); sched != nil {
		st.ReclaimRuns = sched.Runs()
		st.ReclaimFailures = sched.Failures()
	}
	return st
}

// Ready reports whether the server is running.
func (s *Server) Ready() bool {
	return s.State() == StateRunning
}

// setState must be called with mu held.
func (s *Server) setState(st State) {
	s.state.Store(int32(st))
}

// IsStartupFailure reports whether err is a *StartupFailure and returns it.
func IsStartupFailure(err error) (*StartupFailure, bool) {
	var f *StartupFailure
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}
