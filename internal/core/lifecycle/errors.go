package lifecycle

import (
	"errors"
	"fmt"
)

var (
	// ErrStartup matches every *StartupFailure via errors.Is.
	ErrStartup = errors.New("lifecycle: startup failed")

	// ErrSchedulerStarted is returned by ReclaimScheduler.Start when the
	// scheduler was already started.
	ErrSchedulerStarted = errors.New("lifecycle: reclaim scheduler already started")

	// ErrInvalidInterval is returned for a non-positive reclaim interval.
	ErrInvalidInterval = errors.New("lifecycle: reclaim interval must be positive")

	// ErrStopping is returned by Run while a previous run is tearing down.
	ErrStopping = errors.New("lifecycle: server is stopping")

	// ErrNoGateway is returned by New when Config.Gateway is nil.
	ErrNoGateway = errors.New("lifecycle: gateway is required")
)

// Startup phases reported in StartupFailure.Phase.
const (
	PhaseRegister = "register"
	PhaseAnnounce = "announce"
)

// StartupFailure is returned by Run when registration or the readiness
// announcement fails. Every class registered before the failure has been
// unregistered by the time it is returned.
type StartupFailure struct {
	Phase   string
	ClassID string
	Err     error
}

func (e *StartupFailure) Error() string {
	if e.ClassID != "" {
		return fmt.Sprintf("lifecycle: startup failed during %s of class %q: %v", e.Phase, e.ClassID, e.Err)
	}
	return fmt.Sprintf("lifecycle: startup failed during %s: %v", e.Phase, e.Err)
}

func (e *StartupFailure) Unwrap() error { return e.Err }

// Is reports whether target is ErrStartup.
func (e *StartupFailure) Is(target error) bool { return target == ErrStartup }

// TeardownFailure describes a class that could not be unregistered while
// stopping. It is logged, never returned from Run.
type TeardownFailure struct {
	Token   Token
	ClassID string
	Err     error
}

func (e *TeardownFailure) Error() string {
	return fmt.Sprintf("lifecycle: unregister class %q: %v", e.ClassID, e.Err)
}

func (e *TeardownFailure) Unwrap() error { return e.Err }

// InvariantViolation is the panic value raised when the handle count
// would go below zero.
type InvariantViolation struct {
	Op    string
	Value int64
}

func (e *InvariantViolation) Error() string {
	return fmt.Sprintf("lifecycle: invariant violation: %s with handle count %d", e.Op, e.Value)
}
