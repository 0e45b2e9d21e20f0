package lifecycle

import "fmt"

// State is the lifecycle state of a Server.
type State int32

const (
	// StateIdle means no run is in progress. Run may be called.
	StateIdle State = iota
	// StateStarting means classes are being registered.
	StateStarting
	// StateRunning means the server accepts handles and waits for a stop.
	StateRunning
	// StateStopping means teardown is in progress.
	StateStopping
)

var stateNames = [...]string{
	StateIdle:     "idle",
	StateStarting: "starting",
	StateRunning:  "running",
	StateStopping: "stopping",
}

// String returns the lowercase state name.
func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("state(%d)", int32(s))
	}
	return stateNames[s]
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// StopReason records why a run was asked to stop.
type StopReason int32

const (
	// ReasonNone means no stop was requested.
	ReasonNone StopReason = iota
	// ReasonLastHandle means the last outstanding handle was released.
	ReasonLastHandle
	// ReasonForced means RequestForcedStop was called.
	ReasonForced
	// ReasonContext means the context passed to Run was cancelled.
	ReasonContext
)

var reasonNames = [...]string{
	ReasonNone:       "none",
	ReasonLastHandle: "last_handle",
	ReasonForced:     "forced",
	ReasonContext:    "context",
}

// String returns the reason name used in logs and metric labels.
func (r StopReason) String() string {
	if r < 0 || int(r) >= len(reasonNames) {
		return fmt.Sprintf("reason(%d)", int32(r))
	}
	return reasonNames[r]
}

// MarshalText implements encoding.TextMarshaler.
func (r StopReason) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}
