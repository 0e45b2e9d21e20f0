package lifecycle

import (
	"context"
	"sync"
	"sync/atomic"
)

// ShutdownSignal is a single-fire stop notification.
//
// RequestStop may be called from any goroutine any number of times; only
// the first call has an effect. A stop requested before Wait is entered
// is observed as soon as Wait is called.
type ShutdownSignal struct {
	once   sync.Once
	done   chan struct{}
	reason atomic.Int32
}

// NewShutdownSignal creates an unfired signal.
func NewShutdownSignal() *ShutdownSignal {
	return &ShutdownSignal{done: make(chan struct{})}
}

// RequestStop fires the signal with reason. It reports whether this call
// was the one that fired it.
func (s *ShutdownSignal) RequestStop(reason StopReason) bool {
	fired := false
	s.once.Do(func() {
		s.reason.Store(int32(reason))
		close(s.done)
		fired = true
	})
	return fired
}

// Wait blocks until the signal fires and returns the recorded reason.
// Cancelling ctx fires the signal with ReasonContext.
func (s *ShutdownSignal) Wait(ctx context.Context) StopReason {
	select {
	case <-s.done:
	case <-ctx.Done():
		s.RequestStop(ReasonContext)
		<-s.done
	}
	return s.Reason()
}

// Done returns a channel closed when the signal fires.
func (s *ShutdownSignal) Done() <-chan struct{} {
	return s.done
}

// Requested reports whether the signal has fired.
func (s *ShutdownSignal) Requested() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// Reason returns the reason recorded by the first RequestStop, or
// ReasonNone if the signal has not fired.
func (s *ShutdownSignal) Reason() StopReason {
	if !s.Requested() {
		return ReasonNone
	}
	return StopReason(s.reason.Load())
}
