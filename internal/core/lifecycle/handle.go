package lifecycle

import "sync/atomic"

// Handle is one outstanding object handle. Release gives it back exactly
// once no matter how many times it is called.
//
// A Handle acquired in one run is ignored when released after that run
// has stopped, so late releases never disturb the next run's count.
type Handle struct {
	srv      *Server
	gen      uint64
	released atomic.Bool
}

// Release returns the handle. It reports whether this call decremented
// the handle count.
func (h *Handle) Release() bool {
	if h == nil || !h.released.CompareAndSwap(false, true) {
		return false
	}
	return h.srv.releaseGeneration(h.gen)
}

// Released reports whether Release has been called.
func (h *Handle) Released() bool {
	return h != nil && h.released.Load()
}
