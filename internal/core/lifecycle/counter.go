package lifecycle

import "sync/atomic"

// LockCounter counts outstanding object handles.
//
// The zero value is ready to use. All methods are safe for concurrent use.
type LockCounter struct {
	n atomic.Int64
}

// Increment adds one handle and returns the new count.
func (c *LockCounter) Increment() int64 {
	return c.n.Add(1)
}

// Decrement removes one handle and returns the new count.
//
// Only the decrement that moves the count from one to zero returns zero.
// Decrementing at zero panics with *InvariantViolation and leaves the
// count at zero.
func (c *LockCounter) Decrement() int64 {
	for {
		cur := c.n.Load()
		if cur <= 0 {
			panic(&InvariantViolation{Op: "decrement", Value: cur})
		}
		if c.n.CompareAndSwap(cur, cur-1) {
			return cur - 1
		}
	}
}

// Value returns a snapshot of the count. It may be stale by the time the
// caller looks at it.
func (c *LockCounter) Value() int64 {
	return c.n.Load()
}

// Reset sets the count to zero.
func (c *LockCounter) Reset() {
	c.n.Store(0)
}
