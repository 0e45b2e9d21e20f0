package lifecycle

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLockCounter_ConcurrentBalance(t *testing.T) {
	tests := []struct {
		name     string
		acquires int
		releases int
	}{
		{"equal", 500, 500},
		{"more acquires", 1000, 400},
		{"no releases", 64, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c LockCounter
			var wg sync.WaitGroup

			for i := 0; i < tt.acquires; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					c.Increment()
				}()
			}
			wg.Wait()

			for i := 0; i < tt.releases; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					c.Decrement()
				}()
			}
			wg.Wait()

			assert.Equal(t, int64(tt.acquires-tt.releases), c.Value())
		})
	}
}

func TestLockCounter_DecrementAtZeroPanics(t *testing.T) {
	var c LockCounter
	c.Increment()
	require.Equal(t, int64(0), c.Decrement())

	defer func() {
		r := recover()
		require.NotNil(t, r, "decrement at zero must panic")
		v, ok := r.(*InvariantViolation)
		require.True(t, ok, "panic value should be *InvariantViolation, got %T", r)
		assert.Equal(t, "decrement", v.Op)
		assert.Equal(t, int64(0), v.Value)
		assert.Equal(t, int64(0), c.Value(), "count must not go negative")
	}()
	c.Decrement()
}

func TestLockCounter_OnlyOneDecrementObservesZero(t *testing.T) {
	for round := 0; round < 50; round++ {
		var c LockCounter
		const n = 32
		for i := 0; i < n; i++ {
			c.Increment()
		}

		var zeros atomic.Int32
		var wg sync.WaitGroup
		start := make(chan struct{})
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-start
				if c.Decrement() == 0 {
					zeros.Add(1)
				}
			}()
		}
		close(start)
		wg.Wait()

		require.Equal(t, int32(1), zeros.Load(), "round %d", round)
	}
}

func TestLockCounter_Reset(t *testing.T) {
	var c LockCounter
	c.Increment()
	c.Increment()
	c.Reset()
	assert.Equal(t, int64(0), c.Value())
	assert.Equal(t, int64(1), c.Increment())
}
