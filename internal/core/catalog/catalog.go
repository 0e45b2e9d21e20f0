// Package catalog defines the classes objhost exposes out of the box.
package catalog

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/yndnr/objhost-go/internal/core/domain"
	"github.com/yndnr/objhost-go/pkg/cmap"
)

// Built-in class identifiers.
const (
	StoreClassID   = "objhost.Store"
	CounterClassID = "objhost.Counter"
)

// Builtin returns the built-in classes in registration order.
func Builtin() []domain.Class {
	return []domain.Class{
		{
			ID:          StoreClassID,
			Description: "In-memory key/value store scoped to one object",
			Factory:     func(context.Context) (any, error) { return NewStore(), nil },
		},
		{
			ID:          CounterClassID,
			Description: "Monotonic counter scoped to one object",
			Factory:     func(context.Context) (any, error) { return &Counter{}, nil },
		},
	}
}

// Lookup finds a class by ID.
func Lookup(classes []domain.Class, id string) (domain.Class, bool) {
	for _, c := range classes {
		if c.ID == id {
			return c, true
		}
	}
	return domain.Class{}, false
}

// Store is the instance behind objhost.Store.
type Store struct {
	data   *cmap.Map[string]
	closed atomic.Bool
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{data: cmap.New[string](cmap.WithShardCount(4))}
}

// Put stores value under key.
func (s *Store) Put(key, value string) {
	s.data.Set(key, value)
}

// Get returns the value stored under key.
func (s *Store) Get(key string) (string, bool) {
	return s.data.Get(key)
}

// Describe implements domain.Describer.
func (s *Store) Describe() map[string]any {
	keys := make([]string, 0, s.data.Count())
	s.data.Range(func(k, _ string) bool {
		keys = append(keys, k)
		return true
	})
	sort.Strings(keys)
	return map[string]any{"keys": keys, "closed": s.closed.Load()}
}

// Close drops all data.
func (s *Store) Close() error {
	if s.closed.CompareAndSwap(false, true) {
		s.data.Drain()
	}
	return nil
}

// Counter is the instance behind objhost.Counter.
type Counter struct {
	mu     sync.Mutex
	value  int64
	closed bool
}

// Add adds delta and returns the new value.
func (c *Counter) Add(delta int64) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value += delta
	return c.value
}

// Describe implements domain.Describer.
func (c *Counter) Describe() map[string]any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return map[string]any{"value": c.value, "closed": c.closed}
}

// Close marks the counter closed.
func (c *Counter) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}
