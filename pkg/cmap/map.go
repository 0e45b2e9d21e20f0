package cmap

import (
	"crypto/rand"
	"encoding/binary"
	"sync"

	"github.com/spaolacci/murmur3"
)

// DefaultShardCount is the shard count used when none is configured.
const DefaultShardCount = 16

// Option configures a Map.
type Option func(*options)

type options struct {
	shards int
	seed   uint32
	seeded bool
}

// WithShardCount sets the number of shards. Counts that are not a
// positive power of two fall back to DefaultShardCount.
func WithShardCount(n int) Option {
	return func(o *options) { o.shards = n }
}

// WithSeed fixes the hash seed. Mostly useful in tests.
func WithSeed(seed uint32) Option {
	return func(o *options) {
		o.seed = seed
		o.seeded = true
	}
}

// Map is a concurrent map from string keys to V.
type Map[V any] struct {
	shards []*shard[V]
	mask   uint32
	seed   uint32
}

type shard[V any] struct {
	mu    sync.RWMutex
	items map[string]V
}

// New creates an empty map.
func New[V any](opts ...Option) *Map[V] {
	o := options{shards: DefaultShardCount}
	for _, opt := range opts {
		opt(&o)
	}
	if o.shards <= 0 || o.shards&(o.shards-1) != 0 {
		o.shards = DefaultShardCount
	}
	if !o.seeded {
		var b [4]byte
		_, _ = rand.Read(b[:])
		o.seed = binary.LittleEndian.Uint32(b[:])
	}

	m := &Map[V]{
		shards: make([]*shard[V], o.shards),
		mask:   uint32(o.shards - 1),
		seed:   o.seed,
	}
	for i := range m.shards {
		m.shards[i] = &shard[V]{items: make(map[string]V)}
	}
	return m
}

func (m *Map[V]) shardFor(key string) *shard[V] {
	return m.shards[m.shardIndex(key)]
}

func (m *Map[V]) shardIndex(key string) uint32 {
	return murmur3.Sum32WithSeed([]byte(key), m.seed) & m.mask
}

// Get returns the value stored under key.
func (m *Map[V]) Get(key string) (V, bool) {
	s := m.shardFor(key)
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.items[key]
	return v, ok
}

// Set stores value under key, replacing any previous value.
func (m *Map[V]) Set(key string, value V) {
	s := m.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[key] = value
}

// SetIfAbsent stores value only if key is not present. It reports whether
// the value was stored.
func (m *Map[V]) SetIfAbsent(key string, value V) bool {
	s := m.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[key]; ok {
		return false
	}
	s.items[key] = value
	return true
}

// Update calls fn with the current value while holding the shard lock and
// stores the result if fn returns true. It reports whether key existed.
func (m *Map[V]) Update(key string, fn func(value V) (V, bool)) bool {
	s := m.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.items[key]
	if !ok {
		return false
	}
	if next, store := fn(cur); store {
		s.items[key] = next
	}
	return true
}

// Delete removes key.
func (m *Map[V]) Delete(key string) {
	s := m.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, key)
}

// Pop removes key and returns its value. Of several concurrent Pops of the
// same key exactly one reports true.
func (m *Map[V]) Pop(key string) (V, bool) {
	s := m.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.items[key]
	if ok {
		delete(s.items, key)
	}
	return v, ok
}

// Count returns the number of entries.
func (m *Map[V]) Count() int {
	n := 0
	for _, s := range m.shards {
		s.mu.RLock()
		n += len(s.items)
		s.mu.RUnlock()
	}
	return n
}

// ShardCount returns the number of shards.
func (m *Map[V]) ShardCount() int {
	return len(m.shards)
}
