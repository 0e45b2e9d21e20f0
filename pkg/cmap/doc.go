// Package cmap provides a string-keyed concurrent map split into shards.
//
// Keys are spread across shards with a seeded murmur3 hash; each shard has
// its own RWMutex, so operations on different keys rarely contend.
//
// Usage:
//
//	m := cmap.New[*Record](cmap.WithShardCount(32))
//	m.Set("ohob-01h...", rec)
//	rec, ok := m.Pop("ohob-01h...")
//
// Iteration (Range, Values, Drain) locks one shard at a time, so it does
// not observe a single consistent snapshot of the whole map.
package cmap
