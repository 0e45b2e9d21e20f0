package cmap

// Range calls fn for each entry until fn returns false. fn must not call
// back into the map.
func (m *Map[V]) Range(fn func(key string, value V) bool) {
	for _, s := range m.shards {
		s.mu.RLock()
		for k, v := range s.items {
			if !fn(k, v) {
				s.mu.RUnlock()
				return
			}
		}
		s.mu.RUnlock()
	}
}

// Values returns every value.
func (m *Map[V]) Values() []V {
	values := make([]V, 0, m.Count())
	m.Range(func(_ string, v V) bool {
		values = append(values, v)
		return true
	})
	return values
}

// PopIf removes and returns every entry for which match returns true.
func (m *Map[V]) PopIf(match func(key string, value V) bool) []V {
	var out []V
	for _, s := range m.shards {
		s.mu.Lock()
		for k, v := range s.items {
			if match(k, v) {
				out = append(out, v)
				delete(s.items, k)
			}
		}
		s.mu.Unlock()
	}
	return out
}

// Drain removes and returns every entry.
func (m *Map[V]) Drain() []V {
	return m.PopIf(func(string, V) bool { return true })
}
