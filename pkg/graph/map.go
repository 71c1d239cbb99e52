package graph

import "slices"

// Map is an insertion-ordered map used for map features.
// Keys must be comparable; a nil key is allowed.
type Map struct {
	keys []any
	vals map[any]any
}

// NewMap creates an empty map.
func NewMap() *Map {
	return &Map{vals: make(map[any]any)}
}

// Len returns the number of entries.
func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Keys returns the keys in insertion order.
func (m *Map) Keys() []any {
	if m == nil {
		return nil
	}
	return slices.Clone(m.keys)
}

// Get returns the value for key.
func (m *Map) Get(key any) (any, bool) {
	if m == nil {
		return nil, false
	}
	v, ok := m.vals[key]
	return v, ok
}

// Put sets key to v. Existing keys keep their position.
func (m *Map) Put(key, v any) {
	if _, ok := m.vals[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.vals[key] = v
}

// Delete removes key and reports whether it was present.
func (m *Map) Delete(key any) bool {
	if _, ok := m.vals[key]; !ok {
		return false
	}
	delete(m.vals, key)
	m.keys = slices.DeleteFunc(m.keys, func(k any) bool { return k == key })
	return true
}
