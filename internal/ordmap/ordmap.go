package ordmap

import (
	"iter"
)

// Map is a map that maintains the order in which keys were first added.
type Map[K comparable, V any] struct {
	m     map[K]int
	order []pair[K, V]
}

// pair is a key-value pair.
type pair[K, V any] struct {
	key   K
	value V
}

// New creates a new Map.
func New[K comparable, V any]() *Map[K, V] {
	return &Map[K, V]{
		m:     make(map[K]int),
		order: []pair[K, V]{},
	}
}

// Set sets the value of a key. A key that already exists keeps its position and gets the new value.
// It reports whether the key already existed.
func (m *Map[K, V]) Set(key K, value V) (replaced bool) {
	if i, ok := m.m[key]; ok {
		m.order[i].value = value
		return true
	}

	m.m[key] = len(m.order)
	m.order = append(m.order, pair[K, V]{key: key, value: value})
	return false
}

// Get returns the value of a key.
func (m *Map[K, V]) Get(key K) (value V, ok bool) {
	i, ok := m.m[key]
	if !ok {
		return value, false
	}
	return m.order[i].value, true
}

// Iter returns an iterator that iterates over all key-value pairs.
func (m *Map[K, V]) Iter() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for _, p := range m.order {
			if !yield(p.key, p.value) {
				return
			}
		}
	}
}

// Keys returns the keys in order.
func (m *Map[K, V]) Keys() []K {
	keys := make([]K, len(m.order))
	for i, p := range m.order {
		keys[i] = p.key
	}
	return keys
}

// Len returns the number of key-value pairs in the map.
func (m *Map[K, V]) Len() int {
	return len(m.order)
}

// Delete deletes a key from the map.
func (m *Map[K, V]) Delete(key K) {
	i, ok := m.m[key]
	if !ok {
		return
	}

	delete(m.m, key)
	m.order = append(m.order[:i], m.order[i+1:]...)
	for j := i; j < len(m.order); j++ {
		m.m[m.order[j].key] = j
	}
}
