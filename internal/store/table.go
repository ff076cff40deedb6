// Package store owns the in-memory entity tables the valuation engine
// reads and the forecast records it writes. Each table is an explicitly
// owned keyed map with last-write-wins replace semantics; there are no
// transactions and no ambient singletons — the engine receives the store
// by reference.
package store

import "sync"

// Table is a keyed in-memory collection of one entity type. Refreshes
// replace contents wholesale; concurrent readers are safe against the
// writer but see either the old or new generation, never a blend.
type Table[T any] struct {
	mu sync.RWMutex
	m  map[string]T
}

// NewTable returns an empty table.
func NewTable[T any]() *Table[T] {
	return &Table[T]{m: make(map[string]T)}
}

// Get returns the entity for key.
func (t *Table[T]) Get(key string) (T, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	v, ok := t.m[key]
	return v, ok
}

// Put upserts one entity.
func (t *Table[T]) Put(key string, v T) {
	t.mu.Lock()
	t.m[key] = v
	t.mu.Unlock()
}

// Delete removes one entity.
func (t *Table[T]) Delete(key string) {
	t.mu.Lock()
	delete(t.m, key)
	t.mu.Unlock()
}

// ReplaceAll swaps the full contents for a freshly loaded generation.
func (t *Table[T]) ReplaceAll(m map[string]T) {
	if m == nil {
		m = make(map[string]T)
	}
	t.mu.Lock()
	t.m = m
	t.mu.Unlock()
}

// Keys returns a copy of the current key set.
func (t *Table[T]) Keys() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	keys := make([]string, 0, len(t.m))
	for k := range t.m {
		keys = append(keys, k)
	}
	return keys
}

// Len returns the entity count.
func (t *Table[T]) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.m)
}

// ForEach visits every entity under the read lock.
func (t *Table[T]) ForEach(fn func(key string, v T)) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for k, v := range t.m {
		fn(k, v)
	}
}
