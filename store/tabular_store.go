package store

import (
	"sync"

	"github.com/dolly-parseton/Panopticon/tabular"
)

// TabularStore is a flat map from dotted path string to tabular.Value.
type TabularStore struct {
	mu   sync.RWMutex
	data map[string]tabular.Value
}

// NewTabularStore creates an empty TabularStore.
func NewTabularStore() *TabularStore {
	return &TabularStore{data: make(map[string]tabular.Value)}
}

// Insert stores v under the dotted rendering of path.
func (t *TabularStore) Insert(path string, v tabular.Value) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.data[path] = v
}

// Get returns the value stored at path, if any.
func (t *TabularStore) Get(path string) (tabular.Value, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	v, ok := t.data[path]
	return v, ok
}

// Remove deletes the value at path.
func (t *TabularStore) Remove(path string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.data, path)
}

// Keys returns all currently-populated dotted paths.
func (t *TabularStore) Keys() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]string, 0, len(t.data))
	for k := range t.data {
		out = append(out, k)
	}
	return out
}
