package core

import "sync"

// queryKeyTracker records, per query name, the concrete cache keys that
// have been observed resolving successfully at runtime. The same query
// name with different variables yields independent keys. Keys are kept in
// insertion order and deduplicated by structural equality, since equal
// keys may arrive as distinct instances across calls.
type queryKeyTracker struct {
	mu   sync.RWMutex
	keys map[string][]CacheKey
}

func newQueryKeyTracker() *queryKeyTracker {
	return &queryKeyTracker{keys: make(map[string][]CacheKey)}
}

// add appends the key to the query's tracked set unless a structurally
// equal key is already present.
func (t *queryKeyTracker) add(query string, key CacheKey) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, k := range t.keys[query] {
		if k.fp == key.fp && k.Equal(key) {
			return
		}
	}
	t.keys[query] = append(t.keys[query], key)
}

// remove deletes the structurally equal entry, if present
func (t *queryKeyTracker) remove(query string, key CacheKey) {
	t.mu.Lock()
	defer t.mu.Unlock()

	keys := t.keys[query]
	for i, k := range keys {
		if k.fp == key.fp && k.Equal(key) {
			t.keys[query] = append(keys[:i:i], keys[i+1:]...)
			if len(t.keys[query]) == 0 {
				delete(t.keys, query)
			}
			return
		}
	}
}

// keysFor returns a copy of the keys tracked for a query name
func (t *queryKeyTracker) keysFor(query string) []CacheKey {
	t.mu.RLock()
	defer t.mu.RUnlock()

	keys := t.keys[query]
	if len(keys) == 0 {
		return nil
	}
	return append([]CacheKey(nil), keys...)
}

// has reports whether any key is tracked for a query name
func (t *queryKeyTracker) has(query string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.keys[query]) > 0
}
