package core

import (
	"encoding/json"
	"sync"
)

// optimisticSnapshots stores each affected key's pre-mutation value while
// an optimistic mutation is unresolved. A nil value means both "nothing to
// restore" and "cleared"; either way revert writes nothing for that key.
// Entries carry no TTL and are cleared exactly once per optimistic cycle
// by the orchestrator.
//
// Two in-flight optimistic mutations touching the same key overwrite each
// other's snapshot; the last writer wins. Callers needing stronger
// guarantees must serialize such mutations themselves.
type optimisticSnapshots struct {
	mu    sync.Mutex
	prior map[string]json.RawMessage
}

func newOptimisticSnapshots() *optimisticSnapshots {
	return &optimisticSnapshots{prior: make(map[string]json.RawMessage)}
}

// set records or overwrites the snapshot for a key
func (s *optimisticSnapshots) set(key CacheKey, data json.RawMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prior[key.String()] = data
}

// beforeState returns the saved pre-mutation value, nil when there is
// nothing to restore.
func (s *optimisticSnapshots) beforeState(key CacheKey) json.RawMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prior[key.String()]
}

// clear discards the snapshot for a key
func (s *optimisticSnapshots) clear(key CacheKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.prior, key.String())
}
