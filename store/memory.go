// Package store provides cache store backends for the graphsync engine:
// an in-memory LRU store and a Redis store, both with root-field indexed
// eviction and transactional write batching.
package store

import (
	"context"
	"encoding/json"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/dosco/graphsync/core"
)

// Default memory store size (number of entries)
const defaultMemoryStoreSize = 10000

// Memory is an in-memory LRU implementation of core.Store. Writes issued
// inside PerformTransaction are staged and applied together after the
// body completes.
type Memory struct {
	instrumented

	cache *lru.Cache[string, json.RawMessage]

	// field sub-identifier -> response keys
	mu         sync.Mutex
	fieldIndex map[string]map[string]bool
}

// NewMemory creates a new in-memory store
func NewMemory(maxEntries int) (*Memory, error) {
	if maxEntries <= 0 {
		maxEntries = defaultMemoryStoreSize
	}

	cache, err := lru.New[string, json.RawMessage](maxEntries)
	if err != nil {
		return nil, err
	}

	return &Memory{
		instrumented: newInstrumented(),
		cache:        cache,
		fieldIndex:   make(map[string]map[string]bool),
	}, nil
}

// fieldKey is the store-level sub-identifier for a root field
func fieldKey(name string) string { return "field:" + name }

// ReadQuery returns the cached data for a key. Inside a transaction,
// staged writes are visible to the transaction's own reads.
func (m *Memory) ReadQuery(ctx context.Context, key core.CacheKey) (json.RawMessage, error) {
	if batch := txBatchFrom(ctx); batch != nil {
		if data, ok := batch.get(key); ok {
			m.recordHit(ctx)
			return data, nil
		}
	}

	data, ok := m.cache.Get(key.String())
	if !ok {
		m.recordMiss(ctx)
		return nil, core.ErrNotFound
	}
	m.recordHit(ctx)
	return data, nil
}

// WriteQuery stores data under a key and indexes it by root field
func (m *Memory) WriteQuery(ctx context.Context, key core.CacheKey, data json.RawMessage) error {
	if batch := txBatchFrom(ctx); batch != nil {
		batch.add(key, data)
		return nil
	}
	m.apply(ctx, key, data)
	return nil
}

func (m *Memory) apply(ctx context.Context, key core.CacheKey, data json.RawMessage) {
	skey := key.String()
	m.cache.Add(skey, data)

	m.mu.Lock()
	for _, f := range key.Fields {
		fk := fieldKey(f)
		if m.fieldIndex[fk] == nil {
			m.fieldIndex[fk] = make(map[string]bool)
		}
		m.fieldIndex[fk][skey] = true
	}
	m.mu.Unlock()

	m.recordWrite(ctx)
}

// Evict removes every response indexed under the given root field.
// Reports whether anything was evicted.
func (m *Memory) Evict(ctx context.Context, field string) (bool, error) {
	fk := fieldKey(field)

	m.mu.Lock()
	keys := m.fieldIndex[fk]
	delete(m.fieldIndex, fk)
	m.mu.Unlock()

	evicted := int64(0)
	for k := range keys {
		if m.cache.Remove(k) {
			evicted++
		}
	}
	if evicted > 0 {
		m.recordEviction(ctx, evicted)
	}
	return evicted > 0, nil
}

// GC drops index entries whose responses were evicted by the LRU
func (m *Memory) GC(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for fk, keys := range m.fieldIndex {
		for k := range keys {
			if !m.cache.Contains(k) {
				delete(keys, k)
			}
		}
		if len(keys) == 0 {
			delete(m.fieldIndex, fk)
		}
	}
	return nil
}

// PerformTransaction stages writes issued inside body and applies them
// together after it returns. A body error discards the whole batch.
func (m *Memory) PerformTransaction(ctx context.Context, body func(ctx context.Context) error) error {
	batch := newTxBatch()
	if err := body(context.WithValue(ctx, txBatchCtxKey{}, batch)); err != nil {
		return err
	}

	batch.mu.Lock()
	defer batch.mu.Unlock()
	for _, w := range batch.order {
		m.apply(ctx, w.key, w.data)
	}
	return nil
}

// Close purges the store
func (m *Memory) Close() error {
	m.cache.Purge()
	m.mu.Lock()
	m.fieldIndex = make(map[string]map[string]bool)
	m.mu.Unlock()
	return nil
}

// txBatchCtxKey carries the active write batch through a transaction body
type txBatchCtxKey struct{}

type stagedWrite struct {
	key  core.CacheKey
	data json.RawMessage
}

type txBatch struct {
	mu     sync.Mutex
	order  []stagedWrite
	staged map[string]json.RawMessage
}

func newTxBatch() *txBatch {
	return &txBatch{staged: make(map[string]json.RawMessage)}
}

func txBatchFrom(ctx context.Context) *txBatch {
	b, _ := ctx.Value(txBatchCtxKey{}).(*txBatch)
	return b
}

func (b *txBatch) add(key core.CacheKey, data json.RawMessage) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.order = append(b.order, stagedWrite{key: key, data: data})
	b.staged[key.String()] = data
}

func (b *txBatch) get(key core.CacheKey) (json.RawMessage, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	data, ok := b.staged[key.String()]
	return data, ok
}
