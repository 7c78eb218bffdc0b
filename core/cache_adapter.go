package core

import (
	"context"
	"encoding/json"
	"errors"

	"go.uber.org/zap"
)

// ReadStatus is the outcome of an adapter read. Store faults surface as a
// status instead of an error so callers can ignore them per the cache
// fault-tolerance contract.
type ReadStatus int

const (
	ReadOK ReadStatus = iota
	ReadMiss
	ReadError
)

// cacheAdapter wraps the external store with the fault-tolerance rules:
// reads never fail the caller, write/evict/gc failures are logged and
// swallowed, and nothing mutates the store in read-only mode. A failed
// cache write must not fail the operation that triggered it.
type cacheAdapter struct {
	store    Store
	log      *zap.Logger
	debug    bool
	readOnly bool
}

func newCacheAdapter(store Store, log *zap.Logger, debug, readOnly bool) *cacheAdapter {
	return &cacheAdapter{store: store, log: log, debug: debug, readOnly: readOnly}
}

func (c *cacheAdapter) read(ctx context.Context, key CacheKey) (json.RawMessage, ReadStatus) {
	data, err := c.store.ReadQuery(ctx, key)
	switch {
	case err == nil:
		return data, ReadOK
	case errors.Is(err, ErrNotFound):
		return nil, ReadMiss
	default:
		c.debugLog("cache read failed", zap.Stringer("key", key), zap.Error(err))
		return nil, ReadError
	}
}

func (c *cacheAdapter) write(ctx context.Context, key CacheKey, data json.RawMessage) {
	if c.readOnly {
		c.debugLog("cache write skipped in read-only mode", zap.Stringer("key", key))
		return
	}
	if err := c.store.WriteQuery(ctx, key, data); err != nil {
		c.debugLog("cache write failed", zap.Stringer("key", key), zap.Error(err))
	}
}

// transaction runs body inside the store's atomic batch mechanism when the
// store supports one, else runs it directly. Transaction-level store
// failures are swallowed like any other cache fault.
func (c *cacheAdapter) transaction(ctx context.Context, body func(ctx context.Context)) {
	ts, ok := c.store.(TransactionalStore)
	if !ok {
		body(ctx)
		return
	}
	err := ts.PerformTransaction(ctx, func(ctx context.Context) error {
		body(ctx)
		return nil
	})
	if err != nil {
		c.debugLog("cache transaction failed", zap.Error(err))
	}
}

// evict removes the store entries for every root field the key's operation
// selects. Best effort; reports whether anything was evicted.
func (c *cacheAdapter) evict(ctx context.Context, key CacheKey) bool {
	if c.readOnly {
		c.debugLog("cache evict skipped in read-only mode", zap.Stringer("key", key))
		return false
	}
	evicted := false
	for _, f := range key.Fields {
		ok, err := c.store.Evict(ctx, f)
		if err != nil {
			c.debugLog("cache evict failed", zap.String("field", f), zap.Error(err))
			continue
		}
		evicted = evicted || ok
	}
	return evicted
}

func (c *cacheAdapter) gc(ctx context.Context) {
	if c.readOnly {
		return
	}
	if err := c.store.GC(ctx); err != nil {
		c.debugLog("cache gc failed", zap.Error(err))
	}
}

func (c *cacheAdapter) debugLog(msg string, fields ...zap.Field) {
	if c.debug && c.log != nil {
		c.log.Debug(msg, fields...)
	}
}
