package core

import (
	"context"
	"encoding/json"
)

// Store is the underlying cache store boundary. Implementations own
// storage, normalization and expiry; the engine never depends on those
// internals. See the store package for the bundled backends.
type Store interface {
	// ReadQuery returns the cached data for a key, or ErrNotFound.
	ReadQuery(ctx context.Context, key CacheKey) (json.RawMessage, error)

	// WriteQuery stores data under a key.
	WriteQuery(ctx context.Context, key CacheKey, data json.RawMessage) error

	// Evict removes everything stored under the given root field name.
	// Reports whether anything was evicted.
	Evict(ctx context.Context, field string) (bool, error)

	// GC triggers store garbage collection.
	GC(ctx context.Context) error
}

// TransactionalStore is implemented by stores with an atomic batch
// mechanism. Writes issued inside the body must not be individually
// observable before the body completes.
type TransactionalStore interface {
	PerformTransaction(ctx context.Context, body func(ctx context.Context) error) error
}
