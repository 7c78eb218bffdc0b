// Package core keeps a client-side query-result cache consistent after
// mutations complete. A static registry declares which queries each
// watched mutation can affect; a runtime tracker discovers the concrete
// (query, variables) cache keys as queries resolve; the engine recomputes
// and rewrites affected entries when mutations succeed, including an
// optimistic apply / commit-or-revert cycle for locally predicted results.
package core

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/dosco/graphsync/internal/util"
)

// GraphSync is the synchronization engine. Instances own their tracker
// and snapshot state, so multiple engines can coexist without
// interference.
type GraphSync struct {
	conf      Config
	adapter   *cacheAdapter
	registry  *mutationRegistry
	tracker   *queryKeyTracker
	snapshots *optimisticSnapshots
	transport Transport
	log       *zap.Logger
}

// NewGraphSync builds the engine. It fails fast on a nil store or
// transport and on malformed mutation configuration.
func NewGraphSync(conf Config, store Store, transport Transport) (*GraphSync, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: nil store", ErrInvalidConfig)
	}
	if transport == nil {
		return nil, fmt.Errorf("%w: nil transport", ErrInvalidConfig)
	}

	registry, err := newMutationRegistry(conf.Mutations)
	if err != nil {
		return nil, err
	}

	log := conf.Logger
	if log == nil {
		if conf.Debug {
			log = util.NewLogger(false, zap.DebugLevel)
		} else {
			log = zap.NewNop()
		}
	}

	return &GraphSync{
		conf:      conf,
		adapter:   newCacheAdapter(store, log, conf.Debug, conf.ReadOnly),
		registry:  registry,
		tracker:   newQueryKeyTracker(),
		snapshots: newOptimisticSnapshots(),
		transport: transport,
		log:       log,
	}, nil
}

// MutationNames lists the watched mutation names, for diagnostics
func (g *GraphSync) MutationNames() []string {
	return g.registry.mutationNames()
}

// TrackedKeys returns the cache keys currently tracked for a query name
func (g *GraphSync) TrackedKeys(query string) []CacheKey {
	return g.tracker.keysFor(query)
}

// Evict removes the store entries for every root field selected by the
// operation. Best effort; reports whether anything was evicted. Only
// top-level fields are considered.
func (g *GraphSync) Evict(ctx context.Context, op *Operation) bool {
	key, err := DeriveKey(op)
	if err != nil {
		g.debugLog("evict skipped", zap.Error(err))
		return false
	}
	return g.adapter.evict(ctx, key)
}

// GC triggers store garbage collection. Failures are logged, never
// returned.
func (g *GraphSync) GC(ctx context.Context) {
	g.adapter.gc(ctx)
}

func (g *GraphSync) debugLog(msg string, fields ...zap.Field) {
	if g.conf.Debug {
		g.log.Debug(msg, fields...)
	}
}
