package core

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// affectedKey pairs a tracked cache key with the query name it belongs to
type affectedKey struct {
	query string
	key   CacheKey
}

// pendingWrite is one computed cache update awaiting the transactional
// write pass
type pendingWrite struct {
	key  CacheKey
	data []byte
}

// Execute forwards an operation and keeps the cache in sync with its
// outcome. The returned result is always the transport's result, passed
// through unmodified; cache store faults never surface here. An update
// transform failure does propagate, with the result still returned when
// one was received.
func (g *GraphSync) Execute(ctx context.Context, op *Operation) (*Result, error) {
	if op == nil {
		return nil, errors.New("graphsync: nil operation")
	}

	speculated := false
	if op.Kind == OpMutation && op.Optimistic && g.registry.isWatched(op.Name) {
		if err := g.speculate(ctx, op); err != nil {
			return nil, err
		}
		speculated = true
	}

	res, err := g.forward(ctx, op)
	if err != nil {
		// the prediction was applied but the mutation never resolved
		// successfully, so it counts as failed
		if speculated {
			g.revert(ctx, op)
		}
		return nil, err
	}

	if err := g.handleResult(ctx, op, res, speculated); err != nil {
		return res, err
	}
	return res, nil
}

func (g *GraphSync) forward(ctx context.Context, op *Operation) (*Result, error) {
	stream, err := g.transport.Forward(ctx, op)
	if err != nil {
		return nil, err
	}

	select {
	case res, ok := <-stream:
		if !ok {
			return nil, errors.New("graphsync: transport closed without a result")
		}
		return &res, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (g *GraphSync) handleResult(ctx context.Context, op *Operation, res *Result, speculated bool) error {
	switch {
	case op.Kind == OpQuery && res.OK() && g.registry.isQueryOfInterest(op.Name):
		key, err := DeriveKey(op)
		if err != nil {
			g.debugLog("query not tracked", zap.String("query", op.Name), zap.Error(err))
			return nil
		}
		g.tracker.add(op.Name, key)
		g.debugLog("tracking query", zap.String("query", op.Name), zap.Stringer("key", key))

	case op.Kind == OpMutation && res.OK() && g.registry.isWatched(op.Name):
		if speculated {
			return g.confirm(ctx, op, res.Data)
		}
		return g.commit(ctx, op, res.Data)

	case op.Kind == OpMutation && !res.OK() && g.registry.isWatched(op.Name) && speculated:
		g.revert(ctx, op)
	}
	return nil
}

// speculate snapshots every affected cache entry and applies the
// predicted mutation result on top. If a transform fails, the snapshots
// taken so far are discarded and nothing is written.
func (g *GraphSync) speculate(ctx context.Context, op *Operation) error {
	affected := g.affectedKeys(op)

	var writes []pendingWrite
	for _, a := range affected {
		current, st := g.adapter.read(ctx, a.key)
		if st != ReadOK {
			// invalidated externally; stop tracking it
			g.tracker.remove(a.query, a.key)
			continue
		}
		g.snapshots.set(a.key, current)

		out, err := g.applyTransform(op, a, op.OptimisticResponse, current)
		if err != nil {
			g.clearSnapshots(affected)
			return err
		}
		if out != nil {
			writes = append(writes, pendingWrite{key: a.key, data: out})
		}
	}

	g.flush(ctx, writes)
	g.debugLog("applied optimistic update",
		zap.String("mutation", op.Name), zap.Int("writes", len(writes)))
	return nil
}

// commit recomputes every affected cache entry from the mutation's real
// result and writes the new values inside one cache transaction.
func (g *GraphSync) commit(ctx context.Context, op *Operation, result []byte) error {
	affected := g.affectedKeys(op)

	var writes []pendingWrite
	for _, a := range affected {
		current, st := g.adapter.read(ctx, a.key)
		if st != ReadOK {
			g.tracker.remove(a.query, a.key)
			continue
		}

		out, err := g.applyTransform(op, a, result, current)
		if err != nil {
			return err
		}
		if out != nil {
			writes = append(writes, pendingWrite{key: a.key, data: out})
		}
	}

	g.flush(ctx, writes)
	g.debugLog("committed mutation update",
		zap.String("mutation", op.Name), zap.Int("writes", len(writes)))
	return nil
}

// confirm resolves a speculated mutation that succeeded. The transform
// runs against each key's saved before-state, not the speculated value,
// so server-confirmed data replaces the prediction instead of stacking on
// top of it. Keys tracked after speculation have no snapshot and are
// treated like a normal commit. All snapshots for the mutation are
// cleared exactly once, even when a transform fails.
func (g *GraphSync) confirm(ctx context.Context, op *Operation, result []byte) error {
	affected := g.affectedKeys(op)
	defer g.clearSnapshots(affected)

	var writes []pendingWrite
	for _, a := range affected {
		base := g.snapshots.beforeState(a.key)
		hadSnapshot := base != nil
		if !hadSnapshot {
			current, st := g.adapter.read(ctx, a.key)
			if st != ReadOK {
				g.tracker.remove(a.query, a.key)
				continue
			}
			base = current
		}

		out, terr := g.applyTransform(op, a, result, base)
		if terr != nil {
			return terr
		}
		switch {
		case out != nil:
			writes = append(writes, pendingWrite{key: a.key, data: out})
		case hadSnapshot:
			// no recomputed value: restore the before-state so the
			// unconfirmed prediction does not linger
			writes = append(writes, pendingWrite{key: a.key, data: base})
		}
	}

	g.flush(ctx, writes)
	g.debugLog("confirmed optimistic mutation",
		zap.String("mutation", op.Name), zap.Int("writes", len(writes)))
	return nil
}

// revert restores every affected cache entry from its snapshot and
// clears the snapshots.
func (g *GraphSync) revert(ctx context.Context, op *Operation) {
	affected := g.affectedKeys(op)

	var writes []pendingWrite
	for _, a := range affected {
		if before := g.snapshots.beforeState(a.key); before != nil {
			writes = append(writes, pendingWrite{key: a.key, data: before})
		}
	}

	g.flush(ctx, writes)
	g.clearSnapshots(affected)
	g.debugLog("reverted optimistic mutation",
		zap.String("mutation", op.Name), zap.Int("writes", len(writes)))
}

// applyTransform looks up and runs the registered transform for one
// (mutation, query) pair. Transform failures are not recovered.
func (g *GraphSync) applyTransform(op *Operation, a affectedKey, result, current []byte) ([]byte, error) {
	fn, err := g.registry.updateFunc(op.Name, a.query)
	if err != nil {
		return nil, err
	}

	out, err := fn(UpdateContext{
		Mutation: MutationInfo{Name: op.Name, Vars: op.Vars, Result: result},
		Query:    QueryInfo{Name: a.query, Vars: a.key.Vars, Result: current},
	})
	if err != nil {
		return nil, fmt.Errorf("graphsync: update transform %s/%s: %w", op.Name, a.query, err)
	}
	return out, nil
}

// flush issues all queued writes inside one cache transaction
func (g *GraphSync) flush(ctx context.Context, writes []pendingWrite) {
	if len(writes) == 0 {
		return
	}
	g.adapter.transaction(ctx, func(ctx context.Context) {
		for _, w := range writes {
			g.adapter.write(ctx, w.key, w.data)
		}
	})
}

// affectedKeys resolves the live set of tracked cache keys the mutation
// can affect. The set is recomputed on every pass, so keys tracked or
// dropped while the mutation was in flight are picked up.
func (g *GraphSync) affectedKeys(op *Operation) []affectedKey {
	var affected []affectedKey
	for _, qname := range g.registry.queryNames(op.Name) {
		for _, key := range g.tracker.keysFor(qname) {
			affected = append(affected, affectedKey{query: qname, key: key})
		}
	}
	return affected
}

// clearSnapshots discards the snapshots for the given keys
func (g *GraphSync) clearSnapshots(affected []affectedKey) {
	for _, a := range affected {
		g.snapshots.clear(a.key)
	}
}
