package core

import (
	"encoding/json"
	"fmt"
	"sort"
)

// UpdateFunc computes a query's new cached value from a mutation's effect.
// Returning nil data means no write is needed for this key. It must not
// mutate its inputs. A non-nil error is a caller-configuration defect and
// propagates to the Execute caller, unlike cache store faults.
type UpdateFunc func(UpdateContext) (json.RawMessage, error)

// UpdateContext carries both sides of one update computation.
type UpdateContext struct {
	Mutation MutationInfo
	Query    QueryInfo
}

// MutationInfo describes the mutation driving an update
type MutationInfo struct {
	Name   string
	Vars   json.RawMessage
	Result json.RawMessage
}

// QueryInfo describes the cached query being updated
type QueryInfo struct {
	Name   string
	Vars   map[string]any
	Result json.RawMessage
}

// mutationRegistry is the static mutation -> affected-queries mapping,
// built once at construction and immutable thereafter.
type mutationRegistry struct {
	mutations  map[string]*mutationEntry
	allQueries map[string]bool
	names      []string
}

type mutationEntry struct {
	queries []string
	updates map[string]UpdateFunc
}

// newMutationRegistry validates and indexes the caller configuration.
// Query name order within a mutation is sorted so lookups and update
// passes are deterministic regardless of map iteration order.
func newMutationRegistry(conf map[string]map[string]UpdateFunc) (*mutationRegistry, error) {
	r := &mutationRegistry{
		mutations:  make(map[string]*mutationEntry, len(conf)),
		allQueries: make(map[string]bool),
	}

	for mname, queries := range conf {
		if mname == "" {
			return nil, fmt.Errorf("%w: empty mutation name", ErrInvalidConfig)
		}
		if len(queries) == 0 {
			return nil, fmt.Errorf("%w: mutation %q watches no queries", ErrInvalidConfig, mname)
		}

		e := &mutationEntry{updates: make(map[string]UpdateFunc, len(queries))}
		for qname, fn := range queries {
			if qname == "" {
				return nil, fmt.Errorf("%w: mutation %q has an empty query name", ErrInvalidConfig, mname)
			}
			if fn == nil {
				return nil, fmt.Errorf("%w: mutation %q has no update function for query %q",
					ErrInvalidConfig, mname, qname)
			}
			e.queries = append(e.queries, qname)
			e.updates[qname] = fn
			r.allQueries[qname] = true
		}
		sort.Strings(e.queries)

		r.mutations[mname] = e
		r.names = append(r.names, mname)
	}
	sort.Strings(r.names)

	return r, nil
}

func (r *mutationRegistry) isWatched(mutation string) bool {
	_, ok := r.mutations[mutation]
	return ok
}

// queryNames returns the query names a mutation can affect, empty for an
// unwatched mutation.
func (r *mutationRegistry) queryNames(mutation string) []string {
	e, ok := r.mutations[mutation]
	if !ok {
		return nil
	}
	return append([]string(nil), e.queries...)
}

// updateFunc returns the transform for a registered (mutation, query)
// pair. Callers must only ask for registered pairs.
func (r *mutationRegistry) updateFunc(mutation, query string) (UpdateFunc, error) {
	e, ok := r.mutations[mutation]
	if !ok {
		return nil, fmt.Errorf("%w: mutation %q", ErrMissingUpdateFunc, mutation)
	}
	fn, ok := e.updates[query]
	if !ok {
		return nil, fmt.Errorf("%w: mutation %q query %q", ErrMissingUpdateFunc, mutation, query)
	}
	return fn, nil
}

// isQueryOfInterest reports whether any watched mutation can affect the
// given query name.
func (r *mutationRegistry) isQueryOfInterest(query string) bool {
	return r.allQueries[query]
}

// mutationNames lists the watched mutation names, for diagnostics
func (r *mutationRegistry) mutationNames() []string {
	return append([]string(nil), r.names...)
}
