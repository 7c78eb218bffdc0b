package core

import "errors"

var (
	// ErrInvalidConfig is returned at construction time for a missing
	// store or transport, or a malformed mutation configuration.
	ErrInvalidConfig = errors.New("graphsync: invalid configuration")

	// ErrNotFound is returned by Store implementations when no entry
	// exists for a key.
	ErrNotFound = errors.New("graphsync: cache entry not found")

	// ErrMissingUpdateFunc is returned when an update function is looked
	// up for an unregistered (mutation, query) pair. The orchestrator
	// only asks for registered pairs, so seeing this error means a
	// defect, not a runtime condition to recover from.
	ErrMissingUpdateFunc = errors.New("graphsync: no update function registered")
)
