package core

import (
	"context"

	"golang.org/x/sync/singleflight"
)

// Transport executes operations against the network layer. Forward
// returns a lazy stream carrying exactly one result per operation; the
// channel is closed after the result is delivered.
type Transport interface {
	Forward(ctx context.Context, op *Operation) (<-chan Result, error)
}

// TransportFunc adapts a plain function to Transport
type TransportFunc func(ctx context.Context, op *Operation) (<-chan Result, error)

func (f TransportFunc) Forward(ctx context.Context, op *Operation) (<-chan Result, error) {
	return f(ctx, op)
}

// DedupTransport collapses concurrent identical queries, keyed by their
// derived cache key, into a single underlying transport call. Mutations
// are never deduplicated.
type DedupTransport struct {
	next  Transport
	group singleflight.Group
}

// NewDedupTransport wraps a transport with query deduplication
func NewDedupTransport(next Transport) *DedupTransport {
	return &DedupTransport{next: next}
}

func (d *DedupTransport) Forward(ctx context.Context, op *Operation) (<-chan Result, error) {
	if op == nil || op.Kind != OpQuery || op.Name == "" {
		return d.next.Forward(ctx, op)
	}
	key, err := DeriveKey(op)
	if err != nil {
		return d.next.Forward(ctx, op)
	}

	v, err, _ := d.group.Do(key.String(), func() (any, error) {
		ch, err := d.next.Forward(ctx, op)
		if err != nil {
			return nil, err
		}
		res, ok := <-ch
		if !ok {
			return Result{Errors: []ResultError{{Message: "transport closed without a result"}}}, nil
		}
		return res, nil
	})
	if err != nil {
		return nil, err
	}

	out := make(chan Result, 1)
	out <- v.(Result)
	close(out)
	return out, nil
}
