package core

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// slowTransport answers after a delay so concurrent callers overlap
type slowTransport struct {
	calls atomic.Int64
	delay time.Duration
}

func (t *slowTransport) Forward(ctx context.Context, op *Operation) (<-chan Result, error) {
	t.calls.Add(1)
	ch := make(chan Result, 1)
	go func() {
		time.Sleep(t.delay)
		ch <- Result{Data: json.RawMessage(`{"ok": true}`)}
		close(ch)
	}()
	return ch, nil
}

func forwardAndWait(t *testing.T, tr Transport, op *Operation) Result {
	t.Helper()
	ch, err := tr.Forward(context.Background(), op)
	require.NoError(t, err)
	res, ok := <-ch
	require.True(t, ok, "expected one result on the stream")
	return res
}

func TestDedupTransport_CollapsesIdenticalQueries(t *testing.T) {
	inner := &slowTransport{delay: 50 * time.Millisecond}
	d := NewDedupTransport(inner)

	const n = 5
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			res := forwardAndWait(t, d, queryOp("ListItems", `{"filter": "x"}`))
			assert.True(t, res.OK())
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int64(1), inner.calls.Load(), "identical concurrent queries must share one call")
}

func TestDedupTransport_DistinctVariablesNotCollapsed(t *testing.T) {
	inner := &slowTransport{delay: 20 * time.Millisecond}
	d := NewDedupTransport(inner)

	var wg sync.WaitGroup
	for _, vars := range []string{`{"filter": "x"}`, `{"filter": "y"}`} {
		vars := vars
		wg.Add(1)
		go func() {
			defer wg.Done()
			forwardAndWait(t, d, queryOp("ListItems", vars))
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(2), inner.calls.Load())
}

func TestDedupTransport_MutationsPassThrough(t *testing.T) {
	inner := &slowTransport{delay: 20 * time.Millisecond}
	d := NewDedupTransport(inner)

	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			forwardAndWait(t, d, mutationOp("AddItem", false, ""))
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int64(2), inner.calls.Load(), "mutations must never be deduplicated")
}

func TestTransportFunc_Adapts(t *testing.T) {
	called := false
	tr := TransportFunc(func(ctx context.Context, op *Operation) (<-chan Result, error) {
		called = true
		ch := make(chan Result, 1)
		ch <- Result{}
		close(ch)
		return ch, nil
	})

	forwardAndWait(t, tr, queryOp("ListItems", ""))
	assert.True(t, called)
}
