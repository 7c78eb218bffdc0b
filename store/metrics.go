package store

import (
	"context"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// CacheMetrics tracks store activity. Counters are safe for concurrent use.
type CacheMetrics struct {
	Hits      atomic.Int64
	Misses    atomic.Int64
	Writes    atomic.Int64
	Evictions atomic.Int64
	Errors    atomic.Int64
}

// Snapshot returns the current counter values
func (m *CacheMetrics) Snapshot() map[string]int64 {
	return map[string]int64{
		"hits":      m.Hits.Load(),
		"misses":    m.Misses.Load(),
		"writes":    m.Writes.Load(),
		"evictions": m.Evictions.Load(),
		"errors":    m.Errors.Load(),
	}
}

// otelInstruments holds the OpenTelemetry counters mirrored by every store
type otelInstruments struct {
	hits      metric.Int64Counter
	misses    metric.Int64Counter
	writes    metric.Int64Counter
	evictions metric.Int64Counter
	errors    metric.Int64Counter
}

func newOtelInstruments() otelInstruments {
	meter := otel.Meter("graphsync/store")

	var oi otelInstruments
	oi.hits, _ = meter.Int64Counter("graphsync.store.hits",
		metric.WithDescription("Number of cache hits"))
	oi.misses, _ = meter.Int64Counter("graphsync.store.misses",
		metric.WithDescription("Number of cache misses"))
	oi.writes, _ = meter.Int64Counter("graphsync.store.writes",
		metric.WithDescription("Number of cache writes"))
	oi.evictions, _ = meter.Int64Counter("graphsync.store.evictions",
		metric.WithDescription("Number of cache entries evicted"))
	oi.errors, _ = meter.Int64Counter("graphsync.store.errors",
		metric.WithDescription("Number of store errors"))
	return oi
}

// instrumented records both internal counters and OTel metrics.
// Embedded by the store backends.
type instrumented struct {
	metrics *CacheMetrics
	otel    otelInstruments
}

func newInstrumented() instrumented {
	return instrumented{metrics: &CacheMetrics{}, otel: newOtelInstruments()}
}

// Metrics returns the store's internal counters
func (i *instrumented) Metrics() *CacheMetrics { return i.metrics }

func (i *instrumented) recordHit(ctx context.Context) {
	i.metrics.Hits.Add(1)
	if i.otel.hits != nil {
		i.otel.hits.Add(ctx, 1)
	}
}

func (i *instrumented) recordMiss(ctx context.Context) {
	i.metrics.Misses.Add(1)
	if i.otel.misses != nil {
		i.otel.misses.Add(ctx, 1)
	}
}

func (i *instrumented) recordWrite(ctx context.Context) {
	i.metrics.Writes.Add(1)
	if i.otel.writes != nil {
		i.otel.writes.Add(ctx, 1)
	}
}

func (i *instrumented) recordEviction(ctx context.Context, count int64) {
	i.metrics.Evictions.Add(count)
	if i.otel.evictions != nil {
		i.otel.evictions.Add(ctx, count)
	}
}

func (i *instrumented) recordError(ctx context.Context) {
	i.metrics.Errors.Add(1)
	if i.otel.errors != nil {
		i.otel.errors.Add(ctx, 1)
	}
}
