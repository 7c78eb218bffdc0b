package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dosco/graphsync/core"
)

// Hardcoded constants for redis store behavior
const (
	respKeyPrefix      = "gs:cache:resp:"       // cached responses
	fieldKeyPrefix     = "gs:cache:field:"      // root-field index sets
	redisTimeout       = 100 * time.Millisecond // per-operation timeout
	redisGCTimeout     = 5 * time.Second        // GC scan budget
	redisRetryInterval = 30 * time.Second       // retry interval when unavailable
)

// ErrUnavailable is returned while the redis backend is down and the
// retry interval has not elapsed.
var ErrUnavailable = errors.New("store: redis unavailable")

// Redis is a redis-backed implementation of core.Store. Responses are
// stored as plain values and indexed per root field in sets, so eviction
// by field is a set lookup plus a batched delete. Transactions use a
// TxPipeline carried through the body's context.
type Redis struct {
	instrumented

	client *redis.Client
	ttl    time.Duration

	available availability
}

// NewRedis creates a redis store from a URL. The ttl bounds every cached
// response; zero means no expiry.
func NewRedis(redisURL string, ttl time.Duration) (*Redis, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	r := &Redis{
		instrumented: newInstrumented(),
		client:       client,
		ttl:          ttl,
	}
	r.available.up()
	return r, nil
}

func respKey(key core.CacheKey) string { return respKeyPrefix + key.String() }

// ReadQuery returns the cached data for a key, or core.ErrNotFound
func (r *Redis) ReadQuery(ctx context.Context, key core.CacheKey) (json.RawMessage, error) {
	if !r.ready(ctx) {
		r.recordError(ctx)
		return nil, ErrUnavailable
	}

	tctx, cancel := context.WithTimeout(ctx, redisTimeout)
	defer cancel()

	val, err := r.client.Get(tctx, respKey(key)).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		r.recordMiss(ctx)
		return nil, core.ErrNotFound
	case err != nil:
		r.recordError(ctx)
		r.available.down()
		return nil, err
	}

	r.recordHit(ctx)
	return val, nil
}

// WriteQuery stores data under a key and indexes it by root field.
// Inside a transaction the commands are queued on the pipeline instead.
func (r *Redis) WriteQuery(ctx context.Context, key core.CacheKey, data json.RawMessage) error {
	if pipe := txPipeFrom(ctx); pipe != nil {
		r.queueWrite(ctx, pipe, key, data)
		return nil
	}

	if !r.ready(ctx) {
		r.recordError(ctx)
		return ErrUnavailable
	}

	tctx, cancel := context.WithTimeout(ctx, redisTimeout)
	defer cancel()

	pipe := r.client.TxPipeline()
	r.queueWrite(tctx, pipe, key, data)
	if _, err := pipe.Exec(tctx); err != nil {
		r.recordError(ctx)
		r.available.down()
		return err
	}

	r.recordWrite(ctx)
	return nil
}

func (r *Redis) queueWrite(ctx context.Context, pipe redis.Pipeliner, key core.CacheKey, data json.RawMessage) {
	rk := respKey(key)
	pipe.Set(ctx, rk, []byte(data), r.ttl)
	for _, f := range key.Fields {
		fk := fieldKeyPrefix + f
		pipe.SAdd(ctx, fk, rk)
		if r.ttl > 0 {
			pipe.Expire(ctx, fk, r.ttl)
		}
	}
}

// Evict deletes every response indexed under the given root field
func (r *Redis) Evict(ctx context.Context, field string) (bool, error) {
	if !r.ready(ctx) {
		r.recordError(ctx)
		return false, ErrUnavailable
	}

	tctx, cancel := context.WithTimeout(ctx, redisTimeout)
	defer cancel()

	fk := fieldKeyPrefix + field
	keys, err := r.client.SMembers(tctx, fk).Result()
	if err != nil {
		r.recordError(ctx)
		r.available.down()
		return false, err
	}
	if len(keys) == 0 {
		return false, nil
	}

	pipe := r.client.TxPipeline()
	pipe.Del(tctx, keys...)
	pipe.Del(tctx, fk)
	if _, err := pipe.Exec(tctx); err != nil {
		r.recordError(ctx)
		r.available.down()
		return false, err
	}

	r.recordEviction(ctx, int64(len(keys)))
	return true, nil
}

// GC removes index members whose responses have expired
func (r *Redis) GC(ctx context.Context) error {
	if !r.ready(ctx) {
		return ErrUnavailable
	}

	tctx, cancel := context.WithTimeout(ctx, redisGCTimeout)
	defer cancel()

	iter := r.client.Scan(tctx, 0, fieldKeyPrefix+"*", 100).Iterator()
	for iter.Next(tctx) {
		fk := iter.Val()
		members, err := r.client.SMembers(tctx, fk).Result()
		if err != nil {
			return err
		}
		for _, m := range members {
			n, err := r.client.Exists(tctx, m).Result()
			if err != nil {
				return err
			}
			if n == 0 {
				r.client.SRem(tctx, fk, m)
			}
		}
	}
	return iter.Err()
}

// PerformTransaction queues writes issued inside body on one TxPipeline
// and executes them together. A body error discards the pipeline.
func (r *Redis) PerformTransaction(ctx context.Context, body func(ctx context.Context) error) error {
	if !r.ready(ctx) {
		return ErrUnavailable
	}

	pipe := r.client.TxPipeline()
	if err := body(context.WithValue(ctx, txPipeCtxKey{}, pipe)); err != nil {
		pipe.Discard()
		return err
	}

	tctx, cancel := context.WithTimeout(ctx, redisTimeout)
	defer cancel()
	if _, err := pipe.Exec(tctx); err != nil {
		r.recordError(ctx)
		r.available.down()
		return err
	}
	return nil
}

// Close releases the client
func (r *Redis) Close() error {
	return r.client.Close()
}

// ready reports whether the backend is usable, re-probing at most once
// per retry interval after a fault.
func (r *Redis) ready(ctx context.Context) bool {
	if r.available.ok() {
		return true
	}
	if !r.available.shouldRetry(redisRetryInterval) {
		return false
	}

	tctx, cancel := context.WithTimeout(ctx, redisTimeout)
	defer cancel()
	if err := r.client.Ping(tctx).Err(); err != nil {
		return false
	}
	r.available.up()
	return true
}

// txPipeCtxKey carries the active pipeline through a transaction body
type txPipeCtxKey struct{}

func txPipeFrom(ctx context.Context) redis.Pipeliner {
	p, _ := ctx.Value(txPipeCtxKey{}).(redis.Pipeliner)
	return p
}
