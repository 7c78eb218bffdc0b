package store

import (
	"sync/atomic"
	"time"
)

// availability is a small breaker around a flaky backend: after a fault
// the backend is considered down until shouldRetry grants one probe per
// retry interval.
type availability struct {
	healthy   atomic.Bool
	lastCheck atomic.Int64
}

func (a *availability) ok() bool { return a.healthy.Load() }

func (a *availability) up() { a.healthy.Store(true) }

func (a *availability) down() {
	a.healthy.Store(false)
	a.lastCheck.Store(time.Now().UnixMilli())
}

// shouldRetry grants a single probe once the interval has elapsed
func (a *availability) shouldRetry(interval time.Duration) bool {
	last := a.lastCheck.Load()
	now := time.Now().UnixMilli()
	if now-last < interval.Milliseconds() {
		return false
	}
	return a.lastCheck.CompareAndSwap(last, now)
}
