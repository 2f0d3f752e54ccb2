// Package limiter bounds the number of provider calls in flight at once.
//
// Each orchestrator owns its own Limiter instance; there is no package-level
// state, so concurrent orchestrators and tests never share slots.
package limiter

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// DefaultMaxConcurrent is the slot count used when none is configured.
const DefaultMaxConcurrent = 3

// Limiter is a bounded-parallelism gate. Waiters are served in FIFO order.
// It holds only the semaphore; callers release exactly once per acquisition
// when their call settles.
type Limiter struct {
	sem  *semaphore.Weighted
	size int
}

// New creates a Limiter with n slots. Values below 1 fall back to
// DefaultMaxConcurrent.
func New(n int) *Limiter {
	if n < 1 {
		n = DefaultMaxConcurrent
	}
	return &Limiter{
		sem:  semaphore.NewWeighted(int64(n)),
		size: n,
	}
}

// Acquire blocks until a slot is free or ctx is done.
func (l *Limiter) Acquire(ctx context.Context) error {
	return l.sem.Acquire(ctx, 1)
}

// Release returns a slot. It must be called exactly once per successful
// Acquire.
func (l *Limiter) Release() {
	l.sem.Release(1)
}

// Size returns the configured slot count.
func (l *Limiter) Size() int {
	return l.size
}
