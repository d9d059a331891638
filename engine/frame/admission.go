package frame

import (
	"context"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// DefaultMaxSimultaneousRenders is the admission capacity used when none is configured.
const DefaultMaxSimultaneousRenders = 3

// Admission bounds how many frames may be in flight on the GPU at once.
// A token is acquired before a frame is encoded and released from the command
// buffer's completion callback, which may run on any goroutine.
type Admission struct {
	sem      *semaphore.Weighted
	capacity int
	held     atomic.Int64
}

// NewAdmission creates an Admission with the given capacity.
// Panics if capacity is not positive.
//
// Parameters:
//   - capacity: the maximum number of tokens held at once
//
// Returns:
//   - *Admission: the admission gate
func NewAdmission(capacity int) *Admission {
	if capacity <= 0 {
		panic(fmt.Sprintf("frame: admission capacity must be positive, got %d", capacity))
	}
	return &Admission{
		sem:      semaphore.NewWeighted(int64(capacity)),
		capacity: capacity,
	}
}

// Acquire blocks until a token is available. There is no timeout; only ctx
// cancellation ends the wait, in which case no token is held.
//
// Parameters:
//   - ctx: cancels the wait on shutdown
//
// Returns:
//   - error: ctx.Err() if the wait was cancelled
func (a *Admission) Acquire(ctx context.Context) error {
	if err := a.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	a.held.Add(1)
	return nil
}

// TryAcquire takes a token without blocking.
//
// Returns:
//   - bool: true if a token was taken
func (a *Admission) TryAcquire() bool {
	if !a.sem.TryAcquire(1) {
		return false
	}
	a.held.Add(1)
	return true
}

// Release returns one token. Panics when more tokens are released than were acquired.
func (a *Admission) Release() {
	if a.held.Add(-1) < 0 {
		a.held.Add(1)
		panic("frame: admission token released more times than acquired")
	}
	a.sem.Release(1)
}

// InFlight returns the number of tokens currently held.
func (a *Admission) InFlight() int {
	return int(a.held.Load())
}

// Capacity returns the maximum number of tokens.
func (a *Admission) Capacity() int {
	return a.capacity
}
