package common

import (
	"sync"
	"time"
)

// ManualClock is a Clock whose time only moves when told to. SleepUntil jumps the
// clock forward instead of blocking, which keeps paced loops deterministic under test.
type ManualClock struct {
	mu  sync.Mutex
	now time.Time
}

var _ Clock = &ManualClock{}

// NewManualClock creates a ManualClock starting at start.
//
// Parameters:
//   - start: the initial time
//
// Returns:
//   - *ManualClock: the clock
func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{now: start}
}

func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *ManualClock) SleepUntil(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if t.After(c.now) {
		c.now = t
	}
}

// Advance moves the clock forward by d and returns the new time.
func (c *ManualClock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	return c.now
}
