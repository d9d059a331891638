package common

import "time"

// Clock abstracts wall time so frame pacing and gesture debouncing can be driven
// by a synthetic clock in tests.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// SleepUntil blocks until the clock reaches t. Returns immediately if t is not in the future.
	SleepUntil(t time.Time)
}

type systemClock struct{}

// SystemClock returns a Clock backed by the time package.
//
// Returns:
//   - Clock: the wall clock
func SystemClock() Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time {
	return time.Now()
}

func (systemClock) SleepUntil(t time.Time) {
	if d := time.Until(t); d > 0 {
		time.Sleep(d)
	}
}
