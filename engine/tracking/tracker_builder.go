package tracking

import (
	"log/slog"

	"github.com/Carmen-Shannon/oxy-xr/common"
	"github.com/Carmen-Shannon/oxy-xr/engine/gesture"
)

type TrackerBuilderOption func(*trackerImpl)

// WithRecognizer sets the gesture recognizer the tracker runs after every update.
//
// Parameters:
//   - r: the recognizer
//
// Returns:
//   - TrackerBuilderOption: a function that sets the recognizer
func WithRecognizer(r gesture.Recognizer) TrackerBuilderOption {
	return func(t *trackerImpl) {
		t.recognizer = r
	}
}

// WithMailbox publishes snapshots into an existing mailbox instead of a private one.
func WithMailbox(m *Mailbox) TrackerBuilderOption {
	return func(t *trackerImpl) {
		if m != nil {
			t.mailbox = m
		}
	}
}

// WithClock sets the clock used to stamp updates that arrive without a timestamp.
func WithClock(c common.Clock) TrackerBuilderOption {
	return func(t *trackerImpl) {
		t.clock = c
	}
}

// WithLogger sets the logger used for gesture transitions and dropped updates.
func WithLogger(l *slog.Logger) TrackerBuilderOption {
	return func(t *trackerImpl) {
		if l != nil {
			t.logger = l
		}
	}
}

// WithWorkers sets how many workers process submitted updates.
// The stale-update guard keeps per-hand ordering when more than one worker is used.
func WithWorkers(n int) TrackerBuilderOption {
	return func(t *trackerImpl) {
		if n > 0 {
			t.workers = n
		}
	}
}
