package tracking

import (
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/oxy-xr/engine/gesture"
	"github.com/Carmen-Shannon/oxy-xr/engine/hand"
)

// Snapshot is an immutable copy of the tracking context's joint buffer and gesture
// state, published once per processed hand update.
type Snapshot struct {
	// Seq increases by one with every published snapshot.
	Seq uint64

	// Joints is the joint buffer as of this snapshot.
	Joints hand.JointSampleBuffer

	// Gesture is the gesture state as of this snapshot.
	Gesture gesture.State

	// Timestamp is the sample time of the update that produced this snapshot.
	Timestamp time.Time
}

// Mailbox is a single-slot, lock-free hand-off for Snapshots. Writers replace the
// slot; readers always see the latest complete snapshot and never a partial one.
// The zero value is empty and ready to use.
type Mailbox struct {
	latest atomic.Pointer[Snapshot]
}

// Publish replaces the current snapshot. The snapshot must not be modified afterwards.
func (m *Mailbox) Publish(s *Snapshot) {
	m.latest.Store(s)
}

// Latest returns the most recently published snapshot.
//
// Returns:
//   - *Snapshot: the latest snapshot, nil if nothing has been published
//   - bool: true if a snapshot is available
func (m *Mailbox) Latest() (*Snapshot, bool) {
	s := m.latest.Load()
	return s, s != nil
}
