package tracking

import (
	"context"
	"time"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Carmen-Shannon/oxy-xr/engine/hand"
)

// SimulatedHands scripts a repeating gesture cycle for desktop runs without a hand
// tracking provider. Each cycle holds an open hand, drags a pinch sideways and then
// swipes with the finger row moving away from the viewer.
type SimulatedHands struct {
	// Chirality is the hand to animate.
	Chirality hand.Chirality

	// Origin is the anchor position of the hand at rest.
	Origin mgl32.Vec3

	// Phase is how long each of the three gestures is held.
	Phase time.Duration

	// Rate is how often Run emits an update.
	Rate time.Duration

	start time.Time
}

// NewSimulatedHands returns a right-hand script half a metre in front of and below
// the viewer, with two-second phases emitted at 90 Hz.
func NewSimulatedHands(start time.Time) *SimulatedHands {
	return &SimulatedHands{
		Chirality: hand.Right,
		Origin:    mgl32.Vec3{0.15, -0.25, -0.5},
		Phase:     2 * time.Second,
		Rate:      time.Second / 90,
		start:     start,
	}
}

// UpdateAt returns the scripted hand update for time t.
//
// Parameters:
//   - t: the sample time
//
// Returns:
//   - hand.Update: the hand pose at t
func (s *SimulatedHands) UpdateAt(t time.Time) hand.Update {
	elapsed := t.Sub(s.start)
	if elapsed < 0 {
		elapsed = 0
	}
	cycle := 3 * s.Phase
	within := elapsed % cycle
	progress := float32(within%s.Phase) / float32(s.Phase)

	switch within / s.Phase {
	case 1:
		offset := mgl32.Vec3{0.2 * math32.Sin(progress*math32.Pi), 0, 0}
		return hand.OpenHand(s.Chirality, s.Origin.Add(offset), t).Pinched(0.02)
	case 2:
		return hand.OpenHand(s.Chirality, s.Origin, t).Swiped(0.02, -0.1*progress)
	default:
		return hand.OpenHand(s.Chirality, s.Origin, t)
	}
}

// Run emits scripted updates to sink at Rate until ctx is done.
//
// Parameters:
//   - ctx: cancels the script
//   - sink: receives each update, typically Tracker.Submit
//
// Returns:
//   - error: the context error once cancelled
func (s *SimulatedHands) Run(ctx context.Context, sink func(hand.Update)) error {
	ticker := time.NewTicker(s.Rate)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			sink(s.UpdateAt(now))
		}
	}
}
