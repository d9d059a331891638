// Package gesture turns the joint sample buffer into pinch, swipe and zoom state.
package gesture

import (
	"time"

	"github.com/Carmen-Shannon/oxy-xr/common"
	"github.com/Carmen-Shannon/oxy-xr/engine/hand"
)

// Default tuning, in metres, radians and wall-clock time.
const (
	DefaultPinchThreshold      float32 = 0.07
	DefaultPinchUpdateInterval         = 100 * time.Millisecond
	DefaultSwipeThreshold      float32 = 0.035
	DefaultSwipeUpdateInterval         = time.Duration(0)
	DefaultSwipeStep           float32 = 0.002
	DefaultMaxZoomDistance     float32 = 1
)

// Recognizer advances a gesture State from the latest joint samples.
// Pinch, swipe and zoom are evaluated independently on every call and may all be
// active in the same tick.
type Recognizer interface {
	// Update advances state using the joints buffer sampled at now.
	// Untracked joints are never consumed; the affected gesture keeps its previous state.
	//
	// Parameters:
	//   - state: the gesture state to advance in place
	//   - joints: the current joint sample buffer
	//   - now: the time of the update, used for debouncing
	Update(state *State, joints *hand.JointSampleBuffer, now time.Time)

	// DominantHand returns the hand whose joints drive recognition.
	DominantHand() hand.Chirality
}

type recognizerImpl struct {
	dominant            hand.Chirality
	pinchThreshold      float32
	pinchUpdateInterval time.Duration
	swipeThreshold      float32
	swipeUpdateInterval time.Duration
	swipeStep           float32
	maxZoomDistance     float32
}

var _ Recognizer = &recognizerImpl{}

// NewRecognizer creates a Recognizer with the default right-handed tuning, then
// applies the given options.
//
// Parameters:
//   - options: variadic list of RecognizerBuilderOption functions
//
// Returns:
//   - Recognizer: the configured recognizer
func NewRecognizer(options ...RecognizerBuilderOption) Recognizer {
	r := &recognizerImpl{
		dominant:            hand.Right,
		pinchThreshold:      DefaultPinchThreshold,
		pinchUpdateInterval: DefaultPinchUpdateInterval,
		swipeThreshold:      DefaultSwipeThreshold,
		swipeUpdateInterval: DefaultSwipeUpdateInterval,
		swipeStep:           DefaultSwipeStep,
		maxZoomDistance:     DefaultMaxZoomDistance,
	}
	for _, opt := range options {
		opt(r)
	}
	return r
}

func (r *recognizerImpl) DominantHand() hand.Chirality {
	return r.dominant
}

func (r *recognizerImpl) Update(state *State, joints *hand.JointSampleBuffer, now time.Time) {
	r.updatePinch(state, joints, now)
	r.updateSwipe(state, joints, now)
	r.updateZoom(state, joints)
}

func (r *recognizerImpl) updatePinch(state *State, joints *hand.JointSampleBuffer, now time.Time) {
	if !state.LastPinchUpdate.IsZero() && now.Sub(state.LastPinchUpdate) < r.pinchUpdateInterval {
		return
	}

	thumb := joints.At(r.dominant, hand.ThumbTip)
	index := joints.At(r.dominant, hand.IndexTip)
	if !thumb.Tracked || !index.Tracked {
		return
	}
	d := common.Distance(thumb.Position, index.Position)
	if d == 0 {
		return
	}

	if d < r.pinchThreshold {
		state.PinchActive = true
		state.PinchDelta = thumb.Position.Sub(state.LastPinchPoint)
	} else {
		state.PinchActive = false
	}

	state.LastPinchPoint = thumb.Position
	state.LastPinchUpdate = now
}

func (r *recognizerImpl) updateSwipe(state *State, joints *hand.JointSampleBuffer, now time.Time) {
	if r.swipeUpdateInterval > 0 && !state.LastSwipeUpdate.IsZero() && now.Sub(state.LastSwipeUpdate) < r.swipeUpdateInterval {
		return
	}

	fingers := [4]hand.JointSample{
		joints.At(r.dominant, hand.IndexIntermediate),
		joints.At(r.dominant, hand.MiddleIntermediate),
		joints.At(r.dominant, hand.RingIntermediate),
		joints.At(r.dominant, hand.LittleIntermediate),
	}
	var gaps [3]float32
	for i := range gaps {
		if !fingers[i].Tracked || !fingers[i+1].Tracked {
			return
		}
		gaps[i] = common.Distance(fingers[i].Position, fingers[i+1].Position)
		if gaps[i] == 0 {
			return
		}
	}
	state.LastSwipeUpdate = now

	if gaps[0] >= r.swipeThreshold || gaps[1] >= r.swipeThreshold {
		state.SwipeActive = false
		return
	}

	index := fingers[0]
	state.SwipeActive = true
	if index.HasOrientation {
		state.RotationAxis = common.BasisY(index.Orientation)
	}
	z := index.Position.Z()
	if z-state.LastSwipeZ > 0 {
		state.RotationAngle += r.swipeStep
	} else {
		state.RotationAngle -= r.swipeStep
	}
	state.LastSwipeZ = z
}

func (r *recognizerImpl) updateZoom(state *State, joints *hand.JointSampleBuffer) {
	thumb := joints.At(r.dominant, hand.ThumbTip)
	index := joints.At(r.dominant, hand.IndexTip)
	if !thumb.Tracked || !index.Tracked {
		return
	}
	d := common.Distance(thumb.Position, index.Position)
	state.ZoomValue = (d - state.LastPinchDistance) / r.maxZoomDistance
	state.LastPinchDistance = d
}
