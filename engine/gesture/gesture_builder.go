package gesture

import (
	"time"

	"github.com/Carmen-Shannon/oxy-xr/engine/hand"
)

type RecognizerBuilderOption func(*recognizerImpl)

// WithDominantHand selects the hand whose joints drive every gesture.
//
// Parameters:
//   - c: the dominant hand
//
// Returns:
//   - RecognizerBuilderOption: a function that sets the dominant hand
func WithDominantHand(c hand.Chirality) RecognizerBuilderOption {
	return func(r *recognizerImpl) {
		r.dominant = c
	}
}

// WithPinchThreshold sets the thumb/index distance below which a pinch is active.
//
// Parameters:
//   - metres: the threshold distance
//
// Returns:
//   - RecognizerBuilderOption: a function that sets the pinch threshold
func WithPinchThreshold(metres float32) RecognizerBuilderOption {
	return func(r *recognizerImpl) {
		r.pinchThreshold = metres
	}
}

// WithPinchUpdateInterval sets the minimum time between accepted pinch updates.
//
// Parameters:
//   - d: the debounce interval
//
// Returns:
//   - RecognizerBuilderOption: a function that sets the pinch debounce
func WithPinchUpdateInterval(d time.Duration) RecognizerBuilderOption {
	return func(r *recognizerImpl) {
		r.pinchUpdateInterval = d
	}
}

// WithSwipeThreshold sets the intermediate joint spacing below which fingers count as held together.
//
// Parameters:
//   - metres: the threshold distance
//
// Returns:
//   - RecognizerBuilderOption: a function that sets the swipe threshold
func WithSwipeThreshold(metres float32) RecognizerBuilderOption {
	return func(r *recognizerImpl) {
		r.swipeThreshold = metres
	}
}

// WithSwipeUpdateInterval sets the minimum time between accepted swipe updates.
// Zero evaluates the swipe on every update.
func WithSwipeUpdateInterval(d time.Duration) RecognizerBuilderOption {
	return func(r *recognizerImpl) {
		r.swipeUpdateInterval = d
	}
}

// WithSwipeStep sets the rotation increment applied per active swipe update, in radians.
func WithSwipeStep(radians float32) RecognizerBuilderOption {
	return func(r *recognizerImpl) {
		r.swipeStep = radians
	}
}

// WithMaxZoomDistance sets the distance that normalises the zoom value.
// Non-positive values are ignored.
func WithMaxZoomDistance(metres float32) RecognizerBuilderOption {
	return func(r *recognizerImpl) {
		if metres > 0 {
			r.maxZoomDistance = metres
		}
	}
}
