package gesture

import (
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Carmen-Shannon/oxy-xr/common"
)

// State is the mutable gesture state advanced by a Recognizer.
// It is owned by the tracking context; other goroutines only ever see copies.
type State struct {
	// PinchActive reports whether thumb and index tips were closer than the pinch threshold
	// on the last accepted pinch update.
	PinchActive bool

	// LastPinchPoint is the dominant thumb tip position at the last accepted pinch update.
	// It starts at the origin.
	LastPinchPoint mgl32.Vec3

	// PinchDelta is the thumb tip motion since the previous accepted pinch update.
	// Only meaningful while PinchActive is set.
	PinchDelta mgl32.Vec3

	// LastPinchUpdate is when the pinch state was last accepted.
	LastPinchUpdate time.Time

	// SwipeActive reports whether the four intermediate finger joints were held together
	// on the last accepted swipe update.
	SwipeActive bool

	// RotationAxis is the axis of the accumulated model rotation.
	RotationAxis mgl32.Vec3

	// RotationAngle is the accumulated rotation in radians. It only moves in fixed steps
	// and is never reset during a session.
	RotationAngle float32

	// LastSwipeZ is the index intermediate Z coordinate at the last active swipe.
	LastSwipeZ float32

	// LastSwipeUpdate is when the swipe state was last accepted.
	LastSwipeUpdate time.Time

	// ZoomValue is the normalised change in thumb/index distance on the last update.
	ZoomValue float32

	// LastPinchDistance is the thumb/index distance seen on the last zoom update.
	LastPinchDistance float32
}

// NewState returns a zero gesture state whose rotation axis is world up.
func NewState() State {
	return State{RotationAxis: common.WorldUp}
}
