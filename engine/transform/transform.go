// Package transform integrates gesture state into the model transform applied to the
// primary render target.
package transform

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Carmen-Shannon/oxy-xr/common"
	"github.com/Carmen-Shannon/oxy-xr/engine/gesture"
)

// Accumulator holds the running model translation and rotation for one loaded model.
// It is owned by the render loop and not safe for concurrent use.
type Accumulator struct {
	position mgl32.Vec3
	seeded   bool
	angle    float32
	axis     mgl32.Vec3
	zoom     float32
}

// NewAccumulator returns an unseeded accumulator rotating about world up.
func NewAccumulator() *Accumulator {
	return &Accumulator{axis: common.WorldUp}
}

// Seed sets the starting position to the model center. Only the first call after
// construction or Reset has any effect.
//
// Parameters:
//   - center: the model center reported by the renderer
//
// Returns:
//   - bool: true if this call seeded the accumulator
func (a *Accumulator) Seed(center mgl32.Vec3) bool {
	if a.seeded {
		return false
	}
	a.position = center
	a.seeded = true
	return true
}

// Seeded reports whether a model center has been adopted.
func (a *Accumulator) Seeded() bool {
	return a.seeded
}

// Reset forgets the seed and translation so the next Seed adopts a new model center.
// Rotation keeps following the gesture state on the next Apply.
func (a *Accumulator) Reset() {
	a.position = mgl32.Vec3{}
	a.seeded = false
}

// Apply folds one frame of gesture state into the accumulator. An active pinch adds
// its delta to the position; rotation mirrors the state's angle and axis. The zoom
// value is recorded but does not affect the transform.
//
// Parameters:
//   - s: the gesture state for this frame
func (a *Accumulator) Apply(s gesture.State) {
	if s.PinchActive {
		a.position = a.position.Add(s.PinchDelta)
	}
	a.angle = s.RotationAngle
	a.axis = s.RotationAxis
	a.zoom = s.ZoomValue
}

// Position returns the accumulated model position.
func (a *Accumulator) Position() mgl32.Vec3 {
	return a.position
}

// Translation returns the accumulated translation matrix.
func (a *Accumulator) Translation() mgl32.Mat4 {
	return common.Translation(a.position)
}

// Rotation returns the accumulated rotation matrix.
func (a *Accumulator) Rotation() mgl32.Mat4 {
	return common.Rotation(a.angle, a.axis)
}

// Model returns Translation() * Rotation().
func (a *Accumulator) Model() mgl32.Mat4 {
	return a.Translation().Mul4(a.Rotation())
}

// Zoom returns the last recorded zoom value.
func (a *Accumulator) Zoom() float32 {
	return a.zoom
}
