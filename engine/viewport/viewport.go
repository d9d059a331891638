// Package viewport builds the per-eye projection and view matrices for a stereo frame.
package viewport

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Carmen-Shannon/oxy-xr/common"
)

// Rect is a viewport rectangle in render target pixels.
type Rect struct {
	X, Y, Width, Height float32
}

// DepthRange holds the near and far plane distances. Far may be +Inf.
type DepthRange struct {
	Near, Far float32
}

// InfiniteFar is a far plane distance that selects an infinite projection.
var InfiniteFar = float32(math.Inf(1))

// EyeView describes one eye of the display.
type EyeView struct {
	// Transform is the eye's pose relative to the head (device) transform.
	Transform mgl32.Mat4

	// Tangents holds the frustum half-angle tangents as [left, right, top, bottom].
	Tangents [4]float32

	// Viewport is the region of the render target this eye draws into.
	Viewport Rect
}

// Descriptor is everything the renderer needs to draw one eye.
type Descriptor struct {
	Viewport Rect

	// Projection is a reversed-Z off-axis projection (near maps to depth 1, far to 0).
	Projection mgl32.Mat4

	// PrimaryView places the manipulated model: the eye's inverse pose times the
	// accumulated model translation and rotation.
	PrimaryView mgl32.Mat4

	// SecondaryView is the eye's inverse pose with no model transform, for
	// head-relative content such as joint markers.
	SecondaryView mgl32.Mat4

	// ScreenSize is the eye's viewport size in whole pixels.
	ScreenSize [2]int
}

// ModelTransform is the accumulated model placement the primary view is built from.
type ModelTransform interface {
	// Seeded reports whether a model center has been adopted yet.
	Seeded() bool

	// Translation returns the model translation matrix.
	Translation() mgl32.Mat4

	// Rotation returns the model rotation matrix.
	Rotation() mgl32.Mat4
}

// Input gathers one frame's inputs to Build.
type Input struct {
	// HeadPose is the device-to-world transform. Ignored unless HasHeadPose is set,
	// in which case identity is used.
	HeadPose    mgl32.Mat4
	HasHeadPose bool

	Eyes  []EyeView
	Depth DepthRange
	Model ModelTransform
}

// Builder produces one Descriptor per eye.
type Builder interface {
	// Build computes the descriptors for a frame.
	// Returns an empty slice until the model transform has been seeded.
	//
	// Parameters:
	//   - in: the frame inputs
	//
	// Returns:
	//   - []Descriptor: one descriptor per eye, in eye order
	Build(in Input) []Descriptor

	// UprightCalibration reports whether a 180° roll about Z is appended to the primary view.
	UprightCalibration() bool
}

type builderImpl struct {
	upright     bool
	calibration mgl32.Mat4
}

var _ Builder = &builderImpl{}

// NewBuilder creates a Builder, then applies the given options.
//
// Parameters:
//   - options: variadic list of BuilderOption functions
//
// Returns:
//   - Builder: the configured builder
func NewBuilder(options ...BuilderOption) Builder {
	b := &builderImpl{
		calibration: mgl32.HomogRotate3DZ(math.Pi),
	}
	for _, opt := range options {
		opt(b)
	}
	return b
}

func (b *builderImpl) UprightCalibration() bool {
	return b.upright
}

func (b *builderImpl) Build(in Input) []Descriptor {
	if in.Model == nil || !in.Model.Seeded() || len(in.Eyes) == 0 {
		return []Descriptor{}
	}

	head := mgl32.Ident4()
	if in.HasHeadPose {
		head = in.HeadPose
	}

	model := in.Model.Translation().Mul4(in.Model.Rotation())
	if b.upright {
		model = model.Mul4(b.calibration)
	}
	secondary := common.Translation(mgl32.Vec3{}).Mul4(common.Rotation(0, common.WorldUp))

	out := make([]Descriptor, len(in.Eyes))
	for i, eye := range in.Eyes {
		userViewpoint := head.Mul4(eye.Transform).Inv()
		out[i] = Descriptor{
			Viewport: eye.Viewport,
			Projection: common.TangentProjection(
				eye.Tangents[0], eye.Tangents[1], eye.Tangents[2], eye.Tangents[3],
				in.Depth.Near, in.Depth.Far,
			),
			PrimaryView:   userViewpoint.Mul4(model),
			SecondaryView: userViewpoint.Mul4(secondary),
			ScreenSize:    [2]int{int(eye.Viewport.Width), int(eye.Viewport.Height)},
		}
	}
	return out
}
