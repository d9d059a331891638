package common

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// WorldUp is the world-space up vector. Rotations fall back to this axis when no
// other axis has been established.
var WorldUp = mgl32.Vec3{0, 1, 0}

// Distance returns the Euclidean distance between two points.
//
// Parameters:
//   - a, b: the points to measure between
//
// Returns:
//   - float32: the distance in world units (meters for tracking data)
func Distance(a, b mgl32.Vec3) float32 {
	dx := a[0] - b[0]
	dy := a[1] - b[1]
	dz := a[2] - b[2]
	return math32.Sqrt(dx*dx + dy*dy + dz*dz)
}

// Translation builds a column-major translation matrix from a vector.
//
// Parameters:
//   - v: the translation offset
//
// Returns:
//   - mgl32.Mat4: the translation matrix
func Translation(v mgl32.Vec3) mgl32.Mat4 {
	return mgl32.Translate3D(v[0], v[1], v[2])
}

// Rotation builds a homogeneous rotation of angle radians about axis.
// The axis is normalized first; a zero-length axis is replaced with WorldUp so a
// degenerate tracking basis never produces a NaN matrix.
//
// Parameters:
//   - angle: rotation angle in radians
//   - axis: rotation axis (any length)
//
// Returns:
//   - mgl32.Mat4: the rotation matrix
func Rotation(angle float32, axis mgl32.Vec3) mgl32.Mat4 {
	if axis.Len() == 0 {
		axis = WorldUp
	}
	return mgl32.HomogRotate3D(angle, axis.Normalize())
}

// Position extracts the translation column of a rigid transform.
func Position(m mgl32.Mat4) mgl32.Vec3 {
	return m.Col(3).Vec3()
}

// BasisY extracts the local Y basis vector (second column) of a transform.
func BasisY(m mgl32.Mat4) mgl32.Vec3 {
	return m.Col(1).Vec3()
}

// TangentProjection creates an off-axis perspective projection from the four
// half-angle tangents of a view frustum, using a reversed-Z depth convention:
// points on the near plane map to depth 1 and points on the far plane map to 0.
// Clip space depth is [0, 1] (WebGPU/Metal). View space looks down -Z.
//
// Tangents are magnitudes: left and bottom are the tangents of the angles to the
// left and bottom frustum planes, measured from the view direction.
// A far plane of +Inf yields an infinite reversed-Z projection.
//
// Parameters:
//   - left, right, top, bottom: frustum half-angle tangents
//   - near: near plane distance (must be > 0)
//   - far: far plane distance (> near, or +Inf)
//
// Returns:
//   - mgl32.Mat4: the column-major projection matrix
func TangentProjection(left, right, top, bottom, near, far float32) mgl32.Mat4 {
	var out mgl32.Mat4

	w := left + right
	h := top + bottom

	out[0] = 2 / w
	out[5] = 2 / h
	out[8] = (right - left) / w
	out[9] = (top - bottom) / h
	out[11] = -1

	if math32.IsInf(far, 1) {
		out[10] = 0
		out[14] = near
	} else {
		out[10] = near / (far - near)
		out[14] = near * far / (far - near)
	}

	return out
}
