package hand

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Carmen-Shannon/oxy-xr/common"
)

// JointSample is the pose of one joint at one instant.
type JointSample struct {
	// Position is the joint's world-space position.
	Position mgl32.Vec3

	// Orientation is the joint's full world transform. Only meaningful when HasOrientation is set.
	Orientation mgl32.Mat4

	// HasOrientation reports whether Orientation carries a valid basis for this joint.
	HasOrientation bool

	// Tracked reports whether the sample was observed on the latest update.
	// Untracked samples keep their last known position and must not drive gestures.
	Tracked bool
}

// JointSampleBuffer is the fixed 32-slot joint array, 16 joints per hand in canonical order.
// It is refreshed in place and never reallocated.
type JointSampleBuffer [NumSlots]JointSample

// At returns the sample for a joint on a hand.
func (b *JointSampleBuffer) At(c Chirality, j Joint) JointSample {
	return b[Slot(c, j)]
}

// Apply writes a hand update into the buffer. Joints reported as untracked are
// flagged but keep their previous position and orientation. An update whose hand
// is not tracked at all flags every joint of that hand and returns false.
//
// Parameters:
//   - u: the hand update to apply
//
// Returns:
//   - bool: true if joint poses were written
func (b *JointSampleBuffer) Apply(u Update) bool {
	start := u.Chirality.Offset()
	if !u.Tracked {
		for i := start; i < start+JointsPerHand; i++ {
			b[i].Tracked = false
		}
		return false
	}

	for i := 0; i < JointsPerHand; i++ {
		pose := u.Joints[i]
		s := &b[start+i]
		if !pose.Tracked {
			s.Tracked = false
			continue
		}
		world := u.OriginFromAnchor.Mul4(pose.AnchorFromJoint)
		s.Position = common.Position(world)
		s.Orientation = world
		s.HasOrientation = true
		s.Tracked = true
	}
	return true
}

// Positions returns the position of every slot, tracked or not, in slot order.
// Untracked slots report their last known position.
func (b *JointSampleBuffer) Positions() []mgl32.Vec3 {
	out := make([]mgl32.Vec3, NumSlots)
	for i := range b {
		out[i] = b[i].Position
	}
	return out
}
