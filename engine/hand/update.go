package hand

import (
	"time"

	"github.com/go-gl/mathgl/mgl32"
)

// JointPose is one joint's transform relative to its hand anchor, as reported by
// the tracking provider.
type JointPose struct {
	AnchorFromJoint mgl32.Mat4
	Tracked         bool
}

// Update is a single hand-tracking delivery for one hand.
type Update struct {
	// Chirality identifies the hand.
	Chirality Chirality

	// Tracked reports whether the hand as a whole is tracked.
	Tracked bool

	// OriginFromAnchor is the hand anchor's world transform.
	OriginFromAnchor mgl32.Mat4

	// Joints holds per-joint transforms keyed by canonical joint order.
	Joints [JointsPerHand]JointPose

	// Timestamp is when the provider sampled the hand.
	Timestamp time.Time
}
