package hand

import (
	"time"

	"github.com/go-gl/mathgl/mgl32"
)

// openHand is a relaxed open right hand in anchor space, metres. Fingers are spread
// wide enough that neither a pinch nor a swipe is recognised.
var openHand = [JointsPerHand]mgl32.Vec3{
	ThumbKnuckle:       {0.03, 0.00, 0},
	ThumbIntermediate:  {0.06, 0.02, 0},
	ThumbTip:           {0.09, 0.04, 0},
	IndexKnuckle:       {0.02, 0.08, 0},
	IndexIntermediate:  {0.02, 0.12, 0},
	IndexTip:           {0.02, 0.16, 0},
	MiddleKnuckle:      {-0.02, 0.08, 0},
	MiddleIntermediate: {-0.02, 0.13, 0},
	MiddleTip:          {-0.02, 0.17, 0},
	RingKnuckle:        {-0.06, 0.08, 0},
	RingIntermediate:   {-0.06, 0.12, 0},
	RingTip:            {-0.06, 0.16, 0},
	LittleKnuckle:      {-0.10, 0.07, 0},
	LittleIntermediate: {-0.10, 0.10, 0},
	LittleTip:          {-0.10, 0.13, 0},
	Wrist:              {0, 0, 0},
}

// OpenHand returns a tracked update for an open hand whose anchor sits at origin.
// Every joint is tracked and carries a pure translation relative to the anchor.
// The left hand is the right hand mirrored across the anchor's YZ plane.
//
// Parameters:
//   - c: which hand
//   - origin: world position of the hand anchor
//   - at: the sample timestamp
//
// Returns:
//   - Update: the hand update
func OpenHand(c Chirality, origin mgl32.Vec3, at time.Time) Update {
	u := Update{
		Chirality:        c,
		Tracked:          true,
		OriginFromAnchor: mgl32.Translate3D(origin.X(), origin.Y(), origin.Z()),
		Timestamp:        at,
	}
	for j, p := range openHand {
		if c == Left {
			p[0] = -p[0]
		}
		u.Joints[j] = JointPose{AnchorFromJoint: mgl32.Translate3D(p.X(), p.Y(), p.Z()), Tracked: true}
	}
	return u
}

// JointPosition returns the anchor-space position of a joint.
func (u Update) JointPosition(j Joint) mgl32.Vec3 {
	return u.Joints[j].AnchorFromJoint.Col(3).Vec3()
}

// WithJoint returns a copy of the update with joint j moved to an anchor-space
// position, keeping the joint's rotation.
func (u Update) WithJoint(j Joint, pos mgl32.Vec3) Update {
	m := u.Joints[j].AnchorFromJoint
	m.SetCol(3, pos.Vec4(1))
	u.Joints[j].AnchorFromJoint = m
	u.Joints[j].Tracked = true
	return u
}

// WithUntracked returns a copy of the update with the given joints marked untracked.
func (u Update) WithUntracked(joints ...Joint) Update {
	for _, j := range joints {
		u.Joints[j].Tracked = false
	}
	return u
}

// Pinched returns a copy of the update with the thumb tip placed gap metres from
// the index tip along the anchor's X axis.
func (u Update) Pinched(gap float32) Update {
	return u.WithJoint(ThumbTip, u.JointPosition(IndexTip).Add(mgl32.Vec3{gap, 0, 0}))
}

// Swiped returns a copy of the update with the middle, ring and little intermediates
// lined up behind the index intermediate, spacing metres apart along -X, and the
// whole row pushed dz metres along Z.
func (u Update) Swiped(spacing, dz float32) Update {
	base := u.JointPosition(IndexIntermediate).Add(mgl32.Vec3{0, 0, dz})
	u = u.WithJoint(IndexIntermediate, base)
	for i, j := range []Joint{MiddleIntermediate, RingIntermediate, LittleIntermediate} {
		u = u.WithJoint(j, base.Sub(mgl32.Vec3{spacing * float32(i+1), 0, 0}))
	}
	return u
}

// At returns a copy of the update restamped to t.
func (u Update) At(t time.Time) Update {
	u.Timestamp = t
	return u
}
