package hand

import (
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlotLayout(t *testing.T) {
	assert.Equal(t, 18, Slot(Right, ThumbTip))
	assert.Equal(t, 21, Slot(Right, IndexTip))
	assert.Equal(t, 20, Slot(Right, IndexIntermediate))
	assert.Equal(t, 23, Slot(Right, MiddleIntermediate))
	assert.Equal(t, 26, Slot(Right, RingIntermediate))
	assert.Equal(t, 29, Slot(Right, LittleIntermediate))
	assert.Equal(t, 15, Slot(Left, Wrist))
	assert.Equal(t, 31, Slot(Right, Wrist))
	assert.Equal(t, NumSlots, 32)
}

func TestSlotOutOfRangePanics(t *testing.T) {
	assert.Panics(t, func() { Slot(Right, Joint(16)) })
	assert.Panics(t, func() { Slot(Left, Joint(-1)) })
}

func TestParseChirality(t *testing.T) {
	c, err := ParseChirality("left")
	require.NoError(t, err)
	assert.Equal(t, Left, c)

	c, err = ParseChirality("right")
	require.NoError(t, err)
	assert.Equal(t, Right, c)

	_, err = ParseChirality("both")
	assert.Error(t, err)
}

func TestApplyComposesWorldTransform(t *testing.T) {
	var buf JointSampleBuffer
	origin := mgl32.Vec3{1, 2, 3}
	u := OpenHand(Right, origin, time.Unix(0, 0))

	require.True(t, buf.Apply(u))

	for j := Joint(0); j < JointsPerHand; j++ {
		s := buf.At(Right, j)
		assert.True(t, s.Tracked, j.String())
		assert.True(t, s.HasOrientation, j.String())
		want := origin.Add(u.JointPosition(j))
		assert.True(t, s.Position.ApproxEqualThreshold(want, 1e-6), "%s: got %v want %v", j, s.Position, want)
	}
	for j := Joint(0); j < JointsPerHand; j++ {
		assert.False(t, buf.At(Left, j).Tracked)
	}
}

func TestApplyUntrackedJointKeepsLastValue(t *testing.T) {
	var buf JointSampleBuffer
	at := time.Unix(0, 0)
	first := OpenHand(Right, mgl32.Vec3{}, at)
	require.True(t, buf.Apply(first))
	before := buf.At(Right, ThumbTip).Position

	moved := OpenHand(Right, mgl32.Vec3{0, 1, 0}, at).WithUntracked(ThumbTip)
	require.True(t, buf.Apply(moved))

	s := buf.At(Right, ThumbTip)
	assert.False(t, s.Tracked)
	assert.Equal(t, before, s.Position)
	assert.True(t, buf.At(Right, IndexTip).Tracked)
}

func TestApplyLostHandFlagsEveryJoint(t *testing.T) {
	var buf JointSampleBuffer
	at := time.Unix(0, 0)
	require.True(t, buf.Apply(OpenHand(Left, mgl32.Vec3{}, at)))
	require.True(t, buf.Apply(OpenHand(Right, mgl32.Vec3{}, at)))
	before := buf.Positions()

	lost := OpenHand(Left, mgl32.Vec3{1, 1, 1}, at)
	lost.Tracked = false
	assert.False(t, buf.Apply(lost))

	for j := Joint(0); j < JointsPerHand; j++ {
		assert.False(t, buf.At(Left, j).Tracked, j.String())
		assert.True(t, buf.At(Right, j).Tracked, j.String())
	}
	assert.Equal(t, before, buf.Positions(), "last known positions are kept")
}

func TestPositionsCoversEverySlot(t *testing.T) {
	var buf JointSampleBuffer
	buf.Apply(OpenHand(Left, mgl32.Vec3{}, time.Unix(0, 0)))
	buf.Apply(OpenHand(Right, mgl32.Vec3{}, time.Unix(0, 0)))

	pos := buf.Positions()
	require.Len(t, pos, NumSlots)
	assert.Equal(t, buf[Slot(Left, ThumbTip)].Position, pos[2])
	assert.Equal(t, buf[Slot(Right, ThumbTip)].Position, pos[18])
	assert.InDelta(t, -pos[18].X(), pos[2].X(), 1e-6)
}

func TestPresetModifiers(t *testing.T) {
	u := OpenHand(Right, mgl32.Vec3{}, time.Unix(0, 0))

	p := u.Pinched(0.05)
	assert.InDelta(t, 0.05, p.JointPosition(ThumbTip).Sub(p.JointPosition(IndexTip)).Len(), 1e-6)

	s := u.Swiped(0.02, 0.01)
	assert.InDelta(t, 0.02, s.JointPosition(IndexIntermediate).Sub(s.JointPosition(MiddleIntermediate)).Len(), 1e-6)
	assert.InDelta(t, 0.02, s.JointPosition(MiddleIntermediate).Sub(s.JointPosition(RingIntermediate)).Len(), 1e-6)
	assert.InDelta(t, u.JointPosition(IndexIntermediate).Z()+0.01, s.JointPosition(IndexIntermediate).Z(), 1e-6)

	// the original is a value and must be untouched
	assert.Equal(t, OpenHand(Right, mgl32.Vec3{}, time.Unix(0, 0)), u)
}
