// Package hand describes tracked hands: the canonical joint order, the per-hand
// updates delivered by a tracking provider, and the fixed 32-slot joint sample
// buffer that gesture recognition reads from.
package hand

import "fmt"

// Joint identifies one of the sixteen tracked joints of a hand, in canonical order.
type Joint int

// Canonical per-hand joint order. The integer value is the slot offset within a hand.
const (
	ThumbKnuckle Joint = iota
	ThumbIntermediate
	ThumbTip
	IndexKnuckle
	IndexIntermediate
	IndexTip
	MiddleKnuckle
	MiddleIntermediate
	MiddleTip
	RingKnuckle
	RingIntermediate
	RingTip
	LittleKnuckle
	LittleIntermediate
	LittleTip
	Wrist

	// JointsPerHand is the number of joints sampled for each hand.
	JointsPerHand = 16
)

// NumSlots is the total number of slots in a JointSampleBuffer (two hands).
const NumSlots = 2 * JointsPerHand

var jointNames = [JointsPerHand]string{
	"thumb-knuckle", "thumb-intermediate", "thumb-tip",
	"index-knuckle", "index-intermediate", "index-tip",
	"middle-knuckle", "middle-intermediate", "middle-tip",
	"ring-knuckle", "ring-intermediate", "ring-tip",
	"little-knuckle", "little-intermediate", "little-tip",
	"wrist",
}

func (j Joint) String() string {
	if j < 0 || j >= JointsPerHand {
		return fmt.Sprintf("Joint(%d)", int(j))
	}
	return jointNames[j]
}

// Chirality identifies a hand.
type Chirality int

const (
	// Left is the left hand; its joints occupy slots 0..15.
	Left Chirality = iota
	// Right is the right hand; its joints occupy slots 16..31.
	Right
)

func (c Chirality) String() string {
	switch c {
	case Left:
		return "left"
	case Right:
		return "right"
	default:
		return fmt.Sprintf("Chirality(%d)", int(c))
	}
}

// ParseChirality converts "left" or "right" into a Chirality.
//
// Parameters:
//   - s: the hand name
//
// Returns:
//   - Chirality: the parsed hand
//   - error: error if s names neither hand
func ParseChirality(s string) (Chirality, error) {
	switch s {
	case "left":
		return Left, nil
	case "right":
		return Right, nil
	default:
		return Left, fmt.Errorf("unknown hand %q", s)
	}
}

// Offset returns the first buffer slot belonging to the hand.
func (c Chirality) Offset() int {
	if c == Right {
		return JointsPerHand
	}
	return 0
}

// Slot returns the buffer index of a joint on a hand.
// Panics if the joint is outside the canonical range.
//
// Parameters:
//   - c: the hand
//   - j: the joint
//
// Returns:
//   - int: the slot index in [0, NumSlots)
func Slot(c Chirality, j Joint) int {
	if j < 0 || j >= JointsPerHand {
		panic(fmt.Sprintf("hand: joint %d out of range", int(j)))
	}
	return c.Offset() + int(j)
}
