package tracking

import (
	"time"

	"github.com/go-gl/mathgl/mgl32"
)

// HeadPoseSource supplies the device (head) world transform at a timestamp.
type HeadPoseSource interface {
	// QueryHeadPose returns the device-to-world transform predicted for time at.
	// The boolean is false when no pose is available for that instant.
	QueryHeadPose(at time.Time) (mgl32.Mat4, bool)
}

// StaticHeadPose is a HeadPoseSource that always reports the same transform.
// Used by the desktop preview, which has no head tracking.
type StaticHeadPose mgl32.Mat4

func (p StaticHeadPose) QueryHeadPose(time.Time) (mgl32.Mat4, bool) {
	return mgl32.Mat4(p), true
}
