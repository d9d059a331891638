package window

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Carmen-Shannon/oxy-xr/engine/viewport"
)

// StereoLayout splits a framebuffer into two side-by-side eyes.
type StereoLayout struct {
	Width, Height int

	// IPD is the distance between the eyes in metres.
	IPD float32

	// FOVY is the vertical field of view in radians.
	FOVY float32
}

// Eyes returns the left and right eye views. Each eye covers half the framebuffer
// width and is offset IPD/2 from the head along X. Returns nil for an empty framebuffer.
//
// Returns:
//   - []viewport.EyeView: left eye then right eye
func (l StereoLayout) Eyes() []viewport.EyeView {
	if l.Width < 2 || l.Height <= 0 {
		return nil
	}
	half := float32(l.Width / 2)
	height := float32(l.Height)

	tanY := math32.Tan(l.FOVY / 2)
	tanX := tanY * half / height
	tangents := [4]float32{tanX, tanX, tanY, tanY}

	return []viewport.EyeView{
		{
			Transform: mgl32.Translate3D(-l.IPD/2, 0, 0),
			Tangents:  tangents,
			Viewport:  viewport.Rect{X: 0, Y: 0, Width: half, Height: height},
		},
		{
			Transform: mgl32.Translate3D(l.IPD/2, 0, 0),
			Tangents:  tangents,
			Viewport:  viewport.Rect{X: half, Y: 0, Width: half, Height: height},
		},
	}
}
