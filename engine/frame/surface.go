package frame

import (
	"time"

	"github.com/Carmen-Shannon/oxy-xr/engine/renderer"
	"github.com/Carmen-Shannon/oxy-xr/engine/viewport"
)

// LoopState mirrors the display surface's lifecycle.
type LoopState int

const (
	// Running frames are produced and rendered.
	Running LoopState = iota
	// Paused surfaces produce no frames; the loop blocks until running again.
	Paused
	// Invalidated is terminal; the loop exits.
	Invalidated
)

func (s LoopState) String() string {
	switch s {
	case Running:
		return "running"
	case Paused:
		return "paused"
	case Invalidated:
		return "invalidated"
	default:
		return "unknown"
	}
}

// Timing is the display's prediction for a frame.
type Timing struct {
	// OptimalInputTime is the latest moment input can be sampled for this frame.
	OptimalInputTime time.Time

	// PresentationTime is when the frame is expected to reach the display.
	PresentationTime time.Time
}

// Surface is the display the frame loop renders to.
type Surface interface {
	// State reports the current lifecycle state.
	State() LoopState

	// WaitUntilRunning blocks until the surface leaves the Paused state.
	WaitUntilRunning()

	// NextFrame returns the next frame to render.
	//
	// Returns:
	//   - Frame: the frame
	//   - bool: false when no frame is available this iteration
	NextFrame() (Frame, bool)
}

// Frame is one display refresh.
type Frame interface {
	// PredictTiming returns the frame's timing prediction.
	//
	// Returns:
	//   - Timing: the prediction
	//   - bool: false when no prediction is available
	PredictTiming() (Timing, bool)

	// Drawable returns the render targets and per-eye views for this frame.
	//
	// Returns:
	//   - Drawable: the drawable
	//   - bool: false when no drawable is available
	Drawable() (Drawable, bool)
}

// Drawable is a frame's render destination.
type Drawable interface {
	// PresentationTime is when this drawable will be shown. Head pose is sampled at this time.
	PresentationTime() time.Time

	// Views returns one EyeView per eye, in eye order.
	Views() []viewport.EyeView

	// DepthRange returns the near and far planes for projection.
	DepthRange() viewport.DepthRange

	// Targets returns the textures to render into.
	Targets() renderer.RenderTargets

	// Present queues the drawable for display after its command buffer is committed.
	Present()
}
