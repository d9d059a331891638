package window

import (
	"log/slog"

	"github.com/Carmen-Shannon/oxy-xr/common"
	"github.com/Carmen-Shannon/oxy-xr/engine/viewport"
)

// WindowBuilderOption is a functional option for configuring an engineWindow.
// Use the With* functions to create options.
type WindowBuilderOption func(w *engineWindow)

// WithTitle sets the window title displayed in the title bar. An empty title keeps the default.
//
// Parameters:
//   - title: the window title text
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithTitle(title string) WindowBuilderOption {
	return func(w *engineWindow) {
		w.title = common.Coalesce(title, w.title)
	}
}

// WithSizeLimits sets the minimum and maximum window size.
//
// Parameters:
//   - minWidth, minHeight: minimum size in pixels
//   - maxWidth, maxHeight: maximum size in pixels
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithSizeLimits(minWidth, minHeight, maxWidth, maxHeight int) WindowBuilderOption {
	return func(w *engineWindow) {
		w.minWidth, w.minHeight = minWidth, minHeight
		w.maxWidth, w.maxHeight = maxWidth, maxHeight
	}
}

// WithWidth sets the initial window width. Zero keeps the default.
//
// Parameters:
//   - width: initial width in pixels
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithWidth(width int) WindowBuilderOption {
	return func(w *engineWindow) {
		w.layout.Width = common.Coalesce(width, w.layout.Width)
	}
}

// WithHeight sets the initial window height. Zero keeps the default.
//
// Parameters:
//   - height: initial height in pixels
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithHeight(height int) WindowBuilderOption {
	return func(w *engineWindow) {
		w.layout.Height = common.Coalesce(height, w.layout.Height)
	}
}

// WithFOV sets the vertical field of view of each eye, in radians.
//
// Parameters:
//   - fovY: vertical field of view
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithFOV(fovY float32) WindowBuilderOption {
	return func(w *engineWindow) {
		if fovY > 0 {
			w.layout.FOVY = fovY
		}
	}
}

// WithIPD sets the distance between the eyes, in metres.
//
// Parameters:
//   - ipd: interpupillary distance
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithIPD(ipd float32) WindowBuilderOption {
	return func(w *engineWindow) {
		if ipd >= 0 {
			w.layout.IPD = ipd
		}
	}
}

// WithDepthRange sets the near and far planes reported by each drawable.
func WithDepthRange(depth viewport.DepthRange) WindowBuilderOption {
	return func(w *engineWindow) {
		w.depth = depth
	}
}

// WithRefreshRate overrides the monitor refresh rate used to pace frames.
func WithRefreshRate(hz int) WindowBuilderOption {
	return func(w *engineWindow) {
		w.refreshHz = hz
	}
}

// WithClock sets the clock frame timing is predicted from.
func WithClock(c common.Clock) WindowBuilderOption {
	return func(w *engineWindow) {
		if c != nil {
			w.clock = c
		}
	}
}

// WithLogger sets the logger for lifecycle changes.
func WithLogger(l *slog.Logger) WindowBuilderOption {
	return func(w *engineWindow) {
		if l != nil {
			w.logger = l
		}
	}
}
