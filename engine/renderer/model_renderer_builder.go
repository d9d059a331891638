package renderer

import "log/slog"

// ModelRendererBuilderOption is a functional option applied to the built-in model renderers.
type ModelRendererBuilderOption func(*instancedRenderer)

// WithMaxViews sets how many viewports a single Render call may draw.
//
// Parameters:
//   - n: the maximum number of views (eyes)
//
// Returns:
//   - ModelRendererBuilderOption: a function that sets the view limit
func WithMaxViews(n int) ModelRendererBuilderOption {
	return func(r *instancedRenderer) {
		if n > 0 {
			r.maxViews = n
		}
	}
}

// WithMarkerTint sets the color multiplier for joint markers.
func WithMarkerTint(red, green, blue float32) ModelRendererBuilderOption {
	return func(r *instancedRenderer) {
		r.tint = [3]float32{red, green, blue}
	}
}

// WithRendererLogger sets the logger used when GPU resources are created.
func WithRendererLogger(l *slog.Logger) ModelRendererBuilderOption {
	return func(r *instancedRenderer) {
		if l != nil {
			r.logger = l
		}
	}
}
