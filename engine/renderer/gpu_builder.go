package renderer

import (
	"log/slog"
	"time"
)

// GPUBuilderOption is a functional option applied to a GPU during construction via NewGPU.
type GPUBuilderOption func(*gpuImpl)

// WithPresentMode sets the surface present mode which controls how frames are delivered to the display.
//
// Parameters:
//   - mode: the PresentMode to use (VSync or Uncapped)
//
// Returns:
//   - GPUBuilderOption: a function that applies the present mode option
func WithPresentMode(mode PresentMode) GPUBuilderOption {
	return func(g *gpuImpl) {
		g.presentMode = mode
	}
}

// WithForceFallbackAdapter forces the use of a fallback (software) GPU adapter.
// Useful for testing on machines without a discrete GPU.
//
// Returns:
//   - GPUBuilderOption: a function that enables the fallback adapter
func WithForceFallbackAdapter() GPUBuilderOption {
	return func(g *gpuImpl) {
		g.forceFallbackAdapter = true
	}
}

// WithPollInterval sets how often the device is polled for completed work.
func WithPollInterval(d time.Duration) GPUBuilderOption {
	return func(g *gpuImpl) {
		if d > 0 {
			g.pollInterval = d
		}
	}
}

// WithGPULogger sets the logger used for surface events.
func WithGPULogger(l *slog.Logger) GPUBuilderOption {
	return func(g *gpuImpl) {
		if l != nil {
			g.logger = l
		}
	}
}
