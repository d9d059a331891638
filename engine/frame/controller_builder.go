package frame

import (
	"log/slog"

	"github.com/Carmen-Shannon/oxy-xr/common"
	"github.com/Carmen-Shannon/oxy-xr/engine/profiler"
	"github.com/Carmen-Shannon/oxy-xr/engine/renderer"
	"github.com/Carmen-Shannon/oxy-xr/engine/tracking"
	"github.com/Carmen-Shannon/oxy-xr/engine/viewport"
)

// ControllerBuilderOption is a functional option for configuring a Controller via NewController.
type ControllerBuilderOption func(*controllerImpl)

// WithMailbox sets the mailbox tracking snapshots are read from.
//
// Parameters:
//   - m: the mailbox the tracker publishes into
//
// Returns:
//   - ControllerBuilderOption: a function that sets the mailbox
func WithMailbox(m *tracking.Mailbox) ControllerBuilderOption {
	return func(c *controllerImpl) {
		if m != nil {
			c.mailbox = m
		}
	}
}

// WithHeadPose sets the source queried for the head pose at each presentation time.
func WithHeadPose(src tracking.HeadPoseSource) ControllerBuilderOption {
	return func(c *controllerImpl) {
		if src != nil {
			c.headPose = src
		}
	}
}

// WithViewportBuilder sets the builder used to compute per-eye descriptors.
func WithViewportBuilder(b viewport.Builder) ControllerBuilderOption {
	return func(c *controllerImpl) {
		if b != nil {
			c.viewports = b
		}
	}
}

// WithMaxSimultaneousRenders sets the admission capacity. Non-positive values are ignored.
//
// Parameters:
//   - n: the maximum number of frames in flight
//
// Returns:
//   - ControllerBuilderOption: a function that sets the capacity
func WithMaxSimultaneousRenders(n int) ControllerBuilderOption {
	return func(c *controllerImpl) {
		if n > 0 {
			c.admission = NewAdmission(n)
		}
	}
}

// WithAdmission shares an existing admission gate.
func WithAdmission(a *Admission) ControllerBuilderOption {
	return func(c *controllerImpl) {
		if a != nil {
			c.admission = a
		}
	}
}

// WithRenderer sets the initial renderer.
func WithRenderer(r renderer.ModelRenderer) ControllerBuilderOption {
	return func(c *controllerImpl) {
		c.renderer = r
	}
}

// WithClock sets the clock used to wait for each frame's input time.
func WithClock(clock common.Clock) ControllerBuilderOption {
	return func(c *controllerImpl) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithLogger sets the logger for skipped frames and renderer errors.
func WithLogger(l *slog.Logger) ControllerBuilderOption {
	return func(c *controllerImpl) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithProfiler ticks p once per submitted frame.
func WithProfiler(p *profiler.Profiler) ControllerBuilderOption {
	return func(c *controllerImpl) {
		c.profiler = p
	}
}
