package engine

import (
	"log/slog"

	"github.com/Carmen-Shannon/oxy-xr/common"
	"github.com/Carmen-Shannon/oxy-xr/engine/renderer"
	"github.com/Carmen-Shannon/oxy-xr/engine/window"
)

// EngineBuilderOption is a functional option for configuring an Engine.
// Use the With* functions to create options that are applied directly to the engine instance.
type EngineBuilderOption func(*engine)

// WithWindow uses an existing window instead of creating one from the configuration.
//
// Parameters:
//   - w: the window instance to attach
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithWindow(w window.Window) EngineBuilderOption {
	return func(e *engine) {
		e.window = w
	}
}

// WithGPU uses an existing GPU instead of creating one for the window.
func WithGPU(gpu renderer.GPU) EngineBuilderOption {
	return func(e *engine) {
		e.gpu = gpu
	}
}

// WithConfigPath watches path while running and applies gesture tuning changes live.
//
// Parameters:
//   - path: the TOML file the configuration was loaded from
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithConfigPath(path string) EngineBuilderOption {
	return func(e *engine) {
		e.configPath = path
	}
}

// WithLogger sets the base logger. The session id is added to it.
func WithLogger(l *slog.Logger) EngineBuilderOption {
	return func(e *engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithClock sets the clock shared by tracking, frame pacing and profiling.
func WithClock(c common.Clock) EngineBuilderOption {
	return func(e *engine) {
		if c != nil {
			e.clock = c
		}
	}
}
