// Package config loads the TOML run configuration and watches it for gesture tuning changes.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/chewxy/math32"
	"github.com/pelletier/go-toml/v2"

	"github.com/Carmen-Shannon/oxy-xr/engine/gesture"
	"github.com/Carmen-Shannon/oxy-xr/engine/hand"
	"github.com/Carmen-Shannon/oxy-xr/engine/loader"
	"github.com/Carmen-Shannon/oxy-xr/engine/renderer"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid config")

// Duration is a time.Duration written as a Go duration string ("100ms") in TOML.
type Duration time.Duration

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// Config is the full run configuration.
type Config struct {
	Gesture  GestureConfig  `toml:"gesture"`
	Loop     LoopConfig     `toml:"loop"`
	Viewport ViewportConfig `toml:"viewport"`
	Model    ModelConfig    `toml:"model"`
	Window   WindowConfig   `toml:"window"`
	Tracking TrackingConfig `toml:"tracking"`
	Log      LogConfig      `toml:"log"`
}

// GestureConfig tunes the gesture recognizer. Distances are in metres.
type GestureConfig struct {
	DominantHand        string   `toml:"dominant_hand"`
	PinchThreshold      float32  `toml:"pinch_threshold"`
	PinchUpdateInterval Duration `toml:"pinch_update_interval"`
	SwipeThreshold      float32  `toml:"swipe_threshold"`
	SwipeUpdateInterval Duration `toml:"swipe_update_interval"`
	SwipeStep           float32  `toml:"swipe_step"`
	MaxZoomDistance     float32  `toml:"max_zoom_distance"`
}

// LoopConfig configures the frame loop.
type LoopConfig struct {
	MaxSimultaneousRenders int      `toml:"max_simultaneous_renders"`
	PresentMode            string   `toml:"present_mode"`
	Profiling              bool     `toml:"profiling"`
	ProfilerInterval       Duration `toml:"profiler_interval"`
}

// ViewportConfig configures per-eye view construction.
type ViewportConfig struct {
	UprightCalibration bool `toml:"upright_calibration"`
}

// ModelConfig names the model loaded at startup.
type ModelConfig struct {
	Kind string `toml:"kind"`
	Path string `toml:"path"`
}

// WindowConfig configures the desktop stereo preview.
type WindowConfig struct {
	Title       string  `toml:"title"`
	Width       int     `toml:"width"`
	Height      int     `toml:"height"`
	FOVDegrees  float32 `toml:"fov_degrees"`
	IPD         float32 `toml:"ipd"`
	RefreshRate int     `toml:"refresh_rate"`
}

// TrackingConfig configures the hand pose source.
type TrackingConfig struct {
	// Simulated drives the tracker with the scripted pinch and swipe cycle.
	Simulated bool `toml:"simulated"`

	// RateHz is the simulated update rate.
	RateHz int `toml:"rate_hz"`

	Workers int `toml:"workers"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `toml:"level"`
}

// Default returns the built-in configuration.
//
// Returns:
//   - *Config: a valid configuration
func Default() *Config {
	return &Config{
		Gesture: GestureConfig{
			DominantHand:        "right",
			PinchThreshold:      gesture.DefaultPinchThreshold,
			PinchUpdateInterval: Duration(gesture.DefaultPinchUpdateInterval),
			SwipeThreshold:      gesture.DefaultSwipeThreshold,
			SwipeUpdateInterval: Duration(gesture.DefaultSwipeUpdateInterval),
			SwipeStep:           gesture.DefaultSwipeStep,
			MaxZoomDistance:     gesture.DefaultMaxZoomDistance,
		},
		Loop: LoopConfig{
			MaxSimultaneousRenders: 3,
			PresentMode:            "vsync",
			ProfilerInterval:       Duration(time.Second),
		},
		Model: ModelConfig{Kind: loader.KindSampleBox.String()},
		Window: WindowConfig{
			Title:      "oxy-xr",
			Width:      1280,
			Height:     720,
			FOVDegrees: 90,
			IPD:        0.064,
		},
		Tracking: TrackingConfig{Simulated: true, RateHz: 90, Workers: 1},
		Log:      LogConfig{Level: "info"},
	}
}

// Load reads path over the defaults. Keys missing from the file keep their default
// values; unknown keys are an error.
//
// Parameters:
//   - path: the TOML file
//
// Returns:
//   - *Config: the validated configuration
//   - error: error if the file cannot be read, decoded or validated
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes TOML data over the defaults and validates the result.
//
// Parameters:
//   - data: the TOML document
//
// Returns:
//   - *Config: the validated configuration
//   - error: error if the data cannot be decoded or validated
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return nil, fmt.Errorf("decode config: %s", strict.String())
		}
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Encode writes the configuration as TOML.
func (c *Config) Encode() ([]byte, error) {
	return toml.Marshal(c)
}

// Validate checks every field. All problems are reported together.
//
// Returns:
//   - error: nil, or an error wrapping ErrInvalid
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	_, err := hand.ParseChirality(c.Gesture.DominantHand)
	check(err == nil, "gesture.dominant_hand: %q is not left or right", c.Gesture.DominantHand)
	check(c.Gesture.PinchThreshold > 0, "gesture.pinch_threshold must be positive")
	check(c.Gesture.PinchUpdateInterval >= 0, "gesture.pinch_update_interval must not be negative")
	check(c.Gesture.SwipeThreshold > 0, "gesture.swipe_threshold must be positive")
	check(c.Gesture.SwipeUpdateInterval >= 0, "gesture.swipe_update_interval must not be negative")
	check(c.Gesture.SwipeStep > 0, "gesture.swipe_step must be positive")
	check(c.Gesture.MaxZoomDistance > 0, "gesture.max_zoom_distance must be positive")

	check(c.Loop.MaxSimultaneousRenders > 0, "loop.max_simultaneous_renders must be positive")
	check(c.Loop.PresentMode == "vsync" || c.Loop.PresentMode == "uncapped",
		"loop.present_mode: %q is not vsync or uncapped", c.Loop.PresentMode)
	check(!c.Loop.Profiling || c.Loop.ProfilerInterval > 0, "loop.profiler_interval must be positive when profiling")

	kind, err := loader.ParseModelKind(c.Model.Kind)
	check(err == nil, "model.kind: %q is not sample-box or point-cloud", c.Model.Kind)
	check(err != nil || kind != loader.KindPointCloud || c.Model.Path != "", "model.path is required for point-cloud")

	check(c.Window.Width > 0 && c.Window.Height > 0, "window size must be positive")
	check(c.Window.FOVDegrees > 0 && c.Window.FOVDegrees < 180, "window.fov_degrees must be in (0, 180)")
	check(c.Window.IPD >= 0, "window.ipd must not be negative")

	check(!c.Tracking.Simulated || c.Tracking.RateHz > 0, "tracking.rate_hz must be positive")
	check(c.Tracking.Workers > 0, "tracking.workers must be positive")

	var level slog.Level
	check(level.UnmarshalText([]byte(c.Log.Level)) == nil, "log.level: %q is not debug, info, warn or error", c.Log.Level)

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
}

// RecognizerOptions converts the gesture section into recognizer options.
// The configuration must be valid.
//
// Returns:
//   - []gesture.RecognizerBuilderOption: the options
func (c *Config) RecognizerOptions() []gesture.RecognizerBuilderOption {
	dominant, _ := hand.ParseChirality(c.Gesture.DominantHand)
	return []gesture.RecognizerBuilderOption{
		gesture.WithDominantHand(dominant),
		gesture.WithPinchThreshold(c.Gesture.PinchThreshold),
		gesture.WithPinchUpdateInterval(time.Duration(c.Gesture.PinchUpdateInterval)),
		gesture.WithSwipeThreshold(c.Gesture.SwipeThreshold),
		gesture.WithSwipeUpdateInterval(time.Duration(c.Gesture.SwipeUpdateInterval)),
		gesture.WithSwipeStep(c.Gesture.SwipeStep),
		gesture.WithMaxZoomDistance(c.Gesture.MaxZoomDistance),
	}
}

// ModelIdentifier returns the startup model. The configuration must be valid.
func (c *Config) ModelIdentifier() loader.ModelIdentifier {
	kind, _ := loader.ParseModelKind(c.Model.Kind)
	return loader.ModelIdentifier{Kind: kind, Path: c.Model.Path}
}

// PresentMode returns the configured swapchain present mode.
func (c *Config) PresentMode() renderer.PresentMode {
	return renderer.ParsePresentMode(c.Loop.PresentMode)
}

// FOVY returns the vertical field of view in radians.
func (c *Config) FOVY() float32 {
	return c.Window.FOVDegrees * math32.Pi / 180
}

// LogLevel returns the configured slog level, defaulting to info.
func (c *Config) LogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(c.Log.Level))); err != nil {
		return slog.LevelInfo
	}
	return level
}
