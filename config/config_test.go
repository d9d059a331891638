package config

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/oxy-xr/engine/gesture"
	"github.com/Carmen-Shannon/oxy-xr/engine/hand"
	"github.com/Carmen-Shannon/oxy-xr/engine/loader"
	"github.com/Carmen-Shannon/oxy-xr/engine/renderer"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 3, cfg.Loop.MaxSimultaneousRenders)
	assert.Equal(t, loader.ModelIdentifier{Kind: loader.KindSampleBox}, cfg.ModelIdentifier())
	assert.Equal(t, renderer.PresentModeVSync, cfg.PresentMode())
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel())
	assert.InDelta(t, math32.Pi/2, cfg.FOVY(), 1e-6)
	assert.False(t, cfg.Viewport.UprightCalibration)
}

func TestParseOverridesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
[gesture]
dominant_hand = "left"
pinch_threshold = 0.05
pinch_update_interval = "50ms"

[loop]
present_mode = "uncapped"

[model]
kind = "point-cloud"
path = "scans/room.ply"

[viewport]
upright_calibration = true

[log]
level = "debug"
`))
	require.NoError(t, err)

	assert.Equal(t, "left", cfg.Gesture.DominantHand)
	assert.Equal(t, float32(0.05), cfg.Gesture.PinchThreshold)
	assert.Equal(t, Duration(50*time.Millisecond), cfg.Gesture.PinchUpdateInterval)
	assert.Equal(t, gesture.DefaultSwipeStep, cfg.Gesture.SwipeStep, "unset keys keep defaults")
	assert.Equal(t, renderer.PresentModeUncapped, cfg.PresentMode())
	assert.Equal(t, loader.ModelIdentifier{Kind: loader.KindPointCloud, Path: "scans/room.ply"}, cfg.ModelIdentifier())
	assert.True(t, cfg.Viewport.UprightCalibration)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel())

	r := gesture.NewRecognizer(cfg.RecognizerOptions()...)
	assert.Equal(t, hand.Left, r.DominantHand())
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	_, err := Parse([]byte("[gesture]\npinch_treshold = 0.05\n"))
	assert.ErrorContains(t, err, "decode config")
}

func TestParseRejectsBadDuration(t *testing.T) {
	_, err := Parse([]byte("[gesture]\npinch_update_interval = \"soon\"\n"))
	assert.Error(t, err)
}

func TestValidateReportsEveryProblem(t *testing.T) {
	cfg := Default()
	cfg.Gesture.DominantHand = "both"
	cfg.Loop.MaxSimultaneousRenders = 0
	cfg.Model.Kind = "point-cloud"
	cfg.Log.Level = "loud"

	err := cfg.Validate()
	require.ErrorIs(t, err, ErrInvalid)
	assert.ErrorContains(t, err, "gesture.dominant_hand")
	assert.ErrorContains(t, err, "loop.max_simultaneous_renders")
	assert.ErrorContains(t, err, "model.path is required")
	assert.ErrorContains(t, err, "log.level")
}

func TestEncodeRoundTripsDurations(t *testing.T) {
	data, err := Default().Encode()
	require.NoError(t, err)
	assert.Contains(t, string(data), "100ms")

	cfg, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.ErrorContains(t, err, "read config")
}

func TestWatchReloadsValidEdits(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "oxy.toml")
	require.NoError(t, os.WriteFile(path, []byte("[gesture]\npinch_threshold = 0.05\n"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloaded := make(chan *Config, 4)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, nil, func(c *Config) {
			select {
			case reloaded <- c:
			default:
			}
		})
	}()

	// the watcher starts asynchronously; rewrite until a reload is observed
	require.Eventually(t, func() bool {
		_ = os.WriteFile(filepath.Join(dir, "other.toml"), []byte("ignored"), 0o644)
		_ = os.WriteFile(path, []byte("[gesture]\npinch_threshold = 0.04\n"), 0o644)
		select {
		case c := <-reloaded:
			return c.Gesture.PinchThreshold == 0.04
		case <-time.After(4 * reloadDelay):
			return false
		}
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("watch did not stop")
	}
}

func TestWatchSkipsInvalidEdits(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "oxy.toml")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloaded := make(chan *Config, 16)
	go func() {
		_ = Watch(ctx, path, nil, func(c *Config) {
			select {
			case reloaded <- c:
			default:
			}
		})
	}()

	require.Eventually(t, func() bool {
		_ = os.WriteFile(path, []byte("[gesture]\npinch_threshold = -1\n"), 0o644)
		time.Sleep(2 * reloadDelay)
		_ = os.WriteFile(path, []byte("[gesture]\npinch_threshold = 0.03\n"), 0o644)
		select {
		case c := <-reloaded:
			return c.Gesture.PinchThreshold == 0.03
		case <-time.After(4 * reloadDelay):
			return false
		}
	}, 5*time.Second, 10*time.Millisecond)
	for {
		select {
		case c := <-reloaded:
			assert.NotEqual(t, float32(-1), c.Gesture.PinchThreshold)
		default:
			return
		}
	}
}
