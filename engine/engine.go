// Package engine wires the preview window, GPU, model loader, hand tracker and frame
// loop into one session and runs it.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Carmen-Shannon/oxy-xr/common"
	"github.com/Carmen-Shannon/oxy-xr/config"
	"github.com/Carmen-Shannon/oxy-xr/engine/frame"
	"github.com/Carmen-Shannon/oxy-xr/engine/gesture"
	"github.com/Carmen-Shannon/oxy-xr/engine/loader"
	"github.com/Carmen-Shannon/oxy-xr/engine/profiler"
	"github.com/Carmen-Shannon/oxy-xr/engine/renderer"
	"github.com/Carmen-Shannon/oxy-xr/engine/tracking"
	"github.com/Carmen-Shannon/oxy-xr/engine/viewport"
	"github.com/Carmen-Shannon/oxy-xr/engine/window"
)

// engine implements the Engine interface.
type engine struct {
	cfg        *config.Config
	configPath string
	sessionID  uuid.UUID
	logger     *slog.Logger
	clock      common.Clock

	window window.Window
	gpu    renderer.GPU

	loader  loader.Loader
	tracker tracking.Tracker

	mu         sync.RWMutex
	controller frame.Controller

	quitOnce sync.Once
	quit     chan struct{}
}

// Engine is the main entry point. It owns one viewing session from window creation
// to shutdown.
type Engine interface {
	// Run opens the preview, starts tracking and the frame loop and processes window
	// messages until the window closes, the loop fails or ctx is cancelled.
	// Must be called from the main goroutine.
	//
	// Parameters:
	//   - ctx: cancels the session
	//
	// Returns:
	//   - error: the first fatal error, such as renderer.ErrGPUUnavailable or frame.ErrCommandBuffer
	Run(ctx context.Context) error

	// LoadModel makes id the active model. On failure the current model stays active.
	//
	// Parameters:
	//   - id: the model to load
	//
	// Returns:
	//   - error: error if the model could not be loaded
	LoadModel(id loader.ModelIdentifier) error

	// SessionID returns the identifier attached to every log record of this session.
	SessionID() uuid.UUID

	// Loader returns the model loader.
	Loader() loader.Loader

	// Tracker returns the hand tracker. Updates from a real pose provider go to its Submit.
	Tracker() tracking.Tracker

	// Controller returns the frame loop controller, nil until Run has created it.
	Controller() frame.Controller

	// Quit asks a running session to stop. Safe to call multiple times and from any goroutine.
	Quit()
}

// NewEngine creates an Engine for cfg. The window and GPU are created by Run unless
// supplied as options.
//
// Parameters:
//   - cfg: the validated configuration
//   - options: functional options for engine configuration
//
// Returns:
//   - Engine: the newly created engine
func NewEngine(cfg *config.Config, options ...EngineBuilderOption) Engine {
	e := &engine{
		cfg:       cfg,
		sessionID: uuid.New(),
		logger:    slog.Default(),
		clock:     common.SystemClock(),
		quit:      make(chan struct{}),
	}
	for _, opt := range options {
		opt(e)
	}
	e.logger = e.logger.With("session", e.sessionID.String())

	e.loader = loader.NewLoader(loader.BackendTypePLY,
		loader.WithFactory(loader.KindSampleBox, e.newBoxRenderer),
		loader.WithFactory(loader.KindPointCloud, e.newPointCloudRenderer),
		loader.WithLogger(e.logger.With("component", "loader")),
	)
	e.tracker = tracking.NewTracker(
		tracking.WithRecognizer(gesture.NewRecognizer(cfg.RecognizerOptions()...)),
		tracking.WithClock(e.clock),
		tracking.WithWorkers(cfg.Tracking.Workers),
		tracking.WithLogger(e.logger.With("component", "tracking")),
	)
	return e
}

func (e *engine) SessionID() uuid.UUID {
	return e.sessionID
}

func (e *engine) Loader() loader.Loader {
	return e.loader
}

func (e *engine) Tracker() tracking.Tracker {
	return e.tracker
}

func (e *engine) Controller() frame.Controller {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.controller
}

func (e *engine) Quit() {
	e.quitOnce.Do(func() {
		close(e.quit)
	})
}

func (e *engine) newBoxRenderer(loader.ModelIdentifier, *renderer.PointCloud) (renderer.ModelRenderer, error) {
	return renderer.NewBoxRenderer(e.gpu, renderer.WithRendererLogger(e.logger))
}

func (e *engine) newPointCloudRenderer(id loader.ModelIdentifier, cloud *renderer.PointCloud) (renderer.ModelRenderer, error) {
	return renderer.NewPointCloudRenderer(e.gpu, id.Path, cloud, renderer.WithRendererLogger(e.logger))
}

func (e *engine) LoadModel(id loader.ModelIdentifier) error {
	r, changed, err := e.loader.Load(id)
	if err != nil {
		e.logger.Error("model load failed", "model", id.String(), "error", err)
		return err
	}
	if c := e.Controller(); c != nil && changed {
		c.SetRenderer(r)
	}
	return nil
}

// loadStartupModel loads the configured model, falling back to the sample box.
func (e *engine) loadStartupModel() (renderer.ModelRenderer, error) {
	r, _, err := e.loader.Load(e.cfg.ModelIdentifier())
	if err == nil {
		return r, nil
	}
	e.logger.Warn("startup model unavailable, using sample box", "error", err)
	r, _, err = e.loader.Load(loader.ModelIdentifier{Kind: loader.KindSampleBox})
	return r, err
}

// handleKey maps preview key presses to model actions.
func (e *engine) handleKey(key uint32) {
	switch key {
	case common.Key1:
		_ = e.LoadModel(loader.ModelIdentifier{Kind: loader.KindSampleBox})
	case common.Key2:
		if e.cfg.Model.Path == "" {
			e.logger.Info("no point cloud configured")
			return
		}
		_ = e.LoadModel(loader.ModelIdentifier{Kind: loader.KindPointCloud, Path: e.cfg.Model.Path})
	case common.KeyR:
		if c := e.Controller(); c != nil {
			c.SetRenderer(c.Renderer())
			e.logger.Info("model re-centered")
		}
	}
}

// applyConfig swaps in the gesture tuning of a reloaded configuration. Everything
// else needs a restart.
func (e *engine) applyConfig(cfg *config.Config) {
	e.tracker.SetRecognizer(gesture.NewRecognizer(cfg.RecognizerOptions()...))
	e.logger.Info("gesture tuning updated",
		"dominant_hand", cfg.Gesture.DominantHand,
		"pinch_threshold", cfg.Gesture.PinchThreshold,
		"swipe_threshold", cfg.Gesture.SwipeThreshold,
	)
}

// newController builds the frame loop for surface, rendering with command buffers from queue.
func (e *engine) newController(surface frame.Surface, queue renderer.CommandQueue) frame.Controller {
	options := []frame.ControllerBuilderOption{
		frame.WithMailbox(e.tracker.Mailbox()),
		frame.WithHeadPose(tracking.StaticHeadPose(mgl32.Ident4())),
		frame.WithViewportBuilder(viewport.NewBuilder(viewport.WithUprightCalibration(e.cfg.Viewport.UprightCalibration))),
		frame.WithMaxSimultaneousRenders(e.cfg.Loop.MaxSimultaneousRenders),
		frame.WithClock(e.clock),
		frame.WithLogger(e.logger.With("component", "frame")),
	}
	if e.cfg.Loop.Profiling {
		options = append(options, frame.WithProfiler(profiler.NewProfiler(
			profiler.WithInterval(time.Duration(e.cfg.Loop.ProfilerInterval)),
			profiler.WithClock(e.clock),
			profiler.WithLogger(e.logger.With("component", "profiler")),
		)))
	}

	c := frame.NewController(surface, queue, options...)
	e.mu.Lock()
	e.controller = c
	e.mu.Unlock()
	return c
}

func (e *engine) Run(ctx context.Context) error {
	e.logger.Info("session starting", "model", e.cfg.ModelIdentifier().String())

	if e.window == nil {
		win, err := window.NewWindow(
			window.WithTitle(e.cfg.Window.Title),
			window.WithWidth(e.cfg.Window.Width),
			window.WithHeight(e.cfg.Window.Height),
			window.WithFOV(e.cfg.FOVY()),
			window.WithIPD(e.cfg.Window.IPD),
			window.WithRefreshRate(e.cfg.Window.RefreshRate),
			window.WithClock(e.clock),
			window.WithLogger(e.logger.With("component", "window")),
		)
		if err != nil {
			return err
		}
		e.window = win
	}
	defer e.window.Close()

	if e.gpu == nil {
		gpu, err := renderer.NewGPU(e.window.SurfaceDescriptor(),
			renderer.WithPresentMode(e.cfg.PresentMode()),
			renderer.WithGPULogger(e.logger.With("component", "gpu")),
		)
		if err != nil {
			return err
		}
		e.gpu = gpu
	}
	defer e.gpu.Release()
	defer e.loader.Release()

	e.gpu.ConfigureSurface(e.window.Width(), e.window.Height())
	e.window.SetResizeCallback(e.gpu.ConfigureSurface)
	e.window.Attach(e.gpu)
	e.window.SetKeyDownCallback(e.handleKey)

	controller := e.newController(e.window, e.gpu)
	startup, err := e.loadStartupModel()
	if err != nil {
		return fmt.Errorf("load startup model: %w", err)
	}
	controller.SetRenderer(startup)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer e.window.RequestClose()
		return controller.Run(gctx)
	})

	if e.cfg.Tracking.Simulated {
		sim := tracking.NewSimulatedHands(e.clock.Now())
		sim.Rate = time.Second / time.Duration(e.cfg.Tracking.RateHz)
		g.Go(func() error {
			return sim.Run(gctx, e.tracker.Submit)
		})
	}

	if e.configPath != "" {
		g.Go(func() error {
			return config.Watch(gctx, e.configPath, e.logger.With("component", "config"), e.applyConfig)
		})
	}

	g.Go(func() error {
		select {
		case <-gctx.Done():
		case <-e.quit:
		}
		e.window.RequestClose()
		return nil
	})

	e.window.ProcessMessages()
	cancel()

	err = g.Wait()
	e.tracker.Close()
	if errors.Is(err, context.Canceled) {
		err = nil
	}

	stats := controller.Stats()
	e.logger.Info("session ended",
		"submitted", stats.Submitted,
		"skipped", stats.Skipped,
		"render_errors", stats.RenderErrors,
		"tracking_dropped", e.tracker.Dropped(),
	)
	return err
}
