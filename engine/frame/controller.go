// Package frame runs the render loop: it paces frames to the display surface, bounds
// GPU work in flight, turns the latest tracking snapshot into per-eye viewports and
// hands them to the active ModelRenderer.
package frame

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Carmen-Shannon/oxy-xr/common"
	"github.com/Carmen-Shannon/oxy-xr/engine/profiler"
	"github.com/Carmen-Shannon/oxy-xr/engine/renderer"
	"github.com/Carmen-Shannon/oxy-xr/engine/tracking"
	"github.com/Carmen-Shannon/oxy-xr/engine/transform"
	"github.com/Carmen-Shannon/oxy-xr/engine/viewport"
)

var (
	// ErrCommandBuffer is returned by Run when the GPU cannot create a command buffer.
	ErrCommandBuffer = errors.New("command buffer unavailable")

	// ErrRenderPanic is returned by Run when the loop recovered from a panic.
	ErrRenderPanic = errors.New("render loop panicked")
)

// Controller drives the render loop for one session.
type Controller interface {
	// Run renders frames until the surface is invalidated or ctx is cancelled.
	// Blocks while the surface is paused.
	//
	// Parameters:
	//   - ctx: cancels the loop
	//
	// Returns:
	//   - error: ErrCommandBuffer or ErrRenderPanic on fatal failure, nil on a clean exit
	Run(ctx context.Context) error

	// SetRenderer swaps the active renderer. The next frame re-seeds the model
	// translation from the new renderer's center.
	//
	// Parameters:
	//   - r: the renderer to draw with, or nil to stop drawing
	SetRenderer(r renderer.ModelRenderer)

	// Renderer returns the active renderer.
	Renderer() renderer.ModelRenderer

	// Stats returns the cumulative frame counters.
	Stats() profiler.FrameStats

	// State returns the surface state last observed by the loop.
	State() LoopState
}

// session is the per-run gesture-driven model state. It is only touched by the
// render loop goroutine.
type session struct {
	accumulator *transform.Accumulator
}

type controllerImpl struct {
	surface   Surface
	queue     renderer.CommandQueue
	mailbox   *tracking.Mailbox
	headPose  tracking.HeadPoseSource
	viewports viewport.Builder
	admission *Admission
	clock     common.Clock
	logger    *slog.Logger
	profiler  *profiler.Profiler

	mu       sync.RWMutex
	renderer renderer.ModelRenderer
	reseed   atomic.Bool

	state atomic.Int32

	submitted      atomic.Uint64
	skipped        atomic.Uint64
	renderErrors   atomic.Uint64
	commitErrors   atomic.Uint64
	headPoseMisses atomic.Uint64

	session session
}

var _ Controller = &controllerImpl{}

// NewController creates a Controller rendering to surface with command buffers from queue.
// Snapshots are read from an empty mailbox and head pose is identity unless configured.
//
// Parameters:
//   - surface: the display surface
//   - queue: the command buffer source
//   - options: variadic list of ControllerBuilderOption functions
//
// Returns:
//   - Controller: the controller
func NewController(surface Surface, queue renderer.CommandQueue, options ...ControllerBuilderOption) Controller {
	c := &controllerImpl{
		surface:   surface,
		queue:     queue,
		mailbox:   &tracking.Mailbox{},
		headPose:  tracking.StaticHeadPose(mgl32.Ident4()),
		viewports: viewport.NewBuilder(),
		clock:     common.SystemClock(),
		logger:    slog.Default(),
		session:   session{accumulator: transform.NewAccumulator()},
	}
	for _, opt := range options {
		opt(c)
	}
	if c.admission == nil {
		c.admission = NewAdmission(DefaultMaxSimultaneousRenders)
	}
	return c
}

func (c *controllerImpl) SetRenderer(r renderer.ModelRenderer) {
	c.mu.Lock()
	c.renderer = r
	c.mu.Unlock()
	c.reseed.Store(true)
}

func (c *controllerImpl) Renderer() renderer.ModelRenderer {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.renderer
}

func (c *controllerImpl) Stats() profiler.FrameStats {
	return profiler.FrameStats{
		Submitted:      c.submitted.Load(),
		Skipped:        c.skipped.Load(),
		RenderErrors:   c.renderErrors.Load(),
		CommitErrors:   c.commitErrors.Load(),
		HeadPoseMisses: c.headPoseMisses.Load(),
		InFlight:       c.admission.InFlight(),
	}
}

func (c *controllerImpl) State() LoopState {
	return LoopState(c.state.Load())
}

func (c *controllerImpl) Run(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("render loop recovered from panic", "panic", r)
			err = fmt.Errorf("%w: %v", ErrRenderPanic, r)
		}
	}()

	for {
		if ctx.Err() != nil {
			return nil
		}

		state := c.surface.State()
		if prev := LoopState(c.state.Swap(int32(state))); prev != state {
			c.logger.Info("surface state changed", "from", prev.String(), "to", state.String())
		}

		switch state {
		case Invalidated:
			return nil
		case Paused:
			c.surface.WaitUntilRunning()
			continue
		}

		if err := c.renderFrame(ctx); err != nil {
			return err
		}
	}
}

// renderFrame runs one loop iteration. Only fatal errors are returned; everything
// else is skipped or logged.
func (c *controllerImpl) renderFrame(ctx context.Context) error {
	f, ok := c.surface.NextFrame()
	if !ok {
		c.skip("no frame")
		return nil
	}
	timing, ok := f.PredictTiming()
	if !ok {
		c.skip("no timing")
		return nil
	}
	c.clock.SleepUntil(timing.OptimalInputTime)

	active := c.Renderer()
	if active == nil {
		c.skip("no renderer")
		return nil
	}

	drawable, ok := f.Drawable()
	if !ok {
		c.skip("no drawable")
		return nil
	}
	// the surface hands out no further drawables until this one is presented
	defer drawable.Present()

	cmd, err := c.queue.NewCommandBuffer()
	if err != nil {
		return errors.Join(ErrCommandBuffer, err)
	}

	if err := c.admission.Acquire(ctx); err != nil {
		// shutting down
		return nil
	}

	head, hasHead := c.headPose.QueryHeadPose(drawable.PresentationTime())
	if !hasHead {
		c.headPoseMisses.Add(1)
	}

	c.applySnapshot(active)

	descriptors := c.viewports.Build(viewport.Input{
		HeadPose:    head,
		HasHeadPose: hasHead,
		Eyes:        drawable.Views(),
		Depth:       drawable.DepthRange(),
		Model:       c.session.accumulator,
	})
	targets := drawable.Targets()

	if err := active.Render(descriptors, targets, cmd); err != nil {
		c.renderErrors.Add(1)
		c.logger.Error("render failed", "error", err)
	}

	cmd.OnCompleted(c.admission.Release)
	if err := cmd.Commit(); err != nil {
		c.admission.Release()
		c.commitErrors.Add(1)
		c.logger.Error("command buffer commit failed", "error", err)
		return nil
	}
	c.submitted.Add(1)

	if c.profiler != nil {
		c.profiler.Tick(c.Stats())
	}
	return nil
}

// applySnapshot seeds the accumulator from the renderer's center when needed, folds in
// the latest gesture state and forwards the joint markers.
func (c *controllerImpl) applySnapshot(active renderer.ModelRenderer) {
	acc := c.session.accumulator
	if c.reseed.Swap(false) {
		acc.Reset()
	}
	if !acc.Seeded() {
		if center, ok := active.ModelCenter(); ok {
			acc.Seed(center)
			c.logger.Debug("model translation seeded", "center", center)
		}
	}

	snap, ok := c.mailbox.Latest()
	if !ok {
		return
	}
	acc.Apply(snap.Gesture)

	if err := active.UpdateMarkers(snap.Joints.Positions()); err != nil {
		c.renderErrors.Add(1)
		c.logger.Error("marker update failed", "error", err)
	}
}

func (c *controllerImpl) skip(reason string) {
	c.skipped.Add(1)
	c.logger.Debug("frame skipped", "reason", reason)
}
