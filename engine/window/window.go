// Package window provides the desktop stereo preview: a GLFW window whose framebuffer
// is split into two eyes and exposed to the frame loop as a frame.Surface.
package window

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/chewxy/math32"
	"github.com/cogentcore/webgpu/wgpu"

	"github.com/Carmen-Shannon/oxy-xr/common"
	"github.com/Carmen-Shannon/oxy-xr/engine/frame"
	"github.com/Carmen-Shannon/oxy-xr/engine/viewport"
)

// Window is a desktop display surface for the frame loop.
// Iconifying the window pauses the loop and closing it invalidates the surface.
type Window interface {
	frame.Surface

	// SetResizeCallback sets the function called when the framebuffer is resized.
	//
	// Parameters:
	//   - callback: function receiving new width and height in pixels
	SetResizeCallback(callback func(width, height int))

	// SetKeyDownCallback sets the callback for key press events.
	//
	// Parameters:
	//   - callback: function receiving the key code
	SetKeyDownCallback(callback func(keyCode uint32))

	// Attach sets where drawables get their render targets. Until a source is
	// attached every frame is skipped for lack of a drawable.
	//
	// Parameters:
	//   - src: the target source, usually the renderer.GPU
	Attach(src TargetSource)

	// SurfaceDescriptor returns a wgpu.SurfaceDescriptor suitable for creating a WebGPU surface.
	// The descriptor is created by the wgpuglfw bridge from the underlying GLFW window.
	//
	// Returns:
	//   - *wgpu.SurfaceDescriptor: the platform-specific surface descriptor, or nil if window is not initialized
	SurfaceDescriptor() *wgpu.SurfaceDescriptor

	// Layout returns the current eye layout.
	Layout() StereoLayout

	// RequestClose invalidates the surface and asks the message loop to exit.
	// Safe to call from any goroutine.
	RequestClose()

	// IsRunning returns true until the window has been closed.
	IsRunning() bool

	// Close closes the window and releases platform resources.
	//
	// Returns:
	//   - error: error if close operation fails
	Close() error

	// ProcessMessages runs the window message loop on the calling goroutine, which must
	// be the main thread. Blocks until the window is closed.
	ProcessMessages()

	// Width returns the current framebuffer width in pixels.
	Width() int

	// Height returns the current framebuffer height in pixels.
	Height() int
}

// engineWindow is the implementation of the Window interface.
type engineWindow struct {
	title string

	maxWidth, maxHeight int
	minWidth, minHeight int

	mu     sync.RWMutex
	layout StereoLayout
	source TargetSource

	depth     viewport.DepthRange
	refreshHz int

	life   *lifecycle
	pacer  *pacer
	clock  common.Clock
	logger *slog.Logger

	// internalWindow holds the platform-specific window data (glfwWindow).
	internalWindow any

	onResize  func(width, height int)
	onKeyDown func(keyCode uint32)
}

var _ Window = &engineWindow{}

// NewWindow creates and shows a new Window with the specified options.
// Must be called from the main thread.
//
// Parameters:
//   - options: functional options to configure the window
//
// Returns:
//   - Window: the window
//   - error: error if the platform window could not be created
func NewWindow(options ...WindowBuilderOption) (Window, error) {
	w := newEngineWindow(options...)
	if err := newPlatformWindow(w); err != nil {
		return nil, fmt.Errorf("failed to create platform window: %w", err)
	}
	w.pacer = newPacer(w.clock, w.refreshHz)
	return w, nil
}

// newEngineWindow applies defaults and options without touching the platform.
func newEngineWindow(options ...WindowBuilderOption) *engineWindow {
	w := &engineWindow{
		title:     "oxy-xr",
		maxWidth:  3840,
		maxHeight: 2160,
		minWidth:  320,
		minHeight: 180,
		layout: StereoLayout{
			Width:  1280,
			Height: 720,
			IPD:    0.064,
			FOVY:   math32.Pi / 2,
		},
		depth:  viewport.DepthRange{Near: 0.05, Far: viewport.InfiniteFar},
		life:   newLifecycle(),
		clock:  common.SystemClock(),
		logger: slog.Default(),
	}
	for _, opt := range options {
		opt(w)
	}
	return w
}

func (w *engineWindow) State() frame.LoopState {
	return w.life.State()
}

func (w *engineWindow) WaitUntilRunning() {
	w.life.WaitUntilRunning()
}

func (w *engineWindow) NextFrame() (frame.Frame, bool) {
	if w.pacer == nil || w.State() != frame.Running {
		return nil, false
	}
	return &previewFrame{w: w, timing: w.pacer.predict()}, true
}

func (w *engineWindow) SetResizeCallback(callback func(width, height int)) {
	w.onResize = callback
}

func (w *engineWindow) SetKeyDownCallback(callback func(keyCode uint32)) {
	w.onKeyDown = callback
}

func (w *engineWindow) Attach(src TargetSource) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.source = src
}

func (w *engineWindow) targetSource() TargetSource {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.source
}

func (w *engineWindow) Layout() StereoLayout {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.layout
}

// resize records a new framebuffer size and notifies the resize callback.
func (w *engineWindow) resize(width, height int) {
	w.mu.Lock()
	w.layout.Width = width
	w.layout.Height = height
	w.mu.Unlock()

	if w.onResize != nil && width > 0 && height > 0 {
		w.onResize(width, height)
	}
}

// setIconified pauses or resumes the frame loop.
func (w *engineWindow) setIconified(iconified bool) {
	state := frame.Running
	if iconified {
		state = frame.Paused
	}
	if w.life.set(state) {
		w.logger.Info("preview state changed", "state", state.String())
	}
}

// invalidate ends the surface for good and wakes a paused loop.
func (w *engineWindow) invalidate() {
	if w.life.set(frame.Invalidated) {
		w.logger.Info("preview closed")
	}
}

func (w *engineWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor {
	return platformGetSurfaceDescriptor(w)
}

func (w *engineWindow) IsRunning() bool {
	return w.State() != frame.Invalidated && platformIsRunningCheck(w)
}

func (w *engineWindow) RequestClose() {
	w.invalidate()
	platformRequestClose(w)
}

func (w *engineWindow) Close() error {
	w.invalidate()
	return platformCloseWindow(w)
}

func (w *engineWindow) ProcessMessages() {
	for w.IsRunning() {
		if succ := platformProcessMessages(w); !succ {
			break
		}
	}
	w.invalidate()
}

func (w *engineWindow) Width() int {
	return w.Layout().Width
}

func (w *engineWindow) Height() int {
	return w.Layout().Height
}
