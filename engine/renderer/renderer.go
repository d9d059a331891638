// Package renderer defines the boundary between the frame loop and whatever draws the
// model: the ModelRenderer contract, the GPU command submission interfaces, and the
// WebGPU implementations of both.
package renderer

import (
	"errors"

	"github.com/chewxy/math32"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Carmen-Shannon/oxy-xr/engine/viewport"
)

var (
	// ErrGPUUnavailable is returned when no usable GPU instance, adapter, device or queue
	// could be created. The process cannot render without one.
	ErrGPUUnavailable = errors.New("gpu unavailable")

	// ErrAlreadyCommitted is returned by Commit on a command buffer that was already submitted.
	ErrAlreadyCommitted = errors.New("command buffer already committed")

	// ErrTooManyViews is returned by Render when more viewports are passed than the
	// renderer was built for.
	ErrTooManyViews = errors.New("too many viewports")

	// ErrRendererReleased is returned by Render once the renderer's GPU resources are gone.
	ErrRendererReleased = errors.New("renderer released")
)

// RenderTargets are the textures a frame draws into.
type RenderTargets struct {
	Color  *wgpu.TextureView
	Depth  *wgpu.TextureView
	Width  int
	Height int
}

// CommandBuffer collects one frame's GPU work.
type CommandBuffer interface {
	// Encoder returns the command encoder to record passes into.
	// Nil when the buffer is not backed by a GPU device.
	Encoder() *wgpu.CommandEncoder

	// OnCompleted registers fn to run once the GPU has finished executing this buffer.
	// fn may run on any goroutine. Must be called before Commit.
	//
	// Parameters:
	//   - fn: the completion callback
	OnCompleted(fn func())

	// Commit submits the recorded work. Completion callbacks only run if Commit succeeds.
	//
	// Returns:
	//   - error: error if the work could not be submitted
	Commit() error
}

// CommandQueue creates command buffers.
type CommandQueue interface {
	// NewCommandBuffer starts a new command buffer.
	//
	// Returns:
	//   - CommandBuffer: the new buffer
	//   - error: error if the device could not create an encoder
	NewCommandBuffer() (CommandBuffer, error)
}

// ModelRenderer draws a loaded model and the hand joint markers for each eye.
type ModelRenderer interface {
	// Render records the draw commands for one frame.
	//
	// Parameters:
	//   - viewports: one descriptor per eye
	//   - targets: the color and depth targets to draw into
	//   - cmd: the command buffer to record into
	//
	// Returns:
	//   - error: error if recording failed; the frame is still committed
	Render(viewports []viewport.Descriptor, targets RenderTargets, cmd CommandBuffer) error

	// UpdateMarkers replaces the set of joint marker positions drawn each frame.
	//
	// Parameters:
	//   - positions: world-space marker positions
	//
	// Returns:
	//   - error: error if the markers could not be uploaded
	UpdateMarkers(positions []mgl32.Vec3) error

	// ModelCenter reports the model's center, used once per load to seed the model translation.
	//
	// Returns:
	//   - mgl32.Vec3: the center
	//   - bool: false while the center is not known yet
	ModelCenter() (mgl32.Vec3, bool)

	// Release frees the renderer's GPU resources. It is safe to call while a frame that
	// used the renderer is still in flight, and more than once.
	Release()
}

// PointCloud is a set of colored points loaded from disk.
type PointCloud struct {
	Positions []mgl32.Vec3

	// Colors holds one linear RGB color per position, or is empty for uncolored clouds.
	Colors []mgl32.Vec3
}

// Centroid returns the mean of the cloud's positions.
//
// Returns:
//   - mgl32.Vec3: the centroid
//   - bool: false if the cloud has no points
func (p *PointCloud) Centroid() (mgl32.Vec3, bool) {
	if p == nil || len(p.Positions) == 0 {
		return mgl32.Vec3{}, false
	}
	var sum [3]float64
	for _, v := range p.Positions {
		sum[0] += float64(v[0])
		sum[1] += float64(v[1])
		sum[2] += float64(v[2])
	}
	n := float64(len(p.Positions))
	return mgl32.Vec3{float32(sum[0] / n), float32(sum[1] / n), float32(sum[2] / n)}, true
}

// Radius returns the largest distance from the centroid to any point.
func (p *PointCloud) Radius() float32 {
	c, ok := p.Centroid()
	if !ok {
		return 0
	}
	var r float32
	for _, v := range p.Positions {
		r = math32.Max(r, v.Sub(c).Len())
	}
	return r
}
