package renderer

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Carmen-Shannon/oxy-xr/engine/viewport"
)

// ModelCenterZ is where the sample box sits in front of the viewer, in metres along -Z.
const ModelCenterZ float32 = -8

// MarkerScale is the edge length of a joint marker cube, in metres.
const MarkerScale float32 = 0.012

// MarkerCapacity is the number of joint markers a renderer draws.
const MarkerCapacity = 32

// InspectableRenderer is a ModelRenderer that exposes what it last drew.
type InspectableRenderer interface {
	ModelRenderer

	// Label returns a human-readable name for the loaded model.
	Label() string

	// Markers returns a copy of the marker positions last passed to UpdateMarkers.
	Markers() []mgl32.Vec3

	// LastViewports returns the descriptors passed to the most recent Render call.
	LastViewports() []viewport.Descriptor

	// RenderedFrames returns how many times Render has been called.
	RenderedFrames() uint64
}

// instancedRenderer draws a set of model instances with the primary view and the
// joint markers with the secondary view, one viewport per eye. Without a GPU it
// only records its inputs.
type instancedRenderer struct {
	mu     sync.Mutex
	label  string
	center mgl32.Vec3
	model  []GPUInstance
	tint   [3]float32

	markers   []mgl32.Vec3
	viewports []viewport.Descriptor
	frames    atomic.Uint64

	maxViews int
	released bool
	pass     *instancedPass
	modelB   *instanceBatch
	markerB  *instanceBatch
	logger   *slog.Logger
}

var _ InspectableRenderer = &instancedRenderer{}

// NewBoxRenderer creates the sample box renderer: a single one-metre cube whose center
// is reported at (0, 0, ModelCenterZ) so the first frame places it in front of the viewer.
//
// Parameters:
//   - gpu: the GPU to draw with, or nil to only record frames
//   - options: variadic list of ModelRendererBuilderOption functions
//
// Returns:
//   - InspectableRenderer: the box renderer
//   - error: error if GPU resources could not be created
func NewBoxRenderer(gpu GPU, options ...ModelRendererBuilderOption) (InspectableRenderer, error) {
	r := newInstancedRenderer("sample-box", options...)
	r.center = mgl32.Vec3{0, 0, ModelCenterZ}
	r.model = []GPUInstance{{Scale: 1, Tint: [3]float32{1, 1, 1}}}
	if err := r.init(gpu); err != nil {
		r.Release()
		return nil, err
	}
	return r, nil
}

// NewPointCloudRenderer creates a renderer that draws every point of a cloud as a small cube.
// The reported model center is the cloud's centroid.
//
// Parameters:
//   - gpu: the GPU to draw with, or nil to only record frames
//   - label: a name for the cloud, usually its path
//   - cloud: the points to draw
//   - options: variadic list of ModelRendererBuilderOption functions
//
// Returns:
//   - InspectableRenderer: the point cloud renderer
//   - error: error if the cloud is empty or GPU resources could not be created
func NewPointCloudRenderer(gpu GPU, label string, cloud *PointCloud, options ...ModelRendererBuilderOption) (InspectableRenderer, error) {
	center, ok := cloud.Centroid()
	if !ok {
		return nil, fmt.Errorf("point cloud %q has no points", label)
	}

	r := newInstancedRenderer(label, options...)
	r.center = center

	// points are drawn relative to the centroid so the model rotates about its middle
	scale := cloud.Radius() / 200
	if scale <= 0 {
		scale = 0.005
	}
	r.model = make([]GPUInstance, len(cloud.Positions))
	for i, p := range cloud.Positions {
		tint := [3]float32{1, 1, 1}
		if i < len(cloud.Colors) {
			tint = cloud.Colors[i]
		}
		r.model[i] = GPUInstance{Offset: p.Sub(center), Scale: scale, Tint: tint}
	}
	if err := r.init(gpu); err != nil {
		r.Release()
		return nil, err
	}
	return r, nil
}

func newInstancedRenderer(label string, options ...ModelRendererBuilderOption) *instancedRenderer {
	r := &instancedRenderer{
		label:    label,
		tint:     [3]float32{1.0, 0.6, 0.2},
		maxViews: 2,
		logger:   slog.Default(),
	}
	for _, opt := range options {
		opt(r)
	}
	return r
}

func (r *instancedRenderer) init(gpu GPU) error {
	if gpu == nil {
		return nil
	}
	var err error
	if r.pass, err = newInstancedPass(gpu, r.label, 2*r.maxViews); err != nil {
		return fmt.Errorf("create pass for %s: %w", r.label, err)
	}
	if r.modelB, err = r.pass.newBatch(r.label+" Model", len(r.model)); err != nil {
		return fmt.Errorf("create model instances for %s: %w", r.label, err)
	}
	if r.markerB, err = r.pass.newBatch(r.label+" Markers", MarkerCapacity); err != nil {
		return fmt.Errorf("create marker instances for %s: %w", r.label, err)
	}
	r.pass.write(r.modelB, r.model)
	r.logger.Info("model renderer ready", "model", r.label, "instances", len(r.model))
	return nil
}

func (r *instancedRenderer) Label() string {
	return r.label
}

func (r *instancedRenderer) ModelCenter() (mgl32.Vec3, bool) {
	return r.center, true
}

func (r *instancedRenderer) UpdateMarkers(positions []mgl32.Vec3) error {
	if len(positions) > MarkerCapacity {
		return fmt.Errorf("%d markers exceeds capacity %d", len(positions), MarkerCapacity)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.markers = append(r.markers[:0], positions...)

	if r.pass != nil {
		instances := make([]GPUInstance, len(positions))
		for i, p := range positions {
			instances[i] = GPUInstance{Offset: p, Scale: MarkerScale, Tint: r.tint}
		}
		r.pass.write(r.markerB, instances)
	}
	return nil
}

func (r *instancedRenderer) Render(viewports []viewport.Descriptor, targets RenderTargets, cmd CommandBuffer) error {
	if len(viewports) > r.maxViews {
		return fmt.Errorf("%s: %d viewports for %d views: %w", r.label, len(viewports), r.maxViews, ErrTooManyViews)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.released {
		return fmt.Errorf("%s: %w", r.label, ErrRendererReleased)
	}
	r.viewports = append(r.viewports[:0], viewports...)
	r.frames.Add(1)

	encoder := cmd.Encoder()
	if r.pass == nil || encoder == nil {
		return nil
	}
	if targets.Color == nil {
		return fmt.Errorf("%s: no color target", r.label)
	}

	pass := r.pass.begin(encoder, targets)
	for i, vp := range viewports {
		rect := vp.Viewport
		pass.SetViewport(rect.X, rect.Y, rect.Width, rect.Height, 0, 1)
		r.pass.draw(pass, 2*i, vp.Projection.Mul4(vp.PrimaryView), r.modelB)
		r.pass.draw(pass, 2*i+1, vp.Projection.Mul4(vp.SecondaryView), r.markerB)
	}
	pass.End()
	return nil
}

func (r *instancedRenderer) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.released {
		return
	}
	r.released = true
	if r.pass != nil {
		r.modelB.release()
		r.markerB.release()
		r.pass.release()
		r.pass, r.modelB, r.markerB = nil, nil, nil
	}
	r.logger.Debug("model renderer released", "model", r.label)
}

func (r *instancedRenderer) Markers() []mgl32.Vec3 {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]mgl32.Vec3, len(r.markers))
	copy(out, r.markers)
	return out
}

func (r *instancedRenderer) LastViewports() []viewport.Descriptor {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]viewport.Descriptor, len(r.viewports))
	copy(out, r.viewports)
	return out
}

func (r *instancedRenderer) RenderedFrames() uint64 {
	return r.frames.Load()
}
