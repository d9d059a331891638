package renderer

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/oxy-xr/engine/viewport"
)

type recordingBuffer struct {
	completions []func()
}

func (b *recordingBuffer) Encoder() *wgpu.CommandEncoder { return nil }
func (b *recordingBuffer) OnCompleted(fn func())        { b.completions = append(b.completions, fn) }
func (b *recordingBuffer) Commit() error                { return nil }

func TestBoxRendererCenter(t *testing.T) {
	r, err := NewBoxRenderer(nil)
	require.NoError(t, err)

	c, ok := r.ModelCenter()
	assert.True(t, ok)
	assert.Equal(t, mgl32.Vec3{0, 0, -8}, c)
	assert.Equal(t, "sample-box", r.Label())
}

func TestUpdateMarkersCopiesPositions(t *testing.T) {
	r, err := NewBoxRenderer(nil)
	require.NoError(t, err)

	positions := make([]mgl32.Vec3, MarkerCapacity)
	positions[18] = mgl32.Vec3{0.1, 1.2, -0.3}
	require.NoError(t, r.UpdateMarkers(positions))

	positions[18] = mgl32.Vec3{}
	got := r.Markers()
	require.Len(t, got, MarkerCapacity)
	assert.Equal(t, mgl32.Vec3{0.1, 1.2, -0.3}, got[18])

	assert.Error(t, r.UpdateMarkers(make([]mgl32.Vec3, MarkerCapacity+1)))
}

func TestRenderRecordsViewports(t *testing.T) {
	r, err := NewBoxRenderer(nil)
	require.NoError(t, err)

	vps := []viewport.Descriptor{
		{Viewport: viewport.Rect{Width: 640, Height: 720}, Projection: mgl32.Ident4()},
		{Viewport: viewport.Rect{X: 640, Width: 640, Height: 720}, Projection: mgl32.Ident4()},
	}
	require.NoError(t, r.Render(vps, RenderTargets{}, &recordingBuffer{}))
	require.NoError(t, r.Render(vps[:1], RenderTargets{}, &recordingBuffer{}))

	assert.Equal(t, uint64(2), r.RenderedFrames())
	assert.Equal(t, vps[:1], r.LastViewports())
}

func TestRenderRejectsTooManyViews(t *testing.T) {
	r, err := NewBoxRenderer(nil, WithMaxViews(1))
	require.NoError(t, err)

	err = r.Render(make([]viewport.Descriptor, 2), RenderTargets{}, &recordingBuffer{})
	assert.ErrorIs(t, err, ErrTooManyViews)
	assert.Zero(t, r.RenderedFrames())
}

func TestRenderAfterReleaseFails(t *testing.T) {
	r, err := NewBoxRenderer(nil)
	require.NoError(t, err)
	vps := []viewport.Descriptor{{Projection: mgl32.Ident4()}}
	require.NoError(t, r.Render(vps, RenderTargets{}, &recordingBuffer{}))

	r.Release()
	r.Release()

	assert.ErrorIs(t, r.Render(vps, RenderTargets{}, &recordingBuffer{}), ErrRendererReleased)
	assert.Equal(t, uint64(1), r.RenderedFrames())
	assert.NoError(t, r.UpdateMarkers(make([]mgl32.Vec3, MarkerCapacity)), "markers are still recorded")
}

func TestPointCloudRendererCentersOnCentroid(t *testing.T) {
	cloud := &PointCloud{Positions: []mgl32.Vec3{{0, 0, -2}, {2, 0, -2}, {1, 3, -2}}}
	r, err := NewPointCloudRenderer(nil, "scan.ply", cloud)
	require.NoError(t, err)

	c, ok := r.ModelCenter()
	assert.True(t, ok)
	assert.True(t, c.ApproxEqualThreshold(mgl32.Vec3{1, 1, -2}, 1e-6))
	assert.Equal(t, "scan.ply", r.Label())

	_, err = NewPointCloudRenderer(nil, "empty.ply", &PointCloud{})
	assert.Error(t, err)
}

func TestPointCloudRadius(t *testing.T) {
	cloud := &PointCloud{Positions: []mgl32.Vec3{{-1, 0, 0}, {1, 0, 0}, {0, 0, 0}}}
	assert.InDelta(t, 1, cloud.Radius(), 1e-6)
	assert.Zero(t, (&PointCloud{}).Radius())
}

func TestCubeVertices(t *testing.T) {
	v := CubeVertices()
	require.Len(t, v, 36)
	for _, vert := range v {
		for _, c := range vert.Position {
			assert.Equal(t, float32(0.5), float32(math.Abs(float64(c))))
		}
	}
}

func TestInstanceLayoutMatchesShader(t *testing.T) {
	in := GPUInstance{Offset: [3]float32{1, 2, 3}, Scale: 4, Tint: [3]float32{5, 6, 7}}
	buf := in.Marshal()
	require.Len(t, buf, 28)
	for i, want := range []float32{1, 2, 3, 4, 5, 6, 7} {
		assert.Equal(t, want, math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:])))
	}
	assert.Len(t, marshalInstances([]GPUInstance{in, in}), 56)
	assert.Contains(t, InstancedShaderSource, "@location(4) tint")
}

func TestParsePresentMode(t *testing.T) {
	assert.Equal(t, PresentModeUncapped, ParsePresentMode("uncapped"))
	assert.Equal(t, PresentModeVSync, ParsePresentMode("vsync"))
	assert.Equal(t, PresentModeVSync, ParsePresentMode(""))
}
