package frame

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/oxy-xr/common"
	"github.com/Carmen-Shannon/oxy-xr/engine/hand"
	"github.com/Carmen-Shannon/oxy-xr/engine/renderer"
	"github.com/Carmen-Shannon/oxy-xr/engine/tracking"
	"github.com/Carmen-Shannon/oxy-xr/engine/viewport"
)

var epoch = time.Unix(1_700_000_000, 0)

// frameScript controls what the fake surface offers for one iteration.
type frameScript struct {
	noFrame, noTiming, noDrawable bool
}

type fakeSurface struct {
	clock *common.ManualClock

	mu        sync.Mutex
	remaining int
	paused    bool
	iteration int
	script    func(i int) frameScript

	waits     atomic.Int32
	presented atomic.Int32
	eyes      []viewport.EyeView

	// held mirrors the swapchain: one drawable at a time until it is presented.
	held atomic.Bool
}

func newFakeSurface(clock *common.ManualClock, frames int) *fakeSurface {
	return &fakeSurface{
		clock:     clock,
		remaining: frames,
		eyes: []viewport.EyeView{
			{Transform: mgl32.Translate3D(-0.032, 0, 0), Tangents: [4]float32{1, 1, 1, 1}, Viewport: viewport.Rect{Width: 100, Height: 100}},
			{Transform: mgl32.Translate3D(0.032, 0, 0), Tangents: [4]float32{1, 1, 1, 1}, Viewport: viewport.Rect{X: 100, Width: 100, Height: 100}},
		},
	}
}

func (s *fakeSurface) State() LoopState {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.remaining <= 0:
		return Invalidated
	case s.paused:
		return Paused
	default:
		return Running
	}
}

func (s *fakeSurface) WaitUntilRunning() {
	s.waits.Add(1)
	s.mu.Lock()
	s.paused = false
	s.mu.Unlock()
}

func (s *fakeSurface) NextFrame() (Frame, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.remaining--
	var script frameScript
	if s.script != nil {
		script = s.script(s.iteration)
	}
	s.iteration++
	if script.noFrame {
		return nil, false
	}
	return &fakeFrame{surface: s, script: script, input: s.clock.Now().Add(5 * time.Millisecond)}, true
}

func (s *fakeSurface) setRemaining(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.remaining = n
}

type fakeFrame struct {
	surface *fakeSurface
	script  frameScript
	input   time.Time
}

func (f *fakeFrame) PredictTiming() (Timing, bool) {
	if f.script.noTiming {
		return Timing{}, false
	}
	return Timing{OptimalInputTime: f.input, PresentationTime: f.input.Add(11 * time.Millisecond)}, true
}

func (f *fakeFrame) Drawable() (Drawable, bool) {
	if f.script.noDrawable || !f.surface.held.CompareAndSwap(false, true) {
		return nil, false
	}
	return &fakeDrawable{surface: f.surface, at: f.input.Add(11 * time.Millisecond)}, true
}

type fakeDrawable struct {
	surface *fakeSurface
	at      time.Time
}

func (d *fakeDrawable) PresentationTime() time.Time     { return d.at }
func (d *fakeDrawable) Views() []viewport.EyeView       { return d.surface.eyes }
func (d *fakeDrawable) DepthRange() viewport.DepthRange { return viewport.DepthRange{Near: 0.1, Far: viewport.InfiniteFar} }
func (d *fakeDrawable) Targets() renderer.RenderTargets { return renderer.RenderTargets{Width: 200, Height: 100} }
func (d *fakeDrawable) Present() {
	d.surface.presented.Add(1)
	d.surface.held.Store(false)
}

type fakeQueue struct {
	mu           sync.Mutex
	autoComplete bool
	createErr    error
	commitErr    error
	pending      []*fakeBuffer
}

func (q *fakeQueue) NewCommandBuffer() (renderer.CommandBuffer, error) {
	if q.createErr != nil {
		return nil, q.createErr
	}
	return &fakeBuffer{queue: q}, nil
}

// completeOldest runs the completion callbacks of the oldest committed buffer.
func (q *fakeQueue) completeOldest() {
	q.mu.Lock()
	b := q.pending[0]
	q.pending = q.pending[1:]
	q.mu.Unlock()
	b.complete()
}

type fakeBuffer struct {
	queue       *fakeQueue
	completions []func()
}

func (b *fakeBuffer) Encoder() *wgpu.CommandEncoder { return nil }
func (b *fakeBuffer) OnCompleted(fn func())        { b.completions = append(b.completions, fn) }

func (b *fakeBuffer) Commit() error {
	if b.queue.commitErr != nil {
		return b.queue.commitErr
	}
	if b.queue.autoComplete {
		b.complete()
		return nil
	}
	b.queue.mu.Lock()
	b.queue.pending = append(b.queue.pending, b)
	b.queue.mu.Unlock()
	return nil
}

func (b *fakeBuffer) complete() {
	for _, fn := range b.completions {
		fn()
	}
}

type failingRenderer struct{}

func (failingRenderer) Render([]viewport.Descriptor, renderer.RenderTargets, renderer.CommandBuffer) error {
	return errors.New("draw failed")
}
func (failingRenderer) UpdateMarkers([]mgl32.Vec3) error { return errors.New("upload failed") }
func (failingRenderer) ModelCenter() (mgl32.Vec3, bool)  { return mgl32.Vec3{}, false }
func (failingRenderer) Release()                         {}

type noHeadPose struct{}

func (noHeadPose) QueryHeadPose(time.Time) (mgl32.Mat4, bool) { return mgl32.Mat4{}, false }

func newBox(t *testing.T) renderer.InspectableRenderer {
	t.Helper()
	r, err := renderer.NewBoxRenderer(nil)
	require.NoError(t, err)
	return r
}

func TestAdmissionCapacity(t *testing.T) {
	a := NewAdmission(3)
	for i := 0; i < 3; i++ {
		require.True(t, a.TryAcquire())
	}
	assert.False(t, a.TryAcquire())
	assert.Equal(t, 3, a.InFlight())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, a.Acquire(ctx), context.DeadlineExceeded)
	assert.Equal(t, 3, a.InFlight())

	acquired := make(chan struct{})
	go func() {
		assert.NoError(t, a.Acquire(context.Background()))
		close(acquired)
	}()
	go a.Release()

	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("acquire did not unblock after release")
	}
	assert.Equal(t, 3, a.InFlight())
	assert.Equal(t, 3, a.Capacity())
}

func TestAdmissionOverReleasePanics(t *testing.T) {
	a := NewAdmission(1)
	require.True(t, a.TryAcquire())
	a.Release()
	assert.Panics(t, a.Release)
	assert.Zero(t, a.InFlight())

	assert.Panics(t, func() { NewAdmission(0) })
}

func TestControllerSubmitsUntilInvalidated(t *testing.T) {
	clock := common.NewManualClock(epoch)
	surface := newFakeSurface(clock, 5)
	box := newBox(t)
	c := NewController(surface, &fakeQueue{autoComplete: true}, WithRenderer(box), WithClock(clock))

	require.NoError(t, c.Run(context.Background()))

	stats := c.Stats()
	assert.Equal(t, uint64(5), stats.Submitted)
	assert.Zero(t, stats.Skipped)
	assert.Zero(t, stats.InFlight)
	assert.Equal(t, int32(5), surface.presented.Load())
	assert.Equal(t, uint64(5), box.RenderedFrames())
	assert.Equal(t, Invalidated, c.State())
	require.Len(t, box.LastViewports(), 2)
	for _, vp := range box.LastViewports() {
		assert.Equal(t, [2]int{100, 100}, vp.ScreenSize, "each eye is half the target")
	}
	assert.Equal(t, epoch.Add(25*time.Millisecond), clock.Now(), "slept until each frame's input time")
}

func TestControllerSkipsMissingFrameTimingAndDrawable(t *testing.T) {
	clock := common.NewManualClock(epoch)
	surface := newFakeSurface(clock, 8)
	surface.script = func(i int) frameScript {
		switch i % 4 {
		case 0:
			return frameScript{noFrame: true}
		case 1:
			return frameScript{noTiming: true}
		case 2:
			return frameScript{noDrawable: true}
		}
		return frameScript{}
	}
	c := NewController(surface, &fakeQueue{autoComplete: true}, WithRenderer(newBox(t)), WithClock(clock))

	require.NoError(t, c.Run(context.Background()))

	stats := c.Stats()
	assert.Equal(t, uint64(2), stats.Submitted)
	assert.Equal(t, uint64(6), stats.Skipped)
	assert.Equal(t, int32(2), surface.presented.Load())
}

func TestControllerSkipsWithoutRenderer(t *testing.T) {
	clock := common.NewManualClock(epoch)
	c := NewController(newFakeSurface(clock, 3), &fakeQueue{autoComplete: true}, WithClock(clock))

	require.NoError(t, c.Run(context.Background()))
	assert.Equal(t, uint64(3), c.Stats().Skipped)
	assert.Zero(t, c.Stats().Submitted)
}

func TestControllerBlocksOnceWhilePaused(t *testing.T) {
	clock := common.NewManualClock(epoch)
	surface := newFakeSurface(clock, 2)
	surface.paused = true
	c := NewController(surface, &fakeQueue{autoComplete: true}, WithRenderer(newBox(t)), WithClock(clock))

	require.NoError(t, c.Run(context.Background()))
	assert.Equal(t, int32(1), surface.waits.Load())
	assert.Equal(t, uint64(2), c.Stats().Submitted)
}

func TestControllerHoldsAtMostThreeFramesInFlight(t *testing.T) {
	clock := common.NewManualClock(epoch)
	surface := newFakeSurface(clock, 1000)
	queue := &fakeQueue{}
	c := NewController(surface, queue, WithRenderer(newBox(t)), WithClock(clock))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	require.Eventually(t, func() bool { return c.Stats().Submitted == 3 }, time.Second, time.Millisecond)
	assert.Never(t, func() bool { return c.Stats().Submitted > 3 }, 50*time.Millisecond, 5*time.Millisecond)
	assert.Equal(t, 3, c.Stats().InFlight)

	queue.completeOldest()
	require.Eventually(t, func() bool { return c.Stats().Submitted == 4 }, time.Second, time.Millisecond)
	assert.Equal(t, 3, c.Stats().InFlight)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("run did not return after cancel")
	}
}

func TestControllerCommandBufferFailureIsFatal(t *testing.T) {
	clock := common.NewManualClock(epoch)
	queue := &fakeQueue{createErr: errors.New("device lost")}
	surface := newFakeSurface(clock, 5)
	c := NewController(surface, queue, WithRenderer(newBox(t)), WithClock(clock))

	err := c.Run(context.Background())
	assert.ErrorIs(t, err, ErrCommandBuffer)
	assert.ErrorContains(t, err, "device lost")
	assert.Zero(t, c.Stats().InFlight)
	assert.False(t, surface.held.Load())
}

func TestControllerCommitFailureReleasesToken(t *testing.T) {
	var logs bytes.Buffer
	clock := common.NewManualClock(epoch)
	surface := newFakeSurface(clock, 4)
	queue := &fakeQueue{commitErr: errors.New("queue full")}
	c := NewController(surface, queue,
		WithRenderer(newBox(t)),
		WithClock(clock),
		WithLogger(slog.New(slog.NewTextHandler(&logs, nil))),
	)

	require.NoError(t, c.Run(context.Background()))

	stats := c.Stats()
	assert.Equal(t, uint64(4), stats.CommitErrors)
	assert.Zero(t, stats.Submitted)
	assert.Zero(t, stats.InFlight)
	assert.Equal(t, int32(4), surface.presented.Load(), "every acquired drawable is handed back")
	assert.Contains(t, logs.String(), "command buffer commit failed")
}

func TestControllerRecoversAfterCommitFailure(t *testing.T) {
	clock := common.NewManualClock(epoch)
	surface := newFakeSurface(clock, 6)
	queue := &fakeQueue{autoComplete: true, commitErr: errors.New("queue full")}
	surface.script = func(i int) frameScript {
		if i == 1 {
			queue.commitErr = nil
		}
		return frameScript{}
	}
	c := NewController(surface, queue, WithRenderer(newBox(t)), WithClock(clock))

	require.NoError(t, c.Run(context.Background()))

	stats := c.Stats()
	assert.Equal(t, uint64(1), stats.CommitErrors)
	assert.Equal(t, uint64(5), stats.Submitted)
	assert.Zero(t, stats.Skipped)
}

func TestControllerResumesWhenRendererArrives(t *testing.T) {
	clock := common.NewManualClock(epoch)
	surface := newFakeSurface(clock, 21)
	c := NewController(surface, &fakeQueue{autoComplete: true}, WithClock(clock))
	box := newBox(t)
	surface.script = func(i int) frameScript {
		if i == 1 {
			c.SetRenderer(box)
		}
		return frameScript{}
	}

	require.NoError(t, c.Run(context.Background()))

	stats := c.Stats()
	assert.Equal(t, uint64(1), stats.Skipped)
	assert.Equal(t, uint64(20), stats.Submitted)
	assert.Equal(t, uint64(20), box.RenderedFrames())
	assert.False(t, surface.held.Load())
}

func TestControllerLogsRendererErrorsAndContinues(t *testing.T) {
	var logs bytes.Buffer
	clock := common.NewManualClock(epoch)
	mailbox := &tracking.Mailbox{}
	tracker := tracking.NewTracker(tracking.WithMailbox(mailbox))
	_, ok := tracker.Process(hand.OpenHand(hand.Right, mgl32.Vec3{}, epoch))
	require.True(t, ok)

	c := NewController(newFakeSurface(clock, 3), &fakeQueue{autoComplete: true},
		WithRenderer(failingRenderer{}),
		WithMailbox(mailbox),
		WithClock(clock),
		WithLogger(slog.New(slog.NewTextHandler(&logs, nil))),
	)

	require.NoError(t, c.Run(context.Background()))

	stats := c.Stats()
	assert.Equal(t, uint64(3), stats.Submitted)
	assert.Equal(t, uint64(6), stats.RenderErrors)
	assert.Contains(t, logs.String(), "render failed")
	assert.Contains(t, logs.String(), "marker update failed")
}

func TestControllerUsesIdentityWithoutHeadPose(t *testing.T) {
	clock := common.NewManualClock(epoch)
	box := newBox(t)
	c := NewController(newFakeSurface(clock, 2), &fakeQueue{autoComplete: true},
		WithRenderer(box), WithClock(clock), WithHeadPose(noHeadPose{}))

	require.NoError(t, c.Run(context.Background()))
	assert.Equal(t, uint64(2), c.Stats().HeadPoseMisses)
	assert.Equal(t, uint64(2), c.Stats().Submitted)
	require.Len(t, box.LastViewports(), 2)
}

func TestControllerRecoversFromPanic(t *testing.T) {
	clock := common.NewManualClock(epoch)
	surface := newFakeSurface(clock, 3)
	c := NewController(surface, &fakeQueue{autoComplete: true},
		WithRenderer(newBox(t)), WithClock(clock), WithHeadPose(panickingHeadPose{}))

	err := c.Run(context.Background())
	assert.ErrorIs(t, err, ErrRenderPanic)
}

type panickingHeadPose struct{}

func (panickingHeadPose) QueryHeadPose(time.Time) (mgl32.Mat4, bool) { panic("pose service gone") }

// modelTranslation returns the translation column of the first eye's primary view
// with the eye offset removed.
func modelTranslation(t *testing.T, r renderer.InspectableRenderer, eye mgl32.Mat4) mgl32.Vec3 {
	t.Helper()
	vps := r.LastViewports()
	require.NotEmpty(t, vps)
	model := eye.Mul4(vps[0].PrimaryView)
	return model.Col(3).Vec3()
}

func TestEndToEndPinchMovesModel(t *testing.T) {
	clock := common.NewManualClock(epoch)
	surface := newFakeSurface(clock, 1)
	mailbox := &tracking.Mailbox{}
	tracker := tracking.NewTracker(tracking.WithMailbox(mailbox))
	box := newBox(t)
	c := NewController(surface, &fakeQueue{autoComplete: true},
		WithRenderer(box), WithMailbox(mailbox), WithClock(clock))

	open := hand.OpenHand(hand.Right, mgl32.Vec3{}, epoch)
	_, ok := tracker.Process(open.Pinched(0.05))
	require.True(t, ok)
	moved := hand.OpenHand(hand.Right, mgl32.Vec3{0.1, 0, 0}, epoch.Add(100*time.Millisecond)).Pinched(0.05)
	snap, ok := tracker.Process(moved)
	require.True(t, ok)
	require.True(t, snap.Gesture.PinchActive)

	require.NoError(t, c.Run(context.Background()))

	got := modelTranslation(t, box, surface.eyes[0].Transform)
	assert.InDelta(t, 0.1, got.X(), 1e-4)
	assert.InDelta(t, 0, got.Y(), 1e-4)
	assert.InDelta(t, renderer.ModelCenterZ, got.Z(), 1e-4)

	markers := box.Markers()
	require.Len(t, markers, hand.NumSlots)
	assert.Equal(t, snap.Joints[hand.Slot(hand.Right, hand.ThumbTip)].Position, markers[hand.Slot(hand.Right, hand.ThumbTip)])
}

func TestEndToEndSwipeRotatesModel(t *testing.T) {
	clock := common.NewManualClock(epoch)
	surface := newFakeSurface(clock, 1)
	mailbox := &tracking.Mailbox{}
	tracker := tracking.NewTracker(tracking.WithMailbox(mailbox))
	box := newBox(t)
	c := NewController(surface, &fakeQueue{autoComplete: true},
		WithRenderer(box), WithMailbox(mailbox), WithClock(clock))

	u := hand.OpenHand(hand.Right, mgl32.Vec3{}, epoch)
	var snap *tracking.Snapshot
	for i := 0; i < 5; i++ {
		var ok bool
		snap, ok = tracker.Process(u.Swiped(0.02, 0.01*float32(i+1)).At(epoch.Add(time.Duration(i) * 10 * time.Millisecond)))
		require.True(t, ok)
	}
	require.True(t, snap.Gesture.SwipeActive)
	require.NotZero(t, snap.Gesture.RotationAngle)

	require.NoError(t, c.Run(context.Background()))

	want := common.Translation(mgl32.Vec3{0, 0, renderer.ModelCenterZ}).
		Mul4(common.Rotation(snap.Gesture.RotationAngle, snap.Gesture.RotationAxis))
	got := surface.eyes[0].Transform.Mul4(box.LastViewports()[0].PrimaryView)
	assert.True(t, got.ApproxEqualThreshold(want, 1e-4), "got %v want %v", got, want)
}

func TestSetRendererReseedsFromNewCenter(t *testing.T) {
	clock := common.NewManualClock(epoch)
	surface := newFakeSurface(clock, 1)
	box := newBox(t)
	c := NewController(surface, &fakeQueue{autoComplete: true}, WithRenderer(box), WithClock(clock))

	require.NoError(t, c.Run(context.Background()))
	assert.InDelta(t, renderer.ModelCenterZ, modelTranslation(t, box, surface.eyes[0].Transform).Z(), 1e-4)

	cloud, err := renderer.NewPointCloudRenderer(nil, "scan.ply", &renderer.PointCloud{
		Positions: []mgl32.Vec3{{0, 0, -2}, {2, 0, -2}, {1, 3, -2}},
	})
	require.NoError(t, err)
	c.SetRenderer(cloud)
	assert.Same(t, cloud, c.Renderer())

	surface.setRemaining(1)
	require.NoError(t, c.Run(context.Background()))

	got := modelTranslation(t, cloud, surface.eyes[0].Transform)
	assert.InDelta(t, 1, got.X(), 1e-4)
	assert.InDelta(t, 1, got.Y(), 1e-4)
	assert.InDelta(t, -2, got.Z(), 1e-4)
}

func TestLoopStateString(t *testing.T) {
	assert.Equal(t, "running", Running.String())
	assert.Equal(t, "paused", Paused.String())
	assert.Equal(t, "invalidated", Invalidated.String())
}
