package window

import (
	"time"

	"github.com/Carmen-Shannon/oxy-xr/engine/frame"
	"github.com/Carmen-Shannon/oxy-xr/engine/renderer"
	"github.com/Carmen-Shannon/oxy-xr/engine/viewport"
)

// TargetSource provides the swapchain textures the preview draws into.
// renderer.GPU satisfies it.
type TargetSource interface {
	AcquireTargets() (renderer.RenderTargets, error)
	Present()
}

type previewFrame struct {
	w      *engineWindow
	timing frame.Timing
}

func (f *previewFrame) PredictTiming() (frame.Timing, bool) {
	return f.timing, true
}

func (f *previewFrame) Drawable() (frame.Drawable, bool) {
	src := f.w.targetSource()
	if src == nil {
		return nil, false
	}
	targets, err := src.AcquireTargets()
	if err != nil {
		f.w.logger.Debug("no drawable this frame", "error", err)
		return nil, false
	}
	return &previewDrawable{
		source:       src,
		targets:      targets,
		eyes:         f.w.Layout().Eyes(),
		depth:        f.w.depth,
		presentation: f.timing.PresentationTime,
	}, true
}

type previewDrawable struct {
	source       TargetSource
	targets      renderer.RenderTargets
	eyes         []viewport.EyeView
	depth        viewport.DepthRange
	presentation time.Time
}

func (d *previewDrawable) PresentationTime() time.Time     { return d.presentation }
func (d *previewDrawable) Views() []viewport.EyeView       { return d.eyes }
func (d *previewDrawable) DepthRange() viewport.DepthRange { return d.depth }
func (d *previewDrawable) Targets() renderer.RenderTargets { return d.targets }
func (d *previewDrawable) Present()                        { d.source.Present() }
