package renderer

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cogentcore/webgpu/wgpu"
)

// GPU owns the WebGPU device, queue and presentation surface for the process.
type GPU interface {
	CommandQueue

	// Device returns the logical device.
	Device() *wgpu.Device

	// Queue returns the device queue.
	Queue() *wgpu.Queue

	// SurfaceFormat returns the color format of the surface textures.
	SurfaceFormat() wgpu.TextureFormat

	// DepthFormat returns the format of the depth target.
	DepthFormat() wgpu.TextureFormat

	// ConfigureSurface (re)configures the swapchain and depth target for a framebuffer size.
	//
	// Parameters:
	//   - width, height: the framebuffer size in pixels
	ConfigureSurface(width, height int)

	// AcquireTargets acquires the next surface texture. It must be released with Present
	// before the next call.
	//
	// Returns:
	//   - RenderTargets: the color and depth targets for this frame
	//   - error: error if no surface texture is available
	AcquireTargets() (RenderTargets, error)

	// Present presents the acquired surface texture and releases it.
	Present()

	// Release stops completion polling and releases the device and surface.
	Release()
}

type gpuImpl struct {
	mu     sync.Mutex
	device *wgpu.Device
	queue  *wgpu.Queue

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	surface  *wgpu.Surface

	surfaceFormat    wgpu.TextureFormat
	depthTexture     *wgpu.Texture
	depthTextureView *wgpu.TextureView
	width, height    int

	presentMode          PresentMode
	forceFallbackAdapter bool
	pollInterval         time.Duration
	logger               *slog.Logger

	frameSurface *wgpu.Texture
	frameView    *wgpu.TextureView

	quit     chan struct{}
	quitOnce sync.Once
	wg       sync.WaitGroup
}

var _ GPU = &gpuImpl{}

// NewGPU creates the WebGPU instance, surface, adapter, device and queue for a window
// surface, then starts polling the device so command buffer completion callbacks fire.
// The surface is not configured until ConfigureSurface is called.
//
// Parameters:
//   - surfaceDescriptor: the platform surface descriptor from the window
//   - options: variadic list of GPUBuilderOption functions
//
// Returns:
//   - GPU: the ready GPU
//   - error: an error wrapping ErrGPUUnavailable if any stage of setup fails
func NewGPU(surfaceDescriptor *wgpu.SurfaceDescriptor, options ...GPUBuilderOption) (GPU, error) {
	g := &gpuImpl{
		presentMode:  PresentModeVSync,
		pollInterval: time.Millisecond,
		logger:       slog.Default(),
		quit:         make(chan struct{}),
	}
	for _, opt := range options {
		opt(g)
	}

	g.instance = wgpu.CreateInstance(nil)
	if g.instance == nil {
		return nil, fmt.Errorf("create instance: %w", ErrGPUUnavailable)
	}
	if surfaceDescriptor != nil {
		g.surface = g.instance.CreateSurface(surfaceDescriptor)
	}

	a, err := g.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: g.forceFallbackAdapter,
		CompatibleSurface:    g.surface,
	})
	if err != nil {
		return nil, fmt.Errorf("request adapter: %w", errors.Join(ErrGPUUnavailable, err))
	}
	g.adapter = a

	d, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Main Device",
	})
	if err != nil {
		return nil, fmt.Errorf("request device: %w", errors.Join(ErrGPUUnavailable, err))
	}
	g.device = d
	g.queue = d.GetQueue()
	if g.queue == nil {
		return nil, fmt.Errorf("get queue: %w", ErrGPUUnavailable)
	}

	g.surfaceFormat = wgpu.TextureFormatBGRA8Unorm
	if g.surface != nil {
		capabilities := g.surface.GetCapabilities(g.adapter)
		if len(capabilities.Formats) > 0 {
			g.surfaceFormat = capabilities.Formats[0]
		}
	}

	g.wg.Add(1)
	go g.poll()
	return g, nil
}

// poll pumps the device so queue completion callbacks are delivered while the
// render loop is blocked waiting for a free frame slot.
func (g *gpuImpl) poll() {
	defer g.wg.Done()
	ticker := time.NewTicker(g.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-g.quit:
			return
		case <-ticker.C:
			g.device.Poll(false, nil)
		}
	}
}

func (g *gpuImpl) Device() *wgpu.Device {
	return g.device
}

func (g *gpuImpl) Queue() *wgpu.Queue {
	return g.queue
}

func (g *gpuImpl) SurfaceFormat() wgpu.TextureFormat {
	return g.surfaceFormat
}

func (g *gpuImpl) DepthFormat() wgpu.TextureFormat {
	return wgpu.TextureFormatDepth32Float
}

func (g *gpuImpl) ConfigureSurface(width, height int) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.surface == nil || width <= 0 || height <= 0 {
		return
	}

	presentMode := wgpu.PresentModeFifo
	if g.presentMode == PresentModeUncapped {
		presentMode = wgpu.PresentModeImmediate
	}
	capabilities := g.surface.GetCapabilities(g.adapter)
	g.surface.Configure(g.adapter, g.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      g.surfaceFormat,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: presentMode,
		AlphaMode:   capabilities.AlphaModes[0],
	})

	if g.depthTextureView != nil {
		g.depthTextureView.Release()
		g.depthTexture.Release()
	}
	depthTexture, err := g.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: "Depth Texture",
		Size: wgpu.Extent3D{
			Width:              uint32(width),
			Height:             uint32(height),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        g.DepthFormat(),
		Usage:         wgpu.TextureUsageRenderAttachment,
	})
	if err != nil {
		panic(err)
	}
	g.depthTexture = depthTexture
	g.depthTextureView, err = depthTexture.CreateView(nil)
	if err != nil {
		panic(err)
	}
	g.width, g.height = width, height
	g.logger.Debug("surface configured", "width", width, "height", height)
}

func (g *gpuImpl) AcquireTargets() (RenderTargets, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.surface == nil {
		return RenderTargets{}, errors.New("no surface")
	}
	// a surface texture still held means the previous frame was never presented
	if g.frameSurface != nil {
		return RenderTargets{}, errors.New("previous frame surface not yet presented")
	}

	surfaceTexture, err := g.surface.GetCurrentTexture()
	if err != nil {
		return RenderTargets{}, err
	}
	view, err := surfaceTexture.CreateView(nil)
	if err != nil {
		surfaceTexture.Release()
		return RenderTargets{}, err
	}

	g.frameSurface = surfaceTexture
	g.frameView = view
	return RenderTargets{Color: view, Depth: g.depthTextureView, Width: g.width, Height: g.height}, nil
}

func (g *gpuImpl) Present() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.frameSurface == nil {
		return
	}

	g.surface.Present()

	if g.frameView != nil {
		g.frameView.Release()
		g.frameView = nil
	}
	g.frameSurface.Release()
	g.frameSurface = nil
}

func (g *gpuImpl) NewCommandBuffer() (CommandBuffer, error) {
	encoder, err := g.device.CreateCommandEncoder(nil)
	if err != nil {
		return nil, err
	}
	return &commandBufferImpl{encoder: encoder, queue: g.queue}, nil
}

func (g *gpuImpl) Release() {
	g.quitOnce.Do(func() { close(g.quit) })
	g.wg.Wait()

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.depthTextureView != nil {
		g.depthTextureView.Release()
		g.depthTexture.Release()
		g.depthTextureView, g.depthTexture = nil, nil
	}
	if g.device != nil {
		g.device.Release()
		g.device = nil
	}
	if g.surface != nil {
		g.surface.Release()
		g.surface = nil
	}
}
