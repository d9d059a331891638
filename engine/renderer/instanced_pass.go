package renderer

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
)

// uniformStride is the dynamic uniform offset alignment guaranteed by WebGPU.
const uniformStride = 256

// instancedPass draws instanced unit cubes with one view-projection per draw.
// Each draw uses its own 256-byte uniform slot so several draws can share a
// command buffer.
type instancedPass struct {
	device *wgpu.Device
	queue  *wgpu.Queue

	pipeline  *wgpu.RenderPipeline
	uniforms  *wgpu.Buffer
	bindGroup *wgpu.BindGroup
	cube      *wgpu.Buffer
	slots     int
}

// instanceBatch is a GPU instance buffer and how many instances it currently holds.
type instanceBatch struct {
	buffer   *wgpu.Buffer
	capacity int
	count    int
}

func newInstancedPass(gpu GPU, label string, slots int) (*instancedPass, error) {
	device := gpu.Device()
	p := &instancedPass{device: device, queue: gpu.Queue(), slots: slots}
	built := false
	defer func() {
		if !built {
			p.release()
		}
	}()

	module, err := device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: label + " Shader",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: InstancedShaderSource,
		},
	})
	if err != nil {
		return nil, err
	}
	defer module.Release()

	layout, err := device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: label + " View Layout",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageVertex,
				Buffer: wgpu.BufferBindingLayout{
					Type:             wgpu.BufferBindingTypeUniform,
					HasDynamicOffset: true,
					MinBindingSize:   64,
				},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create bind group layout: %w", err)
	}
	defer layout.Release()

	pipelineLayout, err := device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            label,
		BindGroupLayouts: []*wgpu.BindGroupLayout{layout},
	})
	if err != nil {
		return nil, err
	}
	defer pipelineLayout.Release()

	var vertex GPUVertex
	var instance GPUInstance
	p.pipeline, err = device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  label + " Render Pipeline",
		Layout: pipelineLayout,
		Vertex: wgpu.VertexState{
			Module:     module,
			EntryPoint: "vs_main",
			Buffers: []wgpu.VertexBufferLayout{
				{
					ArrayStride: uint64(vertex.Size()),
					StepMode:    wgpu.VertexStepModeVertex,
					Attributes: []wgpu.VertexAttribute{
						{Format: wgpu.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
						{Format: wgpu.VertexFormatFloat32x3, Offset: 12, ShaderLocation: 1},
					},
				},
				{
					ArrayStride: uint64(instance.Size()),
					StepMode:    wgpu.VertexStepModeInstance,
					Attributes: []wgpu.VertexAttribute{
						{Format: wgpu.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 2},
						{Format: wgpu.VertexFormatFloat32, Offset: 12, ShaderLocation: 3},
						{Format: wgpu.VertexFormatFloat32x3, Offset: 16, ShaderLocation: 4},
					},
				},
			},
		},
		Fragment: &wgpu.FragmentState{
			Module:     module,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{
				{Format: gpu.SurfaceFormat(), WriteMask: wgpu.ColorWriteMaskAll},
			},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeBack,
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
		// reversed-Z: near is 1, so closer fragments have the greater depth
		DepthStencil: &wgpu.DepthStencilState{
			Format:            gpu.DepthFormat(),
			DepthWriteEnabled: true,
			DepthCompare:      wgpu.CompareFunctionGreater,
			StencilFront: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
			StencilBack: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
		},
	})
	if err != nil {
		return nil, err
	}

	p.uniforms, err = device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: label + " View Uniforms",
		Size:  uint64(uniformStride * slots),
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, err
	}
	p.bindGroup, err = device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  label + " View Bind Group",
		Layout: layout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: p.uniforms, Offset: 0, Size: 64},
		},
	})
	if err != nil {
		return nil, err
	}

	vertices := CubeVertices()
	data := make([]byte, 0, len(vertices)*vertex.Size())
	for i := range vertices {
		data = append(data, vertices[i].Marshal()...)
	}
	p.cube, err = device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: label + " Cube Vertex Buffer",
		Size:  uint64(len(data)),
		Usage: wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, err
	}
	p.queue.WriteBuffer(p.cube, 0, data)

	built = true
	return p, nil
}

// release frees the pipeline and the buffers shared by every draw.
func (p *instancedPass) release() {
	if p.bindGroup != nil {
		p.bindGroup.Release()
	}
	if p.uniforms != nil {
		p.uniforms.Release()
	}
	if p.cube != nil {
		p.cube.Release()
	}
	if p.pipeline != nil {
		p.pipeline.Release()
	}
}

func (b *instanceBatch) release() {
	if b != nil && b.buffer != nil {
		b.buffer.Release()
		b.buffer = nil
	}
}

func (p *instancedPass) newBatch(label string, capacity int) (*instanceBatch, error) {
	if capacity < 1 {
		capacity = 1
	}
	var instance GPUInstance
	buf, err := p.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: label + " Instance Buffer",
		Size:  uint64(capacity * instance.Size()),
		Usage: wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, err
	}
	return &instanceBatch{buffer: buf, capacity: capacity}, nil
}

// write uploads instances into the batch, truncating to its capacity.
func (p *instancedPass) write(b *instanceBatch, instances []GPUInstance) {
	if len(instances) > b.capacity {
		instances = instances[:b.capacity]
	}
	b.count = len(instances)
	if b.count > 0 {
		p.queue.WriteBuffer(b.buffer, 0, marshalInstances(instances))
	}
}

func (p *instancedPass) begin(encoder *wgpu.CommandEncoder, targets RenderTargets) *wgpu.RenderPassEncoder {
	desc := &wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:    targets.Color,
				LoadOp:  wgpu.LoadOpClear,
				StoreOp: wgpu.StoreOpStore,
				ClearValue: wgpu.Color{
					R: 0.05, G: 0.05, B: 0.08, A: 1.0,
				},
			},
		},
	}
	if targets.Depth != nil {
		desc.DepthStencilAttachment = &wgpu.RenderPassDepthStencilAttachment{
			View:            targets.Depth,
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpDiscard,
			DepthClearValue: 0,
		}
	}
	pass := encoder.BeginRenderPass(desc)
	pass.SetPipeline(p.pipeline)
	pass.SetVertexBuffer(0, p.cube, 0, wgpu.WholeSize)
	return pass
}

func (p *instancedPass) draw(pass *wgpu.RenderPassEncoder, slot int, viewProj mgl32.Mat4, b *instanceBatch) {
	if b == nil || b.count == 0 {
		return
	}
	u := GPUViewUniform{ViewProj: viewProj}
	offset := uint32(slot * uniformStride)
	p.queue.WriteBuffer(p.uniforms, uint64(offset), u.Marshal())
	pass.SetBindGroup(0, p.bindGroup, []uint32{offset})
	pass.SetVertexBuffer(1, b.buffer, 0, wgpu.WholeSize)
	pass.Draw(36, uint32(b.count), 0, 0)
}
