// Package wgpudev implements gpu.Device and gpu.RenderPass on cogentcore/webgpu.
package wgpudev

import (
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gekko3d/instanced/rt/gpu"
	"github.com/gogpu/gputypes"
	"github.com/rotisserie/eris"
)

type Device struct {
	device *wgpu.Device
	queue  *wgpu.Queue
}

func New(device *wgpu.Device, queue *wgpu.Queue) *Device {
	return &Device{device: device, queue: queue}
}

func (d *Device) Raw() *wgpu.Device { return d.device }

type Buffer struct {
	label string
	buf   *wgpu.Buffer
}

func (b *Buffer) Label() string     { return b.label }
func (b *Buffer) Size() uint64      { return b.buf.GetSize() }
func (b *Buffer) Release()          { b.buf.Release() }
func (b *Buffer) Raw() *wgpu.Buffer { return b.buf }

// WrapBuffer exposes a buffer created directly on the wgpu device.
func WrapBuffer(label string, buf *wgpu.Buffer) *Buffer {
	return &Buffer{label: label, buf: buf}
}

type mappedBuffer struct {
	buf  *Buffer
	data []byte
}

func (m *mappedBuffer) Bytes() []byte { return m.data }

func (m *mappedBuffer) Finish() (gpu.Buffer, error) {
	if m.data == nil {
		return nil, eris.Errorf("buffer %q is not mapped", m.buf.label)
	}
	m.data = nil
	m.buf.buf.Unmap()
	return m.buf, nil
}

type shaderModule struct{ m *wgpu.ShaderModule }

func (s *shaderModule) Release() { s.m.Release() }

type bindGroupLayout struct{ l *wgpu.BindGroupLayout }

func (l *bindGroupLayout) Release() { l.l.Release() }

type pipelineLayout struct{ l *wgpu.PipelineLayout }

func (l *pipelineLayout) Release() { l.l.Release() }

type renderPipeline struct{ p *wgpu.RenderPipeline }

func (p *renderPipeline) Release() { p.p.Release() }

type bindGroup struct{ g *wgpu.BindGroup }

func (g *bindGroup) Release() { g.g.Release() }

func (d *Device) CreateShaderModule(desc *gpu.ShaderModuleDescriptor) (gpu.ShaderModule, error) {
	wdesc := &wgpu.ShaderModuleDescriptor{Label: desc.Label}
	switch {
	case len(desc.SPIRV) > 0:
		wdesc.SPIRVDescriptor = &wgpu.ShaderModuleSPIRVDescriptor{Code: desc.SPIRV}
	case desc.WGSL != "":
		wdesc.WGSLDescriptor = &wgpu.ShaderModuleWGSLDescriptor{Code: desc.WGSL}
	default:
		return nil, eris.Errorf("shader module %q has no source", desc.Label)
	}
	m, err := d.device.CreateShaderModule(wdesc)
	if err != nil {
		return nil, eris.Wrapf(err, "create shader module %q", desc.Label)
	}
	return &shaderModule{m: m}, nil
}

func (d *Device) CreateBindGroupLayout(desc *gputypes.BindGroupLayoutDescriptor) (gpu.BindGroupLayout, error) {
	entries := make([]wgpu.BindGroupLayoutEntry, 0, len(desc.Entries))
	for _, e := range desc.Entries {
		if e.Buffer == nil {
			return nil, eris.Errorf("bind group layout %q: binding %d is not a buffer", desc.Label, e.Binding)
		}
		bindingType, err := bufferBindingType(e.Buffer.Type)
		if err != nil {
			return nil, err
		}
		entries = append(entries, wgpu.BindGroupLayoutEntry{
			Binding:    e.Binding,
			Visibility: shaderStage(e.Visibility),
			Buffer: wgpu.BufferBindingLayout{
				Type:             bindingType,
				HasDynamicOffset: e.Buffer.HasDynamicOffset,
				MinBindingSize:   e.Buffer.MinBindingSize,
			},
		})
	}
	l, err := d.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label:   desc.Label,
		Entries: entries,
	})
	if err != nil {
		return nil, eris.Wrapf(err, "create bind group layout %q", desc.Label)
	}
	return &bindGroupLayout{l: l}, nil
}

func (d *Device) CreatePipelineLayout(desc *gpu.PipelineLayoutDescriptor) (gpu.PipelineLayout, error) {
	layouts := make([]*wgpu.BindGroupLayout, len(desc.BindGroupLayouts))
	for i, l := range desc.BindGroupLayouts {
		layouts[i] = l.(*bindGroupLayout).l
	}
	l, err := d.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            desc.Label,
		BindGroupLayouts: layouts,
	})
	if err != nil {
		return nil, eris.Wrapf(err, "create pipeline layout %q", desc.Label)
	}
	return &pipelineLayout{l: l}, nil
}

func (d *Device) CreateRenderPipeline(desc *gpu.RenderPipelineDescriptor) (gpu.RenderPipeline, error) {
	buffers, err := vertexBufferLayouts(desc.VertexBuffers)
	if err != nil {
		return nil, err
	}
	targets, err := colorTargets(desc.Targets)
	if err != nil {
		return nil, err
	}
	primitive, err := primitiveState(desc.Primitive)
	if err != nil {
		return nil, err
	}

	wdesc := &wgpu.RenderPipelineDescriptor{
		Label:  desc.Label,
		Layout: desc.Layout.(*pipelineLayout).l,
		Vertex: wgpu.VertexState{
			Module:     desc.Vertex.Module.(*shaderModule).m,
			EntryPoint: desc.Vertex.EntryPoint,
			Buffers:    buffers,
		},
		Fragment: &wgpu.FragmentState{
			Module:     desc.Fragment.Module.(*shaderModule).m,
			EntryPoint: desc.Fragment.EntryPoint,
			Targets:    targets,
		},
		Primitive: primitive,
		Multisample: wgpu.MultisampleState{
			Count:                  desc.Multisample.Count,
			Mask:                   uint32(desc.Multisample.Mask),
			AlphaToCoverageEnabled: desc.Multisample.AlphaToCoverageEnabled,
		},
	}
	if ds := desc.DepthStencil; ds != nil {
		format, err := textureFormat(ds.Format)
		if err != nil {
			return nil, err
		}
		compare, err := compareFunction(ds.DepthCompare)
		if err != nil {
			return nil, err
		}
		wdesc.DepthStencil = &wgpu.DepthStencilState{
			Format:              format,
			DepthWriteEnabled:   ds.DepthWriteEnabled,
			DepthCompare:        compare,
			DepthBias:           ds.DepthBias,
			DepthBiasSlopeScale: ds.DepthBiasSlopeScale,
			DepthBiasClamp:      ds.DepthBiasClamp,
			StencilReadMask:     ds.StencilReadMask,
			StencilWriteMask:    ds.StencilWriteMask,
			StencilFront: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
			StencilBack: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
		}
	}

	p, err := d.device.CreateRenderPipeline(wdesc)
	if err != nil {
		return nil, eris.Wrapf(err, "create render pipeline %q", desc.Label)
	}
	return &renderPipeline{p: p}, nil
}

func (d *Device) CreateBindGroup(desc *gpu.BindGroupDescriptor) (gpu.BindGroup, error) {
	entries := make([]wgpu.BindGroupEntry, len(desc.Entries))
	for i, e := range desc.Entries {
		buf, ok := e.Buffer.(*Buffer)
		if !ok {
			return nil, eris.Errorf("bind group %q: binding %d holds a foreign buffer %T", desc.Label, e.Binding, e.Buffer)
		}
		entries[i] = wgpu.BindGroupEntry{
			Binding: e.Binding,
			Buffer:  buf.buf,
			Size:    wgpu.WholeSize,
		}
	}
	g, err := d.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   desc.Label,
		Layout:  desc.Layout.(*bindGroupLayout).l,
		Entries: entries,
	})
	if err != nil {
		return nil, eris.Wrapf(err, "create bind group %q", desc.Label)
	}
	return &bindGroup{g: g}, nil
}

func (d *Device) CreateBufferMapped(label string, size uint64, usage gputypes.BufferUsage) (gpu.MappedBuffer, error) {
	buf, err := d.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label:            label,
		Size:             size,
		Usage:            bufferUsage(usage),
		MappedAtCreation: true,
	})
	if err != nil {
		return nil, eris.Wrapf(err, "create mapped buffer %q", label)
	}
	return &mappedBuffer{
		buf:  &Buffer{label: label, buf: buf},
		data: buf.GetMappedRange(0, uint(size)),
	}, nil
}

func (d *Device) CreateBufferInit(label string, contents []byte, usage gputypes.BufferUsage) (gpu.Buffer, error) {
	buf, err := d.device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    label,
		Contents: contents,
		Usage:    bufferUsage(usage),
	})
	if err != nil {
		return nil, eris.Wrapf(err, "create buffer %q", label)
	}
	return &Buffer{label: label, buf: buf}, nil
}

func (d *Device) WriteBuffer(buffer gpu.Buffer, offset uint64, data []byte) error {
	buf, ok := buffer.(*Buffer)
	if !ok {
		return eris.Errorf("write to foreign buffer %T", buffer)
	}
	d.queue.WriteBuffer(buf.buf, offset, data)
	return nil
}

// Pass adapts an open wgpu render pass encoder.
type Pass struct {
	enc *wgpu.RenderPassEncoder
}

func NewPass(enc *wgpu.RenderPassEncoder) *Pass {
	return &Pass{enc: enc}
}

func (p *Pass) SetPipeline(pipeline gpu.RenderPipeline) {
	p.enc.SetPipeline(pipeline.(*renderPipeline).p)
}

func (p *Pass) SetBindGroup(index uint32, group gpu.BindGroup) {
	p.enc.SetBindGroup(index, group.(*bindGroup).g, nil)
}

func (p *Pass) SetIndexBuffer(buffer gpu.Buffer, format gputypes.IndexFormat) {
	f := wgpu.IndexFormatUint16
	if format == gputypes.IndexFormatUint32 {
		f = wgpu.IndexFormatUint32
	}
	p.enc.SetIndexBuffer(buffer.(*Buffer).buf, f, 0, wgpu.WholeSize)
}

func (p *Pass) SetVertexBuffer(slot uint32, buffer gpu.Buffer) {
	p.enc.SetVertexBuffer(slot, buffer.(*Buffer).buf, 0, wgpu.WholeSize)
}

func (p *Pass) DrawIndexed(indexCount, instanceCount, firstIndex uint32, baseVertex int32, firstInstance uint32) {
	p.enc.DrawIndexed(indexCount, instanceCount, firstIndex, baseVertex, firstInstance)
}

var (
	_ gpu.Device     = (*Device)(nil)
	_ gpu.RenderPass = (*Pass)(nil)
)
