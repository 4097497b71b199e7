// Package gputest provides a recording gpu.Device and gpu.RenderPass for tests.
package gputest

import (
	"fmt"

	"github.com/gekko3d/instanced/rt/gpu"
	"github.com/gogpu/gputypes"
	"github.com/rotisserie/eris"
)

type Buffer struct {
	Name     string
	Usage    gputypes.BufferUsage
	Data     []byte
	Released bool
	dev      *Device
}

func (b *Buffer) Label() string { return b.Name }
func (b *Buffer) Size() uint64  { return uint64(len(b.Data)) }
func (b *Buffer) Release() {
	if !b.Released {
		b.Released = true
		b.dev.ReleasedBuffers++
	}
}

type mappedBuffer struct {
	buf      *Buffer
	finished bool
}

func (m *mappedBuffer) Bytes() []byte {
	if m.finished {
		return nil
	}
	return m.buf.Data
}

func (m *mappedBuffer) Finish() (gpu.Buffer, error) {
	if m.finished {
		return nil, eris.Errorf("buffer %q already unmapped", m.buf.Name)
	}
	m.finished = true
	return m.buf, nil
}

type ShaderModule struct {
	Label string
	SPIRV []byte
	WGSL  string
}

func (*ShaderModule) Release() {}

type BindGroupLayout struct {
	Desc gputypes.BindGroupLayoutDescriptor
}

func (*BindGroupLayout) Release() {}

type PipelineLayout struct {
	Desc gpu.PipelineLayoutDescriptor
}

func (*PipelineLayout) Release() {}

type RenderPipeline struct {
	Desc gpu.RenderPipelineDescriptor
}

func (*RenderPipeline) Release() {}

type BindGroup struct {
	Desc gpu.BindGroupDescriptor
}

func (*BindGroup) Release() {}

// Device records every resource it creates. Setting a Fail* field makes the
// matching call return an error.
type Device struct {
	Buffers          []*Buffer
	ShaderModules    []*ShaderModule
	BindGroupLayouts []*BindGroupLayout
	PipelineLayouts  []*PipelineLayout
	Pipelines        []*RenderPipeline
	BindGroups       []*BindGroup
	Writes           []Write
	ReleasedBuffers  int

	FailShaderModule bool
	FailPipeline     bool
	FailBuffer       bool
}

type Write struct {
	Buffer string
	Offset uint64
	Data   []byte
}

func NewDevice() *Device {
	return &Device{}
}

var errInjected = eris.New("injected device failure")

func (d *Device) CreateShaderModule(desc *gpu.ShaderModuleDescriptor) (gpu.ShaderModule, error) {
	if d.FailShaderModule {
		return nil, errInjected
	}
	m := &ShaderModule{Label: desc.Label, SPIRV: desc.SPIRV, WGSL: desc.WGSL}
	d.ShaderModules = append(d.ShaderModules, m)
	return m, nil
}

func (d *Device) CreateBindGroupLayout(desc *gputypes.BindGroupLayoutDescriptor) (gpu.BindGroupLayout, error) {
	l := &BindGroupLayout{Desc: *desc}
	d.BindGroupLayouts = append(d.BindGroupLayouts, l)
	return l, nil
}

func (d *Device) CreatePipelineLayout(desc *gpu.PipelineLayoutDescriptor) (gpu.PipelineLayout, error) {
	l := &PipelineLayout{Desc: *desc}
	d.PipelineLayouts = append(d.PipelineLayouts, l)
	return l, nil
}

func (d *Device) CreateRenderPipeline(desc *gpu.RenderPipelineDescriptor) (gpu.RenderPipeline, error) {
	if d.FailPipeline {
		return nil, errInjected
	}
	p := &RenderPipeline{Desc: *desc}
	d.Pipelines = append(d.Pipelines, p)
	return p, nil
}

func (d *Device) CreateBindGroup(desc *gpu.BindGroupDescriptor) (gpu.BindGroup, error) {
	g := &BindGroup{Desc: *desc}
	d.BindGroups = append(d.BindGroups, g)
	return g, nil
}

func (d *Device) CreateBufferMapped(label string, size uint64, usage gputypes.BufferUsage) (gpu.MappedBuffer, error) {
	if d.FailBuffer {
		return nil, errInjected
	}
	b := &Buffer{Name: label, Usage: usage, Data: make([]byte, size), dev: d}
	d.Buffers = append(d.Buffers, b)
	return &mappedBuffer{buf: b}, nil
}

func (d *Device) CreateBufferInit(label string, contents []byte, usage gputypes.BufferUsage) (gpu.Buffer, error) {
	if d.FailBuffer {
		return nil, errInjected
	}
	b := &Buffer{Name: label, Usage: usage, Data: append([]byte(nil), contents...), dev: d}
	d.Buffers = append(d.Buffers, b)
	return b, nil
}

func (d *Device) WriteBuffer(buffer gpu.Buffer, offset uint64, data []byte) error {
	b, ok := buffer.(*Buffer)
	if !ok {
		return eris.Errorf("foreign buffer %T", buffer)
	}
	if offset+uint64(len(data)) > uint64(len(b.Data)) {
		return eris.Errorf("write of %d bytes at %d overflows %q (%d bytes)", len(data), offset, b.Name, len(b.Data))
	}
	copy(b.Data[offset:], data)
	d.Writes = append(d.Writes, Write{Buffer: b.Name, Offset: offset, Data: append([]byte(nil), data...)})
	return nil
}

// LiveBuffers returns the buffers with the given label that were not released.
func (d *Device) LiveBuffers(label string) []*Buffer {
	var out []*Buffer
	for _, b := range d.Buffers {
		if b.Name == label && !b.Released {
			out = append(out, b)
		}
	}
	return out
}

// Command is one recorded render pass call.
type Command struct {
	Op string

	Pipeline    gpu.RenderPipeline
	BindGroup   gpu.BindGroup
	Index       uint32
	Buffer      gpu.Buffer
	IndexFormat gputypes.IndexFormat

	IndexCount    uint32
	InstanceCount uint32
	FirstIndex    uint32
	BaseVertex    int32
	FirstInstance uint32
}

func (c Command) String() string {
	switch c.Op {
	case "SetVertexBuffer":
		return fmt.Sprintf("SetVertexBuffer(%d, %s)", c.Index, c.Buffer.Label())
	case "SetIndexBuffer":
		return fmt.Sprintf("SetIndexBuffer(%s)", c.Buffer.Label())
	case "SetBindGroup":
		return fmt.Sprintf("SetBindGroup(%d)", c.Index)
	case "DrawIndexed":
		return fmt.Sprintf("DrawIndexed(%d, %d)", c.IndexCount, c.InstanceCount)
	default:
		return c.Op
	}
}

// Pass records render pass commands in order.
type Pass struct {
	Commands []Command
}

func (p *Pass) SetPipeline(pipeline gpu.RenderPipeline) {
	p.Commands = append(p.Commands, Command{Op: "SetPipeline", Pipeline: pipeline})
}

func (p *Pass) SetBindGroup(index uint32, group gpu.BindGroup) {
	p.Commands = append(p.Commands, Command{Op: "SetBindGroup", Index: index, BindGroup: group})
}

func (p *Pass) SetIndexBuffer(buffer gpu.Buffer, format gputypes.IndexFormat) {
	p.Commands = append(p.Commands, Command{Op: "SetIndexBuffer", Buffer: buffer, IndexFormat: format})
}

func (p *Pass) SetVertexBuffer(slot uint32, buffer gpu.Buffer) {
	p.Commands = append(p.Commands, Command{Op: "SetVertexBuffer", Index: slot, Buffer: buffer})
}

func (p *Pass) DrawIndexed(indexCount, instanceCount, firstIndex uint32, baseVertex int32, firstInstance uint32) {
	p.Commands = append(p.Commands, Command{
		Op:            "DrawIndexed",
		IndexCount:    indexCount,
		InstanceCount: instanceCount,
		FirstIndex:    firstIndex,
		BaseVertex:    baseVertex,
		FirstInstance: firstInstance,
	})
}

// Draws returns the recorded DrawIndexed commands.
func (p *Pass) Draws() []Command {
	var out []Command
	for _, c := range p.Commands {
		if c.Op == "DrawIndexed" {
			out = append(out, c)
		}
	}
	return out
}

// Trace renders the command list as strings for order assertions.
func (p *Pass) Trace() []string {
	out := make([]string, len(p.Commands))
	for i, c := range p.Commands {
		out[i] = c.String()
	}
	return out
}

func (p *Pass) Reset() {
	p.Commands = p.Commands[:0]
}

var (
	_ gpu.Device     = (*Device)(nil)
	_ gpu.RenderPass = (*Pass)(nil)
)
