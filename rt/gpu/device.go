// Package gpu is the thin device abstraction the render passes record against.
// Descriptors use the gputypes vocabulary so the passes and their tests do not
// depend on a native WebGPU library; wgpudev supplies the real backend.
package gpu

import (
	"github.com/gogpu/gputypes"
)

type Buffer interface {
	Label() string
	Size() uint64
	Release()
}

// MappedBuffer is a buffer created mapped for CPU writes. Bytes is valid
// until Finish, which unmaps it and hands it to the GPU.
type MappedBuffer interface {
	Bytes() []byte
	Finish() (Buffer, error)
}

type ShaderModule interface{ Release() }
type BindGroupLayout interface{ Release() }
type PipelineLayout interface{ Release() }
type RenderPipeline interface{ Release() }
type BindGroup interface{ Release() }

type Device interface {
	CreateShaderModule(desc *ShaderModuleDescriptor) (ShaderModule, error)
	CreateBindGroupLayout(desc *gputypes.BindGroupLayoutDescriptor) (BindGroupLayout, error)
	CreatePipelineLayout(desc *PipelineLayoutDescriptor) (PipelineLayout, error)
	CreateRenderPipeline(desc *RenderPipelineDescriptor) (RenderPipeline, error)
	CreateBindGroup(desc *BindGroupDescriptor) (BindGroup, error)
	CreateBufferMapped(label string, size uint64, usage gputypes.BufferUsage) (MappedBuffer, error)
	CreateBufferInit(label string, contents []byte, usage gputypes.BufferUsage) (Buffer, error)
	WriteBuffer(buffer Buffer, offset uint64, data []byte) error
}

// RenderPass records draw commands into an open render pass.
type RenderPass interface {
	SetPipeline(pipeline RenderPipeline)
	SetBindGroup(index uint32, group BindGroup)
	SetIndexBuffer(buffer Buffer, format gputypes.IndexFormat)
	SetVertexBuffer(slot uint32, buffer Buffer)
	DrawIndexed(indexCount, instanceCount, firstIndex uint32, baseVertex int32, firstInstance uint32)
}

// FrameOutput describes the surface image a frame renders into.
type FrameOutput struct {
	Width  uint32
	Height uint32
	Index  uint64
}

// ShaderModuleDescriptor carries compiled SPIR-V, or WGSL source for the
// backend to compile when SPIRV is empty.
type ShaderModuleDescriptor struct {
	Label string
	SPIRV []byte
	WGSL  string
}

type PipelineLayoutDescriptor struct {
	Label            string
	BindGroupLayouts []BindGroupLayout
}

type ProgrammableStage struct {
	Module     ShaderModule
	EntryPoint string
}

type RenderPipelineDescriptor struct {
	Label         string
	Layout        PipelineLayout
	Vertex        ProgrammableStage
	VertexBuffers []gputypes.VertexBufferLayout
	Fragment      ProgrammableStage
	Targets       []gputypes.ColorTargetState
	Primitive     gputypes.PrimitiveState
	DepthStencil  *gputypes.DepthStencilState
	Multisample   gputypes.MultisampleState
}

type BindGroupEntry struct {
	Binding uint32
	Buffer  Buffer
}

type BindGroupDescriptor struct {
	Label   string
	Layout  BindGroupLayout
	Entries []BindGroupEntry
}
