// Package pass holds the forward instanced render pass: entities sharing a
// mesh are packed into one per-frame instance buffer and drawn with a single
// indexed instanced call.
package pass

import (
	"github.com/gekko3d/instanced/rt/core"
	"github.com/gekko3d/instanced/rt/gpu"
	"github.com/gekko3d/instanced/rt/shaders"
	"github.com/gogpu/gputypes"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

var (
	ErrNotInitialized       = eris.New("forward instanced pipeline is not initialized")
	ErrMissingUniformBuffer = eris.New("missing uniform buffer")
	ErrLayoutMismatch       = gpu.ErrLayoutMismatch
)

// GraphContext is what the frame graph shares with its passes.
type GraphContext struct {
	Device      gpu.Device
	Resources   gpu.ResourceRegistry
	ColorFormat gputypes.TextureFormat
}

// GpuMesh is a mesh realized on the device.
type GpuMesh struct {
	VertexBuffer gpu.Buffer
	IndexBuffer  gpu.Buffer
	IndexCount   uint32
}

// MeshStore resolves mesh ids, uploading their buffers on first use.
// ok is false when the id is unknown.
type MeshStore interface {
	Realize(device gpu.Device, id core.AssetId) (mesh GpuMesh, ok bool, err error)
}

// World is the entity snapshot a frame is rendered from. Meshes is only
// called once batching has finished.
type World interface {
	InstanceSource
	Meshes() MeshStore
}

type Stats struct {
	Batches     int
	Instances   int
	DrawCalls   int
	BufferBytes uint64
}

type Option func(*ForwardInstancedPipeline)

func WithLogger(logger zerolog.Logger) Option {
	return func(p *ForwardInstancedPipeline) { p.logger = logger }
}

// WithShaderSource replaces the built-in WGSL. The replacement must keep the
// entry points, the bind group and the InstanceInput struct.
func WithShaderSource(src string) Option {
	return func(p *ForwardInstancedPipeline) { p.shaderSrc = src }
}

// WithUniformNames changes the registry keys bound at slots 0 and 1.
func WithUniformNames(forward, lights string) Option {
	return func(p *ForwardInstancedPipeline) {
		p.names = uniformNames{forward: forward, lights: lights}
	}
}

type ForwardInstancedPipeline struct {
	depthFormat gputypes.TextureFormat
	samples     uint32
	shaderSrc   string
	names       uniformNames
	logger      zerolog.Logger

	object    *pipelineObject
	bindGroup gpu.BindGroup
	pool      *InstanceBufferPool
	batches   []Batch
	stats     Stats
}

func NewForwardInstancedPipeline(depthFormat gputypes.TextureFormat, samples uint32, opts ...Option) *ForwardInstancedPipeline {
	p := &ForwardInstancedPipeline{
		depthFormat: depthFormat,
		samples:     samples,
		shaderSrc:   shaders.ForwardInstancedWGSL,
		names:       uniformNames{forward: ForwardUniformBufferName, lights: LightUniformBufferName},
		logger:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Initialize builds the pipeline object and the binding set, then the first
// batch set. Running it again rebuilds everything.
func (p *ForwardInstancedPipeline) Initialize(ctx *GraphContext, world World) error {
	if ctx == nil || ctx.Device == nil {
		return eris.New("forward instanced pipeline needs a device")
	}

	object, err := buildPipeline(ctx.Device, pipelineTargets{
		color:   ctx.ColorFormat,
		depth:   p.depthFormat,
		samples: p.samples,
	}, p.shaderSrc, p.logger)
	if err != nil {
		return err
	}

	group, err := buildBindingSet(ctx.Device, ctx.Resources, object.bindGroupLayout, p.names)
	if err != nil {
		object.release()
		return err
	}
	p.logger.Debug().
		Str("slot0", p.names.forward).
		Str("slot1", p.names.lights).
		Msg("forward instanced binding set built")

	p.releaseGPU()
	p.object = object
	p.bindGroup = group
	p.pool = NewInstanceBufferPool(ctx.Device)

	return p.rebuildBatches(world)
}

// Render rebuilds the batch set from the current world and records one
// indexed instanced draw per batch into pass.
func (p *ForwardInstancedPipeline) Render(ctx *GraphContext, pass gpu.RenderPass, frame gpu.FrameOutput, world World) error {
	if p.object == nil || p.bindGroup == nil {
		return ErrNotInitialized
	}
	if err := p.rebuildBatches(world); err != nil {
		return err
	}

	pass.SetPipeline(p.object.pipeline)
	pass.SetBindGroup(0, p.bindGroup)

	if len(p.batches) == 0 {
		return nil
	}

	meshes := world.Meshes()
	for i := range p.batches {
		b := &p.batches[i]
		mesh, ok, err := meshes.Realize(ctx.Device, b.Mesh)
		if err != nil {
			return eris.Wrapf(err, "realize mesh %s", b.Mesh)
		}
		if !ok {
			p.logger.Warn().Str("mesh", string(b.Mesh)).Uint32("instances", b.InstanceCount).Msg("instanced mesh not found, skipping")
			continue
		}
		pass.SetIndexBuffer(mesh.IndexBuffer, gputypes.IndexFormatUint16)
		pass.SetVertexBuffer(0, mesh.VertexBuffer)
		pass.SetVertexBuffer(1, b.Buffer)
		pass.DrawIndexed(mesh.IndexCount, b.InstanceCount, 0, 0, 0)
		p.stats.DrawCalls++
	}

	if p.logger.GetLevel() <= zerolog.DebugLevel {
		p.logger.Debug().
			Uint64("frame", frame.Index).
			Int("batches", p.stats.Batches).
			Int("instances", p.stats.Instances).
			Int("draws", p.stats.DrawCalls).
			Uint64("bytes", p.stats.BufferBytes).
			Msg("forward instanced frame")
	}
	return nil
}

// Resize is a no-op: the pass owns no size dependent resources.
func (p *ForwardInstancedPipeline) Resize(ctx *GraphContext) {}

// Rebind rebuilds the binding set against the registry's current buffers.
// Call it after recreating the shared uniform buffers.
func (p *ForwardInstancedPipeline) Rebind(ctx *GraphContext) error {
	if p.object == nil {
		return ErrNotInitialized
	}
	group, err := buildBindingSet(ctx.Device, ctx.Resources, p.object.bindGroupLayout, p.names)
	if err != nil {
		return err
	}
	if p.bindGroup != nil {
		p.bindGroup.Release()
	}
	p.bindGroup = group
	return nil
}

// RenderPipeline returns the pipeline object, nil before Initialize.
func (p *ForwardInstancedPipeline) RenderPipeline() gpu.RenderPipeline {
	if p.object == nil {
		return nil
	}
	return p.object.pipeline
}

// Batches exposes the current frame's batch set. Callers must not modify it.
func (p *ForwardInstancedPipeline) Batches() []Batch {
	return p.batches
}

func (p *ForwardInstancedPipeline) Stats() Stats {
	return p.stats
}

// Release frees every GPU object the pipeline owns.
func (p *ForwardInstancedPipeline) Release() {
	p.releaseGPU()
	p.batches = nil
	p.stats = Stats{}
}

func (p *ForwardInstancedPipeline) releaseGPU() {
	if p.pool != nil {
		p.pool.ReleaseAll()
	}
	if p.bindGroup != nil {
		p.bindGroup.Release()
		p.bindGroup = nil
	}
	p.object.release()
	p.object = nil
}

func (p *ForwardInstancedPipeline) rebuildBatches(world World) error {
	batches := BuildBatches(world)
	if err := p.pool.UploadAll(batches); err != nil {
		return err
	}
	p.pool.Adopt(batches)
	p.batches = batches

	p.stats = Stats{Batches: len(batches), BufferBytes: p.pool.Bytes()}
	for _, b := range batches {
		p.stats.Instances += int(b.InstanceCount)
	}
	return nil
}
