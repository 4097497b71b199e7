package pass

import (
	"github.com/gekko3d/instanced/rt/gpu"
	"github.com/gekko3d/instanced/rt/shaders"
	"github.com/gogpu/gputypes"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

const uniformVisibility = gputypes.ShaderStageVertex | gputypes.ShaderStageFragment

// pipelineObject is the immutable product of pipeline construction.
type pipelineObject struct {
	module          gpu.ShaderModule
	bindGroupLayout gpu.BindGroupLayout
	layout          gpu.PipelineLayout
	pipeline        gpu.RenderPipeline
}

func (p *pipelineObject) release() {
	if p == nil {
		return
	}
	p.pipeline.Release()
	p.layout.Release()
	p.bindGroupLayout.Release()
	p.module.Release()
}

type pipelineTargets struct {
	color   gputypes.TextureFormat
	depth   gputypes.TextureFormat
	samples uint32
}

func (t pipelineTargets) validate() error {
	if err := gpu.ValidateSampleCount(t.samples); err != nil {
		return err
	}
	if !t.depth.HasDepth() {
		return eris.Wrapf(gpu.ErrUnsupportedFormat, "depth target %s has no depth aspect", t.depth)
	}
	if t.color == gputypes.TextureFormatUndefined || t.color.IsDepthStencil() {
		return eris.Wrapf(gpu.ErrUnsupportedFormat, "color target %s", t.color)
	}
	return nil
}

// checkInstanceLayout compares the record layout with the Go struct and
// with the per-instance inputs the shader declares.
func checkInstanceLayout(layout gputypes.VertexBufferLayout, src string, logger zerolog.Logger) error {
	if err := gpu.CheckVertexLayout(layout, InstanceRecord{}); err != nil {
		return eris.Wrap(err, "instance record")
	}

	inputs, err := shaders.InstanceInputs(src, shaders.InstanceInputStruct)
	if err != nil {
		logger.Warn().Err(err).Msg("skipping shader instance input check")
		return nil
	}
	if len(inputs) != len(layout.Attributes) {
		return eris.Wrapf(ErrLayoutMismatch, "shader declares %d instance inputs, record has %d", len(inputs), len(layout.Attributes))
	}
	for i, in := range inputs {
		attr := layout.Attributes[i]
		if in.Location != attr.ShaderLocation || in.Format != attr.Format {
			return eris.Wrapf(ErrLayoutMismatch, "shader input %s is @location(%d) %s, record has @location(%d) %s",
				in.Name, in.Location, in.Format, attr.ShaderLocation, attr.Format)
		}
	}
	return nil
}

func shaderModuleDescriptor(src string, logger zerolog.Logger) *gpu.ShaderModuleDescriptor {
	desc := &gpu.ShaderModuleDescriptor{Label: "forward_instanced"}
	spirv, err := shaders.Compile(src)
	if err != nil {
		logger.Warn().Err(err).Msg("wgsl to spir-v failed, handing wgsl to the device")
		desc.WGSL = src
		return desc
	}
	desc.SPIRV = spirv
	return desc
}

func buildPipeline(device gpu.Device, targets pipelineTargets, src string, logger zerolog.Logger) (*pipelineObject, error) {
	if err := targets.validate(); err != nil {
		return nil, err
	}
	instances := InstanceLayout()
	if err := checkInstanceLayout(instances, src, logger); err != nil {
		return nil, err
	}

	module, err := device.CreateShaderModule(shaderModuleDescriptor(src, logger))
	if err != nil {
		return nil, eris.Wrap(err, "forward instanced shader")
	}

	bgl, err := device.CreateBindGroupLayout(&gputypes.BindGroupLayoutDescriptor{
		Label: "forward_instanced_bgl",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0, // frame globals
				Visibility: uniformVisibility,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
			},
			{
				Binding:    1, // lights
				Visibility: uniformVisibility,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
			},
		},
	})
	if err != nil {
		module.Release()
		return nil, eris.Wrap(err, "forward instanced bind group layout")
	}

	layout, err := device.CreatePipelineLayout(&gpu.PipelineLayoutDescriptor{
		Label:            "forward_instanced_layout",
		BindGroupLayouts: []gpu.BindGroupLayout{bgl},
	})
	if err != nil {
		bgl.Release()
		module.Release()
		return nil, eris.Wrap(err, "forward instanced pipeline layout")
	}

	pipeline, err := device.CreateRenderPipeline(&gpu.RenderPipelineDescriptor{
		Label:         "forward_instanced",
		Layout:        layout,
		Vertex:        gpu.ProgrammableStage{Module: module, EntryPoint: shaders.VertexEntryPoint},
		VertexBuffers: []gputypes.VertexBufferLayout{VertexLayout(), instances},
		Fragment:      gpu.ProgrammableStage{Module: module, EntryPoint: shaders.FragmentEntryPoint},
		Targets: []gputypes.ColorTargetState{
			{
				Format:    targets.color,
				WriteMask: gputypes.ColorWriteMaskAll,
			},
		},
		Primitive: gputypes.PrimitiveState{
			Topology:  gputypes.PrimitiveTopologyTriangleList,
			FrontFace: gputypes.FrontFaceCCW,
			CullMode:  gputypes.CullModeBack,
		},
		DepthStencil: &gputypes.DepthStencilState{
			Format:            targets.depth,
			DepthWriteEnabled: true,
			DepthCompare:      gputypes.CompareFunctionLess,
			StencilFront:      gputypes.DefaultStencilFaceState(),
			StencilBack:       gputypes.DefaultStencilFaceState(),
		},
		Multisample: gputypes.MultisampleState{
			Count: targets.samples,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		layout.Release()
		bgl.Release()
		module.Release()
		return nil, eris.Wrapf(err, "forward instanced pipeline (%s, %s, %dx)", targets.color, targets.depth, targets.samples)
	}

	logger.Info().
		Str("color", targets.color.String()).
		Str("depth", targets.depth.String()).
		Uint32("samples", targets.samples).
		Msg("forward instanced pipeline built")

	return &pipelineObject{
		module:          module,
		bindGroupLayout: bgl,
		layout:          layout,
		pipeline:        pipeline,
	}, nil
}
