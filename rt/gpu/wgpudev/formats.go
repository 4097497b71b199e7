package wgpudev

import (
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gekko3d/instanced/rt/gpu"
	"github.com/gogpu/gputypes"
	"github.com/rotisserie/eris"
)

func vertexFormat(f gputypes.VertexFormat) (wgpu.VertexFormat, error) {
	switch f {
	case gputypes.VertexFormatFloat32:
		return wgpu.VertexFormatFloat32, nil
	case gputypes.VertexFormatFloat32x2:
		return wgpu.VertexFormatFloat32x2, nil
	case gputypes.VertexFormatFloat32x3:
		return wgpu.VertexFormatFloat32x3, nil
	case gputypes.VertexFormatFloat32x4:
		return wgpu.VertexFormatFloat32x4, nil
	case gputypes.VertexFormatUint32:
		return wgpu.VertexFormatUint32, nil
	default:
		return 0, eris.Wrapf(gpu.ErrUnsupportedFormat, "vertex format %s", f)
	}
}

func vertexBufferLayouts(layouts []gputypes.VertexBufferLayout) ([]wgpu.VertexBufferLayout, error) {
	out := make([]wgpu.VertexBufferLayout, len(layouts))
	for i, l := range layouts {
		step := wgpu.VertexStepModeVertex
		if l.StepMode == gputypes.VertexStepModeInstance {
			step = wgpu.VertexStepModeInstance
		}
		attrs := make([]wgpu.VertexAttribute, len(l.Attributes))
		for j, a := range l.Attributes {
			format, err := vertexFormat(a.Format)
			if err != nil {
				return nil, eris.Wrapf(err, "vertex buffer %d attribute %d", i, j)
			}
			attrs[j] = wgpu.VertexAttribute{
				Format:         format,
				Offset:         a.Offset,
				ShaderLocation: a.ShaderLocation,
			}
		}
		out[i] = wgpu.VertexBufferLayout{
			ArrayStride: l.ArrayStride,
			StepMode:    step,
			Attributes:  attrs,
		}
	}
	return out, nil
}

// TextureFormat maps a gputypes texture format onto the wgpu enum.
func TextureFormat(f gputypes.TextureFormat) (wgpu.TextureFormat, error) {
	return textureFormat(f)
}

func textureFormat(f gputypes.TextureFormat) (wgpu.TextureFormat, error) {
	switch f {
	case gputypes.TextureFormatBGRA8Unorm:
		return wgpu.TextureFormatBGRA8Unorm, nil
	case gputypes.TextureFormatBGRA8UnormSrgb:
		return wgpu.TextureFormatBGRA8UnormSrgb, nil
	case gputypes.TextureFormatRGBA8Unorm:
		return wgpu.TextureFormatRGBA8Unorm, nil
	case gputypes.TextureFormatRGBA8UnormSrgb:
		return wgpu.TextureFormatRGBA8UnormSrgb, nil
	case gputypes.TextureFormatDepth16Unorm:
		return wgpu.TextureFormatDepth16Unorm, nil
	case gputypes.TextureFormatDepth24Plus:
		return wgpu.TextureFormatDepth24Plus, nil
	case gputypes.TextureFormatDepth24PlusStencil8:
		return wgpu.TextureFormatDepth24PlusStencil8, nil
	case gputypes.TextureFormatDepth32Float:
		return wgpu.TextureFormatDepth32Float, nil
	case gputypes.TextureFormatDepth32FloatStencil8:
		return wgpu.TextureFormatDepth32FloatStencil8, nil
	default:
		return 0, eris.Wrapf(gpu.ErrUnsupportedFormat, "texture format %s", f)
	}
}

// FromTextureFormat maps a surface format reported by wgpu back to gputypes.
func FromTextureFormat(f wgpu.TextureFormat) (gputypes.TextureFormat, error) {
	switch f {
	case wgpu.TextureFormatBGRA8Unorm:
		return gputypes.TextureFormatBGRA8Unorm, nil
	case wgpu.TextureFormatBGRA8UnormSrgb:
		return gputypes.TextureFormatBGRA8UnormSrgb, nil
	case wgpu.TextureFormatRGBA8Unorm:
		return gputypes.TextureFormatRGBA8Unorm, nil
	case wgpu.TextureFormatRGBA8UnormSrgb:
		return gputypes.TextureFormatRGBA8UnormSrgb, nil
	default:
		return 0, eris.Wrapf(gpu.ErrUnsupportedFormat, "surface format %d", f)
	}
}

func compareFunction(c gputypes.CompareFunction) (wgpu.CompareFunction, error) {
	switch c {
	case gputypes.CompareFunctionNever:
		return wgpu.CompareFunctionNever, nil
	case gputypes.CompareFunctionLess:
		return wgpu.CompareFunctionLess, nil
	case gputypes.CompareFunctionLessEqual:
		return wgpu.CompareFunctionLessEqual, nil
	case gputypes.CompareFunctionEqual:
		return wgpu.CompareFunctionEqual, nil
	case gputypes.CompareFunctionGreater:
		return wgpu.CompareFunctionGreater, nil
	case gputypes.CompareFunctionGreaterEqual:
		return wgpu.CompareFunctionGreaterEqual, nil
	case gputypes.CompareFunctionNotEqual:
		return wgpu.CompareFunctionNotEqual, nil
	case gputypes.CompareFunctionAlways:
		return wgpu.CompareFunctionAlways, nil
	default:
		return 0, eris.Errorf("unsupported compare function %s", c)
	}
}

func primitiveState(p gputypes.PrimitiveState) (wgpu.PrimitiveState, error) {
	out := wgpu.PrimitiveState{}
	switch p.Topology {
	case gputypes.PrimitiveTopologyTriangleList:
		out.Topology = wgpu.PrimitiveTopologyTriangleList
	case gputypes.PrimitiveTopologyTriangleStrip:
		out.Topology = wgpu.PrimitiveTopologyTriangleStrip
	case gputypes.PrimitiveTopologyLineList:
		out.Topology = wgpu.PrimitiveTopologyLineList
	default:
		return out, eris.Errorf("unsupported topology %s", p.Topology)
	}
	out.FrontFace = wgpu.FrontFaceCCW
	if p.FrontFace == gputypes.FrontFaceCW {
		out.FrontFace = wgpu.FrontFaceCW
	}
	switch p.CullMode {
	case gputypes.CullModeNone:
		out.CullMode = wgpu.CullModeNone
	case gputypes.CullModeFront:
		out.CullMode = wgpu.CullModeFront
	case gputypes.CullModeBack:
		out.CullMode = wgpu.CullModeBack
	}
	return out, nil
}

func colorTargets(targets []gputypes.ColorTargetState) ([]wgpu.ColorTargetState, error) {
	out := make([]wgpu.ColorTargetState, len(targets))
	for i, t := range targets {
		format, err := textureFormat(t.Format)
		if err != nil {
			return nil, eris.Wrapf(err, "color target %d", i)
		}
		out[i] = wgpu.ColorTargetState{
			Format:    format,
			WriteMask: wgpu.ColorWriteMask(t.WriteMask),
		}
		if t.Blend != nil {
			out[i].Blend = &wgpu.BlendState{
				Color: blendComponent(t.Blend.Color),
				Alpha: blendComponent(t.Blend.Alpha),
			}
		}
	}
	return out, nil
}

func blendComponent(c gputypes.BlendComponent) wgpu.BlendComponent {
	return wgpu.BlendComponent{
		Operation: wgpu.BlendOperationAdd,
		SrcFactor: blendFactor(c.SrcFactor),
		DstFactor: blendFactor(c.DstFactor),
	}
}

func blendFactor(f gputypes.BlendFactor) wgpu.BlendFactor {
	switch f {
	case gputypes.BlendFactorZero:
		return wgpu.BlendFactorZero
	case gputypes.BlendFactorSrcAlpha:
		return wgpu.BlendFactorSrcAlpha
	case gputypes.BlendFactorOneMinusSrcAlpha:
		return wgpu.BlendFactorOneMinusSrcAlpha
	default:
		return wgpu.BlendFactorOne
	}
}

func bufferUsage(u gputypes.BufferUsage) wgpu.BufferUsage {
	var out wgpu.BufferUsage
	pairs := []struct {
		from gputypes.BufferUsage
		to   wgpu.BufferUsage
	}{
		{gputypes.BufferUsageMapRead, wgpu.BufferUsageMapRead},
		{gputypes.BufferUsageMapWrite, wgpu.BufferUsageMapWrite},
		{gputypes.BufferUsageCopySrc, wgpu.BufferUsageCopySrc},
		{gputypes.BufferUsageCopyDst, wgpu.BufferUsageCopyDst},
		{gputypes.BufferUsageIndex, wgpu.BufferUsageIndex},
		{gputypes.BufferUsageVertex, wgpu.BufferUsageVertex},
		{gputypes.BufferUsageUniform, wgpu.BufferUsageUniform},
		{gputypes.BufferUsageStorage, wgpu.BufferUsageStorage},
	}
	for _, p := range pairs {
		if u&p.from != 0 {
			out |= p.to
		}
	}
	return out
}

func shaderStage(s gputypes.ShaderStages) wgpu.ShaderStage {
	var out wgpu.ShaderStage
	if s&gputypes.ShaderStageVertex != 0 {
		out |= wgpu.ShaderStageVertex
	}
	if s&gputypes.ShaderStageFragment != 0 {
		out |= wgpu.ShaderStageFragment
	}
	if s&gputypes.ShaderStageCompute != 0 {
		out |= wgpu.ShaderStageCompute
	}
	return out
}

func bufferBindingType(t gputypes.BufferBindingType) (wgpu.BufferBindingType, error) {
	switch t {
	case gputypes.BufferBindingTypeUniform:
		return wgpu.BufferBindingTypeUniform, nil
	case gputypes.BufferBindingTypeStorage:
		return wgpu.BufferBindingTypeStorage, nil
	case gputypes.BufferBindingTypeReadOnlyStorage:
		return wgpu.BufferBindingTypeReadOnlyStorage, nil
	default:
		return 0, eris.Errorf("unsupported buffer binding type %s", t)
	}
}
