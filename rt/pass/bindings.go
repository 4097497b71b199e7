package pass

import (
	"github.com/gekko3d/instanced/rt/gpu"
	"github.com/rotisserie/eris"
)

const (
	ForwardUniformBufferName = "forward_uniforms"
	LightUniformBufferName   = "lights"
)

// uniformNames are the registry keys bound at slots 0 and 1.
type uniformNames struct {
	forward string
	lights  string
}

func buildBindingSet(device gpu.Device, resources gpu.ResourceRegistry, layout gpu.BindGroupLayout, names uniformNames) (gpu.BindGroup, error) {
	if resources == nil {
		return nil, eris.Wrap(ErrMissingUniformBuffer, "no resource registry")
	}
	forward, ok := resources.UniformBuffer(names.forward)
	if !ok {
		return nil, eris.Wrapf(ErrMissingUniformBuffer, "%q", names.forward)
	}
	lights, ok := resources.UniformBuffer(names.lights)
	if !ok {
		return nil, eris.Wrapf(ErrMissingUniformBuffer, "%q", names.lights)
	}

	group, err := device.CreateBindGroup(&gpu.BindGroupDescriptor{
		Label:  "forward_instanced_bind_group",
		Layout: layout,
		Entries: []gpu.BindGroupEntry{
			{Binding: 0, Buffer: forward},
			{Binding: 1, Buffer: lights},
		},
	})
	if err != nil {
		return nil, eris.Wrap(err, "forward instanced bind group")
	}
	return group, nil
}
