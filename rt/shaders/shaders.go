package shaders

import (
	_ "embed"
	"sort"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/naga"
	"github.com/gogpu/naga/ir"
	"github.com/rotisserie/eris"
)

//go:embed forward_instanced.wgsl
var ForwardInstancedWGSL string

const (
	VertexEntryPoint   = "vs_main"
	FragmentEntryPoint = "fs_main"

	// InstanceInputStruct is the WGSL struct fed by the per-instance stream.
	InstanceInputStruct = "InstanceInput"
)

// Compile turns WGSL source into SPIR-V.
func Compile(src string) ([]byte, error) {
	spirv, err := naga.Compile(src)
	if err != nil {
		return nil, eris.Wrap(err, "compile wgsl")
	}
	return spirv, nil
}

// Input is one @location member of a WGSL struct.
type Input struct {
	Name     string
	Location uint32
	Format   gputypes.VertexFormat
}

// InstanceInputs lists the @location members of structName in src, ordered
// by location.
func InstanceInputs(src, structName string) ([]Input, error) {
	ast, err := naga.Parse(src)
	if err != nil {
		return nil, eris.Wrap(err, "parse wgsl")
	}
	module, err := naga.LowerWithSource(ast, src)
	if err != nil {
		return nil, eris.Wrap(err, "lower wgsl")
	}

	for _, ty := range module.Types {
		st, ok := ty.Inner.(ir.StructType)
		if !ok || ty.Name != structName {
			continue
		}
		var inputs []Input
		for _, m := range st.Members {
			if m.Binding == nil {
				continue
			}
			loc, ok := (*m.Binding).(ir.LocationBinding)
			if !ok {
				continue
			}
			format, err := vertexFormat(module, m.Type)
			if err != nil {
				return nil, eris.Wrapf(err, "%s.%s", structName, m.Name)
			}
			inputs = append(inputs, Input{Name: m.Name, Location: loc.Location, Format: format})
		}
		sort.Slice(inputs, func(i, j int) bool { return inputs[i].Location < inputs[j].Location })
		return inputs, nil
	}
	return nil, eris.Errorf("struct %s not found", structName)
}

func vertexFormat(module *ir.Module, handle ir.TypeHandle) (gputypes.VertexFormat, error) {
	if int(handle) >= len(module.Types) {
		return 0, eris.Errorf("type handle %d out of range", handle)
	}
	switch t := module.Types[handle].Inner.(type) {
	case ir.ScalarType:
		switch {
		case t.Kind == ir.ScalarFloat && t.Width == 4:
			return gputypes.VertexFormatFloat32, nil
		case t.Kind == ir.ScalarUint && t.Width == 4:
			return gputypes.VertexFormatUint32, nil
		}
	case ir.VectorType:
		if t.Scalar.Kind == ir.ScalarFloat && t.Scalar.Width == 4 {
			switch t.Size {
			case ir.Vec2:
				return gputypes.VertexFormatFloat32x2, nil
			case ir.Vec3:
				return gputypes.VertexFormatFloat32x3, nil
			case ir.Vec4:
				return gputypes.VertexFormatFloat32x4, nil
			}
		}
	}
	return 0, eris.New("unsupported vertex input type")
}
