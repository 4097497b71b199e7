package shaders

import (
	"strings"
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstanceInputs(t *testing.T) {
	inputs, err := InstanceInputs(ForwardInstancedWGSL, InstanceInputStruct)
	if err != nil && strings.Contains(err.Error(), "not yet implemented") {
		t.Skip("naga cannot lower this shader yet:", err)
	}
	require.NoError(t, err)

	assert.Equal(t, []Input{
		{Name: "offset", Location: 3, Format: gputypes.VertexFormatFloat32x3},
		{Name: "color", Location: 4, Format: gputypes.VertexFormatFloat32x4},
	}, inputs)
}

func TestInstanceInputsMissingStruct(t *testing.T) {
	_, err := InstanceInputs(ForwardInstancedWGSL, "NoSuchStruct")
	assert.Error(t, err)
}

func TestInstanceInputsVertexStream(t *testing.T) {
	inputs, err := InstanceInputs(ForwardInstancedWGSL, "VertexInput")
	if err != nil && strings.Contains(err.Error(), "not yet implemented") {
		t.Skip("naga cannot lower this shader yet:", err)
	}
	require.NoError(t, err)
	require.Len(t, inputs, 3)
	assert.Equal(t, gputypes.VertexFormatFloat32x2, inputs[2].Format)
}

func TestCompile(t *testing.T) {
	spirv, err := Compile(ForwardInstancedWGSL)
	if err != nil && strings.Contains(err.Error(), "not yet implemented") {
		t.Skip("naga cannot compile this shader yet:", err)
	}
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(spirv), 20)

	magic := uint32(spirv[0]) | uint32(spirv[1])<<8 | uint32(spirv[2])<<16 | uint32(spirv[3])<<24
	assert.Equal(t, uint32(0x07230203), magic)
}

func TestCompileRejectsGarbage(t *testing.T) {
	_, err := Compile("fn (")
	assert.Error(t, err)
}
