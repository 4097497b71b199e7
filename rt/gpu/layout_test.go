package gpu

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testVertex struct {
	Position [3]float32 `gpu:"layout" location:"0" format:"float3"`
	Normal   [3]float32 `gpu:"layout" location:"1" format:"float32x3"`
	Skipped  float32
	UV       [2]float32 `gpu:"layout" location:"2" format:"float2"`
}

func TestVertexLayoutOf(t *testing.T) {
	layout, err := VertexLayoutOf(testVertex{}, gputypes.VertexStepModeVertex)
	require.NoError(t, err)

	assert.Equal(t, uint64(36), layout.ArrayStride)
	assert.Equal(t, gputypes.VertexStepModeVertex, layout.StepMode)
	require.Len(t, layout.Attributes, 3)
	assert.Equal(t, gputypes.VertexAttribute{Format: gputypes.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0}, layout.Attributes[0])
	assert.Equal(t, gputypes.VertexAttribute{Format: gputypes.VertexFormatFloat32x3, Offset: 12, ShaderLocation: 1}, layout.Attributes[1])
	assert.Equal(t, gputypes.VertexAttribute{Format: gputypes.VertexFormatFloat32x2, Offset: 28, ShaderLocation: 2}, layout.Attributes[2])
}

func TestVertexLayoutOfRejectsBadTags(t *testing.T) {
	type unknownFormat struct {
		A [3]float32 `gpu:"layout" location:"0" format:"half3"`
	}
	_, err := VertexLayoutOf(unknownFormat{}, gputypes.VertexStepModeVertex)
	assert.True(t, eris.Is(err, ErrUnsupportedFormat))

	type wrongSize struct {
		A [2]float32 `gpu:"layout" location:"0" format:"float4"`
	}
	_, err = VertexLayoutOf(wrongSize{}, gputypes.VertexStepModeVertex)
	assert.True(t, eris.Is(err, ErrLayoutMismatch))

	_, err = VertexLayoutOf(42, gputypes.VertexStepModeVertex)
	assert.Error(t, err)
}

func TestCheckVertexLayout(t *testing.T) {
	layout := MustVertexLayoutOf(testVertex{}, gputypes.VertexStepModeInstance)
	require.NoError(t, CheckVertexLayout(layout, testVertex{}))

	shifted := layout
	shifted.Attributes = append([]gputypes.VertexAttribute(nil), layout.Attributes...)
	shifted.Attributes[1].Offset = 16
	assert.True(t, eris.Is(CheckVertexLayout(shifted, testVertex{}), ErrLayoutMismatch))

	wide := layout
	wide.ArrayStride = 40
	assert.True(t, eris.Is(CheckVertexLayout(wide, testVertex{}), ErrLayoutMismatch))
}

func TestToBytes(t *testing.T) {
	type uniform struct {
		Count uint32
		Pad   [3]uint32
		Color [4]float32
	}
	data, err := ToBytes(uniform{Count: 2, Color: [4]float32{1, 0.5, 0, 1}})
	require.NoError(t, err)
	require.Len(t, data, 32)

	assert.Equal(t, uint32(2), binary.LittleEndian.Uint32(data[0:]))
	assert.Equal(t, float32(0.5), math.Float32frombits(binary.LittleEndian.Uint32(data[20:])))

	_, err = ToBytes(struct{ S string }{"x"})
	assert.Error(t, err)
}

func TestParseDepthFormat(t *testing.T) {
	f, err := ParseDepthFormat("depth32float")
	require.NoError(t, err)
	assert.Equal(t, gputypes.TextureFormatDepth32Float, f)

	f, err = ParseDepthFormat("Depth24Plus")
	require.NoError(t, err)
	assert.Equal(t, gputypes.TextureFormatDepth24Plus, f)

	_, err = ParseDepthFormat("rgba8unorm")
	assert.True(t, eris.Is(err, ErrUnsupportedFormat))
}

func TestValidateSampleCount(t *testing.T) {
	assert.NoError(t, ValidateSampleCount(1))
	assert.NoError(t, ValidateSampleCount(4))
	assert.Error(t, ValidateSampleCount(2))
	assert.Error(t, ValidateSampleCount(0))
}
