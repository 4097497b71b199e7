package pass

import (
	"encoding/binary"
	"math"
	"unsafe"

	"github.com/gekko3d/instanced/rt/core"
	"github.com/gekko3d/instanced/rt/gpu"
	"github.com/gogpu/gputypes"
)

// InstanceRecord is the per-instance stream (stream 1) of the forward
// instanced shader. The struct tags are the only description of its layout;
// the pipeline derives its vertex attributes from them.
type InstanceRecord struct {
	Position [3]float32 `gpu:"layout" location:"3" format:"float3"`
	Color    [4]float32 `gpu:"layout" location:"4" format:"float4"`
}

const InstanceRecordSize = int(unsafe.Sizeof(InstanceRecord{}))

// NewInstanceRecord keeps only the translation of the transform.
func NewInstanceRecord(transform core.LocalToWorld, material core.Material) InstanceRecord {
	t := transform.Translation()
	c := material.GetColor()
	return InstanceRecord{
		Position: [3]float32{t.X(), t.Y(), t.Z()},
		Color:    [4]float32{c.X(), c.Y(), c.Z(), c.W()},
	}
}

// Put writes the record into dst in the declared layout. dst must hold at
// least InstanceRecordSize bytes.
func (r InstanceRecord) Put(dst []byte) {
	_ = dst[InstanceRecordSize-1]
	for i, v := range r.Position {
		binary.LittleEndian.PutUint32(dst[i*4:], math.Float32bits(v))
	}
	for i, v := range r.Color {
		binary.LittleEndian.PutUint32(dst[12+i*4:], math.Float32bits(v))
	}
}

// ReadInstanceRecord decodes the record at the start of src.
func ReadInstanceRecord(src []byte) InstanceRecord {
	var r InstanceRecord
	for i := range r.Position {
		r.Position[i] = math.Float32frombits(binary.LittleEndian.Uint32(src[i*4:]))
	}
	for i := range r.Color {
		r.Color[i] = math.Float32frombits(binary.LittleEndian.Uint32(src[12+i*4:]))
	}
	return r
}

var (
	instanceLayout = gpu.MustVertexLayoutOf(InstanceRecord{}, gputypes.VertexStepModeInstance)
	vertexLayout   = gpu.MustVertexLayoutOf(core.Vertex{}, gputypes.VertexStepModeVertex)
)

func InstanceLayout() gputypes.VertexBufferLayout { return cloneLayout(instanceLayout) }

func VertexLayout() gputypes.VertexBufferLayout { return cloneLayout(vertexLayout) }

func cloneLayout(l gputypes.VertexBufferLayout) gputypes.VertexBufferLayout {
	l.Attributes = append([]gputypes.VertexAttribute(nil), l.Attributes...)
	return l
}
