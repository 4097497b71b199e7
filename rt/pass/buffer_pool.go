package pass

import (
	"github.com/gekko3d/instanced/rt/gpu"
	"github.com/gogpu/gputypes"
	"github.com/rotisserie/eris"
)

const instanceBufferUsage = gputypes.BufferUsageCopySrc | gputypes.BufferUsageVertex

// InstanceBufferPool hands out one fresh mapped buffer per batch and frame.
// Buffers of the previous frame are released when the next frame's set is
// adopted.
type InstanceBufferPool struct {
	device gpu.Device
	live   []gpu.Buffer
}

func NewInstanceBufferPool(device gpu.Device) *InstanceBufferPool {
	return &InstanceBufferPool{device: device}
}

// Upload writes the batch's records into a new buffer sized exactly to them.
func (p *InstanceBufferPool) Upload(b *Batch) (gpu.Buffer, error) {
	size := uint64(len(b.Records) * InstanceRecordSize)
	mapped, err := p.device.CreateBufferMapped("instance_buffer:"+string(b.Mesh), size, instanceBufferUsage)
	if err != nil {
		return nil, eris.Wrapf(err, "instance buffer for mesh %s", b.Mesh)
	}
	data := mapped.Bytes()
	if uint64(len(data)) < size {
		return nil, eris.Errorf("mapped range of %d bytes for %d byte instance buffer", len(data), size)
	}
	for i, r := range b.Records {
		r.Put(data[i*InstanceRecordSize:])
	}
	buf, err := mapped.Finish()
	if err != nil {
		return nil, eris.Wrapf(err, "finish instance buffer for mesh %s", b.Mesh)
	}
	return buf, nil
}

// UploadAll materializes a buffer for every batch. On failure the buffers
// created so far are released and the batches are left without buffers.
func (p *InstanceBufferPool) UploadAll(batches []Batch) error {
	for i := range batches {
		buf, err := p.Upload(&batches[i])
		if err != nil {
			for j := 0; j < i; j++ {
				batches[j].Buffer.Release()
				batches[j].Buffer = nil
			}
			return err
		}
		batches[i].Buffer = buf
	}
	return nil
}

// Adopt releases the previous frame's buffers and tracks the new set.
func (p *InstanceBufferPool) Adopt(batches []Batch) {
	p.ReleaseAll()
	for _, b := range batches {
		if b.Buffer != nil {
			p.live = append(p.live, b.Buffer)
		}
	}
}

func (p *InstanceBufferPool) ReleaseAll() {
	for _, buf := range p.live {
		buf.Release()
	}
	p.live = p.live[:0]
}

// Bytes is the total size of the buffers of the current frame.
func (p *InstanceBufferPool) Bytes() uint64 {
	var n uint64
	for _, buf := range p.live {
		n += buf.Size()
	}
	return n
}
