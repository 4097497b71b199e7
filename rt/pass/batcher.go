package pass

import (
	"github.com/gekko3d/instanced/rt/core"
	"github.com/gekko3d/instanced/rt/gpu"
)

// InstanceSource iterates the entities carrying a material, a transform,
// a mesh handle and the Instanced tag, in a stable order.
type InstanceSource interface {
	EachInstanced(fn func(mesh core.MeshHandle, transform core.LocalToWorld, material core.Material))
}

// Batch is every instance of one mesh for one frame.
type Batch struct {
	Mesh          core.AssetId
	Records       []InstanceRecord
	Buffer        gpu.Buffer
	InstanceCount uint32
}

// BuildBatches groups the instanced entities by mesh. Batches come out in the
// order their mesh was first seen and records keep the visit order.
func BuildBatches(src InstanceSource) []Batch {
	var batches []Batch
	index := make(map[core.AssetId]int)

	src.EachInstanced(func(mesh core.MeshHandle, transform core.LocalToWorld, material core.Material) {
		i, ok := index[mesh.Id]
		if !ok {
			i = len(batches)
			index[mesh.Id] = i
			batches = append(batches, Batch{Mesh: mesh.Id})
		}
		batches[i].Records = append(batches[i].Records, NewInstanceRecord(transform, material))
	})

	for i := range batches {
		batches[i].InstanceCount = uint32(len(batches[i].Records))
	}
	return batches
}
