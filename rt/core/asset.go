package core

// AssetId identifies an asset owned by the asset server.
type AssetId string

// MeshHandle references a mesh asset. Entities sharing a handle are drawn
// together by the instanced pass.
type MeshHandle struct {
	Id AssetId
}

// Instanced opts an entity into the batched instanced draw path.
type Instanced struct{}
