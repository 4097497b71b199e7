package instanced

import (
	"sync"

	"github.com/gekko3d/instanced/rt/core"
	"github.com/gekko3d/instanced/rt/gpu"
	"github.com/gekko3d/instanced/rt/pass"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/gputypes"
	"github.com/google/uuid"
	"github.com/rotisserie/eris"
)

// AssetServer owns CPU mesh data and the device buffers realized from it.
type AssetServer struct {
	mu        sync.Mutex
	meshes    map[AssetId]MeshAsset
	gpuMeshes map[AssetId]gpuMeshEntry
}

type AssetServerModule struct{}

type MeshAsset struct {
	version  uint
	vertices []core.Vertex
	indices  []uint16
}

func (m MeshAsset) Version() uint      { return m.version }
func (m MeshAsset) VertexCount() int   { return len(m.vertices) }
func (m MeshAsset) IndexCount() int    { return len(m.indices) }
func (m MeshAsset) Indices() []uint16  { return m.indices }
func (m MeshAsset) Vertices() []Vertex { return m.vertices }

type gpuMeshEntry struct {
	version uint
	mesh    pass.GpuMesh
}

func NewAssetServer() *AssetServer {
	return &AssetServer{
		meshes:    make(map[AssetId]MeshAsset),
		gpuMeshes: make(map[AssetId]gpuMeshEntry),
	}
}

func (server *AssetServer) LoadMesh(vertices []Vertex, indexes []uint16) MeshHandle {
	return server.AddMesh(makeAssetId(), vertices, indexes)
}

// AddMesh stores a mesh under id. Replacing an existing mesh bumps its
// version so the next Realize uploads the new data.
func (server *AssetServer) AddMesh(id AssetId, vertices []Vertex, indexes []uint16) MeshHandle {
	server.mu.Lock()
	defer server.mu.Unlock()

	var version uint
	if prev, ok := server.meshes[id]; ok {
		version = prev.version + 1
	}
	server.meshes[id] = MeshAsset{
		version:  version,
		vertices: vertices,
		indices:  indexes,
	}

	return MeshHandle{Id: id}
}

func (server *AssetServer) Mesh(id AssetId) (MeshAsset, bool) {
	server.mu.Lock()
	defer server.mu.Unlock()
	m, ok := server.meshes[id]
	return m, ok
}

func (server *AssetServer) RemoveMesh(id AssetId) {
	server.mu.Lock()
	defer server.mu.Unlock()
	delete(server.meshes, id)
	if entry, ok := server.gpuMeshes[id]; ok {
		releaseGpuMesh(entry.mesh)
		delete(server.gpuMeshes, id)
	}
}

// Realize returns the device buffers of a mesh, uploading them on first use
// or after the mesh was replaced. ok is false for unknown ids.
func (server *AssetServer) Realize(device gpu.Device, id core.AssetId) (pass.GpuMesh, bool, error) {
	server.mu.Lock()
	defer server.mu.Unlock()

	asset, ok := server.meshes[id]
	if !ok {
		return pass.GpuMesh{}, false, nil
	}
	if entry, ok := server.gpuMeshes[id]; ok {
		if entry.version == asset.version {
			return entry.mesh, true, nil
		}
		releaseGpuMesh(entry.mesh)
		delete(server.gpuMeshes, id)
	}

	vertexData, err := gpu.ToBytes(asset.vertices)
	if err != nil {
		return pass.GpuMesh{}, false, eris.Wrapf(err, "pack vertices of mesh %s", id)
	}
	vb, err := device.CreateBufferInit("mesh:"+string(id)+":vertex", vertexData, gputypes.BufferUsageVertex|gputypes.BufferUsageCopyDst)
	if err != nil {
		return pass.GpuMesh{}, false, err
	}

	ib, err := device.CreateBufferInit("mesh:"+string(id)+":index", indexBytes(asset.indices), gputypes.BufferUsageIndex|gputypes.BufferUsageCopyDst)
	if err != nil {
		vb.Release()
		return pass.GpuMesh{}, false, err
	}

	mesh := pass.GpuMesh{VertexBuffer: vb, IndexBuffer: ib, IndexCount: uint32(len(asset.indices))}
	server.gpuMeshes[id] = gpuMeshEntry{version: asset.version, mesh: mesh}
	return mesh, true, nil
}

// Release frees every realized mesh. CPU data is kept.
func (server *AssetServer) Release() {
	server.mu.Lock()
	defer server.mu.Unlock()
	for id, entry := range server.gpuMeshes {
		releaseGpuMesh(entry.mesh)
		delete(server.gpuMeshes, id)
	}
}

func releaseGpuMesh(m pass.GpuMesh) {
	if m.VertexBuffer != nil {
		m.VertexBuffer.Release()
	}
	if m.IndexBuffer != nil {
		m.IndexBuffer.Release()
	}
}

// indexBytes packs u16 indices, padded to a 4 byte multiple for the device.
func indexBytes(indices []uint16) []byte {
	n := len(indices) * 2
	out := make([]byte, (n+3)&^3)
	for i, idx := range indices {
		out[2*i] = byte(idx)
		out[2*i+1] = byte(idx >> 8)
	}
	return out
}

func (AssetServerModule) Install(app *App, cmd *Commands) {
	app.addResources(NewAssetServer())
}

func makeAssetId() AssetId {
	return AssetId(uuid.NewString())
}

// CubeMesh is a unit cube centered on the origin with per-face normals.
func CubeMesh() ([]Vertex, []uint16) {
	faces := []struct {
		normal, u, v mgl32.Vec3
	}{
		{mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 1, 0}, mgl32.Vec3{0, 0, 1}},
		{mgl32.Vec3{-1, 0, 0}, mgl32.Vec3{0, -1, 0}, mgl32.Vec3{0, 0, 1}},
		{mgl32.Vec3{0, 1, 0}, mgl32.Vec3{-1, 0, 0}, mgl32.Vec3{0, 0, 1}},
		{mgl32.Vec3{0, -1, 0}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, 1}},
		{mgl32.Vec3{0, 0, 1}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 1, 0}},
		{mgl32.Vec3{0, 0, -1}, mgl32.Vec3{-1, 0, 0}, mgl32.Vec3{0, 1, 0}},
	}
	corners := [4][2]float32{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}}

	vertices := make([]Vertex, 0, 24)
	indices := make([]uint16, 0, 36)
	for _, f := range faces {
		base := uint16(len(vertices))
		for _, c := range corners {
			p := f.normal.Add(f.u.Mul(c[0])).Add(f.v.Mul(c[1])).Mul(0.5)
			vertices = append(vertices, Vertex{
				Position: [3]float32(p),
				Normal:   [3]float32(f.normal),
				UV:       [2]float32{(c[0] + 1) / 2, (c[1] + 1) / 2},
			})
		}
		indices = append(indices, base, base+1, base+2, base, base+2, base+3)
	}
	return vertices, indices
}

// PlaneMesh is a size x size quad in the XY plane facing +Z.
func PlaneMesh(size float32) ([]Vertex, []uint16) {
	h := size / 2
	up := [3]float32{0, 0, 1}
	vertices := []Vertex{
		{Position: [3]float32{-h, -h, 0}, Normal: up, UV: [2]float32{0, 0}},
		{Position: [3]float32{h, -h, 0}, Normal: up, UV: [2]float32{1, 0}},
		{Position: [3]float32{h, h, 0}, Normal: up, UV: [2]float32{1, 1}},
		{Position: [3]float32{-h, h, 0}, Normal: up, UV: [2]float32{0, 1}},
	}
	return vertices, []uint16{0, 1, 2, 0, 2, 3}
}
