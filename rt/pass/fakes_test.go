package pass

import (
	"strings"

	"github.com/gekko3d/instanced/rt/core"
	"github.com/gekko3d/instanced/rt/gpu"
	"github.com/gekko3d/instanced/rt/gpu/gputest"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/gputypes"
)

type testEntity struct {
	mesh      core.AssetId
	transform core.LocalToWorld
	material  core.Material
	instanced bool
}

type testWorld struct {
	entities []testEntity
	meshes   *testMeshes
}

func (w *testWorld) EachInstanced(fn func(core.MeshHandle, core.LocalToWorld, core.Material)) {
	for _, e := range w.entities {
		if e.instanced {
			fn(core.MeshHandle{Id: e.mesh}, e.transform, e.material)
		}
	}
}

func (w *testWorld) Meshes() MeshStore { return w.meshes }

func (w *testWorld) spawn(mesh core.AssetId, x, y, z float32, color mgl32.Vec4) {
	w.entities = append(w.entities, testEntity{
		mesh:      mesh,
		transform: core.TranslationOnly(x, y, z),
		material:  core.NewMaterial(color),
		instanced: true,
	})
}

type testMesh struct {
	vertices int
	indices  int
}

// testMeshes uploads a mesh the first time it is realized.
type testMeshes struct {
	known    map[core.AssetId]testMesh
	realized map[core.AssetId]GpuMesh
	uploads  int
}

func newTestMeshes() *testMeshes {
	return &testMeshes{
		known:    make(map[core.AssetId]testMesh),
		realized: make(map[core.AssetId]GpuMesh),
	}
}

func (m *testMeshes) add(id core.AssetId, vertices, indices int) {
	m.known[id] = testMesh{vertices: vertices, indices: indices}
}

func (m *testMeshes) Realize(device gpu.Device, id core.AssetId) (GpuMesh, bool, error) {
	if g, ok := m.realized[id]; ok {
		return g, true, nil
	}
	mesh, ok := m.known[id]
	if !ok {
		return GpuMesh{}, false, nil
	}
	vb, err := device.CreateBufferInit("mesh:"+string(id)+":vertex", make([]byte, mesh.vertices*32), gputypes.BufferUsageVertex)
	if err != nil {
		return GpuMesh{}, false, err
	}
	ib, err := device.CreateBufferInit("mesh:"+string(id)+":index", make([]byte, mesh.indices*2), gputypes.BufferUsageIndex)
	if err != nil {
		return GpuMesh{}, false, err
	}
	g := GpuMesh{VertexBuffer: vb, IndexBuffer: ib, IndexCount: uint32(mesh.indices)}
	m.realized[id] = g
	m.uploads++
	return g, true, nil
}

type fixture struct {
	device   *gputest.Device
	registry *gpu.Registry
	ctx      *GraphContext
	world    *testWorld
	pass     *gputest.Pass
}

func newFixture() *fixture {
	dev := gputest.NewDevice()
	reg := gpu.NewRegistry()
	forward, _ := dev.CreateBufferInit(ForwardUniformBufferName, make([]byte, 80), gputypes.BufferUsageUniform)
	lights, _ := dev.CreateBufferInit(LightUniformBufferName, make([]byte, 272), gputypes.BufferUsageUniform)
	reg.Register(ForwardUniformBufferName, forward)
	reg.Register(LightUniformBufferName, lights)

	meshes := newTestMeshes()
	meshes.add("7", 24, 36)
	meshes.add("9", 4, 6)

	return &fixture{
		device:   dev,
		registry: reg,
		ctx: &GraphContext{
			Device:      dev,
			Resources:   reg,
			ColorFormat: gputypes.TextureFormatBGRA8Unorm,
		},
		world: &testWorld{meshes: meshes},
		pass:  &gputest.Pass{},
	}
}

func (f *fixture) instanceBuffers() []*gputest.Buffer {
	var out []*gputest.Buffer
	for _, b := range f.device.Buffers {
		if strings.HasPrefix(b.Name, "instance_buffer:") {
			out = append(out, b)
		}
	}
	return out
}
