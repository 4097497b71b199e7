package instanced

import (
	"testing"

	"github.com/gekko3d/instanced/rt/gpu/gputest"
	"github.com/gekko3d/instanced/rt/pass"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/gputypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type headless struct {
	app    *App
	cmd    *Commands
	device *gputest.Device
	pass   *gputest.Pass
	assets *AssetServer
}

func newHeadless(t *testing.T, extra ...Module) *headless {
	t.Helper()
	h := &headless{device: gputest.NewDevice(), pass: &gputest.Pass{}}
	modules := append([]Module{
		HeadlessModule{
			Device:      h.device,
			Pass:        h.pass,
			ColorFormat: gputypes.TextureFormatBGRA8Unorm,
			Width:       800,
			Height:      600,
		},
		TransformModule{},
		AssetServerModule{},
		UniformsModule{},
		ForwardInstancedModule{},
	}, extra...)
	h.app, h.cmd = newTestApp(modules...)

	var ok bool
	h.assets, ok = Resource[AssetServer](h.app)
	require.True(t, ok)
	return h
}

func (h *headless) step() {
	h.pass.Reset()
	h.app.Step()
}

func (h *headless) pipeline(t *testing.T) *pass.ForwardInstancedPipeline {
	t.Helper()
	fi, ok := Resource[ForwardInstanced](h.app)
	require.True(t, ok)
	require.NotNil(t, fi.Pipeline)
	return fi.Pipeline
}

func TestForwardInstanced_DrawsOnePerMesh(t *testing.T) {
	h := newHeadless(t)
	cv, ci := CubeMesh()
	pv, pi := PlaneMesh(2)
	cube := h.assets.AddMesh("cube", cv, ci)
	plane := h.assets.AddMesh("plane", pv, pi)

	red := mgl32.Vec4{1, 0, 0, 1}
	blue := mgl32.Vec4{0, 0, 1, 1}
	h.cmd.AddEntity(InstancedBundle(cube, mgl32.Vec3{1, 0, 0}, red)...)
	h.cmd.AddEntity(InstancedBundle(cube, mgl32.Vec3{2, 0, 0}, red)...)
	h.cmd.AddEntity(InstancedBundle(plane, mgl32.Vec3{0, 1, 0}, blue)...)
	h.cmd.AddEntity(InstancedBundle(cube, mgl32.Vec3{3, 0, 0}, red)...)
	h.cmd.AddEntity(InstancedBundle(plane, mgl32.Vec3{0, 2, 0}, blue)...)

	h.step()

	fi, _ := Resource[ForwardInstanced](h.app)
	assert.True(t, fi.Ready())

	draws := h.pass.Draws()
	require.Len(t, draws, 2)
	assert.Equal(t, uint32(36), draws[0].IndexCount)
	assert.Equal(t, uint32(3), draws[0].InstanceCount)
	assert.Equal(t, uint32(6), draws[1].IndexCount)
	assert.Equal(t, uint32(2), draws[1].InstanceCount)

	trace := h.pass.Trace()
	assert.Equal(t, []string{
		"SetPipeline",
		"SetBindGroup(0)",
		"SetIndexBuffer(mesh:cube:index)",
		"SetVertexBuffer(0, mesh:cube:vertex)",
		"SetVertexBuffer(1, instance_buffer:cube)",
		"DrawIndexed(36, 3)",
		"SetIndexBuffer(mesh:plane:index)",
		"SetVertexBuffer(0, mesh:plane:vertex)",
		"SetVertexBuffer(1, instance_buffer:plane)",
		"DrawIndexed(6, 2)",
	}, trace)

	live := h.device.LiveBuffers("instance_buffer:cube")
	require.Len(t, live, 1)
	require.Len(t, live[0].Data, 3*pass.InstanceRecordSize)
	rec := pass.ReadInstanceRecord(live[0].Data[2*pass.InstanceRecordSize:])
	assert.Equal(t, [3]float32{3, 0, 0}, rec.Position)
	assert.Equal(t, [4]float32{1, 0, 0, 1}, rec.Color)

	stats := h.pipeline(t).Stats()
	assert.Equal(t, pass.Stats{Batches: 2, Instances: 5, DrawCalls: 2, BufferBytes: uint64(5 * pass.InstanceRecordSize)}, stats)
}

func TestForwardInstanced_FollowsWorldChanges(t *testing.T) {
	h := newHeadless(t)
	cv, ci := CubeMesh()
	cube := h.assets.AddMesh("cube", cv, ci)

	a := h.cmd.AddEntity(InstancedBundle(cube, mgl32.Vec3{1, 0, 0}, mgl32.Vec4{1, 1, 1, 1})...)
	b := h.cmd.AddEntity(InstancedBundle(cube, mgl32.Vec3{2, 0, 0}, mgl32.Vec4{1, 1, 1, 1})...)
	h.step()
	require.Len(t, h.pass.Draws(), 1)
	assert.Equal(t, uint32(2), h.pass.Draws()[0].InstanceCount)

	// dropping the tag removes the entity from the draw
	h.cmd.RemoveComponents(a, Instanced{})
	h.app.FlushCommands()
	h.step()
	require.Len(t, h.pass.Draws(), 1)
	assert.Equal(t, uint32(1), h.pass.Draws()[0].InstanceCount)

	// moving the transform moves the instance
	tr, ok := getComponent[Transform](h.app.ecs, b)
	require.True(t, ok)
	tr.Position = mgl32.Vec3{5, 6, 7}
	h.step()
	live := h.device.LiveBuffers("instance_buffer:cube")
	require.Len(t, live, 1)
	assert.Equal(t, [3]float32{5, 6, 7}, pass.ReadInstanceRecord(live[0].Data).Position)

	// no entities left: pipeline and bind group are set, nothing is drawn
	h.cmd.RemoveEntity(b)
	h.app.FlushCommands()
	h.step()
	assert.Empty(t, h.pass.Draws())
	assert.Equal(t, []string{"SetPipeline", "SetBindGroup(0)"}, h.pass.Trace())
	assert.Empty(t, h.device.LiveBuffers("instance_buffer:cube"))
}

func TestForwardInstanced_SkipsMissingMesh(t *testing.T) {
	h := newHeadless(t)
	cv, ci := CubeMesh()
	cube := h.assets.AddMesh("cube", cv, ci)
	h.cmd.AddEntity(InstancedBundle(cube, mgl32.Vec3{}, mgl32.Vec4{1, 1, 1, 1})...)
	h.cmd.AddEntity(InstancedBundle(MeshHandle{Id: "ghost"}, mgl32.Vec3{}, mgl32.Vec4{1, 1, 1, 1})...)

	h.step()

	draws := h.pass.Draws()
	require.Len(t, draws, 1)
	assert.Equal(t, uint32(36), draws[0].IndexCount)
	assert.Equal(t, 2, h.pipeline(t).Stats().Batches)
}

func TestForwardInstanced_BindsSharedUniforms(t *testing.T) {
	h := newHeadless(t)
	h.cmd.AddEntity(NewCameraComponent())
	h.cmd.AddEntity(PointLight(mgl32.Vec3{1, 1, 1}, 2, 10), lightAt(1, 2, 3))
	h.step()
	h.step()

	rc, _ := Resource[RenderContext](h.app)
	camera, ok := rc.Registry.UniformBuffer(pass.ForwardUniformBufferName)
	require.True(t, ok)
	lights, ok := rc.Registry.UniformBuffer(pass.LightUniformBufferName)
	require.True(t, ok)

	require.Len(t, h.device.BindGroups, 1)
	entries := h.device.BindGroups[0].Desc.Entries
	require.Len(t, entries, 2)
	assert.Same(t, camera, entries[0].Buffer)
	assert.Same(t, lights, entries[1].Buffer)

	// first frame creates the buffers, later frames rewrite them
	require.Len(t, h.device.Writes, 2)
	assert.Equal(t, pass.ForwardUniformBufferName, h.device.Writes[0].Buffer)
	assert.Equal(t, uint32(1), readU32(h.device.Writes[1].Data))
}

func TestForwardInstanced_SkipsFrameWithoutPass(t *testing.T) {
	device := gputest.NewDevice()
	app, _ := newTestApp(
		HeadlessModule{Device: device, ColorFormat: gputypes.TextureFormatBGRA8Unorm},
		AssetServerModule{},
		UniformsModule{},
		ForwardInstancedModule{},
	)
	app.Step()

	fi, _ := Resource[ForwardInstanced](app)
	assert.False(t, fi.Ready())
	assert.Empty(t, device.Pipelines)
}

func TestForwardInstanced_ReleasesOnQuit(t *testing.T) {
	h := newHeadless(t)
	cv, ci := CubeMesh()
	cube := h.assets.AddMesh("cube", cv, ci)
	h.cmd.AddEntity(InstancedBundle(cube, mgl32.Vec3{}, mgl32.Vec4{1, 1, 1, 1})...)
	h.step()
	require.Len(t, h.device.LiveBuffers("instance_buffer:cube"), 1)

	h.app.UseSystem(System(func(c *Commands) { c.Quit() }).InStage(PostRender))
	h.step()

	fi, _ := Resource[ForwardInstanced](h.app)
	assert.False(t, fi.Ready())
	assert.Nil(t, fi.Pipeline.RenderPipeline())
	assert.Empty(t, h.device.LiveBuffers("instance_buffer:cube"))
}

func TestForwardInstanced_PipelineFailurePanics(t *testing.T) {
	h := newHeadless(t)
	h.device.FailPipeline = true
	assert.Panics(t, func() { h.step() })
}

func TestEnsureSingleRenderer(t *testing.T) {
	app, _ := newTestApp()
	ensureSingleRenderer(app, "forward_instanced")
	assert.NotPanics(t, func() { ensureSingleRenderer(app, "forward_instanced") })
	assert.Panics(t, func() { ensureSingleRenderer(app, "other") })

	assert.Panics(t, func() {
		newTestApp(ForwardInstancedModule{}, otherRendererModule{})
	})
}

type otherRendererModule struct{}

func (otherRendererModule) Install(app *App, cmd *Commands) {
	ensureSingleRenderer(app, "other")
}

func lightAt(x, y, z float32) LocalToWorld {
	return LocalToWorld{Matrix: mgl32.Translate3D(x, y, z)}
}

func readU32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}
