package instanced

import (
	"github.com/gekko3d/instanced/rt/core"
	"github.com/go-gl/mathgl/mgl32"
)

type (
	AssetId      = core.AssetId
	MeshHandle   = core.MeshHandle
	Transform    = core.Transform
	LocalToWorld = core.LocalToWorld
	Material     = core.Material
	Instanced    = core.Instanced
	Vertex       = core.Vertex
)

// CameraComponent marks the entity the frame is rendered from. The first
// one found wins.
type CameraComponent struct {
	core.CameraState
}

func NewCameraComponent() CameraComponent {
	return CameraComponent{CameraState: *core.NewCameraState()}
}

// InstancedBundle is the component set the instanced pass draws.
func InstancedBundle(mesh MeshHandle, position mgl32.Vec3, color mgl32.Vec4) []any {
	t := core.NewTransform()
	t.Position = position
	return []any{
		mesh,
		*t,
		core.LocalToWorld{Matrix: t.ObjectToWorld()},
		core.NewMaterial(color),
		core.Instanced{},
	}
}

// transformSystem resolves LocalToWorld from Transform every frame, after
// the hierarchy has placed children.
func transformSystem(cmd *Commands) {
	MakeQuery2[Transform, LocalToWorld](cmd).Map(func(_ EntityId, t *Transform, l *LocalToWorld) bool {
		l.Matrix = t.ObjectToWorld()
		return true
	})
}

type TransformModule struct{}

func (TransformModule) Install(app *App, cmd *Commands) {
	app.UseSystem(System(hierarchySystem).InStage(PostUpdate))
	app.UseSystem(System(transformSystem).InStage(PostUpdate))
}
