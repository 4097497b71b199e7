package instanced

import (
	"github.com/gekko3d/instanced/rt/core"
	"github.com/gekko3d/instanced/rt/pass"
)

// ecsWorld presents the ECS to the instanced pass: every entity holding a
// mesh handle, a resolved transform, a material and the Instanced tag.
type ecsWorld struct {
	cmd    *Commands
	assets *AssetServer
}

func newEcsWorld(cmd *Commands, assets *AssetServer) pass.World {
	return ecsWorld{cmd: cmd, assets: assets}
}

func (w ecsWorld) EachInstanced(fn func(core.MeshHandle, core.LocalToWorld, core.Material)) {
	MakeQuery4[MeshHandle, LocalToWorld, Material, Instanced](w.cmd).Map(
		func(_ EntityId, mesh *MeshHandle, l2w *LocalToWorld, mat *Material, _ *Instanced) bool {
			fn(*mesh, *l2w, *mat)
			return true
		},
	)
}

func (w ecsWorld) Meshes() pass.MeshStore {
	return w.assets
}
