package instanced

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Parent attaches an entity to another one. A child's Transform is derived
// from its LocalTransform and the parent's Transform every frame.
type Parent struct {
	Entity EntityId
}

type LocalTransform struct {
	Position mgl32.Vec3
	Rotation mgl32.Quat
	Scale    mgl32.Vec3
}

const maxHierarchyDepth = 8

func hierarchySystem(cmd *Commands) {
	ecs := cmd.app.ecs

	// one pass per level, stop once nothing moves
	for pass := 0; pass < maxHierarchyDepth; pass++ {
		changed := false
		MakeQuery3[LocalTransform, Parent, Transform](cmd).Map(func(eid EntityId, local *LocalTransform, parent *Parent, world *Transform) bool {
			parentWorld, ok := getComponent[Transform](ecs, parent.Entity)
			if !ok {
				return true
			}

			// Propagate components directly to preserve scale signs (reflections)
			// WorldPos = ParentPos + ParentRot * (ParentScale * LocalPos)
			scaledLocalPos := mgl32.Vec3{
				local.Position.X() * parentWorld.Scale.X(),
				local.Position.Y() * parentWorld.Scale.Y(),
				local.Position.Z() * parentWorld.Scale.Z(),
			}
			newPos := parentWorld.Position.Add(parentWorld.Rotation.Rotate(scaledLocalPos))
			newRot := parentWorld.Rotation.Mul(local.Rotation).Normalize()
			newScale := mgl32.Vec3{
				parentWorld.Scale.X() * local.Scale.X(),
				parentWorld.Scale.Y() * local.Scale.Y(),
				parentWorld.Scale.Z() * local.Scale.Z(),
			}

			if newPos != world.Position || newRot != world.Rotation || newScale != world.Scale {
				world.Position = newPos
				world.Rotation = newRot
				world.Scale = newScale
				changed = true
			}
			return true
		})
		if !changed {
			return
		}
	}
}
