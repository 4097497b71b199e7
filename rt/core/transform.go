package core

import (
	"github.com/go-gl/mathgl/mgl32"
)

type Transform struct {
	Position mgl32.Vec3
	Rotation mgl32.Quat
	Scale    mgl32.Vec3
}

func NewTransform() *Transform {
	return &Transform{
		Position: mgl32.Vec3{0, 0, 0},
		Rotation: mgl32.QuatIdent(),
		Scale:    mgl32.Vec3{1, 1, 1},
	}
}

func (t *Transform) ObjectToWorld() mgl32.Mat4 {
	// M = T * R * S
	translate := mgl32.Translate3D(t.Position.X(), t.Position.Y(), t.Position.Z())
	rotate := t.Rotation.Mat4()
	scale := mgl32.Scale3D(t.Scale.X(), t.Scale.Y(), t.Scale.Z())

	return translate.Mul4(rotate).Mul4(scale)
}

// LocalToWorld is the resolved object-to-world matrix of an entity.
type LocalToWorld struct {
	Matrix mgl32.Mat4
}

func NewLocalToWorld(position mgl32.Vec3, rotation mgl32.Quat, scale mgl32.Vec3) LocalToWorld {
	t := Transform{Position: position, Rotation: rotation, Scale: scale}
	return LocalToWorld{Matrix: t.ObjectToWorld()}
}

func TranslationOnly(x, y, z float32) LocalToWorld {
	return LocalToWorld{Matrix: mgl32.Translate3D(x, y, z)}
}

// Translation returns the world-space translation of an affine matrix.
func (l LocalToWorld) Translation() mgl32.Vec3 {
	return l.Matrix.Col(3).Vec3()
}
