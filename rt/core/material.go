package core

import (
	"github.com/go-gl/mathgl/mgl32"
)

type Material struct {
	Color     mgl32.Vec4 // linear RGBA
	Roughness float32
	Metalness float32
}

func NewMaterial(color mgl32.Vec4) Material {
	return Material{
		Color:     color,
		Roughness: 1.0,
		Metalness: 0.0,
	}
}

// Helper for default white
func DefaultMaterial() Material {
	return NewMaterial(mgl32.Vec4{1, 1, 1, 1})
}

func (m *Material) GetColor() mgl32.Vec4 {
	return m.Color
}
