package instanced

import (
	"github.com/go-gl/mathgl/mgl32"
)

// LightComponent is a point light placed at the entity's LocalToWorld
// translation. At most core.MaxLights are uploaded per frame.
type LightComponent struct {
	Color     mgl32.Vec3 // RGB
	Intensity float32
	Range     float32
}

func PointLight(color mgl32.Vec3, intensity, lightRange float32) LightComponent {
	return LightComponent{Color: color, Intensity: intensity, Range: lightRange}
}
