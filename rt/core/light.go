package core

import (
	"github.com/go-gl/mathgl/mgl32"
)

// MaxLights must match MAX_LIGHTS in forward_instanced.wgsl.
const MaxLights = 8

type LightUniform struct {
	Position mgl32.Vec4 // w = range
	Color    mgl32.Vec4 // rgb * intensity, w unused
}

// LightsUniform matches the WGSL Lights struct (group 0, binding 1).
type LightsUniform struct {
	Count  uint32
	Pad0   uint32
	Pad1   uint32
	Pad2   uint32
	Lights [MaxLights]LightUniform
}

// Add appends a light, returning false once MaxLights is reached.
func (l *LightsUniform) Add(position mgl32.Vec3, lightRange float32, color mgl32.Vec3, intensity float32) bool {
	if l.Count >= MaxLights {
		return false
	}
	l.Lights[l.Count] = LightUniform{
		Position: position.Vec4(lightRange),
		Color:    color.Mul(intensity).Vec4(0),
	}
	l.Count++
	return true
}
