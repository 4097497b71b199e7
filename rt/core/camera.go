package core

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// clip-space depth remap from [-1,1] (mgl32) to [0,1] (WebGPU)
var openGLToWebGPU = mgl32.Mat4{
	1, 0, 0, 0,
	0, 1, 0, 0,
	0, 0, 0.5, 0,
	0, 0, 0.5, 1,
}

type CameraState struct {
	Position mgl32.Vec3
	Yaw      float32
	Pitch    float32
	FovY     float32 // degrees
	Near     float32
	Far      float32
}

func NewCameraState() *CameraState {
	return &CameraState{
		Position: mgl32.Vec3{0, -20, 8},
		Yaw:      0,
		Pitch:    -0.35,
		FovY:     60,
		Near:     0.1,
		Far:      500,
	}
}

func (c *CameraState) GetForward() mgl32.Vec3 {
	// Z-up: Forward in XY plane, Z for pitch
	return mgl32.Vec3{
		float32(math.Cos(float64(c.Pitch)) * math.Sin(float64(c.Yaw))),
		float32(math.Cos(float64(c.Pitch)) * math.Cos(float64(c.Yaw))),
		float32(math.Sin(float64(c.Pitch))),
	}
}

func (c *CameraState) GetViewMatrix() mgl32.Mat4 {
	eye := c.Position
	target := eye.Add(c.GetForward())
	up := mgl32.Vec3{0, 0, 1} // Z-up
	return mgl32.LookAtV(eye, target, up)
}

func (c *CameraState) GetProjectionMatrix(aspect float32) mgl32.Mat4 {
	if aspect <= 0 {
		aspect = 1
	}
	return openGLToWebGPU.Mul4(mgl32.Perspective(mgl32.DegToRad(c.FovY), aspect, c.Near, c.Far))
}

// CameraUniform matches the WGSL Globals struct (group 0, binding 0).
type CameraUniform struct {
	ViewProj mgl32.Mat4
	Position mgl32.Vec4
}

func (c *CameraState) Uniform(aspect float32) CameraUniform {
	return CameraUniform{
		ViewProj: c.GetProjectionMatrix(aspect).Mul4(c.GetViewMatrix()),
		Position: c.Position.Vec4(1),
	}
}
