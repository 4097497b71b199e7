package instanced

import (
	"math"

	"github.com/gekko3d/instanced/rt/core"
	"github.com/go-gl/mathgl/mgl32"
)

// FlyingCameraModule steers CameraComponent entities that also carry a
// FlyingCameraComponent: WASD to move, Space/Control for height, Tab to
// capture the mouse for looking around.
type FlyingCameraModule struct{}

func (m FlyingCameraModule) Install(app *App, cmd *Commands) {
	app.UseSystem(
		System(FlyingCameraInputSystem).
			InStage(Update).
			RunAlways(),
	)
	app.UseSystem(
		System(FlyingCameraControlSystem).
			InStage(Update).
			RunAlways(),
	)
}

type FlyingCameraComponent struct {
	Speed       float32 // units per second
	Sensitivity float32 // radians per pixel
	Move        mgl32.Vec3
	Look        mgl32.Vec2
}

const maxPitch = 1.5

func FlyingCameraInputSystem(input *Input, cmd *Commands) {
	if input.JustPressed[KeyTab] {
		input.MouseCaptured = !input.MouseCaptured
	}

	MakeQuery1[FlyingCameraComponent](cmd).Map(func(eid EntityId, fly *FlyingCameraComponent) bool {
		fly.Move = mgl32.Vec3{}
		if input.Pressed[KeyW] {
			fly.Move[1] += 1
		}
		if input.Pressed[KeyS] {
			fly.Move[1] -= 1
		}
		if input.Pressed[KeyA] {
			fly.Move[0] -= 1
		}
		if input.Pressed[KeyD] {
			fly.Move[0] += 1
		}
		if input.Pressed[KeySpace] {
			fly.Move[2] += 1
		}
		if input.Pressed[KeyControl] {
			fly.Move[2] -= 1
		}

		fly.Look = mgl32.Vec2{float32(input.MouseDeltaX), float32(input.MouseDeltaY)}
		return true
	})
}

func FlyingCameraControlSystem(cmd *Commands, time *Time) {
	dt := float32(time.Dt.Seconds())
	if dt <= 0 {
		return
	}

	MakeQuery2[CameraComponent, FlyingCameraComponent](cmd).Map(func(eid EntityId, cam *CameraComponent, fly *FlyingCameraComponent) bool {
		steerCamera(&cam.CameraState, fly, dt)
		return true
	})
}

// steerCamera applies one frame of look and move input. The world is Z-up:
// Move is (right, forward, up) in camera space.
func steerCamera(cam *core.CameraState, fly *FlyingCameraComponent, dt float32) {
	if fly.Sensitivity == 0 {
		fly.Sensitivity = 0.003
	}
	if fly.Speed == 0 {
		fly.Speed = 10
	}

	cam.Yaw += fly.Look[0] * fly.Sensitivity
	cam.Pitch -= fly.Look[1] * fly.Sensitivity
	cam.Pitch = float32(math.Max(-maxPitch, math.Min(maxPitch, float64(cam.Pitch))))

	forward := cam.GetForward()
	up := mgl32.Vec3{0, 0, 1}
	right := forward.Cross(up).Normalize()

	move := right.Mul(fly.Move[0]).Add(forward.Mul(fly.Move[1])).Add(up.Mul(fly.Move[2]))
	if move.Len() > 0 {
		cam.Position = cam.Position.Add(move.Normalize().Mul(fly.Speed * dt))
	}
}
