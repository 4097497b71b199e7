package instanced

import (
	"github.com/go-gl/glfw/v3.3/glfw"
)

const (
	KeyW int = iota
	KeyA
	KeyS
	KeyD
	KeyQ
	KeyE
	KeyR
	KeySpace
	KeyEscape
	KeyTab
	KeyShift
	KeyControl
	MouseButtonLeft
	MouseButtonRight
	MouseButtonMiddle

	inputSlots
)

// InputModule samples keyboard and mouse state from the client window once
// per frame. Requires ClientModule.
type InputModule struct{}

type Input struct {
	Pressed      [inputSlots]bool
	JustPressed  [inputSlots]bool
	JustReleased [inputSlots]bool

	MouseX, MouseY           float64
	MouseDeltaX, MouseDeltaY float64
	MouseCaptured            bool
}

func (mod InputModule) Install(app *App, cmd *Commands) {
	cmd.AddResources(&Input{})
	app.UseSystem(
		System(inputSystem).
			InStage(PreUpdate).
			RunAlways(),
	)
}

// setPressed records the state of one slot, deriving the edge flags.
func (input *Input) setPressed(slot int, down bool) {
	input.JustPressed[slot] = down && !input.Pressed[slot]
	input.JustReleased[slot] = !down && input.Pressed[slot]
	input.Pressed[slot] = down
}

// moveMouse updates the cursor; deltas are only reported while captured.
func (input *Input) moveMouse(x, y float64) {
	if input.MouseCaptured {
		input.MouseDeltaX = x - input.MouseX
		input.MouseDeltaY = y - input.MouseY
	} else {
		input.MouseDeltaX = 0
		input.MouseDeltaY = 0
	}
	input.MouseX = x
	input.MouseY = y
}

func inputSystem(s *clientState, input *Input) {
	win := s.windowGlfw

	for slot, key := range keyToGlfw {
		input.setPressed(slot, win.GetKey(key) == glfw.Press)
	}
	for slot, btn := range buttonToGlfw {
		input.setPressed(slot, win.GetMouseButton(btn) == glfw.Press)
	}

	input.moveMouse(win.GetCursorPos())

	if input.MouseCaptured {
		win.SetInputMode(glfw.CursorMode, glfw.CursorDisabled)
	} else {
		win.SetInputMode(glfw.CursorMode, glfw.CursorNormal)
	}
}

var keyToGlfw = map[int]glfw.Key{
	KeyW:       glfw.KeyW,
	KeyA:       glfw.KeyA,
	KeyS:       glfw.KeyS,
	KeyD:       glfw.KeyD,
	KeyQ:       glfw.KeyQ,
	KeyE:       glfw.KeyE,
	KeyR:       glfw.KeyR,
	KeySpace:   glfw.KeySpace,
	KeyEscape:  glfw.KeyEscape,
	KeyTab:     glfw.KeyTab,
	KeyShift:   glfw.KeyLeftShift,
	KeyControl: glfw.KeyLeftControl,
}

var buttonToGlfw = map[int]glfw.MouseButton{
	MouseButtonLeft:   glfw.MouseButtonLeft,
	MouseButtonRight:  glfw.MouseButtonRight,
	MouseButtonMiddle: glfw.MouseButtonMiddle,
}
