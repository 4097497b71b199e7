package instanced

import (
	"github.com/gekko3d/instanced/rt/gpu"
	"github.com/gekko3d/instanced/rt/pass"
	"github.com/gogpu/gputypes"
)

// BeginFrame runs before PreRender. Frame providers open the render pass
// there so uniform and draw systems find it ready.
var BeginFrame = Stage{Name: "BeginFrame"}

// RenderContext is the device side shared by every render module.
type RenderContext struct {
	Device      gpu.Device
	ColorFormat gputypes.TextureFormat
	DepthFormat gputypes.TextureFormat
	Samples     uint32
	Registry    *gpu.Registry
}

func (rc *RenderContext) graphContext() *pass.GraphContext {
	return &pass.GraphContext{
		Device:      rc.Device,
		Resources:   rc.Registry,
		ColorFormat: rc.ColorFormat,
	}
}

// Frame is the pass being recorded this frame. Pass is nil when no target
// could be acquired; render systems skip such frames.
type Frame struct {
	Pass    gpu.RenderPass
	Output  gpu.FrameOutput
	Resized bool
}

func (f *Frame) Aspect() float32 {
	if f.Output.Height == 0 {
		return 1
	}
	return float32(f.Output.Width) / float32(f.Output.Height)
}

func useFrameStage(app *App) {
	for _, s := range app.stages {
		if s.Name == BeginFrame.Name {
			return
		}
	}
	app.UseStage(BeginFrame, BeforeStage(PreRender))
}

// HeadlessModule renders into a caller supplied device and pass, with no
// window. Each frame records into the same pass.
type HeadlessModule struct {
	Device      gpu.Device
	Pass        gpu.RenderPass
	ColorFormat gputypes.TextureFormat
	DepthFormat gputypes.TextureFormat
	Samples     uint32
	Width       uint32
	Height      uint32
}

func (mod HeadlessModule) Install(app *App, cmd *Commands) {
	samples := mod.Samples
	if samples == 0 {
		samples = 1
	}
	depth := mod.DepthFormat
	if depth == gputypes.TextureFormatUndefined {
		depth = gputypes.TextureFormatDepth32Float
	}
	cmd.AddResources(
		&RenderContext{
			Device:      mod.Device,
			ColorFormat: mod.ColorFormat,
			DepthFormat: depth,
			Samples:     samples,
			Registry:    gpu.NewRegistry(),
		},
		&Frame{Output: gpu.FrameOutput{Width: mod.Width, Height: mod.Height}},
	)

	useFrameStage(app)
	app.UseSystem(System(func(frame *Frame) {
		frame.Resized = false
		frame.Pass = mod.Pass
		frame.Output.Index++
	}).InStage(BeginFrame))
}
