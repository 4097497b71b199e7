package instanced

import (
	"github.com/gekko3d/instanced/rt/core"
	"github.com/gekko3d/instanced/rt/gpu"
	"github.com/gekko3d/instanced/rt/pass"
	"github.com/gogpu/gputypes"
	"github.com/rotisserie/eris"
)

// UniformsModule owns the camera and light uniform buffers shared by the
// render passes. They are registered under pass.ForwardUniformBufferName
// and pass.LightUniformBufferName and rewritten every frame.
type UniformsModule struct{}

type frameUniforms struct {
	camera gpu.Buffer
	lights gpu.Buffer

	Camera core.CameraUniform
	Lights core.LightsUniform
}

const uniformUsage = gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst

func (UniformsModule) Install(app *App, cmd *Commands) {
	cmd.AddResources(&frameUniforms{})
	app.UseSystem(System(uniformsSystem).InStage(PreRender))
}

func uniformsSystem(rc *RenderContext, frame *Frame, u *frameUniforms, cmd *Commands) {
	u.Camera = collectCamera(cmd, frame.Aspect())
	u.Lights = collectLights(cmd)

	if err := u.upload(rc); err != nil {
		cmd.Logger().Errorf("uniform upload failed: %v", err)
		panic(err)
	}
}

func collectCamera(cmd *Commands, aspect float32) core.CameraUniform {
	var cam *CameraComponent
	MakeQuery1[CameraComponent](cmd).Map(func(_ EntityId, c *CameraComponent) bool {
		cam = c
		return false
	})
	if cam == nil {
		return core.NewCameraState().Uniform(aspect)
	}
	return cam.Uniform(aspect)
}

func collectLights(cmd *Commands) core.LightsUniform {
	var lights core.LightsUniform
	dropped := 0
	MakeQuery2[LightComponent, LocalToWorld](cmd).Map(func(_ EntityId, l *LightComponent, l2w *LocalToWorld) bool {
		if !lights.Add(l2w.Translation(), l.Range, l.Color, l.Intensity) {
			dropped++
		}
		return true
	})
	if dropped > 0 {
		cmd.Logger().Debugf("%d lights over the limit of %d were ignored", dropped, core.MaxLights)
	}
	return lights
}

// upload creates the buffers on first use and writes them afterwards.
func (u *frameUniforms) upload(rc *RenderContext) error {
	cameraBytes, err := gpu.ToBytes(u.Camera)
	if err != nil {
		return eris.Wrap(err, "pack camera uniform")
	}
	lightBytes, err := gpu.ToBytes(u.Lights)
	if err != nil {
		return eris.Wrap(err, "pack lights uniform")
	}

	if u.camera == nil {
		if u.camera, err = rc.Device.CreateBufferInit(pass.ForwardUniformBufferName, cameraBytes, uniformUsage); err != nil {
			return err
		}
		if u.lights, err = rc.Device.CreateBufferInit(pass.LightUniformBufferName, lightBytes, uniformUsage); err != nil {
			return err
		}
		rc.Registry.Register(pass.ForwardUniformBufferName, u.camera)
		rc.Registry.Register(pass.LightUniformBufferName, u.lights)
		return nil
	}

	if err := rc.Device.WriteBuffer(u.camera, 0, cameraBytes); err != nil {
		return err
	}
	return rc.Device.WriteBuffer(u.lights, 0, lightBytes)
}
