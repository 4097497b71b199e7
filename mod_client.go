package instanced

import (
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/gekko3d/instanced/rt/gpu"
	"github.com/gekko3d/instanced/rt/gpu/wgpudev"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/rotisserie/eris"
)

// ClientModule opens a window, creates the wgpu device and surface, and
// records every frame into one render pass over the swapchain image.
// Install it after the render modules so the device is torn down last.
type ClientModule struct {
	Config RenderConfig
}

type clientState struct {
	// glfw
	windowGlfw    *glfw.Window
	width         int
	height        int
	pendingWidth  int
	pendingHeight int
	resizePending bool

	// wgpu
	instance      *wgpu.Instance
	surface       *wgpu.Surface
	adapter       *wgpu.Adapter
	device        *wgpu.Device
	queue         *wgpu.Queue
	surfaceConfig wgpu.SurfaceConfiguration
	depthFormat   wgpu.TextureFormat
	samples       uint32
	clear         wgpu.Color

	depthTexture *wgpu.Texture
	depthView    *wgpu.TextureView
	msaaTexture  *wgpu.Texture
	msaaView     *wgpu.TextureView

	// per frame
	surfaceTexture *wgpu.Texture
	surfaceView    *wgpu.TextureView
	encoder        *wgpu.CommandEncoder
	pass           *wgpu.RenderPassEncoder
}

func (mod ClientModule) Install(app *App, cmd *Commands) {
	cfg := mod.Config
	if cfg == (RenderConfig{}) {
		cfg = DefaultRenderConfig()
	}
	if err := cfg.Validate(); err != nil {
		panic(err)
	}
	depthFormat, _ := cfg.DepthTextureFormat()
	wgpuDepth, err := wgpudev.TextureFormat(depthFormat)
	if err != nil {
		panic(err)
	}

	// https://github.com/go-gl/glfw
	if err := glfw.Init(); err != nil {
		panic(err)
	}

	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI) // no OpenGL context, wgpu owns the surface
	glfw.WindowHint(glfw.Resizable, glfw.True)

	win, err := glfw.CreateWindow(cfg.WindowWidth, cfg.WindowHeight, cfg.WindowTitle, nil, nil)
	if err != nil {
		panic(err)
	}

	// https://github.com/cogentcore/webgpu
	instance := wgpu.CreateInstance(nil)
	surface := instance.CreateSurface(wgpuglfw.GetSurfaceDescriptor(win))

	adapter, err := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		CompatibleSurface: surface,
		PowerPreference:   wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		panic(err)
	}

	device, err := adapter.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Main Device",
	})
	if err != nil {
		panic(err)
	}

	caps := surface.GetCapabilities(adapter)
	colorFormat, err := wgpudev.FromTextureFormat(caps.Formats[0])
	if err != nil {
		panic(eris.Wrap(err, "surface format"))
	}

	width, height := win.GetFramebufferSize()
	state := &clientState{
		windowGlfw:  win,
		width:       width,
		height:      height,
		instance:    instance,
		surface:     surface,
		adapter:     adapter,
		device:      device,
		queue:       device.GetQueue(),
		depthFormat: wgpuDepth,
		samples:     cfg.MsaaSamples,
		clear:       wgpu.Color{R: cfg.ClearR, G: cfg.ClearG, B: cfg.ClearB, A: 1},
		surfaceConfig: wgpu.SurfaceConfiguration{
			Usage:       wgpu.TextureUsageRenderAttachment,
			Format:      caps.Formats[0],
			Width:       uint32(width),
			Height:      uint32(height),
			PresentMode: wgpu.PresentModeFifo, // vsync
			AlphaMode:   caps.AlphaModes[0],
		},
	}
	if err := state.configure(); err != nil {
		panic(err)
	}

	win.SetFramebufferSizeCallback(func(_ *glfw.Window, w, h int) {
		state.pendingWidth, state.pendingHeight = w, h
		state.resizePending = true
	})

	cmd.AddResources(
		state,
		&RenderContext{
			Device:      wgpudev.New(device, state.queue),
			ColorFormat: colorFormat,
			DepthFormat: depthFormat,
			Samples:     cfg.MsaaSamples,
			Registry:    gpu.NewRegistry(),
		},
		&Frame{Output: gpu.FrameOutput{Width: uint32(width), Height: uint32(height)}},
	)

	useFrameStage(app)
	app.UseSystem(System(windowEventsSystem).InStage(PreUpdate).RunAlways())
	app.UseSystem(System(beginFrameSystem).InStage(BeginFrame).RunAlways())
	app.UseSystem(System(endFrameSystem).InStage(PostRender).RunAlways())
	app.UseSystem(System(clientShutdownSystem).InStage(Finale).RunAlways())

	app.Logger().Infof("client ready: %dx%d, color %s, depth %s, %dx msaa",
		width, height, colorFormat, depthFormat, cfg.MsaaSamples)
}

// configure applies the surface configuration and rebuilds the size
// dependent targets.
func (s *clientState) configure() error {
	s.surface.Configure(s.adapter, s.device, &s.surfaceConfig)
	s.releaseTargets()

	size := wgpu.Extent3D{
		Width:              s.surfaceConfig.Width,
		Height:             s.surfaceConfig.Height,
		DepthOrArrayLayers: 1,
	}

	depth, err := s.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         "Depth Texture",
		Size:          size,
		MipLevelCount: 1,
		SampleCount:   s.samples,
		Dimension:     wgpu.TextureDimension2D,
		Format:        s.depthFormat,
		Usage:         wgpu.TextureUsageRenderAttachment,
	})
	if err != nil {
		return eris.Wrap(err, "create depth texture")
	}
	s.depthTexture = depth
	if s.depthView, err = depth.CreateView(nil); err != nil {
		return eris.Wrap(err, "create depth view")
	}

	if s.samples > 1 {
		msaa, err := s.device.CreateTexture(&wgpu.TextureDescriptor{
			Label:         "MSAA Texture",
			Size:          size,
			MipLevelCount: 1,
			SampleCount:   s.samples,
			Dimension:     wgpu.TextureDimension2D,
			Format:        s.surfaceConfig.Format,
			Usage:         wgpu.TextureUsageRenderAttachment,
		})
		if err != nil {
			return eris.Wrap(err, "create msaa texture")
		}
		s.msaaTexture = msaa
		if s.msaaView, err = msaa.CreateView(nil); err != nil {
			return eris.Wrap(err, "create msaa view")
		}
	}
	return nil
}

func (s *clientState) releaseTargets() {
	if s.depthView != nil {
		s.depthView.Release()
		s.depthView = nil
	}
	if s.depthTexture != nil {
		s.depthTexture.Release()
		s.depthTexture = nil
	}
	if s.msaaView != nil {
		s.msaaView.Release()
		s.msaaView = nil
	}
	if s.msaaTexture != nil {
		s.msaaTexture.Release()
		s.msaaTexture = nil
	}
}

func windowEventsSystem(state *clientState, cmd *Commands) {
	glfw.PollEvents()
	if state.windowGlfw.ShouldClose() {
		cmd.Quit()
	}
}

func beginFrameSystem(state *clientState, frame *Frame, cmd *Commands) {
	frame.Pass = nil
	frame.Resized = false

	if state.resizePending {
		state.resizePending = false
		if state.pendingWidth > 0 && state.pendingHeight > 0 {
			state.width, state.height = state.pendingWidth, state.pendingHeight
			state.surfaceConfig.Width = uint32(state.width)
			state.surfaceConfig.Height = uint32(state.height)
			if err := state.configure(); err != nil {
				panic(err)
			}
			frame.Output.Width, frame.Output.Height = uint32(state.width), uint32(state.height)
			frame.Resized = true
			cmd.Logger().Debugf("surface resized to %dx%d", state.width, state.height)
		}
	}
	if state.width == 0 || state.height == 0 {
		// minimized
		return
	}

	surfaceTexture, err := state.surface.GetCurrentTexture()
	if err != nil {
		cmd.Logger().Warnf("skipping frame, surface texture unavailable: %v", err)
		return
	}
	view, err := surfaceTexture.CreateView(nil)
	if err != nil {
		surfaceTexture.Release()
		cmd.Logger().Warnf("skipping frame, surface view unavailable: %v", err)
		return
	}
	encoder, err := state.device.CreateCommandEncoder(nil)
	if err != nil {
		view.Release()
		surfaceTexture.Release()
		panic(err)
	}

	color := wgpu.RenderPassColorAttachment{
		View:       view,
		LoadOp:     wgpu.LoadOpClear,
		StoreOp:    wgpu.StoreOpStore,
		ClearValue: state.clear,
	}
	if state.msaaView != nil {
		color.View = state.msaaView
		color.ResolveTarget = view
		color.StoreOp = wgpu.StoreOpDiscard
	}

	state.pass = encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{color},
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:            state.depthView,
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpDiscard,
			DepthClearValue: 1.0,
		},
	})
	state.encoder = encoder
	state.surfaceTexture = surfaceTexture
	state.surfaceView = view

	frame.Pass = wgpudev.NewPass(state.pass)
	frame.Output.Index++
}

func endFrameSystem(state *clientState, frame *Frame, cmd *Commands) {
	if state.pass == nil {
		return
	}
	defer state.releaseFrame()
	frame.Pass = nil

	state.pass.End()
	commandBuffer, err := state.encoder.Finish(nil)
	if err != nil {
		cmd.Logger().Errorf("command encoder finish failed: %v", err)
		return
	}
	state.queue.Submit(commandBuffer)
	commandBuffer.Release()
	state.surface.Present()
}

func (s *clientState) releaseFrame() {
	if s.pass != nil {
		s.pass.Release()
		s.pass = nil
	}
	if s.encoder != nil {
		s.encoder.Release()
		s.encoder = nil
	}
	if s.surfaceView != nil {
		s.surfaceView.Release()
		s.surfaceView = nil
	}
	if s.surfaceTexture != nil {
		s.surfaceTexture.Release()
		s.surfaceTexture = nil
	}
}

func clientShutdownSystem(state *clientState, rc *RenderContext, assets *AssetServer, cmd *Commands) {
	if !cmd.app.quit {
		return
	}
	assets.Release()
	for _, name := range rc.Registry.Names() {
		if buf, ok := rc.Registry.UniformBuffer(name); ok {
			buf.Release()
		}
		rc.Registry.Remove(name)
	}
	state.releaseTargets()
	state.surface.Release()
	state.device.Release()
	state.adapter.Release()
	state.instance.Release()
	state.windowGlfw.Destroy()
	glfw.Terminate()
}
