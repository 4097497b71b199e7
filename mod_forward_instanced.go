package instanced

import (
	"github.com/gekko3d/instanced/rt/pass"
)

const forwardInstancedRendererName = "forward_instanced"

// ForwardInstancedModule draws every Instanced entity with one indexed
// instanced call per mesh. It needs a RenderContext and Frame (ClientModule
// or HeadlessModule), an AssetServer and the UniformsModule.
type ForwardInstancedModule struct {
	// ShaderSource replaces the built-in shader when set.
	ShaderSource string
}

// ForwardInstanced is the installed pass, exposed for inspection.
type ForwardInstanced struct {
	Pipeline *pass.ForwardInstancedPipeline

	shaderSource string
	initialized  bool
}

func (mod ForwardInstancedModule) Install(app *App, cmd *Commands) {
	ensureSingleRenderer(app, forwardInstancedRendererName)

	cmd.AddResources(&ForwardInstanced{shaderSource: mod.ShaderSource})
	app.UseSystem(System(forwardInstancedRenderSystem).InStage(Render))
	app.UseSystem(System(forwardInstancedShutdownSystem).InStage(Finale))
}

// Ready reports whether the pipeline object and binding set exist.
func (fi *ForwardInstanced) Ready() bool {
	return fi.initialized
}

func (fi *ForwardInstanced) ensurePipeline(app *App, rc *RenderContext) {
	if fi.Pipeline != nil {
		return
	}
	opts := []pass.Option{pass.WithLogger(zerologFor(app))}
	if fi.shaderSource != "" {
		opts = append(opts, pass.WithShaderSource(fi.shaderSource))
	}
	fi.Pipeline = pass.NewForwardInstancedPipeline(rc.DepthFormat, rc.Samples, opts...)
}

func forwardInstancedRenderSystem(rc *RenderContext, frame *Frame, assets *AssetServer, fi *ForwardInstanced, cmd *Commands) {
	if frame.Pass == nil {
		return
	}
	fi.ensurePipeline(cmd.app, rc)

	ctx := rc.graphContext()
	world := newEcsWorld(cmd, assets)

	if !fi.initialized {
		if err := fi.Pipeline.Initialize(ctx, world); err != nil {
			cmd.Logger().Errorf("forward instanced pipeline setup failed: %v", err)
			panic(err)
		}
		fi.initialized = true
	} else if frame.Resized {
		fi.Pipeline.Resize(ctx)
	}

	if err := fi.Pipeline.Render(ctx, frame.Pass, frame.Output, world); err != nil {
		cmd.Logger().Errorf("forward instanced render failed: %v", err)
		panic(err)
	}
}

func forwardInstancedShutdownSystem(fi *ForwardInstanced, cmd *Commands) {
	if !cmd.app.quit || fi.Pipeline == nil {
		return
	}
	fi.Pipeline.Release()
	fi.initialized = false
}
