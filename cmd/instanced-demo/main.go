package main

import (
	"flag"
	"math"
	"runtime"

	"github.com/gekko3d/instanced"
	"github.com/go-gl/mathgl/mgl32"
)

func init() {
	// glfw and the surface must stay on the main thread
	runtime.LockOSThread()
}

// bob moves an instance up and down around its base height.
type bob struct {
	Base  float32
	Phase float32
}

func main() {
	configPath := flag.String("config", "", "KEY=value file with INSTANCED_* settings")
	grid := flag.Int("grid", 24, "cubes per side of the spawn grid")
	presetIn := flag.String("preset", "", "load entities from a preset file instead of the grid")
	presetOut := flag.String("save", "", "write the scene to a preset file on exit")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		panic(err)
	}

	app := instanced.NewAppBuilder().
		UseModule(
			instanced.LoggingModule{Prefix: "demo", Debug: cfg.Debug},
			instanced.TimeModule{},
			instanced.AssetServerModule{},
			instanced.InputModule{},
			instanced.FlyingCameraModule{},
			instanced.TransformModule{},
			instanced.LifecycleModule{},
			instanced.UniformsModule{},
			instanced.ForwardInstancedModule{},
			instanced.ClientModule{Config: cfg},
		).
		Build()

	app.UseSystem(instanced.System(quitOnEscape).InStage(instanced.Update))
	app.UseSystem(instanced.System(bobSystem).InStage(instanced.Update))

	cmd := app.Commands()
	assets, _ := instanced.Resource[instanced.AssetServer](app)

	if *presetIn != "" {
		registerMeshes(assets)
		ids, err := instanced.LoadPreset(cmd, assets, *presetIn)
		if err != nil {
			panic(err)
		}
		cmd.Logger().Infof("loaded %d entities from %s", len(ids), *presetIn)
	} else {
		spawnScene(cmd, assets, *grid)
	}

	app.Run()

	if *presetOut != "" {
		if err := instanced.SavePreset(cmd, *presetOut); err != nil {
			cmd.Logger().Errorf("save preset: %v", err)
		}
	}
}

func loadConfig(path string) (instanced.RenderConfig, error) {
	if path != "" {
		return instanced.LoadRenderConfigFile(path)
	}
	return instanced.LoadRenderConfig()
}

func registerMeshes(assets *instanced.AssetServer) (cube, plane instanced.MeshHandle) {
	cv, ci := instanced.CubeMesh()
	pv, pi := instanced.PlaneMesh(1)
	return assets.AddMesh("cube", cv, ci), assets.AddMesh("plane", pv, pi)
}

func spawnScene(cmd *instanced.Commands, assets *instanced.AssetServer, n int) {
	cube, plane := registerMeshes(assets)

	half := float32(n) / 2
	for x := 0; x < n; x++ {
		for y := 0; y < n; y++ {
			pos := mgl32.Vec3{(float32(x) - half) * 2, (float32(y) - half) * 2, 0.5}
			color := mgl32.Vec4{float32(x) / float32(n), float32(y) / float32(n), 0.6, 1}
			components := append(instanced.InstancedBundle(cube, pos, color), bob{Base: pos.Z(), Phase: float32(x+y) * 0.3})
			cmd.AddEntity(components...)
		}
	}

	// floor tiles share the plane mesh
	for x := -2; x < 2; x++ {
		for y := -2; y < 2; y++ {
			pos := mgl32.Vec3{float32(x)*half + half/2, float32(y)*half + half/2, 0}
			floor := instanced.InstancedBundle(plane, pos, mgl32.Vec4{0.3, 0.3, 0.32, 1})
			floor[1] = instanced.Transform{Position: pos, Rotation: mgl32.QuatIdent(), Scale: mgl32.Vec3{half, half, 1}}
			cmd.AddEntity(floor...)
		}
	}

	for i, c := range []mgl32.Vec3{{1, 0.8, 0.6}, {0.4, 0.6, 1}, {0.9, 0.9, 0.9}} {
		a := float64(i) * 2 * math.Pi / 3
		pos := mgl32.Vec3{float32(math.Cos(a)) * half, float32(math.Sin(a)) * half, 6}
		cmd.AddEntity(
			instanced.PointLight(c, 3, 40),
			instanced.LocalToWorld{Matrix: mgl32.Translate3D(pos.X(), pos.Y(), pos.Z())},
		)
	}

	cam := instanced.NewCameraComponent()
	cam.Position = mgl32.Vec3{0, -half * 2.5, half}
	cmd.AddEntity(cam, instanced.FlyingCameraComponent{Speed: 12})
}

func quitOnEscape(input *instanced.Input, cmd *instanced.Commands) {
	if input.JustPressed[instanced.KeyEscape] {
		cmd.Quit()
	}
}

func bobSystem(clock *instanced.Time, cmd *instanced.Commands) {
	t := float32(clock.Time.UnixMilli()%100000) / 1000
	instanced.MakeQuery2[bob, instanced.Transform](cmd).Map(func(_ instanced.EntityId, b *bob, tr *instanced.Transform) bool {
		tr.Position[2] = b.Base + 0.5*float32(math.Sin(float64(t+b.Phase)))
		return true
	})
}
