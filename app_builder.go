package instanced

import (
	"reflect"
)

var defaultStages = []Stage{Prelude, PreUpdate, Update, PostUpdate, PreRender, Render, PostRender, Finale}

type AppBuilder struct {
	app     *App
	modules []Module
}

func NewAppBuilder() *AppBuilder {
	ecs := MakeEcs()
	return &AppBuilder{app: &App{
		resources:        make(map[reflect.Type]any),
		systems:          make(map[string]map[State]map[statePhase][]systemFn),
		systemsStateless: make(map[string][]systemFn),
		stateful:         false,
		ecs:              &ecs,
	}}
}

func (b *AppBuilder) UseStates(initialState State, finalState State) *AppBuilder {
	b.app.stateful = true
	b.app.initialState = initialState
	b.app.finalState = finalState

	return b
}

func (b *AppBuilder) UseModule(modules ...Module) *AppBuilder {
	b.modules = append(b.modules, modules...)

	return b
}

// Build creates the default stages and installs modules in the order they
// were added.
func (b *AppBuilder) Build() *App {
	app := b.app
	app.state = app.initialState
	for _, stage := range defaultStages {
		app.stages = append(app.stages, stage)
		app.initStatefulStage(stage)
	}

	commands := &Commands{app: app}
	for _, module := range b.modules {
		module.Install(app, commands)
	}

	return app
}
