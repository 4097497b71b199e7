package instanced

import (
	"fmt"
	"reflect"
	"runtime"
)

type systemFn any

type Module interface {
	Install(app *App, cmd *Commands)
}

type App struct {
	stateful           bool
	stateTransitioning bool
	initialState       State
	finalState         State
	nextState          State
	state              State
	started            bool
	quit               bool
	frame              uint64
	stages             []Stage
	systems            map[string]map[State]map[statePhase][]systemFn
	systemsStateless   map[string][]systemFn
	resources          map[reflect.Type]any
	ecs                *Ecs

	// Command Buffering
	pendingAdditions    []pendingAdd
	pendingRemovals     []EntityId
	pendingCompAdds     []pendingCompAdd
	pendingCompRemovals []pendingCompRemoval
}

func (app *App) Commands() *Commands {
	return &Commands{
		app: app,
	}
}

// Run steps the app until Quit is called or the final state is reached.
func (app *App) Run() {
	if app.stateful {
		app.Logger().Infof("running in stateful mode")
	} else {
		app.Logger().Infof("running in stateless mode")
	}

	for !app.quit {
		if app.Step() {
			break
		}
	}
}

// Step runs one frame: every stage in order, flushing commands after each.
// It reports true once the app has finished.
func (app *App) Step() bool {
	if !app.started {
		app.started = true
		if app.stateful {
			app.state = app.initialState
			app.callSystems(app.state, enter)
		}
	}

	app.callSystems(app.state, execute)
	app.frame++

	if app.stateful {
		if app.stateTransitioning {
			app.stateTransitioning = false
			app.executeChangeState(app.nextState)
		}

		if app.state == app.finalState {
			app.callSystems(app.state, exit)
			return true
		}
	}
	return app.quit
}

// Quit stops Run after the current frame.
func (app *App) Quit() {
	app.quit = true
}

// Frame is the number of completed Steps.
func (app *App) Frame() uint64 {
	return app.frame
}

func (app *App) callSystems(state State, phase statePhase) {
	for _, stage := range app.stages {
		// On execute, call stateless/always run systems first
		if execute == phase {
			for _, system := range app.systemsStateless[stage.Name] {
				app.callSystem(system)
			}
		}

		// Call stateful systems, if required
		if app.stateful {
			if systemsInStage, ok := app.systems[stage.Name]; ok {
				if systemsInState, ok := systemsInStage[state]; ok {
					for _, system := range systemsInState[phase] {
						app.callSystem(system)
					}
				}
			}
		}
		app.FlushCommands()
	}
}

func (app *App) changeState(newState State) {
	app.nextState = newState
	app.stateTransitioning = true
}

func (app *App) executeChangeState(newState State) {
	app.callSystems(app.state, exit)
	app.state = newState
	app.callSystems(app.state, enter)
}

func (app *App) addResources(resources ...any) *App {
	for _, resource := range resources {
		resourceType := reflect.TypeOf(resource)
		if resourceType.Kind() != reflect.Pointer {
			panic(fmt.Sprintf("resource %s must be a pointer", resourceType))
		}
		if _, ok := app.resources[resourceType.Elem()]; ok {
			panic(fmt.Sprintf("%s is already in resources", resourceType))
		}

		app.resources[resourceType.Elem()] = resource
	}
	return app
}

// Resource looks up a resource by its pointer type.
func Resource[T any](app *App) (*T, bool) {
	res, ok := app.resources[typeOf[T]()]
	if !ok {
		return nil, false
	}
	return res.(*T), true
}

func (app *App) callSystem(system systemFn) {
	app.callSystemInternal(system)
}

var typeOfCommands = reflect.TypeOf(Commands{})

func (app *App) callSystemInternal(system systemFn) {
	systemType := reflect.TypeOf(system)
	systemValue := reflect.ValueOf(system)

	args := make([]reflect.Value, systemType.NumIn())

	for i := 0; i < systemType.NumIn(); i++ {
		argType := systemType.In(i)
		if argType.Kind() != reflect.Pointer {
			app.unresolved(systemValue, systemType, argType)
		}
		underlyingType := argType.Elem()

		if underlyingType == typeOfCommands {
			args[i] = reflect.ValueOf(&Commands{app: app})
		} else if resource, argIsResource := app.resources[underlyingType]; argIsResource {
			args[i] = reflect.ValueOf(resource)
		} else {
			app.unresolved(systemValue, systemType, argType)
		}
	}
	systemValue.Call(args)
}

func (app *App) unresolved(systemValue reflect.Value, systemType reflect.Type, argType reflect.Type) {
	msg := fmt.Sprintf("Unable to resolve System dependency.\nSystem: %s\nSystem type: %s\nDependency: %s",
		runtime.FuncForPC(systemValue.Pointer()).Name(),
		fmt.Sprint(systemType),
		fmt.Sprint(argType),
	)
	app.Logger().Errorf("%s", msg)
	panic(msg)
}

func (app *App) FlushCommands() {
	if len(app.pendingAdditions) == 0 && len(app.pendingRemovals) == 0 &&
		len(app.pendingCompAdds) == 0 && len(app.pendingCompRemovals) == 0 {
		return
	}
	logger := app.Logger()

	// 1. Process Removals first (so we don't add to dead entities)
	for _, eid := range app.pendingRemovals {
		logger.Debugf("flush: removing entity %d", eid)
		app.ecs.removeEntity(eid)
	}
	app.pendingRemovals = app.pendingRemovals[:0]

	// 2. Process Additions
	for _, add := range app.pendingAdditions {
		app.ecs.insertEntity(add.eid, add.components...)
	}
	app.pendingAdditions = app.pendingAdditions[:0]

	// 3. Process Component Additions
	for _, add := range app.pendingCompAdds {
		app.ecs.addComponents(add.eid, add.components...)
	}
	app.pendingCompAdds = app.pendingCompAdds[:0]

	// 4. Process Component Removals
	for _, rm := range app.pendingCompRemovals {
		app.ecs.removeComponents(rm.eid, rm.components...)
	}
	app.pendingCompRemovals = app.pendingCompRemovals[:0]
}
