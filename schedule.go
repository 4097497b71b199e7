package instanced

import (
	"fmt"
	"slices"
)

type State int

type Stage struct {
	Name string
}

var (
	Prelude    = Stage{Name: "Prelude"}
	PreUpdate  = Stage{Name: "PreUpdate"}
	Update     = Stage{Name: "Update"}
	PostUpdate = Stage{Name: "PostUpdate"}
	PreRender  = Stage{Name: "PreRender"}
	Render     = Stage{Name: "Render"}
	PostRender = Stage{Name: "PostRender"}
	Finale     = Stage{Name: "Finale"}
)

type systemScheduleBuilder struct {
	inStage       Stage
	runAlways     bool
	inState       State
	inStatePhase  statePhase
	system        systemFn
	stateProvided bool
}

type stateScheduleBuilder struct {
	state  State
	phase  statePhase
	always bool
}

type statePhase int

const (
	enter   statePhase = 0
	execute statePhase = 1
	exit    statePhase = 2
)

func OnEnter(state State) stateScheduleBuilder {
	return stateScheduleBuilder{state: state, phase: enter}
}

func OnExecute(state State) stateScheduleBuilder {
	return stateScheduleBuilder{state: state, phase: execute}
}

func OnExit(state State) stateScheduleBuilder {
	return stateScheduleBuilder{state: state, phase: exit}
}

func Always() stateScheduleBuilder {
	return stateScheduleBuilder{always: true}
}

func (sched systemScheduleBuilder) InStage(s Stage) systemScheduleBuilder {
	sched.inStage = s
	return sched
}

func (sched systemScheduleBuilder) InState(s stateScheduleBuilder) systemScheduleBuilder {
	sched.runAlways = s.always
	sched.inState = s.state
	sched.inStatePhase = s.phase
	sched.stateProvided = true
	return sched
}

func (sched systemScheduleBuilder) RunAlways() systemScheduleBuilder {
	sched.runAlways = true
	return sched
}

// System schedules fn in the Update stage. Its parameters are pointers to
// resources or *Commands, resolved on every call.
func System(system systemFn) systemScheduleBuilder {
	return systemScheduleBuilder{
		system:  system,
		inStage: Update,
	}
}

type stagePosition int

const (
	stageBefore stagePosition = iota
	stageAfter
)

type stagePositionBuilder struct {
	position stagePosition
	target   Stage
}

func BeforeStage(s Stage) stagePositionBuilder {
	return stagePositionBuilder{
		position: stageBefore,
		target:   s,
	}
}

func AfterStage(s Stage) stagePositionBuilder {
	return stagePositionBuilder{
		position: stageAfter,
		target:   s,
	}
}

func (app *App) UseStage(stage Stage, where stagePositionBuilder) *App {
	stageIdx := slices.IndexFunc(app.stages, func(s Stage) bool { return s.Name == where.target.Name })
	if -1 == stageIdx {
		panic(fmt.Sprintf("Stage %v not found", where.target.Name))
	}

	insertAt := stageIdx
	if stageAfter == where.position {
		insertAt = stageIdx + 1
	}

	app.stages = slices.Insert(app.stages, insertAt, stage)
	app.initStatefulStage(stage)

	return app
}

func (app *App) UseSystem(system systemScheduleBuilder) *App {
	if system.runAlways || !system.stateProvided {
		if _, ok := app.systemsStateless[system.inStage.Name]; ok {
			app.systemsStateless[system.inStage.Name] = append(app.systemsStateless[system.inStage.Name], system.system)
			return app
		}
	} else {
		if !app.stateful {
			panic("Trying to use a stateful system in a stateless app.")
		}

		if systemsInStage, ok := app.systems[system.inStage.Name]; ok {
			if systemsInState, ok := systemsInStage[system.inState]; ok {
				systemsInState[system.inStatePhase] = append(systemsInState[system.inStatePhase], system.system)
				return app
			}
			panic(fmt.Sprintf("State %v doesn't exist", system.inState))
		}
	}
	panic(fmt.Sprintf("Stage %v doesn't exist", system.inStage.Name))
}

func (app *App) initStatefulStage(stage Stage) {
	app.systemsStateless[stage.Name] = make([]systemFn, 0)

	if app.stateful {
		app.systems[stage.Name] = make(map[State]map[statePhase][]systemFn)
		for state := app.initialState; state <= app.finalState; state += 1 {
			app.systems[stage.Name][state] = map[statePhase][]systemFn{
				enter:   nil,
				execute: nil,
				exit:    nil,
			}
		}
	}
}
