package instanced

import (
	"time"
)

// Time is the wall clock of the current frame.
type Time struct {
	Time  time.Time
	Dt    time.Duration
	Frame uint64
}

type TimeModule struct {
}

func (mod TimeModule) Install(app *App, cmd *Commands) {
	cmd.AddResources(&Time{
		Time: time.Now(),
		Dt:   0,
	})
	app.UseSystem(System(timeSystem).InStage(Prelude).RunAlways())
}

func timeSystem(timeResource *Time) {
	now := time.Now()

	timeResource.Dt = now.Sub(timeResource.Time)
	timeResource.Time = now
	timeResource.Frame++
}
