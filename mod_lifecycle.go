package instanced

// LifetimeComponent removes its entity once TimeLeft (seconds) runs out.
type LifetimeComponent struct {
	TimeLeft float32
}

type LifecycleModule struct{}

func (mod LifecycleModule) Install(app *App, cmd *Commands) {
	app.UseSystem(
		System(lifetimeSystem).
			InStage(PostUpdate).
			RunAlways(),
	)
}

func lifetimeSystem(time *Time, cmd *Commands) {
	dt := float32(time.Dt.Seconds())
	if dt <= 0 {
		return
	}
	MakeQuery1[LifetimeComponent](cmd).Map(func(eid EntityId, lt *LifetimeComponent) bool {
		lt.TimeLeft -= dt
		if lt.TimeLeft <= 0 {
			cmd.Logger().Debugf("lifetime expired, removing entity %d", eid)
			cmd.RemoveEntity(eid)
		}
		return true
	})
}
