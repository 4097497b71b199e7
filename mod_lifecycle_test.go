package instanced

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLifetimeSystem(t *testing.T) {
	app, cmd := newTestApp()
	clock := &Time{Dt: 500 * time.Millisecond}
	cmd.AddResources(clock)

	short := cmd.AddEntity(LifetimeComponent{TimeLeft: 0.4})
	long := cmd.AddEntity(LifetimeComponent{TimeLeft: 1.2})
	app.FlushCommands()

	lifetimeSystem(clock, cmd)
	app.FlushCommands()
	assert.False(t, app.ecs.hasEntity(short))
	assert.True(t, app.ecs.hasEntity(long))

	lt, _ := getComponent[LifetimeComponent](app.ecs, long)
	assert.InDelta(t, 0.7, lt.TimeLeft, 1e-6)

	// a zero delta leaves everything alone
	clock.Dt = 0
	lifetimeSystem(clock, cmd)
	app.FlushCommands()
	assert.InDelta(t, 0.7, lt.TimeLeft, 1e-6)
}

func TestTimeModule(t *testing.T) {
	app, _ := newTestApp(TimeModule{})
	clock, ok := Resource[Time](app)
	assert.True(t, ok)
	start := clock.Time

	app.Step()
	app.Step()

	assert.Equal(t, uint64(2), clock.Frame)
	assert.False(t, clock.Time.Before(start))
	assert.GreaterOrEqual(t, clock.Dt, time.Duration(0))
}
