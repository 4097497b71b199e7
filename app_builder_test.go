package instanced

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type MockModule struct {
	installed int
	order     *[]string
	name      string
}

func (m *MockModule) Install(app *App, commands *Commands) {
	m.installed++
	if m.order != nil {
		*m.order = append(*m.order, m.name)
	}
}

func stageNames(app *App) []string {
	names := make([]string, len(app.stages))
	for i, s := range app.stages {
		names[i] = s.Name
	}
	return names
}

func TestAppBuilder_Stateless(t *testing.T) {
	app := NewAppBuilder().Build()

	assert.False(t, app.stateful)
	assert.Equal(t, []string{"Prelude", "PreUpdate", "Update", "PostUpdate", "PreRender", "Render", "PostRender", "Finale"}, stageNames(app))
	for _, s := range defaultStages {
		assert.Contains(t, app.systemsStateless, s.Name)
	}
	assert.Empty(t, app.systems)
}

func TestAppBuilder_UseStates(t *testing.T) {
	app := NewAppBuilder().UseStates(stateBoot, stateDone).Build()

	assert.True(t, app.stateful)
	assert.Equal(t, stateBoot, app.state)
	require.Contains(t, app.systems, Update.Name)
	assert.Len(t, app.systems[Update.Name], 3)
}

func TestAppBuilder_Build_WithModules(t *testing.T) {
	var order []string
	m1 := &MockModule{name: "first", order: &order}
	m2 := &MockModule{name: "second", order: &order}

	NewAppBuilder().UseModule(m1).UseModule(m2).Build()

	assert.Equal(t, 1, m1.installed)
	assert.Equal(t, 1, m2.installed)
	assert.Equal(t, []string{"first", "second"}, order)
}

func TestApp_UseStage(t *testing.T) {
	app := NewAppBuilder().Build()
	custom := Stage{Name: "Custom"}

	app.UseStage(custom, AfterStage(Update))
	app.UseStage(Stage{Name: "Early"}, BeforeStage(Prelude))

	names := stageNames(app)
	assert.Equal(t, "Early", names[0])
	assert.Equal(t, []string{"Update", "Custom", "PostUpdate"}, names[3:6])

	ran := false
	app.UseSystem(System(func() { ran = true }).InStage(custom))
	app.Step()
	assert.True(t, ran)

	assert.Panics(t, func() { app.UseStage(Stage{Name: "X"}, AfterStage(Stage{Name: "Nope"})) })
	assert.Panics(t, func() { app.UseSystem(System(func() {}).InStage(Stage{Name: "Nope"})) })
}

func TestApp_BeginFrameStageInsertedOnce(t *testing.T) {
	app := NewAppBuilder().Build()
	useFrameStage(app)
	useFrameStage(app)

	names := stageNames(app)
	count := 0
	for i, n := range names {
		if n == BeginFrame.Name {
			count++
			assert.Equal(t, PreRender.Name, names[i+1])
		}
	}
	assert.Equal(t, 1, count)
}
