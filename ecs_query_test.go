package instanced

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func newTestApp(modules ...Module) (*App, *Commands) {
	app := NewAppBuilder().UseModule(modules...).Build()
	return app, app.Commands()
}

func TestQuery_Map(t *testing.T) {
	app, cmd := newTestApp()
	a := cmd.AddEntity(testPosition{1, 0}, testVelocity{1, 1})
	b := cmd.AddEntity(testPosition{2, 0})
	c := cmd.AddEntity(testPosition{3, 0}, testVelocity{2, 2}, testTag{})
	app.FlushCommands()

	var seen []EntityId
	MakeQuery2[testPosition, testVelocity](cmd).Map(func(eid EntityId, p *testPosition, v *testVelocity) bool {
		p.X += v.DX
		seen = append(seen, eid)
		return true
	})
	assert.Equal(t, []EntityId{a, c}, seen)

	pa, _ := getComponent[testPosition](app.ecs, a)
	assert.Equal(t, float32(2), pa.X)
	pb, _ := getComponent[testPosition](app.ecs, b)
	assert.Equal(t, float32(2), pb.X)
}

func TestQuery_Optionals(t *testing.T) {
	app, cmd := newTestApp()
	a := cmd.AddEntity(testPosition{1, 0}, testVelocity{1, 1})
	b := cmd.AddEntity(testPosition{2, 0})
	app.FlushCommands()

	got := map[EntityId]bool{}
	MakeQuery2[testPosition, testVelocity](cmd).Map(func(eid EntityId, p *testPosition, v *testVelocity) bool {
		got[eid] = v != nil
		return true
	}, testVelocity{})

	assert.Equal(t, map[EntityId]bool{a: true, b: false}, got)
}

func TestQuery_StopsEarly(t *testing.T) {
	app, cmd := newTestApp()
	for i := 0; i < 5; i++ {
		cmd.AddEntity(testPosition{float32(i), 0})
	}
	app.FlushCommands()

	calls := 0
	MakeQuery1[testPosition](cmd).Map(func(EntityId, *testPosition) bool {
		calls++
		return calls < 2
	})
	assert.Equal(t, 2, calls)
	assert.Equal(t, 5, MakeQuery1[testPosition](cmd).Count())
}

func TestQuery_DeterministicOrder(t *testing.T) {
	app, cmd := newTestApp()
	var want []EntityId
	for i := 0; i < 4; i++ {
		want = append(want, cmd.AddEntity(testPosition{}, testTag{}))
		want = append(want, cmd.AddEntity(testPosition{}))
	}
	app.FlushCommands()

	order := func() []EntityId {
		var out []EntityId
		MakeQuery1[testPosition](cmd).Map(func(eid EntityId, _ *testPosition) bool {
			out = append(out, eid)
			return true
		})
		return out
	}

	first := order()
	assert.ElementsMatch(t, want, first)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, order())
	}
	// archetypes in creation order, entities in insertion order
	assert.Equal(t, []EntityId{want[0], want[2], want[4], want[6], want[1], want[3], want[5], want[7]}, first)
}

func TestQuery_FourComponents(t *testing.T) {
	app, cmd := newTestApp()
	eid := cmd.AddEntity(testPosition{}, testVelocity{}, testTag{}, Instanced{})
	cmd.AddEntity(testPosition{}, testVelocity{}, testTag{})
	app.FlushCommands()

	var seen []EntityId
	MakeQuery4[testPosition, testVelocity, testTag, Instanced](cmd).Map(func(id EntityId, _ *testPosition, _ *testVelocity, _ *testTag, _ *Instanced) bool {
		seen = append(seen, id)
		return true
	})
	assert.Equal(t, []EntityId{eid}, seen)
}
