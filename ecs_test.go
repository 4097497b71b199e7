package instanced

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testPosition struct{ X, Y float32 }
type testVelocity struct{ DX, DY float32 }
type testTag struct{}

func TestEcs_MakeEcs(t *testing.T) {
	ecs := MakeEcs()

	assert.Empty(t, ecs.archetypes)
	assert.Empty(t, ecs.archetypeOrder)
	assert.Equal(t, 0, ecs.entityCount())
	assert.Equal(t, EntityId(0), ecs.entityIdCounter)
	assert.Equal(t, componentId(0), ecs.componentIdCounter)
}

func TestEcs_AddEntity(t *testing.T) {
	ecs := MakeEcs()

	empty := ecs.addEntity()
	assert.True(t, ecs.hasEntity(empty))

	eid := ecs.addEntity(testPosition{1, 2}, &testVelocity{3, 4})
	require.True(t, ecs.hasEntity(eid))
	assert.NotEqual(t, empty, eid)
	assert.Equal(t, 2, ecs.entityCount())

	pos, ok := getComponent[testPosition](&ecs, eid)
	require.True(t, ok)
	assert.Equal(t, testPosition{1, 2}, *pos)

	vel, ok := getComponent[testVelocity](&ecs, eid)
	require.True(t, ok)
	assert.Equal(t, testVelocity{3, 4}, *vel)

	_, ok = getComponent[testTag](&ecs, eid)
	assert.False(t, ok)
}

func TestEcs_AddInvalidComponentShouldPanic(t *testing.T) {
	ecs := MakeEcs()
	assert.Panics(t, func() { ecs.addEntity(42) })
}

func TestEcs_ComponentRegistration(t *testing.T) {
	ecs := MakeEcs()

	a := ecs.getComponentId(reflect.TypeOf(testPosition{}))
	b := ecs.getComponentId(reflect.TypeOf(testVelocity{}))
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, ecs.getComponentId(reflect.TypeOf(testPosition{})))
	assert.Equal(t, reflect.TypeOf(testVelocity{}), ecs.componentIdTypeMap[b])
}

func TestEcs_ArchetypeKeyIsOrderIndependent(t *testing.T) {
	ecs := MakeEcs()

	k1 := ecs.getArchetypeKey(testPosition{}, testVelocity{})
	k2 := ecs.getArchetypeKey(&testVelocity{}, testPosition{}, testPosition{})
	assert.Equal(t, k1, k2)
	assert.Equal(t, getArchetypeId(k1), getArchetypeId(k2))

	combined := combineArchetypeKeys(ecs.getArchetypeKey(testPosition{}), ecs.getArchetypeKey(testTag{}, testPosition{}))
	assert.Len(t, combined, 2)
}

func TestEcs_AddComponentsMovesArchetype(t *testing.T) {
	ecs := MakeEcs()
	eid := ecs.addEntity(testPosition{1, 1})
	srcArch, _ := ecs.entityIndex.Get(eid)

	ecs.addComponents(eid, testVelocity{2, 2})

	dstArch, _ := ecs.entityIndex.Get(eid)
	assert.NotEqual(t, srcArch, dstArch)
	assert.Equal(t, 0, ecs.archetypes[srcArch].entities.Len())

	pos, ok := getComponent[testPosition](&ecs, eid)
	require.True(t, ok)
	assert.Equal(t, testPosition{1, 1}, *pos)
	vel, ok := getComponent[testVelocity](&ecs, eid)
	require.True(t, ok)
	assert.Equal(t, testVelocity{2, 2}, *vel)
}

func TestEcs_AddComponentsOverwritesInPlace(t *testing.T) {
	ecs := MakeEcs()
	eid := ecs.addEntity(testPosition{1, 1})
	before := len(ecs.archetypeOrder)

	ecs.addComponents(eid, testPosition{5, 6})

	assert.Len(t, ecs.archetypeOrder, before)
	pos, _ := getComponent[testPosition](&ecs, eid)
	assert.Equal(t, testPosition{5, 6}, *pos)
}

func TestEcs_RemoveComponents(t *testing.T) {
	ecs := MakeEcs()
	eid := ecs.addEntity(testPosition{1, 1}, testTag{})

	ecs.removeComponents(eid, testTag{})

	_, ok := getComponent[testTag](&ecs, eid)
	assert.False(t, ok)
	pos, ok := getComponent[testPosition](&ecs, eid)
	require.True(t, ok)
	assert.Equal(t, testPosition{1, 1}, *pos)

	// removing something the entity lacks is a no-op
	archId, _ := ecs.entityIndex.Get(eid)
	ecs.removeComponents(eid, testVelocity{})
	after, _ := ecs.entityIndex.Get(eid)
	assert.Equal(t, archId, after)
}

func TestEcs_RemoveEntity(t *testing.T) {
	ecs := MakeEcs()
	eid := ecs.addEntity(testPosition{1, 1})

	ecs.removeEntity(eid)
	assert.False(t, ecs.hasEntity(eid))
	assert.Equal(t, 0, ecs.entityCount())

	// second removal is ignored
	assert.NotPanics(t, func() { ecs.removeEntity(eid) })
}

func TestEcs_RecycleEntityReusesRow(t *testing.T) {
	ecs := MakeEcs()
	a := ecs.addEntity(testPosition{1, 1})
	archId, _ := ecs.entityIndex.Get(a)
	arch := ecs.archetypes[archId]
	rowA, _ := arch.entities.Get(a)

	ecs.removeEntity(a)
	require.Len(t, arch.recycled, 1)
	assert.Equal(t, testPosition{}, reflectSliceGet(arch.componentData[ecs.getComponentId(reflect.TypeOf(testPosition{}))], int(rowA)).Interface())

	b := ecs.addEntity(testPosition{2, 2})
	rowB, _ := arch.entities.Get(b)
	assert.Equal(t, rowA, rowB)
	assert.Empty(t, arch.recycled)
	assert.Equal(t, 1, arch.size)
}

func TestEcs_OrderFollowsInsertion(t *testing.T) {
	ecs := MakeEcs()
	a := ecs.addEntity(testPosition{})
	b := ecs.addEntity(testPosition{})
	c := ecs.addEntity(testPosition{})

	ecs.removeEntity(b)
	d := ecs.addEntity(testPosition{})

	archId, _ := ecs.entityIndex.Get(a)
	assert.Equal(t, []EntityId{a, c, d}, ecs.archetypes[archId].order)
}
