package instanced

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"reflect"
	"slices"
	"sync"

	"github.com/kamstrup/intmap"
)

type EntityId uint64
type archetypeId uint64
type archetypeKey []componentId
type componentId uint32
type row int
type set[T comparable] = map[T]struct{}

// Ecs stores entities in archetypes keyed by their component set.
// Iteration is deterministic: archetypes in creation order, entities in the
// order they joined their archetype.
type Ecs struct {
	archetypes     map[archetypeId]*archetype
	archetypeOrder []*archetype
	entityIndex    *intmap.Map[EntityId, archetypeId]

	idGeneratorLock sync.Mutex
	entityIdCounter EntityId

	componentIdCounterLock sync.Mutex
	componentIdCounter     componentId
	componentTypeIdMap     map[reflect.Type]componentId
	componentIdTypeMap     map[componentId]reflect.Type
}

func MakeEcs() Ecs {
	return Ecs{
		archetypes:         make(map[archetypeId]*archetype),
		entityIndex:        intmap.New[EntityId, archetypeId](256),
		componentTypeIdMap: make(map[reflect.Type]componentId),
		componentIdTypeMap: make(map[componentId]reflect.Type),
	}
}

type archetype struct {
	id            archetypeId
	key           archetypeKey
	entities      *intmap.Map[EntityId, row]
	order         []EntityId
	componentData map[componentId]any // typed slices via reflection
	recycled      []row
	size          int
}

func (ecs *Ecs) addEntity(components ...any) EntityId {
	entityId := ecs.nextEntityId()
	return ecs.insertEntity(entityId, components...)
}

func (ecs *Ecs) insertEntity(entityId EntityId, components ...any) EntityId {
	archId, _, arch := ecs.archetypeFromComponents(components...)

	row := ecs.archetypeReserveRow(arch)
	for _, component := range components {
		ecs.writeComponent(arch, row, component)
	}
	arch.attach(entityId, row)
	ecs.entityIndex.Put(entityId, archId)

	return entityId
}

func (ecs *Ecs) hasEntity(entityId EntityId) bool {
	_, ok := ecs.entityIndex.Get(entityId)
	return ok
}

func (ecs *Ecs) entityCount() int {
	return ecs.entityIndex.Len()
}

func (ecs *Ecs) removeEntity(entityId EntityId) {
	if !ecs.hasEntity(entityId) {
		return
	}
	ecs.recycleEntity(entityId)
}

func (ecs *Ecs) addComponents(entityId EntityId, components ...any) {
	srcArchId, ok := ecs.entityIndex.Get(entityId)
	if !ok {
		return
	}
	srcArch := ecs.archetypes[srcArchId]
	srcRow, _ := srcArch.entities.Get(entityId)

	dstArchId, _, dstArch := ecs.archetypeFromExtraComponents(srcArch, components...)
	if dstArch == srcArch {
		// same component set, overwrite in place
		for _, component := range components {
			ecs.writeComponent(srcArch, srcRow, component)
		}
		return
	}
	dstRow := ecs.archetypeReserveRow(dstArch)

	ecs.moveComponents(srcArch, srcRow, dstArch, dstRow)
	for _, component := range components {
		ecs.writeComponent(dstArch, dstRow, component)
	}

	ecs.recycleEntity(entityId)

	dstArch.attach(entityId, dstRow)
	ecs.entityIndex.Put(entityId, dstArchId)
}

func (ecs *Ecs) removeComponents(entityId EntityId, components ...any) {
	srcArchId, ok := ecs.entityIndex.Get(entityId)
	if !ok {
		return
	}
	srcArch := ecs.archetypes[srcArchId]
	srcRow, _ := srcArch.entities.Get(entityId)

	removeSet := make(set[componentId])
	for _, c := range components {
		removeSet[ecs.getComponentId(componentType(c))] = struct{}{}
	}

	var dstKey archetypeKey
	for _, compId := range srcArch.key {
		if _, shouldRemove := removeSet[compId]; !shouldRemove {
			dstKey = append(dstKey, compId)
		}
	}
	if len(dstKey) == len(srcArch.key) {
		return
	}

	dstArchId, dstArch := ecs.getOrMakeArchetype(dstKey)
	dstRow := ecs.archetypeReserveRow(dstArch)

	ecs.moveComponents(srcArch, srcRow, dstArch, dstRow)
	ecs.recycleEntity(entityId)

	dstArch.attach(entityId, dstRow)
	ecs.entityIndex.Put(entityId, dstArchId)
}

// moveComponents copies the components both archetypes share.
func (ecs *Ecs) moveComponents(srcArch *archetype, srcRow row, dstArch *archetype, dstRow row) {
	for _, componentId := range srcArch.key {
		dstData, ok := dstArch.componentData[componentId]
		if !ok {
			continue
		}
		srcValue := reflectSliceGet(srcArch.componentData[componentId], int(srcRow))
		reflectSliceSet(dstData, int(dstRow), srcValue)
	}
}

func (ecs *Ecs) writeComponent(dstArch *archetype, dstRow row, component any) {
	reflectValue := reflect.ValueOf(component)
	if reflectValue.Kind() == reflect.Pointer {
		reflectValue = reflectValue.Elem()
	}
	if reflectValue.Kind() != reflect.Struct {
		panic(fmt.Errorf("expected Component to be a struct or a pointer to a struct, got %s", reflectValue.Kind()))
	}

	componentId := ecs.getComponentId(reflectValue.Type())
	reflectSliceSet(dstArch.componentData[componentId], int(dstRow), reflectValue)
}

func (ecs *Ecs) recycleEntity(entityId EntityId) {
	archId, _ := ecs.entityIndex.Get(entityId)
	arch := ecs.archetypes[archId]

	row, _ := arch.entities.Get(entityId)
	for componentId, data := range arch.componentData {
		reflectSliceSet(data, int(row), reflect.Zero(ecs.componentIdTypeMap[componentId]))
	}
	arch.recycled = append(arch.recycled, row)
	arch.detach(entityId)

	ecs.entityIndex.Del(entityId)
}

func (arch *archetype) attach(entityId EntityId, r row) {
	arch.entities.Put(entityId, r)
	arch.order = append(arch.order, entityId)
}

func (arch *archetype) detach(entityId EntityId) {
	arch.entities.Del(entityId)
	if i := slices.Index(arch.order, entityId); i >= 0 {
		arch.order = slices.Delete(arch.order, i, i+1)
	}
}

func (ecs *Ecs) archetypeFromComponents(components ...any) (archetypeId, archetypeKey, *archetype) {
	archKey := ecs.getArchetypeKey(components...)
	archId, arch := ecs.getOrMakeArchetype(archKey)
	return archId, archKey, arch
}

func (ecs *Ecs) archetypeFromExtraComponents(srcArch *archetype, components ...any) (archetypeId, archetypeKey, *archetype) {
	dstArchKey := combineArchetypeKeys(
		srcArch.key,
		ecs.getArchetypeKey(components...),
	)

	dstArchId, dstArch := ecs.getOrMakeArchetype(dstArchKey)
	return dstArchId, dstArchKey, dstArch
}

func (ecs *Ecs) getOrMakeArchetype(key archetypeKey) (archetypeId, *archetype) {
	id := getArchetypeId(key)

	if arch, ok := ecs.archetypes[id]; ok {
		return id, arch
	}

	arch := &archetype{
		id:            id,
		key:           key,
		entities:      intmap.New[EntityId, row](16),
		componentData: make(map[componentId]any),
	}
	for _, componentId := range arch.key {
		arch.componentData[componentId] = reflectSliceMake(
			ecs.componentIdTypeMap[componentId],
		)
	}

	ecs.archetypes[id] = arch
	ecs.archetypeOrder = append(ecs.archetypeOrder, arch)
	return id, arch
}

func (ecs *Ecs) archetypeReserveRow(arch *archetype) row {
	if len(arch.recycled) > 0 {
		row := arch.recycled[len(arch.recycled)-1]
		arch.recycled = arch.recycled[:len(arch.recycled)-1]
		return row
	}

	row := row(arch.size)
	arch.size++
	for _, componentId := range arch.key {
		arch.componentData[componentId] = reflectSliceAppend(
			arch.componentData[componentId],
			reflect.Zero(ecs.componentIdTypeMap[componentId]),
		)
	}
	return row
}

// Archetype's "Canonical" Key - a list of *sorted* ComponentIDs that make the archetype
// ArchetypeID is a hash of the key: cheap to look up, compared by value
func (ecs *Ecs) getArchetypeKey(components ...any) archetypeKey {
	var res archetypeKey

	for _, component := range components {
		compType := componentType(component)
		if compType.Kind() != reflect.Struct {
			panic("component should be a struct")
		}

		res = append(res, ecs.getComponentId(compType))
	}

	return dedupAndSortArchetypeKey(res)
}

func componentType(component any) reflect.Type {
	t := reflect.TypeOf(component)
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

func combineArchetypeKeys(a archetypeKey, b archetypeKey) archetypeKey {
	return dedupAndSortArchetypeKey(append(slices.Clone(a), b...))
}

func dedupAndSortArchetypeKey(key archetypeKey) archetypeKey {
	res := slices.Clone(key)
	slices.Sort(res)
	return slices.Compact(res)
}

func getArchetypeId(key archetypeKey) archetypeId {
	hash := fnv.New64a()
	b := make([]byte, 8)
	for _, componentId := range key {
		binary.LittleEndian.PutUint64(b, uint64(componentId))
		hash.Write(b)
	}
	return archetypeId(hash.Sum64())
}

func (ecs *Ecs) nextEntityId() EntityId {
	ecs.idGeneratorLock.Lock()
	defer ecs.idGeneratorLock.Unlock()

	id := ecs.entityIdCounter
	ecs.entityIdCounter += 1

	return id
}

func (ecs *Ecs) getComponentId(componentType reflect.Type) componentId {
	ecs.componentIdCounterLock.Lock()
	defer ecs.componentIdCounterLock.Unlock()

	if id, ok := ecs.componentTypeIdMap[componentType]; ok {
		return id
	}

	id := ecs.componentIdCounter
	ecs.componentIdCounter += 1

	ecs.componentTypeIdMap[componentType] = id
	ecs.componentIdTypeMap[id] = componentType

	return id
}

// getComponent returns a pointer into the storage of entityId's T.
// It is invalidated by the next structural change.
func getComponent[T any](ecs *Ecs, entityId EntityId) (*T, bool) {
	archId, ok := ecs.entityIndex.Get(entityId)
	if !ok {
		return nil, false
	}
	arch := ecs.archetypes[archId]
	comps, ok := typedColumn[T](arch, ecs.getComponentId(typeOf[T]()))
	if !ok {
		return nil, false
	}
	row, _ := arch.entities.Get(entityId)
	return &comps[row], true
}
