package instanced

import (
	"reflect"
)

// Queries visit every entity owning all of their components. Components
// passed as optionals may be missing; the callback then receives nil for
// them. Returning false from the callback stops the walk.
type Query1[A any] struct{ ecs *Ecs }
type Query2[A, B any] struct{ ecs *Ecs }
type Query3[A, B, C any] struct{ ecs *Ecs }
type Query4[A, B, C, D any] struct{ ecs *Ecs }

func MakeQuery1[A any](cmd *Commands) Query1[A]             { return Query1[A]{ecs: cmd.app.ecs} }
func MakeQuery2[A, B any](cmd *Commands) Query2[A, B]       { return Query2[A, B]{ecs: cmd.app.ecs} }
func MakeQuery3[A, B, C any](cmd *Commands) Query3[A, B, C] { return Query3[A, B, C]{ecs: cmd.app.ecs} }
func MakeQuery4[A, B, C, D any](cmd *Commands) Query4[A, B, C, D] {
	return Query4[A, B, C, D]{ecs: cmd.app.ecs}
}

// column resolves T's storage in arch. match is false when the archetype
// lacks a required component.
func column[T any](arch *archetype, id componentId, opt set[componentId]) (comps []T, match bool) {
	if comps, ok := typedColumn[T](arch, id); ok {
		return comps, true
	}
	if _, ok := opt[id]; ok {
		return nil, true
	}
	return nil, false
}

func at[T any](comps []T, r row) *T {
	if comps == nil {
		return nil
	}
	return &comps[r]
}

func (q Query1[A]) Map(m func(EntityId, *A) bool, optionals ...any) {
	id1 := identifyComponents1[A](q.ecs)
	opt := identifyOptionals(q.ecs, optionals...)

	for _, arch := range q.ecs.archetypeOrder {
		comps1, ok := column[A](arch, id1, opt)
		if !ok {
			continue
		}

		for _, entityId := range arch.order {
			row, _ := arch.entities.Get(entityId)
			if !m(entityId, at(comps1, row)) {
				return
			}
		}
	}
}

func (q Query2[A, B]) Map(m func(EntityId, *A, *B) bool, optionals ...any) {
	id1, id2 := identifyComponents2[A, B](q.ecs)
	opt := identifyOptionals(q.ecs, optionals...)

	for _, arch := range q.ecs.archetypeOrder {
		comps1, ok := column[A](arch, id1, opt)
		if !ok {
			continue
		}
		comps2, ok := column[B](arch, id2, opt)
		if !ok {
			continue
		}

		for _, entityId := range arch.order {
			row, _ := arch.entities.Get(entityId)
			if !m(entityId, at(comps1, row), at(comps2, row)) {
				return
			}
		}
	}
}

func (q Query3[A, B, C]) Map(m func(EntityId, *A, *B, *C) bool, optionals ...any) {
	id1, id2, id3 := identifyComponents3[A, B, C](q.ecs)
	opt := identifyOptionals(q.ecs, optionals...)

	for _, arch := range q.ecs.archetypeOrder {
		comps1, ok := column[A](arch, id1, opt)
		if !ok {
			continue
		}
		comps2, ok := column[B](arch, id2, opt)
		if !ok {
			continue
		}
		comps3, ok := column[C](arch, id3, opt)
		if !ok {
			continue
		}

		for _, entityId := range arch.order {
			row, _ := arch.entities.Get(entityId)
			if !m(entityId, at(comps1, row), at(comps2, row), at(comps3, row)) {
				return
			}
		}
	}
}

func (q Query4[A, B, C, D]) Map(m func(EntityId, *A, *B, *C, *D) bool, optionals ...any) {
	id1, id2, id3, id4 := identifyComponents4[A, B, C, D](q.ecs)
	opt := identifyOptionals(q.ecs, optionals...)

	for _, arch := range q.ecs.archetypeOrder {
		comps1, ok := column[A](arch, id1, opt)
		if !ok {
			continue
		}
		comps2, ok := column[B](arch, id2, opt)
		if !ok {
			continue
		}
		comps3, ok := column[C](arch, id3, opt)
		if !ok {
			continue
		}
		comps4, ok := column[D](arch, id4, opt)
		if !ok {
			continue
		}

		for _, entityId := range arch.order {
			row, _ := arch.entities.Get(entityId)
			if !m(entityId, at(comps1, row), at(comps2, row), at(comps3, row), at(comps4, row)) {
				return
			}
		}
	}
}

// Count returns how many entities the query matches.
func (q Query1[A]) Count() int {
	n := 0
	q.Map(func(EntityId, *A) bool {
		n++
		return true
	})
	return n
}

func identifyOptionals(ecs *Ecs, components ...any) set[componentId] {
	res := make(set[componentId])
	for _, c := range components {
		res[ecs.getComponentId(componentType(c))] = struct{}{}
	}

	return res
}

func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

func identifyComponents1[A any](ecs *Ecs) componentId {
	return ecs.getComponentId(typeOf[A]())
}

func identifyComponents2[A, B any](ecs *Ecs) (componentId, componentId) {
	return ecs.getComponentId(typeOf[A]()), ecs.getComponentId(typeOf[B]())
}

func identifyComponents3[A, B, C any](ecs *Ecs) (componentId, componentId, componentId) {
	return ecs.getComponentId(typeOf[A]()), ecs.getComponentId(typeOf[B]()), ecs.getComponentId(typeOf[C]())
}

func identifyComponents4[A, B, C, D any](ecs *Ecs) (componentId, componentId, componentId, componentId) {
	return ecs.getComponentId(typeOf[A]()), ecs.getComponentId(typeOf[B]()), ecs.getComponentId(typeOf[C]()), ecs.getComponentId(typeOf[D]())
}
