package instanced

// Commands is handed to systems and modules. Entity and component changes
// are buffered and applied when the current stage finishes.
type Commands struct {
	app *App
}

type pendingAdd struct {
	eid        EntityId
	components []any
}

type pendingCompAdd struct {
	eid        EntityId
	components []any
}

type pendingCompRemoval struct {
	eid        EntityId
	components []any
}

func (cmd *Commands) ChangeState(newState State) *Commands {
	cmd.app.changeState(newState)
	return cmd
}

func (cmd *Commands) AddResources(resources ...any) *Commands {
	cmd.app.addResources(resources...)
	return cmd
}

func (cmd *Commands) AddEntity(components ...any) EntityId {
	eid := cmd.app.ecs.nextEntityId()
	cmd.app.pendingAdditions = append(cmd.app.pendingAdditions, pendingAdd{
		eid:        eid,
		components: components,
	})
	return eid
}

func (cmd *Commands) AddComponents(entityId EntityId, components ...any) {
	cmd.app.pendingCompAdds = append(cmd.app.pendingCompAdds, pendingCompAdd{
		eid:        entityId,
		components: components,
	})
}

// RemoveComponents takes zero values of the component types to drop,
// e.g. RemoveComponents(id, Instanced{}).
func (cmd *Commands) RemoveComponents(entityId EntityId, components ...any) {
	cmd.app.pendingCompRemovals = append(cmd.app.pendingCompRemovals, pendingCompRemoval{
		eid:        entityId,
		components: components,
	})
}

func (cmd *Commands) RemoveEntity(entityId EntityId) {
	cmd.app.pendingRemovals = append(cmd.app.pendingRemovals, entityId)
}

func (cmd *Commands) Quit() {
	cmd.app.Quit()
}

func (cmd *Commands) Logger() Logger {
	return cmd.app.Logger()
}

// GetAllComponents returns copies of every component the entity owns.
func (cmd *Commands) GetAllComponents(entityId EntityId) []any {
	ecs := cmd.app.ecs
	archId, ok := ecs.entityIndex.Get(entityId)
	if !ok {
		return nil
	}
	arch := ecs.archetypes[archId]
	row, _ := arch.entities.Get(entityId)

	var res []any
	for _, componentId := range arch.key {
		val := reflectSliceGet(arch.componentData[componentId], int(row))
		res = append(res, val.Interface())
	}
	return res
}
