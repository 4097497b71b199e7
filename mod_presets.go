package instanced

import (
	"encoding/json"
	"os"

	"github.com/gekko3d/instanced/rt/core"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/rotisserie/eris"
)

// EntityData is the saved form of one meshed entity.
type EntityData struct {
	ID        EntityId   `json:"id"`
	Mesh      AssetId    `json:"mesh"`
	Position  mgl32.Vec3 `json:"position"`
	Rotation  mgl32.Quat `json:"rotation"`
	Scale     mgl32.Vec3 `json:"scale"`
	Color     mgl32.Vec4 `json:"color"`
	Instanced bool       `json:"instanced"`

	HasLocal   bool       `json:"has_local"`
	LocalPos   mgl32.Vec3 `json:"local_position,omitempty"`
	LocalRot   mgl32.Quat `json:"local_rotation,omitempty"`
	LocalScale mgl32.Vec3 `json:"local_scale,omitempty"`
	HasParent  bool       `json:"has_parent"`
	ParentID   EntityId   `json:"parent_id"`
}

type PresetData struct {
	Entities []EntityData `json:"entities"`
}

// SavePreset writes every entity holding a mesh, a transform and a material
// to filename as JSON. Mesh data itself is not saved, only the ids.
func SavePreset(cmd *Commands, filename string) error {
	preset := collectPreset(cmd)
	bytes, err := json.MarshalIndent(preset, "", "  ")
	if err != nil {
		return eris.Wrap(err, "encode preset")
	}
	if err := os.WriteFile(filename, bytes, 0644); err != nil {
		return eris.Wrapf(err, "write preset %s", filename)
	}
	return nil
}

func collectPreset(cmd *Commands) PresetData {
	var entities []EntityData

	MakeQuery3[MeshHandle, Transform, Material](cmd).Map(func(eid EntityId, mesh *MeshHandle, tr *Transform, mat *Material) bool {
		data := EntityData{
			ID:       eid,
			Mesh:     mesh.Id,
			Position: tr.Position,
			Rotation: tr.Rotation,
			Scale:    tr.Scale,
			Color:    mat.Color,
		}

		for _, c := range cmd.GetAllComponents(eid) {
			switch comp := c.(type) {
			case Instanced:
				data.Instanced = true
			case LocalTransform:
				data.HasLocal = true
				data.LocalPos = comp.Position
				data.LocalRot = comp.Rotation
				data.LocalScale = comp.Scale
			case Parent:
				data.HasParent = true
				data.ParentID = comp.Entity
			}
		}

		entities = append(entities, data)
		return true
	})

	return PresetData{Entities: entities}
}

// LoadPreset spawns the entities saved in filename and returns their new
// ids in file order. Parents are remapped to the new ids; a parent missing
// from the file is dropped.
func LoadPreset(cmd *Commands, server *AssetServer, filename string) ([]EntityId, error) {
	bytes, err := os.ReadFile(filename)
	if err != nil {
		return nil, eris.Wrapf(err, "read preset %s", filename)
	}

	var preset PresetData
	if err := json.Unmarshal(bytes, &preset); err != nil {
		return nil, eris.Wrapf(err, "decode preset %s", filename)
	}
	return spawnPreset(cmd, server, preset), nil
}

func spawnPreset(cmd *Commands, server *AssetServer, preset PresetData) []EntityId {
	idMap := make(map[EntityId]EntityId, len(preset.Entities))
	newEntities := make([]EntityId, 0, len(preset.Entities))

	for _, data := range preset.Entities {
		if server != nil {
			if _, ok := server.Mesh(data.Mesh); !ok {
				cmd.Logger().Warnf("preset entity %d uses unknown mesh %s", data.ID, data.Mesh)
			}
		}

		tr := Transform{Position: data.Position, Rotation: data.Rotation, Scale: data.Scale}
		components := []any{
			MeshHandle{Id: data.Mesh},
			tr,
			core.LocalToWorld{Matrix: tr.ObjectToWorld()},
			core.NewMaterial(data.Color),
		}
		if data.Instanced {
			components = append(components, Instanced{})
		}
		if data.HasLocal {
			components = append(components, LocalTransform{
				Position: data.LocalPos,
				Rotation: data.LocalRot,
				Scale:    data.LocalScale,
			})
		}

		newEid := cmd.AddEntity(components...)
		idMap[data.ID] = newEid
		newEntities = append(newEntities, newEid)
	}

	for _, data := range preset.Entities {
		if !data.HasParent {
			continue
		}
		if newParent, ok := idMap[data.ParentID]; ok {
			cmd.AddComponents(idMap[data.ID], Parent{Entity: newParent})
		}
	}

	return newEntities
}
