package cityobject

import (
	"errors"
	"fmt"

	"CityVision/shared/scene"
)

var (
	ErrInvalidSlot = errors.New("slot de material inválido")
	ErrEvicted     = errors.New("city object de tile descarregado")
)

// GroupAssigner prepara as malhas de um tile para destacar objetos individualmente:
// um grupo de renderização por objeto, com o material original no slot 0 e os
// materiais secundários depois dele.
type GroupAssigner struct {
	// Secondary é usado quando AssignGroups é chamado sem materiais.
	Secondary []*scene.Material
}

// NewGroupAssigner cria um assigner com um único material de destaque.
func NewGroupAssigner(highlight *scene.Material) *GroupAssigner {
	if highlight == nil {
		highlight = &scene.Material{Name: "highlight", Color: scene.DefaultHighlightColor}
	}
	return &GroupAssigner{Secondary: []*scene.Material{highlight}}
}

// AssignGroups reconstrói materiais e grupos de cada malha do tile a partir do registro.
// Chamar de novo produz o mesmo resultado. Sem conteúdo, não faz nada.
func (a *GroupAssigner) AssignGroups(tile *scene.Tile, reg *Registry, secondary ...*scene.Material) {
	if tile == nil || tile.Content == nil {
		return
	}
	if len(secondary) == 0 {
		secondary = a.Secondary
	}

	for meshID, node := range tile.Meshes() {
		mesh := node.Mesh
		var original *scene.Material
		if len(mesh.Materials) > 0 {
			original = mesh.Materials[0]
		}
		mats := make([]*scene.Material, 0, 1+len(secondary))
		mats = append(mats, original)
		mats = append(mats, secondary...)
		mesh.Materials = mats

		geom := mesh.Geometry
		geom.ResetGroups()
		for _, co := range reg.ForMesh(meshID) {
			co.GroupID = geom.AddGroup(co.IndexStart, co.IndexCount, 0)
		}
	}
}

// SetHighlight troca o material do grupo do objeto. Só o grupo do objeto é tocado.
func SetHighlight(co *CityObject, slot int) error {
	if co == nil {
		return fmt.Errorf("%w: objeto nulo", ErrInvalidSlot)
	}
	if co.Tile == nil || co.Tile.State() == scene.StateEvicted {
		return fmt.Errorf("%w: %s", ErrEvicted, co)
	}
	node := co.mesh
	if node == nil || node.Mesh == nil {
		return fmt.Errorf("%w: %s sem malha", ErrInvalidSlot, co)
	}
	if slot < 0 || slot >= len(node.Mesh.Materials) {
		return fmt.Errorf("%w: %d (materiais: %d)", ErrInvalidSlot, slot, len(node.Mesh.Materials))
	}
	if co.GroupID < 0 {
		return fmt.Errorf("%w: %s sem grupo", ErrInvalidSlot, co)
	}
	if err := node.Mesh.Geometry.SetGroupMaterial(co.GroupID, slot); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSlot, err)
	}
	return nil
}
