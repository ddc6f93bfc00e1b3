package picking

import (
	"errors"
	"log"
	"slices"

	"CityVision/shared/cityobject"
	"CityVision/shared/scene"
	"CityVision/shared/util"
)

// Layer é um conjunto nomeado de tiles com seus próprios materiais secundários.
type Layer struct {
	ID      string
	Manager *cityobject.Manager
	Visible bool
}

// NewLayer cria uma camada visível.
func NewLayer(id string, highlight *scene.Material) *Layer {
	return &Layer{
		ID:      id,
		Manager: cityobject.NewManager(id, cityobject.NewGroupAssigner(highlight)),
		Visible: true,
	}
}

// SecondaryMaterials retorna os materiais de destaque da camada.
func (l *Layer) SecondaryMaterials() []*scene.Material {
	return l.Manager.Assigner.Secondary
}

// BatchInfo são os dados de um batch id lidos da tabela do tile.
type BatchInfo struct {
	BatchID int
	Props   map[string]any
}

// PickInfo é o resultado de uma seleção.
type PickInfo struct {
	Tile   *scene.Tile
	Layer  *Layer
	Batch  BatchInfo
	Object *cityobject.CityObject
	Hit    scene.Intersection
}

// Identity retorna o identificador do objeto selecionado.
func (p *PickInfo) Identity() cityobject.Identity {
	return cityobject.ScalarIdentity(p.Tile.ID, p.Batch.BatchID)
}

// Picker resolve raios em objetos das camadas registradas.
type Picker struct {
	layers []*Layer
}

// NewPicker cria um picker com as camadas dadas.
func NewPicker(layers ...*Layer) *Picker {
	return &Picker{layers: layers}
}

// AddLayer registra uma camada.
func (p *Picker) AddLayer(l *Layer) {
	p.layers = append(p.layers, l)
}

// Layers retorna as camadas na ordem de registro.
func (p *Picker) Layers() []*Layer {
	return p.layers
}

// Layer busca uma camada pelo id.
func (p *Picker) Layer(id string) (*Layer, bool) {
	for _, l := range p.layers {
		if l.ID == id {
			return l, true
		}
	}
	return nil, false
}

// Pick lança o raio contra as camadas visíveis (ou só as de layerIDs, se dadas)
// e retorna o primeiro objeto visível atingido, ou nil.
func (p *Picker) Pick(ray util.Ray, layerIDs ...string) *PickInfo {
	var roots []*scene.Node
	for _, l := range p.layers {
		if !l.Visible {
			continue
		}
		if len(layerIDs) > 0 && !slices.Contains(layerIDs, l.ID) {
			continue
		}
		roots = append(roots, l.Manager.Roots()...)
	}
	if len(roots) == 0 {
		return nil
	}

	first := ResolveFirstVisible(scene.Raycast(ray, roots...))
	if first == nil {
		return nil
	}

	hit, tile := first.Intersection, first.Tile
	info := &PickInfo{Tile: tile, Layer: p.layerOf(tile), Hit: hit}

	raw, ok := hit.Node.Mesh.Geometry.BatchID(hit.VertexIndex)
	if !ok {
		log.Printf("[Picking] Malha %q do tile %d sem batch id no vértice %d", hit.Node.Name, tile.ID, hit.VertexIndex)
		return info
	}
	info.Batch.BatchID = int(raw)

	if info.Layer != nil {
		if reg, ok := info.Layer.Manager.Registry(tile.ID); ok {
			info.Object, _ = reg.Get(info.Batch.BatchID)
		}
	}
	if info.Object != nil {
		info.Batch.Props = info.Object.Props
	} else {
		info.Batch.Props = tile.BatchTable.Props(info.Batch.BatchID)
	}
	return info
}

func (p *Picker) layerOf(tile *scene.Tile) *Layer {
	for _, l := range p.layers {
		if t, ok := l.Manager.Tile(tile.ID); ok && t == tile {
			return l
		}
	}
	return nil
}

// Selection guarda o objeto destacado. Selecionar outro devolve o anterior ao slot 0.
type Selection struct {
	// Slot é o índice do material de destaque.
	Slot int

	current *cityobject.CityObject
}

// NewSelection cria uma seleção que destaca com o primeiro material secundário.
func NewSelection() *Selection {
	return &Selection{Slot: 1}
}

// Current retorna o objeto selecionado (nil se nenhum).
func (s *Selection) Current() *cityobject.CityObject {
	return s.current
}

// Select destaca co e restaura o objeto anterior. co nil limpa a seleção.
func (s *Selection) Select(co *cityobject.CityObject) error {
	if s.current != nil && s.current != co {
		if err := cityobject.SetHighlight(s.current, 0); err != nil && !errors.Is(err, cityobject.ErrEvicted) {
			return err
		}
	}
	s.current = nil
	if co == nil {
		return nil
	}
	if err := cityobject.SetHighlight(co, s.Slot); err != nil {
		return err
	}
	s.current = co
	return nil
}

// Clear restaura o objeto selecionado e esquece a seleção.
func (s *Selection) Clear() error {
	return s.Select(nil)
}

// HandleEvict esquece a seleção se ela pertencia ao tile descarregado.
func (s *Selection) HandleEvict(tile *scene.Tile) {
	if s.current != nil && s.current.Tile == tile {
		s.current = nil
	}
}
