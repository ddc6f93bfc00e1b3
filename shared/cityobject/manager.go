package cityobject

import (
	"fmt"
	"log"
	"sort"
	"sync"

	"CityVision/shared/scene"
)

type managedTile struct {
	tile     *scene.Tile
	registry *Registry
}

// Manager mantém os tiles carregados de uma camada e o registro de cada um.
// Load e Evict seguem o ciclo Loading -> Decomposed -> Pickable -> Evicted.
type Manager struct {
	mu sync.RWMutex

	LayerID  string
	Assigner *GroupAssigner

	tiles   map[int]*managedTile
	onEvict []func(*scene.Tile)
}

// NewManager cria o gerenciador de uma camada.
func NewManager(layerID string, assigner *GroupAssigner) *Manager {
	if assigner == nil {
		assigner = NewGroupAssigner(nil)
	}
	return &Manager{
		LayerID:  layerID,
		Assigner: assigner,
		tiles:    make(map[int]*managedTile),
	}
}

// OnEvict registra uma função chamada depois que um tile é descarregado.
func (m *Manager) OnEvict(fn func(*scene.Tile)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onEvict = append(m.onEvict, fn)
}

// Load decompõe o tile, monta os grupos de material e o torna selecionável.
// Um tile anterior com o mesmo id é descarregado antes.
func (m *Manager) Load(tile *scene.Tile) (*Registry, error) {
	if tile == nil {
		return nil, fmt.Errorf("%w: tile nulo", ErrNoContent)
	}

	if old, ok := m.Tile(tile.ID); ok && old != tile {
		m.Evict(tile.ID)
	}

	reg, err := Decompose(tile)
	if err != nil {
		return nil, err
	}
	if err := tile.Advance(scene.StateDecomposed); err != nil {
		return nil, err
	}
	m.Assigner.AssignGroups(tile, reg)
	if err := tile.Advance(scene.StatePickable); err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.tiles[tile.ID] = &managedTile{tile: tile, registry: reg}
	m.mu.Unlock()

	log.Printf("[Manager] Camada %q: tile %d selecionável (%d objetos)", m.LayerID, tile.ID, reg.Len())
	return reg, nil
}

// Evict descarrega o tile. Os objetos do registro passam a rejeitar SetHighlight.
func (m *Manager) Evict(tileID int) bool {
	m.mu.Lock()
	entry, ok := m.tiles[tileID]
	if ok {
		delete(m.tiles, tileID)
	}
	hooks := m.onEvict
	m.mu.Unlock()

	if !ok {
		return false
	}
	if err := entry.tile.Advance(scene.StateEvicted); err != nil {
		log.Printf("[Manager] %v", err)
	}
	for _, fn := range hooks {
		fn(entry.tile)
	}
	return true
}

// Tile retorna o tile carregado com o id dado.
func (m *Manager) Tile(tileID int) (*scene.Tile, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entry, ok := m.tiles[tileID]
	if !ok {
		return nil, false
	}
	return entry.tile, true
}

// Registry retorna o registro de um tile carregado.
func (m *Manager) Registry(tileID int) (*Registry, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entry, ok := m.tiles[tileID]
	if !ok {
		return nil, false
	}
	return entry.registry, true
}

// Tiles retorna os tiles carregados ordenados por id.
func (m *Manager) Tiles() []*scene.Tile {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*scene.Tile, 0, len(m.tiles))
	for _, entry := range m.tiles {
		out = append(out, entry.tile)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Roots retorna os nós raiz dos tiles carregados (alvo do raycast).
func (m *Manager) Roots() []*scene.Node {
	tiles := m.Tiles()
	roots := make([]*scene.Node, len(tiles))
	for i, t := range tiles {
		roots[i] = t.Root
	}
	return roots
}

// Len retorna o número de tiles carregados.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.tiles)
}

// CityObjects resolve um identificador: um objeto para batch id escalar, ou um
// por elemento encontrado para batch id composto.
func (m *Manager) CityObjects(id Identity) []*CityObject {
	reg, ok := m.Registry(id.TileID)
	if !ok {
		return nil
	}
	var out []*CityObject
	for _, b := range id.BatchID {
		if co, ok := reg.Get(b); ok {
			out = append(out, co)
		}
	}
	return out
}

// CityObject resolve um identificador escalar.
func (m *Manager) CityObject(id Identity) (*CityObject, bool) {
	b, ok := id.Scalar()
	if !ok {
		return nil, false
	}
	reg, ok := m.Registry(id.TileID)
	if !ok {
		return nil, false
	}
	return reg.Get(b)
}
