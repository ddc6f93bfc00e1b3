package cityobject

import (
	"fmt"
	"sort"

	"CityVision/shared/scene"
	"CityVision/shared/util"

	"github.com/go-gl/mathgl/mgl32"
)

// CityObject é a parte de um tile identificada por um batch id: uma faixa de
// vértices de uma das malhas do tile, com seus atributos e centroide.
type CityObject struct {
	Tile    *scene.Tile
	BatchID int
	MeshID  int

	IndexStart int
	IndexCount int

	// Centroid em espaço de mundo. NaN quando IndexCount == 0.
	Centroid mgl32.Vec3

	Props map[string]any

	// GroupID é o índice do grupo de renderização na malha (-1 antes da atribuição).
	GroupID int

	mesh *scene.Node
}

// IndexEnd é o último índice de vértice do objeto.
func (co *CityObject) IndexEnd() int {
	return co.IndexStart + co.IndexCount - 1
}

// Degenerate indica um objeto sem vértices ou com centroide não finito.
func (co *CityObject) Degenerate() bool {
	return co.IndexCount <= 0 || !util.IsFinite(co.Centroid)
}

// Mesh retorna o nó de malha que contém o objeto.
func (co *CityObject) Mesh() *scene.Node {
	return co.mesh
}

// DefaultStyleID identifica o estilo padrão da malha do objeto.
func (co *CityObject) DefaultStyleID() string {
	return fmt.Sprintf("default%dm%d", co.Tile.ID, co.MeshID)
}

// Identity retorna o identificador estável (tile, batch) do objeto.
func (co *CityObject) Identity() Identity {
	return ScalarIdentity(co.Tile.ID, co.BatchID)
}

func (co *CityObject) String() string {
	return fmt.Sprintf("CityObject{tile=%d batch=%d mesh=%d [%d..%d]}",
		co.Tile.ID, co.BatchID, co.MeshID, co.IndexStart, co.IndexEnd())
}

// Registry mapeia batch id -> CityObject para um tile.
type Registry struct {
	TileID  int
	objects map[int]*CityObject
}

func newRegistry(tileID int) *Registry {
	return &Registry{TileID: tileID, objects: make(map[int]*CityObject)}
}

// Get retorna o objeto do batch id, se existir.
func (r *Registry) Get(batchID int) (*CityObject, bool) {
	if r == nil {
		return nil, false
	}
	co, ok := r.objects[batchID]
	return co, ok
}

// Len retorna o número de objetos.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.objects)
}

// All retorna todos os objetos ordenados por batch id.
func (r *Registry) All() []*CityObject {
	if r == nil {
		return nil
	}
	out := make([]*CityObject, 0, len(r.objects))
	for _, co := range r.objects {
		out = append(out, co)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BatchID < out[j].BatchID })
	return out
}

// ForMesh retorna os objetos de uma malha, ordenados por batch id.
func (r *Registry) ForMesh(meshID int) []*CityObject {
	var out []*CityObject
	for _, co := range r.All() {
		if co.MeshID == meshID {
			out = append(out, co)
		}
	}
	return out
}
