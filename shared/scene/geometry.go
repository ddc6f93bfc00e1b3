package scene

import (
	"errors"
	"fmt"
	"math"

	"CityVision/shared/util"

	"github.com/go-gl/mathgl/mgl32"
)

var (
	ErrGroupIndex  = errors.New("grupo de renderização inexistente")
	ErrBatchLength = errors.New("buffer de batch ids com tamanho diferente do número de vértices")
)

// Group é uma faixa de vértices desenhada com um material do array da malha.
type Group struct {
	Start         int
	Count         int
	MaterialIndex int
}

// Geometry guarda vértices não indexados (triângulos consecutivos).
// Os grupos só mudam pelos métodos abaixo; cada mudança incrementa Version
// para que o renderizador saiba quando recolorir a malha.
type Geometry struct {
	// Positions são triplas xyz achatadas.
	Positions []float32

	// BatchIDs é opcional (nil = ausente); um id por vértice.
	BatchIDs []uint32

	groups  []Group
	version uint64
}

// NewGeometry cria uma geometria. batchIDs pode ser nil.
func NewGeometry(positions []float32, batchIDs []uint32) *Geometry {
	return &Geometry{Positions: positions, BatchIDs: batchIDs}
}

// VertexCount retorna o número de vértices.
func (g *Geometry) VertexCount() int {
	return len(g.Positions) / 3
}

// Position retorna o vértice i em espaço local.
func (g *Geometry) Position(i int) mgl32.Vec3 {
	return mgl32.Vec3{g.Positions[i*3], g.Positions[i*3+1], g.Positions[i*3+2]}
}

// HasBatchIDs indica se a geometria traz o atributo de batch id.
func (g *Geometry) HasBatchIDs() bool {
	return g.BatchIDs != nil
}

// SetBatchIDs anexa um buffer de batch ids à geometria.
func (g *Geometry) SetBatchIDs(ids []uint32) error {
	if len(ids) != g.VertexCount() {
		return fmt.Errorf("%w: %d ids para %d vértices", ErrBatchLength, len(ids), g.VertexCount())
	}
	g.BatchIDs = ids
	g.version++
	return nil
}

// BatchID retorna o batch id do vértice i.
func (g *Geometry) BatchID(i int) (uint32, bool) {
	if i < 0 || i >= len(g.BatchIDs) {
		return 0, false
	}
	return g.BatchIDs[i], true
}

// Groups retorna uma cópia dos grupos atuais.
func (g *Geometry) Groups() []Group {
	out := make([]Group, len(g.groups))
	copy(out, g.groups)
	return out
}

// GroupCount retorna o número de grupos.
func (g *Geometry) GroupCount() int {
	return len(g.groups)
}

// Group retorna o grupo i.
func (g *Geometry) Group(i int) (Group, bool) {
	if i < 0 || i >= len(g.groups) {
		return Group{}, false
	}
	return g.groups[i], true
}

// ResetGroups apaga todos os grupos.
func (g *Geometry) ResetGroups() {
	g.groups = g.groups[:0]
	g.version++
}

// AddGroup adiciona um grupo e retorna seu índice.
func (g *Geometry) AddGroup(start, count, materialIndex int) int {
	g.groups = append(g.groups, Group{Start: start, Count: count, MaterialIndex: materialIndex})
	g.version++
	return len(g.groups) - 1
}

// SetGroupMaterial troca o material de um único grupo.
func (g *Geometry) SetGroupMaterial(i, materialIndex int) error {
	if i < 0 || i >= len(g.groups) {
		return fmt.Errorf("%w: %d (total %d)", ErrGroupIndex, i, len(g.groups))
	}
	if g.groups[i].MaterialIndex == materialIndex {
		return nil
	}
	g.groups[i].MaterialIndex = materialIndex
	g.version++
	return nil
}

// MaterialAt retorna o material do vértice segundo os grupos.
// Vértices fora de qualquer grupo usam o material 0. O último grupo que cobre o vértice vence.
func (g *Geometry) MaterialAt(vertex int) int {
	mat := 0
	for _, gr := range g.groups {
		if vertex >= gr.Start && vertex < gr.Start+gr.Count {
			mat = gr.MaterialIndex
		}
	}
	return mat
}

// Version muda sempre que grupos ou batch ids são alterados.
func (g *Geometry) Version() uint64 {
	return g.version
}

// Bounds retorna a caixa alinhada aos eixos em espaço local.
// Para geometria vazia, retorna min > max.
func (g *Geometry) Bounds() (mgl32.Vec3, mgl32.Vec3) {
	lo := mgl32.Vec3{math.MaxFloat32, math.MaxFloat32, math.MaxFloat32}
	hi := mgl32.Vec3{-math.MaxFloat32, -math.MaxFloat32, -math.MaxFloat32}
	for i := 0; i < g.VertexCount(); i++ {
		p := g.Position(i)
		lo = util.MinVec(lo, p)
		hi = util.MaxVec(hi, p)
	}
	return lo, hi
}

// Mesh é a geometria com seu array de materiais (índice 0 = material original).
type Mesh struct {
	Geometry  *Geometry
	Materials []*Material
}

// NewMesh cria uma malha com um único material.
func NewMesh(geom *Geometry, mat *Material) *Mesh {
	return &Mesh{Geometry: geom, Materials: []*Material{mat}}
}
