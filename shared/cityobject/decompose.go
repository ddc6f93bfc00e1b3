package cityobject

import (
	"errors"
	"fmt"
	"log"
	"time"

	"CityVision/shared/scene"
	"CityVision/shared/util"

	"github.com/go-gl/mathgl/mgl32"
)

// ErrNoContent indica um tile ausente ou ainda sem conteúdo carregado.
var ErrNoContent = errors.New("tile sem conteúdo")

// Decompose varre os batch ids por vértice das malhas do tile e monta um registro
// novo de CityObjects.
//
// Cada id é criado na primeira vez que aparece. No fim de cada sequência contínua
// do id, IndexCount é recalculado a partir do IndexStart original; se o id voltar a
// aparecer mais adiante (inclusive em outra malha), o IndexStart não muda e o
// IndexCount é sobrescrito pela última sequência.
//
// Malhas sem batch ids viram um único objeto com o próximo id livre, e recebem um
// buffer constante com esse id.
func Decompose(tile *scene.Tile) (*Registry, error) {
	if tile == nil {
		return nil, fmt.Errorf("%w: tile nulo", ErrNoContent)
	}
	if tile.Content == nil {
		return nil, fmt.Errorf("%w: tile %d", ErrNoContent, tile.ID)
	}

	start := time.Now()
	reg := newRegistry(tile.ID)
	nextID := 0
	synthesized := 0
	vertices := 0

	for meshID, node := range tile.Meshes() {
		geom := node.Mesh.Geometry
		vertices += geom.VertexCount()

		var created []*CityObject
		if !geom.HasBatchIDs() {
			for {
				if _, used := reg.objects[nextID]; !used {
					break
				}
				nextID++
			}
			co := synthesize(tile, node, meshID, nextID)
			nextID++
			reg.objects[co.BatchID] = co
			created = append(created, co)
			synthesized++
		} else {
			created = scanBatchIDs(tile, node, meshID, reg)
		}

		world := node.WorldMatrix()
		for _, co := range created {
			co.Centroid = centroid(geom, world, co.IndexStart, co.IndexCount)
		}
	}

	log.Printf("[Decompose] Tile %d: %d objetos, %d malhas (%d sem batch id), %d vértices em %v",
		tile.ID, reg.Len(), len(tile.Meshes()), synthesized, vertices, time.Since(start))
	return reg, nil
}

func synthesize(tile *scene.Tile, node *scene.Node, meshID, batchID int) *CityObject {
	geom := node.Mesh.Geometry
	n := geom.VertexCount()
	ids := make([]uint32, n)
	for i := range ids {
		ids[i] = uint32(batchID)
	}
	// o tamanho bate com o número de vértices, não há erro possível
	_ = geom.SetBatchIDs(ids)

	return &CityObject{
		Tile:       tile,
		BatchID:    batchID,
		MeshID:     meshID,
		IndexStart: 0,
		IndexCount: n,
		Props:      make(map[string]any),
		GroupID:    -1,
		mesh:       node,
	}
}

// scanBatchIDs faz a varredura de uma malha e retorna os objetos criados nela.
func scanBatchIDs(tile *scene.Tile, node *scene.Node, meshID int, reg *Registry) []*CityObject {
	ids := node.Mesh.Geometry.BatchIDs
	var created []*CityObject

	for i, raw := range ids {
		id := int(raw)
		co, ok := reg.objects[id]
		if !ok {
			co = &CityObject{
				Tile:       tile,
				BatchID:    id,
				MeshID:     meshID,
				IndexStart: i,
				IndexCount: 0,
				Props:      tile.BatchTable.Props(id),
				GroupID:    -1,
				mesh:       node,
			}
			reg.objects[id] = co
			created = append(created, co)
		}

		if i+1 == len(ids) || ids[i+1] != raw {
			co.IndexCount = i - co.IndexStart + 1
		}
	}
	return created
}

// centroid é a média das posições em [start, start+count) levada ao espaço de mundo.
// count == 0 produz NaN.
func centroid(geom *scene.Geometry, world mgl32.Mat4, start, count int) mgl32.Vec3 {
	var sum mgl32.Vec3
	end := min(start+count, geom.VertexCount())
	for i := max(start, 0); i < end; i++ {
		sum = sum.Add(geom.Position(i))
	}
	n := float32(count)
	avg := mgl32.Vec3{sum[0] / n, sum[1] / n, sum[2] / n}
	return util.TransformPoint(world, avg)
}
