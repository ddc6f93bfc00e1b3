package render

/*
#include <stdlib.h>
*/
import "C"

import (
	"log"
	"math"
	"sort"
	"sync"
	"unsafe"

	"CityVision/cliente/internal/meshing"
	"CityVision/shared/cityobject"
	"CityVision/shared/scene"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// Índice do VBO de cores no mesh do Raylib (RL_DEFAULT_SHADER_ATTRIB_LOCATION_COLOR).
const colorBufferIndex = 3

type Renderer struct {
	mu     sync.RWMutex
	Models map[int]*TileModel

	CityShader  rl.Shader
	lightDirLoc int32
	ambientLoc  int32

	Wireframe bool
}

// NewRenderer cria um novo renderizador.
func NewRenderer() *Renderer {
	r := &Renderer{
		Models: make(map[int]*TileModel),
	}

	if rl.IsWindowReady() {
		r.CityShader = rl.LoadShaderFromMemory(cityVertexShader, cityFragmentShader)

		// Locs aponta para um array em C (32 int32)
		locs := unsafe.Slice(r.CityShader.Locs, 32)
		locs[12] = rl.GetShaderLocation(r.CityShader, "colDiffuse") // SHADER_LOC_COLOR_DIFFUSE

		r.lightDirLoc = rl.GetShaderLocation(r.CityShader, "lightDir")
		r.ambientLoc = rl.GetShaderLocation(r.CityShader, "ambient")
	}

	return r
}

// ModelVersion retorna o MTime do modelo carregado para o tile, ou -1 se não houver.
func (r *Renderer) ModelVersion(tileID int) int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if tm, ok := r.Models[tileID]; ok {
		return tm.MTime
	}
	return -1
}

// Count retorna quantos tiles têm modelo na GPU.
func (r *Renderer) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.Models)
}

// UploadResult converte um resultado do mesher em modelos Raylib na GPU.
// Um modelo anterior do mesmo tile é descartado.
func (r *Renderer) UploadResult(res meshing.Result) {
	if !rl.IsWindowReady() || res.Tile == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if old, ok := r.Models[res.TileID]; ok {
		old.unload()
		delete(r.Models, res.TileID)
	}

	nodes := res.Tile.Meshes()
	if len(nodes) != len(res.Meshes) {
		log.Printf("[Renderer] Tile %d: %d malhas no grafo e %d geometrias; ignorando", res.TileID, len(nodes), len(res.Meshes))
		return
	}

	tm := newTileModel(res.TileID, res.Layer, res.MTime, res.Tile)
	for i, geo := range res.Meshes {
		tm.addMesh(nodes[i], geo)
		if geo.VertexCount() == 0 {
			continue
		}
		mesh := r.geometryToMesh(geo)
		rl.UploadMesh(&mesh, true) // dinâmico: as cores mudam com o destaque
		model := rl.LoadModelFromMesh(mesh)
		if r.CityShader.ID != 0 && model.MaterialCount > 0 {
			materials := unsafe.Slice(model.Materials, model.MaterialCount)
			materials[0].Shader = r.CityShader
		}
		tm.Models[i] = model
		tm.uploaded[i] = true
	}

	r.Models[res.TileID] = tm
}

func (r *Renderer) geometryToMesh(data meshing.GeometryData) rl.Mesh {
	var mesh rl.Mesh
	vCount := int32(data.VertexCount())
	mesh.VertexCount = vCount
	mesh.TriangleCount = vCount / 3

	if len(data.Vertices) > 0 {
		mesh.Vertices = (*float32)(r.copyToC(unsafe.Pointer(&data.Vertices[0]), len(data.Vertices)*4))
	}
	if len(data.Normals) > 0 {
		mesh.Normals = (*float32)(r.copyToC(unsafe.Pointer(&data.Normals[0]), len(data.Normals)*4))
	}
	if len(data.Colors) > 0 {
		mesh.Colors = (*uint8)(r.copyToC(unsafe.Pointer(&data.Colors[0]), len(data.Colors)))
	}
	return mesh
}

func (r *Renderer) copyToC(data unsafe.Pointer, size int) unsafe.Pointer {
	if size <= 0 || data == nil {
		return nil
	}
	ptr := C.malloc(C.size_t(size))
	if ptr == nil {
		return nil
	}
	cSlice := unsafe.Slice((*byte)(ptr), size)
	goSlice := unsafe.Slice((*byte)(data), size)
	copy(cSlice, goSlice)
	return ptr
}

// syncColors reenvia as cores das malhas cujos grupos mudaram desde o último envio.
func (r *Renderer) syncColors(tm *TileModel) {
	for i, node := range tm.nodes {
		if !tm.uploaded[i] {
			continue
		}
		geom := node.Mesh.Geometry
		v := geom.Version()
		if v == tm.versions[i] {
			continue
		}
		tm.colors[i] = meshing.VertexColors(geom, node.Mesh.Materials, tm.colors[i])
		meshes := unsafe.Slice(tm.Models[i].Meshes, tm.Models[i].MeshCount)
		if len(meshes) > 0 && len(tm.colors[i]) > 0 {
			rl.UpdateMeshBuffer(meshes[0], colorBufferIndex, tm.colors[i], 0)
		}
		tm.versions[i] = v
	}
}

// Draw renderiza os tiles visíveis. visible decide por camada (nil desenha todas).
func (r *Renderer) Draw(visible func(layer string) bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.CityShader.ID != 0 {
		rl.SetShaderValue(r.CityShader, r.lightDirLoc, []float32{-0.4, -1.0, -0.3}, rl.ShaderUniformVec3)
		rl.SetShaderValue(r.CityShader, r.ambientLoc, []float32{0.35}, rl.ShaderUniformFloat)
	}

	for _, id := range r.sortedIDs() {
		tm := r.Models[id]
		if visible != nil && !visible(tm.Layer) {
			continue
		}
		if !tm.Tile.ContentVisible() {
			continue
		}

		r.syncColors(tm)

		for i, node := range tm.nodes {
			if !tm.uploaded[i] || !node.Visible {
				continue
			}
			if r.Wireframe {
				rl.DrawModelWires(tm.Models[i], rl.Vector3{}, 1.0, rl.DarkGray)
			} else {
				rl.DrawModel(tm.Models[i], rl.Vector3{}, 1.0, rl.White)
			}
		}
	}
}

// DrawSelection desenha a caixa envolvente do objeto selecionado.
func (r *Renderer) DrawSelection(co *cityobject.CityObject) {
	if co == nil || co.Tile == nil {
		return
	}
	r.mu.RLock()
	tm, ok := r.Models[co.Tile.ID]
	r.mu.RUnlock()
	if !ok || tm.Tile != co.Tile {
		return
	}
	if box, ok := tm.ObjectBounds(co.MeshID, co.IndexStart, co.IndexCount); ok {
		rl.DrawBoundingBox(box, rl.Yellow)
	}
}

// Unload descarta o modelo de um tile.
func (r *Renderer) Unload(tileID int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	tm, ok := r.Models[tileID]
	if !ok {
		return false
	}
	tm.unload()
	delete(r.Models, tileID)
	return true
}

// UnloadAll descarta todos os modelos e o shader.
func (r *Renderer) UnloadAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, tm := range r.Models {
		tm.unload()
	}
	r.Models = make(map[int]*TileModel)
	if r.CityShader.ID != 0 {
		rl.UnloadShader(r.CityShader)
		r.CityShader = rl.Shader{}
	}
}

func (r *Renderer) sortedIDs() []int {
	ids := make([]int, 0, len(r.Models))
	for id := range r.Models {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// TileModel é a geometria renderizável de um tile: um modelo Raylib por malha.
type TileModel struct {
	TileID int
	Layer  string
	MTime  int64 // Versão dos dados (para cache)
	Tile   *scene.Tile

	Models []rl.Model

	nodes    []*scene.Node
	vertices [][]float32 // cópia em mundo para caixas de seleção
	colors   [][]uint8
	versions []uint64
	uploaded []bool
}

func newTileModel(tileID int, layer string, mtime int64, tile *scene.Tile) *TileModel {
	return &TileModel{TileID: tileID, Layer: layer, MTime: mtime, Tile: tile}
}

// addMesh registra uma malha. A versão 0 força o primeiro envio de cores.
func (tm *TileModel) addMesh(node *scene.Node, geo meshing.GeometryData) {
	tm.nodes = append(tm.nodes, node)
	tm.vertices = append(tm.vertices, geo.Vertices)
	tm.colors = append(tm.colors, geo.Colors)
	tm.versions = append(tm.versions, 0)
	tm.uploaded = append(tm.uploaded, false)
	tm.Models = append(tm.Models, rl.Model{})
}

// ObjectBounds calcula a caixa envolvente da faixa [start, start+count) da malha meshID.
func (tm *TileModel) ObjectBounds(meshID, start, count int) (rl.BoundingBox, bool) {
	if meshID < 0 || meshID >= len(tm.vertices) || count <= 0 || start < 0 {
		return rl.BoundingBox{}, false
	}
	verts := tm.vertices[meshID]
	end := start + count
	if end*3 > len(verts) {
		end = len(verts) / 3
	}
	if start >= end {
		return rl.BoundingBox{}, false
	}

	inf := float32(math.Inf(1))
	box := rl.BoundingBox{
		Min: rl.Vector3{X: inf, Y: inf, Z: inf},
		Max: rl.Vector3{X: -inf, Y: -inf, Z: -inf},
	}
	for i := start; i < end; i++ {
		x, y, z := verts[i*3], verts[i*3+1], verts[i*3+2]
		box.Min = rl.Vector3{X: min(box.Min.X, x), Y: min(box.Min.Y, y), Z: min(box.Min.Z, z)}
		box.Max = rl.Vector3{X: max(box.Max.X, x), Y: max(box.Max.Y, y), Z: max(box.Max.Z, z)}
	}
	return box, true
}

func (tm *TileModel) unload() {
	for i, m := range tm.Models {
		if tm.uploaded[i] {
			rl.UnloadModel(m)
			tm.uploaded[i] = false
		}
	}
}
