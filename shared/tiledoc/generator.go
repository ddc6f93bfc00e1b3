package tiledoc

import (
	"fmt"
	"math/rand"

	"github.com/go-gl/mathgl/mgl32"
)

// TileSize é o lado de um tile da cidade de demonstração, em unidades de mundo.
const TileSize = 200

var (
	usos = []string{"residencial", "comercial", "escola", "hospital", "industrial", "prefeitura"}

	buildingColor = [4]uint8{210, 205, 195, 255}
	groundColor   = [4]uint8{90, 120, 80, 255}
)

// GeneratorOptions controla a cidade de demonstração.
type GeneratorOptions struct {
	Seed             int64
	TilesX, TilesZ   int
	BuildingsPerTile int
	Layer            string
}

// GenerateCity cria tiles com prédios (uma malha com batch id por prédio) e um
// chão sem batch ids em cada tile.
func GenerateCity(opts GeneratorOptions) []*TileDoc {
	rng := rand.New(rand.NewSource(opts.Seed))
	var docs []*TileDoc

	id := 0
	for tz := 0; tz < opts.TilesZ; tz++ {
		for tx := 0; tx < opts.TilesX; tx++ {
			doc := &TileDoc{
				ID:      id,
				Name:    fmt.Sprintf("tile_%d_%d", tx, tz),
				Layer:   opts.Layer,
				Matrix:  mgl32.Translate3D(float32(tx*TileSize), 0, float32(tz*TileSize)),
				Columns: map[string][]any{},
			}
			doc.Meshes = append(doc.Meshes, buildings(rng, doc, opts.BuildingsPerTile))
			doc.Meshes = append(doc.Meshes, MeshDoc{
				Name:      "chao",
				Positions: Box(mgl32.Vec3{0, -1, 0}, mgl32.Vec3{TileSize, 0, TileSize}),
				Color:     groundColor,
			})
			docs = append(docs, doc)
			id++
		}
	}
	return docs
}

func buildings(rng *rand.Rand, doc *TileDoc, count int) MeshDoc {
	const grid = 5
	cell := float32(TileSize) / grid

	names := make([]any, count)
	heights := make([]any, count)
	uses := make([]any, count)
	years := make([]any, count)

	mesh := MeshDoc{Name: "predios", Color: buildingColor}
	for b := 0; b < count; b++ {
		cx := float32(b%grid)*cell + cell/2
		cz := float32((b/grid)%grid)*cell + cell/2
		w := cell * (0.4 + 0.4*rng.Float32())
		d := cell * (0.4 + 0.4*rng.Float32())
		h := 10 + rng.Float32()*90

		verts := Box(mgl32.Vec3{cx - w/2, 0, cz - d/2}, mgl32.Vec3{cx + w/2, h, cz + d/2})
		mesh.Positions = append(mesh.Positions, verts...)
		for i := 0; i < len(verts)/3; i++ {
			mesh.BatchIDs = append(mesh.BatchIDs, uint32(b))
		}

		names[b] = fmt.Sprintf("%s/predio_%02d", doc.Name, b)
		heights[b] = float64(int(h*10)) / 10
		uses[b] = usos[rng.Intn(len(usos))]
		if rng.Intn(4) != 0 {
			years[b] = 1900 + rng.Intn(120)
		}
	}

	doc.Columns["name"] = names
	doc.Columns["height"] = heights
	doc.Columns["use"] = uses
	doc.Columns["year"] = years
	return mesh
}

// Box gera os 36 vértices (12 triângulos) de uma caixa alinhada aos eixos.
func Box(lo, hi mgl32.Vec3) []float32 {
	c := [8]mgl32.Vec3{
		{lo[0], lo[1], lo[2]}, {hi[0], lo[1], lo[2]}, {hi[0], hi[1], lo[2]}, {lo[0], hi[1], lo[2]},
		{lo[0], lo[1], hi[2]}, {hi[0], lo[1], hi[2]}, {hi[0], hi[1], hi[2]}, {lo[0], hi[1], hi[2]},
	}
	faces := [6][4]int{
		{4, 5, 6, 7}, // frente (+z)
		{1, 0, 3, 2}, // trás (-z)
		{5, 1, 2, 6}, // direita (+x)
		{0, 4, 7, 3}, // esquerda (-x)
		{7, 6, 2, 3}, // topo (+y)
		{0, 1, 5, 4}, // base (-y)
	}

	out := make([]float32, 0, 36*3)
	for _, f := range faces {
		for _, i := range []int{f[0], f[1], f[2], f[0], f[2], f[3]} {
			out = append(out, c[i][0], c[i][1], c[i][2])
		}
	}
	return out
}
