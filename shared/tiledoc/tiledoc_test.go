package tiledoc

import (
	"os"
	"path/filepath"
	"testing"

	"CityVision/shared/cityobject"
	"CityVision/shared/scene"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func demoOptions() GeneratorOptions {
	return GeneratorOptions{Seed: 42, TilesX: 2, TilesZ: 1, BuildingsPerTile: 4, Layer: "predios"}
}

func TestGenerateCity(t *testing.T) {
	docs := GenerateCity(demoOptions())
	require.Len(t, docs, 2)

	doc := docs[1]
	assert.Equal(t, 1, doc.ID)
	assert.Equal(t, "predios", doc.Layer)
	require.Len(t, doc.Meshes, 2)
	assert.Len(t, doc.Meshes[0].BatchIDs, 4*36)
	assert.Nil(t, doc.Meshes[1].BatchIDs)
	assert.Len(t, doc.Columns["name"], 4)
	assert.Equal(t, 5*36, doc.VertexCount())

	// determinístico pela semente
	again := GenerateCity(demoOptions())
	assert.Equal(t, docs[0].Columns, again[0].Columns)
}

func TestEncodeDecode(t *testing.T) {
	doc := GenerateCity(demoOptions())[0]
	data, err := Encode(doc)
	require.NoError(t, err)

	back, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, doc.ID, back.ID)
	assert.Equal(t, doc.Matrix, back.Matrix)
	assert.Equal(t, doc.Columns["name"], back.Columns["name"])
	assert.Equal(t, doc.Meshes[0].BatchIDs, back.Meshes[0].BatchIDs)

	_, err = Decode([]byte("lixo"))
	assert.Error(t, err)
}

func TestBuildAndDecompose(t *testing.T) {
	doc := GenerateCity(demoOptions())[1]
	tile := doc.Build()

	assert.Equal(t, scene.StateLoading, tile.State())
	require.Len(t, tile.Meshes(), 2)

	reg, err := cityobject.Decompose(tile)
	require.NoError(t, err)
	// 4 prédios + o chão sintetizado com o próximo id livre
	assert.Equal(t, 5, reg.Len())

	ground, ok := reg.Get(4)
	require.True(t, ok)
	assert.Equal(t, 1, ground.MeshID)
	assert.Equal(t, 36, ground.IndexCount)

	b0, ok := reg.Get(0)
	require.True(t, ok)
	assert.Equal(t, 36, b0.IndexCount)
	assert.Equal(t, doc.Columns["use"][0], b0.Props["use"])
	// centroide no espaço do mundo: deslocado pela matriz do tile
	assert.Greater(t, b0.Centroid.X(), float32(TileSize))
}

func TestLoadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dataset.json")
	data := `[{"id": 9, "name": "centro", "columns": {"name": ["a", "b"]},
		"meshes": [{"name": "m", "positions": [0,0,0, 1,0,0, 1,1,0], "batchIds": [1,1,1], "color": [255,0,0,255]}]}]`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	docs, err := LoadJSON(path)
	require.NoError(t, err)
	require.Len(t, docs, 1)

	tile := docs[0].Build()
	assert.Equal(t, 9, tile.ID)
	assert.Equal(t, mgl32.Ident4(), tile.Root.Matrix)

	reg, err := cityobject.Decompose(tile)
	require.NoError(t, err)
	co, ok := reg.Get(1)
	require.True(t, ok)
	assert.Equal(t, map[string]any{"name": "b"}, co.Props)
}

func TestBuildDefaultColor(t *testing.T) {
	doc := &TileDoc{ID: 1, Meshes: []MeshDoc{{Positions: []float32{0, 0, 0, 1, 0, 0, 1, 1, 0}}}}
	tile := doc.Build()
	meshes := tile.Meshes()
	require.Len(t, meshes, 1)
	assert.Equal(t, scene.DefaultBuildingColor, meshes[0].Mesh.Materials[0].Color)
	assert.Equal(t, "mesh-0", meshes[0].Name)
}

func TestBox(t *testing.T) {
	verts := Box(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{1, 2, 3})
	assert.Len(t, verts, 36*3)
	for i := 0; i < len(verts); i += 3 {
		assert.Contains(t, []float32{0, 1}, verts[i])
		assert.Contains(t, []float32{0, 2}, verts[i+1])
		assert.Contains(t, []float32{0, 3}, verts[i+2])
	}
}
