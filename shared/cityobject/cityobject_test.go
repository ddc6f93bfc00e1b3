package cityobject

import (
	"math"
	"testing"

	"CityVision/shared/scene"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// meshSpec descreve uma malha de teste: posições (uma por vértice) e batch ids opcionais.
type meshSpec struct {
	positions []mgl32.Vec3
	batchIDs  []uint32
	matrix    mgl32.Mat4
}

func flat(ps []mgl32.Vec3) []float32 {
	out := make([]float32, 0, len(ps)*3)
	for _, p := range ps {
		out = append(out, p[0], p[1], p[2])
	}
	return out
}

func repeat(p mgl32.Vec3, n int) []mgl32.Vec3 {
	out := make([]mgl32.Vec3, n)
	for i := range out {
		out[i] = p
	}
	return out
}

func buildTile(id int, bt *scene.BatchTable, meshes ...meshSpec) *scene.Tile {
	tile := scene.NewTile(id, bt)
	content := scene.NewGroup("content")
	for _, m := range meshes {
		geom := scene.NewGeometry(flat(m.positions), m.batchIDs)
		node := scene.NewMeshNode("mesh", scene.NewMesh(geom, scene.NewMaterial("base", 200, 200, 200, 255)))
		if m.matrix != (mgl32.Mat4{}) {
			node.Matrix = m.matrix
		}
		content.Add(node)
	}
	tile.SetContent(content)
	return tile
}

func TestDecomposeWithoutBatchIDs(t *testing.T) {
	tile := buildTile(1, nil,
		meshSpec{positions: repeat(mgl32.Vec3{1, 0, 0}, 3)},
		meshSpec{positions: repeat(mgl32.Vec3{0, 1, 0}, 6)},
		meshSpec{positions: repeat(mgl32.Vec3{0, 0, 1}, 9)},
	)

	reg, err := Decompose(tile)
	require.NoError(t, err)
	require.Equal(t, 3, reg.Len())

	wantCounts := []int{3, 6, 9}
	for i, co := range reg.All() {
		assert.Equal(t, i, co.BatchID)
		assert.Equal(t, i, co.MeshID)
		assert.Equal(t, 0, co.IndexStart)
		assert.Equal(t, wantCounts[i], co.IndexCount)
		assert.Equal(t, wantCounts[i]-1, co.IndexEnd())
	}

	// buffer constante anexado à geometria
	for i, node := range tile.Meshes() {
		geom := node.Mesh.Geometry
		require.True(t, geom.HasBatchIDs())
		for _, b := range geom.BatchIDs {
			assert.Equal(t, uint32(i), b)
		}
	}
}

func TestDecomposeSynthesizedSkipsUsedIDs(t *testing.T) {
	tile := buildTile(1, nil,
		meshSpec{positions: repeat(mgl32.Vec3{}, 3), batchIDs: []uint32{0, 0, 1}},
		meshSpec{positions: repeat(mgl32.Vec3{}, 3)},
	)

	reg, err := Decompose(tile)
	require.NoError(t, err)

	co, ok := reg.Get(2)
	require.True(t, ok)
	assert.Equal(t, 1, co.MeshID)
	assert.Equal(t, 3, co.IndexCount)
}

func TestDecomposeContiguousRuns(t *testing.T) {
	bt := scene.NewBatchTable()
	bt.SetColumn("name", []any{"prefeitura", "escola", "museu"})
	bt.SetColumn("height", []any{12.5, 30.0})

	tile := buildTile(7, bt, meshSpec{
		positions: repeat(mgl32.Vec3{}, 6),
		batchIDs:  []uint32{0, 0, 1, 1, 1, 2},
	})

	reg, err := Decompose(tile)
	require.NoError(t, err)

	tests := []struct {
		batch      int
		start, cnt int
		props      map[string]any
	}{
		{0, 0, 2, map[string]any{"name": "prefeitura", "height": 12.5}},
		{1, 2, 3, map[string]any{"name": "escola", "height": 30.0}},
		{2, 5, 1, map[string]any{"name": "museu"}},
	}
	for _, tt := range tests {
		co, ok := reg.Get(tt.batch)
		require.True(t, ok, "batch %d", tt.batch)
		assert.Equal(t, tt.start, co.IndexStart)
		assert.Equal(t, tt.cnt, co.IndexCount)
		assert.Equal(t, tt.props, co.Props)
	}
}

func TestDecomposeNonContiguousRunOverwritesCount(t *testing.T) {
	tile := buildTile(1, nil, meshSpec{
		positions: repeat(mgl32.Vec3{}, 6),
		batchIDs:  []uint32{0, 0, 1, 1, 1, 0},
	})

	reg, err := Decompose(tile)
	require.NoError(t, err)
	require.Equal(t, 2, reg.Len())

	zero, _ := reg.Get(0)
	one, _ := reg.Get(1)

	// IndexStart fica no primeiro run; IndexCount vem do último run.
	assert.Equal(t, 0, zero.IndexStart)
	assert.Equal(t, 6, zero.IndexCount)
	assert.Equal(t, 5, zero.IndexEnd())

	// a faixa resultante não é a união dos runs: ela cobre os vértices do id 1
	assert.LessOrEqual(t, zero.IndexStart, one.IndexStart)
	assert.GreaterOrEqual(t, zero.IndexEnd(), one.IndexEnd())
}

func TestDecomposeIDAcrossMeshesKeepsFirstMesh(t *testing.T) {
	tile := buildTile(1, nil,
		meshSpec{positions: repeat(mgl32.Vec3{}, 3), batchIDs: []uint32{4, 4, 5}},
		meshSpec{positions: repeat(mgl32.Vec3{}, 4), batchIDs: []uint32{6, 6, 6, 4}},
	)

	reg, err := Decompose(tile)
	require.NoError(t, err)

	co, ok := reg.Get(4)
	require.True(t, ok)
	assert.Equal(t, 0, co.MeshID)
	assert.Equal(t, 0, co.IndexStart)
	assert.Equal(t, 4, co.IndexCount)
	assert.Equal(t, 3, reg.Len())
}

func TestDecomposeCentroid(t *testing.T) {
	tests := []struct {
		name   string
		mesh   meshSpec
		batch  int
		expect mgl32.Vec3
	}{
		{
			name:   "posição constante com translação",
			mesh:   meshSpec{positions: repeat(mgl32.Vec3{1, 2, 3}, 4), batchIDs: []uint32{9, 9, 9, 9}, matrix: mgl32.Translate3D(10, 0, -5)},
			batch:  9,
			expect: mgl32.Vec3{11, 2, -2},
		},
		{
			name: "média de um run",
			mesh: meshSpec{
				positions: []mgl32.Vec3{{0, 0, 0}, {2, 0, 0}, {2, 4, 0}, {100, 100, 100}},
				batchIDs:  []uint32{1, 1, 1, 2},
			},
			batch:  1,
			expect: mgl32.Vec3{4.0 / 3, 4.0 / 3, 0},
		},
		{
			name:   "escala",
			mesh:   meshSpec{positions: repeat(mgl32.Vec3{1, 1, 1}, 2), matrix: mgl32.Scale3D(2, 3, 4)},
			batch:  0,
			expect: mgl32.Vec3{2, 3, 4},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg, err := Decompose(buildTile(1, nil, tt.mesh))
			require.NoError(t, err)
			co, ok := reg.Get(tt.batch)
			require.True(t, ok)
			assert.False(t, co.Degenerate())
			for i := 0; i < 3; i++ {
				assert.InDelta(t, tt.expect[i], co.Centroid[i], 1e-4)
			}
		})
	}
}

func TestDecomposeEmptyMeshIsDegenerate(t *testing.T) {
	reg, err := Decompose(buildTile(1, nil, meshSpec{}))
	require.NoError(t, err)

	co, ok := reg.Get(0)
	require.True(t, ok)
	assert.Equal(t, 0, co.IndexCount)
	assert.True(t, co.Degenerate())
	assert.True(t, math.IsNaN(float64(co.Centroid.X())))
}

func TestDecomposeNoContent(t *testing.T) {
	_, err := Decompose(nil)
	assert.ErrorIs(t, err, ErrNoContent)

	_, err = Decompose(scene.NewTile(2, nil))
	assert.ErrorIs(t, err, ErrNoContent)
}

func TestDecomposeReturnsFreshRegistry(t *testing.T) {
	tile := buildTile(1, nil, meshSpec{positions: repeat(mgl32.Vec3{}, 2), batchIDs: []uint32{3, 3}})

	first, err := Decompose(tile)
	require.NoError(t, err)
	second, err := Decompose(tile)
	require.NoError(t, err)

	a, _ := first.Get(3)
	b, _ := second.Get(3)
	assert.NotSame(t, a, b)
	assert.Equal(t, a.IndexCount, b.IndexCount)
}

func TestDefaultStyleID(t *testing.T) {
	tile := buildTile(12, nil,
		meshSpec{positions: repeat(mgl32.Vec3{}, 1)},
		meshSpec{positions: repeat(mgl32.Vec3{}, 1)},
	)
	reg, err := Decompose(tile)
	require.NoError(t, err)

	co, _ := reg.Get(1)
	assert.Equal(t, "default12m1", co.DefaultStyleID())
	assert.True(t, co.Identity().Equal(ScalarIdentity(12, 1)))
}
