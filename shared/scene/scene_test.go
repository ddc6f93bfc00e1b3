package scene

import (
	"errors"
	"testing"

	"CityVision/shared/util"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// quad cria dois triângulos no plano z=0 cobrindo [0,size]x[0,size].
func quad(size float32) []float32 {
	return []float32{
		0, 0, 0, size, 0, 0, size, size, 0,
		0, 0, 0, size, size, 0, 0, size, 0,
	}
}

func TestNodeWorldMatrix(t *testing.T) {
	root := NewGroup("root")
	root.Matrix = mgl32.Translate3D(10, 0, 0)
	child := NewGroup("child")
	child.Matrix = mgl32.Translate3D(0, 5, 0)
	root.Add(child)

	p := util.TransformPoint(child.WorldMatrix(), mgl32.Vec3{1, 1, 1})
	assert.InDelta(t, 11, p.X(), 1e-5)
	assert.InDelta(t, 6, p.Y(), 1e-5)
	assert.InDelta(t, 1, p.Z(), 1e-5)
}

func TestNodeAddReparents(t *testing.T) {
	a := NewGroup("a")
	b := NewGroup("b")
	c := NewGroup("c")
	a.Add(c)
	b.Add(c)

	assert.Empty(t, a.Children())
	assert.Equal(t, []*Node{c}, b.Children())
	assert.Same(t, b, c.Parent())
}

func TestBatchTableCapability(t *testing.T) {
	bt := NewBatchTable()
	tile := NewTile(3, bt)
	content := NewGroup("content")
	tile.SetContent(content)
	mesh := NewMeshNode("m0", NewMesh(NewGeometry(quad(1), nil), NewMaterial("m", 1, 1, 1, 255)))
	content.Add(mesh)

	assert.Same(t, bt, tile.Root.BatchTable())
	assert.Nil(t, content.BatchTable())
	assert.Nil(t, mesh.BatchTable())
	assert.Same(t, tile, tile.Root.Tile())
}

func TestBatchTableValue(t *testing.T) {
	bt := NewBatchTable()
	bt.SetColumn("height", []any{10.0, nil, 30.0})
	bt.SetColumn("name", []any{"a"})

	v, ok := bt.Value("height", 0)
	require.True(t, ok)
	assert.Equal(t, 10.0, v)

	_, ok = bt.Value("height", 1)
	assert.False(t, ok)
	_, ok = bt.Value("name", 2)
	assert.False(t, ok)
	_, ok = bt.Value("missing", 0)
	assert.False(t, ok)

	assert.Equal(t, map[string]any{"height": 30.0}, bt.Props(2))
	assert.Equal(t, []string{"height", "name"}, bt.ColumnNames())
	assert.Equal(t, 3, bt.Len())
}

func TestTileTransitions(t *testing.T) {
	tests := []struct {
		name    string
		path    []TileState
		wantErr bool
	}{
		{"ciclo normal", []TileState{StateDecomposed, StatePickable, StateEvicted}, false},
		{"recarga", []TileState{StateDecomposed, StatePickable, StateDecomposed, StatePickable}, false},
		{"pickable sem decompor", []TileState{StatePickable}, true},
		{"evicted é terminal", []TileState{StateEvicted, StateDecomposed}, true},
		{"evict duplo", []TileState{StateEvicted, StateEvicted}, true},
		{"volta para loading", []TileState{StateLoading}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tile := NewTile(1, nil)
			var err error
			for _, s := range tt.path {
				if err = tile.Advance(s); err != nil {
					break
				}
			}
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrInvalidTransition), "erro = %v", err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestGeometryGroupsBumpVersion(t *testing.T) {
	g := NewGeometry(quad(1), nil)
	v0 := g.Version()

	idx := g.AddGroup(0, 3, 0)
	g.AddGroup(3, 3, 0)
	assert.Equal(t, 1, idx)
	assert.Greater(t, g.Version(), v0)

	v1 := g.Version()
	require.NoError(t, g.SetGroupMaterial(1, 1))
	assert.Greater(t, g.Version(), v1)
	assert.Equal(t, 0, g.MaterialAt(2))
	assert.Equal(t, 1, g.MaterialAt(4))

	err := g.SetGroupMaterial(5, 1)
	assert.ErrorIs(t, err, ErrGroupIndex)

	g.ResetGroups()
	assert.Equal(t, 0, g.GroupCount())
}

func TestGeometrySetBatchIDsLength(t *testing.T) {
	g := NewGeometry(quad(1), nil)
	assert.ErrorIs(t, g.SetBatchIDs([]uint32{1, 2}), ErrBatchLength)
	require.NoError(t, g.SetBatchIDs(make([]uint32, 6)))
	assert.True(t, g.HasBatchIDs())
}

func TestRaycastHitsTransformedMesh(t *testing.T) {
	root := NewGroup("root")
	near := NewMeshNode("near", NewMesh(NewGeometry(quad(2), nil), nil))
	near.Matrix = mgl32.Translate3D(0, 0, 5)
	far := NewMeshNode("far", NewMesh(NewGeometry(quad(2), nil), nil))
	far.Visible = false
	root.Add(far)
	root.Add(near)

	ray := util.NewRay(mgl32.Vec3{0.5, 0.25, 20}, mgl32.Vec3{0, 0, -1})
	hits := Raycast(ray, root)

	require.Len(t, hits, 2)
	assert.Same(t, near, hits[0].Node)
	assert.InDelta(t, 15, hits[0].Distance, 1e-4)
	assert.Equal(t, 0, hits[0].FaceIndex)
	assert.Equal(t, 0, hits[0].VertexIndex)
	assert.Same(t, far, hits[1].Node)
	assert.InDelta(t, 20, hits[1].Distance, 1e-4)
}

func TestRaycastMiss(t *testing.T) {
	root := NewGroup("root")
	root.Add(NewMeshNode("m", NewMesh(NewGeometry(quad(1), nil), nil)))

	ray := util.NewRay(mgl32.Vec3{5, 5, 10}, mgl32.Vec3{0, 0, -1})
	assert.Empty(t, Raycast(ray, root))

	behind := util.NewRay(mgl32.Vec3{0.5, 0.2, 10}, mgl32.Vec3{0, 0, 1})
	assert.Empty(t, Raycast(behind, root))
}

func TestHitsBox(t *testing.T) {
	lo := mgl32.Vec3{0, 0, 0}
	hi := mgl32.Vec3{1, 1, 1}

	assert.True(t, HitsBox(util.NewRay(mgl32.Vec3{0.5, 0.5, -5}, mgl32.Vec3{0, 0, 1}), lo, hi))
	assert.True(t, HitsBox(util.NewRay(mgl32.Vec3{0.5, 0.5, 0.5}, mgl32.Vec3{1, 0, 0}), lo, hi))
	assert.False(t, HitsBox(util.NewRay(mgl32.Vec3{2, 0.5, -5}, mgl32.Vec3{0, 0, 1}), lo, hi))
	assert.False(t, HitsBox(util.NewRay(mgl32.Vec3{0.5, 0.5, 5}, mgl32.Vec3{0, 0, 1}), lo, hi))
}
