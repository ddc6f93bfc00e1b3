package cityobject

import (
	"testing"

	"CityVision/shared/scene"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManagerLoadMakesTilePickable(t *testing.T) {
	m := NewManager("predios", nil)
	tile := twoMeshTile()

	reg, err := m.Load(tile)
	require.NoError(t, err)
	assert.Equal(t, scene.StatePickable, tile.State())
	assert.Equal(t, 3, reg.Len())

	got, ok := m.Registry(tile.ID)
	require.True(t, ok)
	assert.Same(t, reg, got)
	assert.Equal(t, []*scene.Node{tile.Root}, m.Roots())

	co, ok := m.CityObject(ScalarIdentity(5, 1))
	require.True(t, ok)
	assert.Equal(t, 1, co.BatchID)

	objs := m.CityObjects(CompositeIdentity(5, 0, 2, 99))
	require.Len(t, objs, 2)
	assert.Equal(t, 0, objs[0].BatchID)
	assert.Equal(t, 2, objs[1].BatchID)
}

func TestManagerEvict(t *testing.T) {
	m := NewManager("predios", nil)
	tile := twoMeshTile()
	_, err := m.Load(tile)
	require.NoError(t, err)

	var evicted []int
	m.OnEvict(func(t *scene.Tile) { evicted = append(evicted, t.ID) })

	co, _ := m.CityObject(ScalarIdentity(5, 0))

	assert.True(t, m.Evict(5))
	assert.False(t, m.Evict(5))
	assert.Equal(t, []int{5}, evicted)
	assert.Equal(t, scene.StateEvicted, tile.State())
	assert.Equal(t, 0, m.Len())

	_, ok := m.Registry(5)
	assert.False(t, ok)
	assert.ErrorIs(t, SetHighlight(co, 1), ErrEvicted)
}

func TestManagerReplacesTileWithSameID(t *testing.T) {
	m := NewManager("predios", nil)
	old := twoMeshTile()
	_, err := m.Load(old)
	require.NoError(t, err)

	fresh := buildTile(5, nil, meshSpec{positions: repeat(mgl32.Vec3{}, 3), batchIDs: []uint32{8, 8, 8}})
	reg, err := m.Load(fresh)
	require.NoError(t, err)

	assert.Equal(t, scene.StateEvicted, old.State())
	assert.Equal(t, 1, reg.Len())
	got, ok := m.Tile(5)
	require.True(t, ok)
	assert.Same(t, fresh, got)
}

func TestManagerLoadWithoutContent(t *testing.T) {
	m := NewManager("predios", nil)
	_, err := m.Load(scene.NewTile(1, nil))
	assert.ErrorIs(t, err, ErrNoContent)
	assert.Equal(t, 0, m.Len())
}
