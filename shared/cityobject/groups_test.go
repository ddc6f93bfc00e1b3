package cityobject

import (
	"testing"

	"CityVision/shared/scene"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoMeshTile() *scene.Tile {
	return buildTile(5, nil,
		meshSpec{positions: repeat(mgl32.Vec3{}, 6), batchIDs: []uint32{0, 0, 0, 1, 1, 1}},
		meshSpec{positions: repeat(mgl32.Vec3{}, 3)},
	)
}

func TestAssignGroupsIsIdempotent(t *testing.T) {
	tile := twoMeshTile()
	reg, err := Decompose(tile)
	require.NoError(t, err)

	highlight := scene.NewMaterial("destaque", 0, 0, 255, 255)
	a := NewGroupAssigner(highlight)
	meshes := tile.Meshes()
	original := meshes[0].Mesh.Materials[0]

	a.AssignGroups(tile, reg)
	firstGroups := meshes[0].Mesh.Geometry.Groups()

	a.AssignGroups(tile, reg)
	secondGroups := meshes[0].Mesh.Geometry.Groups()

	assert.Equal(t, firstGroups, secondGroups)
	assert.Equal(t, []scene.Group{{Start: 0, Count: 3, MaterialIndex: 0}, {Start: 3, Count: 3, MaterialIndex: 0}}, secondGroups)
	assert.Equal(t, 1, meshes[1].Mesh.Geometry.GroupCount())

	require.Len(t, meshes[0].Mesh.Materials, 2)
	assert.Same(t, original, meshes[0].Mesh.Materials[0])
	assert.Same(t, highlight, meshes[0].Mesh.Materials[1])

	co, _ := reg.Get(1)
	assert.Equal(t, 1, co.GroupID)
	synth, _ := reg.Get(2)
	assert.Equal(t, 0, synth.GroupID)
}

func TestAssignGroupsWithExplicitMaterials(t *testing.T) {
	tile := twoMeshTile()
	reg, err := Decompose(tile)
	require.NoError(t, err)

	red := scene.NewMaterial("red", 255, 0, 0, 255)
	green := scene.NewMaterial("green", 0, 255, 0, 255)
	NewGroupAssigner(nil).AssignGroups(tile, reg, red, green)

	mats := tile.Meshes()[1].Mesh.Materials
	require.Len(t, mats, 3)
	assert.Same(t, red, mats[1])
	assert.Same(t, green, mats[2])
}

func TestAssignGroupsWithoutContent(t *testing.T) {
	tile := scene.NewTile(1, nil)
	assert.NotPanics(t, func() {
		NewGroupAssigner(nil).AssignGroups(tile, nil)
	})
}

func TestSetHighlight(t *testing.T) {
	tile := twoMeshTile()
	reg, err := Decompose(tile)
	require.NoError(t, err)
	NewGroupAssigner(nil).AssignGroups(tile, reg)

	co, _ := reg.Get(1)
	geom := tile.Meshes()[0].Mesh.Geometry
	before := geom.Version()

	require.NoError(t, SetHighlight(co, 1))
	assert.Greater(t, geom.Version(), before)

	groups := geom.Groups()
	assert.Equal(t, 0, groups[0].MaterialIndex)
	assert.Equal(t, 1, groups[1].MaterialIndex)

	require.NoError(t, SetHighlight(co, 0))
	assert.Equal(t, 0, geom.Groups()[1].MaterialIndex)
}

func TestSetHighlightErrors(t *testing.T) {
	tile := twoMeshTile()
	reg, err := Decompose(tile)
	require.NoError(t, err)

	co, _ := reg.Get(0)

	// antes da atribuição não existe grupo
	assert.ErrorIs(t, SetHighlight(co, 0), ErrInvalidSlot)

	NewGroupAssigner(nil).AssignGroups(tile, reg)
	assert.ErrorIs(t, SetHighlight(co, 2), ErrInvalidSlot)
	assert.ErrorIs(t, SetHighlight(co, -1), ErrInvalidSlot)
	assert.ErrorIs(t, SetHighlight(nil, 0), ErrInvalidSlot)

	require.NoError(t, tile.Advance(scene.StateEvicted))
	assert.ErrorIs(t, SetHighlight(co, 1), ErrEvicted)
}
