package main

import (
	"testing"
	"time"

	"CityVision/shared/cityobject"
	"CityVision/shared/tiledoc"
	"CityVision/shared/tilestore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureLoadsOnce(t *testing.T) {
	tiles, _ := newTestService(t)

	layer, reg, err := tiles.Ensure(0)
	require.NoError(t, err)
	assert.Equal(t, "predios", layer.ID)
	assert.Equal(t, 4, reg.Len())

	_, again, err := tiles.Ensure(0)
	require.NoError(t, err)
	assert.Same(t, reg, again)

	_, _, err = tiles.Ensure(42)
	assert.ErrorIs(t, err, tilestore.ErrNotFound)
}

func TestImportReplacesLoadedTile(t *testing.T) {
	tiles, _ := newTestService(t)
	_, before, err := tiles.Ensure(0)
	require.NoError(t, err)

	docs := tiledoc.GenerateCity(tiledoc.GeneratorOptions{Seed: 99, TilesX: 1, TilesZ: 1, BuildingsPerTile: 5, Layer: "predios"})
	_, err = tiles.Import(docs)
	require.NoError(t, err)

	_, after, err := tiles.Ensure(0)
	require.NoError(t, err)
	assert.NotSame(t, before, after)
	assert.Equal(t, 6, after.Len())
}

func TestCityObjectsByIdentity(t *testing.T) {
	tiles, _ := newTestService(t)

	_, objs, err := tiles.CityObjects(cityobject.CompositeIdentity(1, 0, 1, 7))
	require.NoError(t, err)
	require.Len(t, objs, 2)
	assert.Equal(t, 0, objs[0].BatchID)
	assert.Equal(t, 1, objs[1].BatchID)
}

func TestIndexAndContent(t *testing.T) {
	tiles, _ := newTestService(t)

	idx, err := tiles.Index()
	require.NoError(t, err)
	require.Len(t, idx.Tiles, 2)

	c, err := tiles.Content(0, 0)
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, idx.Tiles[0].MTime, c.MTime)

	c, err = tiles.Content(0, idx.Tiles[0].MTime)
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestRemoveAndPurge(t *testing.T) {
	tiles, store := newTestService(t)
	_, _, err := tiles.Ensure(1)
	require.NoError(t, err)

	require.NoError(t, tiles.Remove(1))
	_, _, err = tiles.Ensure(1)
	assert.ErrorIs(t, err, tilestore.ErrNotFound)

	_, _, err = tiles.Ensure(0)
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	assert.Equal(t, 1, tiles.Purge(time.Millisecond))
	assert.Empty(t, store.CachedIDs())

	layer, ok := tiles.picker.Layer("predios")
	require.True(t, ok)
	assert.Equal(t, 0, layer.Manager.Len())
}
