package main

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"CityVision/shared/proto/tilenet"
	"CityVision/shared/tiledoc"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialTestHub(t *testing.T) *websocket.Conn {
	t.Helper()
	tiles, _ := newTestService(t)
	hub := newHub()
	go hub.run()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		serveWs(hub, tiles, "teste", w, r)
	}))
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEnvelope(t *testing.T, conn *websocket.Conn) tilenet.Envelope {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var env tilenet.Envelope
	require.NoError(t, env.Unmarshal(data))
	return env
}

func send(t *testing.T, conn *websocket.Conn, typ tilenet.Envelope_Type, msg tilenet.Message) {
	t.Helper()
	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, tilenet.Wrap(typ, msg)))
}

func TestStreamHandshake(t *testing.T) {
	conn := dialTestHub(t)

	env := readEnvelope(t, conn)
	require.Equal(t, tilenet.Envelope_SERVER_STATUS, env.Type)
	var status tilenet.ServerStatus
	require.NoError(t, status.Unmarshal(env.Payload))
	assert.Equal(t, "teste", status.Dataset)
	assert.Equal(t, int32(2), status.TileCount)
	assert.Equal(t, []string{"predios"}, status.Layers)

	env = readEnvelope(t, conn)
	require.Equal(t, tilenet.Envelope_TILE_INDEX, env.Type)
	var idx tilenet.TileIndex
	require.NoError(t, idx.Unmarshal(env.Payload))
	require.Len(t, idx.Tiles, 2)
	assert.Equal(t, "tile_0_0", idx.Tiles[0].Name)

	send(t, conn, tilenet.Envelope_PING, nil)
	assert.Equal(t, tilenet.Envelope_PONG, readEnvelope(t, conn).Type)
}

func TestStreamRequestTiles(t *testing.T) {
	conn := dialTestHub(t)
	readEnvelope(t, conn)
	env := readEnvelope(t, conn)
	var idx tilenet.TileIndex
	require.NoError(t, idx.Unmarshal(env.Payload))

	send(t, conn, tilenet.Envelope_REQUEST_TILES, &tilenet.RequestTiles{TileIDs: []int32{1}})
	env = readEnvelope(t, conn)
	require.Equal(t, tilenet.Envelope_TILE_CONTENT, env.Type)

	var content tilenet.TileContent
	require.NoError(t, content.Unmarshal(env.Payload))
	assert.Equal(t, int32(1), content.TileID)
	assert.Equal(t, idx.Tiles[1].MTime, content.MTime)

	doc, err := tiledoc.Decode(content.Content)
	require.NoError(t, err)
	assert.Equal(t, "tile_1_0", doc.Name)
	assert.Len(t, doc.Meshes, 2)

	// tile 0 já conhecido na versão atual é pulado; 99 não existe e vira evict
	send(t, conn, tilenet.Envelope_REQUEST_TILES, &tilenet.RequestTiles{
		TileIDs:     []int32{0, 99},
		KnownMTimes: []int64{idx.Tiles[0].MTime, 0},
	})
	env = readEnvelope(t, conn)
	require.Equal(t, tilenet.Envelope_TILE_EVICT, env.Type)
	var evict tilenet.TileEvict
	require.NoError(t, evict.Unmarshal(env.Payload))
	assert.Equal(t, int32(99), evict.TileID)
}
