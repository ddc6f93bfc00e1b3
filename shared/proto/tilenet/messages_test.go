package tilenet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"
)

func TestEnvelopeCarriesTileContent(t *testing.T) {
	content := &TileContent{TileID: 12, MTime: 1700000000123, Layer: "predios", Content: []byte{1, 2, 3}}
	data := Wrap(Envelope_TILE_CONTENT, content)

	var env Envelope
	require.NoError(t, env.Unmarshal(data))
	assert.Equal(t, Envelope_TILE_CONTENT, env.Type)

	var got TileContent
	require.NoError(t, got.Unmarshal(env.Payload))
	assert.Equal(t, *content, got)
}

func TestPingHasNoPayload(t *testing.T) {
	var env Envelope
	require.NoError(t, env.Unmarshal(Wrap(Envelope_PING, nil)))
	assert.Equal(t, Envelope_PING, env.Type)
	assert.Empty(t, env.Payload)
}

func TestRequestTilesPacked(t *testing.T) {
	req := &RequestTiles{TileIDs: []int32{0, 5, -1}, KnownMTimes: []int64{0, 99, 7}}
	var got RequestTiles
	require.NoError(t, got.Unmarshal(req.Marshal()))
	assert.Equal(t, req.TileIDs, got.TileIDs)
	assert.Equal(t, req.KnownMTimes, got.KnownMTimes)
}

func TestServerStatusAndIndex(t *testing.T) {
	st := &ServerStatus{Version: "1.0", Dataset: "demo", TileCount: 4, Layers: []string{"predios", "ruas"}}
	var gotSt ServerStatus
	require.NoError(t, gotSt.Unmarshal(st.Marshal()))
	assert.Equal(t, *st, gotSt)

	idx := &TileIndex{Tiles: []TileSummary{{TileID: 0, MTime: 10, Layer: "predios", Name: "a"}, {TileID: 3, MTime: 11}}}
	var gotIdx TileIndex
	require.NoError(t, gotIdx.Unmarshal(idx.Marshal()))
	assert.Equal(t, idx.Tiles, gotIdx.Tiles)

	var ev TileEvict
	require.NoError(t, ev.Unmarshal((&TileEvict{TileID: 8}).Marshal()))
	assert.Equal(t, int32(8), ev.TileID)
}

func TestUnknownFieldsAreSkipped(t *testing.T) {
	data := (&TileEvict{TileID: 2}).Marshal()
	data = protowire.AppendTag(data, 15, protowire.BytesType)
	data = protowire.AppendString(data, "campo novo")
	data = protowire.AppendTag(data, 16, protowire.Fixed32Type)
	data = protowire.AppendFixed32(data, 42)

	var ev TileEvict
	require.NoError(t, ev.Unmarshal(data))
	assert.Equal(t, int32(2), ev.TileID)
}

func TestMalformed(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"tag truncada", []byte{0x80}},
		{"bytes truncados", []byte{0x12, 0x05, 0x01}},
		{"tipo errado", protowire.AppendFixed32(protowire.AppendTag(nil, 1, protowire.Fixed32Type), 1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var env Envelope
			assert.ErrorIs(t, env.Unmarshal(tt.data), ErrMalformed)
		})
	}
}
