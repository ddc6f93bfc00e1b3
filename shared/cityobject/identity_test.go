package cityobject

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMakeIdentity(t *testing.T) {
	tests := []struct {
		name    string
		src     map[string]any
		want    Identity
		wantErr bool
	}{
		{"escalar int", map[string]any{"tileId": 3, "batchId": 7}, ScalarIdentity(3, 7), false},
		{"escalar float", map[string]any{"tileId": 3.0, "batchId": float32(7)}, ScalarIdentity(3, 7), false},
		{"composto", map[string]any{"tileId": 1, "batchId": []any{1, 2.0, uint32(3)}}, CompositeIdentity(1, 1, 2, 3), false},
		{"composto []int", map[string]any{"tileId": 1, "batchId": []int{4, 5}}, CompositeIdentity(1, 4, 5), false},
		{"vazio", map[string]any{}, Identity{}, true},
		{"nil", nil, Identity{}, true},
		{"tileId texto", map[string]any{"tileId": "3", "batchId": 7}, Identity{}, true},
		{"batchId ausente", map[string]any{"tileId": 3}, Identity{}, true},
		{"batchId fracionário", map[string]any{"tileId": 3, "batchId": 1.5}, Identity{}, true},
		{"sequência com texto", map[string]any{"tileId": 3, "batchId": []any{1, "x"}}, Identity{}, true},
		{"sequência vazia", map[string]any{"tileId": 3, "batchId": []any{}}, Identity{}, true},
		{"float fora da faixa", map[string]any{"tileId": 3, "batchId": 1e300}, Identity{}, true},
		{"float negativo fora da faixa", map[string]any{"tileId": -1e19, "batchId": 1}, Identity{}, true},
		{"uint64 acima de MaxInt", map[string]any{"tileId": 3, "batchId": uint64(1 << 63)}, Identity{}, true},
		{"sequência com uint64 grande", map[string]any{"tileId": 3, "batchId": []any{1, uint64(math.MaxUint64)}}, Identity{}, true},
		{"json.Number fora da faixa", map[string]any{"tileId": 3, "batchId": json.Number("1e300")}, Identity{}, true},
		{"uint64 no limite", map[string]any{"tileId": 3, "batchId": uint64(math.MaxInt)}, ScalarIdentity(3, math.MaxInt), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MakeIdentity(tt.src)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidIdentity)
				return
			}
			require.NoError(t, err)
			assert.True(t, got.Equal(tt.want), "got %v want %v", got, tt.want)
		})
	}
}

func TestIdentityEquality(t *testing.T) {
	a, err := MakeIdentity(map[string]any{"tileId": 3, "batchId": 7})
	require.NoError(t, err)

	assert.True(t, a.Equal(a))
	assert.True(t, a.Equal(ScalarIdentity(3, 7)))
	assert.False(t, a.Equal(ScalarIdentity(3, 8)))
	assert.False(t, a.Equal(ScalarIdentity(4, 7)))
	assert.False(t, a.Equal(CompositeIdentity(3, 7)))
	assert.True(t, CompositeIdentity(1, 2, 3).Equal(CompositeIdentity(1, 2, 3)))
	assert.False(t, CompositeIdentity(1, 2, 3).Equal(CompositeIdentity(1, 3, 2)))

	assert.Equal(t, "3:7", a.Key())
	assert.Equal(t, "1:[2,3]", CompositeIdentity(1, 2, 3).Key())
	assert.NotEqual(t, ScalarIdentity(3, 7).Key(), CompositeIdentity(3, 7).Key())
}

func TestIdentityJSON(t *testing.T) {
	id, err := ParseIdentity([]byte(`{"tileId": 4, "batchId": [1, 2]}`))
	require.NoError(t, err)
	assert.True(t, id.Equal(CompositeIdentity(4, 1, 2)))

	data, err := json.Marshal(ScalarIdentity(4, 9))
	require.NoError(t, err)
	assert.JSONEq(t, `{"tileId": 4, "batchId": 9}`, string(data))

	var back Identity
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, back.Equal(ScalarIdentity(4, 9)))

	_, err = ParseIdentity([]byte(`{"tileId": 3, "batchId": 1e300}`))
	assert.ErrorIs(t, err, ErrInvalidIdentity)

	_, err = ParseIdentity([]byte(`not json`))
	assert.ErrorIs(t, err, ErrInvalidIdentity)
}
