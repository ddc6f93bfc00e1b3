package cityobject

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrInvalidIdentity indica um identificador sem tileId numérico ou sem batchId
// (número ou sequência de números).
var ErrInvalidIdentity = errors.New("um city object precisa de tileId e batchId")

// Identity identifica um CityObject de forma estável: tile + batch id, onde o batch id
// pode ser escalar ou composto (sequência).
type Identity struct {
	TileID    int
	BatchID   []int
	composite bool
}

// ScalarIdentity cria um identificador com batch id escalar.
func ScalarIdentity(tileID, batchID int) Identity {
	return Identity{TileID: tileID, BatchID: []int{batchID}}
}

// CompositeIdentity cria um identificador com batch id composto.
func CompositeIdentity(tileID int, batchIDs ...int) Identity {
	ids := make([]int, len(batchIDs))
	copy(ids, batchIDs)
	return Identity{TileID: tileID, BatchID: ids, composite: true}
}

// IsComposite indica se o batch id é uma sequência.
func (id Identity) IsComposite() bool {
	return id.composite
}

// Scalar retorna o batch id escalar.
func (id Identity) Scalar() (int, bool) {
	if id.composite || len(id.BatchID) != 1 {
		return 0, false
	}
	return id.BatchID[0], true
}

// Equal compara estruturalmente.
func (id Identity) Equal(other Identity) bool {
	if id.TileID != other.TileID || id.composite != other.composite || len(id.BatchID) != len(other.BatchID) {
		return false
	}
	for i := range id.BatchID {
		if id.BatchID[i] != other.BatchID[i] {
			return false
		}
	}
	return true
}

// Key retorna uma chave comparável (para uso em maps).
func (id Identity) Key() string {
	if !id.composite {
		if b, ok := id.Scalar(); ok {
			return fmt.Sprintf("%d:%d", id.TileID, b)
		}
	}
	parts := make([]string, len(id.BatchID))
	for i, b := range id.BatchID {
		parts[i] = strconv.Itoa(b)
	}
	return fmt.Sprintf("%d:[%s]", id.TileID, strings.Join(parts, ","))
}

func (id Identity) String() string {
	return id.Key()
}

// MarshalJSON usa a mesma forma aceita por MakeIdentity.
func (id Identity) MarshalJSON() ([]byte, error) {
	var batch any = id.BatchID
	if b, ok := id.Scalar(); ok {
		batch = b
	}
	return json.Marshal(map[string]any{"tileId": id.TileID, "batchId": batch})
}

// UnmarshalJSON aceita {"tileId": n, "batchId": n | [n...]}.
func (id *Identity) UnmarshalJSON(data []byte) error {
	parsed, err := ParseIdentity(data)
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// MakeIdentity valida e normaliza um identificador vindo de dados genéricos.
func MakeIdentity(src map[string]any) (Identity, error) {
	if src == nil {
		return Identity{}, ErrInvalidIdentity
	}

	tile, ok := toInt(src["tileId"])
	if !ok {
		return Identity{}, fmt.Errorf("%w: tileId %v", ErrInvalidIdentity, src["tileId"])
	}

	raw := src["batchId"]
	if b, ok := toInt(raw); ok {
		return ScalarIdentity(tile, b), nil
	}

	ids, ok := toIntSlice(raw)
	if !ok || len(ids) == 0 {
		return Identity{}, fmt.Errorf("%w: batchId %v", ErrInvalidIdentity, raw)
	}
	return CompositeIdentity(tile, ids...), nil
}

// ParseIdentity lê um identificador em JSON.
func ParseIdentity(data []byte) (Identity, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var src map[string]any
	if err := dec.Decode(&src); err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidIdentity, err)
	}
	return MakeIdentity(src)
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int8:
		return int(n), true
	case int16:
		return int(n), true
	case int32:
		return int(n), true
	case int64:
		return int64ToInt(n)
	case uint:
		return uint64ToInt(uint64(n))
	case uint8:
		return int(n), true
	case uint16:
		return int(n), true
	case uint32:
		return uint64ToInt(uint64(n))
	case uint64:
		return uint64ToInt(n)
	case float32:
		return floatToInt(float64(n))
	case float64:
		return floatToInt(n)
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return int64ToInt(i)
		}
		if f, err := n.Float64(); err == nil {
			return floatToInt(f)
		}
	}
	return 0, false
}

func int64ToInt(n int64) (int, bool) {
	if n < math.MinInt || n > math.MaxInt {
		return 0, false
	}
	return int(n), true
}

func uint64ToInt(n uint64) (int, bool) {
	if n > math.MaxInt {
		return 0, false
	}
	return int(n), true
}

// floatToInt aceita só valores inteiros dentro da faixa de int.
func floatToInt(f float64) (int, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	if f < math.MinInt || f >= -math.MinInt {
		return 0, false
	}
	return int(f), true
}

func toIntSlice(v any) ([]int, bool) {
	switch s := v.(type) {
	case []int:
		return s, true
	case []any:
		out := make([]int, len(s))
		for i, e := range s {
			n, ok := toInt(e)
			if !ok {
				return nil, false
			}
			out[i] = n
		}
		return out, true
	case []float64:
		out := make([]int, len(s))
		for i, e := range s {
			n, ok := floatToInt(e)
			if !ok {
				return nil, false
			}
			out[i] = n
		}
		return out, true
	case []uint32:
		out := make([]int, len(s))
		for i, e := range s {
			n, ok := uint64ToInt(uint64(e))
			if !ok {
				return nil, false
			}
			out[i] = n
		}
		return out, true
	}
	return nil, false
}
