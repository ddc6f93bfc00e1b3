package tilenet

import (
	"google.golang.org/protobuf/encoding/protowire"
)

// Envelope_Type identifica o conteúdo de um Envelope.
type Envelope_Type int32

const (
	Envelope_UNKNOWN       Envelope_Type = 0
	Envelope_SERVER_STATUS Envelope_Type = 1
	Envelope_TILE_INDEX    Envelope_Type = 2
	Envelope_REQUEST_TILES Envelope_Type = 3
	Envelope_TILE_CONTENT  Envelope_Type = 4
	Envelope_TILE_EVICT    Envelope_Type = 5
	Envelope_PING          Envelope_Type = 6
	Envelope_PONG          Envelope_Type = 7
)

func (t Envelope_Type) String() string {
	switch t {
	case Envelope_SERVER_STATUS:
		return "SERVER_STATUS"
	case Envelope_TILE_INDEX:
		return "TILE_INDEX"
	case Envelope_REQUEST_TILES:
		return "REQUEST_TILES"
	case Envelope_TILE_CONTENT:
		return "TILE_CONTENT"
	case Envelope_TILE_EVICT:
		return "TILE_EVICT"
	case Envelope_PING:
		return "PING"
	case Envelope_PONG:
		return "PONG"
	default:
		return "UNKNOWN"
	}
}

// Envelope embrulha qualquer mensagem enviada pelo websocket.
type Envelope struct {
	Type    Envelope_Type
	Payload []byte
}

func (m *Envelope) Marshal() []byte {
	var b []byte
	b = appendVarint(b, 1, uint64(m.Type))
	b = appendBytes(b, 2, m.Payload)
	return b
}

func (m *Envelope) Unmarshal(data []byte) error {
	*m = Envelope{}
	return decodeFields(data, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n, err := consumeVarint(typ, b)
			m.Type = Envelope_Type(v)
			return n, err
		case 2:
			v, n, err := consumeBytes(typ, b)
			m.Payload = append([]byte(nil), v...)
			return n, err
		}
		return -1, nil
	})
}

// ServerStatus é enviado logo após a conexão.
type ServerStatus struct {
	Version   string
	Dataset   string
	TileCount int32
	Layers    []string
}

func (m *ServerStatus) Marshal() []byte {
	var b []byte
	b = appendString(b, 1, m.Version)
	b = appendString(b, 2, m.Dataset)
	b = appendVarint(b, 3, uint64(m.TileCount))
	for _, l := range m.Layers {
		b = protowire.AppendTag(b, 4, protowire.BytesType)
		b = protowire.AppendString(b, l)
	}
	return b
}

func (m *ServerStatus) Unmarshal(data []byte) error {
	*m = ServerStatus{}
	return decodeFields(data, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n, err := consumeBytes(typ, b)
			m.Version = string(v)
			return n, err
		case 2:
			v, n, err := consumeBytes(typ, b)
			m.Dataset = string(v)
			return n, err
		case 3:
			v, n, err := consumeVarint(typ, b)
			m.TileCount = int32(v)
			return n, err
		case 4:
			v, n, err := consumeBytes(typ, b)
			if err == nil {
				m.Layers = append(m.Layers, string(v))
			}
			return n, err
		}
		return -1, nil
	})
}

// TileSummary descreve um tile disponível no servidor.
type TileSummary struct {
	TileID int32
	MTime  int64
	Layer  string
	Name   string
}

func (m *TileSummary) Marshal() []byte {
	var b []byte
	b = appendSint(b, 1, int64(m.TileID))
	b = appendVarint(b, 2, uint64(m.MTime))
	b = appendString(b, 3, m.Layer)
	b = appendString(b, 4, m.Name)
	return b
}

func (m *TileSummary) Unmarshal(data []byte) error {
	*m = TileSummary{}
	return decodeFields(data, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n, err := consumeVarint(typ, b)
			m.TileID = int32(protowire.DecodeZigZag(v))
			return n, err
		case 2:
			v, n, err := consumeVarint(typ, b)
			m.MTime = int64(v)
			return n, err
		case 3:
			v, n, err := consumeBytes(typ, b)
			m.Layer = string(v)
			return n, err
		case 4:
			v, n, err := consumeBytes(typ, b)
			m.Name = string(v)
			return n, err
		}
		return -1, nil
	})
}

// TileIndex lista os tiles disponíveis.
type TileIndex struct {
	Tiles []TileSummary
}

func (m *TileIndex) Marshal() []byte {
	var b []byte
	for i := range m.Tiles {
		b = protowire.AppendTag(b, 1, protowire.BytesType)
		b = protowire.AppendBytes(b, m.Tiles[i].Marshal())
	}
	return b
}

func (m *TileIndex) Unmarshal(data []byte) error {
	*m = TileIndex{}
	return decodeFields(data, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num != 1 {
			return -1, nil
		}
		v, n, err := consumeBytes(typ, b)
		if err != nil {
			return n, err
		}
		var s TileSummary
		if err := s.Unmarshal(v); err != nil {
			return n, err
		}
		m.Tiles = append(m.Tiles, s)
		return n, nil
	})
}

// RequestTiles pede o conteúdo de tiles. KnownMTimes (paralelo a TileIDs, opcional)
// permite ao servidor pular tiles que o cliente já tem na versão atual.
type RequestTiles struct {
	TileIDs     []int32
	KnownMTimes []int64
}

func (m *RequestTiles) Marshal() []byte {
	var b []byte
	if len(m.TileIDs) > 0 {
		var packed []byte
		for _, id := range m.TileIDs {
			packed = protowire.AppendVarint(packed, protowire.EncodeZigZag(int64(id)))
		}
		b = protowire.AppendTag(b, 1, protowire.BytesType)
		b = protowire.AppendBytes(b, packed)
	}
	if len(m.KnownMTimes) > 0 {
		var packed []byte
		for _, t := range m.KnownMTimes {
			packed = protowire.AppendVarint(packed, uint64(t))
		}
		b = protowire.AppendTag(b, 2, protowire.BytesType)
		b = protowire.AppendBytes(b, packed)
	}
	return b
}

func (m *RequestTiles) Unmarshal(data []byte) error {
	*m = RequestTiles{}
	return decodeFields(data, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num != 1 && num != 2 {
			return -1, nil
		}
		packed, n, err := consumeBytes(typ, b)
		if err != nil {
			return n, err
		}
		for len(packed) > 0 {
			v, k := protowire.ConsumeVarint(packed)
			if k < 0 {
				return n, ErrMalformed
			}
			packed = packed[k:]
			if num == 1 {
				m.TileIDs = append(m.TileIDs, int32(protowire.DecodeZigZag(v)))
			} else {
				m.KnownMTimes = append(m.KnownMTimes, int64(v))
			}
		}
		return n, nil
	})
}

// TileContent carrega um tile (TileDoc em GOB).
type TileContent struct {
	TileID  int32
	MTime   int64
	Layer   string
	Content []byte
}

func (m *TileContent) Marshal() []byte {
	var b []byte
	b = appendSint(b, 1, int64(m.TileID))
	b = appendVarint(b, 2, uint64(m.MTime))
	b = appendString(b, 3, m.Layer)
	b = appendBytes(b, 4, m.Content)
	return b
}

func (m *TileContent) Unmarshal(data []byte) error {
	*m = TileContent{}
	return decodeFields(data, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n, err := consumeVarint(typ, b)
			m.TileID = int32(protowire.DecodeZigZag(v))
			return n, err
		case 2:
			v, n, err := consumeVarint(typ, b)
			m.MTime = int64(v)
			return n, err
		case 3:
			v, n, err := consumeBytes(typ, b)
			m.Layer = string(v)
			return n, err
		case 4:
			v, n, err := consumeBytes(typ, b)
			m.Content = append([]byte(nil), v...)
			return n, err
		}
		return -1, nil
	})
}

// TileEvict avisa o cliente que um tile deixou de existir no servidor.
type TileEvict struct {
	TileID int32
}

func (m *TileEvict) Marshal() []byte {
	return appendSint(nil, 1, int64(m.TileID))
}

func (m *TileEvict) Unmarshal(data []byte) error {
	*m = TileEvict{}
	return decodeFields(data, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num != 1 {
			return -1, nil
		}
		v, n, err := consumeVarint(typ, b)
		m.TileID = int32(protowire.DecodeZigZag(v))
		return n, err
	})
}

// Wrap serializa msg dentro de um Envelope do tipo dado. msg pode ser nil (PING/PONG).
func Wrap(t Envelope_Type, msg Message) []byte {
	env := Envelope{Type: t}
	if msg != nil {
		env.Payload = msg.Marshal()
	}
	return env.Marshal()
}
