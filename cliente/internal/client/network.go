package client

import (
	"errors"
	"log"
	"sync"
	"time"

	"CityVision/shared/proto/tilenet"

	"github.com/gorilla/websocket"
)

// ErrNotConnected indica envio sem conexão ativa.
var ErrNotConnected = errors.New("cliente não conectado ao servidor")

// NetworkClient lida com a comunicação com o Servidor CityVision
type NetworkClient struct {
	conn      *websocket.Conn
	url       string
	connected bool
	mu        sync.RWMutex
	writeMu   sync.Mutex

	MaxRetries int
	RetryDelay time.Duration

	// Callbacks para o App (chamados na goroutine de leitura)
	OnStatus      func(status *tilenet.ServerStatus)
	OnIndex       func(idx *tilenet.TileIndex)
	OnTileContent func(content *tilenet.TileContent)
	OnEvict       func(tileID int)
	OnDisconnect  func(err error)
}

func NewNetworkClient(url string) *NetworkClient {
	return &NetworkClient{
		url:        url,
		MaxRetries: 10,
		RetryDelay: 2 * time.Second,
	}
}

func (c *NetworkClient) Connect() error {
	dialer := websocket.Dialer{
		HandshakeTimeout: 5 * time.Second,
	}

	var conn *websocket.Conn
	var err error
	for i := 0; i < c.MaxRetries; i++ {
		log.Printf("[Network] Tentativa de conexão %d/%d em %s...", i+1, c.MaxRetries, c.url)
		conn, _, err = dialer.Dial(c.url, nil)
		if err == nil {
			break
		}
		log.Printf("[Network] Servidor ainda não está pronto: %v. Aguardando...", err)
		time.Sleep(c.RetryDelay)
	}

	if err != nil {
		log.Printf("[Network] ERRO CRÍTICO após %d tentativas: %v", c.MaxRetries, err)
		return err
	}
	if conn == nil {
		return ErrNotConnected
	}

	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.mu.Unlock()

	go c.readLoop(conn)
	return nil
}

func (c *NetworkClient) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

// RequestTiles pede o conteúdo dos tiles. known (opcional, paralelo a ids) traz a
// versão que o cliente já tem de cada tile.
func (c *NetworkClient) RequestTiles(ids []int, known []int64) error {
	if len(ids) == 0 {
		return nil
	}
	req := &tilenet.RequestTiles{TileIDs: make([]int32, len(ids))}
	for i, id := range ids {
		req.TileIDs[i] = int32(id)
	}
	if len(known) > 0 {
		req.KnownMTimes = append([]int64(nil), known...)
	}
	return c.Send(tilenet.Envelope_REQUEST_TILES, req)
}

// Ping envia um PING; o servidor responde PONG.
func (c *NetworkClient) Ping() error {
	return c.Send(tilenet.Envelope_PING, nil)
}

func (c *NetworkClient) Send(msgType tilenet.Envelope_Type, msg tilenet.Message) error {
	c.mu.RLock()
	conn, connected := c.conn, c.connected
	c.mu.RUnlock()
	if !connected || conn == nil {
		return ErrNotConnected
	}

	c.writeMu.Lock()
	err := conn.WriteMessage(websocket.BinaryMessage, tilenet.Wrap(msgType, msg))
	c.writeMu.Unlock()

	if err != nil {
		log.Printf("[Network] Erro ao enviar mensagem: %v", err)
		c.mu.Lock()
		c.connected = false
		c.mu.Unlock()
	}
	return err
}

// Close encerra a conexão.
func (c *NetworkClient) Close() {
	c.mu.Lock()
	conn := c.conn
	c.connected = false
	c.mu.Unlock()
	if conn != nil {
		c.writeMu.Lock()
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		c.writeMu.Unlock()
		conn.Close()
	}
}

func (c *NetworkClient) readLoop(conn *websocket.Conn) {
	var readErr error
	defer func() {
		c.mu.Lock()
		c.connected = false
		c.mu.Unlock()
		conn.Close()
		if c.OnDisconnect != nil {
			c.OnDisconnect(readErr)
		}
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("[Network] Conexão perdida: %v", err)
			}
			readErr = err
			return
		}

		var env tilenet.Envelope
		if err := env.Unmarshal(message); err != nil {
			log.Printf("[Network] Erro ao desempacotar envelope: %v", err)
			continue
		}

		c.handleMessage(&env)
	}
}

func (c *NetworkClient) handleMessage(env *tilenet.Envelope) {
	switch env.Type {
	case tilenet.Envelope_SERVER_STATUS:
		var status tilenet.ServerStatus
		if err := status.Unmarshal(env.Payload); err != nil {
			log.Printf("[Network] ServerStatus inválido: %v", err)
			return
		}
		log.Printf("[Network] Servidor v%s, dataset %s (%d tiles)", status.Version, status.Dataset, status.TileCount)
		if c.OnStatus != nil {
			c.OnStatus(&status)
		}
	case tilenet.Envelope_TILE_INDEX:
		var idx tilenet.TileIndex
		if err := idx.Unmarshal(env.Payload); err != nil {
			log.Printf("[Network] TileIndex inválido: %v", err)
			return
		}
		if c.OnIndex != nil {
			c.OnIndex(&idx)
		}
	case tilenet.Envelope_TILE_CONTENT:
		var content tilenet.TileContent
		if err := content.Unmarshal(env.Payload); err != nil {
			log.Printf("[Network] TileContent inválido: %v", err)
			return
		}
		if c.OnTileContent != nil {
			c.OnTileContent(&content)
		}
	case tilenet.Envelope_TILE_EVICT:
		var evict tilenet.TileEvict
		if err := evict.Unmarshal(env.Payload); err != nil {
			log.Printf("[Network] TileEvict inválido: %v", err)
			return
		}
		if c.OnEvict != nil {
			c.OnEvict(int(evict.TileID))
		}
	case tilenet.Envelope_PONG:
		// Ping/Pong handled
	default:
		log.Printf("[Network] Mensagem desconhecida: %s", env.Type)
	}
}
