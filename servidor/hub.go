package main

import (
	"fmt"
	"log"
	"net/http"
	"sync"

	"CityVision/servidor/internal/metrics"
	"CityVision/shared/proto/tilenet"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// client é uma conexão registrada no hub.
type client struct {
	id   string
	conn *websocket.Conn
	lock sync.Mutex
}

// Hub gerencia as conexões WebSocket ativas
type Hub struct {
	clients    map[*websocket.Conn]*client
	broadcast  chan []byte
	unregister chan *websocket.Conn
	mu         sync.Mutex
}

func newHub() *Hub {
	return &Hub{
		clients:    make(map[*websocket.Conn]*client),
		broadcast:  make(chan []byte, 1024),
		unregister: make(chan *websocket.Conn),
	}
}

func (h *Hub) run() {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[Hub] Recuperado de pânico fatal: %v", r)
		}
	}()

	for {
		select {
		case conn, ok := <-h.unregister:
			if !ok {
				return
			}
			h.remove(conn)
		case message, ok := <-h.broadcast:
			if !ok {
				return
			}
			h.mu.Lock()
			targets := make([]*client, 0, len(h.clients))
			for _, c := range h.clients {
				targets = append(targets, c)
			}
			h.mu.Unlock()

			for _, c := range targets {
				c.lock.Lock()
				err := c.conn.WriteMessage(websocket.BinaryMessage, message)
				c.lock.Unlock()
				if err != nil {
					log.Printf("[Hub] Erro ao enviar para cliente %s: %v", c.id, err)
					h.remove(c.conn)
				}
			}
		}
	}
}

// Register adiciona a conexão ao hub antes de qualquer envio para ela.
func (h *Hub) Register(conn *websocket.Conn) string {
	c := &client{id: uuid.NewString(), conn: conn}
	h.mu.Lock()
	h.clients[conn] = c
	h.mu.Unlock()
	metrics.WSClients.Inc()
	log.Printf("[Hub] Cliente %s registrado: %s", c.id, conn.RemoteAddr())
	return c.id
}

func (h *Hub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	c, ok := h.clients[conn]
	if ok {
		delete(h.clients, conn)
	}
	h.mu.Unlock()
	if !ok {
		return
	}
	c.lock.Lock()
	conn.Close()
	c.lock.Unlock()
	metrics.WSClients.Dec()
	log.Printf("[Hub] Cliente %s desregistrado", c.id)
}

// ClientID retorna o id do cliente registrado para conn.
func (h *Hub) ClientID(conn *websocket.Conn) string {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c, ok := h.clients[conn]; ok {
		return c.id
	}
	return ""
}

// Count retorna o número de clientes conectados.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// WriteSafe garante que apenas uma goroutine escreva no WebSocket por vez
func (h *Hub) WriteSafe(conn *websocket.Conn, data []byte) error {
	h.mu.Lock()
	c, ok := h.clients[conn]
	h.mu.Unlock()

	if !ok {
		return fmt.Errorf("cliente não encontrado no hub")
	}

	c.lock.Lock()
	defer c.lock.Unlock()
	return conn.WriteMessage(websocket.BinaryMessage, data)
}

// safeSend envia para o canal de broadcast protegendo contra pânicos de canal fechado
func (h *Hub) safeSend(data []byte) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[Hub] Aviso: Falha ao enviar broadcast (canal fechado?): %v", r)
		}
	}()
	h.broadcast <- data
}

// SendMessage envia msg embrulhada num Envelope para um cliente.
func (h *Hub) SendMessage(conn *websocket.Conn, t tilenet.Envelope_Type, msg tilenet.Message) error {
	if err := h.WriteSafe(conn, tilenet.Wrap(t, msg)); err != nil {
		log.Printf("[Hub] Erro ao enviar %s: %v", t, err)
		return err
	}
	return nil
}

// BroadcastEvict avisa todos os clientes que o tile saiu do dataset.
func (h *Hub) BroadcastEvict(tileID int) {
	h.safeSend(tilenet.Wrap(tilenet.Envelope_TILE_EVICT, &tilenet.TileEvict{TileID: int32(tileID)}))
}

// BroadcastIndex envia o índice atualizado do dataset para todos.
func (h *Hub) BroadcastIndex(idx *tilenet.TileIndex) {
	h.safeSend(tilenet.Wrap(tilenet.Envelope_TILE_INDEX, idx))
}
