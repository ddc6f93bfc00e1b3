package main

import (
	"log"
	"net/http"

	"CityVision/servidor/internal/metrics"
	"CityVision/shared/proto/tilenet"

	"github.com/gorilla/websocket"
)

const serverVersion = "0.1.0"

// serveWs maneja requisições websocket do peer.
func serveWs(hub *Hub, tiles *TileService, dataset string, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[WS] Erro no upgrade do WebSocket: %v", err)
		return
	}
	hub.Register(conn)

	idx, err := tiles.Index()
	if err != nil {
		log.Printf("[WS] Erro ao montar índice: %v", err)
		idx = &tilenet.TileIndex{}
	}

	hub.SendMessage(conn, tilenet.Envelope_SERVER_STATUS, &tilenet.ServerStatus{
		Version:   serverVersion,
		Dataset:   dataset,
		TileCount: int32(len(idx.Tiles)),
		Layers:    tiles.Layers(),
	})
	hub.SendMessage(conn, tilenet.Envelope_TILE_INDEX, idx)

	go func() {
		defer func() {
			hub.unregister <- conn
		}()

		for {
			_, message, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Printf("[WS] Erro ao ler mensagem: %v", err)
				}
				break
			}

			var env tilenet.Envelope
			if err := env.Unmarshal(message); err != nil {
				log.Printf("[WS] Erro ao desempacotar envelope: %v", err)
				continue
			}

			handleClientMessage(hub, conn, tiles, &env)
		}
	}()
}

func handleClientMessage(hub *Hub, conn *websocket.Conn, tiles *TileService, env *tilenet.Envelope) {
	switch env.Type {
	case tilenet.Envelope_PING:
		hub.SendMessage(conn, tilenet.Envelope_PONG, nil)
	case tilenet.Envelope_REQUEST_TILES:
		var req tilenet.RequestTiles
		if err := req.Unmarshal(env.Payload); err != nil {
			log.Printf("[WS] Erro ao ler RequestTiles: %v", err)
			return
		}
		streamTilesToClient(hub, conn, tiles, &req)
	default:
		log.Printf("[WS] Mensagem inesperada do cliente: %s", env.Type)
	}
}

// streamTilesToClient envia o conteúdo dos tiles pedidos, pulando os que o cliente já tem.
func streamTilesToClient(hub *Hub, conn *websocket.Conn, tiles *TileService, req *tilenet.RequestTiles) {
	sent, skipped := 0, 0
	for i, id := range req.TileIDs {
		var known int64
		if i < len(req.KnownMTimes) {
			known = req.KnownMTimes[i]
		}

		content, err := tiles.Content(int(id), known)
		if err != nil {
			log.Printf("[WS] Tile %d indisponível: %v", id, err)
			hub.SendMessage(conn, tilenet.Envelope_TILE_EVICT, &tilenet.TileEvict{TileID: id})
			continue
		}
		if content == nil {
			skipped++
			metrics.TilesSkippedTotal.Inc()
			continue
		}

		if err := hub.SendMessage(conn, tilenet.Envelope_TILE_CONTENT, content); err != nil {
			return
		}
		sent++
		metrics.TilesSentTotal.Inc()
	}
	if sent > 0 || skipped > 0 {
		log.Printf("[WS] Streaming → %d tiles enviados, %d já atualizados (cliente %s)", sent, skipped, hub.ClientID(conn))
	}
}
