package app

import (
	"log"

	"CityVision/cliente/internal/client"
	"CityVision/cliente/internal/meshing"
	"CityVision/shared/proto/tilenet"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// setupNetwork cria o cliente de rede. Os callbacks rodam na goroutine de leitura
// e só repassam dados para filas consumidas pela thread principal.
func (a *App) setupNetwork() {
	a.netClient = client.NewNetworkClient(a.Config.ServerURL)

	a.netClient.OnStatus = func(status *tilenet.ServerStatus) {
		a.ServerVersion = status.Version
		a.Dataset = status.Dataset
		a.LoadingStatus = "Recebendo índice de tiles..."
		a.LoadingProgress = 0.1
	}

	a.netClient.OnIndex = func(idx *tilenet.TileIndex) {
		a.indexQueue.Push(idx)
	}

	a.netClient.OnTileContent = func(content *tilenet.TileContent) {
		a.mesher.Enqueue(meshing.Request{
			TileID:  int(content.TileID),
			Layer:   content.Layer,
			MTime:   content.MTime,
			Content: content.Content,
		})
	}

	a.netClient.OnEvict = func(tileID int) {
		a.evictQueue.Push(tileID)
	}

	a.netClient.OnDisconnect = func(err error) {
		log.Printf("[Network] Desconectado do servidor: %v", err)
	}
}

// connectServer tenta conectar ao Servidor CityVision.
func (a *App) connectServer() {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[PANIC] Erro em connectServer: %v", r)
		}
	}()

	if err := a.netClient.Connect(); err != nil {
		log.Printf("[Server] Erro ao conectar: %v", err)
		a.LoadingStatus = "Erro ao conectar ao Servidor. Verifique se o servidor está rodando."
		return
	}

	log.Println("[Network] Conectado ao Servidor CityVision!")
	a.LoadingStatus = "Sincronizando com o servidor..."
}

// processIndexUpdates compara cada índice recebido com os tiles carregados.
func (a *App) processIndexUpdates() {
	for _, idx := range a.indexQueue.Drain() {
		plan := a.world.Plan(idx)

		for _, id := range plan.Evict {
			a.evictTile(id)
		}

		if len(plan.Request) > 0 {
			log.Printf("[App] Pedindo %d tiles ao servidor (%d no índice)", len(plan.Request), len(idx.Tiles))
			if err := a.netClient.RequestTiles(plan.Request, plan.Known); err != nil {
				log.Printf("[App] Falha ao pedir tiles: %v", err)
				continue
			}
		}

		if a.Loading && a.LoadingExpected == 0 {
			a.LoadingExpected = len(plan.Request)
			a.LoadingStartTime = rl.GetTime()
			if a.LoadingExpected == 0 {
				a.finishLoading("dataset vazio")
			}
		}
	}
}

// processEvictions descarrega os tiles que o servidor removeu.
func (a *App) processEvictions() {
	for _, id := range a.evictQueue.Drain() {
		a.evictTile(id)
	}
}

func (a *App) evictTile(tileID int) {
	a.mesher.Cancel(tileID)
	if a.lastPick != nil && a.lastPick.Tile != nil && a.lastPick.Tile.ID == tileID {
		a.lastPick = nil
	}
	a.world.Evict(tileID)
	if a.renderer.Unload(tileID) {
		log.Printf("[App] Tile %d descarregado", tileID)
	}
}

// keepAlive manda um PING a cada 15 segundos.
func (a *App) keepAlive() {
	if a.netClient == nil || !a.netClient.IsConnected() {
		return
	}
	now := rl.GetTime()
	if now-a.lastPing < 15 {
		return
	}
	a.lastPing = now
	if err := a.netClient.Ping(); err != nil {
		log.Printf("[Network] Falha no ping: %v", err)
	}
}
