package meshing

import (
	"fmt"
	"log"
	"sync"

	"CityVision/shared/scene"
	"CityVision/shared/tiledoc"
	"CityVision/shared/util"
)

// Request representa um pedido de preparo de um tile recebido do servidor.
type Request struct {
	TileID  int
	Layer   string
	MTime   int64  // Versão dos dados no momento da requisição
	Content []byte // TileDoc em GOB
}

// Result contém o tile montado e a geometria pronta para a GPU.
type Result struct {
	TileID int
	Layer  string
	MTime  int64
	Tile   *scene.Tile

	// Meshes segue a ordem de Tile.Meshes(); vértices já em coordenadas de mundo.
	Meshes []GeometryData

	Err error
}

// Mesher é a interface para geradores de malha.
type Mesher interface {
	Enqueue(req Request) bool
	Results() <-chan Result
	Stop()
}

// TileMesher decodifica e prepara tiles em workers de background.
// Se o mesmo tile for pedido de novo antes de ser processado, vale o pedido mais novo.
type TileMesher struct {
	queue   *util.UniqueQueue[int, Request]
	wake    chan struct{}
	results chan Result
	stop    chan struct{}
	once    sync.Once

	// prepare monta o resultado de um pedido (Prepare quando nil)
	prepare func(Request) Result
}

// NewTileMesher cria e inicia um novo mesher.
func NewTileMesher(workers int) *TileMesher {
	if workers < 1 {
		workers = 1
	}
	m := &TileMesher{
		queue:   util.NewUniqueQueue[int, Request](),
		wake:    make(chan struct{}, 1),
		results: make(chan Result, 256),
		stop:    make(chan struct{}),
	}
	for i := 0; i < workers; i++ {
		go m.worker()
	}
	return m
}

// Enqueue agenda o pedido. Retorna false se substituiu um pedido pendente do mesmo tile.
func (m *TileMesher) Enqueue(req Request) bool {
	added := m.queue.Enqueue(req.TileID, req)
	select {
	case m.wake <- struct{}{}:
	default:
	}
	return added
}

// Cancel descarta um pedido ainda não processado.
func (m *TileMesher) Cancel(tileID int) bool {
	return m.queue.Remove(tileID)
}

// Pending retorna quantos pedidos aguardam um worker.
func (m *TileMesher) Pending() int {
	return m.queue.Len()
}

func (m *TileMesher) Results() <-chan Result {
	return m.results
}

func (m *TileMesher) Stop() {
	m.once.Do(func() { close(m.stop) })
}

func (m *TileMesher) worker() {
	for {
		_, req, ok := m.queue.Dequeue()
		if !ok {
			select {
			case <-m.wake:
				continue
			case <-m.stop:
				return
			}
		}

		// outro worker pode estar parado esperando o sinal
		if m.queue.Len() > 0 {
			select {
			case m.wake <- struct{}{}:
			default:
			}
		}

		res := m.safePrepare(req)
		select {
		case m.results <- res:
		case <-m.stop:
			return
		}
	}
}

// safePrepare isola um pânico no pedido que o causou; o worker segue vivo.
func (m *TileMesher) safePrepare(req Request) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[PANIC] Erro no Mesher Worker (tile %d): %v", req.TileID, r)
			res = Result{TileID: req.TileID, Layer: req.Layer, MTime: req.MTime, Err: fmt.Errorf("pânico ao preparar tile %d: %v", req.TileID, r)}
		}
	}()
	if m.prepare != nil {
		return m.prepare(req)
	}
	return Prepare(req)
}

// Prepare decodifica o conteúdo e monta o tile e sua geometria de desenho.
func Prepare(req Request) Result {
	res := Result{TileID: req.TileID, Layer: req.Layer, MTime: req.MTime}

	doc, err := tiledoc.Decode(req.Content)
	if err != nil {
		res.Err = err
		return res
	}
	if doc.ID != req.TileID {
		log.Printf("[Mesher] Conteúdo do tile %d diz ser o tile %d; usando %d", req.TileID, doc.ID, req.TileID)
		doc.ID = req.TileID
	}
	if res.Layer == "" {
		res.Layer = doc.Layer
	}

	res.Tile = doc.Build()
	for _, node := range res.Tile.Meshes() {
		res.Meshes = append(res.Meshes, BuildGeometry(node))
	}
	return res
}
