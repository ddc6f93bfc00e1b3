package main

import (
	"fmt"
	"log"
	"sync"
	"time"

	"CityVision/servidor/internal/metrics"
	"CityVision/shared/cityobject"
	"CityVision/shared/picking"
	"CityVision/shared/proto/tilenet"
	"CityVision/shared/scene"
	"CityVision/shared/tiledoc"
	"CityVision/shared/tilestore"
	"CityVision/shared/util"
)

const defaultLayer = "predios"

// TileService mantém os tiles decompostos no servidor para responder a API
// (atributos por identificador e pick por raio) sem depender do cliente.
type TileService struct {
	// mu serializa carga/descarga de tiles; os handlers HTTP rodam em paralelo
	mu sync.Mutex

	store     *tilestore.TileStore
	picker    *picking.Picker
	highlight *scene.Material
}

// NewTileService cria o serviço sobre um store já aberto.
func NewTileService(store *tilestore.TileStore, highlight *scene.Material) *TileService {
	return &TileService{
		store:     store,
		picker:    picking.NewPicker(),
		highlight: highlight,
	}
}

// Import grava os documentos no store. Tiles já carregados são recarregados na próxima consulta.
func (s *TileService) Import(docs []*tiledoc.TileDoc) (int, error) {
	count := 0
	for _, doc := range docs {
		if doc.Layer == "" {
			doc.Layer = defaultLayer
		}
		if _, err := s.store.Put(doc); err != nil {
			return count, fmt.Errorf("falha ao importar tile %d: %w", doc.ID, err)
		}
		s.mu.Lock()
		s.evictLocked(doc.ID)
		s.mu.Unlock()
		count++
	}
	log.Printf("[Tiles] %d tiles importados", count)
	return count, nil
}

func (s *TileService) layer(id string) *picking.Layer {
	if l, ok := s.picker.Layer(id); ok {
		return l
	}
	l := picking.NewLayer(id, s.highlight)
	s.picker.AddLayer(l)
	return l
}

// Ensure garante que o tile está decomposto e selecionável em memória.
func (s *TileService) Ensure(tileID int) (*picking.Layer, *cityobject.Registry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ensureLocked(tileID)
}

func (s *TileService) ensureLocked(tileID int) (*picking.Layer, *cityobject.Registry, error) {
	entry, err := s.store.Get(tileID)
	if err != nil {
		return nil, nil, err
	}

	layer := s.layer(entry.Doc.Layer)
	if reg, ok := layer.Manager.Registry(tileID); ok {
		return layer, reg, nil
	}

	start := time.Now()
	reg, err := layer.Manager.Load(entry.Doc.Build())
	if err != nil {
		return nil, nil, err
	}
	metrics.DecomposeDurationMs.Observe(float64(time.Since(start).Microseconds()) / 1000)
	metrics.CityObjectsLoaded.Add(float64(reg.Len()))
	return layer, reg, nil
}

// EnsureAll carrega todos os tiles do store (usado pelo pick).
func (s *TileService) EnsureAll() error {
	infos, err := s.store.List()
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, info := range infos {
		if _, _, err := s.ensureLocked(info.ID); err != nil {
			log.Printf("[Tiles] Tile %d não pôde ser carregado: %v", info.ID, err)
		}
	}
	return nil
}

// CityObjects resolve um identificador em objetos do tile.
func (s *TileService) CityObjects(id cityobject.Identity) (*picking.Layer, []*cityobject.CityObject, error) {
	layer, _, err := s.Ensure(id.TileID)
	if err != nil {
		return nil, nil, err
	}
	return layer, layer.Manager.CityObjects(id), nil
}

// Pick resolve um raio contra todos os tiles do dataset.
func (s *TileService) Pick(ray util.Ray, layerIDs ...string) (*picking.PickInfo, error) {
	if err := s.EnsureAll(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.picker.Pick(ray, layerIDs...), nil
}

// Evict descarrega o tile da memória do serviço (o store continua com ele).
func (s *TileService) Evict(tileID int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evictLocked(tileID)
}

func (s *TileService) evictLocked(tileID int) {
	for _, l := range s.picker.Layers() {
		reg, ok := l.Manager.Registry(tileID)
		if !ok {
			continue
		}
		l.Manager.Evict(tileID)
		metrics.CityObjectsLoaded.Sub(float64(reg.Len()))
		metrics.TilesEvictedTotal.Inc()
	}
}

// Layers retorna os ids das camadas conhecidas.
func (s *TileService) Layers() []string {
	infos, err := s.store.List()
	if err != nil {
		return nil
	}
	seen := make(map[string]bool)
	var out []string
	for _, info := range infos {
		if !seen[info.Layer] {
			seen[info.Layer] = true
			out = append(out, info.Layer)
		}
	}
	return out
}

// Purge descarrega do store e do serviço os tiles sem uso.
func (s *TileService) Purge(maxIdle time.Duration) int {
	return s.store.Purge(maxIdle, s.Evict)
}

// Remove apaga o tile do dataset.
func (s *TileService) Remove(tileID int) error {
	if err := s.store.Delete(tileID); err != nil {
		return err
	}
	s.Evict(tileID)
	log.Printf("[Tiles] Tile %d removido do dataset", tileID)
	return nil
}

// Index monta o índice de tiles do dataset para os clientes.
func (s *TileService) Index() (*tilenet.TileIndex, error) {
	infos, err := s.store.List()
	if err != nil {
		return nil, err
	}
	idx := &tilenet.TileIndex{Tiles: make([]tilenet.TileSummary, len(infos))}
	for i, info := range infos {
		idx.Tiles[i] = tilenet.TileSummary{
			TileID: int32(info.ID),
			MTime:  info.MTime,
			Layer:  info.Layer,
			Name:   info.Name,
		}
	}
	return idx, nil
}

// Content serializa o tile para envio. Retorna nil se o cliente já tem a versão knownMTime.
func (s *TileService) Content(tileID int, knownMTime int64) (*tilenet.TileContent, error) {
	entry, err := s.store.Get(tileID)
	if err != nil {
		return nil, err
	}
	if knownMTime != 0 && knownMTime == entry.MTime {
		return nil, nil
	}
	data, err := tiledoc.Encode(entry.Doc)
	if err != nil {
		return nil, err
	}
	return &tilenet.TileContent{
		TileID:  int32(tileID),
		MTime:   entry.MTime,
		Layer:   entry.Doc.Layer,
		Content: data,
	}, nil
}
