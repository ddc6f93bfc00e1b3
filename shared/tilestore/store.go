package tilestore

import (
	"log"
	"sort"
	"sync"
	"time"

	"CityVision/shared/tiledoc"

	"gorm.io/gorm"
)

// Entry é um tile mantido em RAM.
type Entry struct {
	Doc      *tiledoc.TileDoc
	MTime    int64
	lastUsed time.Time
}

// TileStore guarda os documentos de tile: cache em RAM na frente de um banco SQLite.
type TileStore struct {
	Mu sync.RWMutex

	// dbMu serializa escritas no banco SQLite (impede "database is locked")
	dbMu sync.Mutex

	// Tiles é o cache em RAM, indexado pelo id do tile.
	Tiles map[int]*Entry

	// Dir é a pasta onde ficam os arquivos .cv
	Dir string

	// DB é a conexão com o banco SQLite (GORM)
	DB *gorm.DB

	now func() time.Time
}

// NewTileStore cria um store vazio que salvará os bancos em dir.
func NewTileStore(dir string) *TileStore {
	if dir == "" {
		dir = "saves"
	}
	return &TileStore{
		Tiles: make(map[int]*Entry),
		Dir:   dir,
		now:   time.Now,
	}
}

// Get retorna um tile da RAM ou do banco.
func (s *TileStore) Get(id int) (*Entry, error) {
	s.Mu.Lock()
	if e, ok := s.Tiles[id]; ok {
		e.lastUsed = s.now()
		s.Mu.Unlock()
		return e, nil
	}
	s.Mu.Unlock()

	e, err := s.LoadTile(id)
	if err != nil {
		return nil, err
	}

	s.Mu.Lock()
	defer s.Mu.Unlock()
	// outra goroutine pode ter carregado enquanto líamos do banco
	if cur, ok := s.Tiles[id]; ok && cur.MTime >= e.MTime {
		cur.lastUsed = s.now()
		return cur, nil
	}
	e.lastUsed = s.now()
	s.Tiles[id] = e
	return e, nil
}

// Put guarda o documento na RAM e no banco. Retorna a nova versão (mtime).
func (s *TileStore) Put(doc *tiledoc.TileDoc) (int64, error) {
	mtime := s.now().UnixNano()

	s.dbMu.Lock()
	err := s.SaveTile(doc, mtime)
	s.dbMu.Unlock()
	if err != nil {
		return 0, err
	}

	s.Mu.Lock()
	s.Tiles[doc.ID] = &Entry{Doc: doc, MTime: mtime, lastUsed: s.now()}
	s.Mu.Unlock()
	return mtime, nil
}

// Cached indica se o tile está em RAM.
func (s *TileStore) Cached(id int) bool {
	s.Mu.RLock()
	defer s.Mu.RUnlock()
	_, ok := s.Tiles[id]
	return ok
}

// CachedIDs retorna os ids em RAM, ordenados.
func (s *TileStore) CachedIDs() []int {
	s.Mu.RLock()
	defer s.Mu.RUnlock()
	ids := make([]int, 0, len(s.Tiles))
	for id := range s.Tiles {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Purge descarrega da RAM os tiles sem uso há mais de maxIdle.
// onEvict é chamado para cada tile descarregado, antes de sair do cache.
func (s *TileStore) Purge(maxIdle time.Duration, onEvict func(id int)) int {
	s.Mu.Lock()
	cutoff := s.now().Add(-maxIdle)
	var stale []int
	for id, e := range s.Tiles {
		if e.lastUsed.Before(cutoff) {
			stale = append(stale, id)
		}
	}
	s.Mu.Unlock()

	sort.Ints(stale)
	for _, id := range stale {
		if onEvict != nil {
			onEvict(id)
		}
		s.Mu.Lock()
		delete(s.Tiles, id)
		s.Mu.Unlock()
	}

	if len(stale) > 0 {
		log.Printf("[Store] Purge: %d tiles descarregados da RAM (restam %d)", len(stale), len(s.CachedIDs()))
	}
	return len(stale)
}
