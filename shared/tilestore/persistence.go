package tilestore

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"CityVision/shared/tiledoc"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	ErrNotInitialized = errors.New("banco de dados não inicializado")
	ErrNotFound       = errors.New("tile não encontrado")
)

// TileModel representa o esquema do banco de dados para um tile
type TileModel struct {
	ID        int    `gorm:"primaryKey;autoIncrement:false"`
	Layer     string `gorm:"index"`
	Name      string
	Vertices  int
	Data      []byte    // TileDoc serializado em GOB
	MTime     int64     // Versão/Timestamp
	UpdatedAt time.Time // Para controle interno do GORM
}

// DatasetMetadata armazena informações globais do dataset no banco
type DatasetMetadata struct {
	Key   string `gorm:"primaryKey"`
	Value string
}

// TileInfo são os metadados de um tile, sem o conteúdo.
type TileInfo struct {
	ID       int
	Layer    string
	Name     string
	Vertices int
	MTime    int64
}

const CurrentFormatVersion = 1

// OpenInitialize abre (ou cria) o banco de dados SQLite do dataset e roda migrações.
func (s *TileStore) OpenInitialize(datasetName string) error {
	if err := os.MkdirAll(s.Dir, 0755); err != nil {
		return err
	}

	dbPath := filepath.Join(s.Dir, fmt.Sprintf("%s.cv", datasetName))

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return fmt.Errorf("falha ao conectar no SQLite: %w", err)
	}

	if err := db.AutoMigrate(&TileModel{}, &DatasetMetadata{}); err != nil {
		return fmt.Errorf("falha na migração do banco: %w", err)
	}

	s.DB = db

	db.Save(&DatasetMetadata{Key: "FormatVersion", Value: fmt.Sprint(CurrentFormatVersion)})
	db.Save(&DatasetMetadata{Key: "DatasetName", Value: datasetName})

	log.Printf("[Persistence] Banco de dados SQLite aberto: %s", dbPath)
	return nil
}

// SaveTile grava (upsert) um tile no banco.
func (s *TileStore) SaveTile(doc *tiledoc.TileDoc, mtime int64) error {
	if s.DB == nil {
		return ErrNotInitialized
	}

	data, err := tiledoc.Encode(doc)
	if err != nil {
		log.Printf("[Persistence] ERRO Crítico GOB: %v", err)
		return err
	}

	model := TileModel{
		ID:       doc.ID,
		Layer:    doc.Layer,
		Name:     doc.Name,
		Vertices: doc.VertexCount(),
		Data:     data,
		MTime:    mtime,
	}

	if err := s.DB.Save(&model).Error; err != nil {
		log.Printf("[Persistence] ERRO ao salvar tile %d: %v", doc.ID, err)
		return err
	}
	return nil
}

// LoadTile lê um tile do banco.
func (s *TileStore) LoadTile(id int) (*Entry, error) {
	if s.DB == nil {
		return nil, ErrNotInitialized
	}

	var model TileModel
	if err := s.DB.First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
		}
		return nil, err
	}

	doc, err := tiledoc.Decode(model.Data)
	if err != nil {
		return nil, err
	}
	return &Entry{Doc: doc, MTime: model.MTime}, nil
}

// List retorna os metadados de todos os tiles salvos, ordenados por id.
func (s *TileStore) List() ([]TileInfo, error) {
	if s.DB == nil {
		return nil, ErrNotInitialized
	}

	// Retira apenas os metadados para não estourar a RAM
	var models []TileModel
	if err := s.DB.Select("id", "layer", "name", "vertices", "m_time").Order("id").Find(&models).Error; err != nil {
		return nil, err
	}

	out := make([]TileInfo, len(models))
	for i, m := range models {
		out[i] = TileInfo{ID: m.ID, Layer: m.Layer, Name: m.Name, Vertices: m.Vertices, MTime: m.MTime}
	}
	return out, nil
}

// Delete remove o tile do banco e da RAM.
func (s *TileStore) Delete(id int) error {
	if s.DB == nil {
		return ErrNotInitialized
	}
	s.dbMu.Lock()
	err := s.DB.Delete(&TileModel{}, "id = ?", id).Error
	s.dbMu.Unlock()
	if err != nil {
		return err
	}

	s.Mu.Lock()
	delete(s.Tiles, id)
	s.Mu.Unlock()
	return nil
}

// HasData verifica se o banco já possui algum tile salvo.
func (s *TileStore) HasData() bool {
	if s.DB == nil {
		return false
	}
	var count int64
	s.DB.Model(&TileModel{}).Count(&count)
	return count > 0
}

// Metadata lê um valor de DatasetMetadata.
func (s *TileStore) Metadata(key string) (string, bool) {
	if s.DB == nil {
		return "", false
	}
	var m DatasetMetadata
	if err := s.DB.Where(&DatasetMetadata{Key: key}).First(&m).Error; err != nil {
		return "", false
	}
	return m.Value, true
}

// Close fecha a conexão com o banco de dados SQLite.
func (s *TileStore) Close() {
	if s.DB != nil {
		sqlDB, _ := s.DB.DB()
		if sqlDB != nil {
			log.Println("[Persistence] Fechando banco de dados SQLite...")
			sqlDB.Close()
		}
		s.DB = nil
	}
}
