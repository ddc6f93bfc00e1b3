package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"image/color"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config armazena as configurações do CityVision (servidor e visualizador).
type Config struct {
	// Janela
	WindowWidth  int32  `json:"window_width" validate:"gte=320"`
	WindowHeight int32  `json:"window_height" validate:"gte=240"`
	WindowTitle  string `json:"window_title"`
	Fullscreen   bool   `json:"fullscreen"`
	TargetFPS    int32  `json:"target_fps" validate:"gte=1,lte=500"`

	// Servidor CityVision (Usado pelo Cliente)
	ServerURL string `json:"server_url" validate:"required,url"`

	// Servidor
	HTTPAddr         string `json:"http_addr" validate:"required,hostname_port"`
	Dataset          string `json:"dataset" validate:"required"`
	SavesDir         string `json:"saves_dir" validate:"required"`
	ReadTimeoutSec   int    `json:"read_timeout_sec" validate:"gte=1"`
	WriteTimeoutSec  int    `json:"write_timeout_sec" validate:"gte=1"`
	IdleTimeoutSec   int    `json:"idle_timeout_sec" validate:"gte=1"`
	RateLimit        string `json:"rate_limit" validate:"required"` // formato do limiter: "100-M"
	RedisAddr        string `json:"redis_addr" validate:"omitempty,hostname_port"`
	CacheTTLSec      int    `json:"cache_ttl_sec" validate:"gte=0"`
	PurgeIdleSec     int    `json:"purge_idle_sec" validate:"gte=1"`
	PurgeIntervalSec int    `json:"purge_interval_sec" validate:"gte=1"`

	// Cidade de demonstração (usada quando o banco está vazio)
	DemoTilesX    int   `json:"demo_tiles_x" validate:"gte=1"`
	DemoTilesZ    int   `json:"demo_tiles_z" validate:"gte=1"`
	DemoBuildings int   `json:"demo_buildings" validate:"gte=1,lte=25"`
	DemoSeed      int64 `json:"demo_seed"`

	// Seleção
	HighlightColor string  `json:"highlight_color" validate:"hexcolor"`
	RangeFocus     float32 `json:"range_focus" validate:"gt=0"`
	TiltFocus      float32 `json:"tilt_focus" validate:"gte=0,lte=90"`

	// Streaming
	MaxTilesPerFrame int `json:"max_tiles_per_frame" validate:"gte=1"`

	// Câmera
	FOV               float32 `json:"fov" validate:"gt=0,lt=180"`
	CameraSpeed       float32 `json:"camera_speed"`
	CameraSensitivity float32 `json:"camera_sensitivity"`
	ZoomSpeed         float32 `json:"zoom_speed"`

	// Debug
	ShowDebugInfo bool `json:"show_debug_info"`
	WireframeMode bool `json:"wireframe_mode"`
}

// DefaultConfig retorna a configuração padrão.
func DefaultConfig() *Config {
	return &Config{
		WindowWidth:  1280,
		WindowHeight: 720,
		WindowTitle:  "CityVision",
		Fullscreen:   false,
		TargetFPS:    60,

		ServerURL: "ws://127.0.0.1:8080/ws",

		HTTPAddr:         "0.0.0.0:8080",
		Dataset:          "demo",
		SavesDir:         "saves",
		ReadTimeoutSec:   15,
		WriteTimeoutSec:  15,
		IdleTimeoutSec:   60,
		RateLimit:        "600-M",
		RedisAddr:        "",
		CacheTTLSec:      300,
		PurgeIdleSec:     600,
		PurgeIntervalSec: 60,

		DemoTilesX:    3,
		DemoTilesZ:    3,
		DemoBuildings: 12,
		DemoSeed:      2024,

		HighlightColor: "#0000ff",
		RangeFocus:     200,
		TiltFocus:      60,

		MaxTilesPerFrame: 2,

		FOV:               60.0,
		CameraSpeed:       120.0,
		CameraSensitivity: 0.3,
		ZoomSpeed:         40.0,

		ShowDebugInfo: true,
		WireframeMode: false,
	}
}

// configPath retorna o caminho do arquivo de configuração.
func configPath() string {
	execDir, err := os.Executable()
	if err != nil {
		return "config.json"
	}
	return filepath.Join(filepath.Dir(execDir), "config.json")
}

// Load carrega as configurações do config.json ao lado do executável, aplica o .env
// e as variáveis de ambiente. Em caso de erro, usa a configuração padrão.
func Load() *Config {
	cfg, err := LoadFrom(configPath())
	if err != nil {
		log.Printf("[Config] %v (usando configuração padrão)", err)
		return DefaultConfig()
	}
	return cfg
}

// LoadFrom carrega as configurações de um arquivo JSON. Se o arquivo não existir,
// parte das configurações padrão.
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err == nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config %s inválida: %w", path, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	// .env é opcional; variáveis já definidas no ambiente têm prioridade
	_ = godotenv.Load()
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.ServerURL = getEnv("CV_SERVER_URL", c.ServerURL)
	c.HTTPAddr = getEnv("CV_HTTP_ADDR", c.HTTPAddr)
	c.Dataset = getEnv("CV_DATASET", c.Dataset)
	c.SavesDir = getEnv("CV_SAVES_DIR", c.SavesDir)
	c.RateLimit = getEnv("CV_RATE_LIMIT", c.RateLimit)
	c.RedisAddr = getEnv("CV_REDIS_ADDR", c.RedisAddr)
	c.CacheTTLSec = getIntEnv("CV_CACHE_TTL_SEC", c.CacheTTLSec)
	c.HighlightColor = getEnv("CV_HIGHLIGHT_COLOR", c.HighlightColor)
}

// Validate verifica os campos com as regras das tags `validate`.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) && len(ve) > 0 {
			fe := ve[0]
			return fmt.Errorf("configuração inválida: campo %s falhou na regra %q (valor %v)", fe.Field(), fe.Tag(), fe.Value())
		}
		return fmt.Errorf("configuração inválida: %w", err)
	}
	return nil
}

// Save salva as configurações em um arquivo JSON.
func (c *Config) Save() error {
	return c.SaveTo(configPath())
}

// SaveTo salva as configurações no caminho dado.
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Highlight converte HighlightColor (#rrggbb) em cor RGBA opaca.
func (c *Config) Highlight() color.RGBA {
	var r, g, b uint8
	if _, err := fmt.Sscanf(c.HighlightColor, "#%02x%02x%02x", &r, &g, &b); err != nil {
		return color.RGBA{B: 255, A: 255}
	}
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

// ReadTimeout e afins convertem os campos em segundos para time.Duration.
func (c *Config) ReadTimeout() time.Duration  { return time.Duration(c.ReadTimeoutSec) * time.Second }
func (c *Config) WriteTimeout() time.Duration { return time.Duration(c.WriteTimeoutSec) * time.Second }
func (c *Config) IdleTimeout() time.Duration  { return time.Duration(c.IdleTimeoutSec) * time.Second }
func (c *Config) CacheTTL() time.Duration     { return time.Duration(c.CacheTTLSec) * time.Second }
func (c *Config) PurgeIdle() time.Duration    { return time.Duration(c.PurgeIdleSec) * time.Second }
func (c *Config) PurgeInterval() time.Duration {
	return time.Duration(c.PurgeIntervalSec) * time.Second
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
