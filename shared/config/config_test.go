package config

import (
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, float32(200), cfg.RangeFocus)
	assert.Equal(t, float32(60), cfg.TiltFocus)
	assert.Equal(t, color.RGBA{B: 255, A: 255}, cfg.Highlight())
}

func TestLoadFromMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "nao_existe.json"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().HTTPAddr, cfg.HTTPAddr)
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	cfg := DefaultConfig()
	cfg.Dataset = "lyon"
	cfg.HighlightColor = "#ff8000"
	require.NoError(t, cfg.SaveTo(path))

	got, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, "lyon", got.Dataset)
	assert.Equal(t, color.RGBA{R: 255, G: 128, A: 255}, got.Highlight())
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("CV_DATASET", "paris")
	t.Setenv("CV_CACHE_TTL_SEC", "42")
	t.Setenv("CV_REDIS_ADDR", "localhost:6379")

	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "config.json"))
	require.NoError(t, err)
	assert.Equal(t, "paris", cfg.Dataset)
	assert.Equal(t, 42, cfg.CacheTTLSec)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"url inválida", func(c *Config) { c.ServerURL = "nao é url" }},
		{"tilt acima de 90", func(c *Config) { c.TiltFocus = 120 }},
		{"cor inválida", func(c *Config) { c.HighlightColor = "azul" }},
		{"dataset vazio", func(c *Config) { c.Dataset = "" }},
		{"redis sem porta", func(c *Config) { c.RedisAddr = "localhost" }},
		{"fps zero", func(c *Config) { c.TargetFPS = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadFromInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0644))
	_, err := LoadFrom(path)
	assert.Error(t, err)
}
