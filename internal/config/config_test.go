package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func fromMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(fromMap(nil))
	require.NoError(t, err)

	require.Equal(t, "http://localhost:11434", cfg.OllamaURL)
	require.Equal(t, "supachai/llama-3-typhoon-v1.5", cfg.OllamaModel)
	require.Equal(t, 30*time.Second, cfg.GenerationTimeout)
	require.Equal(t, 1, cfg.GenerationMaxRetries)
	require.Equal(t, "http://localhost:11434/v1", cfg.EmbeddingURL)
	require.Equal(t, "bge-m3", cfg.EmbeddingModel)
	require.Equal(t, 10*time.Second, cfg.EmbeddingTimeout)
	require.Equal(t, "https://www.fpvthai.com", cfg.CatalogBaseURL)
	require.Equal(t, 15*time.Second, cfg.CatalogTimeout)
	require.Equal(t, RendererHTTP, cfg.CatalogRenderer)
	require.Equal(t, 2, cfg.CatalogMaxAttempts)
	require.Equal(t, time.Hour, cfg.SessionTTL)
	require.Equal(t, "./data/shopbot.db", cfg.SQLitePath)
	require.Equal(t, ":5000", cfg.HTTPAddr)
	require.Equal(t, "info", cfg.LogLevel)
	require.Empty(t, cfg.RedisAddr)
}

func TestLoad_Overrides(t *testing.T) {
	cfg, err := Load(fromMap(map[string]string{
		"STATE_TABLE":            "shopbot",
		"PARAM_PREFIX":           "/shopbot/prod",
		"CATALOG_RENDERER":       "ROD",
		"CATALOG_TIMEOUT_MS":     "2500",
		"REDIS_ADDR":             "localhost:6379",
		"REDIS_DB":               "3",
		"SESSION_TTL_MINUTES":    "5",
		"GENERATION_MAX_RETRIES": "0",
		"LOG_LEVEL":              "DEBUG",
	}))
	require.NoError(t, err)
	require.Equal(t, RendererRod, cfg.CatalogRenderer)
	require.Equal(t, 2500*time.Millisecond, cfg.CatalogTimeout)
	require.Equal(t, 3, cfg.RedisDB)
	require.Equal(t, 5*time.Minute, cfg.SessionTTL)
	require.Equal(t, 0, cfg.GenerationMaxRetries)
	require.Equal(t, "debug", cfg.LogLevel)
	require.NoError(t, cfg.RequireLambda())
}

func TestLoad_Invalid(t *testing.T) {
	_, err := Load(fromMap(map[string]string{"CATALOG_TIMEOUT_MS": "soon", "REDIS_DB": "-1"}))
	require.ErrorContains(t, err, "CATALOG_TIMEOUT_MS")
	require.ErrorContains(t, err, "REDIS_DB")

	_, err = Load(fromMap(map[string]string{"CATALOG_RENDERER": "selenium"}))
	require.ErrorContains(t, err, "CATALOG_RENDERER")
}

func TestRequireHelpers(t *testing.T) {
	cfg, err := Load(fromMap(nil))
	require.NoError(t, err)
	require.ErrorContains(t, cfg.RequireLambda(), "STATE_TABLE, PARAM_PREFIX")
	require.Error(t, cfg.RequireLineChannel())

	cfg.LineChannelSecret, cfg.LineChannelToken = "s", "t"
	require.NoError(t, cfg.RequireLineChannel())
}
