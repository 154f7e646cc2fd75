// Package config reads process configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	RendererHTTP = "http"
	RendererRod  = "rod"
)

type Config struct {
	StateTable  string
	ParamPrefix string

	LineChannelSecret string
	LineChannelToken  string

	OllamaURL            string
	OllamaModel          string
	GenerationTimeout    time.Duration
	GenerationMaxRetries int

	EmbeddingURL     string
	EmbeddingModel   string
	EmbeddingAPIKey  string
	EmbeddingTimeout time.Duration

	CatalogBaseURL     string
	CatalogTimeout     time.Duration
	CatalogRenderer    string
	CatalogMaxAttempts int
	BrowserControlURL  string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	SessionTTL    time.Duration

	SQLitePath string
	HTTPAddr   string
	LogLevel   string
}

// Load builds a Config from getenv, usually os.Getenv. Unset values take
// defaults; malformed numbers are errors.
func Load(getenv func(string) string) (Config, error) {
	e := env{getenv: getenv}
	cfg := Config{
		StateTable:  e.str("STATE_TABLE", ""),
		ParamPrefix: e.str("PARAM_PREFIX", ""),

		LineChannelSecret: e.str("LINE_CHANNEL_SECRET", ""),
		LineChannelToken:  e.str("LINE_CHANNEL_TOKEN", ""),

		OllamaURL:            e.str("OLLAMA_URL", "http://localhost:11434"),
		OllamaModel:          e.str("OLLAMA_MODEL", "supachai/llama-3-typhoon-v1.5"),
		GenerationTimeout:    e.millis("GENERATION_TIMEOUT_MS", 30000),
		GenerationMaxRetries: e.num("GENERATION_MAX_RETRIES", 1),

		EmbeddingURL:     e.str("EMBEDDING_URL", "http://localhost:11434/v1"),
		EmbeddingModel:   e.str("EMBEDDING_MODEL", "bge-m3"),
		EmbeddingAPIKey:  e.str("EMBEDDING_API_KEY", ""),
		EmbeddingTimeout: e.millis("EMBEDDING_TIMEOUT_MS", 10000),

		CatalogBaseURL:     e.str("CATALOG_BASE_URL", "https://www.fpvthai.com"),
		CatalogTimeout:     e.millis("CATALOG_TIMEOUT_MS", 15000),
		CatalogRenderer:    strings.ToLower(e.str("CATALOG_RENDERER", RendererHTTP)),
		CatalogMaxAttempts: e.num("CATALOG_MAX_ATTEMPTS", 2),
		BrowserControlURL:  e.str("BROWSER_CONTROL_URL", ""),

		RedisAddr:     e.str("REDIS_ADDR", ""),
		RedisPassword: e.str("REDIS_PASSWORD", ""),
		RedisDB:       e.num("REDIS_DB", 0),
		SessionTTL:    time.Duration(e.num("SESSION_TTL_MINUTES", 60)) * time.Minute,

		SQLitePath: e.str("SQLITE_PATH", "./data/shopbot.db"),
		HTTPAddr:   e.str("HTTP_ADDR", ":5000"),
		LogLevel:   strings.ToLower(e.str("LOG_LEVEL", "info")),
	}
	if len(e.errs) > 0 {
		return Config{}, errors.Join(e.errs...)
	}
	if cfg.CatalogRenderer != RendererHTTP && cfg.CatalogRenderer != RendererRod {
		return Config{}, fmt.Errorf("config: CATALOG_RENDERER must be %q or %q, got %q", RendererHTTP, RendererRod, cfg.CatalogRenderer)
	}
	return cfg, nil
}

// RequireLambda checks the settings only the Lambda entry point needs.
func (c Config) RequireLambda() error {
	var missing []string
	if c.StateTable == "" {
		missing = append(missing, "STATE_TABLE")
	}
	if c.ParamPrefix == "" {
		missing = append(missing, "PARAM_PREFIX")
	}
	if len(missing) > 0 {
		return fmt.Errorf("config: required environment variables not set: %s", strings.Join(missing, ", "))
	}
	return nil
}

// RequireLineChannel checks the channel credentials used outside Lambda.
func (c Config) RequireLineChannel() error {
	if c.LineChannelSecret == "" || c.LineChannelToken == "" {
		return errors.New("config: LINE_CHANNEL_SECRET and LINE_CHANNEL_TOKEN must be set")
	}
	return nil
}

type env struct {
	getenv func(string) string
	errs   []error
}

func (e *env) str(key, def string) string {
	if v := strings.TrimSpace(e.getenv(key)); v != "" {
		return v
	}
	return def
}

func (e *env) num(key string, def int) int {
	v := strings.TrimSpace(e.getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		e.errs = append(e.errs, fmt.Errorf("config: %s must be a non-negative integer, got %q", key, v))
		return def
	}
	return n
}

func (e *env) millis(key string, def int) time.Duration {
	return time.Duration(e.num(key, def)) * time.Millisecond
}
