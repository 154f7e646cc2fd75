// Package app assembles the turn pipeline shared by the Lambda function, the
// local server and the operator CLI.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"shop-assistant/internal/config"
	"shop-assistant/internal/integrations/catalog"
	"shop-assistant/internal/integrations/embedding"
	"shop-assistant/internal/integrations/ollama"
	"shop-assistant/internal/session"
	"shop-assistant/internal/similarity"
	"shop-assistant/internal/usecase"
)

// NewLogger builds a production JSON logger at the given level name.
func NewLogger(level string) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	zcfg.Level = zap.NewAtomicLevelAt(lvl)
	zcfg.EncoderConfig.TimeKey = "ts"
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return zcfg.Build()
}

// Pipeline is a ready TurnService plus the resources it holds open.
type Pipeline struct {
	Turns    *usecase.TurnService
	Resolver *usecase.Resolver

	closers []func() error
}

func (p *Pipeline) Close() error {
	var errs []error
	for i := len(p.closers) - 1; i >= 0; i-- {
		if err := p.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Build wires catalog, similarity, generation and session storage around the
// given knowledge store.
func Build(ctx context.Context, cfg config.Config, knowledge usecase.KnowledgeStore, logger *zap.Logger) (*Pipeline, error) {
	if knowledge == nil {
		return nil, errors.New("app: knowledge store must not be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Pipeline{}
	fail := func(err error) (*Pipeline, error) {
		_ = p.Close()
		return nil, err
	}

	source, err := newPageSource(ctx, cfg, p)
	if err != nil {
		return fail(err)
	}
	fetcher, err := catalog.NewFetcher(source, catalog.Config{
		BaseURL:     cfg.CatalogBaseURL,
		Timeout:     cfg.CatalogTimeout,
		MaxAttempts: cfg.CatalogMaxAttempts,
	}, logger.Named("catalog"))
	if err != nil {
		return fail(err)
	}

	embedder, err := embedding.NewClient(embedding.Config{
		BaseURL: cfg.EmbeddingURL,
		Model:   cfg.EmbeddingModel,
		APIKey:  cfg.EmbeddingAPIKey,
		Timeout: cfg.EmbeddingTimeout,
	})
	if err != nil {
		return fail(err)
	}
	cached, err := similarity.NewCachingEncoder(embedder, 0)
	if err != nil {
		return fail(err)
	}
	matcher, err := similarity.NewMatcher(cached, cfg.EmbeddingTimeout)
	if err != nil {
		return fail(err)
	}

	generator, err := ollama.NewClient(cfg.OllamaModel,
		ollama.WithBaseURL(cfg.OllamaURL),
		ollama.WithTimeout(cfg.GenerationTimeout),
		ollama.WithMaxRetries(cfg.GenerationMaxRetries),
		ollama.WithLogger(logger.Named("ollama")),
	)
	if err != nil {
		return fail(err)
	}

	resolver, err := usecase.NewResolver(knowledge, matcher, fetcher, generator, logger.Named("resolver"))
	if err != nil {
		return fail(err)
	}

	sessions, err := newSessionStore(ctx, cfg, p, logger)
	if err != nil {
		return fail(err)
	}
	turns, err := usecase.NewTurnService(resolver, sessions, session.NewKeyedMutex(), logger.Named("turns"))
	if err != nil {
		return fail(err)
	}

	p.Turns, p.Resolver = turns, resolver
	return p, nil
}

func newPageSource(ctx context.Context, cfg config.Config, p *Pipeline) (catalog.PageSource, error) {
	if cfg.CatalogRenderer != config.RendererRod {
		return catalog.NewHTTPSource(&http.Client{Timeout: cfg.CatalogTimeout}), nil
	}
	rs, err := catalog.NewRodSource(ctx, cfg.BrowserControlURL)
	if err != nil {
		return nil, fmt.Errorf("app: start browser: %w", err)
	}
	p.closers = append(p.closers, rs.Close)
	return rs, nil
}

func newSessionStore(ctx context.Context, cfg config.Config, p *Pipeline, logger *zap.Logger) (usecase.SessionStore, error) {
	if cfg.RedisAddr == "" {
		logger.Info("using in-memory session store")
		return session.NewMemoryStore(), nil
	}
	client, err := session.NewRedisClient(ctx, session.RedisConfig{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		return nil, fmt.Errorf("app: connect redis: %w", err)
	}
	p.closers = append(p.closers, client.Close)
	logger.Info("using redis session store", zap.String("addr", cfg.RedisAddr))
	return session.NewRedisStore(client, "", cfg.SessionTTL)
}
