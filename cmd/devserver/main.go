// Command devserver runs the LINE webhook on a plain HTTP server with SQLite
// storage, for local development behind a tunnel.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"shop-assistant/handler"
	"shop-assistant/internal/app"
	"shop-assistant/internal/config"
	"shop-assistant/internal/integrations/line"
	"shop-assistant/internal/repository"
)

func main() {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	cfg, err := config.Load(os.Getenv)
	if err != nil {
		fatal(zap.NewExample(), "invalid configuration", err)
	}
	logger, err := app.NewLogger(cfg.LogLevel)
	if err != nil {
		fatal(zap.NewExample(), "failed to build logger", err)
	}
	defer logger.Sync() //nolint:errcheck
	if err := cfg.RequireLineChannel(); err != nil {
		fatal(logger, "missing configuration", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	creds, err := line.NewStaticCredentials(cfg.LineChannelSecret, cfg.LineChannelToken)
	if err != nil {
		fatal(logger, "invalid channel credentials", err)
	}
	db, err := repository.OpenSQLite(cfg.SQLitePath)
	if err != nil {
		fatal(logger, "failed to open database", err)
	}
	defer db.Close()
	store, err := repository.NewSQLiteStore(db)
	if err != nil {
		fatal(logger, "failed to create state store", err)
	}

	pipeline, err := app.Build(ctx, cfg, store, logger)
	if err != nil {
		fatal(logger, "failed to build turn pipeline", err)
	}
	defer pipeline.Close() //nolint:errcheck

	verifier, err := line.NewVerifier(creds)
	if err != nil {
		fatal(logger, "failed to create signature verifier", err)
	}
	replier, err := line.NewClient(creds, line.WithLogger(logger.Named("line")))
	if err != nil {
		fatal(logger, "failed to create LINE client", err)
	}
	h, err := handler.NewHandler(pipeline.Turns, replier, verifier, logger.Named("handler"))
	if err != nil {
		fatal(logger, "failed to create handler", err)
	}

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           newRouter(h, turnBudget(cfg)),
		ReadHeaderTimeout: 3 * time.Second,
	}

	go func() {
		logger.Info("listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	logger.Info("shutting down")
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", zap.Error(err))
	}
}

// turnBudget bounds one webhook request: a catalog search, two embedding
// calls (name paraphrase and greeting), every generation attempt, plus slack
// for retry backoff and the reply call.
func turnBudget(cfg config.Config) time.Duration {
	return cfg.CatalogTimeout +
		2*cfg.EmbeddingTimeout +
		time.Duration(cfg.GenerationMaxRetries+1)*cfg.GenerationTimeout +
		15*time.Second
}

func fatal(logger *zap.Logger, msg string, err error) {
	logger.Error(msg, zap.Error(err))
	_ = logger.Sync()
	os.Exit(1)
}
