// Command server exposes stored securities and daily bars over HTTP.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"ashare/internal/app"
	"ashare/internal/storage"
)

func main() {
	_ = godotenv.Load()

	cfg, err := app.ProvideConfig(app.ConfigPath(os.Getenv("ASHARE_CONFIG")))
	if err != nil {
		slog.Error("config", "error", err)
		os.Exit(1)
	}
	logger := app.ProvideLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, closePool, err := app.ProvidePool(ctx, cfg)
	if err != nil {
		logger.Error("database", "error", err)
		os.Exit(1)
	}
	defer closePool()
	store := storage.NewPostgres(pool, logger)

	h := &handler{
		store:   store,
		timeout: time.Duration(cfg.Server.RequestTimeoutSec) * time.Second,
		logger:  logger,
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           withJSONHeaders(withGzip(recoverPanic(logger, limitBody(h.routes())))),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown", "error", err)
	}
}
