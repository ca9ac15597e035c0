package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"juris-backend/internal/bootstrap"
	"juris-backend/internal/shared/config"
	"juris-backend/internal/shared/server"
	"juris-backend/internal/shared/telemetry"
)

const shutdownTimeout = 15 * time.Second

func main() {
	os.Exit(run())
}

func run() int {
	cfg, warnings := config.Load()
	telemetry.Configure(cfg.LogLevel)
	defer telemetry.Sync()
	for _, w := range warnings {
		telemetry.Warn("config.warning", map[string]any{"detail": w})
	}

	app, err := bootstrap.Build(cfg)
	if err != nil {
		telemetry.Error("bootstrap.failed", map[string]any{"err": err})
		return 1
	}
	defer func() {
		if err := app.Close(); err != nil {
			telemetry.Warn("app.close.failed", map[string]any{"err": err})
		}
	}()

	srv := &http.Server{
		Addr:              server.Addr(cfg.Port),
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		telemetry.Info("server.start", map[string]any{"addr": srv.Addr, "env": cfg.Env})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err, ok := <-serveErr:
		if ok {
			telemetry.Error("server.failed", map[string]any{"err": err})
			return 1
		}
	case <-ctx.Done():
	}
	telemetry.Info("server.shutdown", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		telemetry.Error("server.shutdown.failed", map[string]any{"err": err})
		return 1
	}
	return 0
}
