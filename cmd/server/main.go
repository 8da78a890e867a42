package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/din0497/orderpulse/internal/adapter/httpserver"
	"github.com/din0497/orderpulse/internal/adapter/metrics"
	"github.com/din0497/orderpulse/internal/broadcast"
	"github.com/din0497/orderpulse/internal/order"
	"github.com/din0497/orderpulse/internal/platform/config"
	"github.com/din0497/orderpulse/internal/platform/logging"
	"github.com/din0497/orderpulse/internal/platform/version"
	"github.com/jonboulle/clockwork"
)

const shutdownCloseReason = "Server shutting down"

func runGracefulShutdown(cfg *config.Config, srv *httpserver.Server, broadcaster *broadcast.Broadcaster) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		// Shutdown does not track hijacked connections; viewers are closed explicitly.
		broadcaster.CloseAll(shutdownCloseReason)

		close(done)
	}()

	return done
}

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Application starting", "app", cfg.AppName, "env", cfg.AppEnv, "port", cfg.Port, "version", version.Get().String())

	promRegistry := metrics.NewRegistry()
	obs := httpserver.Observability{
		Registry:  promRegistry,
		HTTP:      metrics.NewHTTPMetrics(promRegistry),
		WebSocket: metrics.NewWebSocketMetrics(promRegistry),
	}

	store := order.NewStore(clock)
	registry := broadcast.NewRegistry(obs.WebSocket)
	broadcaster := broadcast.NewBroadcaster(registry,
		broadcast.WithSendTimeout(cfg.SendTimeout),
		broadcast.WithMetrics(obs.WebSocket),
		broadcast.WithClock(clock),
	)
	gateway := broadcast.NewGateway(store, broadcaster, metrics.NewOrderMetrics(promRegistry))

	srv := httpserver.NewServer(cfg, gateway, clock, obs, nil)

	done := runGracefulShutdown(cfg, srv, broadcaster)

	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
	slog.Info("Server stopped")
}
