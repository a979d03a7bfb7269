package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"github.com/openclass/relay/internal/archive"
	"github.com/openclass/relay/internal/config"
	"github.com/openclass/relay/internal/connection"
	"github.com/openclass/relay/internal/database"
	"github.com/openclass/relay/internal/relay"
	"github.com/openclass/relay/internal/room"
	"github.com/openclass/relay/internal/router"
	"github.com/openclass/relay/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/relay.local.yaml", "path to config file")
	flag.Parse()

	// Set up structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	logger.Info("starting relay",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)

	// Load configuration
	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("configuration loaded",
		"instance_id", cfg.Instance.ID,
		"addr", cfg.Server.Addr,
		"ws_path", cfg.Server.WSPath,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Relay components: all room state is in-memory and owned here; a
	// restart drops every room and clients must re-join.
	peerCfg := connection.PeerConfig{
		SendBufferSize: cfg.Relay.SendBufferSize,
		MaxMessageSize: cfg.Relay.MaxMessageSize,
		WriteTimeout:   cfg.Relay.WriteTimeout,
		PingInterval:   cfg.Relay.PingInterval,
		PongTimeout:    cfg.Relay.PongTimeout,
	}
	registry := connection.NewRegistry(peerCfg, logger)
	table := room.NewTable(logger)
	rt := router.NewRouter(router.RouterConfig{
		ChatBufferSize: cfg.Relay.ChatBufferSize,
	}, table, logger)
	svc := relay.NewService(registry, table, rt, logger)

	// Optional chat archive
	var pool *pgxpool.Pool
	var writer *archive.ChatWriter
	if cfg.ArchiveEnabled() {
		logger.Info("connecting to database",
			"host", cfg.Database.Host,
			"port", cfg.Database.Port,
			"database", cfg.Database.Name,
		)

		pool, err = database.Connect(ctx, cfg.Database)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		writer = archive.NewChatWriter(archive.WriterConfig{
			BatchSize:     cfg.Archive.BatchSize,
			FlushInterval: cfg.Archive.FlushInterval,
		}, rt.Chats(), pool, logger)
		if err := writer.Start(ctx); err != nil {
			logger.Error("failed to start chat writer", "error", err)
			os.Exit(1)
		}

		logger.Info("chat archive enabled")
	} else {
		logger.Info("chat archive disabled (no database configured)")
	}

	mux := http.NewServeMux()
	mux.HandleFunc(cfg.Server.WSPath, svc.ServeWS)
	mux.Handle("/health", healthHandler(pool, svc))
	mux.Handle("/stats", statsHandler(svc))

	server := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: mux,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("relay listening",
			"addr", cfg.Server.Addr,
			"ws_path", cfg.Server.WSPath,
			"instance_id", cfg.Instance.ID,
		)
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer shutdownCancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("relay exited with error", "error", err)
		os.Exit(1)
	}

	if writer != nil {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer stopCancel()
		writer.Stop(stopCtx)
	}

	logger.Info("relay stopped")
}

// healthHandler reports component health for load balancer checks.
func healthHandler(pool *pgxpool.Pool, svc *relay.Service) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		health := struct {
			Status     string                 `json:"status"`
			Components map[string]interface{} `json:"components"`
		}{
			Status:     "healthy",
			Components: make(map[string]interface{}),
		}

		stats := svc.Stats()
		health.Components["relay"] = map[string]interface{}{
			"connections": stats.Registry.OpenConnections,
			"rooms":       stats.Rooms.Rooms,
		}

		if pool != nil {
			if err := pool.Ping(ctx); err != nil {
				health.Status = "degraded"
				health.Components["postgres"] = map[string]string{
					"status": "disconnected",
					"error":  err.Error(),
				}
			} else {
				health.Components["postgres"] = "connected"
			}
		}

		w.Header().Set("Content-Type", "application/json")
		if health.Status != "healthy" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(health)
	})
}

// statsHandler exposes relay counters for debugging.
func statsHandler(svc *relay.Service) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(svc.Stats())
	})
}
