package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/JonMunkholm/csvmaps/internal/audit"
	"github.com/JonMunkholm/csvmaps/internal/census"
	"github.com/JonMunkholm/csvmaps/internal/config"
	"github.com/JonMunkholm/csvmaps/internal/core"
	"github.com/JonMunkholm/csvmaps/internal/dataset"
	"github.com/JonMunkholm/csvmaps/internal/geo"
	"github.com/JonMunkholm/csvmaps/internal/logging"
	"github.com/JonMunkholm/csvmaps/internal/web"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("configuration loaded", "config", cfg.String())

	ctx := context.Background()

	store, closeStore, err := openAuditStore(ctx, cfg)
	if err != nil {
		slog.Error("failed to open audit store", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	limiter := dataset.NewLoadLimiter(cfg.Data.MaxConcurrentLoads, cfg.Data.MaxLoadWait)
	service := core.NewService(core.Options{
		Loader:  dataset.NewLoader(cfg.Data.Dir, cfg.Data.MaxFileSize, limiter),
		Audit:   store,
		Maps:    loadMaps(cfg.Maps),
		History: geo.NewHistory(cfg.Maps.HistorySize),
		Census:  censusSource(cfg.Census),
	})

	if cfg.Data.InitialFile != "" {
		if _, err := service.Load(ctx, cfg.Data.InitialFile); err != nil {
			slog.Warn("initial dataset not loaded", "path", cfg.Data.InitialFile, "error", err)
		}
	}

	server := web.NewServer(service, cfg)

	jobCtx, cancelJobs := context.WithCancel(context.Background())
	go service.StartMaintenance(jobCtx, core.MaintenanceConfig{
		Interval:       cfg.Audit.MaintenanceInterval,
		AuditRetention: cfg.Audit.Retention,
	})

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")
		cancelJobs()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if status := service.LoadStatus(); status.Limiter != nil && status.Limiter.Active > 0 {
			slog.Info("waiting for loads to complete", "active", status.Limiter.Active)
			if err := service.WaitForLoads(shutdownCtx); err != nil {
				slog.Warn("loads did not complete in time", "error", err)
			}
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

// openAuditStore uses PostgreSQL when DATABASE_URL is set and an in-memory
// ring otherwise.
func openAuditStore(ctx context.Context, cfg *config.Config) (audit.Store, func(), error) {
	if cfg.Database.URL == "" {
		slog.Info("audit log kept in memory", "capacity", cfg.Audit.MemoryCapacity)
		return audit.NewMemoryStore(cfg.Audit.MemoryCapacity), func() {}, nil
	}

	pool, err := audit.Connect(ctx, cfg.Database.URL, int32(cfg.Database.MaxConns))
	if err != nil {
		return nil, nil, err
	}
	store := audit.NewPGStore(pool)
	if err := store.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}
	slog.Info("audit log stored in database")
	return store, pool.Close, nil
}

// loadMaps reads the redlining data. A missing or broken file only disables
// the maps endpoints.
func loadMaps(cfg config.MapsConfig) *geo.FeatureCollection {
	if cfg.File == "" {
		slog.Info("maps disabled: MAPS_FILE is empty")
		return nil
	}
	fc, err := geo.LoadFile(cfg.File)
	if err != nil {
		slog.Warn("maps disabled", "file", cfg.File, "error", err)
		return nil
	}
	slog.Info("map data loaded", "file", cfg.File, "features", len(fc.Features))
	return fc
}

func censusSource(cfg config.CensusConfig) census.DataSource {
	if !cfg.Enabled {
		slog.Info("census lookups disabled")
		return nil
	}

	client := census.NewACSClient(
		census.WithBaseURL(cfg.BaseURL),
		census.WithAPIKey(cfg.APIKey),
		census.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
	)
	if cfg.CacheTTL <= 0 {
		return client
	}
	return census.NewCachingSource(client, cfg.CacheTTL)
}
