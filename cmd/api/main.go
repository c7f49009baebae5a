// Package main is the entry point for the weather API server.
//
// It loads configuration, connects the PostgreSQL pool, ensures the schema,
// seeds the bootstrap city list, launches the startup ingestion run in the
// background, and serves HTTP until a shutdown signal arrives.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/KaanIpek/weather-api/internal/api/handlers"
	"github.com/KaanIpek/weather-api/internal/config"
	"github.com/KaanIpek/weather-api/internal/core"
	"github.com/KaanIpek/weather-api/internal/db"
	"github.com/KaanIpek/weather-api/internal/ingest"
	"github.com/KaanIpek/weather-api/internal/provider"
	"github.com/KaanIpek/weather-api/internal/weather"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// run encapsulates the startup lifecycle so that main() can cleanly exit on error.
func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger := newLogger(cfg.LogLevel)
	logger.Info("weather API starting",
		"environment", cfg.Environment,
		"port", cfg.Server.Port,
		"ingest_policy", cfg.Ingest.Policy,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Database pool and schema.
	pool, err := db.NewPool(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer pool.Close()

	upsert := cfg.Ingest.Policy == config.IngestPolicyUpsert
	if err := db.EnsureSchema(ctx, pool, upsert); err != nil {
		return fmt.Errorf("ensuring schema: %w", err)
	}

	// Repositories and services.
	cityRepo := db.NewCityRepository(pool)
	obsRepo := db.NewObservationRepository(pool, upsert)
	forecastClient := provider.NewOpenWeatherClient(cfg.Provider)
	ingestSvc := ingest.NewService(cityRepo, obsRepo, forecastClient, logger, cfg.Ingest.Concurrency)
	weatherSvc := weather.NewService(obsRepo)

	// Seed the bootstrap cities so GET /cities is a pure read from the start.
	if err := seedCities(ctx, cityRepo, cfg.Ingest.BootstrapCities, logger); err != nil {
		return fmt.Errorf("seeding bootstrap cities: %w", err)
	}

	// Startup ingestion runs in the background so a slow or failing provider
	// never blocks serving; per-city failures are logged and isolated.
	go bootstrapIngest(ctx, ingestSvc, cfg.Ingest, logger)

	// HTTP server.
	srv, err := core.NewServer(cfg, logger)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}
	srv.HealthProbes = append(srv.HealthProbes, db.NewHealthProbe(pool))

	cityHandler := handlers.NewCityHandler(cityRepo, logger)
	weatherHandler := handlers.NewWeatherHandler(weatherSvc, ingestSvc, logger)
	srv.RouteRegistrars = append(srv.RouteRegistrars,
		func(r chi.Router) { cityHandler.RegisterRoutes(r) },
		func(r chi.Router) { weatherHandler.RegisterRoutes(r) },
	)
	srv.MountRoutes()

	return serveHTTP(ctx, srv, cfg, logger)
}

// seedCities creates the default city rows if they do not exist yet.
func seedCities(ctx context.Context, cities *db.CityRepository, names []string, logger *slog.Logger) error {
	for _, name := range names {
		city, created, err := cities.GetOrCreate(ctx, name)
		if err != nil {
			return err
		}
		if created {
			logger.Info("seeded city", "city", city.Name, "city_id", city.ID)
		}
	}
	return nil
}

// bootstrapIngest runs one ingestion pass over the bootstrap city list,
// bounded by the configured startup timeout.
func bootstrapIngest(ctx context.Context, svc *ingest.Service, cfg config.IngestConfig, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(ctx, cfg.StartupTimeout)
	defer cancel()

	statuses := svc.IngestAll(ctx, cfg.BootstrapCities)

	failed := 0
	stored := 0
	for _, st := range statuses {
		if st.Err != nil {
			failed++
			continue
		}
		stored += st.StoredCount
	}
	logger.Info("startup ingestion finished",
		"cities", len(statuses),
		"failed", failed,
		"stored_count", stored,
	)
}

// serveHTTP starts the server and blocks until a shutdown signal or a server
// error, then drains in-flight requests.
func serveHTTP(ctx context.Context, srv *core.Server, cfg *config.Config, logger *slog.Logger) error {
	addr := ":" + cfg.Server.Port

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	logger.Info("initiating graceful shutdown")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
		return fmt.Errorf("server shutdown: %w", err)
	}

	logger.Info("server stopped cleanly")
	return nil
}

// newLogger creates a structured slog.Logger configured for the given log level.
func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "info":
		lvl = slog.LevelInfo
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: lvl,
	}))
}
