package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/itinerum/tripbreaker-backend/internal/api"
	"github.com/itinerum/tripbreaker-backend/internal/config"
	"github.com/itinerum/tripbreaker-backend/internal/database"
	"github.com/itinerum/tripbreaker-backend/internal/metrics"
	"github.com/itinerum/tripbreaker-backend/internal/service"

	_ "time/tzdata"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	cfg.SetupLogging()

	if cfg.UsesDefaultSecret() {
		log.Warn().Msg("JWT_SECRET is not set, using the development default")
	}

	if err := database.Init(database.Config{Path: cfg.DBPath}); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer database.Close()

	db := database.GetDB()
	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var collector *metrics.Collector
	if cfg.MetricsEnabled {
		collector = metrics.NewCollector()
	}

	services := service.New(ctx, db, service.ExportConfig{
		Dir:              cfg.ExportDir,
		Workers:          cfg.ExportWorkers,
		MaxPointsPerUser: cfg.MaxPointsPerUser,
	}, collector)

	srv := &http.Server{
		Addr:              cfg.Port,
		Handler:           api.SetupRouter(ctx, cfg, services, collector),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.Port).Msg("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown failed")
	}
	services.Close()
}
