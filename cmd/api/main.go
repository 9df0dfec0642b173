// Package main provides the entrypoint for the RoadPlanner API server.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/roadplanner/roadplanner/internal/api"
	"github.com/roadplanner/roadplanner/internal/api/handler"
	"github.com/roadplanner/roadplanner/internal/api/middleware"
	"github.com/roadplanner/roadplanner/internal/app"
	"github.com/roadplanner/roadplanner/internal/auth"
	"github.com/roadplanner/roadplanner/internal/config"
	"github.com/roadplanner/roadplanner/internal/telemetry"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "roadplanner-api"

	// Setup structured logging
	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting RoadPlanner API")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	if !cfg.IsProduction() {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
	if cfg.JWT.SigningKey == config.DevSigningKey {
		log.Warn().Msg("using default JWT signing key - not secure for production")
	}

	// Initialize OpenTelemetry
	ctx := context.Background()
	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    cfg.Env,
		OTLPEndpoint:   cfg.Telemetry.OTLPEndpoint,
		Enabled:        cfg.Telemetry.Enabled,
		SampleRatio:    cfg.Telemetry.SampleRatio,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	if cfg.Telemetry.Enabled {
		log.Info().
			Str("otlp_endpoint", cfg.Telemetry.OTLPEndpoint).
			Msg("OpenTelemetry initialized")
	}

	metrics, err := middleware.NewMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize metrics")
		os.Exit(1) //nolint:gocritic // intentional exit, telemetry cleanup is best-effort
	}

	services, err := app.Build(ctx, cfg, log, app.Options{})
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize services")
		os.Exit(1)
	}
	defer services.Close()

	tokens := auth.NewJWTService(auth.JWTConfig{
		SigningKey: cfg.JWT.SigningKey,
		Issuer:     cfg.JWT.Issuer,
		Audience:   cfg.JWT.Audience,
	})

	router := api.NewRouter(api.RouterConfig{
		Logger:      log,
		ServiceName: serviceName,
		Metrics:     metrics,
		Tokens:      tokens,
		Routes:      services.Routes,
		POIs:        services.POIs,
		Planner:     services.Planner,
		Journeys:    services.Journeys,
		Itinerary:   services.Itinerary,
		Ops: handler.OpsConfig{
			Version:   Version,
			BuildTime: BuildTime,
			Registry:  services.Registry,
			Checks:    services.Checks,
			Caches:    services.Caches(),
		},
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		RequireTLS:     cfg.RequireTLS,
	})

	// Planning responses wait on the map provider.
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.Overpass.Timeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().
			Str("addr", server.Addr).
			Str("storage", cfg.Storage).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		return
	}

	log.Info().Msg("server stopped")
}
