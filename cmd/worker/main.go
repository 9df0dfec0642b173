// Package main provides the entrypoint for the RoadPlanner background worker.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/roadplanner/roadplanner/internal/api/handler"
	"github.com/roadplanner/roadplanner/internal/api/middleware"
	"github.com/roadplanner/roadplanner/internal/api/response"
	"github.com/roadplanner/roadplanner/internal/app"
	"github.com/roadplanner/roadplanner/internal/config"
	"github.com/roadplanner/roadplanner/internal/telemetry"
	"github.com/roadplanner/roadplanner/internal/worker"
)

// Version and BuildTime are set at compile time via ldflags
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "roadplanner-worker"

	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting RoadPlanner worker")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

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
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	services, err := app.Build(ctx, cfg, log, app.Options{})
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize services")
		return
	}
	defer services.Close()

	warm := worker.NewWarmJob(worker.WarmJobConfig{
		Config: worker.DefaultWarmConfig(),
		Routes: services.Routes,
		POIs:   services.POIs,
		Logger: log.With().Str("component", "warm").Logger(),
	})
	processor := worker.NewProcessor(worker.ProcessorConfig{
		Journeys: services.Journeys,
		Warm:     warm,
		Logger:   log.With().Str("component", "processor").Logger(),
	})

	// Worker also exposes health endpoints for Cloud Run
	ops := handler.NewOpsHandler(handler.OpsConfig{
		Version:   Version,
		BuildTime: BuildTime,
		Registry:  services.Registry,
		Checks:    services.Checks,
		Caches:    services.Caches(),
	})
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(log))
	r.Use(middleware.ContentTypeJSON)
	r.Get("/v1/ops/health", ops.HealthCheck)
	r.Get("/v1/ops/ready", ops.ReadinessCheck)
	r.Get("/v1/ops/status", ops.SystemStatus)
	r.Get("/v1/ops/warm", func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, r, http.StatusOK, warm.MetricsSnapshot())
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("health server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("health server error")
		}
	}()

	if cfg.PubSub.ProjectID != "" {
		subscriber, err := worker.NewPubSubHandler(ctx, worker.PubSubConfig{
			ProjectID:        cfg.PubSub.ProjectID,
			SubscriptionName: cfg.PubSub.Subscription,
			Processor:        processor,
			Logger:           log.With().Str("component", "pubsub").Logger(),
		})
		if err != nil {
			log.Error().Err(err).Msg("failed to create pubsub handler")
			return
		}
		defer func() {
			if err := subscriber.Close(); err != nil {
				log.Error().Err(err).Msg("failed to close pubsub client")
			}
		}()

		go func() {
			if err := subscriber.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("pubsub receive stopped")
				cancel()
			}
		}()
	} else if cfg.PubSub.WarmInterval > 0 {
		log.Info().
			Dur("interval", cfg.PubSub.WarmInterval).
			Msg("no pubsub project configured, warming corridors on a schedule")
		go warm.Schedule(ctx, cfg.PubSub.WarmInterval)
	} else {
		log.Warn().Msg("no pubsub project and no warm interval configured, worker is idle")
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down worker")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("health server forced to shutdown")
	}

	log.Info().Msg("worker stopped")
}
