// Package app assembles the RoadPlanner services shared by the API server
// and the background worker.
package app

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/roadplanner/roadplanner/internal/api/handler"
	"github.com/roadplanner/roadplanner/internal/config"
	"github.com/roadplanner/roadplanner/internal/database"
	"github.com/roadplanner/roadplanner/internal/itinerary"
	"github.com/roadplanner/roadplanner/internal/journey"
	"github.com/roadplanner/roadplanner/internal/overpass"
	"github.com/roadplanner/roadplanner/internal/poi"
	"github.com/roadplanner/roadplanner/internal/provider/resilience"
	"github.com/roadplanner/roadplanner/internal/routing"
	"github.com/roadplanner/roadplanner/internal/telemetry"
)

// Services holds the wired domain services.
type Services struct {
	Registry  *resilience.Registry
	Routes    *routing.Service
	POIs      *poi.Service
	Planner   *journey.Planner
	Journeys  *journey.Service
	Itinerary itinerary.Options

	// Checks are the readiness probes of the configured backends.
	Checks []handler.ReadinessCheck

	pool *pgxpool.Pool
}

// Options overrides parts of the wiring. The zero value builds the
// production graph from the configuration.
type Options struct {
	// Provider replaces the Overpass client for both roads and POIs.
	Provider interface {
		routing.NetworkProvider
		poi.Provider
	}
}

// Build wires the provider, caches, planner and journey storage.
func Build(ctx context.Context, cfg *config.Config, logger zerolog.Logger, opts Options) (*Services, error) {
	registry := resilience.NewRegistry()

	providerMetrics, err := telemetry.NewProviderMetrics()
	if err != nil {
		return nil, fmt.Errorf("create provider metrics: %w", err)
	}

	provider := opts.Provider
	if provider == nil {
		provider = overpass.NewClient(overpass.ClientConfig{
			BaseURL:  cfg.Overpass.BaseURL,
			Timeout:  cfg.Overpass.Timeout,
			Registry: registry,
			Metrics:  providerMetrics,
			Logger:   logger.With().Str("component", "overpass").Logger(),
		})
	}

	routes := routing.NewService(routing.ServiceConfig{
		Provider:        provider,
		Logger:          logger.With().Str("component", "routing").Logger(),
		Metrics:         providerMetrics,
		NetworkBufferKm: cfg.Routing.NetworkBufferKm,
		SnapDistanceKm:  cfg.Routing.SnapDistanceKm,
		DefaultSpeedKmh: cfg.Routing.DefaultSpeedKmh,
		CacheTTL:        cfg.Routing.CacheTTL,
	})

	pois := poi.NewService(poi.ServiceConfig{
		Provider:   provider,
		Logger:     logger.With().Str("component", "poi").Logger(),
		Metrics:    providerMetrics,
		PaddingDeg: cfg.Itinerary.POIPaddingDeg,
	})

	itineraryOpts := itinerary.Options{
		AvgSpeedKmh:           cfg.Itinerary.AvgSpeedKmh,
		MaxDrivingHoursPerDay: cfg.Itinerary.MaxDrivingHoursPerDay,
	}

	planner := journey.NewPlanner(journey.PlannerConfig{
		Routes:    routes,
		POIs:      pois,
		Itinerary: itineraryOpts,
		Logger:    logger.With().Str("component", "planner").Logger(),
	})

	s := &Services{
		Registry:  registry,
		Routes:    routes,
		POIs:      pois,
		Planner:   planner,
		Itinerary: itineraryOpts,
	}

	repo, err := s.openRepository(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	s.Journeys = journey.NewService(repo, planner, logger.With().Str("component", "journeys").Logger())

	return s, nil
}

func (s *Services) openRepository(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (journey.Repository, error) {
	if cfg.Storage != config.StoragePostgres {
		logger.Info().Msg("using in-memory journey storage")
		return journey.NewInMemoryRepository(), nil
	}

	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	repo := journey.NewPostgresRepository(pool)
	if err := repo.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure journey schema: %w", err)
	}

	logger.Info().
		Str("host", cfg.Database.Host).
		Int("port", cfg.Database.Port).
		Str("database", cfg.Database.Database).
		Msg("database connected")

	s.pool = pool
	s.Checks = append(s.Checks, handler.ReadinessCheck{
		Name:  "database",
		Check: pool.Ping,
	})
	return repo, nil
}

// Caches reports the provider caches for the status endpoint.
func (s *Services) Caches() []handler.CacheReporter {
	return []handler.CacheReporter{
		{Name: "road_network_cache", Stats: s.Routes.CacheStats},
		{Name: "poi_cache", Stats: s.POIs.CacheStats},
	}
}

// Close releases the database pool, if any.
func (s *Services) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}
