package routing

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/roadplanner/roadplanner/internal/cache"
	"github.com/roadplanner/roadplanner/internal/graph"
	"github.com/roadplanner/roadplanner/internal/telemetry"
	"github.com/roadplanner/roadplanner/pkg/geo"
)

const tracerName = "github.com/roadplanner/roadplanner/internal/routing"

// DefaultNetworkBufferKm pads the network area around source and destination.
const DefaultNetworkBufferKm = 1.0

// ServiceConfig holds configuration for the routing service.
type ServiceConfig struct {
	// Provider supplies raw road network data.
	Provider NetworkProvider

	// Logger for service operations.
	Logger zerolog.Logger

	// Metrics records cache behavior. Optional.
	Metrics *telemetry.ProviderMetrics

	// NetworkBufferKm pads the fetched area around the endpoints (default: 1).
	NetworkBufferKm float64

	// SnapDistanceKm bounds endpoint snapping (default: 2).
	SnapDistanceKm float64

	// DefaultSpeedKmh applies to ways without a speed limit (default: 50).
	DefaultSpeedKmh float64

	// CacheTTL is how long raw network data is reused (default: 10 minutes).
	// Graphs themselves are rebuilt for every request.
	CacheTTL time.Duration

	// CacheGridSize quantizes fetch areas in degrees (default: 0.01 ~ 1.1km).
	CacheGridSize float64

	// StaleIfErrorTTL allows serving stale network data on provider errors (default: 1 hour).
	StaleIfErrorTTL time.Duration
}

// Service computes routes over provider network data.
type Service struct {
	provider      NetworkProvider
	logger        zerolog.Logger
	metrics       *telemetry.ProviderMetrics
	tracer        trace.Tracer
	bufferKm      float64
	cacheGridSize float64
	opts          ComputeOptions
	cache         *cache.Store[*RawNetwork]
}

// NewService creates a new routing service.
func NewService(cfg ServiceConfig) *Service {
	bufferKm := cfg.NetworkBufferKm
	if bufferKm == 0 {
		bufferKm = DefaultNetworkBufferKm
	}

	cacheGridSize := cfg.CacheGridSize
	if cacheGridSize == 0 {
		cacheGridSize = 0.01
	}

	return &Service{
		provider:      cfg.Provider,
		logger:        cfg.Logger,
		metrics:       cfg.Metrics,
		tracer:        otel.Tracer(tracerName),
		bufferKm:      bufferKm,
		cacheGridSize: cacheGridSize,
		opts: ComputeOptions{
			SnapDistanceKm:  cfg.SnapDistanceKm,
			DefaultSpeedKmh: cfg.DefaultSpeedKmh,
		},
		cache: cache.New[*RawNetwork](cache.Config{
			Name:            "road_network",
			Logger:          cfg.Logger,
			TTL:             cfg.CacheTTL,
			StaleIfErrorTTL: cfg.StaleIfErrorTTL,
		}),
	}
}

// ComputeRoute fetches the road network around the request endpoints and
// computes a route over it.
func (s *Service) ComputeRoute(ctx context.Context, req RouteRequest) (*Route, error) {
	if err := req.Source.Validate(); err != nil {
		return nil, &Error{
			Code:     "INVALID_SOURCE",
			Message:  "invalid source coordinates",
			Endpoint: EndpointSource,
			Err:      ErrInvalidCoordinates,
		}
	}
	if err := req.Destination.Validate(); err != nil {
		return nil, &Error{
			Code:     "INVALID_DESTINATION",
			Message:  "invalid destination coordinates",
			Endpoint: EndpointDestination,
			Err:      ErrInvalidCoordinates,
		}
	}
	if req.Metric == "" {
		req.Metric = graph.MetricTime
	}

	ctx, span := s.tracer.Start(ctx, "routing.ComputeRoute",
		trace.WithAttributes(
			attribute.String("route.metric", string(req.Metric)),
			attribute.Float64("route.source.lat", req.Source.Lat),
			attribute.Float64("route.source.lon", req.Source.Lon),
			attribute.Float64("route.destination.lat", req.Destination.Lat),
			attribute.Float64("route.destination.lon", req.Destination.Lon),
		),
	)
	defer span.End()

	network, err := s.fetchNetwork(ctx, geo.BoundsAround(req.Source, req.Destination, s.bufferKm))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "network fetch failed")
		return nil, err
	}

	start := time.Now()
	route, err := Compute(network, req.Source, req.Destination, req.Metric, s.opts)
	if err != nil {
		s.logComputeError(err, req)
		span.RecordError(err)
		span.SetStatus(codes.Error, "route computation failed")
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("route.node_count", route.NodeCount()),
		attribute.Float64("route.distance_km", route.DistanceKm),
		attribute.Int("network.node_count", route.NetworkNodes),
		attribute.Int("network.edge_count", route.NetworkEdges),
	)

	s.logger.Debug().
		Str("metric", string(route.Metric)).
		Int("node_count", route.NodeCount()).
		Float64("distance_km", route.DistanceKm).
		Float64("travel_time_hours", route.TravelTimeHours).
		Int("network_nodes", route.NetworkNodes).
		Int("network_edges", route.NetworkEdges).
		Dur("compute_duration", time.Since(start)).
		Msg("route computed")

	return route, nil
}

func (s *Service) fetchNetwork(ctx context.Context, bbox geo.BoundingBox) (*RawNetwork, error) {
	fetchBox := cache.Expand(bbox, s.cacheGridSize)
	key := cache.BoundingBoxKey("network", bbox, s.cacheGridSize)

	network, source, err := s.cache.GetOrFetch(ctx, key, func(ctx context.Context) (*RawNetwork, error) {
		s.logger.Debug().
			Float64("min_lat", fetchBox.MinLat).
			Float64("min_lon", fetchBox.MinLon).
			Float64("max_lat", fetchBox.MaxLat).
			Float64("max_lon", fetchBox.MaxLon).
			Str("provider", s.provider.Name()).
			Msg("fetching road network from provider")
		return s.provider.FetchNetwork(ctx, fetchBox)
	})
	if err != nil {
		s.logger.Error().Err(err).
			Str("provider", s.provider.Name()).
			Str("cache_key", key).
			Msg("failed to fetch road network")

		var routeErr *Error
		if errors.As(err, &routeErr) {
			return nil, err
		}
		return nil, &Error{
			Code:    "PROVIDER_ERROR",
			Message: "road network provider request failed",
			Err:     errors.Join(ErrProviderUnavailable, err),
		}
	}
	s.metrics.RecordCacheResult(s.provider.Name(), "network", string(source))

	return network, nil
}

func (s *Service) logComputeError(err error, req RouteRequest) {
	event := s.logger.Warn().Err(err).
		Float64("source_lat", req.Source.Lat).
		Float64("source_lon", req.Source.Lon).
		Float64("dest_lat", req.Destination.Lat).
		Float64("dest_lon", req.Destination.Lon).
		Str("metric", string(req.Metric))

	var routeErr *Error
	if errors.As(err, &routeErr) {
		event = event.
			Str("code", routeErr.Code).
			Str("endpoint", string(routeErr.Endpoint)).
			Int("network_nodes", routeErr.NodeCount).
			Int("network_edges", routeErr.EdgeCount)
	}
	event.Msg("route computation failed")
}

// InvalidateCache clears cached network data.
func (s *Service) InvalidateCache() {
	s.cache.Invalidate()
}

// CacheStats returns statistics of the raw network cache.
func (s *Service) CacheStats() cache.Stats {
	return s.cache.Stats()
}

// ProviderName returns the name of the underlying provider.
func (s *Service) ProviderName() string {
	return s.provider.Name()
}
