package poi

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/roadplanner/roadplanner/internal/cache"
	"github.com/roadplanner/roadplanner/internal/telemetry"
	"github.com/roadplanner/roadplanner/pkg/geo"
)

// DefaultPaddingDeg is the padding applied around source and destination when searching.
const DefaultPaddingDeg = 0.05

// ServiceConfig holds configuration for the POI service.
type ServiceConfig struct {
	Provider Provider
	Logger   zerolog.Logger
	Metrics  *telemetry.ProviderMetrics

	// PaddingDeg pads the search box around the journey endpoints (default: 0.05).
	PaddingDeg float64

	// CacheTTL is how long raw provider results are reused (default: 30 minutes).
	CacheTTL time.Duration

	// CacheGridSize quantizes search boxes for cache sharing in degrees (default: 0.01).
	CacheGridSize float64

	// StaleIfErrorTTL allows serving stale results on provider errors (default: 6 hours).
	StaleIfErrorTTL time.Duration
}

// Service fetches and projects POIs with caching.
type Service struct {
	provider      Provider
	logger        zerolog.Logger
	metrics       *telemetry.ProviderMetrics
	paddingDeg    float64
	cacheGridSize float64
	cache         *cache.Store[[]RawElement]
}

// NewService creates a new POI service.
func NewService(cfg ServiceConfig) *Service {
	paddingDeg := cfg.PaddingDeg
	if paddingDeg == 0 {
		paddingDeg = DefaultPaddingDeg
	}

	cacheTTL := cfg.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 30 * time.Minute
	}

	cacheGridSize := cfg.CacheGridSize
	if cacheGridSize == 0 {
		cacheGridSize = 0.01
	}

	staleIfErrorTTL := cfg.StaleIfErrorTTL
	if staleIfErrorTTL == 0 {
		staleIfErrorTTL = 6 * time.Hour
	}

	return &Service{
		provider:      cfg.Provider,
		logger:        cfg.Logger,
		metrics:       cfg.Metrics,
		paddingDeg:    paddingDeg,
		cacheGridSize: cacheGridSize,
		cache: cache.New[[]RawElement](cache.Config{
			Name:            "poi",
			Logger:          cfg.Logger,
			TTL:             cacheTTL,
			StaleIfErrorTTL: staleIfErrorTTL,
		}),
	}
}

// SearchBox returns the area searched for a journey between a and b.
func (s *Service) SearchBox(a, b geo.Coordinate) geo.BoundingBox {
	return geo.BoundsAroundDegrees(a, b, s.paddingDeg)
}

// Search fetches the given categories between source and destination.
// Categories are fetched concurrently; an empty list means all categories.
// Records keep provider order.
func (s *Service) Search(ctx context.Context, source, destination geo.Coordinate, categories []Category) (*SearchResult, error) {
	if len(categories) == 0 {
		categories = Categories()
	}
	for _, c := range categories {
		if _, err := ParseCategory(string(c)); err != nil {
			return nil, err
		}
	}

	bbox := s.SearchBox(source, destination)
	result := &SearchResult{
		Records:   make(map[Category][]Record, len(categories)),
		FetchedAt: time.Now(),
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for _, c := range categories {
		g.Go(func() error {
			records, err := s.fetchCategory(gctx, bbox, c)
			if err != nil {
				return fmt.Errorf("fetch %s pois: %w", c, err)
			}
			mu.Lock()
			result.Records[c] = records
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return result, nil
}

func (s *Service) fetchCategory(ctx context.Context, bbox geo.BoundingBox, c Category) ([]Record, error) {
	fetchBox := cache.Expand(bbox, s.cacheGridSize)
	key := cache.BoundingBoxKey(string(c), bbox, s.cacheGridSize)

	raws, source, err := s.cache.GetOrFetch(ctx, key, func(ctx context.Context) ([]RawElement, error) {
		s.logger.Debug().
			Str("category", string(c)).
			Float64("min_lat", fetchBox.MinLat).
			Float64("min_lon", fetchBox.MinLon).
			Float64("max_lat", fetchBox.MaxLat).
			Float64("max_lon", fetchBox.MaxLon).
			Str("provider", s.provider.Name()).
			Msg("fetching pois from provider")
		return s.provider.FetchPOIs(ctx, fetchBox, c)
	})
	if err != nil {
		s.logger.Error().Err(err).
			Str("category", string(c)).
			Str("provider", s.provider.Name()).
			Msg("failed to fetch pois")
		return nil, err
	}
	s.metrics.RecordCacheResult(s.provider.Name(), "pois", string(source))

	// The fetched area is grid-aligned, so trim back to the requested box.
	inside := make([]RawElement, 0, len(raws))
	for _, r := range raws {
		if bbox.Contains(geo.Coordinate{Lat: r.Lat, Lon: r.Lon}) {
			inside = append(inside, r)
		}
	}

	return ProjectAll(c, inside)
}

// CacheStats returns statistics of the raw POI cache.
func (s *Service) CacheStats() cache.Stats {
	return s.cache.Stats()
}

// ProviderName returns the name of the underlying provider.
func (s *Service) ProviderName() string {
	return s.provider.Name()
}
