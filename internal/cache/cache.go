// Package cache provides a TTL cache for raw provider payloads with
// stale-if-error fallback and per-key request coalescing.
package cache

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/roadplanner/roadplanner/pkg/geo"
)

// Source tells where a value returned by GetOrFetch came from.
type Source string

const (
	SourceCache    Source = "cache"
	SourceProvider Source = "provider"
	SourceStale    Source = "stale"
)

// Config holds configuration for a Store.
type Config struct {
	// Name identifies the cache in logs.
	Name string

	Logger zerolog.Logger

	// TTL is how long entries are served without refetching (default: 10 minutes).
	TTL time.Duration

	// StaleIfErrorTTL allows serving stale entries on fetch errors (default: 1 hour).
	StaleIfErrorTTL time.Duration

	// CleanupInterval is how often expired entries are swept (default: 5 minutes).
	CleanupInterval time.Duration

	// Now overrides the clock in tests.
	Now func() time.Time
}

// Store caches values of type T by string key.
type Store[T any] struct {
	name            string
	logger          zerolog.Logger
	ttl             time.Duration
	staleIfErrorTTL time.Duration
	cleanupInterval time.Duration
	now             func() time.Time

	group singleflight.Group

	mu          sync.RWMutex
	entries     map[string]*entry[T]
	lastCleanup time.Time
}

type entry[T any] struct {
	value     T
	fetchedAt time.Time
	expiresAt time.Time
}

// New creates a Store.
func New[T any](cfg Config) *Store[T] {
	ttl := cfg.TTL
	if ttl == 0 {
		ttl = 10 * time.Minute
	}

	staleIfErrorTTL := cfg.StaleIfErrorTTL
	if staleIfErrorTTL == 0 {
		staleIfErrorTTL = time.Hour
	}

	cleanupInterval := cfg.CleanupInterval
	if cleanupInterval == 0 {
		cleanupInterval = 5 * time.Minute
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Store[T]{
		name:            cfg.Name,
		logger:          cfg.Logger,
		ttl:             ttl,
		staleIfErrorTTL: staleIfErrorTTL,
		cleanupInterval: cleanupInterval,
		now:             now,
		entries:         make(map[string]*entry[T]),
	}
}

// GetOrFetch returns the cached value for key, calling fetch on a miss.
// Concurrent misses for the same key share one fetch. When fetch fails and
// an entry younger than the stale window exists, that entry is returned.
func (s *Store[T]) GetOrFetch(ctx context.Context, key string, fetch func(ctx context.Context) (T, error)) (T, Source, error) {
	s.mu.RLock()
	if e, ok := s.entries[key]; ok && s.now().Before(e.expiresAt) {
		s.mu.RUnlock()
		s.logger.Debug().
			Str("cache", s.name).
			Str("cache_key", key).
			Msg("cache hit")
		return e.value, SourceCache, nil
	}
	s.mu.RUnlock()

	v, err, _ := s.group.Do(key, func() (any, error) {
		value, err := fetch(ctx)
		if err != nil {
			return value, err
		}

		now := s.now()
		s.mu.Lock()
		s.entries[key] = &entry[T]{value: value, fetchedAt: now, expiresAt: now.Add(s.ttl)}
		s.cleanupLocked(now)
		s.mu.Unlock()

		return value, nil
	})
	if err == nil {
		return v.(T), SourceProvider, nil
	}

	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if ok && s.now().Before(e.fetchedAt.Add(s.staleIfErrorTTL)) {
		s.logger.Warn().Err(err).
			Str("cache", s.name).
			Str("cache_key", key).
			Time("fetched_at", e.fetchedAt).
			Msg("serving stale data due to provider error")
		return e.value, SourceStale, nil
	}

	var zero T
	return zero, "", err
}

func (s *Store[T]) cleanupLocked(now time.Time) {
	if now.Sub(s.lastCleanup) < s.cleanupInterval {
		return
	}
	s.lastCleanup = now

	expired := 0
	for key, e := range s.entries {
		if now.After(e.fetchedAt.Add(s.staleIfErrorTTL)) {
			delete(s.entries, key)
			expired++
		}
	}

	if expired > 0 {
		s.logger.Debug().
			Str("cache", s.name).
			Int("expired_entries", expired).
			Msg("cleaned up expired cache entries")
	}
}

// Invalidate drops every entry.
func (s *Store[T]) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]*entry[T])
}

// Stats contains cache statistics.
type Stats struct {
	TotalEntries int
	FreshEntries int
	StaleEntries int
}

// Stats returns cache statistics.
func (s *Store[T]) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.now()
	var stats Stats
	stats.TotalEntries = len(s.entries)
	for _, e := range s.entries {
		if now.Before(e.expiresAt) {
			stats.FreshEntries++
		} else if now.Before(e.fetchedAt.Add(s.staleIfErrorTTL)) {
			stats.StaleEntries++
		}
	}
	return stats
}

// BoundingBoxKey quantizes a box outward to a grid so nearby requests share entries.
// Format: {prefix}:{minLat},{minLon}:{maxLat},{maxLon}.
func BoundingBoxKey(prefix string, bbox geo.BoundingBox, gridSize float64) string {
	if gridSize <= 0 {
		gridSize = 0.01
	}

	return fmt.Sprintf("%s:%.4f,%.4f:%.4f,%.4f",
		prefix,
		math.Floor(bbox.MinLat/gridSize)*gridSize,
		math.Floor(bbox.MinLon/gridSize)*gridSize,
		math.Ceil(bbox.MaxLat/gridSize)*gridSize,
		math.Ceil(bbox.MaxLon/gridSize)*gridSize,
	)
}

// Expand grows a box outward to the same grid used by BoundingBoxKey, so the
// fetched area covers every request that maps to the key.
func Expand(bbox geo.BoundingBox, gridSize float64) geo.BoundingBox {
	if gridSize <= 0 {
		gridSize = 0.01
	}

	return geo.BoundingBox{
		MinLat: math.Floor(bbox.MinLat/gridSize) * gridSize,
		MinLon: math.Floor(bbox.MinLon/gridSize) * gridSize,
		MaxLat: math.Ceil(bbox.MaxLat/gridSize) * gridSize,
		MaxLon: math.Ceil(bbox.MaxLon/gridSize) * gridSize,
	}
}
