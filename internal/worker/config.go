// Package worker processes background planning jobs for RoadPlanner.
package worker

import (
	"sort"
	"time"

	"github.com/roadplanner/roadplanner/pkg/geo"
)

// Corridor is a frequently planned source/destination pair whose road
// network and POIs are kept warm in the provider caches.
type Corridor struct {
	Name        string
	Source      geo.Coordinate
	Destination geo.Coordinate

	// Priority determines warm-up order (lower = earlier).
	Priority int
}

// WarmConfig holds configuration for the cache warm-up job.
type WarmConfig struct {
	// Corridors to warm. If empty, uses DefaultCorridors.
	Corridors []Corridor

	// Concurrency is the number of corridors warmed at once.
	// Default: 2
	Concurrency int

	// Timeout bounds the warm-up of one corridor.
	// Default: 60 seconds
	Timeout time.Duration

	// WarmPOIs also fetches points of interest for each corridor.
	WarmPOIs bool
}

// DefaultWarmConfig returns the default warm-up configuration.
func DefaultWarmConfig() WarmConfig {
	return WarmConfig{
		Corridors:   DefaultCorridors(),
		Concurrency: 2,
		Timeout:     60 * time.Second,
		WarmPOIs:    true,
	}
}

// DefaultCorridors returns short urban corridors used for health probes and warm-up.
// Each must fit in a single Overpass network query.
func DefaultCorridors() []Corridor {
	return []Corridor{
		{
			Name:        "bengaluru-centre",
			Source:      geo.Coordinate{Lat: 12.9716, Lon: 77.5946},
			Destination: geo.Coordinate{Lat: 12.9352, Lon: 77.6245},
			Priority:    1,
		},
		{
			Name:        "chennai-centre",
			Source:      geo.Coordinate{Lat: 13.0827, Lon: 80.2707},
			Destination: geo.Coordinate{Lat: 13.0418, Lon: 80.2341},
			Priority:    1,
		},
		{
			Name:        "mysuru-centre",
			Source:      geo.Coordinate{Lat: 12.2958, Lon: 76.6394},
			Destination: geo.Coordinate{Lat: 12.3052, Lon: 76.6552},
			Priority:    2,
		},
	}
}

// withDefaults fills zero fields and orders corridors by priority.
func (c WarmConfig) withDefaults() WarmConfig {
	if len(c.Corridors) == 0 {
		c.Corridors = DefaultCorridors()
	}
	if c.Concurrency <= 0 {
		c.Concurrency = 2
	}
	if c.Timeout <= 0 {
		c.Timeout = 60 * time.Second
	}

	sorted := make([]Corridor, len(c.Corridors))
	copy(sorted, c.Corridors)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority < sorted[j].Priority
	})
	c.Corridors = sorted
	return c
}
