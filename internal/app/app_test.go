package app_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roadplanner/roadplanner/internal/app"
	"github.com/roadplanner/roadplanner/internal/config"
	"github.com/roadplanner/roadplanner/internal/graph"
	"github.com/roadplanner/roadplanner/internal/journey"
	"github.com/roadplanner/roadplanner/internal/poi"
	"github.com/roadplanner/roadplanner/internal/routing"
	"github.com/roadplanner/roadplanner/pkg/geo"
)

type stripProvider struct{}

func (stripProvider) Name() string { return "strip" }

func (stripProvider) FetchNetwork(context.Context, geo.BoundingBox) (*routing.RawNetwork, error) {
	return &routing.RawNetwork{
		Points: []graph.PointFeature{
			{ID: 1, Lat: 0, Lon: 0},
			{ID: 2, Lat: 0, Lon: 0.01},
		},
		Ways: []graph.Way{
			{ID: 10, NodeIDs: []graph.NodeID{1, 2}, SpeedKmh: 60},
		},
		Provider:  "strip",
		FetchedAt: time.Now(),
	}, nil
}

func (stripProvider) FetchPOIs(context.Context, geo.BoundingBox, poi.Category) ([]poi.RawElement, error) {
	return nil, nil
}

func loadConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.FromLookup(func(string) string { return "" })
	require.NoError(t, err)
	cfg.Itinerary.AvgSpeedKmh = 80
	return cfg
}

func TestBuild_MemoryStorage(t *testing.T) {
	cfg := loadConfig(t)

	services, err := app.Build(context.Background(), cfg, zerolog.Nop(), app.Options{Provider: stripProvider{}})
	require.NoError(t, err)
	defer services.Close()

	assert.Empty(t, services.Checks)
	assert.InDelta(t, 80, services.Itinerary.AvgSpeedKmh, 1e-9)
	assert.Equal(t, "strip", services.Routes.ProviderName())

	caches := services.Caches()
	require.Len(t, caches, 2)
	assert.Equal(t, "road_network_cache", caches[0].Name)
	assert.Equal(t, "poi_cache", caches[1].Name)

	j, err := services.Journeys.PlanAndCreate(context.Background(), "usr_app", "Strip", journey.PlanRequest{
		Source:      geo.Coordinate{Lat: 0, Lon: 0},
		Destination: geo.Coordinate{Lat: 0, Lon: 0.01},
		Metric:      graph.MetricDistance,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, j.Plan.Days())
	assert.Equal(t, 2, j.Plan.Route.NodeCount)
	assert.Equal(t, 1, caches[0].Stats().TotalEntries)
}

func TestBuild_DefaultProvider(t *testing.T) {
	services, err := app.Build(context.Background(), loadConfig(t), zerolog.Nop(), app.Options{})
	require.NoError(t, err)
	defer services.Close()

	assert.Equal(t, "overpass", services.Routes.ProviderName())
	assert.Equal(t, "overpass", services.POIs.ProviderName())
}
