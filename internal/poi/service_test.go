package poi

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roadplanner/roadplanner/pkg/geo"
)

type mockProvider struct {
	mu        sync.Mutex
	elements  map[Category][]RawElement
	err       error
	callCount atomic.Int32
	boxes     []geo.BoundingBox
}

func (m *mockProvider) FetchPOIs(ctx context.Context, bbox geo.BoundingBox, category Category) ([]RawElement, error) {
	m.callCount.Add(1)
	m.mu.Lock()
	m.boxes = append(m.boxes, bbox)
	m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return m.elements[category], nil
}

func (m *mockProvider) Name() string {
	return "mock"
}

var (
	bangalore = geo.Coordinate{Lat: 12.97, Lon: 77.59}
	mysore    = geo.Coordinate{Lat: 12.30, Lon: 76.64}
)

func TestService_Search(t *testing.T) {
	provider := &mockProvider{
		elements: map[Category][]RawElement{
			CategoryStay: {
				{ID: 1, Lat: 12.5, Lon: 77.0, Tags: map[string]string{"name": "Highway Inn"}},
				// Outside the padded box.
				{ID: 2, Lat: 20.0, Lon: 77.0},
			},
			CategoryDining: {
				{ID: 3, Lat: 12.6, Lon: 77.1, Tags: map[string]string{"amenity": "fast_food"}},
			},
			CategoryEmergency: {
				{ID: 4, Lat: 12.7, Lon: 77.2, Tags: map[string]string{"amenity": "hospital"}},
			},
		},
	}

	svc := NewService(ServiceConfig{Provider: provider, Logger: zerolog.Nop()})

	res, err := svc.Search(context.Background(), bangalore, mysore, nil)
	require.NoError(t, err)

	require.Len(t, res.Records[CategoryStay], 1)
	assert.Equal(t, "Highway Inn", res.Records[CategoryStay][0].Name)
	require.Len(t, res.Records[CategoryDining], 1)
	assert.Equal(t, "fast_food", res.Records[CategoryDining][0].Type)
	require.Len(t, res.Records[CategoryEmergency], 1)
	assert.Equal(t, "Unnamed hospital", res.Records[CategoryEmergency][0].Name)
	assert.Equal(t, int32(3), provider.callCount.Load())

	// The provider is asked for a grid-aligned box that covers the padded search box.
	box := svc.SearchBox(bangalore, mysore)
	for _, fetched := range provider.boxes {
		assert.LessOrEqual(t, fetched.MinLat, box.MinLat)
		assert.GreaterOrEqual(t, fetched.MaxLon, box.MaxLon)
	}
}

func TestService_Search_UsesCache(t *testing.T) {
	provider := &mockProvider{elements: map[Category][]RawElement{}}
	svc := NewService(ServiceConfig{Provider: provider, Logger: zerolog.Nop()})

	_, err := svc.Search(context.Background(), bangalore, mysore, []Category{CategoryDining})
	require.NoError(t, err)
	_, err = svc.Search(context.Background(), bangalore, mysore, []Category{CategoryDining})
	require.NoError(t, err)

	assert.Equal(t, int32(1), provider.callCount.Load())
	assert.Equal(t, 1, svc.CacheStats().FreshEntries)
}

func TestService_Search_ProviderError(t *testing.T) {
	provider := &mockProvider{err: ErrProviderUnavailable}
	svc := NewService(ServiceConfig{Provider: provider, Logger: zerolog.Nop()})

	_, err := svc.Search(context.Background(), bangalore, mysore, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrProviderUnavailable))
}

func TestService_Search_UnknownCategory(t *testing.T) {
	provider := &mockProvider{}
	svc := NewService(ServiceConfig{Provider: provider, Logger: zerolog.Nop()})

	_, err := svc.Search(context.Background(), bangalore, mysore, []Category{"museum"})
	assert.ErrorIs(t, err, ErrUnknownCategory)
	assert.Zero(t, provider.callCount.Load())
}
