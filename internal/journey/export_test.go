package journey

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roadplanner/roadplanner/internal/itinerary"
	"github.com/roadplanner/roadplanner/internal/poi"
	"github.com/roadplanner/roadplanner/pkg/geo"
	"github.com/roadplanner/roadplanner/pkg/polyline"
)

func exportJourney() *Journey {
	plan := samplePlan()
	plan.DailyPlan = []itinerary.DayLeg{
		{
			Day:        1,
			StartPoint: geo.Coordinate{Lat: 12.97, Lon: 77.59},
			EndPoint:   geo.Coordinate{Lat: 13.0, Lon: 78.9},
			DistanceKm: 145.456,
			Recommendations: itinerary.Recommendations{
				Stay:   []poi.Record{{Name: "Hotel A"}, {Name: "Hotel B"}},
				Dining: []poi.Record{{Name: "Cafe C"}},
			},
		},
		{
			Day:        2,
			StartPoint: geo.Coordinate{Lat: 13.0, Lon: 78.9},
			EndPoint:   geo.Coordinate{Lat: 13.08, Lon: 80.27},
			DistanceKm: 144.664,
		},
	}
	return &Journey{ID: "jny_test", Name: "Bengaluru to Chennai", Plan: *plan}
}

func TestWriteItineraryCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteItineraryCSV(&buf, exportJourney()))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, []string{
		"day", "start_lat", "start_lon", "end_lat", "end_lon",
		"distance_km", "estimated_time_hours", "stay", "dining", "emergency",
	}, rows[0])
	assert.Equal(t, "1", rows[1][0])
	assert.Equal(t, "145.46", rows[1][5])
	assert.Equal(t, "Hotel A; Hotel B", rows[1][7])
	assert.Equal(t, "Cafe C", rows[1][8])
	assert.Equal(t, "", rows[1][9])
	assert.Equal(t, "2", rows[2][0])
}

func TestWriteItineraryCSV_NoDays(t *testing.T) {
	j := exportJourney()
	j.Plan.DailyPlan = nil

	var buf bytes.Buffer
	require.NoError(t, WriteItineraryCSV(&buf, j))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "day", rows[0][0])
}

func TestRouteGeoJSON(t *testing.T) {
	fc, err := RouteGeoJSON(exportJourney())
	require.NoError(t, err)

	require.Len(t, fc.Features, 3)

	route := fc.Features[0]
	line, ok := route.Geometry.(orb.LineString)
	require.True(t, ok)
	require.Len(t, line, 2)
	assert.Equal(t, orb.Point{77.59, 12.97}, line[0], "GeoJSON positions are lon,lat")
	assert.Equal(t, "jny_test", route.ID)
	assert.Equal(t, "Bengaluru to Chennai", route.Properties["name"])
	assert.Equal(t, 2, route.Properties["days"])

	stop := fc.Features[1]
	assert.Equal(t, orb.Point{78.9, 13.0}, stop.Geometry)
	assert.Equal(t, 1, stop.Properties["day"])
	assert.Equal(t, "Hotel A", stop.Properties["stay"])
	_, hasStay := fc.Features[2].Properties["stay"]
	assert.False(t, hasStay)

	assert.NotNil(t, fc.BBox)
}

func TestRouteGeoJSON_FallsBackToPolyline(t *testing.T) {
	j := exportJourney()
	j.Plan.Route.Polyline = polyline.Encode(j.Plan.Route.Path)
	j.Plan.Route.Path = nil

	fc, err := RouteGeoJSON(j)
	require.NoError(t, err)

	line := fc.Features[0].Geometry.(orb.LineString)
	require.Len(t, line, 2)
	assert.InDelta(t, 80.27, line[1].Lon(), 1e-5)
}

func TestRouteGeoJSON_BadPolyline(t *testing.T) {
	j := exportJourney()
	j.Plan.Route.Path = nil
	j.Plan.Route.Polyline = "_"

	_, err := RouteGeoJSON(j)
	assert.ErrorIs(t, err, polyline.ErrMalformed)
}
