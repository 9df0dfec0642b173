package graph

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShortestPath_LineNetwork(t *testing.T) {
	points, ways := lineNetwork()
	g, err := Build(points, ways, BuildOptions{})
	require.NoError(t, err)

	for _, metric := range []Metric{MetricDistance, MetricTime} {
		t.Run(string(metric), func(t *testing.T) {
			res, err := g.ShortestPath(1, 3, metric)
			require.NoError(t, err)

			assert.Equal(t, []NodeID{1, 2, 3}, res.Nodes)
			assert.InDelta(t, 111.19, res.TotalDistanceKm, 0.01)
			assert.InDelta(t, res.TotalDistanceKm/DefaultSpeedKmh, res.TotalTravelTimeHours, 1e-9)
			assert.Equal(t, metric, res.Metric)
		})
	}
}

func TestShortestPath_MetricChangesRoute(t *testing.T) {
	// 1 -> 2 -> 4 is shorter but slow; 1 -> 3 -> 4 is longer but fast.
	points := []PointFeature{
		{ID: 1, Lat: 0, Lon: 0},
		{ID: 2, Lat: 0.01, Lon: 0.05},
		{ID: 3, Lat: 0.1, Lon: 0.05},
		{ID: 4, Lat: 0, Lon: 0.1},
	}
	ways := []Way{
		{ID: 1, NodeIDs: []NodeID{1, 2, 4}, SpeedKmh: 10},
		{ID: 2, NodeIDs: []NodeID{1, 3, 4}, SpeedKmh: 120},
	}
	g, err := Build(points, ways, BuildOptions{})
	require.NoError(t, err)

	byDistance, err := g.ShortestPath(1, 4, MetricDistance)
	require.NoError(t, err)
	assert.Equal(t, []NodeID{1, 2, 4}, byDistance.Nodes)

	byTime, err := g.ShortestPath(1, 4, MetricTime)
	require.NoError(t, err)
	assert.Equal(t, []NodeID{1, 3, 4}, byTime.Nodes)

	assert.Less(t, byDistance.TotalDistanceKm, byTime.TotalDistanceKm)
	assert.Less(t, byTime.TotalTravelTimeHours, byDistance.TotalTravelTimeHours)
}

func TestShortestPath_SameNode(t *testing.T) {
	points, ways := lineNetwork()
	g, err := Build(points, ways, BuildOptions{})
	require.NoError(t, err)

	res, err := g.ShortestPath(2, 2, MetricDistance)
	require.NoError(t, err)
	assert.Equal(t, []NodeID{2}, res.Nodes)
	assert.Zero(t, res.TotalDistanceKm)
	assert.Zero(t, res.TotalTravelTimeHours)
}

func TestShortestPath_Errors(t *testing.T) {
	points := []PointFeature{
		{ID: 1, Lat: 0, Lon: 0},
		{ID: 2, Lat: 0, Lon: 0.1},
		{ID: 3, Lat: 1, Lon: 1},
		{ID: 4, Lat: 1, Lon: 1.1},
		{ID: 5, Lat: 2, Lon: 2},
	}
	ways := []Way{
		{ID: 1, NodeIDs: []NodeID{1, 2}},
		{ID: 2, NodeIDs: []NodeID{3, 4}},
	}
	g, err := Build(points, ways, BuildOptions{})
	require.NoError(t, err)

	tests := []struct {
		name       string
		start, end NodeID
		metric     Metric
		wantErr    error
	}{
		{name: "unknown start", start: 42, end: 1, metric: MetricTime, wantErr: ErrNodeNotFound},
		{name: "unknown end", start: 1, end: 42, metric: MetricTime, wantErr: ErrNodeNotFound},
		{name: "isolated start", start: 5, end: 1, metric: MetricTime, wantErr: ErrNodeDisconnected},
		{name: "isolated end", start: 1, end: 5, metric: MetricDistance, wantErr: ErrNodeDisconnected},
		{name: "separate components", start: 1, end: 4, metric: MetricDistance, wantErr: ErrNoPath},
		{name: "unknown metric", start: 1, end: 2, metric: "SCENIC", wantErr: ErrUnknownMetric},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := g.ShortestPath(tt.start, tt.end, tt.metric)
			assert.Nil(t, res)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestShortestPath_EqualCostTieIsDeterministic(t *testing.T) {
	// Square with two near-equal routes from 1 to 4.
	points := []PointFeature{
		{ID: 1, Lat: 0, Lon: 0},
		{ID: 2, Lat: 0, Lon: 0.1},
		{ID: 3, Lat: 0.1, Lon: 0},
		{ID: 4, Lat: 0.1, Lon: 0.1},
	}
	ways := []Way{
		{ID: 1, NodeIDs: []NodeID{1, 2, 4}},
		{ID: 2, NodeIDs: []NodeID{1, 3, 4}},
	}
	g, err := Build(points, ways, BuildOptions{})
	require.NoError(t, err)

	first, err := g.ShortestPath(1, 4, MetricDistance)
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		again, err := g.ShortestPath(1, 4, MetricDistance)
		require.NoError(t, err)
		assert.Equal(t, first.Nodes, again.Nodes)
	}
}

func TestShortestPath_WalkProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	// Grid of 6x6 nodes with random diagonal shortcuts.
	const size = 6
	var points []PointFeature
	id := func(r, c int) NodeID { return NodeID(r*size + c + 1) }
	for r := 0; r < size; r++ {
		for c := 0; c < size; c++ {
			points = append(points, PointFeature{
				ID:  id(r, c),
				Lat: float64(r) * 0.01,
				Lon: float64(c) * 0.01,
			})
		}
	}

	var ways []Way
	for r := 0; r < size; r++ {
		for c := 0; c < size; c++ {
			if c+1 < size {
				ways = append(ways, Way{ID: int64(len(ways)), NodeIDs: []NodeID{id(r, c), id(r, c+1)}, SpeedKmh: float64(20 + rng.Intn(80))})
			}
			if r+1 < size {
				ways = append(ways, Way{ID: int64(len(ways)), NodeIDs: []NodeID{id(r, c), id(r+1, c)}, SpeedKmh: float64(20 + rng.Intn(80))})
			}
			if r+1 < size && c+1 < size && rng.Intn(3) == 0 {
				ways = append(ways, Way{ID: int64(len(ways)), NodeIDs: []NodeID{id(r, c), id(r+1, c+1)}})
			}
		}
	}

	g, err := Build(points, ways, BuildOptions{})
	require.NoError(t, err)

	for _, metric := range []Metric{MetricDistance, MetricTime} {
		for trial := 0; trial < 25; trial++ {
			start := NodeID(rng.Intn(size*size) + 1)
			end := NodeID(rng.Intn(size*size) + 1)

			res, err := g.ShortestPath(start, end, metric)
			require.NoError(t, err)
			require.NotEmpty(t, res.Nodes)
			assert.Equal(t, start, res.Nodes[0])
			assert.Equal(t, end, res.Nodes[len(res.Nodes)-1])

			// Every hop must be an edge; totals equal the sum over the
			// cheapest parallel edge of each hop.
			var sumDist, sumHours float64
			for i := 0; i+1 < len(res.Nodes); i++ {
				e, ok := cheapestEdge(g, res.Nodes[i], res.Nodes[i+1], metric)
				require.True(t, ok, "hop %d -> %d is not an edge", res.Nodes[i], res.Nodes[i+1])
				sumDist += e.DistanceKm
				sumHours += e.TravelTimeHours
			}
			assert.InDelta(t, sumDist, res.TotalDistanceKm, 1e-9)
			assert.InDelta(t, sumHours, res.TotalTravelTimeHours, 1e-9)
		}
	}
}

func cheapestEdge(g *Graph, from, to NodeID, metric Metric) (Edge, bool) {
	var best Edge
	found := false
	for _, e := range g.Neighbors(from) {
		if e.To != to {
			continue
		}
		if !found || weight(e, metric) < weight(best, metric) {
			best = e
			found = true
		}
	}
	return best, found
}

func weight(e Edge, metric Metric) float64 {
	if metric == MetricTime {
		return e.TravelTimeHours
	}
	return e.DistanceKm
}

func TestParseMetric(t *testing.T) {
	m, err := ParseMetric("")
	require.NoError(t, err)
	assert.Equal(t, MetricTime, m)

	m, err = ParseMetric("distance")
	require.NoError(t, err)
	assert.Equal(t, MetricDistance, m)

	_, err = ParseMetric("fastest")
	assert.ErrorIs(t, err, ErrUnknownMetric)
}
