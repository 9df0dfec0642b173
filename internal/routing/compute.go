package routing

import (
	"errors"
	"fmt"

	"github.com/roadplanner/roadplanner/internal/graph"
	"github.com/roadplanner/roadplanner/pkg/geo"
	"github.com/roadplanner/roadplanner/pkg/polyline"
)

// Compute builds a graph from network, snaps source and destination to
// their nearest nodes and returns the best route under metric.
//
// Failures are returned as *Error wrapping one of ErrInsufficientNetworkData,
// ErrEndpointUnresolved, ErrEndpointDisconnected or ErrNoPathFound.
func Compute(network *RawNetwork, source, destination geo.Coordinate, metric graph.Metric, opts ComputeOptions) (*Route, error) {
	if !metric.Valid() {
		return nil, &Error{Code: "INVALID_METRIC", Message: fmt.Sprintf("unsupported metric %q", metric), Err: graph.ErrUnknownMetric}
	}
	if network == nil {
		network = &RawNetwork{}
	}

	g, err := graph.Build(network.Points, network.Ways, graph.BuildOptions{DefaultSpeedKmh: opts.DefaultSpeedKmh})
	if err != nil {
		e := &Error{
			Code:    "INSUFFICIENT_NETWORK_DATA",
			Message: "not enough road data to compute a route",
			Err:     ErrInsufficientNetworkData,
		}
		var netErr *graph.NetworkError
		if errors.As(err, &netErr) {
			e.NodeCount = netErr.NodeCount
			e.EdgeCount = netErr.EdgeCount
		}
		return nil, e
	}

	start, sourceSnap, err := snap(g, source, EndpointSource, opts.SnapDistanceKm)
	if err != nil {
		return nil, err
	}
	end, destSnap, err := snap(g, destination, EndpointDestination, opts.SnapDistanceKm)
	if err != nil {
		return nil, err
	}

	res, err := g.ShortestPath(start, end, metric)
	if err != nil {
		return nil, &Error{
			Code:      "NO_PATH_FOUND",
			Message:   "no route found between the given points",
			NodeCount: g.NodeCount(),
			EdgeCount: g.EdgeCount(),
			Err:       fmt.Errorf("%w: %w", ErrNoPathFound, err),
		}
	}

	path, err := g.Coordinates(res.Nodes)
	if err != nil {
		return nil, err
	}

	return &Route{
		Path:              path,
		NodeIDs:           res.Nodes,
		DistanceKm:        res.TotalDistanceKm,
		TravelTimeHours:   res.TotalTravelTimeHours,
		Metric:            metric,
		Polyline:          polyline.Encode(path),
		SourceSnapKm:      sourceSnap,
		DestinationSnapKm: destSnap,
		NetworkNodes:      g.NodeCount(),
		NetworkEdges:      g.EdgeCount(),
	}, nil
}

// snap resolves an endpoint to a node that has at least one road attached.
func snap(g *graph.Graph, c geo.Coordinate, which Endpoint, maxKm float64) (graph.NodeID, float64, error) {
	id, dist, err := g.Nearest(c, maxKm)
	if err != nil {
		return 0, dist, &Error{
			Code:      "ENDPOINT_UNRESOLVED",
			Message:   fmt.Sprintf("no road found near %s", which),
			Endpoint:  which,
			NodeCount: g.NodeCount(),
			EdgeCount: g.EdgeCount(),
			Err:       ErrEndpointUnresolved,
		}
	}

	if !g.HasEdges(id) {
		return 0, dist, &Error{
			Code:      "ENDPOINT_DISCONNECTED",
			Message:   fmt.Sprintf("%s is not connected to the road network", which),
			Endpoint:  which,
			NodeCount: g.NodeCount(),
			EdgeCount: g.EdgeCount(),
			Err:       ErrEndpointDisconnected,
		}
	}

	return id, dist, nil
}
