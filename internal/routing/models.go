// Package routing computes road routes between two coordinates over a
// request-scoped graph built from provider network data.
package routing

import (
	"context"
	"errors"
	"time"

	"github.com/roadplanner/roadplanner/internal/graph"
	"github.com/roadplanner/roadplanner/pkg/geo"
)

// Sentinel errors for routing operations.
var (
	// ErrInsufficientNetworkData indicates the network yielded no nodes or no edges.
	ErrInsufficientNetworkData = errors.New("insufficient road network data")
	// ErrEndpointUnresolved indicates no road node lies near an endpoint.
	ErrEndpointUnresolved = errors.New("no road found near endpoint")
	// ErrEndpointDisconnected indicates an endpoint snapped to a node without roads.
	ErrEndpointDisconnected = errors.New("endpoint is not connected to the road network")
	// ErrNoPathFound indicates the destination cannot be reached from the source.
	ErrNoPathFound = errors.New("no route found between the given points")
	// ErrProviderUnavailable indicates the network provider is down or the circuit breaker is open.
	ErrProviderUnavailable = errors.New("road network provider unavailable")
	// ErrRateLimitExceeded indicates the provider quota has been exceeded.
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
	// ErrInvalidCoordinates indicates the provided coordinates are invalid or out of range.
	ErrInvalidCoordinates = errors.New("invalid coordinates")
)

// Endpoint names which end of a route an error refers to.
type Endpoint string

const (
	EndpointSource      Endpoint = "source"
	EndpointDestination Endpoint = "destination"
)

// NetworkProvider fetches raw road data.
type NetworkProvider interface {
	// FetchNetwork returns road nodes and ways inside bbox.
	FetchNetwork(ctx context.Context, bbox geo.BoundingBox) (*RawNetwork, error)
	// Name returns the provider identifier for logging and metrics.
	Name() string
}

// RawNetwork is unprocessed road data as delivered by a provider.
type RawNetwork struct {
	Points    []graph.PointFeature
	Ways      []graph.Way
	Provider  string
	FetchedAt time.Time
}

// ComputeOptions tunes Compute.
type ComputeOptions struct {
	// SnapDistanceKm bounds endpoint snapping (default: 2).
	SnapDistanceKm float64
	// DefaultSpeedKmh applies to ways without a speed (default: 50).
	DefaultSpeedKmh float64
}

// Route is a computed road route.
type Route struct {
	Path            []geo.Coordinate
	NodeIDs         []graph.NodeID
	DistanceKm      float64
	TravelTimeHours float64
	Metric          graph.Metric
	// Polyline is Path encoded with precision 5.
	Polyline string
	// SourceSnapKm and DestinationSnapKm are the distances from the
	// requested endpoints to the nodes they snapped to.
	SourceSnapKm      float64
	DestinationSnapKm float64
	NetworkNodes      int
	NetworkEdges      int
}

// NodeCount returns the number of nodes on the route, or the number of
// path points when the provider did not report node ids.
func (r *Route) NodeCount() int {
	if len(r.NodeIDs) == 0 {
		return len(r.Path)
	}
	return len(r.NodeIDs)
}

// RouteRequest is the input of Service.ComputeRoute.
type RouteRequest struct {
	Source      geo.Coordinate
	Destination geo.Coordinate
	Metric      graph.Metric
}

// Error provides detailed information about a failed route computation.
type Error struct {
	Code      string   // Machine-readable error code
	Message   string   // Human-readable error message
	Endpoint  Endpoint // Endpoint concerned, if any
	NodeCount int      // Network size when the error occurred
	EdgeCount int
	Err       error // Underlying error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsRetryable returns true if the error is transient and the request can be retried.
func (e *Error) IsRetryable() bool {
	return errors.Is(e.Err, ErrProviderUnavailable) || errors.Is(e.Err, ErrRateLimitExceeded)
}
