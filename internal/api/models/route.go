package models

import "github.com/roadplanner/roadplanner/pkg/geo"

// RouteComputeRequest is the body of POST /v1/routes:compute.
type RouteComputeRequest struct {
	Source      *Point `json:"source"`
	Destination *Point `json:"destination"`
	// Metric is DISTANCE or TIME. Defaults to TIME.
	Metric string `json:"metric,omitempty"`
}

// RouteComputeResponse is a computed road route.
type RouteComputeResponse struct {
	Path              []geo.Coordinate `json:"path"`
	NodeIDs           []int64          `json:"nodeIds"`
	DistanceKm        float64          `json:"distanceKm"`
	TravelTimeHours   float64          `json:"travelTimeHours"`
	NodeCount         int              `json:"nodeCount"`
	Metric            string           `json:"metric"`
	Polyline          string           `json:"polyline"`
	SourceSnapKm      float64          `json:"sourceSnapKm"`
	DestinationSnapKm float64          `json:"destinationSnapKm"`
}
