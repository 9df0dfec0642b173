package handler

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/roadplanner/roadplanner/internal/api/models"
	"github.com/roadplanner/roadplanner/internal/api/response"
	"github.com/roadplanner/roadplanner/internal/routing"
)

// RouteComputer computes a road route between two coordinates.
type RouteComputer interface {
	ComputeRoute(ctx context.Context, req routing.RouteRequest) (*routing.Route, error)
}

// RouteHandler handles route computation endpoints.
type RouteHandler struct {
	routes RouteComputer
	logger zerolog.Logger
}

// NewRouteHandler creates a new RouteHandler.
func NewRouteHandler(routes RouteComputer, logger zerolog.Logger) *RouteHandler {
	return &RouteHandler{routes: routes, logger: logger}
}

// ComputeRoute handles POST /v1/routes:compute.
func (h *RouteHandler) ComputeRoute(w http.ResponseWriter, r *http.Request) {
	var req models.RouteComputeRequest
	if err := response.DecodeJSON(r, &req); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	var fieldErrors []models.FieldError
	fieldErrors = validatePoint(fieldErrors, req.Source, "source")
	fieldErrors = validatePoint(fieldErrors, req.Destination, "destination")
	metric, fieldErrors := parseMetric(fieldErrors, req.Metric)
	if len(fieldErrors) > 0 {
		response.BadRequest(w, r, "validation failed", fieldErrors)
		return
	}

	route, err := h.routes.ComputeRoute(r.Context(), routing.RouteRequest{
		Source:      req.Source.Coordinate(),
		Destination: req.Destination.Coordinate(),
		Metric:      metric,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	response.JSON(w, r, http.StatusOK, newRouteResponse(route))
}

func newRouteResponse(route *routing.Route) models.RouteComputeResponse {
	ids := make([]int64, len(route.NodeIDs))
	for i, id := range route.NodeIDs {
		ids[i] = int64(id)
	}
	return models.RouteComputeResponse{
		Path:              route.Path,
		NodeIDs:           ids,
		DistanceKm:        route.DistanceKm,
		TravelTimeHours:   route.TravelTimeHours,
		NodeCount:         route.NodeCount(),
		Metric:            string(route.Metric),
		Polyline:          route.Polyline,
		SourceSnapKm:      route.SourceSnapKm,
		DestinationSnapKm: route.DestinationSnapKm,
	}
}
