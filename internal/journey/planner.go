// Package journey plans multi-day road journeys and manages saved plans.
package journey

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/roadplanner/roadplanner/internal/graph"
	"github.com/roadplanner/roadplanner/internal/itinerary"
	"github.com/roadplanner/roadplanner/internal/poi"
	"github.com/roadplanner/roadplanner/internal/routing"
	"github.com/roadplanner/roadplanner/pkg/geo"
)

const tracerName = "github.com/roadplanner/roadplanner/internal/journey"

// Overview list sizes of a Plan.
const (
	MaxAccommodations    = 10
	MaxRestaurants       = 15
	MaxEmergencyServices = 10
)

// RouteComputer computes a road route between two coordinates.
type RouteComputer interface {
	ComputeRoute(ctx context.Context, req routing.RouteRequest) (*routing.Route, error)
}

// POISearcher finds points of interest between two coordinates.
type POISearcher interface {
	Search(ctx context.Context, source, destination geo.Coordinate, categories []poi.Category) (*poi.SearchResult, error)
}

// PlanRequest is the input of Planner.Plan.
type PlanRequest struct {
	Source      geo.Coordinate
	Destination geo.Coordinate
	Metric      graph.Metric
}

// RouteSummary describes the route a plan follows.
type RouteSummary struct {
	Path            []geo.Coordinate `json:"path"`
	DistanceKm      float64          `json:"distanceKm"`
	TravelTimeHours float64          `json:"travelTimeHours"`
	NodeCount       int              `json:"nodeCount"`
	Metric          graph.Metric     `json:"metric"`
	Polyline        string           `json:"polyline"`
}

// Plan is a complete multi-day journey plan.
type Plan struct {
	Route             RouteSummary       `json:"route"`
	Accommodations    []poi.Record       `json:"accommodations"`
	Restaurants       []poi.Record       `json:"restaurants"`
	EmergencyServices []poi.Record       `json:"emergencyServices"`
	DailyPlan         []itinerary.DayLeg `json:"dailyPlan"`
	PlannedAt         time.Time          `json:"plannedAt"`
}

// Days returns the number of driving days.
func (p *Plan) Days() int {
	return len(p.DailyPlan)
}

// PlannerConfig holds configuration for the planner.
type PlannerConfig struct {
	Routes    RouteComputer
	POIs      POISearcher
	Itinerary itinerary.Options
	Logger    zerolog.Logger
}

// Planner combines routing, POI search and itinerary segmentation.
type Planner struct {
	routes RouteComputer
	pois   POISearcher
	opts   itinerary.Options
	logger zerolog.Logger
	tracer trace.Tracer
}

// NewPlanner creates a new journey planner.
func NewPlanner(cfg PlannerConfig) *Planner {
	return &Planner{
		routes: cfg.Routes,
		pois:   cfg.POIs,
		opts:   cfg.Itinerary,
		logger: cfg.Logger,
		tracer: otel.Tracer(tracerName),
	}
}

// Plan routes from source to destination, fetches POIs around the journey
// and splits it into day legs with per-day recommendations.
// The route and the POIs are fetched concurrently; either failing fails the plan.
func (p *Planner) Plan(ctx context.Context, req PlanRequest) (*Plan, error) {
	ctx, span := p.tracer.Start(ctx, "journey.Plan",
		trace.WithAttributes(
			attribute.Float64("journey.source.lat", req.Source.Lat),
			attribute.Float64("journey.source.lon", req.Source.Lon),
			attribute.Float64("journey.destination.lat", req.Destination.Lat),
			attribute.Float64("journey.destination.lon", req.Destination.Lon),
		),
	)
	defer span.End()

	var (
		route *routing.Route
		pois  *poi.SearchResult
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		route, err = p.routes.ComputeRoute(gctx, routing.RouteRequest{
			Source:      req.Source,
			Destination: req.Destination,
			Metric:      req.Metric,
		})
		return err
	})
	g.Go(func() error {
		var err error
		pois, err = p.pois.Search(gctx, req.Source, req.Destination, poi.Categories())
		return err
	})
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "journey planning failed")
		return nil, err
	}

	days, err := itinerary.Plan(route.Path, route.DistanceKm, pois.Records, p.opts)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "itinerary failed")
		return nil, fmt.Errorf("planning itinerary: %w", err)
	}

	plan := &Plan{
		Route: RouteSummary{
			Path:            route.Path,
			DistanceKm:      roundTo(route.DistanceKm, 2),
			TravelTimeHours: roundTo(route.TravelTimeHours, 2),
			NodeCount:       route.NodeCount(),
			Metric:          route.Metric,
			Polyline:        route.Polyline,
		},
		Accommodations:    head(pois.Records[poi.CategoryStay], MaxAccommodations),
		Restaurants:       head(pois.Records[poi.CategoryDining], MaxRestaurants),
		EmergencyServices: head(pois.Records[poi.CategoryEmergency], MaxEmergencyServices),
		DailyPlan:         days,
		PlannedAt:         time.Now().UTC(),
	}

	span.SetAttributes(
		attribute.Int("journey.days", plan.Days()),
		attribute.Float64("journey.distance_km", plan.Route.DistanceKm),
	)

	p.logger.Info().
		Float64("distance_km", plan.Route.DistanceKm).
		Int("days", plan.Days()).
		Int("accommodations", len(pois.Records[poi.CategoryStay])).
		Int("restaurants", len(pois.Records[poi.CategoryDining])).
		Int("emergency_services", len(pois.Records[poi.CategoryEmergency])).
		Msg("journey planned")

	return plan, nil
}

// head returns the first n records in provider order, never nil.
func head(records []poi.Record, n int) []poi.Record {
	if len(records) > n {
		records = records[:n]
	}
	out := make([]poi.Record, len(records))
	copy(out, records)
	return out
}

func roundTo(v float64, decimals int) float64 {
	pow := math.Pow(10, float64(decimals))
	return math.Round(v*pow) / pow
}
