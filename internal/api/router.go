// Package api provides the HTTP API for RoadPlanner.
package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/roadplanner/roadplanner/internal/api/handler"
	"github.com/roadplanner/roadplanner/internal/api/middleware"
	"github.com/roadplanner/roadplanner/internal/itinerary"
	"github.com/roadplanner/roadplanner/internal/journey"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Logger      zerolog.Logger
	ServiceName string
	Metrics     *middleware.Metrics

	// Tokens validates bearer tokens on /v1/me routes.
	Tokens   middleware.TokenValidator
	Routes   handler.RouteComputer
	POIs     handler.POISearcher
	Planner  handler.JourneyPlanner
	Journeys *journey.Service

	// Itinerary is reported as the planning defaults by /v1/metadata/enums.
	Itinerary itinerary.Options
	Ops       handler.OpsConfig

	AllowedOrigins []string
	RequireTLS     bool
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "roadplanner-api"
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID)
	r.Use(middleware.Tracing(serviceName))
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware())
	}
	r.Use(middleware.Logger(cfg.Logger, "/v1/ops/health"))
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.CORS(cfg.AllowedOrigins))
	r.Use(middleware.RequireTLS(cfg.RequireTLS))
	r.Use(middleware.ContentTypeJSON)
	r.Use(middleware.RequireJSON)

	opsHandler := handler.NewOpsHandler(cfg.Ops)
	metadataHandler := handler.NewMetadataHandler(cfg.Itinerary)
	routeHandler := handler.NewRouteHandler(cfg.Routes, cfg.Logger)
	poiHandler := handler.NewPOIHandler(cfg.POIs, cfg.Logger)
	journeyHandler := handler.NewJourneyHandler(cfg.Planner, cfg.Journeys, cfg.Logger)

	planningRateLimit := middleware.RateLimitByIP(middleware.PlanningRateLimit)
	expensiveRateLimit := middleware.RateLimitByIP(middleware.ExpensiveRateLimit)
	standardRateLimit := middleware.RateLimitByIP(middleware.StandardRateLimit)

	r.Route("/v1", func(r chi.Router) {
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
			r.With(standardRateLimit).Get("/status", opsHandler.SystemStatus)
		})

		r.With(standardRateLimit).Get("/metadata/enums", metadataHandler.GetEnums)

		r.With(expensiveRateLimit).Post("/routes:compute", routeHandler.ComputeRoute)
		r.With(planningRateLimit).Post("/journeys:plan", journeyHandler.PlanJourney)
		r.With(expensiveRateLimit).Post("/pois:search", poiHandler.SearchPOIs)

		r.Route("/me/journeys", func(r chi.Router) {
			r.Use(middleware.Auth(cfg.Tokens))
			r.Use(middleware.RateLimitByUser(middleware.StandardRateLimit))
			r.Get("/", journeyHandler.ListJourneys)
			r.Post("/", journeyHandler.CreateJourney)
			r.Route("/{journeyId}", func(r chi.Router) {
				r.Get("/", journeyHandler.GetJourney)
				r.Delete("/", journeyHandler.DeleteJourney)
				r.Get("/itinerary.csv", journeyHandler.ExportItineraryCSV)
				r.Get("/route.geojson", journeyHandler.ExportRouteGeoJSON)
			})
		})
	})

	return r
}
