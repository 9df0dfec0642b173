package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/roadplanner/roadplanner/internal/api/models"
	"github.com/roadplanner/roadplanner/internal/api/response"
	"github.com/roadplanner/roadplanner/internal/journey"
)

// JourneyPlanner plans a multi-day journey.
type JourneyPlanner interface {
	Plan(ctx context.Context, req journey.PlanRequest) (*journey.Plan, error)
}

// JourneyHandler handles journey planning and saved journey endpoints.
type JourneyHandler struct {
	planner  JourneyPlanner
	journeys *journey.Service
	logger   zerolog.Logger
}

// NewJourneyHandler creates a new JourneyHandler.
func NewJourneyHandler(planner JourneyPlanner, journeys *journey.Service, logger zerolog.Logger) *JourneyHandler {
	return &JourneyHandler{planner: planner, journeys: journeys, logger: logger}
}

// PlanJourney handles POST /v1/journeys:plan.
func (h *JourneyHandler) PlanJourney(w http.ResponseWriter, r *http.Request) {
	var req models.JourneyPlanRequest
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

	plan, err := h.planner.Plan(r.Context(), journey.PlanRequest{
		Source:      req.Source.Coordinate(),
		Destination: req.Destination.Coordinate(),
		Metric:      metric,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	response.JSON(w, r, http.StatusOK, plan)
}

// ListJourneys handles GET /v1/me/journeys.
func (h *JourneyHandler) ListJourneys(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	opts, fieldErrors := parseListOptions(r.URL.Query())
	if len(fieldErrors) > 0 {
		response.BadRequest(w, r, "invalid query parameters", fieldErrors)
		return
	}

	result, err := h.journeys.List(r.Context(), userID, opts)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	page := models.PagedJourneys{
		Items: make([]models.JourneySummary, 0, len(result.Items)),
		Meta:  models.PagedResponseMeta{Limit: effectiveLimit(opts.Limit)},
	}
	for _, j := range result.Items {
		page.Items = append(page.Items, models.NewJourneySummary(j))
	}
	if result.NextCursor != "" {
		cursor := result.NextCursor
		page.Meta.NextCursor = &cursor
	}

	response.JSON(w, r, http.StatusOK, page)
}

// CreateJourney handles POST /v1/me/journeys. Without a plan in the body the
// journey is planned before it is saved.
func (h *JourneyHandler) CreateJourney(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req models.JourneyCreateRequest
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

	var (
		saved *journey.Journey
		err   error
	)
	if req.Plan != nil {
		saved, err = h.journeys.Create(r.Context(), userID, journey.CreateInput{
			Name:        req.Name,
			Source:      req.Source.Coordinate(),
			Destination: req.Destination.Coordinate(),
			Plan:        req.Plan,
		})
	} else {
		saved, err = h.journeys.PlanAndCreate(r.Context(), userID, req.Name, journey.PlanRequest{
			Source:      req.Source.Coordinate(),
			Destination: req.Destination.Coordinate(),
			Metric:      metric,
		})
	}
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	response.Created(w, r, "/v1/me/journeys/"+url.PathEscape(saved.ID), models.NewJourney(saved))
}

// GetJourney handles GET /v1/me/journeys/{journeyId}.
func (h *JourneyHandler) GetJourney(w http.ResponseWriter, r *http.Request) {
	j, ok := h.loadJourney(w, r)
	if !ok {
		return
	}
	response.JSON(w, r, http.StatusOK, models.NewJourney(j))
}

// DeleteJourney handles DELETE /v1/me/journeys/{journeyId}.
func (h *JourneyHandler) DeleteJourney(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	if err := h.journeys.Delete(r.Context(), userID, chi.URLParam(r, "journeyId")); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	response.NoContent(w, r)
}

// ExportItineraryCSV handles GET /v1/me/journeys/{journeyId}/itinerary.csv.
func (h *JourneyHandler) ExportItineraryCSV(w http.ResponseWriter, r *http.Request) {
	j, ok := h.loadJourney(w, r)
	if !ok {
		return
	}

	response.Attachment(w, r, "text/csv; charset=utf-8", j.ID+"-itinerary.csv")
	if err := journey.WriteItineraryCSV(w, j); err != nil {
		// Headers are gone; all we can do is log.
		h.logger.Error().Err(err).Str("journey_id", j.ID).Msg("failed to write itinerary csv")
	}
}

// ExportRouteGeoJSON handles GET /v1/me/journeys/{journeyId}/route.geojson.
func (h *JourneyHandler) ExportRouteGeoJSON(w http.ResponseWriter, r *http.Request) {
	j, ok := h.loadJourney(w, r)
	if !ok {
		return
	}

	fc, err := journey.RouteGeoJSON(j)
	if err != nil {
		h.logger.Error().Err(err).Str("journey_id", j.ID).Msg("failed to build route geojson")
		response.InternalError(w, r, "stored route could not be exported")
		return
	}

	response.Attachment(w, r, "application/geo+json", j.ID+"-route.geojson")
	if err := json.NewEncoder(w).Encode(fc); err != nil {
		h.logger.Error().Err(err).Str("journey_id", j.ID).Msg("failed to write route geojson")
	}
}

func (h *JourneyHandler) loadJourney(w http.ResponseWriter, r *http.Request) (*journey.Journey, bool) {
	userID, ok := requireUser(w, r)
	if !ok {
		return nil, false
	}

	j, err := h.journeys.Get(r.Context(), userID, chi.URLParam(r, "journeyId"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return nil, false
	}
	return j, true
}

func parseListOptions(q url.Values) (journey.ListOptions, []models.FieldError) {
	var opts journey.ListOptions
	var fieldErrors []models.FieldError

	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > journey.MaxListLimit {
			fieldErrors = append(fieldErrors, models.FieldError{
				Field:   "limit",
				Message: "must be an integer between 1 and " + strconv.Itoa(journey.MaxListLimit),
				Code:    codeOutOfRange,
			})
		}
		opts.Limit = limit
	}
	opts.Cursor = q.Get("cursor")

	return opts, fieldErrors
}

func effectiveLimit(limit int) int {
	if limit <= 0 {
		return journey.DefaultListLimit
	}
	return limit
}
