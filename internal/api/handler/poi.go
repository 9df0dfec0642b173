package handler

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/roadplanner/roadplanner/internal/api/models"
	"github.com/roadplanner/roadplanner/internal/api/response"
	"github.com/roadplanner/roadplanner/internal/poi"
	"github.com/roadplanner/roadplanner/pkg/geo"
)

// POISearcher finds points of interest between two coordinates.
type POISearcher interface {
	Search(ctx context.Context, source, destination geo.Coordinate, categories []poi.Category) (*poi.SearchResult, error)
}

// POIHandler handles point of interest endpoints.
type POIHandler struct {
	pois   POISearcher
	logger zerolog.Logger
}

// NewPOIHandler creates a new POIHandler.
func NewPOIHandler(pois POISearcher, logger zerolog.Logger) *POIHandler {
	return &POIHandler{pois: pois, logger: logger}
}

// SearchPOIs handles POST /v1/pois:search.
func (h *POIHandler) SearchPOIs(w http.ResponseWriter, r *http.Request) {
	var req models.POISearchRequest
	if err := response.DecodeJSON(r, &req); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	var fieldErrors []models.FieldError
	fieldErrors = validatePoint(fieldErrors, req.Source, "source")
	fieldErrors = validatePoint(fieldErrors, req.Destination, "destination")

	categories := make([]poi.Category, 0, len(req.Categories))
	for _, name := range req.Categories {
		c, err := poi.ParseCategory(name)
		if err != nil {
			fieldErrors = append(fieldErrors, models.FieldError{
				Field:   "categories",
				Message: "unknown category " + name,
				Code:    codeInvalidEnum,
			})
			continue
		}
		categories = append(categories, c)
	}
	if len(fieldErrors) > 0 {
		response.BadRequest(w, r, "validation failed", fieldErrors)
		return
	}

	result, err := h.pois.Search(r.Context(), req.Source.Coordinate(), req.Destination.Coordinate(), categories)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	response.JSON(w, r, http.StatusOK, models.POISearchResponse{
		Stay:      nonNil(result.Records[poi.CategoryStay]),
		Dining:    nonNil(result.Records[poi.CategoryDining]),
		Emergency: nonNil(result.Records[poi.CategoryEmergency]),
		FetchedAt: models.Timestamp(result.FetchedAt),
	})
}

func nonNil(records []poi.Record) []poi.Record {
	if records == nil {
		return []poi.Record{}
	}
	return records
}
