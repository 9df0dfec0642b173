package handler

import (
	"net/http"

	"github.com/roadplanner/roadplanner/internal/api/models"
	"github.com/roadplanner/roadplanner/internal/api/response"
	"github.com/roadplanner/roadplanner/internal/graph"
	"github.com/roadplanner/roadplanner/internal/itinerary"
	"github.com/roadplanner/roadplanner/internal/poi"
)

// MetadataHandler handles metadata endpoints.
type MetadataHandler struct {
	itinerary itinerary.Options
}

// NewMetadataHandler creates a new MetadataHandler reporting opts as the planning defaults.
func NewMetadataHandler(opts itinerary.Options) *MetadataHandler {
	return &MetadataHandler{itinerary: opts}
}

// GetEnums handles GET /v1/metadata/enums.
func (h *MetadataHandler) GetEnums(w http.ResponseWriter, r *http.Request) {
	categories := poi.Categories()
	names := make([]string, len(categories))
	for i, c := range categories {
		names[i] = string(c)
	}

	speed, hours := h.itinerary.AvgSpeedKmh, h.itinerary.MaxDrivingHoursPerDay
	if speed <= 0 {
		speed = itinerary.DefaultAvgSpeedKmh
	}
	if hours <= 0 {
		hours = itinerary.DefaultMaxDrivingHoursPerDay
	}

	response.JSON(w, r, http.StatusOK, models.Metadata{
		Enums: models.Enums{
			Metrics:       []string{string(graph.MetricDistance), string(graph.MetricTime)},
			POICategories: names,
		},
		Defaults: models.Defaults{
			Metric:                string(graph.MetricTime),
			AvgSpeedKmh:           speed,
			MaxDrivingHoursPerDay: hours,
			MaxDistancePerDayKm:   h.itinerary.MaxDistancePerDayKm(),
		},
	})
}
