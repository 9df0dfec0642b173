package handler

import (
	"math"

	"github.com/roadplanner/roadplanner/internal/api/models"
	"github.com/roadplanner/roadplanner/internal/graph"
	"github.com/roadplanner/roadplanner/internal/journey"
)

// Field error codes.
const (
	codeRequired    = "REQUIRED"
	codeOutOfRange  = "OUT_OF_RANGE"
	codeInvalidEnum = "INVALID_ENUM"
	codeInvalid     = "INVALID"
)

func validatePoint(errs []models.FieldError, p *models.Point, field string) []models.FieldError {
	if p == nil {
		return append(errs, models.FieldError{Field: field, Message: "is required", Code: codeRequired})
	}
	errs = validateAxis(errs, p.Lat, field+".lat", 90)
	return validateAxis(errs, p.Lon, field+".lon", 180)
}

func validateAxis(errs []models.FieldError, v *float64, field string, limit float64) []models.FieldError {
	switch {
	case v == nil:
		return append(errs, models.FieldError{Field: field, Message: "is required", Code: codeRequired})
	case math.IsNaN(*v) || *v < -limit || *v > limit:
		msg := "must be between -90 and 90"
		if limit == 180 {
			msg = "must be between -180 and 180"
		}
		return append(errs, models.FieldError{Field: field, Message: msg, Code: codeOutOfRange})
	}
	return errs
}

func parseMetric(errs []models.FieldError, s string) (graph.Metric, []models.FieldError) {
	metric, err := graph.ParseMetric(s)
	if err != nil {
		errs = append(errs, models.FieldError{Field: "metric", Message: "must be DISTANCE or TIME", Code: codeInvalidEnum})
	}
	return metric, errs
}

func fromJourneyFieldErrors(in []journey.FieldError) []models.FieldError {
	out := make([]models.FieldError, 0, len(in))
	for _, fe := range in {
		out = append(out, models.FieldError{Field: fe.Field, Message: fe.Message, Code: codeInvalid})
	}
	return out
}
