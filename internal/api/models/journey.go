package models

import (
	"github.com/roadplanner/roadplanner/internal/journey"
)

// JourneyPlanRequest is the body of POST /v1/journeys:plan.
type JourneyPlanRequest struct {
	Source      *Point `json:"source"`
	Destination *Point `json:"destination"`
	Metric      string `json:"metric,omitempty"`
}

// JourneyCreateRequest is the body of POST /v1/me/journeys.
//
// When Plan is omitted the journey is planned server-side before saving.
type JourneyCreateRequest struct {
	Name        string        `json:"name"`
	Source      *Point        `json:"source"`
	Destination *Point        `json:"destination"`
	Metric      string        `json:"metric,omitempty"`
	Plan        *journey.Plan `json:"plan,omitempty"`
}

// Journey is a saved journey.
type Journey struct {
	ID          string       `json:"journeyId"`
	Name        string       `json:"name"`
	Source      Point        `json:"source"`
	Destination Point        `json:"destination"`
	Days        int          `json:"days"`
	DistanceKm  float64      `json:"distanceKm"`
	Plan        journey.Plan `json:"plan"`
	CreatedAt   Timestamp    `json:"createdAt"`
	UpdatedAt   Timestamp    `json:"updatedAt"`
}

// JourneySummary is a saved journey without its plan, as returned by list.
type JourneySummary struct {
	ID          string    `json:"journeyId"`
	Name        string    `json:"name"`
	Source      Point     `json:"source"`
	Destination Point     `json:"destination"`
	Days        int       `json:"days"`
	DistanceKm  float64   `json:"distanceKm"`
	CreatedAt   Timestamp `json:"createdAt"`
}

// PagedJourneys is a page of saved journeys.
type PagedJourneys struct {
	Items []JourneySummary  `json:"items"`
	Meta  PagedResponseMeta `json:"meta"`
}

// NewJourney converts a saved journey into its API representation.
func NewJourney(j *journey.Journey) Journey {
	return Journey{
		ID:          j.ID,
		Name:        j.Name,
		Source:      NewPoint(j.Source),
		Destination: NewPoint(j.Destination),
		Days:        j.Plan.Days(),
		DistanceKm:  j.Plan.Route.DistanceKm,
		Plan:        j.Plan,
		CreatedAt:   Timestamp(j.CreatedAt),
		UpdatedAt:   Timestamp(j.UpdatedAt),
	}
}

// NewJourneySummary converts a saved journey into a list item.
func NewJourneySummary(j *journey.Journey) JourneySummary {
	return JourneySummary{
		ID:          j.ID,
		Name:        j.Name,
		Source:      NewPoint(j.Source),
		Destination: NewPoint(j.Destination),
		Days:        j.Plan.Days(),
		DistanceKm:  j.Plan.Route.DistanceKm,
		CreatedAt:   Timestamp(j.CreatedAt),
	}
}
