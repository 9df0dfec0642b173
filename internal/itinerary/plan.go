package itinerary

import (
	"github.com/roadplanner/roadplanner/internal/poi"
	"github.com/roadplanner/roadplanner/pkg/geo"
)

// Recommendations kept per leg and category.
const (
	StayPerDay      = 3
	DiningPerDay    = 5
	EmergencyPerDay = 3
)

// Plan segments path into day legs and attaches the nearest candidates of
// each category to every leg, ranked from the leg's center.
func Plan(path []geo.Coordinate, totalDistanceKm float64, candidates map[poi.Category][]poi.Record, opts Options) ([]DayLeg, error) {
	if len(path) < 2 {
		return nil, ErrDegenerateInput
	}

	legs := Segment(path, totalDistanceKm, opts)
	for i := range legs {
		center := legs[i].Center()
		legs[i].Recommendations = Recommendations{
			Stay:      NearestK(center, candidates[poi.CategoryStay], StayPerDay),
			Dining:    NearestK(center, candidates[poi.CategoryDining], DiningPerDay),
			Emergency: NearestK(center, candidates[poi.CategoryEmergency], EmergencyPerDay),
		}
	}

	return legs, nil
}
