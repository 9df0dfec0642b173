package itinerary

import (
	"sort"

	"github.com/roadplanner/roadplanner/internal/poi"
	"github.com/roadplanner/roadplanner/pkg/geo"
)

// NearestK returns up to k candidates closest to center, nearest first.
// DistanceKm is set on the returned copies; equal distances keep input order.
func NearestK(center geo.Coordinate, candidates []poi.Record, k int) []poi.Record {
	if k <= 0 || len(candidates) == 0 {
		return []poi.Record{}
	}

	ranked := make([]poi.Record, len(candidates))
	copy(ranked, candidates)
	for i := range ranked {
		ranked[i].DistanceKm = geo.DistanceKm(center, ranked[i].Coordinates)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].DistanceKm < ranked[j].DistanceKm
	})

	if len(ranked) > k {
		ranked = ranked[:k]
	}
	return ranked
}
