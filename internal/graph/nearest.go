package graph

import (
	"math"

	"github.com/roadplanner/roadplanner/pkg/geo"
)

// DefaultSnapDistanceKm is the maximum distance Nearest accepts when no limit is given.
const DefaultSnapDistanceKm = 2.0

// Nearest returns the node closest to q and its distance in kilometres.
// Nodes are scanned in insertion order and the first one wins ties.
// A maxDistanceKm of zero or less means DefaultSnapDistanceKm.
func (g *Graph) Nearest(q geo.Coordinate, maxDistanceKm float64) (NodeID, float64, error) {
	if maxDistanceKm <= 0 {
		maxDistanceKm = DefaultSnapDistanceKm
	}

	best := -1
	bestDist := math.Inf(1)
	for i, n := range g.nodes {
		d := geo.DistanceKm(q, n.Coordinate)
		if d < bestDist {
			best = i
			bestDist = d
		}
	}

	if best < 0 || bestDist > maxDistanceKm {
		return 0, bestDist, ErrNoNearbyNode
	}
	return g.nodes[best].ID, bestDist, nil
}
