// Package itinerary splits a routed path into day-sized driving legs and
// attaches nearby points of interest to each leg.
package itinerary

import (
	"errors"
	"math"

	"github.com/roadplanner/roadplanner/internal/poi"
	"github.com/roadplanner/roadplanner/pkg/geo"
)

// Defaults for Options.
const (
	DefaultAvgSpeedKmh           = 60.0
	DefaultMaxDrivingHoursPerDay = 6.0
)

// ErrDegenerateInput indicates a path with fewer than two points.
var ErrDegenerateInput = errors.New("path has fewer than two points")

// Options configures segmentation.
type Options struct {
	AvgSpeedKmh           float64 // Default: 60
	MaxDrivingHoursPerDay float64 // Default: 6
}

func (o Options) withDefaults() Options {
	if o.AvgSpeedKmh <= 0 {
		o.AvgSpeedKmh = DefaultAvgSpeedKmh
	}
	if o.MaxDrivingHoursPerDay <= 0 {
		o.MaxDrivingHoursPerDay = DefaultMaxDrivingHoursPerDay
	}
	return o
}

// MaxDistancePerDayKm is the distance covered in one day of driving.
func (o Options) MaxDistancePerDayKm() float64 {
	o = o.withDefaults()
	return o.AvgSpeedKmh * o.MaxDrivingHoursPerDay
}

// DayLeg is one day of driving.
type DayLeg struct {
	Day                int             `json:"day"`
	StartIndex         int             `json:"startIndex"`
	EndIndex           int             `json:"endIndex"`
	StartPoint         geo.Coordinate  `json:"startPoint"`
	EndPoint           geo.Coordinate  `json:"endPoint"`
	DistanceKm         float64         `json:"distanceKm"`
	EstimatedTimeHours float64         `json:"estimatedTimeHours"`
	Recommendations    Recommendations `json:"recommendations"`
}

// Center is the point used to rank recommendations for the leg.
func (l DayLeg) Center() geo.Coordinate {
	return geo.Midpoint(l.StartPoint, l.EndPoint)
}

// Recommendations holds the nearest POIs of each category for a leg.
type Recommendations struct {
	Stay      []poi.Record `json:"stay"`
	Dining    []poi.Record `json:"dining"`
	Emergency []poi.Record `json:"emergency"`
}

// Segment splits path into day legs.
//
// The number of days is ceil(totalDistanceKm / MaxDistancePerDayKm), at least
// one. Legs are cut at equal point-index strides rather than at equal
// distances, so on paths with uneven point spacing a leg can exceed a day's
// driving. Consecutive legs share their boundary point. A path with fewer
// than two points yields a single zero-distance leg.
func Segment(path []geo.Coordinate, totalDistanceKm float64, opts Options) []DayLeg {
	opts = opts.withDefaults()

	if len(path) < 2 {
		var p geo.Coordinate
		if len(path) == 1 {
			p = path[0]
		}
		return []DayLeg{{Day: 1, StartPoint: p, EndPoint: p}}
	}

	days := int(math.Ceil(totalDistanceKm / opts.MaxDistancePerDayKm()))
	if days < 1 {
		days = 1
	}

	last := len(path) - 1
	stride := int(math.Ceil(float64(len(path)) / float64(days)))

	legs := make([]DayLeg, 0, days)
	for i := 0; i < days; i++ {
		start := min(i*stride, last)
		end := min((i+1)*stride, last)

		dist := geo.PathLengthKm(path[start : end+1])
		legs = append(legs, DayLeg{
			Day:                i + 1,
			StartIndex:         start,
			EndIndex:           end,
			StartPoint:         path[start],
			EndPoint:           path[end],
			DistanceKm:         dist,
			EstimatedTimeHours: dist / opts.AvgSpeedKmh,
		})
	}

	return legs
}
