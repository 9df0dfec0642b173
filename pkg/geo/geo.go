// Package geo provides great-circle distance and bounding-box helpers for WGS84 coordinates.
package geo

import (
	"errors"
	"math"

	"github.com/paulmach/orb"
	orbgeo "github.com/paulmach/orb/geo"
)

// EarthRadiusKm is the mean Earth radius used by DistanceKm.
const EarthRadiusKm = 6371.0

// ErrInvalidCoordinate is returned by Validate for out-of-range or non-finite values.
var ErrInvalidCoordinate = errors.New("invalid coordinate")

// Coordinate is a WGS84 position in decimal degrees.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Validate reports whether the coordinate is finite and within latitude/longitude ranges.
func (c Coordinate) Validate() error {
	if math.IsNaN(c.Lat) || math.IsNaN(c.Lon) || math.IsInf(c.Lat, 0) || math.IsInf(c.Lon, 0) {
		return ErrInvalidCoordinate
	}
	if c.Lat < -90 || c.Lat > 90 || c.Lon < -180 || c.Lon > 180 {
		return ErrInvalidCoordinate
	}
	return nil
}

// Point converts the coordinate to an orb point (lon, lat order).
func (c Coordinate) Point() orb.Point {
	return orb.Point{c.Lon, c.Lat}
}

// FromPoint converts an orb point back to a Coordinate.
func FromPoint(p orb.Point) Coordinate {
	return Coordinate{Lat: p.Lat(), Lon: p.Lon()}
}

// DistanceKm returns the haversine distance between a and b in kilometres.
func DistanceKm(a, b Coordinate) float64 {
	lat1 := toRadians(a.Lat)
	lat2 := toRadians(b.Lat)
	dLat := toRadians(b.Lat - a.Lat)
	dLon := toRadians(b.Lon - a.Lon)

	sinDLat := math.Sin(dLat / 2)
	sinDLon := math.Sin(dLon / 2)

	h := sinDLat*sinDLat + math.Cos(lat1)*math.Cos(lat2)*sinDLon*sinDLon
	// Rounding can push h slightly outside [0, 1] for identical or antipodal points.
	h = math.Min(1, math.Max(0, h))

	return 2 * EarthRadiusKm * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// PathLengthKm sums DistanceKm over consecutive points.
func PathLengthKm(path []Coordinate) float64 {
	var total float64
	for i := 1; i < len(path); i++ {
		total += DistanceKm(path[i-1], path[i])
	}
	return total
}

// Midpoint returns the arithmetic mean of a and b.
// Good enough for day-sized legs; not a great-circle midpoint.
func Midpoint(a, b Coordinate) Coordinate {
	return Coordinate{
		Lat: (a.Lat + b.Lat) / 2,
		Lon: (a.Lon + b.Lon) / 2,
	}
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

// BoundingBox is a geographic rectangle.
type BoundingBox struct {
	MinLat float64 `json:"minLat"`
	MinLon float64 `json:"minLon"`
	MaxLat float64 `json:"maxLat"`
	MaxLon float64 `json:"maxLon"`
}

// Contains reports whether c lies inside the box (edges inclusive).
func (b BoundingBox) Contains(c Coordinate) bool {
	return b.Bound().Contains(c.Point())
}

// Bound converts the box to an orb.Bound.
func (b BoundingBox) Bound() orb.Bound {
	return orb.Bound{
		Min: orb.Point{b.MinLon, b.MinLat},
		Max: orb.Point{b.MaxLon, b.MaxLat},
	}
}

// FromBound converts an orb.Bound to a BoundingBox.
func FromBound(b orb.Bound) BoundingBox {
	return BoundingBox{
		MinLat: b.Min.Lat(),
		MinLon: b.Min.Lon(),
		MaxLat: b.Max.Lat(),
		MaxLon: b.Max.Lon(),
	}
}

// BoundsAround returns the box spanning a and b, padded by bufferKm on every side.
func BoundsAround(a, b Coordinate, bufferKm float64) BoundingBox {
	bound := orb.MultiPoint{a.Point(), b.Point()}.Bound()
	if bufferKm > 0 {
		bound = orbgeo.BoundPad(bound, bufferKm*1000)
	}
	return FromBound(bound)
}

// BoundsAroundDegrees returns the box spanning a and b, padded by padDeg degrees.
func BoundsAroundDegrees(a, b Coordinate, padDeg float64) BoundingBox {
	bound := orb.MultiPoint{a.Point(), b.Point()}.Bound()
	if padDeg > 0 {
		bound = bound.Pad(padDeg)
	}
	return FromBound(bound)
}
