// Package models provides request and response models for the RoadPlanner API.
package models

import (
	"time"

	"github.com/roadplanner/roadplanner/pkg/geo"
)

// Point represents a geographic coordinate in a request body.
// Fields are pointers so that a missing value is distinguishable from 0.
type Point struct {
	Lat *float64 `json:"lat"`
	Lon *float64 `json:"lon"`
}

// NewPoint converts a coordinate into a Point.
func NewPoint(c geo.Coordinate) Point {
	lat, lon := c.Lat, c.Lon
	return Point{Lat: &lat, Lon: &lon}
}

// Coordinate converts the point to a coordinate. Missing fields become 0.
func (p Point) Coordinate() geo.Coordinate {
	var c geo.Coordinate
	if p.Lat != nil {
		c.Lat = *p.Lat
	}
	if p.Lon != nil {
		c.Lon = *p.Lon
	}
	return c
}

// PagedResponseMeta contains pagination metadata.
type PagedResponseMeta struct {
	Limit      int     `json:"limit"`
	NextCursor *string `json:"nextCursor,omitempty"`
}

// HealthStatus represents the health status of a service.
type HealthStatus string

const (
	HealthStatusOK       HealthStatus = "OK"
	HealthStatusDegraded HealthStatus = "DEGRADED"
	HealthStatusFail     HealthStatus = "FAIL"
)

// Timestamp is a helper type for time.Time with custom JSON formatting.
type Timestamp time.Time

// MarshalJSON implements json.Marshaler for Timestamp.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return []byte(`"` + time.Time(t).UTC().Format(time.RFC3339) + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler for Timestamp.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	if len(data) < 2 {
		return &time.ParseError{Layout: time.RFC3339, Value: string(data)}
	}
	parsed, err := time.Parse(time.RFC3339, string(data[1:len(data)-1]))
	if err != nil {
		return err
	}
	*t = Timestamp(parsed)
	return nil
}

// Time returns the underlying time.Time.
func (t Timestamp) Time() time.Time {
	return time.Time(t)
}
