// Package poi fetches and normalizes points of interest along a journey.
package poi

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/roadplanner/roadplanner/pkg/geo"
)

// Sentinel errors for POI operations.
var (
	// ErrProviderUnavailable indicates the POI provider is down or the circuit breaker is open.
	ErrProviderUnavailable = errors.New("poi provider unavailable")
	// ErrUnknownCategory indicates an unsupported category.
	ErrUnknownCategory = errors.New("unknown poi category")
)

// Provider fetches raw POI elements inside a bounding box.
type Provider interface {
	FetchPOIs(ctx context.Context, bbox geo.BoundingBox, category Category) ([]RawElement, error)
	Name() string
}

// Category groups POIs by the need they serve on a journey.
type Category string

const (
	CategoryStay      Category = "stay"
	CategoryDining    Category = "dining"
	CategoryEmergency Category = "emergency"
)

// Categories lists every supported category in display order.
func Categories() []Category {
	return []Category{CategoryStay, CategoryDining, CategoryEmergency}
}

// ParseCategory validates a category name.
func ParseCategory(s string) (Category, error) {
	c := Category(s)
	if _, ok := projections[c]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownCategory, s)
	}
	return c, nil
}

// RawElement is an untyped tagged map point as returned by a provider.
type RawElement struct {
	ID   int64
	Lat  float64
	Lon  float64
	Tags map[string]string
}

// Record is a normalized POI.
type Record struct {
	ID          int64             `json:"id"`
	Name        string            `json:"name"`
	Type        string            `json:"type"`
	Category    Category          `json:"category"`
	Coordinates geo.Coordinate    `json:"coordinates"`
	DistanceKm  float64           `json:"distanceKm"`
	Extras      map[string]string `json:"extras,omitempty"`
}

// SearchResult is the outcome of a Service.Search call.
type SearchResult struct {
	Records   map[Category][]Record
	FetchedAt time.Time
}

// tagField maps an output extra to a source tag and its fallback.
type tagField struct {
	Key     string
	Tag     string
	Default string
}

// projection describes how raw tags of one category become a Record.
type projection struct {
	TypeTag     string
	TypeDefault string
	// NameDefault receives the resolved type.
	NameDefault func(typ string) string
	Extras      []tagField
	// Filter holds the provider-side tag filter, key -> accepted values.
	FilterKey    string
	FilterValues []string
}

var projections = map[Category]projection{
	CategoryStay: {
		TypeTag:     "tourism",
		TypeDefault: "hotel",
		NameDefault: func(string) string { return "Unnamed Hotel" },
		Extras: []tagField{
			{Key: "rating", Tag: "stars", Default: "3"},
			{Key: "amenities", Tag: "amenity_1", Default: "Standard amenities"},
		},
		FilterKey:    "tourism",
		FilterValues: []string{"hotel", "hostel", "guest_house"},
	},
	CategoryDining: {
		TypeTag:     "amenity",
		TypeDefault: "restaurant",
		NameDefault: func(string) string { return "Unnamed Restaurant" },
		Extras: []tagField{
			{Key: "cuisine", Tag: "cuisine", Default: "Various"},
		},
		FilterKey:    "amenity",
		FilterValues: []string{"restaurant", "cafe", "fast_food"},
	},
	CategoryEmergency: {
		TypeTag:     "amenity",
		TypeDefault: "emergency",
		NameDefault: func(typ string) string { return "Unnamed " + typ },
		Extras: []tagField{
			{Key: "phone", Tag: "phone", Default: "N/A"},
		},
		FilterKey:    "amenity",
		FilterValues: []string{"hospital", "clinic", "doctors", "pharmacy", "police"},
	},
}

// Filter returns the tag key and accepted values a provider should query for c.
func Filter(c Category) (string, []string, error) {
	p, ok := projections[c]
	if !ok {
		return "", nil, fmt.Errorf("%w: %q", ErrUnknownCategory, c)
	}
	return p.FilterKey, p.FilterValues, nil
}

// Project converts a raw element into a Record of category c.
// Missing tags fall back to the category defaults.
func Project(c Category, raw RawElement) (Record, error) {
	p, ok := projections[c]
	if !ok {
		return Record{}, fmt.Errorf("%w: %q", ErrUnknownCategory, c)
	}

	typ := tagOr(raw.Tags, p.TypeTag, p.TypeDefault)
	rec := Record{
		ID:          raw.ID,
		Name:        tagOr(raw.Tags, "name", p.NameDefault(typ)),
		Type:        typ,
		Category:    c,
		Coordinates: geo.Coordinate{Lat: raw.Lat, Lon: raw.Lon},
		Extras:      make(map[string]string, len(p.Extras)),
	}
	for _, f := range p.Extras {
		rec.Extras[f.Key] = tagOr(raw.Tags, f.Tag, f.Default)
	}
	return rec, nil
}

// ProjectAll converts raw elements, skipping those without a usable position.
func ProjectAll(c Category, raws []RawElement) ([]Record, error) {
	out := make([]Record, 0, len(raws))
	for _, raw := range raws {
		if (geo.Coordinate{Lat: raw.Lat, Lon: raw.Lon}).Validate() != nil {
			continue
		}
		rec, err := Project(c, raw)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func tagOr(tags map[string]string, key, fallback string) string {
	if v, ok := tags[key]; ok && v != "" {
		return v
	}
	return fallback
}
