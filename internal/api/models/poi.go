package models

import "github.com/roadplanner/roadplanner/internal/poi"

// POISearchRequest is the body of POST /v1/pois:search.
type POISearchRequest struct {
	Source      *Point `json:"source"`
	Destination *Point `json:"destination"`
	// Categories defaults to every category.
	Categories []string `json:"categories,omitempty"`
}

// POISearchResponse holds the POIs found per category, in provider order.
type POISearchResponse struct {
	Stay      []poi.Record `json:"stay"`
	Dining    []poi.Record `json:"dining"`
	Emergency []poi.Record `json:"emergency"`
	FetchedAt Timestamp    `json:"fetchedAt"`
}
