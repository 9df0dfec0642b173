package models

// Enums lists the values accepted by the API.
type Enums struct {
	Metrics       []string `json:"metrics"`
	POICategories []string `json:"poiCategories"`
}

// Defaults lists the planning constants applied when a request omits them.
type Defaults struct {
	Metric                string  `json:"metric"`
	AvgSpeedKmh           float64 `json:"avgSpeedKmh"`
	MaxDrivingHoursPerDay float64 `json:"maxDrivingHoursPerDay"`
	MaxDistancePerDayKm   float64 `json:"maxDistancePerDayKm"`
}

// Metadata bundles enums and defaults.
type Metadata struct {
	Enums    Enums    `json:"enums"`
	Defaults Defaults `json:"defaults"`
}
