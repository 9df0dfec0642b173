package journey

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/jszwec/csvutil"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/roadplanner/roadplanner/internal/poi"
	"github.com/roadplanner/roadplanner/pkg/polyline"
)

// itineraryRow is one CSV line of an exported itinerary.
type itineraryRow struct {
	Day                int     `csv:"day"`
	StartLat           float64 `csv:"start_lat"`
	StartLon           float64 `csv:"start_lon"`
	EndLat             float64 `csv:"end_lat"`
	EndLon             float64 `csv:"end_lon"`
	DistanceKm         float64 `csv:"distance_km"`
	EstimatedTimeHours float64 `csv:"estimated_time_hours"`
	Stay               string  `csv:"stay"`
	Dining             string  `csv:"dining"`
	Emergency          string  `csv:"emergency"`
}

// WriteItineraryCSV writes one row per driving day of j.
func WriteItineraryCSV(w io.Writer, j *Journey) error {
	rows := make([]itineraryRow, 0, len(j.Plan.DailyPlan))
	for _, leg := range j.Plan.DailyPlan {
		rows = append(rows, itineraryRow{
			Day:                leg.Day,
			StartLat:           leg.StartPoint.Lat,
			StartLon:           leg.StartPoint.Lon,
			EndLat:             leg.EndPoint.Lat,
			EndLon:             leg.EndPoint.Lon,
			DistanceKm:         roundTo(leg.DistanceKm, 2),
			EstimatedTimeHours: roundTo(leg.EstimatedTimeHours, 2),
			Stay:               joinNames(leg.Recommendations.Stay),
			Dining:             joinNames(leg.Recommendations.Dining),
			Emergency:          joinNames(leg.Recommendations.Emergency),
		})
	}

	cw := csv.NewWriter(w)
	enc := csvutil.NewEncoder(cw)
	if len(rows) == 0 {
		if err := enc.EncodeHeader(itineraryRow{}); err != nil {
			return fmt.Errorf("encode itinerary header: %w", err)
		}
	}
	for _, row := range rows {
		if err := enc.Encode(row); err != nil {
			return fmt.Errorf("encode itinerary row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func joinNames(records []poi.Record) string {
	names := make([]string, 0, len(records))
	for _, r := range records {
		names = append(names, r.Name)
	}
	return strings.Join(names, "; ")
}

// RouteGeoJSON renders the route of j as a FeatureCollection: one LineString
// for the route followed by one Point per overnight stop.
func RouteGeoJSON(j *Journey) (*geojson.FeatureCollection, error) {
	path := j.Plan.Route.Path
	if len(path) == 0 && j.Plan.Route.Polyline != "" {
		decoded, err := polyline.Decode(j.Plan.Route.Polyline)
		if err != nil {
			return nil, fmt.Errorf("decode route polyline: %w", err)
		}
		path = decoded
	}

	fc := geojson.NewFeatureCollection()

	line := make(orb.LineString, 0, len(path))
	for _, c := range path {
		line = append(line, c.Point())
	}
	route := geojson.NewFeature(line)
	route.ID = j.ID
	route.Properties["name"] = j.Name
	route.Properties["distanceKm"] = j.Plan.Route.DistanceKm
	route.Properties["travelTimeHours"] = j.Plan.Route.TravelTimeHours
	route.Properties["metric"] = string(j.Plan.Route.Metric)
	route.Properties["days"] = j.Plan.Days()
	fc.Append(route)

	for _, leg := range j.Plan.DailyPlan {
		stop := geojson.NewFeature(leg.EndPoint.Point())
		stop.Properties["day"] = leg.Day
		stop.Properties["distanceKm"] = roundTo(leg.DistanceKm, 2)
		if len(leg.Recommendations.Stay) > 0 {
			stop.Properties["stay"] = leg.Recommendations.Stay[0].Name
		}
		fc.Append(stop)
	}

	if len(line) > 0 {
		fc.BBox = geojson.NewBBox(line.Bound())
	}

	return fc, nil
}
