package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/roadplanner/roadplanner/internal/api/middleware"
	"github.com/roadplanner/roadplanner/internal/api/models"
	"github.com/roadplanner/roadplanner/internal/graph"
	"github.com/roadplanner/roadplanner/internal/poi"
	"github.com/roadplanner/roadplanner/internal/routing"
	"github.com/roadplanner/roadplanner/pkg/geo"
)

type stubRoutes struct {
	route *routing.Route
	err   error
	last  routing.RouteRequest
	calls int
}

func (s *stubRoutes) ComputeRoute(_ context.Context, req routing.RouteRequest) (*routing.Route, error) {
	s.calls++
	s.last = req
	if s.err != nil {
		return nil, s.err
	}
	r := *s.route
	r.Metric = req.Metric
	return &r, nil
}

type stubPOIs struct {
	records map[poi.Category][]poi.Record
	err     error
	last    []poi.Category
}

func (s *stubPOIs) Search(_ context.Context, _, _ geo.Coordinate, categories []poi.Category) (*poi.SearchResult, error) {
	s.last = categories
	if s.err != nil {
		return nil, s.err
	}
	out := make(map[poi.Category][]poi.Record, len(categories))
	for _, c := range categories {
		out[c] = s.records[c]
	}
	return &poi.SearchResult{Records: out}, nil
}

// eastwardRoute runs along the equator in n points 0.1 degrees apart.
func eastwardRoute(n int, distanceKm float64) *routing.Route {
	path := make([]geo.Coordinate, n)
	ids := make([]graph.NodeID, n)
	for i := range path {
		path[i] = geo.Coordinate{Lat: 0, Lon: float64(i) * 0.1}
		ids[i] = graph.NodeID(i + 1)
	}
	return &routing.Route{
		Path:            path,
		NodeIDs:         ids,
		DistanceKm:      distanceKm,
		TravelTimeHours: distanceKm / 60,
		Metric:          graph.MetricTime,
		Polyline:        "??",
	}
}

func samplePOIs() map[poi.Category][]poi.Record {
	return map[poi.Category][]poi.Record{
		poi.CategoryStay: {
			{ID: 1, Name: "Roadside Inn", Type: "hotel", Category: poi.CategoryStay, Coordinates: geo.Coordinate{Lat: 0.01, Lon: 0.2}},
		},
		poi.CategoryDining: {
			{ID: 2, Name: "Diner", Type: "restaurant", Category: poi.CategoryDining, Coordinates: geo.Coordinate{Lat: 0.01, Lon: 0.3}},
		},
		poi.CategoryEmergency: {
			{ID: 3, Name: "Unnamed hospital", Type: "hospital", Category: poi.CategoryEmergency, Coordinates: geo.Coordinate{Lat: 0.01, Lon: 0.4}},
		},
	}
}

func jsonRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// asUser authenticates req as userID and sets chi URL params.
func asUser(req *http.Request, userID string, params map[string]string) *http.Request {
	ctx := middleware.WithUserID(req.Context(), userID)
	if len(params) > 0 {
		rctx := chi.NewRouteContext()
		for k, v := range params {
			rctx.URLParams.Add(k, v)
		}
		ctx = context.WithValue(ctx, chi.RouteCtxKey, rctx)
	}
	return req.WithContext(ctx)
}

func decodeProblem(t *testing.T, rec *httptest.ResponseRecorder) models.Problem {
	t.Helper()
	var p models.Problem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	return p
}

func point(lat, lon float64) map[string]float64 {
	return map[string]float64{"lat": lat, "lon": lon}
}

func nopLogger() zerolog.Logger {
	return zerolog.Nop()
}
