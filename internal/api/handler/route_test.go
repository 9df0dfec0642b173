package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roadplanner/roadplanner/internal/api/models"
	"github.com/roadplanner/roadplanner/internal/graph"
	"github.com/roadplanner/roadplanner/internal/routing"
)

func TestRouteHandler_ComputeRoute(t *testing.T) {
	routes := &stubRoutes{route: eastwardRoute(4, 33.4)}
	h := NewRouteHandler(routes, nopLogger())

	req := jsonRequest(t, http.MethodPost, "/v1/routes:compute", map[string]any{
		"source":      point(0, 0),
		"destination": point(0, 0.3),
		"metric":      "distance",
	})
	rec := httptest.NewRecorder()
	h.ComputeRoute(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, graph.MetricDistance, routes.last.Metric)
	assert.InDelta(t, 0.3, routes.last.Destination.Lon, 1e-9)

	var resp models.RouteComputeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 4, resp.NodeCount)
	assert.Equal(t, []int64{1, 2, 3, 4}, resp.NodeIDs)
	assert.Equal(t, "DISTANCE", resp.Metric)
	assert.InDelta(t, 33.4, resp.DistanceKm, 1e-9)
	assert.Len(t, resp.Path, 4)
}

func TestRouteHandler_DefaultsToTimeMetric(t *testing.T) {
	routes := &stubRoutes{route: eastwardRoute(2, 11)}
	h := NewRouteHandler(routes, nopLogger())

	req := jsonRequest(t, http.MethodPost, "/v1/routes:compute", map[string]any{
		"source":      point(0, 0),
		"destination": point(0, 0.1),
	})
	rec := httptest.NewRecorder()
	h.ComputeRoute(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, graph.MetricTime, routes.last.Metric)
}

func TestRouteHandler_Validation(t *testing.T) {
	tests := []struct {
		name   string
		body   any
		fields []string
	}{
		{
			name:   "missing points",
			body:   map[string]any{},
			fields: []string{"source", "destination"},
		},
		{
			name:   "missing longitude",
			body:   map[string]any{"source": map[string]float64{"lat": 1}, "destination": point(0, 0)},
			fields: []string{"source.lon"},
		},
		{
			name:   "out of range",
			body:   map[string]any{"source": point(91, 0), "destination": point(0, -181)},
			fields: []string{"source.lat", "destination.lon"},
		},
		{
			name:   "unknown metric",
			body:   map[string]any{"source": point(0, 0), "destination": point(1, 1), "metric": "SCENIC"},
			fields: []string{"metric"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			routes := &stubRoutes{route: eastwardRoute(2, 1)}
			h := NewRouteHandler(routes, nopLogger())

			rec := httptest.NewRecorder()
			h.ComputeRoute(rec, jsonRequest(t, http.MethodPost, "/v1/routes:compute", tt.body))

			require.Equal(t, http.StatusBadRequest, rec.Code)
			problem := decodeProblem(t, rec)
			assert.Equal(t, models.ProblemTypeValidation, problem.Type)

			var fields []string
			for _, fe := range problem.Errors {
				fields = append(fields, fe.Field)
			}
			assert.Equal(t, tt.fields, fields)
		})
	}
}

func TestRouteHandler_InvalidJSON(t *testing.T) {
	h := NewRouteHandler(&stubRoutes{}, nopLogger())

	rec := httptest.NewRecorder()
	h.ComputeRoute(rec, jsonRequest(t, http.MethodPost, "/v1/routes:compute", `{"source":`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	h.ComputeRoute(rec, jsonRequest(t, http.MethodPost, "/v1/routes:compute", `{"origin":{"lat":1,"lon":1}}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouteHandler_NoRoute(t *testing.T) {
	routes := &stubRoutes{err: &routing.Error{
		Code:    "NO_PATH",
		Message: "no route found between the given points",
		Err:     routing.ErrNoPathFound,
	}}
	h := NewRouteHandler(routes, nopLogger())

	rec := httptest.NewRecorder()
	h.ComputeRoute(rec, jsonRequest(t, http.MethodPost, "/v1/routes:compute", map[string]any{
		"source":      point(0, 0),
		"destination": point(1, 1),
	}))

	require.Equal(t, http.StatusNotFound, rec.Code)
	problem := decodeProblem(t, rec)
	assert.Equal(t, models.ProblemTypeRouteNotFound, problem.Type)
	assert.Equal(t, "no route found between the given points", problem.Detail)
}
