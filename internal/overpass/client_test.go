package overpass

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roadplanner/roadplanner/internal/graph"
	"github.com/roadplanner/roadplanner/internal/poi"
	"github.com/roadplanner/roadplanner/internal/routing"
	"github.com/roadplanner/roadplanner/pkg/geo"
)

var testBox = geo.BoundingBox{MinLat: 12.9, MinLon: 77.5, MaxLat: 13.0, MaxLon: 77.7}

func fixtureServer(t *testing.T, fixture string, inspect func(query string)) *httptest.Server {
	t.Helper()
	body, err := os.ReadFile("testdata/" + fixture)
	require.NoError(t, err)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		require.NoError(t, r.ParseForm())
		if inspect != nil {
			inspect(r.PostForm.Get("data"))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(body)
	}))
	t.Cleanup(server.Close)
	return server
}

func newTestClient(server *httptest.Server) *Client {
	return NewClient(ClientConfig{
		BaseURL:    server.URL,
		HTTPClient: server.Client(),
		Logger:     zerolog.Nop(),
	})
}

func TestClient_FetchNetwork(t *testing.T) {
	var query string
	server := fixtureServer(t, "network.json", func(q string) { query = q })
	client := newTestClient(server)

	network, err := client.FetchNetwork(context.Background(), testBox)
	require.NoError(t, err)

	assert.Contains(t, query, `way["highway"]["highway"!~"footway|path|cycleway|service|track"](12.900000,77.500000,13.000000,77.700000);`)
	assert.Contains(t, query, "node(w);")
	assert.True(t, strings.HasPrefix(query, "[out:json][timeout:30];"))

	assert.Equal(t, ProviderName, network.Provider)
	require.Len(t, network.Points, 4)
	assert.Equal(t, graph.PointFeature{ID: 1, Lat: 12.9716, Lon: 77.5946}, network.Points[0])

	require.Len(t, network.Ways, 2)
	assert.Equal(t, int64(100), network.Ways[0].ID)
	assert.Equal(t, []graph.NodeID{1, 2, 3}, network.Ways[0].NodeIDs)
	assert.InDelta(t, 80.0, network.Ways[0].SpeedKmh, 1e-9)
	assert.Zero(t, network.Ways[1].SpeedKmh)
}

func TestClient_FetchNetwork_BuildsRoutableGraph(t *testing.T) {
	server := fixtureServer(t, "network.json", nil)
	client := newTestClient(server)

	network, err := client.FetchNetwork(context.Background(), testBox)
	require.NoError(t, err)

	route, err := routing.Compute(network,
		geo.Coordinate{Lat: 12.9716, Lon: 77.5946},
		geo.Coordinate{Lat: 12.9950, Lon: 77.6200},
		graph.MetricTime, routing.ComputeOptions{})
	require.NoError(t, err)
	assert.Equal(t, []graph.NodeID{1, 2, 3, 4}, route.NodeIDs)
}

func TestClient_FetchPOIs(t *testing.T) {
	var query string
	server := fixtureServer(t, "stay.json", func(q string) { query = q })
	client := newTestClient(server)

	elements, err := client.FetchPOIs(context.Background(), testBox, poi.CategoryStay)
	require.NoError(t, err)

	for _, v := range []string{"hotel", "hostel", "guest_house"} {
		assert.Contains(t, query, `node["tourism"="`+v+`"](12.900000,77.500000,13.000000,77.700000);`)
	}

	require.Len(t, elements, 2)
	assert.Equal(t, int64(501), elements[0].ID)
	assert.Equal(t, "Hotel Lake View", elements[0].Tags["name"])
	assert.Equal(t, "4", elements[0].Tags["stars"])
	assert.Equal(t, int64(502), elements[1].ID)

	records, err := poi.ProjectAll(poi.CategoryStay, elements)
	require.NoError(t, err)
	assert.Equal(t, "Unnamed Hotel", records[1].Name)
	assert.Equal(t, "hostel", records[1].Type)
}

func TestClient_FetchPOIs_UnknownCategory(t *testing.T) {
	client := NewClient(ClientConfig{BaseURL: "http://127.0.0.1:0", Logger: zerolog.Nop()})

	_, err := client.FetchPOIs(context.Background(), testBox, "museums")
	assert.ErrorIs(t, err, poi.ErrUnknownCategory)
}

func TestClient_ErrorResponses(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		wantErr   error
		wantCode  string
		retryable bool
	}{
		{name: "rate limited", status: http.StatusTooManyRequests, wantErr: routing.ErrRateLimitExceeded, wantCode: "RATE_LIMIT", retryable: true},
		{name: "gateway timeout", status: http.StatusGatewayTimeout, wantErr: routing.ErrProviderUnavailable, wantCode: "SERVER_504", retryable: true},
		{name: "bad query", status: http.StatusBadRequest, wantErr: routing.ErrProviderUnavailable, wantCode: "HTTP_400", retryable: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte("runtime error"))
			}))
			defer server.Close()

			client := newTestClient(server)

			_, err := client.FetchNetwork(context.Background(), testBox)
			require.ErrorIs(t, err, tt.wantErr)

			var routeErr *routing.Error
			require.True(t, errors.As(err, &routeErr))
			assert.Equal(t, tt.wantCode, routeErr.Code)
			assert.Equal(t, tt.retryable, routeErr.IsRetryable())
			assert.Contains(t, err.Error(), "runtime error")

			_, err = client.FetchPOIs(context.Background(), testBox, poi.CategoryDining)
			assert.ErrorIs(t, err, poi.ErrProviderUnavailable)
		})
	}
}

func TestClient_MalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html>busy</html>"))
	}))
	defer server.Close()

	_, err := newTestClient(server).FetchNetwork(context.Background(), testBox)
	assert.ErrorIs(t, err, routing.ErrProviderUnavailable)
}

func TestParseMaxSpeed(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"50", 50},
		{" 80 ", 80},
		{"30 mph", 48.28032},
		{"none", 0},
		{"signals", 0},
		{"", 0},
		{"0", 0},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.InDelta(t, tt.want, parseMaxSpeed(tt.in), 1e-6)
		})
	}
}

func TestPOIQuery_UnknownCategory(t *testing.T) {
	_, err := poiQuery(testBox, "museums", 30)
	assert.ErrorIs(t, err, poi.ErrUnknownCategory)
}
