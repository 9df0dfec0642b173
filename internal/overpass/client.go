// Package overpass provides a client for the OpenStreetMap Overpass API.
// It supplies raw road networks for routing and tagged nodes for POI search.
package overpass

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/paulmach/osm"
	"github.com/rs/zerolog"

	"github.com/roadplanner/roadplanner/internal/graph"
	"github.com/roadplanner/roadplanner/internal/poi"
	"github.com/roadplanner/roadplanner/internal/provider/resilience"
	"github.com/roadplanner/roadplanner/internal/routing"
	"github.com/roadplanner/roadplanner/internal/telemetry"
	"github.com/roadplanner/roadplanner/pkg/geo"
)

const (
	// ProviderName identifies this provider.
	ProviderName = "overpass"

	// DefaultBaseURL is the public Overpass interpreter endpoint.
	DefaultBaseURL = "https://overpass-api.de/api/interpreter"

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 30 * time.Second

	maxErrorBody = 512
)

// HTTPDoer is an interface for executing HTTP requests.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientConfig holds configuration for the Overpass client.
type ClientConfig struct {
	// BaseURL is the interpreter URL (optional, defaults to the public instance).
	BaseURL string

	// HTTPClient is the HTTP client to use (optional).
	// If nil, uses a resilient client that also retries 429 and 504.
	HTTPClient HTTPDoer

	// Timeout is the request timeout (optional, defaults to 30s).
	// It is also sent to the server as the query timeout.
	Timeout time.Duration

	// Registry is the provider registry for health tracking (optional).
	Registry *resilience.Registry

	// Metrics records request durations (optional).
	Metrics *telemetry.ProviderMetrics

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client is an Overpass API client.
type Client struct {
	baseURL    string
	httpClient HTTPDoer
	timeout    time.Duration
	metrics    *telemetry.ProviderMetrics
	logger     zerolog.Logger
}

var (
	_ routing.NetworkProvider = (*Client)(nil)
	_ poi.Provider            = (*Client)(nil)
)

// NewClient creates a new Overpass client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		clientCfg := resilience.DefaultClientConfig(ProviderName)
		clientCfg.Timeout = timeout
		clientCfg.RetryStatuses = []int{http.StatusTooManyRequests}
		clientCfg.Registry = cfg.Registry
		clientCfg.CircuitBreaker.OnStateChange = resilience.LogStateChanges(cfg.Logger)
		httpClient = resilience.NewClient(clientCfg)
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		timeout:    timeout,
		metrics:    cfg.Metrics,
		logger:     cfg.Logger,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// FetchNetwork returns drivable road ways inside bbox and the nodes they reference.
func (c *Client) FetchNetwork(ctx context.Context, bbox geo.BoundingBox) (*routing.RawNetwork, error) {
	start := time.Now()
	data, err := c.query(ctx, networkQuery(bbox, c.timeoutSeconds()))
	c.metrics.RecordRequest(ProviderName, "network", time.Since(start), err)
	if err != nil {
		return nil, toRoutingError(err)
	}

	network := &routing.RawNetwork{
		Points:    make([]graph.PointFeature, 0, len(data.Nodes)),
		Ways:      make([]graph.Way, 0, len(data.Ways)),
		Provider:  ProviderName,
		FetchedAt: time.Now(),
	}
	for _, n := range data.Nodes {
		network.Points = append(network.Points, graph.PointFeature{
			ID:  graph.NodeID(n.ID),
			Lat: n.Lat,
			Lon: n.Lon,
		})
	}
	for _, w := range data.Ways {
		ids := make([]graph.NodeID, 0, len(w.Nodes))
		for _, wn := range w.Nodes {
			ids = append(ids, graph.NodeID(wn.ID))
		}
		network.Ways = append(network.Ways, graph.Way{
			ID:       int64(w.ID),
			NodeIDs:  ids,
			SpeedKmh: parseMaxSpeed(w.Tags.Find("maxspeed")),
		})
	}

	c.logger.Debug().
		Int("node_count", len(network.Points)).
		Int("way_count", len(network.Ways)).
		Dur("duration", time.Since(start)).
		Msg("received road network from overpass")

	return network, nil
}

// FetchPOIs returns the nodes of category inside bbox in provider order.
func (c *Client) FetchPOIs(ctx context.Context, bbox geo.BoundingBox, category poi.Category) ([]poi.RawElement, error) {
	q, err := poiQuery(bbox, category, c.timeoutSeconds())
	if err != nil {
		return nil, err
	}

	start := time.Now()
	data, err := c.query(ctx, q)
	c.metrics.RecordRequest(ProviderName, "pois", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", poi.ErrProviderUnavailable, err)
	}

	elements := make([]poi.RawElement, 0, len(data.Nodes))
	for _, n := range data.Nodes {
		elements = append(elements, poi.RawElement{
			ID:   int64(n.ID),
			Lat:  n.Lat,
			Lon:  n.Lon,
			Tags: n.Tags.Map(),
		})
	}

	c.logger.Debug().
		Str("category", string(category)).
		Int("element_count", len(elements)).
		Dur("duration", time.Since(start)).
		Msg("received pois from overpass")

	return elements, nil
}

// statusError is a non-200 interpreter response.
type statusError struct {
	StatusCode int
	Body       string
}

func (e *statusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("overpass returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("overpass returned status %d: %s", e.StatusCode, e.Body)
}

func (c *Client) query(ctx context.Context, q string) (*osm.OSM, error) {
	form := url.Values{"data": {q}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("requesting overpass: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &statusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var data osm.OSM
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	return &data, nil
}

func (c *Client) timeoutSeconds() int {
	secs := int(c.timeout / time.Second)
	if secs < 1 {
		secs = 1
	}
	return secs
}

// toRoutingError maps transport and status failures to routing errors.
func toRoutingError(err error) error {
	var se *statusError
	if errors.As(err, &se) {
		switch {
		case se.StatusCode == http.StatusTooManyRequests:
			return &routing.Error{
				Code:    "RATE_LIMIT",
				Message: "road network provider rate limit exceeded, please try again later",
				Err:     errors.Join(routing.ErrRateLimitExceeded, err),
			}
		case se.StatusCode >= 500:
			return &routing.Error{
				Code:    fmt.Sprintf("SERVER_%d", se.StatusCode),
				Message: "road network provider is temporarily unavailable",
				Err:     errors.Join(routing.ErrProviderUnavailable, err),
			}
		default:
			return &routing.Error{
				Code:    fmt.Sprintf("HTTP_%d", se.StatusCode),
				Message: fmt.Sprintf("road network provider returned status %d", se.StatusCode),
				Err:     errors.Join(routing.ErrProviderUnavailable, err),
			}
		}
	}
	if errors.Is(err, resilience.ErrCircuitOpen) {
		return &routing.Error{
			Code:    "CIRCUIT_OPEN",
			Message: "road network provider is temporarily unavailable",
			Err:     errors.Join(routing.ErrProviderUnavailable, err),
		}
	}
	return &routing.Error{
		Code:    "REQUEST_FAILED",
		Message: "failed to reach road network provider",
		Err:     errors.Join(routing.ErrProviderUnavailable, err),
	}
}
