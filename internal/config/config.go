// Package config loads process configuration from the environment, an
// optional .env file and an optional YAML file of planning tunables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/roadplanner/roadplanner/internal/database"
)

// Storage backends for saved journeys.
const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

// DevSigningKey is used when JWT_SIGNING_KEY is unset outside production.
const DevSigningKey = "local-dev-signing-key-change-in-production"

// Config is the complete process configuration.
type Config struct {
	Port       string
	Env        string
	Storage    string
	RequireTLS bool

	Telemetry TelemetryConfig
	Database  database.Config
	Overpass  OverpassConfig
	JWT       JWTConfig
	CORS      CORSConfig
	PubSub    PubSubConfig

	Routing   RoutingConfig
	Itinerary ItineraryConfig
}

// TelemetryConfig controls OpenTelemetry export.
type TelemetryConfig struct {
	Enabled      bool
	OTLPEndpoint string
	SampleRatio  float64
}

// OverpassConfig configures the map data provider.
type OverpassConfig struct {
	BaseURL string
	Timeout time.Duration
}

// JWTConfig configures access token validation.
type JWTConfig struct {
	SigningKey string
	Issuer     string
	Audience   string
}

// CORSConfig lists browser origins allowed to call the API.
type CORSConfig struct {
	AllowedOrigins []string
}

// PubSubConfig configures the planning worker subscription.
type PubSubConfig struct {
	ProjectID    string
	Subscription string
	// WarmInterval is how often the worker warms corridors without a
	// subscription. Zero disables periodic warm-up.
	WarmInterval time.Duration
}

// RoutingConfig tunes route computation. Zero values select package defaults.
type RoutingConfig struct {
	SnapDistanceKm  float64       `yaml:"snap_distance_km"`
	DefaultSpeedKmh float64       `yaml:"default_speed_kmh"`
	NetworkBufferKm float64       `yaml:"network_buffer_km"`
	CacheTTL        time.Duration `yaml:"cache_ttl"`
}

// ItineraryConfig tunes day segmentation and POI search. Zero values select package defaults.
type ItineraryConfig struct {
	AvgSpeedKmh           float64 `yaml:"avg_speed_kmh"`
	MaxDrivingHoursPerDay float64 `yaml:"max_driving_hours_per_day"`
	POIPaddingDeg         float64 `yaml:"poi_padding_deg"`
}

// IsProduction reports whether the process runs in production.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Load reads envFiles (default ".env", skipped when absent), builds the
// configuration from the process environment with file values as fallback,
// applies ROADPLANNER_CONFIG if set and validates the result.
func Load(envFiles ...string) (*Config, error) {
	dotenv, err := readDotEnv(envFiles)
	if err != nil {
		return nil, err
	}

	getenv := func(key string) string {
		if v, ok := os.LookupEnv(key); ok {
			return v
		}
		return dotenv[key]
	}

	cfg, err := FromLookup(getenv)
	if err != nil {
		return nil, err
	}

	if path := getenv("ROADPLANNER_CONFIG"); path != "" {
		if err := cfg.ApplyFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func readDotEnv(files []string) (map[string]string, error) {
	explicit := len(files) > 0
	if !explicit {
		files = []string{".env"}
	}

	values, err := godotenv.Read(files...)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("read env file: %w", err)
	}
	return values, nil
}

// FromLookup builds a Config from variables returned by getenv.
func FromLookup(getenv func(string) string) (*Config, error) {
	get := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}

	overpassTimeout, err := time.ParseDuration(get("OVERPASS_TIMEOUT", "30s"))
	if err != nil {
		return nil, fmt.Errorf("parse OVERPASS_TIMEOUT: %w", err)
	}

	otelEnabled, err := strconv.ParseBool(get("OTEL_ENABLED", "false"))
	if err != nil {
		return nil, fmt.Errorf("parse OTEL_ENABLED: %w", err)
	}

	sampleRatio, err := strconv.ParseFloat(get("OTEL_SAMPLE_RATIO", "1"), 64)
	if err != nil {
		return nil, fmt.Errorf("parse OTEL_SAMPLE_RATIO: %w", err)
	}

	warmInterval, err := time.ParseDuration(get("WORKER_WARM_INTERVAL", "30m"))
	if err != nil {
		return nil, fmt.Errorf("parse WORKER_WARM_INTERVAL: %w", err)
	}

	requireTLS, err := strconv.ParseBool(get("REQUIRE_TLS", "false"))
	if err != nil {
		return nil, fmt.Errorf("parse REQUIRE_TLS: %w", err)
	}

	env := get("APP_ENV", "development")
	signingKey := get("JWT_SIGNING_KEY", "")
	if signingKey == "" && env != "production" {
		signingKey = DevSigningKey
	}

	return &Config{
		Port:       get("APP_PORT", "8080"),
		Env:        env,
		Storage:    strings.ToLower(get("STORAGE", StorageMemory)),
		RequireTLS: requireTLS,
		Telemetry: TelemetryConfig{
			Enabled:      otelEnabled,
			OTLPEndpoint: get("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			SampleRatio:  sampleRatio,
		},
		Database: database.ConfigFromLookup(getenv),
		Overpass: OverpassConfig{
			BaseURL: get("OVERPASS_BASE_URL", ""),
			Timeout: overpassTimeout,
		},
		JWT: JWTConfig{
			SigningKey: signingKey,
			Issuer:     get("JWT_ISSUER", "roadplanner"),
			Audience:   get("JWT_AUDIENCE", "roadplanner-api"),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(get("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
		},
		PubSub: PubSubConfig{
			ProjectID:    get("PUBSUB_PROJECT_ID", ""),
			Subscription: get("PUBSUB_SUBSCRIPTION", "roadplanner-jobs"),
			WarmInterval: warmInterval,
		},
	}, nil
}

// ApplyFile overlays the routing and itinerary sections of a YAML file.
func (c *Config) ApplyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var file struct {
		Routing   RoutingConfig   `yaml:"routing"`
		Itinerary ItineraryConfig `yaml:"itinerary"`
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	c.Routing = file.Routing
	c.Itinerary = file.Itinerary
	return nil
}

// Validate checks the configuration for values that would fail at runtime.
func (c *Config) Validate() error {
	var errs []error

	if _, err := strconv.Atoi(c.Port); err != nil {
		errs = append(errs, fmt.Errorf("APP_PORT must be numeric, got %q", c.Port))
	}
	if c.Storage != StorageMemory && c.Storage != StoragePostgres {
		errs = append(errs, fmt.Errorf("STORAGE must be %q or %q, got %q", StorageMemory, StoragePostgres, c.Storage))
	}
	if c.JWT.SigningKey == "" {
		errs = append(errs, errors.New("JWT_SIGNING_KEY is required in production"))
	}
	if c.Overpass.Timeout <= 0 {
		errs = append(errs, errors.New("OVERPASS_TIMEOUT must be positive"))
	}
	if c.PubSub.WarmInterval < 0 {
		errs = append(errs, errors.New("WORKER_WARM_INTERVAL must not be negative"))
	}

	nonNegative := map[string]float64{
		"routing.snap_distance_km":            c.Routing.SnapDistanceKm,
		"routing.default_speed_kmh":           c.Routing.DefaultSpeedKmh,
		"routing.network_buffer_km":           c.Routing.NetworkBufferKm,
		"itinerary.avg_speed_kmh":             c.Itinerary.AvgSpeedKmh,
		"itinerary.max_driving_hours_per_day": c.Itinerary.MaxDrivingHoursPerDay,
		"itinerary.poi_padding_deg":           c.Itinerary.POIPaddingDeg,
	}
	for _, key := range sortedKeys(nonNegative) {
		if nonNegative[key] < 0 {
			errs = append(errs, fmt.Errorf("%s must not be negative", key))
		}
	}
	if c.Routing.CacheTTL < 0 {
		errs = append(errs, errors.New("routing.cache_ttl must not be negative"))
	}

	return errors.Join(errs...)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
