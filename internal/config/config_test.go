package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lookup(env map[string]string) func(string) string {
	return func(k string) string { return env[k] }
}

func TestFromLookup_Defaults(t *testing.T) {
	cfg, err := FromLookup(lookup(nil))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, StorageMemory, cfg.Storage)
	assert.False(t, cfg.Telemetry.Enabled)
	assert.InDelta(t, 1.0, cfg.Telemetry.SampleRatio, 1e-9)
	assert.False(t, cfg.RequireTLS)
	assert.Equal(t, 30*time.Minute, cfg.PubSub.WarmInterval)
	assert.Equal(t, 30*time.Second, cfg.Overpass.Timeout)
	assert.Empty(t, cfg.Overpass.BaseURL)
	assert.Equal(t, DevSigningKey, cfg.JWT.SigningKey)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, "roadplanner", cfg.Database.Database)
	assert.False(t, cfg.IsProduction())
	assert.NoError(t, cfg.Validate())
}

func TestFromLookup_Overrides(t *testing.T) {
	cfg, err := FromLookup(lookup(map[string]string{
		"APP_PORT":             "9090",
		"STORAGE":              "Postgres",
		"OTEL_ENABLED":         "true",
		"OVERPASS_BASE_URL":    "https://overpass.example.org/api/interpreter",
		"OVERPASS_TIMEOUT":     "45s",
		"CORS_ALLOWED_ORIGINS": "https://a.example, https://b.example ,",
		"DB_HOST":              "db",
		"PUBSUB_PROJECT_ID":    "trips-prod",
		"REQUIRE_TLS":          "1",
		"WORKER_WARM_INTERVAL": "0s",
	}))
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, StoragePostgres, cfg.Storage)
	assert.True(t, cfg.Telemetry.Enabled)
	assert.Equal(t, 45*time.Second, cfg.Overpass.Timeout)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, "db", cfg.Database.Host)
	assert.Equal(t, "trips-prod", cfg.PubSub.ProjectID)
	assert.True(t, cfg.RequireTLS)
	assert.Zero(t, cfg.PubSub.WarmInterval)
}

func TestFromLookup_InvalidValues(t *testing.T) {
	_, err := FromLookup(lookup(map[string]string{"OVERPASS_TIMEOUT": "soon"}))
	assert.ErrorContains(t, err, "OVERPASS_TIMEOUT")

	_, err = FromLookup(lookup(map[string]string{"OTEL_ENABLED": "maybe"}))
	assert.ErrorContains(t, err, "OTEL_ENABLED")

	_, err = FromLookup(lookup(map[string]string{"REQUIRE_TLS": "sometimes"}))
	assert.ErrorContains(t, err, "REQUIRE_TLS")

	_, err = FromLookup(lookup(map[string]string{"OTEL_SAMPLE_RATIO": "half"}))
	assert.ErrorContains(t, err, "OTEL_SAMPLE_RATIO")

	_, err = FromLookup(lookup(map[string]string{"WORKER_WARM_INTERVAL": "hourly"}))
	assert.ErrorContains(t, err, "WORKER_WARM_INTERVAL")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "bad port", env: map[string]string{"APP_PORT": "http"}, wantErr: "APP_PORT"},
		{name: "bad storage", env: map[string]string{"STORAGE": "sqlite"}, wantErr: "STORAGE"},
		{name: "production without key", env: map[string]string{"APP_ENV": "production"}, wantErr: "JWT_SIGNING_KEY"},
		{
			name:    "negative tunable",
			mutate:  func(c *Config) { c.Itinerary.AvgSpeedKmh = -1 },
			wantErr: "itinerary.avg_speed_kmh",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := FromLookup(lookup(tt.env))
			require.NoError(t, err)
			if tt.mutate != nil {
				tt.mutate(cfg)
			}
			assert.ErrorContains(t, cfg.Validate(), tt.wantErr)
		})
	}
}

func TestApplyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roadplanner.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
routing:
  snap_distance_km: 3.5
  default_speed_kmh: 70
  cache_ttl: 15m
itinerary:
  avg_speed_kmh: 80
  max_driving_hours_per_day: 8
  poi_padding_deg: 0.1
`), 0o600))

	cfg, err := FromLookup(lookup(nil))
	require.NoError(t, err)
	require.NoError(t, cfg.ApplyFile(path))

	assert.InDelta(t, 3.5, cfg.Routing.SnapDistanceKm, 1e-9)
	assert.InDelta(t, 70.0, cfg.Routing.DefaultSpeedKmh, 1e-9)
	assert.Zero(t, cfg.Routing.NetworkBufferKm)
	assert.Equal(t, 15*time.Minute, cfg.Routing.CacheTTL)
	assert.InDelta(t, 80.0, cfg.Itinerary.AvgSpeedKmh, 1e-9)
	assert.InDelta(t, 8.0, cfg.Itinerary.MaxDrivingHoursPerDay, 1e-9)
	assert.InDelta(t, 0.1, cfg.Itinerary.POIPaddingDeg, 1e-9)
}

func TestApplyFile_Errors(t *testing.T) {
	cfg, err := FromLookup(lookup(nil))
	require.NoError(t, err)

	assert.Error(t, cfg.ApplyFile(filepath.Join(t.TempDir(), "missing.yaml")))

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("routing: [unclosed"), 0o600))
	assert.ErrorContains(t, cfg.ApplyFile(path), "parse config file")
}

func TestLoad_EnvFile(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, "test.env")
	yamlFile := filepath.Join(dir, "tunables.yaml")
	require.NoError(t, os.WriteFile(yamlFile, []byte("itinerary:\n  avg_speed_kmh: 90\n"), 0o600))
	require.NoError(t, os.WriteFile(envFile, []byte(
		"ROADPLANNER_TEST_ONLY=1\nOVERPASS_TIMEOUT=12s\nROADPLANNER_CONFIG="+yamlFile+"\n"), 0o600))

	t.Setenv("APP_PORT", "7070")

	cfg, err := Load(envFile)
	require.NoError(t, err)

	assert.Equal(t, "7070", cfg.Port, "process environment wins")
	assert.Equal(t, 12*time.Second, cfg.Overpass.Timeout)
	assert.InDelta(t, 90.0, cfg.Itinerary.AvgSpeedKmh, 1e-9)
	_, set := os.LookupEnv("ROADPLANNER_TEST_ONLY")
	assert.False(t, set, "env file values do not leak into the process environment")
}

func TestLoad_MissingExplicitEnvFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.env"))
	assert.ErrorContains(t, err, "read env file")
}
