package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/roadplanner/roadplanner/internal/telemetry"

// ProviderMetrics records calls to upstream map data providers.
// A nil *ProviderMetrics is valid and records nothing.
type ProviderMetrics struct {
	requestDuration metric.Float64Histogram
	requestTotal    metric.Int64Counter
	cacheHits       metric.Int64Counter
	cacheMisses     metric.Int64Counter
	staleServed     metric.Int64Counter
}

// NewProviderMetrics creates provider instruments on the global meter.
func NewProviderMetrics() (*ProviderMetrics, error) {
	meter := otel.Meter(meterName)

	requestDuration, err := meter.Float64Histogram(
		"provider.request.duration",
		metric.WithDescription("Duration of provider requests in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	requestTotal, err := meter.Int64Counter(
		"provider.request.total",
		metric.WithDescription("Total number of provider requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	cacheHits, err := meter.Int64Counter(
		"provider.cache.hit",
		metric.WithDescription("Number of provider cache hits"),
		metric.WithUnit("{hit}"),
	)
	if err != nil {
		return nil, err
	}

	cacheMisses, err := meter.Int64Counter(
		"provider.cache.miss",
		metric.WithDescription("Number of provider cache misses"),
		metric.WithUnit("{miss}"),
	)
	if err != nil {
		return nil, err
	}

	staleServed, err := meter.Int64Counter(
		"provider.cache.stale_served",
		metric.WithDescription("Number of stale cache entries served after a provider error"),
		metric.WithUnit("{response}"),
	)
	if err != nil {
		return nil, err
	}

	return &ProviderMetrics{
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
		staleServed:     staleServed,
	}, nil
}

// RecordRequest records one provider round trip.
func (m *ProviderMetrics) RecordRequest(provider, operation string, duration time.Duration, err error) {
	if m == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("provider.name", provider),
		attribute.String("provider.operation", operation),
	}
	if err != nil {
		attrs = append(attrs, attribute.Bool("error", true))
	}

	// Metrics outlive the request, so they use a detached context.
	ctx := context.Background()
	m.requestDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
	m.requestTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordCacheResult records how a cached lookup was satisfied: "cache", "provider" or "stale".
func (m *ProviderMetrics) RecordCacheResult(provider, operation, source string) {
	if m == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String("provider.name", provider),
		attribute.String("provider.operation", operation),
	)

	ctx := context.Background()
	switch source {
	case "cache":
		m.cacheHits.Add(ctx, 1, attrs)
	case "stale":
		m.staleServed.Add(ctx, 1, attrs)
	default:
		m.cacheMisses.Add(ctx, 1, attrs)
	}
}
