package worker

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/roadplanner/roadplanner/internal/graph"
	"github.com/roadplanner/roadplanner/internal/journey"
	"github.com/roadplanner/roadplanner/internal/poi"
	"github.com/roadplanner/roadplanner/internal/routing"
)

// WarmJob pre-fetches road networks and POIs for configured corridors so
// that interactive planning requests are served from the provider caches.
type WarmJob struct {
	config WarmConfig
	routes journey.RouteComputer
	pois   journey.POISearcher
	logger zerolog.Logger

	metrics *WarmMetrics
}

// WarmMetrics tracks warm-up statistics across runs.
type WarmMetrics struct {
	mu sync.RWMutex

	Runs             int64
	CorridorsWarmed  int64
	CorridorsFailed  int64
	LastRunAt        time.Time
	LastRunDuration  time.Duration
	TotalRunDuration time.Duration
}

// WarmJobConfig holds configuration for creating a WarmJob.
type WarmJobConfig struct {
	Config WarmConfig
	Routes journey.RouteComputer
	// POIs is optional; corridors are only routed when nil.
	POIs   journey.POISearcher
	Logger zerolog.Logger
}

// NewWarmJob creates a new warm-up job.
func NewWarmJob(cfg WarmJobConfig) *WarmJob {
	return &WarmJob{
		config:  cfg.Config.withDefaults(),
		routes:  cfg.Routes,
		pois:    cfg.POIs,
		logger:  cfg.Logger,
		metrics: &WarmMetrics{},
	}
}

// WarmResult contains the result of a warm-up run.
type WarmResult struct {
	StartTime  time.Time
	EndTime    time.Time
	Duration   time.Duration
	Total      int
	Successful int
	Failed     int
	Errors     []WarmError
}

// WarmError records a corridor that could not be warmed.
type WarmError struct {
	Corridor string
	Stage    string
	Error    string
}

type corridorResult struct {
	errors []WarmError
}

// Run warms every configured corridor.
func (j *WarmJob) Run(ctx context.Context) *WarmResult {
	return j.run(ctx, j.config.Corridors)
}

// RunCorridors warms the given corridors instead of the configured ones.
func (j *WarmJob) RunCorridors(ctx context.Context, corridors []Corridor) *WarmResult {
	return j.run(ctx, corridors)
}

func (j *WarmJob) run(ctx context.Context, corridors []Corridor) *WarmResult {
	startTime := time.Now()
	result := &WarmResult{
		StartTime: startTime,
		Total:     len(corridors),
	}

	j.logger.Info().
		Int("corridors", result.Total).
		Int("concurrency", j.config.Concurrency).
		Msg("starting cache warm-up")

	work := make(chan Corridor, len(corridors))
	results := make(chan corridorResult, len(corridors))

	var wg sync.WaitGroup
	for i := 0; i < j.config.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for c := range work {
				if ctx.Err() != nil {
					results <- corridorResult{errors: []WarmError{{Corridor: c.Name, Stage: "canceled", Error: ctx.Err().Error()}}}
					continue
				}
				results <- j.warmCorridor(ctx, c)
			}
		}()
	}

	for _, c := range corridors {
		work <- c
	}
	close(work)

	go func() {
		wg.Wait()
		close(results)
	}()

	for cr := range results {
		if len(cr.errors) == 0 {
			result.Successful++
		} else {
			result.Failed++
			result.Errors = append(result.Errors, cr.errors...)
		}
	}

	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(startTime)
	j.updateMetrics(result)

	j.logger.Info().
		Dur("duration", result.Duration).
		Int("successful", result.Successful).
		Int("failed", result.Failed).
		Msg("cache warm-up completed")

	return result
}

func (j *WarmJob) warmCorridor(ctx context.Context, c Corridor) corridorResult {
	ctx, cancel := context.WithTimeout(ctx, j.config.Timeout)
	defer cancel()

	var res corridorResult

	_, err := j.routes.ComputeRoute(ctx, routing.RouteRequest{
		Source:      c.Source,
		Destination: c.Destination,
		Metric:      graph.MetricTime,
	})
	if err != nil {
		res.errors = append(res.errors, WarmError{Corridor: c.Name, Stage: "route", Error: err.Error()})
	}

	if j.config.WarmPOIs && j.pois != nil {
		if _, err := j.pois.Search(ctx, c.Source, c.Destination, poi.Categories()); err != nil {
			res.errors = append(res.errors, WarmError{Corridor: c.Name, Stage: "pois", Error: err.Error()})
		}
	}

	if len(res.errors) > 0 {
		j.logger.Warn().
			Str("corridor", c.Name).
			Int("errors", len(res.errors)).
			Msg("corridor warm-up failed")
	}
	return res
}

func (j *WarmJob) updateMetrics(result *WarmResult) {
	j.metrics.mu.Lock()
	defer j.metrics.mu.Unlock()

	j.metrics.Runs++
	j.metrics.CorridorsWarmed += int64(result.Successful)
	j.metrics.CorridorsFailed += int64(result.Failed)
	j.metrics.LastRunAt = result.EndTime
	j.metrics.LastRunDuration = result.Duration
	j.metrics.TotalRunDuration += result.Duration
}

// Metrics returns a copy of the current metrics.
func (j *WarmJob) Metrics() WarmMetrics {
	j.metrics.mu.RLock()
	defer j.metrics.mu.RUnlock()

	return WarmMetrics{
		Runs:             j.metrics.Runs,
		CorridorsWarmed:  j.metrics.CorridorsWarmed,
		CorridorsFailed:  j.metrics.CorridorsFailed,
		LastRunAt:        j.metrics.LastRunAt,
		LastRunDuration:  j.metrics.LastRunDuration,
		TotalRunDuration: j.metrics.TotalRunDuration,
	}
}

// MetricsSnapshot returns the current metrics as a map for status output.
func (j *WarmJob) MetricsSnapshot() map[string]any {
	m := j.Metrics()
	return map[string]any{
		"runs":              m.Runs,
		"corridors_warmed":  m.CorridorsWarmed,
		"corridors_failed":  m.CorridorsFailed,
		"last_run_at":       m.LastRunAt,
		"last_run_duration": m.LastRunDuration.String(),
		"total_duration":    m.TotalRunDuration.String(),
	}
}

// Schedule runs the warm-up immediately and then every interval until ctx
// is canceled.
func (j *WarmJob) Schedule(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	j.Run(ctx)
	for {
		select {
		case <-ctx.Done():
			j.logger.Info().Msg("warm-up schedule stopped")
			return
		case <-ticker.C:
			j.Run(ctx)
		}
	}
}
