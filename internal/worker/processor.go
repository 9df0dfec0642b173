package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/roadplanner/roadplanner/internal/graph"
	"github.com/roadplanner/roadplanner/internal/itinerary"
	"github.com/roadplanner/roadplanner/internal/journey"
	"github.com/roadplanner/roadplanner/internal/routing"
	"github.com/roadplanner/roadplanner/pkg/geo"
)

// Job types carried in Message.JobType.
const (
	JobPlanJourney   = "plan_journey"
	JobHealthCheck   = "health_check"
	JobWarmCorridors = "warm_corridors"
)

// ErrPermanent marks job failures that redelivery cannot fix.
var ErrPermanent = errors.New("permanent job failure")

// Message is the JSON payload of a worker job.
type Message struct {
	JobType string `json:"job_type"`

	// plan_journey
	UserID      string          `json:"user_id,omitempty"`
	Name        string          `json:"name,omitempty"`
	Source      *geo.Coordinate `json:"source,omitempty"`
	Destination *geo.Coordinate `json:"destination,omitempty"`
	Metric      string          `json:"metric,omitempty"`

	// warm_corridors; empty means the configured corridors.
	Corridors []string `json:"corridors,omitempty"`
}

// JourneyCreator plans and saves a journey for a user.
type JourneyCreator interface {
	PlanAndCreate(ctx context.Context, userID, name string, req journey.PlanRequest) (*journey.Journey, error)
}

// ProcessorConfig holds configuration for the Processor.
type ProcessorConfig struct {
	Journeys JourneyCreator
	Warm     *WarmJob
	Logger   zerolog.Logger
}

// Processor decodes and runs jobs independently of the transport.
type Processor struct {
	journeys JourneyCreator
	warm     *WarmJob
	logger   zerolog.Logger
}

// NewProcessor creates a new job processor.
func NewProcessor(cfg ProcessorConfig) *Processor {
	return &Processor{
		journeys: cfg.Journeys,
		warm:     cfg.Warm,
		logger:   cfg.Logger,
	}
}

// Process runs the job encoded in data. Errors wrapping ErrPermanent must
// not be retried; any other error is transient.
func (p *Processor) Process(ctx context.Context, data []byte) error {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return fmt.Errorf("%w: decode message: %w", ErrPermanent, err)
	}

	switch msg.JobType {
	case JobPlanJourney:
		return p.planJourney(ctx, msg)
	case JobHealthCheck:
		return p.healthCheck(ctx)
	case JobWarmCorridors:
		return p.warmCorridors(ctx, msg)
	default:
		return fmt.Errorf("%w: unknown job type %q", ErrPermanent, msg.JobType)
	}
}

func (p *Processor) planJourney(ctx context.Context, msg Message) error {
	if p.journeys == nil {
		return fmt.Errorf("%w: journey planning not configured", ErrPermanent)
	}
	if strings.TrimSpace(msg.UserID) == "" {
		return fmt.Errorf("%w: user_id is required", ErrPermanent)
	}
	if msg.Source == nil || msg.Destination == nil {
		return fmt.Errorf("%w: source and destination are required", ErrPermanent)
	}
	metric, err := graph.ParseMetric(msg.Metric)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPermanent, err)
	}

	j, err := p.journeys.PlanAndCreate(ctx, msg.UserID, msg.Name, journey.PlanRequest{
		Source:      *msg.Source,
		Destination: *msg.Destination,
		Metric:      metric,
	})
	if err != nil {
		if isPermanent(err) {
			return fmt.Errorf("%w: %w", ErrPermanent, err)
		}
		return err
	}

	p.logger.Info().
		Str("journey_id", j.ID).
		Str("user_id", msg.UserID).
		Int("days", j.Plan.Days()).
		Msg("journey planned from job")
	return nil
}

// healthCheck warms the first configured corridor to verify provider connectivity.
func (p *Processor) healthCheck(ctx context.Context) error {
	if p.warm == nil {
		return nil
	}

	corridors := p.warm.config.Corridors
	if len(corridors) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	result := p.warm.RunCorridors(ctx, corridors[:1])
	if result.Failed > 0 {
		return fmt.Errorf("health check failed: %s", result.Errors[0].Error)
	}

	p.logger.Debug().Str("corridor", corridors[0].Name).Msg("health check passed")
	return nil
}

func (p *Processor) warmCorridors(ctx context.Context, msg Message) error {
	if p.warm == nil {
		return fmt.Errorf("%w: warm-up not configured", ErrPermanent)
	}

	corridors := p.warm.config.Corridors
	if len(msg.Corridors) > 0 {
		byName := make(map[string]Corridor, len(corridors))
		for _, c := range corridors {
			byName[c.Name] = c
		}
		selected := make([]Corridor, 0, len(msg.Corridors))
		for _, name := range msg.Corridors {
			c, ok := byName[name]
			if !ok {
				return fmt.Errorf("%w: unknown corridor %q", ErrPermanent, name)
			}
			selected = append(selected, c)
		}
		corridors = selected
	}

	result := p.warm.RunCorridors(ctx, corridors)

	// Partial warm-ups are fine; only a run with more failures than successes is retried.
	if result.Failed > result.Successful {
		return fmt.Errorf("too many warm-up failures: %d/%d", result.Failed, result.Total)
	}
	return nil
}

// isPermanent reports whether a planning error is caused by the job input.
func isPermanent(err error) bool {
	var validationErr *journey.ValidationError
	if errors.As(err, &validationErr) {
		return true
	}

	var routeErr *routing.Error
	if errors.As(err, &routeErr) && routeErr.IsRetryable() {
		return false
	}

	return errors.Is(err, routing.ErrInvalidCoordinates) ||
		errors.Is(err, routing.ErrEndpointUnresolved) ||
		errors.Is(err, routing.ErrEndpointDisconnected) ||
		errors.Is(err, routing.ErrNoPathFound) ||
		errors.Is(err, routing.ErrInsufficientNetworkData) ||
		errors.Is(err, itinerary.ErrDegenerateInput)
}
