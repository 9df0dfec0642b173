package journey

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/roadplanner/roadplanner/pkg/geo"
)

// Validation constants.
const (
	MaxNameLength = 80
	MaxListLimit  = 100
)

// CreateInput is the input of Service.Create.
type CreateInput struct {
	Name        string
	Source      geo.Coordinate
	Destination geo.Coordinate
	Plan        *Plan
}

// FieldError describes a validation failure on one input field.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError represents validation errors.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "validation failed"
	}
	parts := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		parts = append(parts, fe.Field+" "+fe.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Service manages saved journeys.
type Service struct {
	repo    Repository
	planner *Planner
	logger  zerolog.Logger
	now     func() time.Time
}

// NewService creates a new journey service.
// planner may be nil when only stored plans are handled.
func NewService(repo Repository, planner *Planner, logger zerolog.Logger) *Service {
	return &Service{
		repo:    repo,
		planner: planner,
		logger:  logger,
		now:     time.Now,
	}
}

// List retrieves a user's saved journeys, newest first.
func (s *Service) List(ctx context.Context, userID string, opts ListOptions) (*ListResult, error) {
	if opts.Limit > MaxListLimit {
		opts.Limit = MaxListLimit
	}
	return s.repo.List(ctx, userID, opts)
}

// Get retrieves a saved journey for a user.
func (s *Service) Get(ctx context.Context, userID, journeyID string) (*Journey, error) {
	return s.repo.GetByUserAndID(ctx, userID, journeyID)
}

// Create saves a journey plan for a user.
func (s *Service) Create(ctx context.Context, userID string, input CreateInput) (*Journey, error) {
	if fieldErrors := validateCreateInput(input); len(fieldErrors) > 0 {
		return nil, &ValidationError{Errors: fieldErrors}
	}

	now := s.now().UTC()
	j := &Journey{
		ID:          NewID(),
		UserID:      userID,
		Name:        strings.TrimSpace(input.Name),
		Source:      input.Source,
		Destination: input.Destination,
		Plan:        *input.Plan,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, j); err != nil {
		return nil, fmt.Errorf("create journey: %w", err)
	}

	s.logger.Info().
		Str("journey_id", j.ID).
		Int("days", j.Plan.Days()).
		Msg("journey saved")

	return j, nil
}

// PlanAndCreate plans a journey and saves the result for a user.
func (s *Service) PlanAndCreate(ctx context.Context, userID, name string, req PlanRequest) (*Journey, error) {
	if s.planner == nil {
		return nil, errors.New("journey planner not configured")
	}

	input := CreateInput{
		Name:        name,
		Source:      req.Source,
		Destination: req.Destination,
	}
	// The plan is generated below, so only the caller's fields are checked here.
	if fieldErrors := withoutPlanErrors(validateCreateInput(input)); len(fieldErrors) > 0 {
		return nil, &ValidationError{Errors: fieldErrors}
	}

	plan, err := s.planner.Plan(ctx, req)
	if err != nil {
		return nil, err
	}
	input.Plan = plan

	return s.Create(ctx, userID, input)
}

// Delete deletes a saved journey for a user.
func (s *Service) Delete(ctx context.Context, userID, journeyID string) error {
	return s.repo.Delete(ctx, userID, journeyID)
}

// NewID returns a new journey identifier.
func NewID() string {
	return "jny_" + strings.ReplaceAll(uuid.New().String(), "-", "")[:22]
}

func validateCreateInput(input CreateInput) []FieldError {
	var errs []FieldError

	name := strings.TrimSpace(input.Name)
	if name == "" {
		errs = append(errs, FieldError{Field: "name", Message: "is required"})
	} else if len(name) > MaxNameLength {
		errs = append(errs, FieldError{Field: "name", Message: "must be at most 80 characters"})
	}

	errs = append(errs, validatePoint(input.Source, "source")...)
	errs = append(errs, validatePoint(input.Destination, "destination")...)

	if input.Plan == nil {
		errs = append(errs, FieldError{Field: "plan", Message: "is required"})
	} else if len(input.Plan.DailyPlan) == 0 {
		errs = append(errs, FieldError{Field: "plan.dailyPlan", Message: "must contain at least one day"})
	}

	return errs
}

func withoutPlanErrors(errs []FieldError) []FieldError {
	var out []FieldError
	for _, e := range errs {
		if e.Field != "plan" && !strings.HasPrefix(e.Field, "plan.") {
			out = append(out, e)
		}
	}
	return out
}

func validatePoint(p geo.Coordinate, prefix string) []FieldError {
	if p.Validate() == nil {
		return nil
	}

	var errs []FieldError
	if (geo.Coordinate{Lat: p.Lat}).Validate() != nil {
		errs = append(errs, FieldError{Field: prefix + ".lat", Message: "must be a finite number between -90 and 90"})
	}
	if (geo.Coordinate{Lon: p.Lon}).Validate() != nil {
		errs = append(errs, FieldError{Field: prefix + ".lon", Message: "must be a finite number between -180 and 180"})
	}
	return errs
}
