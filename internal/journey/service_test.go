package journey

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roadplanner/roadplanner/internal/itinerary"
	"github.com/roadplanner/roadplanner/internal/routing"
	"github.com/roadplanner/roadplanner/pkg/geo"
)

func samplePlan() *Plan {
	return &Plan{
		Route: RouteSummary{
			Path:       []geo.Coordinate{{Lat: 12.97, Lon: 77.59}, {Lat: 13.08, Lon: 80.27}},
			DistanceKm: 290.12,
		},
		DailyPlan: []itinerary.DayLeg{{
			Day:        1,
			EndIndex:   1,
			StartPoint: geo.Coordinate{Lat: 12.97, Lon: 77.59},
			EndPoint:   geo.Coordinate{Lat: 13.08, Lon: 80.27},
			DistanceKm: 290.12,
		}},
	}
}

func validInput() CreateInput {
	return CreateInput{
		Name:        "Bengaluru to Chennai",
		Source:      geo.Coordinate{Lat: 12.97, Lon: 77.59},
		Destination: geo.Coordinate{Lat: 13.08, Lon: 80.27},
		Plan:        samplePlan(),
	}
}

// steppingClock advances one minute per call.
func steppingClock() func() time.Time {
	t := time.Date(2026, 10, 1, 8, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Minute)
		return t
	}
}

func newTestService(planner *Planner) *Service {
	svc := NewService(NewInMemoryRepository(), planner, zerolog.Nop())
	svc.now = steppingClock()
	return svc
}

func TestService_Create(t *testing.T) {
	svc := newTestService(nil)

	j, err := svc.Create(context.Background(), "usr_1", validInput())
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(j.ID, "jny_"), "got %q", j.ID)
	assert.Len(t, j.ID, 26)
	assert.Equal(t, "usr_1", j.UserID)
	assert.Equal(t, "Bengaluru to Chennai", j.Name)
	assert.Equal(t, 1, j.Plan.Days())
	assert.Equal(t, j.CreatedAt, j.UpdatedAt)

	got, err := svc.Get(context.Background(), "usr_1", j.ID)
	require.NoError(t, err)
	assert.Equal(t, j.Name, got.Name)
	assert.InDelta(t, 290.12, got.Plan.Route.DistanceKm, 1e-9)
}

func TestService_Create_ValidationErrors(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*CreateInput)
		wantField string
	}{
		{name: "empty name", mutate: func(in *CreateInput) { in.Name = "  " }, wantField: "name"},
		{name: "name too long", mutate: func(in *CreateInput) { in.Name = strings.Repeat("a", 81) }, wantField: "name"},
		{name: "invalid source latitude", mutate: func(in *CreateInput) { in.Source.Lat = 91 }, wantField: "source.lat"},
		{name: "invalid destination longitude", mutate: func(in *CreateInput) { in.Destination.Lon = -181 }, wantField: "destination.lon"},
		{name: "non-finite source latitude", mutate: func(in *CreateInput) { in.Source.Lat = math.NaN() }, wantField: "source.lat"},
		{name: "infinite destination longitude", mutate: func(in *CreateInput) { in.Destination.Lon = math.Inf(1) }, wantField: "destination.lon"},
		{name: "missing plan", mutate: func(in *CreateInput) { in.Plan = nil }, wantField: "plan"},
		{name: "plan without days", mutate: func(in *CreateInput) { in.Plan.DailyPlan = nil }, wantField: "plan.dailyPlan"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(nil)
			input := validInput()
			tt.mutate(&input)

			_, err := svc.Create(context.Background(), "usr_1", input)

			var validationErr *ValidationError
			require.True(t, errors.As(err, &validationErr), "expected ValidationError, got %v", err)
			require.NotEmpty(t, validationErr.Errors)
			assert.Equal(t, tt.wantField, validationErr.Errors[0].Field)
		})
	}
}

func TestService_Get_OtherUser(t *testing.T) {
	svc := newTestService(nil)
	j, err := svc.Create(context.Background(), "usr_1", validInput())
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), "usr_2", j.ID)
	assert.ErrorIs(t, err, ErrJourneyNotFound)
}

func TestService_List_Paging(t *testing.T) {
	svc := newTestService(nil)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 5; i++ {
		j, err := svc.Create(ctx, "usr_1", validInput())
		require.NoError(t, err)
		ids = append(ids, j.ID)
	}
	_, err := svc.Create(ctx, "usr_2", validInput())
	require.NoError(t, err)

	first, err := svc.List(ctx, "usr_1", ListOptions{Limit: 2})
	require.NoError(t, err)
	require.Len(t, first.Items, 2)
	assert.Equal(t, ids[4], first.Items[0].ID, "newest first")
	assert.Equal(t, ids[3], first.Items[1].ID)
	assert.Equal(t, ids[3], first.NextCursor)

	second, err := svc.List(ctx, "usr_1", ListOptions{Limit: 2, Cursor: first.NextCursor})
	require.NoError(t, err)
	require.Len(t, second.Items, 2)
	assert.Equal(t, ids[2], second.Items[0].ID)

	last, err := svc.List(ctx, "usr_1", ListOptions{Limit: 2, Cursor: second.NextCursor})
	require.NoError(t, err)
	require.Len(t, last.Items, 1)
	assert.Equal(t, ids[0], last.Items[0].ID)
	assert.Empty(t, last.NextCursor)
}

func TestService_Delete(t *testing.T) {
	svc := newTestService(nil)
	ctx := context.Background()
	j, err := svc.Create(ctx, "usr_1", validInput())
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Delete(ctx, "usr_2", j.ID), ErrJourneyNotFound)
	require.NoError(t, svc.Delete(ctx, "usr_1", j.ID))
	assert.ErrorIs(t, svc.Delete(ctx, "usr_1", j.ID), ErrJourneyNotFound)

	_, err = svc.Get(ctx, "usr_1", j.ID)
	assert.ErrorIs(t, err, ErrJourneyNotFound)
}

func TestService_PlanAndCreate(t *testing.T) {
	routes := &fakeRoutes{route: straightRoute(20, 100)}
	svc := newTestService(newTestPlanner(routes, testPOIs()))

	j, err := svc.PlanAndCreate(context.Background(), "usr_1", "Weekend drive", PlanRequest{
		Source:      geo.Coordinate{Lat: 0, Lon: 0},
		Destination: geo.Coordinate{Lat: 0, Lon: 0.95},
	})
	require.NoError(t, err)

	assert.Equal(t, "Weekend drive", j.Name)
	assert.Equal(t, 1, j.Plan.Days())
	assert.Equal(t, int32(1), routes.calls.Load())
}

func TestService_PlanAndCreate_ValidatesBeforePlanning(t *testing.T) {
	routes := &fakeRoutes{route: straightRoute(20, 100)}
	svc := newTestService(newTestPlanner(routes, testPOIs()))

	_, err := svc.PlanAndCreate(context.Background(), "usr_1", "", PlanRequest{})

	var validationErr *ValidationError
	require.True(t, errors.As(err, &validationErr))
	require.Len(t, validationErr.Errors, 1, "the plan is generated, so it is never reported missing")
	assert.Equal(t, "name", validationErr.Errors[0].Field)
	assert.Zero(t, routes.calls.Load())
}

func TestService_PlanAndCreate_ReportsOnlyCallerFields(t *testing.T) {
	routes := &fakeRoutes{route: straightRoute(20, 100)}
	svc := newTestService(newTestPlanner(routes, testPOIs()))

	_, err := svc.PlanAndCreate(context.Background(), "usr_1", "  ", PlanRequest{
		Source:      geo.Coordinate{Lat: math.NaN(), Lon: 0},
		Destination: geo.Coordinate{Lat: 0, Lon: 1},
	})

	var validationErr *ValidationError
	require.True(t, errors.As(err, &validationErr))
	fields := make([]string, 0, len(validationErr.Errors))
	for _, fe := range validationErr.Errors {
		fields = append(fields, fe.Field)
	}
	assert.Equal(t, []string{"name", "source.lat"}, fields)
	assert.Zero(t, routes.calls.Load())
}

func TestService_PlanAndCreate_PlanningError(t *testing.T) {
	routes := &fakeRoutes{err: &routing.Error{Code: "NO_PATH_FOUND", Err: routing.ErrNoPathFound}}
	svc := newTestService(newTestPlanner(routes, testPOIs()))

	_, err := svc.PlanAndCreate(context.Background(), "usr_1", "Trip", PlanRequest{})
	assert.ErrorIs(t, err, routing.ErrNoPathFound)
}

func TestService_PlanAndCreate_NoPlanner(t *testing.T) {
	svc := newTestService(nil)

	_, err := svc.PlanAndCreate(context.Background(), "usr_1", "Trip", PlanRequest{})
	assert.Error(t, err)
}

func TestValidationError_Message(t *testing.T) {
	err := &ValidationError{Errors: []FieldError{{Field: "name", Message: "is required"}}}
	assert.Equal(t, "validation failed: name is required", err.Error())
}
