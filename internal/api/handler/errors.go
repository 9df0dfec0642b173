package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/roadplanner/roadplanner/internal/api/response"
	"github.com/roadplanner/roadplanner/internal/graph"
	"github.com/roadplanner/roadplanner/internal/itinerary"
	"github.com/roadplanner/roadplanner/internal/journey"
	"github.com/roadplanner/roadplanner/internal/poi"
	"github.com/roadplanner/roadplanner/internal/provider/resilience"
	"github.com/roadplanner/roadplanner/internal/routing"
	"github.com/roadplanner/roadplanner/pkg/geo"
)

// providerRetryAfter is the Retry-After hint when Overpass rate limits us.
const providerRetryAfter = 60

// writeError maps a domain error to a problem response.
func writeError(w http.ResponseWriter, r *http.Request, log zerolog.Logger, err error) {
	var validationErr *journey.ValidationError
	var routeErr *routing.Error

	switch {
	case errors.As(err, &validationErr):
		response.BadRequest(w, r, "validation failed", fromJourneyFieldErrors(validationErr.Errors))

	case errors.Is(err, routing.ErrInvalidCoordinates), errors.Is(err, geo.ErrInvalidCoordinate),
		errors.Is(err, graph.ErrUnknownMetric), errors.Is(err, poi.ErrUnknownCategory):
		response.BadRequest(w, r, err.Error(), nil)

	case errors.Is(err, journey.ErrJourneyNotFound):
		response.NotFound(w, r, "journey not found")

	case errors.Is(err, routing.ErrInsufficientNetworkData), errors.Is(err, routing.ErrEndpointUnresolved),
		errors.Is(err, routing.ErrEndpointDisconnected), errors.Is(err, routing.ErrNoPathFound):
		detail := err.Error()
		if errors.As(err, &routeErr) {
			detail = routeErr.Message
		}
		response.RouteNotFound(w, r, detail)

	case errors.Is(err, itinerary.ErrDegenerateInput):
		response.Unprocessable(w, r, "route is too short to plan a journey: source and destination resolve to the same road node")

	case errors.Is(err, routing.ErrRateLimitExceeded):
		response.TooManyRequests(w, r, "map data provider is rate limiting requests", providerRetryAfter)

	case errors.Is(err, routing.ErrProviderUnavailable), errors.Is(err, poi.ErrProviderUnavailable),
		errors.Is(err, resilience.ErrCircuitOpen):
		log.Warn().Err(err).Str("path", r.URL.Path).Msg("provider unavailable")
		response.ServiceUnavailable(w, r, "map data provider is unavailable, please retry later")

	case errors.Is(err, context.DeadlineExceeded):
		log.Warn().Err(err).Str("path", r.URL.Path).Msg("request timed out")
		response.ServiceUnavailable(w, r, "request timed out")

	case errors.Is(err, context.Canceled):
		// Client went away; nobody reads the response.
		log.Debug().Str("path", r.URL.Path).Msg("request canceled")

	default:
		log.Error().Err(err).Str("path", r.URL.Path).Msg("unhandled error")
		response.InternalError(w, r, "internal server error")
	}
}
