package middleware

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

// Logger returns a middleware that logs one line per request and stores a
// request-scoped logger in the context for zerolog.Ctx. Fields added to that
// logger downstream (Auth adds user_id) appear on the request line.
//
// 5xx responses log at error level, 4xx at warn, the rest at info.
// Paths in quiet are logged at debug level.
func Logger(log zerolog.Logger, quiet ...string) func(http.Handler) http.Handler {
	quietPaths := make(map[string]bool, len(quiet))
	for _, p := range quiet {
		quietPaths[p] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := newStatusRecorder(w)

			requestID := GetRequestID(r.Context())
			fields := log.With().Str("request_id", requestID)
			spanCtx := trace.SpanContextFromContext(r.Context())
			if spanCtx.IsValid() {
				fields = fields.
					Str("trace_id", spanCtx.TraceID().String()).
					Str("span_id", spanCtx.SpanID().String())
			}
			ctx := fields.Logger().WithContext(r.Context())
			reqLog := zerolog.Ctx(ctx)

			next.ServeHTTP(rec, r.WithContext(ctx))

			var event *zerolog.Event
			switch {
			case rec.status >= 500:
				event = reqLog.Error()
			case rec.status >= 400:
				event = reqLog.Warn()
			case quietPaths[r.URL.Path]:
				event = reqLog.Debug()
			default:
				event = reqLog.Info()
			}

			event.
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Str("route", routePattern(r)).
				Int("status", rec.status).
				Int64("bytes", rec.written).
				Dur("duration", time.Since(start)).
				Str("remote_addr", r.RemoteAddr).
				Str("user_agent", r.UserAgent()).
				Msg("request completed")
		})
	}
}
