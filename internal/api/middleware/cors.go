package middleware

import (
	"net/http"

	"github.com/rs/cors"
)

// CORS allows browser frontends on the given origins to call the API.
// An origin of "*" allows any origin but disables credentials.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	allowCredentials := true
	for _, o := range allowedOrigins {
		if o == "*" {
			allowCredentials = false
			break
		}
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id", "Location", "Retry-After"},
		AllowCredentials: allowCredentials,
		MaxAge:           600,
	})
	return c.Handler
}
