// Package handler provides HTTP handlers for the RoadPlanner API.
package handler

import (
	"context"
	"net/http"

	"github.com/roadplanner/roadplanner/internal/api/middleware"
	"github.com/roadplanner/roadplanner/internal/api/response"
)

// GetUserID retrieves the authenticated user ID from the context.
func GetUserID(ctx context.Context) string {
	return middleware.GetUserID(ctx)
}

// requireUser returns the authenticated user ID, writing a 401 when absent.
func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := GetUserID(r.Context())
	if userID == "" {
		response.Unauthorized(w, r, "user not authenticated")
		return "", false
	}
	return userID, true
}
