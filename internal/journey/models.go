package journey

import (
	"errors"
	"time"

	"github.com/roadplanner/roadplanner/pkg/geo"
)

// Repository errors.
var (
	ErrJourneyNotFound = errors.New("journey not found")
)

// Journey is a saved journey plan owned by a user.
type Journey struct {
	ID          string
	UserID      string
	Name        string
	Source      geo.Coordinate
	Destination geo.Coordinate
	Plan        Plan
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
