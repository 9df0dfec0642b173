package journey

import "context"

// ListOptions contains options for listing journeys.
type ListOptions struct {
	Limit int
	// Cursor is the ID of the last journey of the previous page.
	Cursor string
}

// ListResult contains the results of listing journeys.
type ListResult struct {
	Items      []*Journey
	NextCursor string
}

// Repository defines the interface for journey persistence.
type Repository interface {
	// GetByUserAndID retrieves a journey by user ID and journey ID.
	// Returns ErrJourneyNotFound if the journey doesn't exist or doesn't belong to the user.
	GetByUserAndID(ctx context.Context, userID, journeyID string) (*Journey, error)

	// List retrieves a user's journeys, newest first.
	List(ctx context.Context, userID string, opts ListOptions) (*ListResult, error)

	// Create stores a new journey.
	Create(ctx context.Context, j *Journey) error

	// Delete deletes a journey by user ID and journey ID.
	// Returns ErrJourneyNotFound if nothing was deleted.
	Delete(ctx context.Context, userID, journeyID string) error
}

// DefaultListLimit applies when ListOptions.Limit is not positive.
const DefaultListLimit = 50
