package journey

import (
	"context"
	"sort"
	"sync"
)

// InMemoryRepository is an in-memory implementation of Repository.
// Used for local development and tests. Production should use PostgresRepository.
type InMemoryRepository struct {
	mu       sync.RWMutex
	journeys map[string]*Journey
}

// NewInMemoryRepository creates a new in-memory journey repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		journeys: make(map[string]*Journey),
	}
}

// GetByUserAndID retrieves a journey by user ID and journey ID.
func (r *InMemoryRepository) GetByUserAndID(_ context.Context, userID, journeyID string) (*Journey, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	j, ok := r.journeys[journeyID]
	if !ok || j.UserID != userID {
		return nil, ErrJourneyNotFound
	}

	cpy := *j
	return &cpy, nil
}

// List retrieves a user's journeys, newest first.
func (r *InMemoryRepository) List(_ context.Context, userID string, opts ListOptions) (*ListResult, error) {
	r.mu.RLock()
	var journeys []*Journey
	for _, j := range r.journeys {
		if j.UserID == userID {
			cpy := *j
			journeys = append(journeys, &cpy)
		}
	}
	r.mu.RUnlock()

	sort.Slice(journeys, func(a, b int) bool {
		if !journeys[a].CreatedAt.Equal(journeys[b].CreatedAt) {
			return journeys[a].CreatedAt.After(journeys[b].CreatedAt)
		}
		return journeys[a].ID > journeys[b].ID
	})

	if opts.Cursor != "" {
		for i, j := range journeys {
			if j.ID == opts.Cursor {
				journeys = journeys[i+1:]
				break
			}
		}
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}

	result := &ListResult{Items: journeys}
	if len(journeys) > limit {
		result.Items = journeys[:limit]
		result.NextCursor = journeys[limit-1].ID
	}

	return result, nil
}

// Create stores a new journey.
func (r *InMemoryRepository) Create(_ context.Context, j *Journey) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cpy := *j
	r.journeys[j.ID] = &cpy
	return nil
}

// Delete deletes a journey owned by userID.
func (r *InMemoryRepository) Delete(_ context.Context, userID, journeyID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	j, ok := r.journeys[journeyID]
	if !ok || j.UserID != userID {
		return ErrJourneyNotFound
	}
	delete(r.journeys, journeyID)
	return nil
}

// Ensure InMemoryRepository implements Repository interface.
var _ Repository = (*InMemoryRepository)(nil)
