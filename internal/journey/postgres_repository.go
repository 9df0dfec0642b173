package journey

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema creates the journeys table.
const Schema = `
CREATE TABLE IF NOT EXISTS journeys (
	id              TEXT PRIMARY KEY,
	user_id         TEXT NOT NULL,
	name            TEXT NOT NULL,
	source_lat      DOUBLE PRECISION NOT NULL,
	source_lon      DOUBLE PRECISION NOT NULL,
	destination_lat DOUBLE PRECISION NOT NULL,
	destination_lon DOUBLE PRECISION NOT NULL,
	plan            JSONB NOT NULL,
	created_at      TIMESTAMPTZ NOT NULL,
	updated_at      TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS journeys_user_created_idx ON journeys (user_id, created_at DESC, id DESC);
`

const journeyColumns = `
	id, user_id, name,
	source_lat, source_lon,
	destination_lat, destination_lon,
	plan, created_at, updated_at
`

// PostgresRepository is a PostgreSQL implementation of Repository.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL journey repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// EnsureSchema creates the journeys table if it does not exist.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("ensure journeys schema: %w", err)
	}
	return nil
}

// GetByUserAndID retrieves a journey by user ID and journey ID.
func (r *PostgresRepository) GetByUserAndID(ctx context.Context, userID, journeyID string) (*Journey, error) {
	query := `SELECT ` + journeyColumns + ` FROM journeys WHERE id = $1 AND user_id = $2`

	j, err := scanJourney(r.pool.QueryRow(ctx, query, journeyID, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrJourneyNotFound
		}
		return nil, err
	}
	return j, nil
}

// List retrieves a user's journeys, newest first.
func (r *PostgresRepository) List(ctx context.Context, userID string, opts ListOptions) (*ListResult, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	// Fetch one extra to determine if there are more results
	fetchLimit := limit + 1

	var (
		rows pgx.Rows
		err  error
	)
	if opts.Cursor == "" {
		query := `SELECT ` + journeyColumns + `
			FROM journeys
			WHERE user_id = $1
			ORDER BY created_at DESC, id DESC
			LIMIT $2`
		rows, err = r.pool.Query(ctx, query, userID, fetchLimit)
	} else {
		query := `SELECT ` + journeyColumns + `
			FROM journeys
			WHERE user_id = $1
			  AND (created_at, id) < (SELECT created_at, id FROM journeys WHERE id = $2 AND user_id = $1)
			ORDER BY created_at DESC, id DESC
			LIMIT $3`
		rows, err = r.pool.Query(ctx, query, userID, opts.Cursor, fetchLimit)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var journeys []*Journey
	for rows.Next() {
		j, err := scanJourney(rows)
		if err != nil {
			return nil, err
		}
		journeys = append(journeys, j)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	result := &ListResult{Items: journeys}
	if len(journeys) > limit {
		result.Items = journeys[:limit]
		result.NextCursor = journeys[limit-1].ID
	}

	return result, nil
}

// Create stores a new journey.
func (r *PostgresRepository) Create(ctx context.Context, j *Journey) error {
	plan, err := json.Marshal(j.Plan)
	if err != nil {
		return fmt.Errorf("marshal plan: %w", err)
	}

	query := `
		INSERT INTO journeys (` + journeyColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err = r.pool.Exec(ctx, query,
		j.ID,
		j.UserID,
		j.Name,
		j.Source.Lat,
		j.Source.Lon,
		j.Destination.Lat,
		j.Destination.Lon,
		plan,
		j.CreatedAt,
		j.UpdatedAt,
	)
	return err
}

// Delete deletes a journey owned by userID.
func (r *PostgresRepository) Delete(ctx context.Context, userID, journeyID string) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM journeys WHERE id = $1 AND user_id = $2`, journeyID, userID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrJourneyNotFound
	}
	return nil
}

func scanJourney(row pgx.Row) (*Journey, error) {
	var (
		j    Journey
		plan []byte
	)
	err := row.Scan(
		&j.ID,
		&j.UserID,
		&j.Name,
		&j.Source.Lat,
		&j.Source.Lon,
		&j.Destination.Lat,
		&j.Destination.Lon,
		&plan,
		&j.CreatedAt,
		&j.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(plan, &j.Plan); err != nil {
		return nil, fmt.Errorf("unmarshal plan: %w", err)
	}
	return &j, nil
}

// Ensure PostgresRepository implements Repository interface.
var _ Repository = (*PostgresRepository)(nil)
