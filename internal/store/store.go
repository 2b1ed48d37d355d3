// internal/store/store.go
package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// OrderRow is a persisted commission order.
type OrderRow struct {
	ID             uuid.UUID
	ProjectType    string
	ProjectName    string
	Description    string
	Budget         string
	Timeline       string
	ClientName     string
	ClientEmail    string
	ClientLinkedIn string
	CreatedAt      time.Time
}

// OrderParams are the fields written on insert.
type OrderParams struct {
	ProjectType    string
	ProjectName    string
	Description    string
	Budget         string
	Timeline       string
	ClientName     string
	ClientEmail    string
	ClientLinkedIn string
}

// Store persists commission orders in Postgres.
type Store struct {
	pool *pgxpool.Pool
}

// New creates a Store over the given pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// InsertOrder writes one order and returns the stored row.
func (s *Store) InsertOrder(ctx context.Context, p OrderParams) (OrderRow, error) {
	row := OrderRow{
		ID:             uuid.New(),
		ProjectType:    p.ProjectType,
		ProjectName:    p.ProjectName,
		Description:    p.Description,
		Budget:         p.Budget,
		Timeline:       p.Timeline,
		ClientName:     p.ClientName,
		ClientEmail:    p.ClientEmail,
		ClientLinkedIn: p.ClientLinkedIn,
	}

	err := s.pool.QueryRow(ctx, `
		INSERT INTO orders (
			id, project_type, project_name, description, budget, timeline,
			client_name, client_email, client_linkedin
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at`,
		row.ID, row.ProjectType, row.ProjectName, row.Description, row.Budget,
		row.Timeline, row.ClientName, row.ClientEmail, row.ClientLinkedIn,
	).Scan(&row.CreatedAt)
	if err != nil {
		return OrderRow{}, err
	}
	return row, nil
}

// GetOrderByID reads one order back. Used for verification tooling.
func (s *Store) GetOrderByID(ctx context.Context, id uuid.UUID) (OrderRow, error) {
	var row OrderRow
	err := s.pool.QueryRow(ctx, `
		SELECT id, project_type, project_name, description, budget, timeline,
		       client_name, client_email, client_linkedin, created_at
		FROM orders WHERE id = $1`, id,
	).Scan(
		&row.ID, &row.ProjectType, &row.ProjectName, &row.Description,
		&row.Budget, &row.Timeline, &row.ClientName, &row.ClientEmail,
		&row.ClientLinkedIn, &row.CreatedAt,
	)
	if err != nil {
		return OrderRow{}, err
	}
	return row, nil
}
