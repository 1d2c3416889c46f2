package principal

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore reads principals from PostgreSQL.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore creates a PostgresStore over the given pool.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// Exists implements Store.
func (s *PostgresStore) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM principals WHERE id = $1)`, id,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check principal: %w", err)
	}
	return exists, nil
}

// ByID implements Store.
func (s *PostgresStore) ByID(ctx context.Context, id uuid.UUID) (*Principal, error) {
	p := &Principal{}
	err := s.db.QueryRow(ctx,
		`SELECT id, username, email, role, COALESCE(country, ''), created_at
		 FROM principals WHERE id = $1`, id,
	).Scan(&p.ID, &p.Username, &p.Email, &p.Role, &p.Country, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get principal: %w", err)
	}
	return p, nil
}
