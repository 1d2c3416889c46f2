package did

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository persists DID records to PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository creates a PostgresRepository over the given pool.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const didColumns = `did, principal_id, method, backend, public_key_jwk, status, source, created_at, updated_at, expires_at`

func scanDID(row pgx.Row) (*Record, error) {
	rec := &Record{}
	err := row.Scan(
		&rec.DID, &rec.Principal, &rec.Method, &rec.Backend,
		&rec.PublicKeyJWK, &rec.Status, &rec.Source,
		&rec.CreatedAt, &rec.UpdatedAt, &rec.ExpiresAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan did: %w", err)
	}
	return rec, nil
}

// Create implements Repository.
func (r *PostgresRepository) Create(ctx context.Context, rec *Record) error {
	q := `
		INSERT INTO dids (` + didColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.db.Exec(ctx, q,
		rec.DID, rec.Principal, rec.Method, rec.Backend,
		rec.PublicKeyJWK, rec.Status, rec.Source,
		rec.CreatedAt, rec.UpdatedAt, rec.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("create did: %w", err)
	}
	return nil
}

// Get implements Repository.
func (r *PostgresRepository) Get(ctx context.Context, did string) (*Record, error) {
	return scanDID(r.db.QueryRow(ctx, `SELECT `+didColumns+` FROM dids WHERE did = $1`, did))
}

// ListByPrincipal implements Repository.
func (r *PostgresRepository) ListByPrincipal(ctx context.Context, principal uuid.UUID) ([]*Record, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+didColumns+` FROM dids WHERE principal_id = $1 ORDER BY created_at`, principal)
	if err != nil {
		return nil, fmt.Errorf("list dids: %w", err)
	}
	defer rows.Close()

	var out []*Record
	for rows.Next() {
		rec := &Record{}
		if err := rows.Scan(
			&rec.DID, &rec.Principal, &rec.Method, &rec.Backend,
			&rec.PublicKeyJWK, &rec.Status, &rec.Source,
			&rec.CreatedAt, &rec.UpdatedAt, &rec.ExpiresAt,
		); err != nil {
			return nil, fmt.Errorf("scan did row: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// TransitionStatus implements Repository. The WHERE clause is the optimistic
// status-transition guard: no row updates if another writer got there first.
func (r *PostgresRepository) TransitionStatus(ctx context.Context, did string, from, to Status) (*Record, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE dids SET status = $3, updated_at = $4
		WHERE did = $1 AND status = $2
		RETURNING `+didColumns,
		did, from, to, time.Now().UTC(),
	)
	rec, err := scanDID(row)
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	// Guard failed: distinguish a missing DID from an illegal transition.
	current, getErr := r.Get(ctx, did)
	if getErr != nil {
		return nil, getErr
	}
	if current.Status == StatusRevoked {
		return nil, ErrAlreadyRevoked
	}
	return nil, fmt.Errorf("did %s is %s, cannot transition from %s", did, current.Status, from)
}
