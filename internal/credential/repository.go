package credential

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository persists credentials to PostgreSQL. Types, claims, and
// the proof are stored as JSONB.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository creates a PostgresRepository over the given pool.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const credColumns = `id, issuer, holder, types, claims, proof, status, issued_at, expires_at,
	anchor_tx_id, anchor_source, flagged, flag_reason, updated_at`

func scanCred(row pgx.Row) (*Credential, error) {
	c := &Credential{}
	var types, claims, proof []byte
	err := row.Scan(
		&c.ID, &c.Issuer, &c.Holder, &types, &claims, &proof,
		&c.Status, &c.IssuedAt, &c.ExpiresAt,
		&c.AnchorTxID, &c.AnchorSource, &c.Flagged, &c.FlagReason, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan credential: %w", err)
	}
	if err := json.Unmarshal(types, &c.Types); err != nil {
		return nil, fmt.Errorf("decode credential types: %w", err)
	}
	if err := json.Unmarshal(claims, &c.Claims); err != nil {
		return nil, fmt.Errorf("decode credential claims: %w", err)
	}
	if err := json.Unmarshal(proof, &c.Proof); err != nil {
		return nil, fmt.Errorf("decode credential proof: %w", err)
	}
	return c, nil
}

func credJSON(c *Credential) (types, claims, proof []byte, err error) {
	if types, err = json.Marshal(c.Types); err != nil {
		return nil, nil, nil, fmt.Errorf("encode credential types: %w", err)
	}
	if claims, err = json.Marshal(c.Claims); err != nil {
		return nil, nil, nil, fmt.Errorf("encode credential claims: %w", err)
	}
	if proof, err = json.Marshal(c.Proof); err != nil {
		return nil, nil, nil, fmt.Errorf("encode credential proof: %w", err)
	}
	return types, claims, proof, nil
}

// Create implements Repository.
func (r *PostgresRepository) Create(ctx context.Context, c *Credential) error {
	types, claims, proof, err := credJSON(c)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `
		INSERT INTO credentials (`+credColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		c.ID, c.Issuer, c.Holder, types, claims, proof,
		c.Status, c.IssuedAt, c.ExpiresAt,
		c.AnchorTxID, c.AnchorSource, c.Flagged, c.FlagReason, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create credential: %w", err)
	}
	return nil
}

// Get implements Repository.
func (r *PostgresRepository) Get(ctx context.Context, id uuid.UUID) (*Credential, error) {
	return scanCred(r.db.QueryRow(ctx,
		`SELECT `+credColumns+` FROM credentials WHERE id = $1`, id))
}

func (r *PostgresRepository) list(ctx context.Context, query string, args ...any) ([]*Credential, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list credentials: %w", err)
	}
	defer rows.Close()

	var out []*Credential
	for rows.Next() {
		c, err := scanCred(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ListByHolder implements Repository.
func (r *PostgresRepository) ListByHolder(ctx context.Context, holder string) ([]*Credential, error) {
	return r.list(ctx,
		`SELECT `+credColumns+` FROM credentials WHERE holder = $1 ORDER BY issued_at`, holder)
}

// ListActive implements Repository.
func (r *PostgresRepository) ListActive(ctx context.Context) ([]*Credential, error) {
	return r.list(ctx,
		`SELECT `+credColumns+` FROM credentials WHERE status = $1 ORDER BY issued_at`, StatusActive)
}

// TransitionStatus implements Repository.
func (r *PostgresRepository) TransitionStatus(ctx context.Context, id uuid.UUID, from, to Status) (*Credential, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE credentials SET status = $3, updated_at = $4
		WHERE id = $1 AND status = $2
		RETURNING `+credColumns,
		id, from, to, time.Now().UTC(),
	)
	c, err := scanCred(row)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	current, getErr := r.Get(ctx, id)
	if getErr != nil {
		return nil, getErr
	}
	if current.Status == StatusRevoked {
		return nil, ErrAlreadyRevoked
	}
	return nil, fmt.Errorf("credential %s is %s, cannot transition from %s", id, current.Status, from)
}

// Update implements Repository.
func (r *PostgresRepository) Update(ctx context.Context, c *Credential) error {
	types, claims, proof, err := credJSON(c)
	if err != nil {
		return err
	}
	tag, err := r.db.Exec(ctx, `
		UPDATE credentials
		SET types = $2, claims = $3, proof = $4, anchor_tx_id = $5, anchor_source = $6,
		    flagged = $7, flag_reason = $8, updated_at = $9
		WHERE id = $1`,
		c.ID, types, claims, proof, c.AnchorTxID, c.AnchorSource,
		c.Flagged, c.FlagReason, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update credential: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
