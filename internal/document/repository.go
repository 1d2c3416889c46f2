package document

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository persists documents to PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository creates a PostgresRepository over the given pool.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const docColumns = `id, owner_id, did, doc_type, content_hash, content_address, key_handle,
	cipher, status, anchor_tx_id, anchor_source, verify_note, created_at, updated_at`

func scanDoc(row pgx.Row) (*Document, error) {
	d := &Document{}
	err := row.Scan(
		&d.ID, &d.Owner, &d.DID, &d.Type, &d.ContentHash, &d.ContentAddress,
		&d.KeyHandle, &d.Cipher, &d.Status, &d.AnchorTxID, &d.AnchorSource,
		&d.VerifyNote, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan document: %w", err)
	}
	return d, nil
}

// Create implements Repository.
func (r *PostgresRepository) Create(ctx context.Context, d *Document) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO documents (`+docColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		d.ID, d.Owner, d.DID, d.Type, d.ContentHash, d.ContentAddress,
		d.KeyHandle, d.Cipher, d.Status, d.AnchorTxID, d.AnchorSource,
		d.VerifyNote, d.CreatedAt, d.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create document: %w", err)
	}
	return nil
}

// Get implements Repository.
func (r *PostgresRepository) Get(ctx context.Context, id uuid.UUID) (*Document, error) {
	return scanDoc(r.db.QueryRow(ctx,
		`SELECT `+docColumns+` FROM documents WHERE id = $1`, id))
}

// ListByDID implements Repository.
func (r *PostgresRepository) ListByDID(ctx context.Context, didID string) ([]*Document, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+docColumns+` FROM documents WHERE did = $1 ORDER BY created_at`, didID)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var out []*Document
	for rows.Next() {
		d, err := scanDoc(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// TransitionStatus implements Repository.
func (r *PostgresRepository) TransitionStatus(ctx context.Context, id uuid.UUID, from, to Status, note string) (*Document, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE documents SET status = $3, verify_note = $4, updated_at = $5
		WHERE id = $1 AND status = $2
		RETURNING `+docColumns,
		id, from, to, note, time.Now().UTC(),
	)
	d, err := scanDoc(row)
	if err == nil {
		return d, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	current, getErr := r.Get(ctx, id)
	if getErr != nil {
		return nil, getErr
	}
	if current.Status == StatusVerified || current.Status == StatusRejected {
		return nil, ErrAlreadyFinal
	}
	return nil, fmt.Errorf("document %s is %s, cannot transition from %s", id, current.Status, from)
}

// Update implements Repository.
func (r *PostgresRepository) Update(ctx context.Context, d *Document) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE documents
		SET anchor_tx_id = $2, anchor_source = $3, verify_note = $4, updated_at = $5
		WHERE id = $1`,
		d.ID, d.AnchorTxID, d.AnchorSource, d.VerifyNote, d.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete implements Repository.
func (r *PostgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
