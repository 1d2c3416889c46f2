// Package principal provides read-only access to the principals the Trust
// Core issues artifacts for. The Trust Core never writes to this store;
// account management lives outside the core.
package principal

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a principal lookup finds no matching record.
var ErrNotFound = errors.New("principal not found")

// Principal is an owning subject for DIDs, credentials, and documents.
type Principal struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Country   string    `json:"country,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Store is the read-only principal collaborator interface.
type Store interface {
	// Exists reports whether the principal exists.
	Exists(ctx context.Context, id uuid.UUID) (bool, error)

	// ByID returns the principal, or ErrNotFound.
	ByID(ctx context.Context, id uuid.UUID) (*Principal, error)
}
