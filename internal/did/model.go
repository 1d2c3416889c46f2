// Package did implements the DID Manager: creation, resolution, and
// revocation of decentralized identifiers across the ledger backends.
//
// DID lifecycle is UNCREATED → ACTIVE → REVOKED; REVOKED is terminal and the
// transition is monotonic. The DID Manager owns DID records exclusively;
// other components only read them through Resolve.
package did

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/quantumtrust/trustcore/internal/ledger"
)

// Status is the lifecycle status of a DID.
type Status string

const (
	StatusActive  Status = "ACTIVE"
	StatusRevoked Status = "REVOKED"
)

// ErrNotFound is returned when a DID lookup finds no matching record.
var ErrNotFound = errors.New("did not found")

// ErrAlreadyRevoked is returned when revoking a DID that is already REVOKED.
var ErrAlreadyRevoked = errors.New("did already revoked")

// ErrPrincipalNotFound is returned when the owning principal does not exist.
var ErrPrincipalNotFound = errors.New("principal not found")

// Record is a DID record. The identifier is globally unique and immutable
// once created.
type Record struct {
	DID          string        `json:"did"`
	Principal    uuid.UUID     `json:"principal"`
	Method       string        `json:"method"`
	Backend      ledger.Backend `json:"backend"`
	PublicKeyJWK string        `json:"public_key_jwk"`
	Status       Status        `json:"status"`
	Source       ledger.Source `json:"source"` // ledger confirmation of the creation
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
	ExpiresAt    *time.Time    `json:"expires_at,omitempty"`
}

// Repository is the storage interface consumed by the Manager.
type Repository interface {
	Create(ctx context.Context, r *Record) error
	Get(ctx context.Context, did string) (*Record, error)
	ListByPrincipal(ctx context.Context, principal uuid.UUID) ([]*Record, error)

	// TransitionStatus moves a record from one status to another with an
	// optimistic guard: the update applies only if the stored status equals
	// from. Returns ErrNotFound if the DID is absent and ErrAlreadyRevoked
	// if the guard fails because the record is already REVOKED.
	TransitionStatus(ctx context.Context, did string, from, to Status) (*Record, error)
}
