// Package credential implements the Credential Engine: issuance,
// verification, and revocation of verifiable credentials.
//
// A credential's proof is a deterministic Ed25519 binding over the canonical
// form of (issuer, holder, types, claims). Verification is always a pure
// recomputation against that binding; there is no stored validity flag.
package credential

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/quantumtrust/trustcore/internal/ledger"
)

// BaseType is present in every credential's type set.
const BaseType = "VerifiableCredential"

// Status is the lifecycle status of a credential.
type Status string

const (
	StatusActive  Status = "ACTIVE"
	StatusRevoked Status = "REVOKED"
)

var (
	// ErrNotFound is returned when a credential lookup finds no matching record.
	ErrNotFound = errors.New("credential not found")
	// ErrAlreadyRevoked is returned when revoking an already-revoked credential.
	ErrAlreadyRevoked = errors.New("credential already revoked")
	// ErrIssuerNotFound is returned at issuance when the issuer DID is absent.
	ErrIssuerNotFound = errors.New("issuer did not found")
	// ErrHolderNotFound is returned at issuance when the holder DID is absent.
	ErrHolderNotFound = errors.New("holder did not found")
	// ErrNotActive is returned at issuance when either DID is not ACTIVE.
	ErrNotActive = errors.New("did is not active")
)

// Proof binds a credential's content to its issuer. ProofValue is a
// deterministic function of the claims content, so any claim mutation
// invalidates the proof without re-derivation.
type Proof struct {
	Type               string    `json:"type"`
	Created            time.Time `json:"created"`
	ProofPurpose       string    `json:"proofPurpose"`
	VerificationMethod string    `json:"verificationMethod"`
	ProofValue         string    `json:"proofValue"`
}

// Credential is a verifiable credential issued by one DID about another.
type Credential struct {
	ID           uuid.UUID      `json:"id"`
	Issuer       string         `json:"issuer"`
	Holder       string         `json:"holder"`
	Types        []string       `json:"types"`
	Claims       map[string]any `json:"claims"`
	Proof        Proof          `json:"proof"`
	Status       Status         `json:"status"`
	IssuedAt     time.Time      `json:"issued_at"`
	ExpiresAt    *time.Time     `json:"expires_at,omitempty"`
	AnchorTxID   string         `json:"anchor_tx_id,omitempty"`
	AnchorSource ledger.Source  `json:"anchor_source,omitempty"`
	Flagged      bool           `json:"flagged"`
	FlagReason   string         `json:"flag_reason,omitempty"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// Repository is the storage interface consumed by the Engine.
type Repository interface {
	Create(ctx context.Context, c *Credential) error
	Get(ctx context.Context, id uuid.UUID) (*Credential, error)
	ListByHolder(ctx context.Context, holder string) ([]*Credential, error)
	ListActive(ctx context.Context) ([]*Credential, error)

	// TransitionStatus moves a credential from one status to another with an
	// optimistic guard, mirroring the DID repository contract.
	TransitionStatus(ctx context.Context, id uuid.UUID, from, to Status) (*Credential, error)

	// Update persists mutable bookkeeping fields (anchor reference, flags).
	Update(ctx context.Context, c *Credential) error
}
