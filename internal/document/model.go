// Package document implements the Document Integrity Pipeline:
// hash → encrypt → content-address → anchor on upload, and a separate
// decrypt → rehash → anchor cross-check verification.
//
// Document lifecycle is PENDING → VERIFIED or PENDING → REJECTED; both
// terminal states are final. The content hash is computed once, at upload
// time, over the plaintext bytes and never recomputed from ciphertext.
package document

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/quantumtrust/trustcore/internal/ledger"
)

// Status is the lifecycle status of a document.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusVerified Status = "VERIFIED"
	StatusRejected Status = "REJECTED"
)

var (
	// ErrNotFound is returned when a document lookup finds no matching record.
	ErrNotFound = errors.New("document not found")
	// ErrAlreadyFinal is returned when a transition is attempted on a
	// document already in a terminal state.
	ErrAlreadyFinal = errors.New("document already in terminal state")
	// ErrIntegrityViolation is returned when decrypt, rehash, or the anchor
	// cross-check fails during verification. Never silently corrected.
	ErrIntegrityViolation = errors.New("document integrity violation")
	// ErrStoreUnavailable is returned when the content store stays
	// unreachable past the bounded retry budget.
	ErrStoreUnavailable = errors.New("content store unavailable")
)

// cipherAESGCM tags the only encryption scheme the pipeline currently writes.
const cipherAESGCM = "AES-256-GCM"

// Document is a document record. ContentHash covers the plaintext;
// ContentAddress locates the encrypted payload in the content store.
type Document struct {
	ID             uuid.UUID     `json:"id"`
	Owner          uuid.UUID     `json:"owner"`
	DID            string        `json:"did"`
	Type           string        `json:"type"`
	ContentHash    string        `json:"content_hash"`
	ContentAddress string        `json:"content_address"`
	KeyHandle      string        `json:"key_handle"`
	Cipher         string        `json:"cipher"`
	Status         Status        `json:"status"`
	AnchorTxID     string        `json:"anchor_tx_id,omitempty"`
	AnchorSource   ledger.Source `json:"anchor_source,omitempty"`
	VerifyNote     string        `json:"verify_note,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// Anchored reports whether the document carries a ledger anchor reference.
func (d *Document) Anchored() bool { return d.AnchorTxID != "" }

// Repository is the storage interface consumed by the Pipeline.
type Repository interface {
	Create(ctx context.Context, d *Document) error
	Get(ctx context.Context, id uuid.UUID) (*Document, error)
	ListByDID(ctx context.Context, didID string) ([]*Document, error)

	// TransitionStatus moves a document out of PENDING with an optimistic
	// guard. Returns ErrAlreadyFinal if the document has already reached a
	// terminal state.
	TransitionStatus(ctx context.Context, id uuid.UUID, from, to Status, note string) (*Document, error)

	// Update persists anchor bookkeeping.
	Update(ctx context.Context, d *Document) error

	Delete(ctx context.Context, id uuid.UUID) error
}
