// Package ledger provides the ledger-abstraction layer of the Trust Core:
// a uniform capability interface over multiple distributed-ledger backends,
// and a Router that dispatches operations to the backend selected by a DID
// method tag, applying a configurable fallback policy when a backend is
// unreachable.
//
// Every routed response carries a Source tag so callers and auditors can
// distinguish genuine ledger confirmation (LIVE) from deterministic fallback
// (SIMULATED). The Router never mixes live and simulated state within a
// single logical operation.
package ledger

import (
	"context"
	"errors"
	"time"
)

// Backend identifies one concrete ledger technology.
type Backend string

// The three supported backends.
const (
	BackendChain      Backend = "chain-ledger"
	BackendCredential Backend = "credential-ledger"
	BackendChannel    Backend = "channel-ledger"
)

// Source tags a routed response as genuine ledger output or deterministic fallback.
type Source string

const (
	SourceLive      Source = "LIVE"
	SourceSimulated Source = "SIMULATED"
)

// ErrBackendUnavailable signals a transport or availability failure of a
// backend adapter. Adapters must return it (wrapped) on any such failure and
// must never fabricate ledger data themselves; deterministic fallback is the
// Router's policy-gated responsibility.
var ErrBackendUnavailable = errors.New("ledger backend unavailable")

// ErrNotFound is returned when a queried identity does not exist on the ledger.
var ErrNotFound = errors.New("identity not found on ledger")

// IdentityRecord is a ledger-side identity: an identifier plus the
// verification key registered for it.
type IdentityRecord struct {
	ID              string    `json:"id"`
	VerificationKey string    `json:"verification_key"`
	Backend         Backend   `json:"backend"`
	CreatedAt       time.Time `json:"created_at"`
}

// AnchorRef references a ledger transaction that anchored a payload hash.
type AnchorRef struct {
	TxID      string    `json:"tx_id"`
	Backend   Backend   `json:"backend"`
	Timestamp time.Time `json:"timestamp"`
}

// Capability is the uniform interface implemented by every backend adapter.
// Adapters may hold a live connection or gateway handle across calls;
// connection setup happens once at construction and is idempotent.
type Capability interface {
	// Name returns the backend this adapter serves.
	Name() Backend

	// CreateIdentity registers a new identity, optionally derived from seed,
	// and returns its ledger record.
	CreateIdentity(ctx context.Context, seed string) (*IdentityRecord, error)

	// ResolveIdentity returns the record for id, or ErrNotFound.
	ResolveIdentity(ctx context.Context, id string) (*IdentityRecord, error)

	// Anchor records payloadHash on the ledger and returns the transaction reference.
	Anchor(ctx context.Context, payloadHash string, meta map[string]string) (*AnchorRef, error)

	// Invoke executes a state-mutating ledger function.
	Invoke(ctx context.Context, function string, args map[string]string) (map[string]string, error)

	// Query executes a read-only ledger function.
	Query(ctx context.Context, function string, args map[string]string) (map[string]string, error)

	// Close releases the adapter's connection resources.
	Close() error
}

// IdentityResult is a routed identity response with its source tag.
type IdentityResult struct {
	Record *IdentityRecord `json:"record"`
	Source Source          `json:"source"`
}

// AnchorResult is a routed anchor response with its source tag.
type AnchorResult struct {
	Ref    *AnchorRef `json:"ref"`
	Source Source     `json:"source"`
}

// CallResult is a routed invoke/query response with its source tag.
type CallResult struct {
	Payload map[string]string `json:"payload"`
	Source  Source            `json:"source"`
}
