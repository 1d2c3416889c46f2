// Package proof builds and checks privacy-preserving predicate proofs. A
// proof binds a secret attribute (date of birth, income, address, credential
// reference) to a one-way commitment and a satisfaction boolean; the secret
// itself never leaves the prover.
//
// The commitment scheme here is a salted hash plus a directly computed
// boolean. It hides the secret but is not a sound zero-knowledge argument: a
// verifier accepts the proof structure and the asserted result, not a
// cryptographic derivation of it. The Backend interface is sized so a real
// succinct proof system can replace this implementation without touching
// callers.
package proof

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Predicate kinds supported by the engine.
const (
	KindAge                Kind = "age"
	KindIncome             Kind = "income"
	KindResidency          Kind = "residency"
	KindCredentialValidity Kind = "credential-validity"
)

// Kind names a predicate family.
type Kind string

var (
	// ErrUnknownPredicate is returned for a Kind the engine does not implement.
	ErrUnknownPredicate = errors.New("unknown predicate kind")
	// ErrInvalidSecret is returned when the secret cannot be parsed for the
	// requested predicate, for example a malformed date of birth.
	ErrInvalidSecret = errors.New("invalid secret input")
	// ErrInvalidParams is returned when the public predicate parameters are
	// incomplete or inconsistent for the requested kind.
	ErrInvalidParams = errors.New("invalid predicate parameters")
	// ErrNoCredentialVerifier is returned for credential-validity proofs when
	// the engine was built without a credential verifier.
	ErrNoCredentialVerifier = errors.New("no credential verifier configured")
)

// DateLayout is the wire format for dates in secrets and parameters.
const DateLayout = "2006-01-02"

// Params are the public predicate parameters. Only the fields relevant to
// the Kind are consulted; everything here is safe to expose and persist.
type Params struct {
	Kind Kind `json:"kind"`

	// MinimumAge in whole years, for KindAge.
	MinimumAge int `json:"minimum_age,omitempty"`
	// MinimumIncome in minor currency units, for KindIncome.
	MinimumIncome int64 `json:"minimum_income,omitempty"`
	// Region the subject must reside in, for KindResidency.
	Region string `json:"region,omitempty"`

	// ReferenceDate pins "now" for age and validity checks so a proof is
	// reproducible. Zero means the engine's clock at prove time.
	ReferenceDate time.Time `json:"reference_date,omitempty"`
}

// PublicInputs is the verifier-visible bundle attached to a commitment. It
// repeats the predicate parameters and names the commitment scheme; it never
// carries the secret or anything derived from it other than the commitment.
type PublicInputs struct {
	Scheme        string    `json:"scheme"`
	Kind          Kind      `json:"kind"`
	MinimumAge    int       `json:"minimum_age,omitempty"`
	MinimumIncome int64     `json:"minimum_income,omitempty"`
	Region        string    `json:"region,omitempty"`
	ReferenceDate time.Time `json:"reference_date"`
}

// Commitment is the result of proving a predicate. The commitment string is
// one-way hash material; Satisfied is the only fact about the secret that is
// exposed.
type Commitment struct {
	ID           uuid.UUID    `json:"id"`
	Commitment   string       `json:"commitment"`
	PublicInputs PublicInputs `json:"public_inputs"`
	Satisfied    bool         `json:"satisfied"`
	CreatedAt    time.Time    `json:"created_at"`
}

// Backend is the proving interface. The default implementation is Engine;
// a succinct proof system can stand in behind the same contract.
type Backend interface {
	Prove(ctx context.Context, secret string, params Params) (*Commitment, error)
	Verify(ctx context.Context, commitment string, inputs PublicInputs, claimed bool) (bool, error)
}
