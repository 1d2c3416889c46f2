package proof

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// scheme tags the commitment construction so verifiers can reject proofs
// from a different backend.
const scheme = "sha256-salted-v1"

const nonceSize = 16

var proofsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "trustcore_proofs_total",
	Help: "Total predicate proofs generated by kind and outcome.",
}, []string{"kind", "satisfied"})

// credentialVerifier is the slice of the credential engine the
// credential-validity predicate needs.
type credentialVerifier interface {
	Verify(ctx context.Context, id uuid.UUID) (bool, error)
}

// Engine is the hash-commitment proof backend.
type Engine struct {
	credentials credentialVerifier
	now         func() time.Time
	logger      *zap.Logger
}

// NewEngine creates an Engine. credentials may be nil, in which case
// credential-validity proofs fail with ErrNoCredentialVerifier.
func NewEngine(credentials credentialVerifier, logger *zap.Logger) *Engine {
	return &Engine{
		credentials: credentials,
		now:         time.Now,
		logger:      logger,
	}
}

// Prove evaluates the predicate against the secret and returns a commitment
// that hides it. The secret is hashed with a random salt; neither the secret
// nor the salt appears in the result.
func (e *Engine) Prove(ctx context.Context, secret string, params Params) (*Commitment, error) {
	if err := validateParams(params); err != nil {
		return nil, err
	}

	ref := params.ReferenceDate
	if ref.IsZero() {
		ref = e.now().UTC()
	}

	satisfied, err := e.evaluate(ctx, secret, params, ref)
	if err != nil {
		return nil, err
	}

	commitment, err := commit(secret)
	if err != nil {
		return nil, err
	}

	c := &Commitment{
		ID:         uuid.New(),
		Commitment: commitment,
		PublicInputs: PublicInputs{
			Scheme:        scheme,
			Kind:          params.Kind,
			MinimumAge:    params.MinimumAge,
			MinimumIncome: params.MinimumIncome,
			Region:        params.Region,
			ReferenceDate: ref,
		},
		Satisfied: satisfied,
		CreatedAt: e.now().UTC(),
	}

	proofsTotal.WithLabelValues(string(params.Kind), strconv.FormatBool(satisfied)).Inc()
	e.logger.Info("predicate proof generated",
		zap.String("proof_id", c.ID.String()),
		zap.String("kind", string(params.Kind)),
		zap.Bool("satisfied", satisfied),
	)
	return c, nil
}

// Verify checks the structural validity of a commitment and its public
// inputs. It cannot recompute the satisfaction result without the secret, so
// a structurally valid proof is accepted together with the claimed result.
func (e *Engine) Verify(_ context.Context, commitment string, inputs PublicInputs, _ bool) (bool, error) {
	if inputs.Scheme != scheme {
		return false, nil
	}
	if !validCommitment(commitment) {
		return false, nil
	}
	if inputs.ReferenceDate.IsZero() {
		return false, nil
	}
	if err := validateParams(Params{
		Kind:          inputs.Kind,
		MinimumAge:    inputs.MinimumAge,
		MinimumIncome: inputs.MinimumIncome,
		Region:        inputs.Region,
	}); err != nil {
		return false, nil
	}
	return true, nil
}

func (e *Engine) evaluate(ctx context.Context, secret string, params Params, ref time.Time) (bool, error) {
	switch params.Kind {
	case KindAge:
		dob, err := time.Parse(DateLayout, secret)
		if err != nil {
			return false, fmt.Errorf("date of birth: %w", ErrInvalidSecret)
		}
		return yearsBetween(dob, ref) >= params.MinimumAge, nil

	case KindIncome:
		income, err := strconv.ParseInt(strings.TrimSpace(secret), 10, 64)
		if err != nil {
			return false, fmt.Errorf("income value: %w", ErrInvalidSecret)
		}
		return income >= params.MinimumIncome, nil

	case KindResidency:
		address := strings.ToLower(strings.TrimSpace(secret))
		if address == "" {
			return false, fmt.Errorf("address: %w", ErrInvalidSecret)
		}
		return strings.Contains(address, strings.ToLower(params.Region)), nil

	case KindCredentialValidity:
		if e.credentials == nil {
			return false, ErrNoCredentialVerifier
		}
		id, err := uuid.Parse(strings.TrimSpace(secret))
		if err != nil {
			return false, fmt.Errorf("credential id: %w", ErrInvalidSecret)
		}
		return e.credentials.Verify(ctx, id)

	default:
		return false, fmt.Errorf("%q: %w", params.Kind, ErrUnknownPredicate)
	}
}

func validateParams(p Params) error {
	switch p.Kind {
	case KindAge:
		if p.MinimumAge <= 0 {
			return fmt.Errorf("minimum age %d: %w", p.MinimumAge, ErrInvalidParams)
		}
	case KindIncome:
		if p.MinimumIncome < 0 {
			return fmt.Errorf("minimum income %d: %w", p.MinimumIncome, ErrInvalidParams)
		}
	case KindResidency:
		if strings.TrimSpace(p.Region) == "" {
			return fmt.Errorf("empty region: %w", ErrInvalidParams)
		}
	case KindCredentialValidity:
		// No public parameters beyond the reference date.
	default:
		return fmt.Errorf("%q: %w", p.Kind, ErrUnknownPredicate)
	}
	return nil
}

// commit hashes the secret with a fresh random salt. The salt is discarded,
// so the commitment cannot be brute-forced against low-entropy secrets such
// as dates of birth.
func commit(secret string) (string, error) {
	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("generate commitment salt: %w", err)
	}
	h := sha256.New()
	h.Write(nonce)
	h.Write([]byte(secret))
	return hex.EncodeToString(h.Sum(nil)), nil
}

func validCommitment(c string) bool {
	if len(c) != sha256.Size*2 {
		return false
	}
	_, err := hex.DecodeString(c)
	return err == nil
}

// yearsBetween counts whole years from dob to ref, accounting for whether
// the birthday has passed in ref's year.
func yearsBetween(dob, ref time.Time) int {
	years := ref.Year() - dob.Year()
	if ref.Month() < dob.Month() || (ref.Month() == dob.Month() && ref.Day() < dob.Day()) {
		years--
	}
	return years
}
