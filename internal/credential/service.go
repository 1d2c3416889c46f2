package credential

import (
	"context"
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/quantumtrust/trustcore/internal/did"
	"github.com/quantumtrust/trustcore/internal/ledger"
	"go.uber.org/zap"
)

// didResolver is the read-only slice of the DID Manager the Engine consumes.
// The Engine never mutates DID records.
type didResolver interface {
	Resolve(ctx context.Context, didID string) (*did.Record, error)
}

// signerStore supplies issuer signing keys.
type signerStore interface {
	Get(didID string) (ed25519.PrivateKey, error)
}

// Engine issues, verifies, and revokes verifiable credentials.
type Engine struct {
	repo   Repository
	dids   didResolver
	keys   signerStore
	router *ledger.Router
	logger *zap.Logger
}

// NewEngine creates an Engine.
func NewEngine(repo Repository, dids didResolver, keys signerStore, router *ledger.Router, logger *zap.Logger) *Engine {
	return &Engine{repo: repo, dids: dids, keys: keys, router: router, logger: logger}
}

// resolveActive resolves a DID and checks it is usable for issuance.
func (e *Engine) resolveActive(ctx context.Context, didID string, notFound error) (*did.Record, error) {
	rec, err := e.dids.Resolve(ctx, didID)
	if err != nil {
		if errors.Is(err, did.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", didID, notFound)
		}
		return nil, err
	}
	if rec.Status != did.StatusActive {
		return nil, fmt.Errorf("%s is %s: %w", didID, rec.Status, ErrNotActive)
	}
	if rec.ExpiresAt != nil && rec.ExpiresAt.Before(time.Now().UTC()) {
		return nil, fmt.Errorf("%s expired at %s: %w", didID, rec.ExpiresAt.Format(time.RFC3339), ErrNotActive)
	}
	return rec, nil
}

// Issue creates a new ACTIVE credential of credType from issuer about holder.
// Both DIDs must resolve to ACTIVE records. A ledger anchor is attempted but
// not required for local success; its outcome is recorded on the credential.
func (e *Engine) Issue(ctx context.Context, issuer, holder, credType string, claims map[string]any, expires *time.Time) (*Credential, error) {
	issuerRec, err := e.resolveActive(ctx, issuer, ErrIssuerNotFound)
	if err != nil {
		return nil, err
	}
	if _, err := e.resolveActive(ctx, holder, ErrHolderNotFound); err != nil {
		return nil, err
	}

	key, err := e.keys.Get(issuer)
	if err != nil {
		return nil, fmt.Errorf("issuer signing key: %w", err)
	}

	types := []string{BaseType}
	if credType != "" && credType != BaseType {
		types = append(types, credType)
	}

	proof, err := buildProof(issuer, key, holder, types, claims)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	cred := &Credential{
		ID:        uuid.New(),
		Issuer:    issuer,
		Holder:    holder,
		Types:     types,
		Claims:    claims,
		Proof:     proof,
		Status:    StatusActive,
		IssuedAt:  now,
		ExpiresAt: expires,
		UpdatedAt: now,
	}

	// Anchor the content digest on the issuer's ledger. Failure degrades to
	// an unanchored credential; it never blocks local issuance.
	base, _ := signingBase(issuer, holder, types, claims)
	digest := sha256.Sum256(base)
	anchor, err := e.router.Anchor(ctx, issuerRec.Backend, hex.EncodeToString(digest[:]), map[string]string{
		"credential_id": cred.ID.String(),
		"action":        "credential.issue",
	})
	if err != nil {
		e.logger.Warn("credential issued without ledger anchor",
			zap.String("credential_id", cred.ID.String()),
			zap.Error(err),
		)
	} else {
		cred.AnchorTxID = anchor.Ref.TxID
		cred.AnchorSource = anchor.Source
	}

	if err := e.repo.Create(ctx, cred); err != nil {
		return nil, err
	}

	e.logger.Info("credential issued",
		zap.String("credential_id", cred.ID.String()),
		zap.String("issuer", issuer),
		zap.String("holder", holder),
		zap.Strings("types", types),
	)
	return cred, nil
}

// Verify reports whether the credential is currently valid: not revoked, not
// expired, and its proof matches a recomputation over the stored content.
// A proof mismatch is a negative result, not an error; errors are reserved
// for missing credentials and infrastructure faults.
func (e *Engine) Verify(ctx context.Context, id uuid.UUID) (bool, error) {
	cred, err := e.repo.Get(ctx, id)
	if err != nil {
		return false, err
	}
	return e.verifyRecord(ctx, cred), nil
}

// verifyRecord applies the validity rules to an already-loaded credential.
func (e *Engine) verifyRecord(ctx context.Context, cred *Credential) bool {
	if cred.Status == StatusRevoked {
		return false
	}
	if cred.ExpiresAt != nil && cred.ExpiresAt.Before(time.Now().UTC()) {
		return false
	}

	issuerRec, err := e.dids.Resolve(ctx, cred.Issuer)
	if err != nil {
		e.logger.Warn("credential verify: issuer did unresolvable",
			zap.String("credential_id", cred.ID.String()),
			zap.String("issuer", cred.Issuer),
		)
		return false
	}
	pub, err := did.ParsePublicKeyJWK(issuerRec.PublicKeyJWK)
	if err != nil {
		return false
	}
	return verifyProof(pub, cred)
}

// Get returns the credential, or ErrNotFound.
func (e *Engine) Get(ctx context.Context, id uuid.UUID) (*Credential, error) {
	return e.repo.Get(ctx, id)
}

// ListByHolder returns all credentials held by a DID.
func (e *Engine) ListByHolder(ctx context.Context, holder string) ([]*Credential, error) {
	return e.repo.ListByHolder(ctx, holder)
}

// Revoke transitions a credential to REVOKED. The ledger transition record
// is best-effort, mirroring DID revocation.
func (e *Engine) Revoke(ctx context.Context, id uuid.UUID) (*Credential, error) {
	cred, err := e.repo.TransitionStatus(ctx, id, StatusActive, StatusRevoked)
	if err != nil {
		return nil, err
	}

	issuerRec, resolveErr := e.dids.Resolve(ctx, cred.Issuer)
	if resolveErr == nil {
		if _, err := e.router.Invoke(ctx, issuerRec.Backend, "recordTransition", map[string]string{
			"subject": cred.ID.String(),
			"action":  "credential.revoke",
			"actor":   cred.Issuer,
		}); err != nil {
			e.logger.Warn("credential revoked locally but ledger transition failed",
				zap.String("credential_id", cred.ID.String()),
				zap.Error(err),
			)
		}
	}

	e.logger.Info("credential revoked", zap.String("credential_id", cred.ID.String()))
	return cred, nil
}

// ReconcileRevokedDIDs is the scheduled reconciliation pass: it flags ACTIVE
// credentials whose issuer or holder DID has been revoked. It is never run as
// a side effect of DID revocation. Returns the number of newly flagged
// credentials.
func (e *Engine) ReconcileRevokedDIDs(ctx context.Context) (int, error) {
	active, err := e.repo.ListActive(ctx)
	if err != nil {
		return 0, fmt.Errorf("list active credentials: %w", err)
	}

	flagged := 0
	for _, cred := range active {
		if cred.Flagged {
			continue
		}
		reason := e.revokedDIDReason(ctx, cred)
		if reason == "" {
			continue
		}
		cred.Flagged = true
		cred.FlagReason = reason
		cred.UpdatedAt = time.Now().UTC()
		if err := e.repo.Update(ctx, cred); err != nil {
			return flagged, fmt.Errorf("flag credential %s: %w", cred.ID, err)
		}
		flagged++
		e.logger.Info("credential flagged by reconciliation",
			zap.String("credential_id", cred.ID.String()),
			zap.String("reason", reason),
		)
	}
	return flagged, nil
}

func (e *Engine) revokedDIDReason(ctx context.Context, cred *Credential) string {
	if rec, err := e.dids.Resolve(ctx, cred.Issuer); err == nil && rec.Status == did.StatusRevoked {
		return fmt.Sprintf("issuer %s revoked", cred.Issuer)
	}
	if rec, err := e.dids.Resolve(ctx, cred.Holder); err == nil && rec.Status == did.StatusRevoked {
		return fmt.Sprintf("holder %s revoked", cred.Holder)
	}
	return ""
}
