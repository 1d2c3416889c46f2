package did

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/quantumtrust/trustcore/internal/ledger"
	"go.uber.org/zap"
)

// principalStore is the read-only principal collaborator consumed by the Manager.
type principalStore interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

// Manager creates, resolves, and revokes DIDs. It owns DID records and their
// signing keys; ledger registration goes through the Router.
type Manager struct {
	repo       Repository
	keys       Keystore
	router     *ledger.Router
	principals principalStore
	logger     *zap.Logger
}

// NewManager creates a Manager.
func NewManager(repo Repository, keys Keystore, router *ledger.Router, principals principalStore, logger *zap.Logger) *Manager {
	return &Manager{
		repo:       repo,
		keys:       keys,
		router:     router,
		principals: principals,
		logger:     logger,
	}
}

// Create generates key material, registers an identity on the ledger backend
// serving the chosen method, and persists the resulting ACTIVE DID record
// bound to the owning principal.
func (m *Manager) Create(ctx context.Context, principal uuid.UUID, method string, expires *time.Time) (*Record, error) {
	backend, err := ledger.MethodBackend(method)
	if err != nil {
		return nil, err
	}

	ok, err := m.principals.Exists(ctx, principal)
	if err != nil {
		return nil, fmt.Errorf("check principal %s: %w", principal, err)
	}
	if !ok {
		return nil, fmt.Errorf("principal %s: %w", principal, ErrPrincipalNotFound)
	}

	pub, priv, err := GenerateKey()
	if err != nil {
		return nil, err
	}
	seed := base64.RawURLEncoding.EncodeToString(pub)

	res, err := m.router.CreateIdentity(ctx, backend, seed)
	if err != nil {
		return nil, fmt.Errorf("register identity for method %q: %w", method, err)
	}

	didID := fmt.Sprintf("did:%s:%s", method, res.Record.ID)

	jwk, err := PublicKeyJWK(didID, pub)
	if err != nil {
		return nil, err
	}
	if err := m.keys.Put(didID, priv); err != nil {
		return nil, fmt.Errorf("store signing key: %w", err)
	}

	now := time.Now().UTC()
	rec := &Record{
		DID:          didID,
		Principal:    principal,
		Method:       method,
		Backend:      backend,
		PublicKeyJWK: jwk,
		Status:       StatusActive,
		Source:       res.Source,
		CreatedAt:    now,
		UpdatedAt:    now,
		ExpiresAt:    expires,
	}
	if err := m.repo.Create(ctx, rec); err != nil {
		return nil, err
	}

	m.logger.Info("did created",
		zap.String("did", didID),
		zap.String("principal", principal.String()),
		zap.String("source", string(res.Source)),
	)
	return rec, nil
}

// Resolve returns the DID record, or ErrNotFound.
func (m *Manager) Resolve(ctx context.Context, did string) (*Record, error) {
	return m.repo.Get(ctx, did)
}

// ResolveDocument renders the W3C DID document for a stored DID.
func (m *Manager) ResolveDocument(ctx context.Context, did string) (*Document, error) {
	rec, err := m.repo.Get(ctx, did)
	if err != nil {
		return nil, err
	}
	return RenderDocument(rec), nil
}

// ListByPrincipal returns all DIDs owned by a principal.
func (m *Manager) ListByPrincipal(ctx context.Context, principal uuid.UUID) ([]*Record, error) {
	return m.repo.ListByPrincipal(ctx, principal)
}

// Revoke transitions a DID to REVOKED. Local state is authoritative: the
// ledger transition record is best-effort, and a ledger failure is reported
// in the audit log rather than blocking the revocation.
func (m *Manager) Revoke(ctx context.Context, did string) (*Record, error) {
	rec, err := m.repo.TransitionStatus(ctx, did, StatusActive, StatusRevoked)
	if err != nil {
		return nil, err
	}

	if _, err := m.router.Invoke(ctx, rec.Backend, "recordTransition", map[string]string{
		"subject": did,
		"action":  "did.revoke",
		"actor":   rec.Principal.String(),
	}); err != nil {
		m.logger.Warn("did revoked locally but ledger transition failed",
			zap.String("did", did),
			zap.Error(err),
		)
	}

	m.logger.Info("did revoked", zap.String("did", did))
	return rec, nil
}
