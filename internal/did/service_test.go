package did_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/quantumtrust/trustcore/internal/anchorchain"
	"github.com/quantumtrust/trustcore/internal/did"
	"github.com/quantumtrust/trustcore/internal/ledger"
	"github.com/quantumtrust/trustcore/internal/principal"
	"go.uber.org/zap"
)

var ctx = context.Background()

func newTestManager(t *testing.T) (*did.Manager, uuid.UUID) {
	t.Helper()
	logger := zap.NewNop()

	router := ledger.NewRouter(ledger.DefaultFallbackPolicy(), logger,
		ledger.NewChainAdapter(anchorchain.New(), logger),
		ledger.NewCredentialAdapter("", 0, logger),
		ledger.NewChannelAdapter("", "", 0, logger),
	)

	owner := uuid.New()
	principals := principal.NewMemoryStore(&principal.Principal{
		ID:       owner,
		Username: "alice",
		Email:    "alice@example.com",
		Role:     "individual",
	})

	m := did.NewManager(did.NewMemoryRepository(), did.NewMemoryKeystore(), router, principals, logger)
	return m, owner
}

func TestCreate_resolve_revoke(t *testing.T) {
	m, owner := newTestManager(t)

	rec, err := m.Create(ctx, owner, "chain", nil)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(rec.DID, "did:chain:") {
		t.Errorf("did %q should use the chain method", rec.DID)
	}
	if rec.Status != did.StatusActive {
		t.Errorf("new did status: got %q, want ACTIVE", rec.Status)
	}
	if rec.Source != ledger.SourceLive {
		t.Errorf("chain-backed creation should be LIVE, got %q", rec.Source)
	}

	resolved, err := m.Resolve(ctx, rec.DID)
	if err != nil {
		t.Fatal(err)
	}
	if resolved.DID != rec.DID || resolved.Status != did.StatusActive {
		t.Errorf("resolve: got %q/%s", resolved.DID, resolved.Status)
	}

	revoked, err := m.Revoke(ctx, rec.DID)
	if err != nil {
		t.Fatal(err)
	}
	if revoked.Status != did.StatusRevoked {
		t.Errorf("revoke: got status %q, want REVOKED", revoked.Status)
	}

	// The record still resolves, but as REVOKED.
	resolved, err = m.Resolve(ctx, rec.DID)
	if err != nil {
		t.Fatal(err)
	}
	if resolved.Status != did.StatusRevoked {
		t.Errorf("resolve after revoke: got %q, want REVOKED", resolved.Status)
	}

	// Second revoke fails the terminal-state guard.
	if _, err := m.Revoke(ctx, rec.DID); !errors.Is(err, did.ErrAlreadyRevoked) {
		t.Errorf("second revoke: got %v, want ErrAlreadyRevoked", err)
	}
}

func TestRevoke_isMonotonic(t *testing.T) {
	m, owner := newTestManager(t)

	rec, err := m.Create(ctx, owner, "chain", nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := m.Revoke(ctx, rec.DID); err != nil {
		t.Fatal(err)
	}

	// No operation may bring a revoked DID back to ACTIVE.
	for i := 0; i < 3; i++ {
		_, _ = m.Revoke(ctx, rec.DID)
		got, err := m.Resolve(ctx, rec.DID)
		if err != nil {
			t.Fatal(err)
		}
		if got.Status != did.StatusRevoked {
			t.Fatalf("status regressed to %q", got.Status)
		}
	}
}

func TestCreate_unknownPrincipal(t *testing.T) {
	m, _ := newTestManager(t)

	_, err := m.Create(ctx, uuid.New(), "chain", nil)
	if !errors.Is(err, did.ErrPrincipalNotFound) {
		t.Errorf("got %v, want ErrPrincipalNotFound", err)
	}
}

func TestCreate_unknownMethod(t *testing.T) {
	m, owner := newTestManager(t)

	if _, err := m.Create(ctx, owner, "hedera", nil); err == nil {
		t.Error("unknown method should fail")
	}
}

func TestCreate_simulatedBackend(t *testing.T) {
	m, owner := newTestManager(t)

	// The cred backend gateway is unconfigured, so creation falls back to
	// a deterministic simulated identity under the default policy.
	rec, err := m.Create(ctx, owner, "cred", nil)
	if err != nil {
		t.Fatal(err)
	}
	if rec.Source != ledger.SourceSimulated {
		t.Errorf("expected SIMULATED source, got %q", rec.Source)
	}
	if !strings.HasPrefix(rec.DID, "did:cred:") {
		t.Errorf("did %q should use the cred method", rec.DID)
	}
}

func TestResolve_notFound(t *testing.T) {
	m, _ := newTestManager(t)

	if _, err := m.Resolve(ctx, "did:chain:missing"); !errors.Is(err, did.ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestResolveDocument(t *testing.T) {
	m, owner := newTestManager(t)

	rec, err := m.Create(ctx, owner, "chain", nil)
	if err != nil {
		t.Fatal(err)
	}

	doc, err := m.ResolveDocument(ctx, rec.DID)
	if err != nil {
		t.Fatal(err)
	}
	if doc.ID != rec.DID {
		t.Errorf("document id: got %q, want %q", doc.ID, rec.DID)
	}
	if len(doc.VerificationMethod) != 1 {
		t.Fatalf("expected 1 verification method, got %d", len(doc.VerificationMethod))
	}
	if doc.VerificationMethod[0].Controller != rec.DID {
		t.Errorf("controller: got %q", doc.VerificationMethod[0].Controller)
	}
}

func TestListByPrincipal(t *testing.T) {
	m, owner := newTestManager(t)

	if _, err := m.Create(ctx, owner, "chain", nil); err != nil {
		t.Fatal(err)
	}
	exp := time.Now().Add(24 * time.Hour).UTC()
	if _, err := m.Create(ctx, owner, "chain", &exp); err != nil {
		t.Fatal(err)
	}

	recs, err := m.ListByPrincipal(ctx, owner)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 2 {
		t.Errorf("expected 2 dids, got %d", len(recs))
	}
}
