package ledger_test

import (
	"errors"
	"testing"

	"github.com/quantumtrust/trustcore/internal/anchorchain"
	"github.com/quantumtrust/trustcore/internal/ledger"
	"go.uber.org/zap"
)

func TestChainAdapter_anchorIsQueryable(t *testing.T) {
	chain := anchorchain.New()
	a := ledger.NewChainAdapter(chain, zap.NewNop())

	ref, err := a.Anchor(ctx, "cafebabe", map[string]string{"document_id": "doc-1"})
	if err != nil {
		t.Fatal(err)
	}
	if ref.TxID == "" {
		t.Fatal("expected a transaction id")
	}

	out, err := a.Query(ctx, "getAnchor", map[string]string{"tx_id": ref.TxID})
	if err != nil {
		t.Fatal(err)
	}
	if out["subject"] != "cafebabe" {
		t.Errorf("anchor subject: got %q, want payload hash", out["subject"])
	}

	// The anchor entry must be part of an intact chain.
	if err := chain.Verify(ctx); err != nil {
		t.Errorf("chain verify after anchor: %v", err)
	}
}

func TestChainAdapter_recordTransition(t *testing.T) {
	a := ledger.NewChainAdapter(anchorchain.New(), zap.NewNop())

	out, err := a.Invoke(ctx, "recordTransition", map[string]string{
		"subject": "did:chain:abc",
		"action":  "did.revoke",
		"actor":   "alice",
	})
	if err != nil {
		t.Fatal(err)
	}
	if out["tx_id"] == "" {
		t.Error("expected a transition tx id")
	}
}

func TestChainAdapter_unknownFunction(t *testing.T) {
	a := ledger.NewChainAdapter(anchorchain.New(), zap.NewNop())

	if _, err := a.Invoke(ctx, "mint", nil); err == nil {
		t.Error("unknown invoke function should fail")
	}
	if _, err := a.Query(ctx, "balances", nil); err == nil {
		t.Error("unknown query function should fail")
	}
}

func TestGatewayAdapters_unconfiguredAreUnavailable(t *testing.T) {
	logger := zap.NewNop()

	cred := ledger.NewCredentialAdapter("", 0, logger)
	if _, err := cred.ResolveIdentity(ctx, "x"); !errors.Is(err, ledger.ErrBackendUnavailable) {
		t.Errorf("credential adapter: got %v, want ErrBackendUnavailable", err)
	}

	channel := ledger.NewChannelAdapter("", "", 0, logger)
	if _, err := channel.Anchor(ctx, "hash", nil); !errors.Is(err, ledger.ErrBackendUnavailable) {
		t.Errorf("channel adapter: got %v, want ErrBackendUnavailable", err)
	}
}
