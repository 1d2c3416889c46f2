package ledger_test

import (
	"context"
	"errors"
	"testing"

	"github.com/quantumtrust/trustcore/internal/anchorchain"
	"github.com/quantumtrust/trustcore/internal/ledger"
	"go.uber.org/zap"
)

var ctx = context.Background()

func newTestRouter(policy ledger.FallbackPolicy) *ledger.Router {
	logger := zap.NewNop()
	chain := ledger.NewChainAdapter(anchorchain.New(), logger)
	// Unconfigured gateways: every call reports BackendUnavailable.
	cred := ledger.NewCredentialAdapter("", 0, logger)
	channel := ledger.NewChannelAdapter("", "", 0, logger)
	return ledger.NewRouter(policy, logger, chain, cred, channel)
}

func TestCreateIdentity_liveChain(t *testing.T) {
	r := newTestRouter(ledger.DefaultFallbackPolicy())

	res, err := r.CreateIdentity(ctx, ledger.BackendChain, "pubkey-material")
	if err != nil {
		t.Fatal(err)
	}
	if res.Source != ledger.SourceLive {
		t.Errorf("chain backend should be live, got source %q", res.Source)
	}
	if res.Record.ID == "" {
		t.Error("expected a non-empty identity id")
	}
	if res.Record.VerificationKey != "pubkey-material" {
		t.Errorf("seed should become the verification key, got %q", res.Record.VerificationKey)
	}

	resolved, err := r.ResolveIdentity(ctx, ledger.BackendChain, res.Record.ID)
	if err != nil {
		t.Fatal(err)
	}
	if resolved.Source != ledger.SourceLive {
		t.Errorf("resolve on live chain: got source %q", resolved.Source)
	}
	if resolved.Record.ID != res.Record.ID {
		t.Errorf("resolved id %q, want %q", resolved.Record.ID, res.Record.ID)
	}
}

func TestResolveIdentity_notFoundIsAuthoritative(t *testing.T) {
	r := newTestRouter(ledger.DefaultFallbackPolicy())

	_, err := r.ResolveIdentity(ctx, ledger.BackendChain, "no-such-id")
	if !errors.Is(err, ledger.ErrNotFound) {
		t.Errorf("expected ErrNotFound from live backend, got %v", err)
	}
}

func TestFallback_simulatedIsDeterministic(t *testing.T) {
	r := newTestRouter(ledger.DefaultFallbackPolicy())

	a, err := r.CreateIdentity(ctx, ledger.BackendCredential, "seed-1")
	if err != nil {
		t.Fatal(err)
	}
	b, err := r.CreateIdentity(ctx, ledger.BackendCredential, "seed-1")
	if err != nil {
		t.Fatal(err)
	}

	if a.Source != ledger.SourceSimulated || b.Source != ledger.SourceSimulated {
		t.Fatalf("expected simulated results, got %q / %q", a.Source, b.Source)
	}
	if *a.Record != *b.Record {
		t.Errorf("simulated fallback not deterministic:\n a=%+v\n b=%+v", a.Record, b.Record)
	}

	c, _ := r.CreateIdentity(ctx, ledger.BackendCredential, "seed-2")
	if c.Record.ID == a.Record.ID {
		t.Error("different seeds should produce different simulated identities")
	}
}

func TestFallback_queryDeterministic(t *testing.T) {
	r := newTestRouter(ledger.DefaultFallbackPolicy())
	args := map[string]string{"id": "x", "field": "status"}

	a, err := r.Query(ctx, ledger.BackendChannel, "getState", args)
	if err != nil {
		t.Fatal(err)
	}
	b, err := r.Query(ctx, ledger.BackendChannel, "getState", args)
	if err != nil {
		t.Fatal(err)
	}
	if a.Payload["result"] != b.Payload["result"] {
		t.Errorf("simulated query not deterministic: %q vs %q", a.Payload["result"], b.Payload["result"])
	}
}

func TestAnchor_defaultPolicyPropagates(t *testing.T) {
	r := newTestRouter(ledger.DefaultFallbackPolicy())

	_, err := r.Anchor(ctx, ledger.BackendCredential, "deadbeef", nil)
	if !errors.Is(err, ledger.ErrBackendUnavailable) {
		t.Errorf("anchor on unavailable backend should propagate, got %v", err)
	}
}

func TestAnchor_simulatePolicy(t *testing.T) {
	policy := ledger.DefaultFallbackPolicy()
	policy.Anchor = ledger.PolicySimulate
	r := newTestRouter(policy)

	a, err := r.Anchor(ctx, ledger.BackendCredential, "deadbeef", map[string]string{"doc": "1"})
	if err != nil {
		t.Fatal(err)
	}
	if a.Source != ledger.SourceSimulated {
		t.Fatalf("expected simulated anchor, got %q", a.Source)
	}

	b, _ := r.Anchor(ctx, ledger.BackendCredential, "deadbeef", map[string]string{"doc": "1"})
	if a.Ref.TxID != b.Ref.TxID {
		t.Errorf("simulated anchors differ: %q vs %q", a.Ref.TxID, b.Ref.TxID)
	}
}

func TestStrictPolicy_propagatesEverything(t *testing.T) {
	r := newTestRouter(ledger.StrictFallbackPolicy())

	if _, err := r.ResolveIdentity(ctx, ledger.BackendChannel, "x"); !errors.Is(err, ledger.ErrBackendUnavailable) {
		t.Errorf("strict resolve should propagate, got %v", err)
	}
	if _, err := r.CreateIdentity(ctx, ledger.BackendCredential, ""); !errors.Is(err, ledger.ErrBackendUnavailable) {
		t.Errorf("strict create should propagate, got %v", err)
	}
}

func TestMethodBackend(t *testing.T) {
	b, err := ledger.MethodBackend("chain")
	if err != nil {
		t.Fatal(err)
	}
	if b != ledger.BackendChain {
		t.Errorf("method chain: got %q", b)
	}

	if _, err := ledger.MethodBackend("bogus"); err == nil {
		t.Error("unknown method should fail")
	}

	if m := ledger.BackendMethod(ledger.BackendChannel); m != "channel" {
		t.Errorf("BackendMethod(channel-ledger): got %q", m)
	}
}

func TestRouter_unknownBackend(t *testing.T) {
	r := ledger.NewRouter(ledger.DefaultFallbackPolicy(), zap.NewNop())
	if _, err := r.ResolveIdentity(ctx, ledger.BackendChain, "x"); err == nil {
		t.Error("router with no adapters should fail")
	}
}
