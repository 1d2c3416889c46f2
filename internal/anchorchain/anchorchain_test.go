package anchorchain_test

import (
	"context"
	"testing"

	"github.com/quantumtrust/trustcore/internal/anchorchain"
)

var ctx = context.Background()

func TestNew_genesisEntry(t *testing.T) {
	c := anchorchain.New()

	n, err := c.Len(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("expected 1 genesis entry, got %d", n)
	}

	entry, err := c.Get(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if entry.Action != "genesis" {
		t.Errorf("expected action 'genesis', got %q", entry.Action)
	}
	if entry.Hash != anchorchain.GenesisHash {
		t.Errorf("genesis hash: got %q, want GenesisHash", entry.Hash)
	}
}

func TestAppend_chainsCorrectly(t *testing.T) {
	c := anchorchain.New()

	e1, err := c.Append(ctx, "did:chain:abc", "did.create", "alice", map[string]string{"key": "val"})
	if err != nil {
		t.Fatal(err)
	}

	e2, err := c.Append(ctx, "did:chain:abc", "did.revoke", "trustcore-system", nil)
	if err != nil {
		t.Fatal(err)
	}

	if e2.PrevHash != e1.Hash {
		t.Errorf("chain broken: e2.PrevHash=%q, want e1.Hash=%q", e2.PrevHash, e1.Hash)
	}

	n, err := c.Len(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 { // genesis + 2
		t.Errorf("expected 3 entries, got %d", n)
	}
}

func TestVerify_valid(t *testing.T) {
	c := anchorchain.New()
	_, _ = c.Append(ctx, "did:chain:abc", "did.create", "alice", nil)
	_, _ = c.Append(ctx, "doc-1", "document.anchor", "alice", map[string]string{"content_hash": "deadbeef"})

	if err := c.Verify(ctx); err != nil {
		t.Errorf("Verify() failed on valid chain: %v", err)
	}
}

func TestRoot_returnsLastHash(t *testing.T) {
	c := anchorchain.New()
	e, _ := c.Append(ctx, "did:chain:abc", "did.create", "alice", nil)

	root, err := c.Root(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if root != e.Hash {
		t.Errorf("Root(): got %q, want %q", root, e.Hash)
	}
}

func TestGetByHash(t *testing.T) {
	c := anchorchain.New()
	e, _ := c.Append(ctx, "doc-1", "document.anchor", "alice", nil)

	got, err := c.GetByHash(ctx, e.Hash)
	if err != nil {
		t.Fatal(err)
	}
	if got.Index != e.Index {
		t.Errorf("GetByHash(): got index %d, want %d", got.Index, e.Index)
	}

	if _, err := c.GetByHash(ctx, "not-a-hash"); err == nil {
		t.Error("GetByHash() with unknown hash should fail")
	}
}

func TestVerify_genesisOnlyChain(t *testing.T) {
	c := anchorchain.New()
	if err := c.Verify(ctx); err != nil {
		t.Errorf("Verify() on genesis-only chain should pass: %v", err)
	}
}

func TestRoot_genesisOnly(t *testing.T) {
	c := anchorchain.New()
	root, err := c.Root(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if root != anchorchain.GenesisHash {
		t.Errorf("Root() on genesis-only: got %q, want GenesisHash", root)
	}
}
