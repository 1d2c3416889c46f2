package ledger

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/quantumtrust/trustcore/internal/anchorchain"
	"go.uber.org/zap"
)

// ChainAdapter serves the chain-ledger backend. Identities and anchors are
// recorded on a hash-chained anchor log; the chain (memory or Postgres) is
// the adapter's persistent connection, acquired once at construction.
type ChainAdapter struct {
	chain  anchorchain.Chain
	logger *zap.Logger

	mu         sync.RWMutex
	identities map[string]*IdentityRecord
}

// NewChainAdapter creates a ChainAdapter over the given anchor chain.
func NewChainAdapter(chain anchorchain.Chain, logger *zap.Logger) *ChainAdapter {
	return &ChainAdapter{
		chain:      chain,
		logger:     logger,
		identities: make(map[string]*IdentityRecord),
	}
}

// Name implements Capability.
func (a *ChainAdapter) Name() Backend { return BackendChain }

// CreateIdentity implements Capability. The seed, when present, is the
// caller-supplied verification key material; otherwise a key placeholder is
// derived from the generated identifier.
func (a *ChainAdapter) CreateIdentity(ctx context.Context, seed string) (*IdentityRecord, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("generate identity id: %w", err)
	}
	id := hex.EncodeToString(buf)

	key := seed
	if key == "" {
		key = simDigest(BackendChain, "verificationKey", id)
	}

	rec := &IdentityRecord{
		ID:              id,
		VerificationKey: key,
		Backend:         BackendChain,
		CreatedAt:       time.Now().UTC(),
	}

	if _, err := a.chain.Append(ctx, id, "identity.create", "chain-ledger", rec); err != nil {
		return nil, fmt.Errorf("%w: record identity on chain: %v", ErrBackendUnavailable, err)
	}

	a.mu.Lock()
	a.identities[id] = rec
	a.mu.Unlock()

	a.logger.Debug("chain identity created", zap.String("id", id))
	return rec, nil
}

// ResolveIdentity implements Capability.
func (a *ChainAdapter) ResolveIdentity(_ context.Context, id string) (*IdentityRecord, error) {
	a.mu.RLock()
	rec, ok := a.identities[id]
	a.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("identity %q: %w", id, ErrNotFound)
	}
	return rec, nil
}

// Anchor implements Capability. The anchor transaction ID is the hash of the
// appended chain entry, so the anchor can later be cross-checked via Query.
func (a *ChainAdapter) Anchor(ctx context.Context, payloadHash string, meta map[string]string) (*AnchorRef, error) {
	payload := map[string]any{"payload_hash": payloadHash, "meta": meta}
	entry, err := a.chain.Append(ctx, payloadHash, "anchor", "chain-ledger", payload)
	if err != nil {
		return nil, fmt.Errorf("%w: append anchor: %v", ErrBackendUnavailable, err)
	}
	return &AnchorRef{
		TxID:      entry.Hash,
		Backend:   BackendChain,
		Timestamp: entry.Timestamp,
	}, nil
}

// Invoke implements Capability. The chain ledger exposes a single mutating
// function, "recordTransition", which appends a lifecycle transition entry.
func (a *ChainAdapter) Invoke(ctx context.Context, function string, args map[string]string) (map[string]string, error) {
	switch function {
	case "recordTransition":
		entry, err := a.chain.Append(ctx, args["subject"], args["action"], args["actor"], args)
		if err != nil {
			return nil, fmt.Errorf("%w: record transition: %v", ErrBackendUnavailable, err)
		}
		return map[string]string{"tx_id": entry.Hash}, nil
	default:
		return nil, fmt.Errorf("chain-ledger has no function %q", function)
	}
}

// Query implements Capability. Supported functions: "getAnchor" (look up an
// anchor entry by transaction hash) and "chainRoot".
func (a *ChainAdapter) Query(ctx context.Context, function string, args map[string]string) (map[string]string, error) {
	switch function {
	case "getAnchor":
		entry, err := a.chain.GetByHash(ctx, args["tx_id"])
		if err != nil {
			return nil, fmt.Errorf("anchor %q: %w", args["tx_id"], ErrNotFound)
		}
		return map[string]string{
			"tx_id":     entry.Hash,
			"subject":   entry.Subject,
			"action":    entry.Action,
			"data_hash": entry.DataHash,
		}, nil
	case "chainRoot":
		root, err := a.chain.Root(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: chain root: %v", ErrBackendUnavailable, err)
		}
		return map[string]string{"root": root}, nil
	default:
		return nil, fmt.Errorf("chain-ledger has no function %q", function)
	}
}

// Close implements Capability. The chain itself is owned by the caller.
func (a *ChainAdapter) Close() error { return nil }
