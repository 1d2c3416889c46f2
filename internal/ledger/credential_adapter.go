package ledger

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// CredentialAdapter serves the credential-ledger backend through a remote
// ledger gateway (an Indy-style identity ledger). The gateway connection is
// established once at construction.
type CredentialAdapter struct {
	gw     *gatewayClient
	logger *zap.Logger
}

// NewCredentialAdapter creates a CredentialAdapter targeting gatewayURL.
func NewCredentialAdapter(gatewayURL string, timeout time.Duration, logger *zap.Logger) *CredentialAdapter {
	return &CredentialAdapter{
		gw:     newGatewayClient(gatewayURL, timeout),
		logger: logger,
	}
}

// Name implements Capability.
func (a *CredentialAdapter) Name() Backend { return BackendCredential }

// CreateIdentity implements Capability.
func (a *CredentialAdapter) CreateIdentity(ctx context.Context, seed string) (*IdentityRecord, error) {
	var out IdentityRecord
	if err := a.gw.post(ctx, "/identities", map[string]string{"seed": seed}, &out); err != nil {
		return nil, err
	}
	out.Backend = BackendCredential
	return &out, nil
}

// ResolveIdentity implements Capability.
func (a *CredentialAdapter) ResolveIdentity(ctx context.Context, id string) (*IdentityRecord, error) {
	var out IdentityRecord
	if err := a.gw.post(ctx, "/identities/resolve", map[string]string{"id": id}, &out); err != nil {
		return nil, err
	}
	out.Backend = BackendCredential
	return &out, nil
}

// Anchor implements Capability.
func (a *CredentialAdapter) Anchor(ctx context.Context, payloadHash string, meta map[string]string) (*AnchorRef, error) {
	var out AnchorRef
	req := map[string]any{"payload_hash": payloadHash, "meta": meta}
	if err := a.gw.post(ctx, "/anchors", req, &out); err != nil {
		return nil, err
	}
	out.Backend = BackendCredential
	if out.Timestamp.IsZero() {
		out.Timestamp = time.Now().UTC()
	}
	return &out, nil
}

// Invoke implements Capability.
func (a *CredentialAdapter) Invoke(ctx context.Context, function string, args map[string]string) (map[string]string, error) {
	var out map[string]string
	req := map[string]any{"function": function, "args": args}
	if err := a.gw.post(ctx, "/invoke", req, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Query implements Capability.
func (a *CredentialAdapter) Query(ctx context.Context, function string, args map[string]string) (map[string]string, error) {
	var out map[string]string
	req := map[string]any{"function": function, "args": args}
	if err := a.gw.post(ctx, "/query", req, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Close implements Capability.
func (a *CredentialAdapter) Close() error {
	a.gw.http.CloseIdleConnections()
	return nil
}
