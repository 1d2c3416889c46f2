package ledger

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// ChannelAdapter serves the channel-ledger backend: a Fabric-style
// permissioned ledger reached through a channel gateway. Invoke submits a
// chaincode transaction on the configured channel; Query evaluates one.
// The gateway handle is created once at construction.
type ChannelAdapter struct {
	gw      *gatewayClient
	channel string
	logger  *zap.Logger
}

// NewChannelAdapter creates a ChannelAdapter targeting gatewayURL on the
// given channel name.
func NewChannelAdapter(gatewayURL, channel string, timeout time.Duration, logger *zap.Logger) *ChannelAdapter {
	if channel == "" {
		channel = "trustchannel"
	}
	return &ChannelAdapter{
		gw:      newGatewayClient(gatewayURL, timeout),
		channel: channel,
		logger:  logger,
	}
}

// Name implements Capability.
func (a *ChannelAdapter) Name() Backend { return BackendChannel }

// CreateIdentity implements Capability. Identity enrollment is a chaincode
// invoke on the identity contract.
func (a *ChannelAdapter) CreateIdentity(ctx context.Context, seed string) (*IdentityRecord, error) {
	var out IdentityRecord
	req := map[string]string{"channel": a.channel, "seed": seed}
	if err := a.gw.post(ctx, "/channels/identity/enroll", req, &out); err != nil {
		return nil, err
	}
	out.Backend = BackendChannel
	return &out, nil
}

// ResolveIdentity implements Capability.
func (a *ChannelAdapter) ResolveIdentity(ctx context.Context, id string) (*IdentityRecord, error) {
	var out IdentityRecord
	req := map[string]string{"channel": a.channel, "id": id}
	if err := a.gw.post(ctx, "/channels/identity/resolve", req, &out); err != nil {
		return nil, err
	}
	out.Backend = BackendChannel
	return &out, nil
}

// Anchor implements Capability.
func (a *ChannelAdapter) Anchor(ctx context.Context, payloadHash string, meta map[string]string) (*AnchorRef, error) {
	var out AnchorRef
	req := map[string]any{"channel": a.channel, "payload_hash": payloadHash, "meta": meta}
	if err := a.gw.post(ctx, "/channels/anchor", req, &out); err != nil {
		return nil, err
	}
	out.Backend = BackendChannel
	if out.Timestamp.IsZero() {
		out.Timestamp = time.Now().UTC()
	}
	return &out, nil
}

// Invoke implements Capability.
func (a *ChannelAdapter) Invoke(ctx context.Context, function string, args map[string]string) (map[string]string, error) {
	var out map[string]string
	req := map[string]any{"channel": a.channel, "function": function, "args": args}
	if err := a.gw.post(ctx, "/channels/invoke", req, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Query implements Capability.
func (a *ChannelAdapter) Query(ctx context.Context, function string, args map[string]string) (map[string]string, error) {
	var out map[string]string
	req := map[string]any{"channel": a.channel, "function": function, "args": args}
	if err := a.gw.post(ctx, "/channels/query", req, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Close implements Capability.
func (a *ChannelAdapter) Close() error {
	a.gw.http.CloseIdleConnections()
	return nil
}
