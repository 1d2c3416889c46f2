package ledger

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// Policy decides how the Router reacts when an adapter reports
// ErrBackendUnavailable for a given operation.
type Policy int

const (
	// PolicyPropagate surfaces the failure to the caller.
	PolicyPropagate Policy = iota
	// PolicySimulate substitutes a deterministic, SIMULATED-tagged result
	// computed from the request alone.
	PolicySimulate
)

// FallbackPolicy configures the per-operation fallback behaviour.
type FallbackPolicy struct {
	CreateIdentity  Policy
	ResolveIdentity Policy
	Anchor          Policy
	Invoke          Policy
	Query           Policy
}

// DefaultFallbackPolicy simulates read paths and identity creation but
// propagates failures of state-mutating anchor and invoke operations, which
// must not pretend to have reached a ledger.
func DefaultFallbackPolicy() FallbackPolicy {
	return FallbackPolicy{
		CreateIdentity:  PolicySimulate,
		ResolveIdentity: PolicySimulate,
		Anchor:          PolicyPropagate,
		Invoke:          PolicyPropagate,
		Query:           PolicySimulate,
	}
}

// StrictFallbackPolicy propagates every backend failure. Production posture.
func StrictFallbackPolicy() FallbackPolicy {
	return FallbackPolicy{
		CreateIdentity:  PolicyPropagate,
		ResolveIdentity: PolicyPropagate,
		Anchor:          PolicyPropagate,
		Invoke:          PolicyPropagate,
		Query:           PolicyPropagate,
	}
}

// ErrUnknownMethod is returned for a DID method no backend serves.
var ErrUnknownMethod = errors.New("unknown did method")

// methodBackends maps DID method tags to backends. Dispatch is by this table,
// never by inspecting payloads.
var methodBackends = map[string]Backend{
	"chain":   BackendChain,
	"cred":    BackendCredential,
	"channel": BackendChannel,
}

// MethodBackend returns the backend serving the given DID method tag.
func MethodBackend(method string) (Backend, error) {
	b, ok := methodBackends[method]
	if !ok {
		return "", fmt.Errorf("%q: %w", method, ErrUnknownMethod)
	}
	return b, nil
}

// BackendMethod returns the DID method tag served by the given backend.
func BackendMethod(backend Backend) string {
	for m, b := range methodBackends {
		if b == backend {
			return m
		}
	}
	return ""
}

// Router dispatches ledger operations to the adapter registered for the
// target backend and applies the configured fallback policy when an adapter
// reports ErrBackendUnavailable.
type Router struct {
	adapters map[Backend]Capability
	policy   FallbackPolicy
	logger   *zap.Logger
}

// NewRouter creates a Router over the given adapters.
func NewRouter(policy FallbackPolicy, logger *zap.Logger, adapters ...Capability) *Router {
	m := make(map[Backend]Capability, len(adapters))
	for _, a := range adapters {
		m[a.Name()] = a
	}
	return &Router{adapters: m, policy: policy, logger: logger}
}

// adapter returns the adapter registered for backend.
func (r *Router) adapter(backend Backend) (Capability, error) {
	a, ok := r.adapters[backend]
	if !ok {
		return nil, fmt.Errorf("no adapter registered for backend %q", backend)
	}
	return a, nil
}

// CreateIdentity routes an identity creation to the target backend.
func (r *Router) CreateIdentity(ctx context.Context, backend Backend, seed string) (*IdentityResult, error) {
	a, err := r.adapter(backend)
	if err != nil {
		return nil, err
	}

	rec, err := a.CreateIdentity(ctx, seed)
	if err == nil {
		recordOp(backend, "createIdentity", SourceLive)
		return &IdentityResult{Record: rec, Source: SourceLive}, nil
	}
	if !errors.Is(err, ErrBackendUnavailable) {
		recordFailure(backend, "createIdentity")
		return nil, err
	}

	if r.policy.CreateIdentity == PolicyPropagate {
		recordFailure(backend, "createIdentity")
		return nil, fmt.Errorf("create identity on %s: %w", backend, err)
	}

	r.logger.Warn("backend unavailable, simulating identity creation",
		zap.String("backend", string(backend)),
		zap.Error(err),
	)
	recordOp(backend, "createIdentity", SourceSimulated)
	return &IdentityResult{Record: simulateCreateIdentity(backend, seed), Source: SourceSimulated}, nil
}

// ResolveIdentity routes an identity resolution to the target backend.
// ErrNotFound from a live backend is authoritative and never simulated over.
func (r *Router) ResolveIdentity(ctx context.Context, backend Backend, id string) (*IdentityResult, error) {
	a, err := r.adapter(backend)
	if err != nil {
		return nil, err
	}

	rec, err := a.ResolveIdentity(ctx, id)
	if err == nil {
		recordOp(backend, "resolveIdentity", SourceLive)
		return &IdentityResult{Record: rec, Source: SourceLive}, nil
	}
	if !errors.Is(err, ErrBackendUnavailable) {
		recordFailure(backend, "resolveIdentity")
		return nil, err
	}

	if r.policy.ResolveIdentity == PolicyPropagate {
		recordFailure(backend, "resolveIdentity")
		return nil, fmt.Errorf("resolve identity on %s: %w", backend, err)
	}

	r.logger.Warn("backend unavailable, simulating identity resolution",
		zap.String("backend", string(backend)),
		zap.String("id", id),
	)
	recordOp(backend, "resolveIdentity", SourceSimulated)
	return &IdentityResult{Record: simulateResolveIdentity(backend, id), Source: SourceSimulated}, nil
}

// Anchor routes an anchor submission to the target backend.
func (r *Router) Anchor(ctx context.Context, backend Backend, payloadHash string, meta map[string]string) (*AnchorResult, error) {
	a, err := r.adapter(backend)
	if err != nil {
		return nil, err
	}

	ref, err := a.Anchor(ctx, payloadHash, meta)
	if err == nil {
		recordOp(backend, "anchor", SourceLive)
		return &AnchorResult{Ref: ref, Source: SourceLive}, nil
	}
	if !errors.Is(err, ErrBackendUnavailable) {
		recordFailure(backend, "anchor")
		return nil, err
	}

	if r.policy.Anchor == PolicyPropagate {
		recordFailure(backend, "anchor")
		return nil, fmt.Errorf("anchor on %s: %w", backend, err)
	}

	r.logger.Warn("backend unavailable, simulating anchor",
		zap.String("backend", string(backend)),
		zap.String("payload_hash", payloadHash),
	)
	recordOp(backend, "anchor", SourceSimulated)
	return &AnchorResult{Ref: simulateAnchor(backend, payloadHash, meta), Source: SourceSimulated}, nil
}

// Invoke routes a state-mutating ledger function call to the target backend.
func (r *Router) Invoke(ctx context.Context, backend Backend, function string, args map[string]string) (*CallResult, error) {
	a, err := r.adapter(backend)
	if err != nil {
		return nil, err
	}

	payload, err := a.Invoke(ctx, function, args)
	if err == nil {
		recordOp(backend, "invoke", SourceLive)
		return &CallResult{Payload: payload, Source: SourceLive}, nil
	}
	if !errors.Is(err, ErrBackendUnavailable) {
		recordFailure(backend, "invoke")
		return nil, err
	}

	if r.policy.Invoke == PolicyPropagate {
		recordFailure(backend, "invoke")
		return nil, fmt.Errorf("invoke %q on %s: %w", function, backend, err)
	}

	recordOp(backend, "invoke", SourceSimulated)
	return &CallResult{Payload: simulateCall(backend, "invoke", function, args), Source: SourceSimulated}, nil
}

// Query routes a read-only ledger function call to the target backend.
func (r *Router) Query(ctx context.Context, backend Backend, function string, args map[string]string) (*CallResult, error) {
	a, err := r.adapter(backend)
	if err != nil {
		return nil, err
	}

	payload, err := a.Query(ctx, function, args)
	if err == nil {
		recordOp(backend, "query", SourceLive)
		return &CallResult{Payload: payload, Source: SourceLive}, nil
	}
	if !errors.Is(err, ErrBackendUnavailable) {
		recordFailure(backend, "query")
		return nil, err
	}

	if r.policy.Query == PolicyPropagate {
		recordFailure(backend, "query")
		return nil, fmt.Errorf("query %q on %s: %w", function, backend, err)
	}

	recordOp(backend, "query", SourceSimulated)
	return &CallResult{Payload: simulateCall(backend, "query", function, args), Source: SourceSimulated}, nil
}

// Close releases every registered adapter's resources.
func (r *Router) Close() error {
	var firstErr error
	for _, a := range r.adapters {
		if err := a.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
