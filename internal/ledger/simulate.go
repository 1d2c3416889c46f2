package ledger

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"
)

// simDigest computes the deterministic digest that seeds every simulated
// response: SHA-256 over a canonical rendering of (backend, operation, args).
// Identical requests always produce identical digests, so a simulated
// fallback is idempotent and safe to retry.
func simDigest(backend Backend, operation string, parts ...string) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|%s", backend, operation, strings.Join(parts, "|"))
	return hex.EncodeToString(h.Sum(nil))
}

// canonicalArgs renders an argument map as "k=v" pairs in sorted key order.
func canonicalArgs(args map[string]string) string {
	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+args[k])
	}
	return strings.Join(pairs, ",")
}

// simulateCreateIdentity derives an identity record from the request alone.
// The timestamp is pinned to the zero instant so repeated invocations are
// byte-identical.
func simulateCreateIdentity(backend Backend, seed string) *IdentityRecord {
	d := simDigest(backend, "createIdentity", seed)
	return &IdentityRecord{
		ID:              "sim-" + d[:32],
		VerificationKey: simDigest(backend, "verificationKey", seed),
		Backend:         backend,
		CreatedAt:       time.Unix(0, 0).UTC(),
	}
}

// simulateResolveIdentity derives a resolution result from the identifier alone.
func simulateResolveIdentity(backend Backend, id string) *IdentityRecord {
	return &IdentityRecord{
		ID:              id,
		VerificationKey: simDigest(backend, "verificationKey", id),
		Backend:         backend,
		CreatedAt:       time.Unix(0, 0).UTC(),
	}
}

// simulateAnchor derives an anchor reference from the payload hash alone.
func simulateAnchor(backend Backend, payloadHash string, meta map[string]string) *AnchorRef {
	d := simDigest(backend, "anchor", payloadHash, canonicalArgs(meta))
	return &AnchorRef{
		TxID:      "sim-tx-" + d[:32],
		Backend:   backend,
		Timestamp: time.Unix(0, 0).UTC(),
	}
}

// simulateCall derives an invoke/query result from the function and arguments.
func simulateCall(backend Backend, operation, function string, args map[string]string) map[string]string {
	d := simDigest(backend, operation, function, canonicalArgs(args))
	return map[string]string{
		"function": function,
		"result":   d,
	}
}
