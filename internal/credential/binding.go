package credential

import (
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"
)

// proofType names the binding scheme carried in Proof.Type.
const proofType = "Ed25519Signature2020"

// signingBase builds the canonical byte representation of a credential's
// bound content. encoding/json sorts map keys, so two credentials with the
// same issuer, holder, types, and claims always produce identical bytes —
// the proof is a pure function of the content.
func signingBase(issuer, holder string, types []string, claims map[string]any) ([]byte, error) {
	// Round-trip the claims through a generic map so any nested structs
	// also canonicalise to sorted-key JSON.
	rawClaims, err := json.Marshal(claims)
	if err != nil {
		return nil, fmt.Errorf("marshal claims: %w", err)
	}
	var normClaims map[string]any
	if err := json.Unmarshal(rawClaims, &normClaims); err != nil {
		return nil, fmt.Errorf("normalise claims: %w", err)
	}

	base, err := json.Marshal(map[string]any{
		"issuer": issuer,
		"holder": holder,
		"types":  types,
		"claims": normClaims,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal signing base: %w", err)
	}
	return base, nil
}

// buildProof signs the credential content with the issuer's key. Ed25519 is
// deterministic, so re-signing identical content yields an identical
// ProofValue.
func buildProof(issuer string, key ed25519.PrivateKey, holder string, types []string, claims map[string]any) (Proof, error) {
	base, err := signingBase(issuer, holder, types, claims)
	if err != nil {
		return Proof{}, err
	}
	sig := ed25519.Sign(key, base)
	return Proof{
		Type:               proofType,
		Created:            time.Now().UTC(),
		ProofPurpose:       "assertionMethod",
		VerificationMethod: issuer + "#key-1",
		ProofValue:         base64.RawURLEncoding.EncodeToString(sig),
	}, nil
}

// verifyProof recomputes the signing base from the credential's current
// content and checks the stored proof value against the issuer's public key.
func verifyProof(pub ed25519.PublicKey, c *Credential) bool {
	base, err := signingBase(c.Issuer, c.Holder, c.Types, c.Claims)
	if err != nil {
		return false
	}
	sig, err := base64.RawURLEncoding.DecodeString(c.Proof.ProofValue)
	if err != nil {
		return false
	}
	return ed25519.Verify(pub, base, sig)
}
