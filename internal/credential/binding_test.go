package credential

import (
	"crypto/ed25519"
	"crypto/rand"
	"testing"
)

func TestSigningBase_deterministic(t *testing.T) {
	claims := map[string]any{"b": 2, "a": "one", "nested": map[string]any{"y": true, "x": 1}}

	b1, err := signingBase("did:chain:i", "did:chain:h", []string{BaseType, "T"}, claims)
	if err != nil {
		t.Fatal(err)
	}
	b2, err := signingBase("did:chain:i", "did:chain:h", []string{BaseType, "T"}, claims)
	if err != nil {
		t.Fatal(err)
	}
	if string(b1) != string(b2) {
		t.Error("signing base not deterministic")
	}

	b3, _ := signingBase("did:chain:i", "did:chain:h", []string{BaseType, "T"},
		map[string]any{"b": 2, "a": "one", "nested": map[string]any{"y": true, "x": 2}})
	if string(b1) == string(b3) {
		t.Error("different claims must produce a different signing base")
	}
}

func TestBuildProof_deterministicSignature(t *testing.T) {
	_, key, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	claims := map[string]any{"name": "Alice"}

	p1, err := buildProof("did:chain:i", key, "did:chain:h", []string{BaseType}, claims)
	if err != nil {
		t.Fatal(err)
	}
	p2, err := buildProof("did:chain:i", key, "did:chain:h", []string{BaseType}, claims)
	if err != nil {
		t.Fatal(err)
	}
	if p1.ProofValue != p2.ProofValue {
		t.Error("ed25519 proof should be deterministic for identical content")
	}
	if p1.VerificationMethod != "did:chain:i#key-1" {
		t.Errorf("verification method: got %q", p1.VerificationMethod)
	}
}

func TestVerifyProof_rejectsTamperedValue(t *testing.T) {
	pub, key, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	claims := map[string]any{"name": "Alice"}
	proof, err := buildProof("did:chain:i", key, "did:chain:h", []string{BaseType}, claims)
	if err != nil {
		t.Fatal(err)
	}

	c := &Credential{
		Issuer: "did:chain:i",
		Holder: "did:chain:h",
		Types:  []string{BaseType},
		Claims: claims,
		Proof:  proof,
	}
	if !verifyProof(pub, c) {
		t.Fatal("untampered proof should verify")
	}

	c.Proof.ProofValue = "AAAA" + c.Proof.ProofValue[4:]
	if verifyProof(pub, c) {
		t.Error("tampered proof value should not verify")
	}

	c.Proof = proof
	c.Proof.ProofValue = "%%not-base64%%"
	if verifyProof(pub, c) {
		t.Error("undecodable proof value should not verify")
	}
}
