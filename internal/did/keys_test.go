package did_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/quantumtrust/trustcore/internal/did"
)

func TestPublicKeyJWK_roundTrip(t *testing.T) {
	pub, _, err := did.GenerateKey()
	if err != nil {
		t.Fatal(err)
	}

	jwk, err := did.PublicKeyJWK("did:chain:abc", pub)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(jwk, `"kid":"did:chain:abc#key-1"`) {
		t.Errorf("jwk missing key id: %s", jwk)
	}

	parsed, err := did.ParsePublicKeyJWK(jwk)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(parsed, pub) {
		t.Error("parsed public key differs from original")
	}
}

func TestParsePublicKeyJWK_rejectsGarbage(t *testing.T) {
	if _, err := did.ParsePublicKeyJWK("{not json"); err == nil {
		t.Error("garbage jwk should fail to parse")
	}
}

func TestMemoryKeystore(t *testing.T) {
	ks := did.NewMemoryKeystore()

	_, priv, err := did.GenerateKey()
	if err != nil {
		t.Fatal(err)
	}
	if err := ks.Put("did:chain:abc", priv); err != nil {
		t.Fatal(err)
	}

	got, err := ks.Get("did:chain:abc")
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, priv) {
		t.Error("keystore returned a different key")
	}

	if _, err := ks.Get("did:chain:other"); err == nil {
		t.Error("unknown did should have no key")
	}
}
