package credential_test

import (
	"testing"

	"github.com/quantumtrust/trustcore/internal/credential"
	"github.com/quantumtrust/trustcore/internal/did"
)

func TestExportJWT_roundTrip(t *testing.T) {
	f := newFixture(t)

	cred, err := f.engine.Issue(ctx, f.issuer, f.holder, "IdentityCredential",
		map[string]any{"name": "Alice"}, nil)
	if err != nil {
		t.Fatal(err)
	}

	key, err := f.keys.Get(f.issuer)
	if err != nil {
		t.Fatal(err)
	}

	token, err := f.engine.ExportJWT(cred, key)
	if err != nil {
		t.Fatal(err)
	}

	issuerRec, err := f.dids.Resolve(ctx, f.issuer)
	if err != nil {
		t.Fatal(err)
	}
	pub, err := did.ParsePublicKeyJWK(issuerRec.PublicKeyJWK)
	if err != nil {
		t.Fatal(err)
	}

	claims, err := credential.VerifyJWT(token, pub)
	if err != nil {
		t.Fatal(err)
	}
	if claims.Issuer != f.issuer {
		t.Errorf("jwt issuer: got %q, want %q", claims.Issuer, f.issuer)
	}
	if claims.Subject != f.holder {
		t.Errorf("jwt subject: got %q, want %q", claims.Subject, f.holder)
	}
	subject, ok := claims.VC["credentialSubject"].(map[string]any)
	if !ok || subject["name"] != "Alice" {
		t.Errorf("vc claim payload: got %v", claims.VC["credentialSubject"])
	}
}

func TestVerifyJWT_wrongKey(t *testing.T) {
	f := newFixture(t)

	cred, err := f.engine.Issue(ctx, f.issuer, f.holder, "IdentityCredential", nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	key, _ := f.keys.Get(f.issuer)
	token, err := f.engine.ExportJWT(cred, key)
	if err != nil {
		t.Fatal(err)
	}

	otherPub, _, err := did.GenerateKey()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := credential.VerifyJWT(token, otherPub); err == nil {
		t.Error("jwt should not verify under a different key")
	}
}
