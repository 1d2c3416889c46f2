package client_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/quantumtrust/trustcore/pkg/client"
)

// ── Stub server ─────────────────────────────────────────────────────────

func stubTrustServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("/api/v1/dids", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, `{"error":"bad json"}`, http.StatusBadRequest)
			return
		}
		if req["method"] == "carrier-pigeon" {
			http.Error(w, `{"error":"unknown did method"}`, http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{
			"did": map[string]any{
				"did":    "did:chain:abc123",
				"method": req["method"],
				"status": "ACTIVE",
				"source": "LIVE",
			},
		})
	})

	mux.HandleFunc("/api/v1/dids/", func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "missing") {
			http.Error(w, `{"error":"did not found"}`, http.StatusNotFound)
			return
		}
		status := "ACTIVE"
		if strings.HasSuffix(r.URL.Path, "/revoke") {
			status = "REVOKED"
		}
		json.NewEncoder(w).Encode(map[string]any{
			"did": map[string]any{"did": "did:chain:abc123", "status": status},
		})
	})

	mux.HandleFunc("/api/v1/credentials", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{
			"credential": map[string]any{
				"id":     "550e8400-e29b-41d4-a716-446655440000",
				"issuer": "did:chain:gov",
				"holder": "did:chain:abc123",
				"status": "ACTIVE",
			},
		})
	})

	mux.HandleFunc("/api/v1/credentials/550e8400-e29b-41d4-a716-446655440000/verify", func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"valid": true})
	})

	mux.HandleFunc("/api/v1/proofs", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{
			"proof": map[string]any{
				"id":         "c0ffee00-0000-0000-0000-000000000001",
				"commitment": strings.Repeat("ab", 32),
				"satisfied":  true,
			},
		})
	})

	mux.HandleFunc("/api/v1/ledger", func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"entries": 1, "root": strings.Repeat("0", 64)})
	})

	return httptest.NewServer(mux)
}

func TestCreateDID(t *testing.T) {
	srv := stubTrustServer(t)
	defer srv.Close()

	c, err := client.New(srv.URL)
	if err != nil {
		t.Fatal(err)
	}

	rec, err := c.CreateDID(context.Background(), "00000000-0000-0000-0000-000000000001", "chain")
	if err != nil {
		t.Fatal(err)
	}
	if rec.DID != "did:chain:abc123" {
		t.Errorf("unexpected did %q", rec.DID)
	}
	if rec.Status != "ACTIVE" {
		t.Errorf("unexpected status %q", rec.Status)
	}
}

func TestCreateDID_serverError(t *testing.T) {
	srv := stubTrustServer(t)
	defer srv.Close()

	c, err := client.New(srv.URL)
	if err != nil {
		t.Fatal(err)
	}

	_, err = c.CreateDID(context.Background(), "00000000-0000-0000-0000-000000000001", "carrier-pigeon")
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", apiErr.StatusCode)
	}
	if !strings.Contains(apiErr.Message, "unknown did method") {
		t.Errorf("error message lost: %q", apiErr.Message)
	}
}

func TestResolveDID_notFound(t *testing.T) {
	srv := stubTrustServer(t)
	defer srv.Close()

	c, err := client.New(srv.URL)
	if err != nil {
		t.Fatal(err)
	}

	_, err = c.ResolveDID(context.Background(), "did:chain:missing")
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 APIError, got %v", err)
	}
}

func TestRevokeDID(t *testing.T) {
	srv := stubTrustServer(t)
	defer srv.Close()

	c, err := client.New(srv.URL)
	if err != nil {
		t.Fatal(err)
	}

	rec, err := c.RevokeDID(context.Background(), "did:chain:abc123")
	if err != nil {
		t.Fatal(err)
	}
	if rec.Status != "REVOKED" {
		t.Errorf("expected REVOKED, got %q", rec.Status)
	}
}

func TestIssueAndVerifyCredential(t *testing.T) {
	srv := stubTrustServer(t)
	defer srv.Close()

	c, err := client.New(srv.URL)
	if err != nil {
		t.Fatal(err)
	}

	cred, err := c.IssueCredential(context.Background(), client.IssueCredentialRequest{
		Issuer: "did:chain:gov",
		Holder: "did:chain:abc123",
		Type:   "IdentityCredential",
		Claims: map[string]any{"name": "Alice"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if cred.Status != "ACTIVE" {
		t.Errorf("expected ACTIVE, got %q", cred.Status)
	}

	valid, err := c.VerifyCredential(context.Background(), cred.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !valid {
		t.Error("expected valid credential")
	}
}

func TestProve(t *testing.T) {
	srv := stubTrustServer(t)
	defer srv.Close()

	c, err := client.New(srv.URL)
	if err != nil {
		t.Fatal(err)
	}

	p, err := c.Prove(context.Background(), "2000-01-01", client.ProofParams{Kind: "age", MinimumAge: 21})
	if err != nil {
		t.Fatal(err)
	}
	if !p.Satisfied {
		t.Error("expected satisfied proof")
	}
	if len(p.Commitment) != 64 {
		t.Errorf("unexpected commitment length %d", len(p.Commitment))
	}
}

func TestLedger(t *testing.T) {
	srv := stubTrustServer(t)
	defer srv.Close()

	c, err := client.New(srv.URL)
	if err != nil {
		t.Fatal(err)
	}

	overview, err := c.Ledger(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if overview.Entries != 1 {
		t.Errorf("expected 1 entry, got %d", overview.Entries)
	}
}

func TestNew_emptyBase(t *testing.T) {
	if _, err := client.New(""); err == nil {
		t.Error("expected error for empty base URL")
	}
}
