// Package client provides the Trust Core Go SDK for managing DIDs,
// verifiable credentials, documents, and predicate proofs against a trustd
// server.
package client

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DIDRecord mirrors the DID record returned by the server.
type DIDRecord struct {
	DID          string     `json:"did"`
	Principal    string     `json:"principal"`
	Method       string     `json:"method"`
	Backend      string     `json:"backend"`
	PublicKeyJWK string     `json:"public_key_jwk"`
	Status       string     `json:"status"`
	Source       string     `json:"source"`
	CreatedAt    time.Time  `json:"created_at"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
}

// Credential mirrors the credential record returned by the server.
type Credential struct {
	ID           string         `json:"id"`
	Issuer       string         `json:"issuer"`
	Holder       string         `json:"holder"`
	Types        []string       `json:"types"`
	Claims       map[string]any `json:"claims"`
	Status       string         `json:"status"`
	IssuedAt     time.Time      `json:"issued_at"`
	ExpiresAt    *time.Time     `json:"expires_at,omitempty"`
	AnchorTxID   string         `json:"anchor_tx_id,omitempty"`
	AnchorSource string         `json:"anchor_source,omitempty"`
	Flagged      bool           `json:"flagged"`
	FlagReason   string         `json:"flag_reason,omitempty"`
}

// Document mirrors the document record returned by the server.
type Document struct {
	ID             string    `json:"id"`
	Owner          string    `json:"owner"`
	DID            string    `json:"did"`
	Type           string    `json:"type"`
	ContentHash    string    `json:"content_hash"`
	ContentAddress string    `json:"content_address"`
	Status         string    `json:"status"`
	AnchorTxID     string    `json:"anchor_tx_id,omitempty"`
	AnchorSource   string    `json:"anchor_source,omitempty"`
	VerifyNote     string    `json:"verify_note,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// ProofParams are the public predicate parameters for Prove.
type ProofParams struct {
	Kind          string     `json:"kind"`
	MinimumAge    int        `json:"minimum_age,omitempty"`
	MinimumIncome int64      `json:"minimum_income,omitempty"`
	Region        string     `json:"region,omitempty"`
	ReferenceDate *time.Time `json:"reference_date,omitempty"`
}

// ProofResult is the commitment bundle returned by Prove.
type ProofResult struct {
	ID           string          `json:"id"`
	Commitment   string          `json:"commitment"`
	PublicInputs json.RawMessage `json:"public_inputs"`
	Satisfied    bool            `json:"satisfied"`
}

// LedgerOverview summarises the anchor chain.
type LedgerOverview struct {
	Entries int    `json:"entries"`
	Root    string `json:"root"`
}

// IssueCredentialRequest is the payload for IssueCredential.
type IssueCredentialRequest struct {
	Issuer    string         `json:"issuer"`
	Holder    string         `json:"holder"`
	Type      string         `json:"type"`
	Claims    map[string]any `json:"claims"`
	ExpiresAt *time.Time     `json:"expires_at,omitempty"`
}

// UploadDocumentRequest is the payload for UploadDocument. Content is raw
// bytes; the SDK base64-encodes it on the wire.
type UploadDocumentRequest struct {
	OwnerID string
	DID     string
	Type    string
	Content []byte
}

// Client is the Trust Core SDK entry point.
type Client struct {
	base       string
	httpClient *http.Client
}

// Option is a functional option for configuring a Client.
type Option func(*Client) error

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) error {
		c.httpClient = hc
		return nil
	}
}

// WithTimeout sets the request timeout on the default http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) error {
		c.httpClient.Timeout = d
		return nil
	}
}

// WithInsecureSkipVerify disables TLS certificate verification.
// Only use this in development against a locally-generated CA.
func WithInsecureSkipVerify() Option {
	return func(c *Client) error {
		c.httpClient = &http.Client{
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true}, //nolint:gosec
			},
			Timeout: 10 * time.Second,
		}
		return nil
	}
}

// New creates a Client connected to the trustd server at base.
func New(base string, opts ...Option) (*Client, error) {
	if base == "" {
		return nil, fmt.Errorf("server base URL is required")
	}
	c := &Client{
		base:       strings.TrimRight(base, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, o := range opts {
		if err := o(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// CreateDID registers a new DID for a principal via the given method.
func (c *Client) CreateDID(ctx context.Context, principalID, method string) (*DIDRecord, error) {
	var resp struct {
		DID *DIDRecord `json:"did"`
	}
	err := c.do(ctx, http.MethodPost, "/api/v1/dids", map[string]string{
		"principal_id": principalID,
		"method":       method,
	}, &resp)
	return resp.DID, err
}

// ResolveDID returns the record for a DID, whatever its status.
func (c *Client) ResolveDID(ctx context.Context, did string) (*DIDRecord, error) {
	var resp struct {
		DID *DIDRecord `json:"did"`
	}
	err := c.do(ctx, http.MethodGet, "/api/v1/dids/"+did, nil, &resp)
	return resp.DID, err
}

// RevokeDID revokes a DID. A second call fails with a conflict error.
func (c *Client) RevokeDID(ctx context.Context, did string) (*DIDRecord, error) {
	var resp struct {
		DID *DIDRecord `json:"did"`
	}
	err := c.do(ctx, http.MethodPost, "/api/v1/dids/"+did+"/revoke", nil, &resp)
	return resp.DID, err
}

// IssueCredential issues a verifiable credential from issuer to holder.
func (c *Client) IssueCredential(ctx context.Context, req IssueCredentialRequest) (*Credential, error) {
	var resp struct {
		Credential *Credential `json:"credential"`
	}
	err := c.do(ctx, http.MethodPost, "/api/v1/credentials", req, &resp)
	return resp.Credential, err
}

// VerifyCredential reports whether the credential currently verifies.
func (c *Client) VerifyCredential(ctx context.Context, id string) (bool, error) {
	var resp struct {
		Valid bool `json:"valid"`
	}
	err := c.do(ctx, http.MethodGet, "/api/v1/credentials/"+id+"/verify", nil, &resp)
	return resp.Valid, err
}

// RevokeCredential revokes a credential.
func (c *Client) RevokeCredential(ctx context.Context, id string) (*Credential, error) {
	var resp struct {
		Credential *Credential `json:"credential"`
	}
	err := c.do(ctx, http.MethodPost, "/api/v1/credentials/"+id+"/revoke", nil, &resp)
	return resp.Credential, err
}

// ExportCredentialJWT returns the credential as a compact signed JWT.
func (c *Client) ExportCredentialJWT(ctx context.Context, id string) (string, error) {
	var resp struct {
		JWT string `json:"jwt"`
	}
	err := c.do(ctx, http.MethodGet, "/api/v1/credentials/"+id+"/jwt", nil, &resp)
	return resp.JWT, err
}

// UploadDocument uploads document bytes into the integrity pipeline.
func (c *Client) UploadDocument(ctx context.Context, req UploadDocumentRequest) (*Document, error) {
	var resp struct {
		Document *Document `json:"document"`
	}
	err := c.do(ctx, http.MethodPost, "/api/v1/documents", map[string]string{
		"owner_id": req.OwnerID,
		"did":      req.DID,
		"type":     req.Type,
		"content":  base64.StdEncoding.EncodeToString(req.Content),
	}, &resp)
	return resp.Document, err
}

// VerifyDocument runs the verification pipeline on a pending document.
func (c *Client) VerifyDocument(ctx context.Context, id string) (*Document, error) {
	var resp struct {
		Document *Document `json:"document"`
	}
	err := c.do(ctx, http.MethodPost, "/api/v1/documents/"+id+"/verify", nil, &resp)
	return resp.Document, err
}

// Prove generates a predicate proof. The secret travels to the server but is
// never echoed back or persisted there.
func (c *Client) Prove(ctx context.Context, secret string, params ProofParams) (*ProofResult, error) {
	var resp struct {
		Proof *ProofResult `json:"proof"`
	}
	err := c.do(ctx, http.MethodPost, "/api/v1/proofs", map[string]any{
		"secret": secret,
		"params": params,
	}, &resp)
	return resp.Proof, err
}

// VerifyProof structurally validates a commitment and its public inputs.
func (c *Client) VerifyProof(ctx context.Context, commitment string, publicInputs json.RawMessage, satisfied bool) (bool, error) {
	var resp struct {
		Valid bool `json:"valid"`
	}
	err := c.do(ctx, http.MethodPost, "/api/v1/proofs/verify", map[string]any{
		"commitment":    commitment,
		"public_inputs": publicInputs,
		"satisfied":     satisfied,
	}, &resp)
	return resp.Valid, err
}

// Ledger returns the anchor chain overview.
func (c *Client) Ledger(ctx context.Context) (*LedgerOverview, error) {
	var resp LedgerOverview
	err := c.do(ctx, http.MethodGet, "/api/v1/ledger", nil, &resp)
	return &resp, err
}

// VerifyLedger reports whether the anchor chain is intact.
func (c *Client) VerifyLedger(ctx context.Context) (bool, string, error) {
	var resp struct {
		Valid bool   `json:"valid"`
		Error string `json:"error"`
	}
	err := c.do(ctx, http.MethodGet, "/api/v1/ledger/verify", nil, &resp)
	return resp.Valid, resp.Error, err
}

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server error %d: %s", e.StatusCode, e.Message)
}

func (c *Client) do(ctx context.Context, method, path string, reqBody, respBody any) error {
	var body io.Reader
	if reqBody != nil {
		buf, err := json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 300 {
		var payload struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(raw, &payload)
		if payload.Error == "" {
			payload.Error = strings.TrimSpace(string(raw))
		}
		return &APIError{StatusCode: resp.StatusCode, Message: payload.Error}
	}

	if respBody != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, respBody); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
