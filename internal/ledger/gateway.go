package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// gatewayClient is a lightweight HTTP client for a remote ledger gateway.
// It is constructed once per adapter and shared read-mostly across requests;
// construction is idempotent and performs no network I/O.
type gatewayClient struct {
	baseURL string
	http    *http.Client
}

// newGatewayClient creates a gateway client targeting baseURL. An empty
// baseURL yields a client whose every call reports ErrBackendUnavailable,
// which is the correct posture for an unconfigured backend.
func newGatewayClient(baseURL string, timeout time.Duration) *gatewayClient {
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	return &gatewayClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// post sends a JSON request to path and decodes the JSON response into out.
// Transport failures and non-2xx statuses map to ErrBackendUnavailable;
// a 404 maps to ErrNotFound.
func (c *gatewayClient) post(ctx context.Context, path string, reqBody, out any) error {
	if c.baseURL == "" {
		return fmt.Errorf("%w: gateway endpoint not configured", ErrBackendUnavailable)
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshal gateway request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build gateway request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: gateway returned status %d", ErrBackendUnavailable, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%w: read gateway response: %v", ErrBackendUnavailable, err)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode gateway response: %w", err)
	}
	return nil
}
