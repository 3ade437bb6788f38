// Package adapter is the typed HTTP client for the adapter control
// protocol: the fixed surface (health, init, capture, flush, get_state,
// reset) that every SDK-under-test exposes over its thin HTTP wrapper.
package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PostHog/posthog-sdk-test-harness/harness"
)

// DefaultCallTimeout bounds a single adapter round trip when the caller's
// context carries no earlier deadline.
const DefaultCallTimeout = 10 * time.Second

// Client talks to one running adapter instance over HTTP.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

// New returns a Client addressing baseURL, with DefaultCallTimeout applied
// per call.
func New(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: DefaultCallTimeout},
	}
}

// Health calls GET /health.
func (c *Client) Health(ctx context.Context) (harness.HealthResponse, error) {
	var out harness.HealthResponse
	err := c.do(ctx, http.MethodGet, "/health", nil, &out)
	return out, err
}

// WaitForHealth polls Health every 500ms until it succeeds or ctx is done.
func (c *Client) WaitForHealth(ctx context.Context) error {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()
	for {
		if _, err := c.Health(ctx); err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("adapter did not become healthy: %w", ctx.Err())
		case <-ticker.C:
		}
	}
}

// Init calls POST /init with cfg, (re)initialising the SDK under test.
func (c *Client) Init(ctx context.Context, cfg harness.InitConfig) error {
	return c.do(ctx, http.MethodPost, "/init", cfg, nil)
}

// Capture calls POST /capture, asking the SDK to emit one event, and
// returns the event UUID the SDK self-reports minting for it.
func (c *Client) Capture(ctx context.Context, req harness.CaptureRequest) (string, error) {
	var out harness.CaptureResponse
	err := c.do(ctx, http.MethodPost, "/capture", req, &out)
	return out.UUID, err
}

// Flush calls POST /flush, asking the SDK to drain any buffered events.
func (c *Client) Flush(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/flush", nil, nil)
}

// GetState calls GET /state, returning the adapter's self-reported view of
// outbound traffic and last error.
func (c *Client) GetState(ctx context.Context) (harness.StateResponse, error) {
	var out harness.StateResponse
	err := c.do(ctx, http.MethodGet, "/state", nil, &out)
	return out, err
}

// Reset calls POST /reset, asking the adapter to discard SDK state between tests.
func (c *Client) Reset(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/reset", nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rdr io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("adapter: encoding request for %s: %w", path, err)
		}
		rdr = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, rdr)
	if err != nil {
		return fmt.Errorf("adapter: building request for %s: %w", path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return &harness.TransportError{Op: method + " " + path, Err: err}
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &harness.TransportError{
			Op:         method + " " + path,
			StatusCode: resp.StatusCode,
			Body:       errorSnippet(data),
		}
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("adapter: decoding response from %s: %w", path, err)
	}
	return nil
}

// errorSnippet best-effort extracts an "error" field from a JSON error
// body, falling back to the raw body (capped) for diagnostics.
func errorSnippet(data []byte) string {
	var probe struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(data, &probe) == nil && probe.Error != "" {
		return probe.Error
	}
	const maxLen = 500
	s := string(data)
	if len(s) > maxLen {
		return s[:maxLen]
	}
	return s
}
