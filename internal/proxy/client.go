// Package proxy speaks to the reverse proxy's JSON admin API (a
// Caddy-compatible config tree). It computes stable route IDs, orders
// routes by path specificity, and issues the GET/PUT/PATCH/DELETE calls
// the expose/unexpose protocols require.
//
// The admin API surface here is narrow (one host, JSON blobs, four verbs),
// so the client is built directly on net/http rather than a general-purpose
// HTTP client library — see DESIGN.md for why no such library is wired in
// from the example pack.
package proxy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cuemby/orca/pkg/metrics"
)

// IDSuffix is appended to every stable ID this package generates.
const IDSuffix = "-orca"

// URLRootID is the anchor id under which domain configs are appended.
const URLRootID = "orca-url-root"

// Client wraps the proxy admin API base URL and an http.Client.
type Client struct {
	baseURL    string
	authToken  string
	httpClient *http.Client
}

// NewClient builds a Client against the proxy's admin API base URL.
func NewClient(baseURL, authToken string) *Client {
	return &Client{
		baseURL:   baseURL,
		authToken: authToken,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// ErrNotFound is returned by do() when the proxy answers 404; callers treat
// this as a cue to PUT a fresh config, not as an error condition.
var ErrNotFound = fmt.Errorf("proxy: resource not found")

func (c *Client) do(ctx context.Context, method, path string, body any) ([]byte, int, error) {
	timer := metrics.NewTimer()
	defer timer.ObserveDurationVec(metrics.ProxyRequestDuration, method)

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, 0, fmt.Errorf("proxy: marshal request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, 0, fmt.Errorf("proxy: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.ProxyRequestsTotal.WithLabelValues(method, "error").Inc()
		return nil, 0, fmt.Errorf("proxy: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("proxy: read response: %w", err)
	}

	metrics.ProxyRequestsTotal.WithLabelValues(method, fmt.Sprintf("%d", resp.StatusCode)).Inc()

	if resp.StatusCode == http.StatusNotFound {
		return data, resp.StatusCode, ErrNotFound
	}
	if resp.StatusCode >= 300 {
		return data, resp.StatusCode, fmt.Errorf("proxy: %s %s: unexpected status %d: %s", method, path, resp.StatusCode, string(data))
	}
	return data, resp.StatusCode, nil
}

// Get issues a GET and unmarshals the JSON response into out. Returns
// ErrNotFound on a 404, leaving out untouched.
func (c *Client) Get(ctx context.Context, path string, out any) error {
	data, _, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, out)
}

// Put issues a PUT with body as the JSON payload.
func (c *Client) Put(ctx context.Context, path string, body any) error {
	_, _, err := c.do(ctx, http.MethodPut, path, body)
	return err
}

// Patch issues a PATCH with body as the JSON payload.
func (c *Client) Patch(ctx context.Context, path string, body any) error {
	_, _, err := c.do(ctx, http.MethodPatch, path, body)
	return err
}

// Delete issues a DELETE. A 404 is swallowed to nil by callers that treat
// "already absent" as success (per the unexpose protocol).
func (c *Client) Delete(ctx context.Context, path string) error {
	_, _, err := c.do(ctx, http.MethodDelete, path, nil)
	return err
}
