// Package backend adapts the upstream storefront REST API: a thin HTTP client
// with uniform error normalization, and the process CSRF token cache.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"github.com/mesavista/storefront-core/internal/core/domain"
)

const defaultTimeout = 10 * time.Second

// Client is the transport-level HTTP adapter. It always sends cookies (each
// client owns a jar, so the backend's cookie session travels alongside the
// session key) and normalizes every failure into the domain error taxonomy.
// It is stateless beyond the jar and carries no business rules.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient builds a Client for the given base URL. A timeout <= 0 falls back
// to the 10s default; status checks and CSRF fetches must never hang
// indefinitely, since they block initialization.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	jar, _ := cookiejar.New(nil)
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
			Jar:     jar,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// Send issues one round trip and returns the raw JSON body.
//
// Normalization rules:
//   - network failure: wrapped domain.ErrBackendUnreachable
//   - HTML body (even on HTTP 200): domain.ErrBackendUnreachable, guarding
//     against proxies that serve a login page instead of JSON
//   - any non-2xx status: *domain.APIError carrying status and body verbatim
func (c *Client) Send(ctx context.Context, method, path string, body any, headers map[string]string) (json.RawMessage, error) {
	var reader io.Reader
	contentType := ""
	switch b := body.(type) {
	case nil:
	case io.Reader:
		reader = b
	default:
		payload, err := json.Marshal(b)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
		contentType = "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrBackendUnreachable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", domain.ErrBackendUnreachable, err)
	}

	if looksLikeHTML(resp.Header.Get("Content-Type"), raw) {
		return nil, fmt.Errorf("%w: got HTML instead of JSON (status %d)", domain.ErrBackendUnreachable, resp.StatusCode)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &domain.APIError{Status: resp.StatusCode, Body: raw}
	}

	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}
	return json.RawMessage(raw), nil
}

// looksLikeHTML reports whether a response body is an HTML document rather
// than JSON, by content type or by sniffing the first non-space byte.
func looksLikeHTML(contentType string, body []byte) bool {
	if strings.Contains(contentType, "text/html") {
		return true
	}
	trimmed := bytes.TrimSpace(body)
	return len(trimmed) > 0 && trimmed[0] == '<'
}
