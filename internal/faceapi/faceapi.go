// Package faceapi is a typed client for the face recognition server.
// Recognition itself is entirely server-side; this client only ships images
// and maps responses into result types.
package faceapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var (
	// ErrNetworkUnavailable covers transport failures: connection refused,
	// DNS failure, timeout. The server was never reached.
	ErrNetworkUnavailable = errors.New("recognition server unreachable")
	// ErrProtocol covers HTTP-level failures and malformed response bodies.
	ErrProtocol = errors.New("unexpected recognition server response")
	// ErrInvalidResponse is the registration flavor of a malformed body.
	ErrInvalidResponse = errors.New("invalid registration response")
)

// Client talks to the face recognition server.
type Client struct {
	baseURL  *url.URL
	deviceID string
	http     *http.Client
}

// New creates a client for the server at rawURL. The timeout bounds every
// request at the transport level; zero falls back to 10s.
func New(rawURL, deviceID string, timeout time.Duration) (*Client, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid server URL: %w", err)
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:  parsed,
		deviceID: deviceID,
		http:     &http.Client{Timeout: timeout},
	}, nil
}

func (c *Client) DeviceID() string {
	return c.deviceID
}

func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// resolveURL builds a full URL from the base URL and the given path segments.
// If the last segment contains a query string (e.g. "work-hours?date=..."),
// it is split so JoinPath only receives the path portion.
func (c *Client) resolveURL(pathSegments ...string) string {
	if len(pathSegments) == 0 {
		return c.baseURL.String()
	}
	last := pathSegments[len(pathSegments)-1]
	if pathPart, query, ok := strings.Cut(last, "?"); ok {
		pathSegments[len(pathSegments)-1] = pathPart
		result := c.baseURL.JoinPath(pathSegments...)
		result.RawQuery = query
		return result.String()
	}
	return c.baseURL.JoinPath(pathSegments...).String()
}

// readErrorBody reads the response body for error messages.
// Returns empty string if reading fails (we're already in an error path).
func readErrorBody(r io.Reader) string {
	body, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil {
		return "(could not read error body)"
	}
	return string(body)
}

// HealthCheck probes the server's /health endpoint. When probeURL is empty
// the configured base URL is used. Any 2xx with a parseable JSON body counts
// as healthy; failures are reported, never fatal.
func (c *Client) HealthCheck(ctx context.Context, probeURL string) bool {
	base := c.baseURL
	if probeURL != "" {
		parsed, err := url.Parse(probeURL)
		if err != nil {
			return false
		}
		base = parsed
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base.JoinPath("health").String(), nil)
	if err != nil {
		return false
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return false
	}

	var probe map[string]any
	return decodeJSON(resp.Body, &probe) == nil
}
