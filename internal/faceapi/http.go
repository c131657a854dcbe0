package faceapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// doGetJSON performs a GET request and unmarshals the JSON response into the
// result type. The endpoint is the path after the base URL (e.g., "users").
// Transport failures map to ErrNetworkUnavailable, everything else that is
// not a well-formed 2xx JSON body maps to ErrProtocol.
func doGetJSON[T any](ctx context.Context, c *Client, pathSegments ...string) (*T, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.resolveURL(pathSegments...), nil)
	if err != nil {
		return nil, fmt.Errorf("could not create request: %w", err)
	}

	return doJSON[T](c, req)
}

// doPostJSON performs a POST request with a JSON body and unmarshals the
// JSON response, with the same error classification as doGetJSON.
func doPostJSON[T any](ctx context.Context, c *Client, endpoint string, requestBody any) (*T, error) {
	var bodyReader io.Reader
	if requestBody != nil {
		jsonBody, err := json.Marshal(requestBody)
		if err != nil {
			return nil, fmt.Errorf("could not marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.resolveURL(endpoint), bodyReader)
	if err != nil {
		return nil, fmt.Errorf("could not create request: %w", err)
	}
	if requestBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return doJSON[T](c, req)
}

func doJSON[T any](c *Client, req *http.Request) (*T, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetworkUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: status %d: %s", ErrProtocol, resp.StatusCode, readErrorBody(resp.Body))
	}

	var result T
	if err := decodeJSON(resp.Body, &result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProtocol, err)
	}
	return &result, nil
}

func decodeJSON(r io.Reader, v any) error {
	body, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("could not read response body: %w", err)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("could not unmarshal response: %w", err)
	}
	return nil
}
