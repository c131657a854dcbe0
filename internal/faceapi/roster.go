package faceapi

import (
	"context"
	"fmt"
)

// FetchRoster retrieves the full user roster. Callers replace their cached
// roster wholesale with the returned snapshot.
func (c *Client) FetchRoster(ctx context.Context) ([]UserRecord, error) {
	resp, err := doGetJSON[usersResponse](ctx, c, "users")
	if err != nil {
		return nil, fmt.Errorf("fetch roster: %w", err)
	}
	return resp.Users, nil
}

// UserImage fetches the enrolled reference image for a user, base64 encoded.
func (c *Client) UserImage(ctx context.Context, userID string) (string, error) {
	resp, err := doGetJSON[userImageResponse](ctx, c, "users", userID, "image")
	if err != nil {
		return "", fmt.Errorf("fetch user image: %w", err)
	}
	if resp.ImageBase64 == "" {
		return "", fmt.Errorf("%w: missing image_base64", ErrProtocol)
	}
	return resp.ImageBase64, nil
}
