package faceapi

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
)

var errNoImageData = errors.New("no image data provided")

// Recognize submits a captured image for recognition. displayImage is an
// optional pre-cropped audit image forwarded verbatim to the server.
//
// Transport failures return ErrNetworkUnavailable; HTTP-level failures and
// malformed bodies return ErrProtocol. A well-formed response with
// matched=false returns a NotMatched result, not an error. Overlapping calls
// are permitted; the client does no de-duplication.
func (c *Client) Recognize(ctx context.Context, imageData []byte, displayImage string) (*RecognitionResult, error) {
	if len(imageData) == 0 {
		return nil, errNoImageData
	}

	req := recognizeRequest{
		ImageBase64:   base64.StdEncoding.EncodeToString(imageData),
		DeviceID:      c.deviceID,
		CapturedImage: displayImage,
	}

	resp, err := doPostJSON[recognizeResponse](ctx, c, "recognize", req)
	if err != nil {
		return nil, fmt.Errorf("recognize: %w", err)
	}

	if resp.Matched && (resp.UserID == "" || resp.Name == "") {
		return nil, fmt.Errorf("%w: matched result without user identity", ErrProtocol)
	}

	return &RecognitionResult{
		Matched:   resp.Matched,
		UserID:    resp.UserID,
		UserName:  resp.Name,
		Distance:  resp.Distance,
		Threshold: resp.Threshold,
	}, nil
}

// Register enrolls a new face with the server.
func (c *Client) Register(ctx context.Context, imageData []byte, name, position string) (*RegistrationResult, error) {
	if len(imageData) == 0 {
		return nil, errNoImageData
	}
	if name == "" {
		return nil, errors.New("registration requires a name")
	}

	req := registerRequest{
		ImageBase64: base64.StdEncoding.EncodeToString(imageData),
		Name:        name,
		Position:    position,
	}

	resp, err := doPostJSON[registerResponse](ctx, c, "register", req)
	if err != nil {
		// Malformed bodies surface as the registration-specific error.
		if errors.Is(err, ErrProtocol) {
			return nil, fmt.Errorf("register: %w: %v", ErrInvalidResponse, err)
		}
		return nil, fmt.Errorf("register: %w", err)
	}

	if resp.UserID == "" {
		return nil, fmt.Errorf("register: %w: missing user_id", ErrInvalidResponse)
	}

	return &RegistrationResult{UserID: resp.UserID}, nil
}
