package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"resume-ai-backend/internal/domain/model"
	"resume-ai-backend/internal/domain/ports/adapter"
)

var ErrTokenRejected = errors.New("identity token rejected")

var _ adapter.IdentityVerifier = (*GoogleVerifier)(nil)

// GoogleVerifier validates Google ID tokens against the tokeninfo endpoint
// and checks the audience claim against our OAuth client id.
type GoogleVerifier struct {
	clientID string
	baseURL  string
	client   *http.Client
}

func NewGoogleVerifier(clientID string) (*GoogleVerifier, error) {
	if clientID == "" {
		return nil, errors.New("google client id empty")
	}
	return &GoogleVerifier{
		clientID: clientID,
		baseURL:  "https://oauth2.googleapis.com/tokeninfo",
		client:   &http.Client{},
	}, nil
}

type tokenInfoResponse struct {
	Aud           string `json:"aud"`
	Email         string `json:"email"`
	EmailVerified string `json:"email_verified"`
}

func (v *GoogleVerifier) Verify(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrTokenRejected
	}

	endpoint := v.baseURL + "?id_token=" + url.QueryEscape(token)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", ErrTokenRejected
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	var info tokenInfoResponse
	if err := json.Unmarshal(body, &info); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if info.Aud != v.clientID {
		return "", fmt.Errorf("audience mismatch: %w", ErrTokenRejected)
	}
	if info.Email == "" || info.EmailVerified != "true" {
		return "", fmt.Errorf("email not verified: %w", ErrTokenRejected)
	}
	return model.NormalizeEmail(info.Email), nil
}
