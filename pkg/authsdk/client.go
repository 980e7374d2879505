package authsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client is a small typed client for the SkyVault auth API. It covers the
// token lifecycle plus the authenticated account endpoints and is what the
// end-to-end tests drive the service with.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient creates a client for the auth service at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Login exchanges credentials (and an optional TOTP code) for a token pair.
func (c *Client) Login(ctx context.Context, username, password, otpCode string) (*TokenResponse, error) {
	var out TokenResponse
	err := c.postJSON(ctx, "/v1/auth/login", "", LoginRequest{
		Username: username,
		Password: password,
		OTPCode:  otpCode,
	}, &out, http.StatusOK)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Refresh exchanges an access/refresh token pair for a fresh one. The access
// token may be expired; the refresh token must be the most recently issued.
func (c *Client) Refresh(ctx context.Context, accessToken, refreshToken string) (*TokenResponse, error) {
	var out TokenResponse
	err := c.postJSON(ctx, "/v1/auth/refresh", "", RefreshRequest{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, &out, http.StatusOK)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Logout revokes the caller's refresh token. The access token keeps working
// until it expires naturally.
func (c *Client) Logout(ctx context.Context, accessToken string) error {
	return c.postJSON(ctx, "/v1/auth/logout", accessToken, nil, nil, http.StatusNoContent)
}

// EnrollMFA provisions a TOTP secret for the authenticated account.
func (c *Client) EnrollMFA(ctx context.Context, accessToken string) (*MFAEnrollResponse, error) {
	var out MFAEnrollResponse
	err := c.postJSON(ctx, "/v1/auth/mfa/enroll", accessToken, nil, &out, http.StatusOK)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ActivateMFA turns MFA enforcement on after proving possession of the secret.
func (c *Client) ActivateMFA(ctx context.Context, accessToken, code string) error {
	return c.postJSON(ctx, "/v1/auth/mfa/activate", accessToken,
		MFACodeRequest{Code: code}, nil, http.StatusNoContent)
}

// DisableMFA turns MFA enforcement off. A valid code is still required.
func (c *Client) DisableMFA(ctx context.Context, accessToken, code string) error {
	return c.postJSON(ctx, "/v1/auth/mfa/disable", accessToken,
		MFACodeRequest{Code: code}, nil, http.StatusNoContent)
}

// Policies lists the registered authorization policy names.
func (c *Client) Policies(ctx context.Context, accessToken string) (*PoliciesResponse, error) {
	var out PoliciesResponse
	err := c.getJSON(ctx, "/v1/auth/policies", accessToken, &out, http.StatusOK)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ReloadPolicies rebuilds the policy registry from the database.
func (c *Client) ReloadPolicies(ctx context.Context, accessToken string) (*PoliciesResponse, error) {
	var out PoliciesResponse
	err := c.postJSON(ctx, "/v1/auth/policies/reload", accessToken, nil, &out, http.StatusOK)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Readyz reports whether the service and its dependencies are ready.
func (c *Client) Readyz(ctx context.Context) (*HealthResponse, error) {
	var out HealthResponse
	err := c.getJSON(ctx, "/readyz", "", &out, http.StatusOK)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) postJSON(
	ctx context.Context,
	path, accessToken string,
	body, target any,
	expectedStatus int,
) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	return c.do(req, target, expectedStatus)
}

func (c *Client) getJSON(
	ctx context.Context,
	path, accessToken string,
	target any,
	expectedStatus int,
) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	return c.do(req, target, expectedStatus)
}

func (c *Client) do(req *http.Request, target any, expectedStatus int) error {
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != expectedStatus {
		return parseErrorResponse(resp, body)
	}

	if target != nil {
		if err := json.Unmarshal(body, target); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}
