package authsdk

import "time"

// ErrorResponse is the wire shape of every error the API returns.
// Client code should use the APIError type from errors.go instead.
type ErrorResponse struct {
	// Error is the machine-readable error code (e.g., "invalid_grant")
	Error string `json:"error"`

	// ErrorDescription is a human-readable description of the error
	ErrorDescription string `json:"error_description"`
}

// LoginRequest is the body of POST /v1/auth/login.
type LoginRequest struct {
	// Username is the account's username or email address
	Username string `json:"username"`

	// Password is the account password
	Password string `json:"password"`

	// OTPCode is the TOTP code, required only when MFA is enabled
	OTPCode string `json:"otp_code,omitempty"`
}

// RefreshRequest is the body of POST /v1/auth/refresh. The access token may
// already be expired; only its signature has to hold.
type RefreshRequest struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// TokenResponse is returned by the login and refresh endpoints.
type TokenResponse struct {
	// AccessToken is the signed JWT used to authenticate API requests
	AccessToken string `json:"access_token"`

	// RefreshToken is the opaque token used to obtain the next pair
	RefreshToken string `json:"refresh_token"`

	// TokenType is always "Bearer"
	TokenType string `json:"token_type"`

	// ExpiresIn is the access token lifetime in seconds
	ExpiresIn int `json:"expires_in"`

	// RefreshExpiresAt is when the refresh token stops being exchangeable
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}

// MFAEnrollResponse is returned by POST /v1/auth/mfa/enroll.
type MFAEnrollResponse struct {
	// Secret is the base32 TOTP secret
	Secret string `json:"secret"`

	// URL is the otpauth:// provisioning URL for authenticator apps
	URL string `json:"url"`
}

// MFACodeRequest carries the TOTP code for activate/disable calls.
type MFACodeRequest struct {
	Code string `json:"code"`
}

// PoliciesResponse lists the registered authorization policies.
type PoliciesResponse struct {
	Policies []string `json:"policies"`
}

// HealthResponse is returned by the livez and readyz endpoints.
type HealthResponse struct {
	Status  string `json:"status"`
	Uptime  string `json:"uptime"`
	Version string `json:"version"`

	// Checks maps a subsystem name to "ok" or an error string (readyz only)
	Checks map[string]string `json:"checks,omitempty"`
}
