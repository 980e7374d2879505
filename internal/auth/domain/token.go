package domain

import "time"

// TokenPair is what the login and refresh endpoints return: the short-lived
// signed access token and the opaque refresh token with its absolute expiry.
type TokenPair struct {
	AccessToken      string        `json:"access_token"`
	RefreshToken     string        `json:"refresh_token"`
	TokenType        string        `json:"token_type,omitempty"` // typically "Bearer"
	ExpiresIn        time.Duration `json:"expires_in"`           // seconds until access-token expiry
	RefreshExpiresAt time.Time     `json:"refresh_expires_at"`
}
