package domain

import "time"

// User is the identity principal the token subsystem operates on. The
// identity-management side owns most fields; token issuance only writes the
// refresh-token triplet (hash, expiry, version).
type User struct {
	ID             string
	Username       string
	Email          string
	EmailConfirmed bool
	Active         bool
	PasswordHash   string     // argon2id encoded
	MFAEnabled     *time.Time // Timestamp when MFA was enabled (nullable)
	MFASecret      *string    // TOTP secret (nullable, base32 encoded)

	// RefreshTokenHash is the SHA-256 fingerprint of the single active
	// refresh token. Empty when no refresh token is outstanding.
	RefreshTokenHash string

	// RefreshTokenExpiresAt is the absolute expiry of the active refresh
	// token. A stored expiry equal to "now" counts as expired.
	RefreshTokenExpiresAt time.Time

	// RefreshTokenVersion is bumped on every refresh-token write. Updates
	// carry the expected version so concurrent refreshes fail cleanly
	// instead of silently orphaning a freshly issued token.
	RefreshTokenVersion int64

	CreatedAt time.Time
	UpdatedAt time.Time
}
