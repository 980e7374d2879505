package jwtx

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Default token TTL constants. These provide sensible security defaults but
// are overridden by service configuration.
const (
	// DefaultAccessTokenTTL is the default lifetime for access tokens.
	DefaultAccessTokenTTL = 15 * time.Minute

	// DefaultRefreshTokenTTL is the default lifetime for refresh tokens.
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour
)

// reservedClaimKeys are payload keys owned by the registered and named
// fields of Claims. Extra claim pairs may not shadow them.
var reservedClaimKeys = map[string]struct{}{
	"iss": {}, "sub": {}, "aud": {}, "exp": {}, "nbf": {}, "iat": {}, "jti": {},
	"unique_name": {}, "email": {}, "ip": {}, "roles": {},
}

// Claims are access-token claims. Besides the registered set, the payload
// carries the authenticated user's identity facts plus a flat map of
// authorization claim pairs ("permission": "ReadAccess") that are serialized
// as top-level members of the payload.
type Claims struct {
	jwt.RegisteredClaims

	// Username for the authenticated user.
	Username string `json:"unique_name,omitempty"`

	// Email of the authenticated user. The refresh flow recovers identity
	// through this claim, so issuers must always set it.
	Email string `json:"email,omitempty"`

	// IP binds the token to the address the client authenticated from.
	IP string `json:"ip,omitempty"`

	// Roles holds one entry per role the user is a member of.
	Roles []string `json:"roles,omitempty"`

	// Extra holds the authorization claim pairs merged from role and user
	// claims. Flattened into the payload on signing.
	Extra map[string]string `json:"-"`
}

// NewAccessClaims builds minimally-correct claims.
func NewAccessClaims(
	subject, username, email, ip string,
	roles []string,
	extra map[string]string,
	ttl time.Duration,
	issuer string,
	audience []string,
	now time.Time,
) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			Audience:  jwt.ClaimStrings(audience),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        NewJTI(),
		},
		Username: username,
		Email:    email,
		IP:       ip,
		Roles:    roles,
		Extra:    extra,
	}
}

// NewJTI returns a URL-safe random identifier for the "jti" claim.
func NewJTI() string {
	var b [20]byte
	_, _ = rand.Read(b[:])
	return base64.RawURLEncoding.EncodeToString(b[:])
}

// MarshalJSON flattens the Extra claim pairs into the top level of the
// payload. Reserved keys in Extra are dropped so role claims can never
// override identity claims.
func (c Claims) MarshalJSON() ([]byte, error) {
	type alias Claims
	base, err := json.Marshal(alias(c))
	if err != nil {
		return nil, err
	}

	if len(c.Extra) == 0 {
		return base, nil
	}

	var payload map[string]json.RawMessage
	if err := json.Unmarshal(base, &payload); err != nil {
		return nil, err
	}

	for k, v := range c.Extra {
		if _, reserved := reservedClaimKeys[k]; reserved {
			continue
		}
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		payload[k] = raw
	}

	return json.Marshal(payload)
}

// UnmarshalJSON recovers the named fields and collects every unrecognized
// string-valued payload member back into Extra.
func (c *Claims) UnmarshalJSON(data []byte) error {
	type alias Claims
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*c = Claims(a)

	var payload map[string]json.RawMessage
	if err := json.Unmarshal(data, &payload); err != nil {
		return err
	}

	for k, raw := range payload {
		if _, reserved := reservedClaimKeys[k]; reserved {
			continue
		}
		var v string
		if err := json.Unmarshal(raw, &v); err != nil {
			// Non-string members are not claim pairs; skip them.
			continue
		}
		if c.Extra == nil {
			c.Extra = make(map[string]string)
		}
		c.Extra[k] = v
	}

	return nil
}

// HasClaim reports whether the token carries the claim pair. A claim type
// holding several granted values serializes them space-delimited, so the
// check is membership, not string equality.
func (c *Claims) HasClaim(claimType, claimValue string) bool {
	if claimType == "roles" {
		return slices.Contains(c.Roles, claimValue)
	}
	return slices.Contains(strings.Fields(c.Extra[claimType]), claimValue)
}

// ValidateIssuer checks the issuer against the expected value.
func (c *Claims) ValidateIssuer(expected string) error {
	if expected == "" {
		return nil // nothing to enforce
	}
	if c.Issuer != expected {
		return ErrIssuer
	}
	return nil
}

// ValidateAudience checks that at least one expected audience is present.
func (c *Claims) ValidateAudience(expected []string) error {
	if len(expected) == 0 {
		return nil // nothing to enforce
	}
	for _, want := range expected {
		if slices.Contains(c.Audience, want) {
			return nil
		}
	}
	return ErrAudience
}

// ValidateExpiry ensures the token hasn't expired (exp) and isn't used
// before it is valid (nbf).
func (c *Claims) ValidateExpiry() error {
	now := time.Now().UTC()

	if c.ExpiresAt != nil && now.After(c.ExpiresAt.Time) {
		return ErrExpired
	}
	if c.NotBefore != nil && now.Before(c.NotBefore.Time) {
		return ErrNotYetValid
	}
	return nil
}
