package jwtx

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

// Signer is our interface for anything that can sign JWTs.
type Signer interface {
	Alg() string
	Sign(Claims) (string, error)
	Validate() error
}

// HS256Signer signs tokens with HMAC-SHA-256 over a shared symmetric key.
type HS256Signer struct {
	key []byte
}

// NewSignerHS256 creates an HS256 signer. The secret must be non-empty; an
// empty signing key is a configuration error and the caller must refuse to
// start.
func NewSignerHS256(secret string) (*HS256Signer, error) {
	if secret == "" {
		return nil, errors.New("jwtx: empty HS256 secret key")
	}
	return &HS256Signer{key: []byte(secret)}, nil
}

func (s *HS256Signer) Alg() string { return jwt.SigningMethodHS256.Alg() }

// Sign turns claims into a signed compact JWT string.
func (s *HS256Signer) Sign(claims Claims) (string, error) {
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(s.key)
}

// Validate does a quick sanity check that key material is present.
func (s *HS256Signer) Validate() error {
	if len(s.key) == 0 {
		return errors.New("jwtx: nil HS256 key")
	}
	return nil
}
