package jwtx

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMalformed   = errors.New("jwtx: malformed token")
	ErrAlgMismatch = errors.New("jwtx: algorithm mismatch")
	ErrInvalidSig  = errors.New("jwtx: invalid signature")

	ErrIssuer      = errors.New("jwtx: issuer mismatch")
	ErrAudience    = errors.New("jwtx: audience mismatch")
	ErrExpired     = errors.New("jwtx: token expired")
	ErrNotYetValid = errors.New("jwtx: token not yet valid")
)

// Verifier validates a JWT and gives you back the claims if it's legit.
type Verifier interface {
	Verify(token string) (Claims, error)
}

// HS256Verifier validates JWTs signed with HMAC-SHA-256. Any other signing
// algorithm is rejected before signature comparison, which closes off
// algorithm-substitution attacks against the shared key.
type HS256Verifier struct {
	key    []byte
	issuer string
	aud    []string
}

// NewVerifierHS256 creates a verifier over the shared symmetric key.
// Issuer and audience expectations may be empty to skip those checks.
func NewVerifierHS256(secret, issuer string, aud []string) (*HS256Verifier, error) {
	if secret == "" {
		return nil, errors.New("jwtx: empty HS256 secret key")
	}
	return &HS256Verifier{key: []byte(secret), issuer: issuer, aud: aud}, nil
}

// Verify fully validates the token: signature, algorithm, issuer, audience,
// and expiry.
func (v *HS256Verifier) Verify(tokenStr string) (Claims, error) {
	claims, err := v.parse(tokenStr, false)
	if err != nil {
		return Claims{}, err
	}

	if err := claims.ValidateIssuer(v.issuer); err != nil {
		return Claims{}, err
	}
	if err := claims.ValidateAudience(v.aud); err != nil {
		return Claims{}, err
	}
	if err := claims.ValidateExpiry(); err != nil {
		return Claims{}, err
	}

	return claims, nil
}

// VerifyIgnoringExpiry validates the signature and algorithm only. Expiry,
// issuer, and audience are deliberately not enforced: the refresh flow needs
// to recover identity out of an already-expired access token.
func (v *HS256Verifier) VerifyIgnoringExpiry(tokenStr string) (Claims, error) {
	return v.parse(tokenStr, true)
}

func (v *HS256Verifier) parse(tokenStr string, skipClaimValidation bool) (Claims, error) {
	opts := []jwt.ParserOption{}
	if skipClaimValidation {
		opts = append(opts, jwt.WithoutClaimsValidation())
	}
	parser := jwt.NewParser(opts...)

	token, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		// The algorithm check lives in the keyfunc rather than in
		// WithValidMethods so mismatches surface as ErrAlgMismatch.
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, ErrAlgMismatch
		}
		return v.key, nil
	})
	if err != nil {
		return Claims{}, mapParseError(err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok {
		return Claims{}, ErrMalformed
	}
	return *claims, nil
}

func mapParseError(err error) error {
	switch {
	case errors.Is(err, ErrAlgMismatch):
		return ErrAlgMismatch
	case errors.Is(err, jwt.ErrTokenMalformed):
		return ErrMalformed
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	case errors.Is(err, jwt.ErrTokenNotValidYet):
		return ErrNotYetValid
	default:
		return ErrInvalidSig
	}
}
