package jwtx

import (
	"crypto/rand"
	"crypto/rsa"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const testSecret = "unit-test-secret-key-not-for-prod"

func testClaims(ttl time.Duration) Claims {
	return NewAccessClaims(
		"01JTESTUSERID",
		"mira",
		"mira@example.com",
		"203.0.113.7",
		[]string{"Admin", "Editor"},
		map[string]string{"permission": "WriteAccess"},
		ttl,
		"skyvault-auth",
		[]string{"skyvault-api"},
		time.Now().UTC(),
	)
}

func TestHS256RoundTrip(t *testing.T) {
	t.Parallel()

	signer, err := NewSignerHS256(testSecret)
	require.NoError(t, err)
	require.NoError(t, signer.Validate())
	require.Equal(t, "HS256", signer.Alg())

	verifier, err := NewVerifierHS256(testSecret, "skyvault-auth", []string{"skyvault-api"})
	require.NoError(t, err)

	token, err := signer.Sign(testClaims(time.Minute))
	require.NoError(t, err)

	claims, err := verifier.Verify(token)
	require.NoError(t, err)

	require.Equal(t, "01JTESTUSERID", claims.Subject)
	require.Equal(t, "mira", claims.Username)
	require.Equal(t, "mira@example.com", claims.Email)
	require.Equal(t, "203.0.113.7", claims.IP)
	require.Equal(t, []string{"Admin", "Editor"}, claims.Roles)
	require.Equal(t, "WriteAccess", claims.Extra["permission"])
	require.True(t, claims.HasClaim("permission", "WriteAccess"))
	require.True(t, claims.HasClaim("roles", "Admin"))
	require.False(t, claims.HasClaim("permission", "ReadAccess"))
}

func TestHS256RejectsEmptySecret(t *testing.T) {
	t.Parallel()

	_, err := NewSignerHS256("")
	require.Error(t, err)

	_, err = NewVerifierHS256("", "", nil)
	require.Error(t, err)
}

func TestVerifyRejectsOtherAlgorithms(t *testing.T) {
	t.Parallel()

	verifier, err := NewVerifierHS256(testSecret, "", nil)
	require.NoError(t, err)

	t.Run("rejects RS256", func(t *testing.T) {
		key, err := rsa.GenerateKey(rand.Reader, 2048)
		require.NoError(t, err)

		token, err := jwt.NewWithClaims(jwt.SigningMethodRS256, testClaims(time.Minute)).
			SignedString(key)
		require.NoError(t, err)

		_, err = verifier.Verify(token)
		require.ErrorIs(t, err, ErrAlgMismatch)

		_, err = verifier.VerifyIgnoringExpiry(token)
		require.ErrorIs(t, err, ErrAlgMismatch)
	})

	t.Run("rejects alg none", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodNone, testClaims(time.Minute)).
			SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = verifier.Verify(token)
		require.ErrorIs(t, err, ErrAlgMismatch)
	})

	t.Run("rejects HS384 even with the shared key", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS384, testClaims(time.Minute)).
			SignedString([]byte(testSecret))
		require.NoError(t, err)

		_, err = verifier.Verify(token)
		require.ErrorIs(t, err, ErrAlgMismatch)
	})
}

func TestVerifyRejectsBadTokens(t *testing.T) {
	t.Parallel()

	signer, err := NewSignerHS256(testSecret)
	require.NoError(t, err)
	verifier, err := NewVerifierHS256(testSecret, "", nil)
	require.NoError(t, err)

	t.Run("malformed structure", func(t *testing.T) {
		for _, in := range []string{"", "abc", "a.b", "!!.!!.!!"} {
			_, err := verifier.Verify(in)
			require.ErrorIs(t, err, ErrMalformed, "token %q", in)
		}
	})

	t.Run("wrong key", func(t *testing.T) {
		other, err := NewSignerHS256("a-different-secret")
		require.NoError(t, err)
		token, err := other.Sign(testClaims(time.Minute))
		require.NoError(t, err)

		_, err = verifier.Verify(token)
		require.ErrorIs(t, err, ErrInvalidSig)
	})

	t.Run("tampered payload", func(t *testing.T) {
		token, err := signer.Sign(testClaims(time.Minute))
		require.NoError(t, err)

		tampered := token[:len(token)-6] + "XXXXXX"
		_, err = verifier.Verify(tampered)
		require.Error(t, err)
	})
}

func TestVerifyIgnoringExpiry(t *testing.T) {
	t.Parallel()

	signer, err := NewSignerHS256(testSecret)
	require.NoError(t, err)
	verifier, err := NewVerifierHS256(testSecret, "skyvault-auth", nil)
	require.NoError(t, err)

	expired, err := signer.Sign(testClaims(-time.Minute))
	require.NoError(t, err)

	_, err = verifier.Verify(expired)
	require.ErrorIs(t, err, ErrExpired)

	claims, err := verifier.VerifyIgnoringExpiry(expired)
	require.NoError(t, err)
	require.Equal(t, "mira@example.com", claims.Email)
}

func TestVerifyEnforcesIssuerAndAudience(t *testing.T) {
	t.Parallel()

	signer, err := NewSignerHS256(testSecret)
	require.NoError(t, err)
	token, err := signer.Sign(testClaims(time.Minute))
	require.NoError(t, err)

	t.Run("issuer mismatch", func(t *testing.T) {
		verifier, err := NewVerifierHS256(testSecret, "someone-else", nil)
		require.NoError(t, err)
		_, err = verifier.Verify(token)
		require.ErrorIs(t, err, ErrIssuer)
	})

	t.Run("audience mismatch", func(t *testing.T) {
		verifier, err := NewVerifierHS256(testSecret, "", []string{"other-api"})
		require.NoError(t, err)
		_, err = verifier.Verify(token)
		require.ErrorIs(t, err, ErrAudience)
	})
}
