package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
	"github.com/skyvault-io/skyvault/pkg/authsdk"
	"github.com/stretchr/testify/require"
)

// TestMFALifecycle walks enrollment, activation, MFA-gated login, and disable
// over the public API.
func TestMFALifecycle(t *testing.T) {
	env := setupAuthServer(t)
	ctx := context.Background()

	pair, err := env.Client.Login(ctx, userUsername, userPassword, "")
	require.NoError(t, err)

	enroll, err := env.Client.EnrollMFA(ctx, pair.AccessToken)
	require.NoError(t, err)
	require.NotEmpty(t, enroll.Secret)
	require.Contains(t, enroll.URL, "otpauth://")

	t.Run("activation rejects a bad code", func(t *testing.T) {
		err := env.Client.ActivateMFA(ctx, pair.AccessToken, "000000")
		assertAPIError(t, err, authsdk.ErrorCodeInvalidGrant, "bad activation code")
	})

	code, err := totp.GenerateCode(enroll.Secret, time.Now())
	require.NoError(t, err)
	require.NoError(t, env.Client.ActivateMFA(ctx, pair.AccessToken, code))

	t.Run("login now requires a code", func(t *testing.T) {
		_, err := env.Client.Login(ctx, userUsername, userPassword, "")
		assertAPIError(t, err, authsdk.ErrorCodeMFARequired, "login without code")
	})

	t.Run("login with a valid code succeeds", func(t *testing.T) {
		code, err := totp.GenerateCode(enroll.Secret, time.Now())
		require.NoError(t, err)

		mfaPair, err := env.Client.Login(ctx, userUsername, userPassword, code)
		require.NoError(t, err)
		assertTokenResponse(t, mfaPair)
	})

	t.Run("disable restores plain login", func(t *testing.T) {
		code, err := totp.GenerateCode(enroll.Secret, time.Now())
		require.NoError(t, err)
		require.NoError(t, env.Client.DisableMFA(ctx, pair.AccessToken, code))

		plain, err := env.Client.Login(ctx, userUsername, userPassword, "")
		require.NoError(t, err)
		assertTokenResponse(t, plain)
	})
}
