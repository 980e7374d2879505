package auth_test

import (
	"context"
	"log/slog"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/skyvault-io/skyvault/internal/auth/domain"
	authhttp "github.com/skyvault-io/skyvault/internal/auth/http"
	"github.com/skyvault-io/skyvault/internal/auth/policy"
	"github.com/skyvault-io/skyvault/internal/auth/service"
	"github.com/skyvault-io/skyvault/internal/auth/store"
	"github.com/skyvault-io/skyvault/internal/auth/store/drivers/sqlite"
	"github.com/skyvault-io/skyvault/pkg/authsdk"
	"github.com/skyvault-io/skyvault/pkg/cryptox"
	"github.com/skyvault-io/skyvault/pkg/idx"
	"github.com/skyvault-io/skyvault/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

/*
 * Common constants and helpers for auth service end-to-end tests. The full
 * service (store, services, router) runs in-process behind httptest.
 */

const (
	secretKey = "e2e-test-secret-key"
	issuer    = "skyvault-auth"
	audience  = "skyvault-api"

	adminUsername = "admin"
	adminPassword = "Admin123!"
	userUsername  = "stargazer"
	userPassword  = "User123!stars"
)

// testEnv exposes the running server plus direct store access for seeding.
type testEnv struct {
	Client   *authsdk.Client
	Store    store.Store
	Tokens   *service.TokenService
	Registry *policy.Registry
}

// setupAuthServer wires the full service in-process and seeds an Admin user
// (ManageUsers, WriteAccess, ReadAccess) and a Viewer user (ReadAccess).
func setupAuthServer(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	st, err := sqlite.NewStore("file:" + filepath.Join(t.TempDir(), "auth.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	bootstrap := &service.BootstrapService{Store: st}
	require.NoError(t, bootstrap.EnsureSeedData(ctx))

	// The bootstrap admin has a random password, so tests seed their own
	// accounts with known credentials.
	seedUser(t, st, adminUsername, adminPassword, "Admin")
	seedUser(t, st, userUsername, userPassword, "Viewer")

	registry := policy.NewRegistry()
	require.NoError(t, registry.LoadFromRoles(ctx, st))

	signer, err := jwtx.NewSignerHS256(secretKey)
	require.NoError(t, err)
	verifier, err := jwtx.NewVerifierHS256(secretKey, issuer, []string{audience})
	require.NoError(t, err)

	tokens := &service.TokenService{
		Signer:     signer,
		Verifier:   verifier,
		Store:      st,
		Issuer:     issuer,
		Audience:   audience,
		AccessTTL:  15 * time.Minute,
		RefreshTTL: 7 * 24 * time.Hour,
	}

	router := authhttp.NewRouter(verifier, "e2e", st, registry, slog.Default())
	router.TokenService = tokens
	router.LoginService = &service.LoginService{Store: st, Tokens: tokens}
	router.MFAService = &service.MFAService{Store: st, Issuer: issuer}
	router.ApplyRoutes()

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &testEnv{
		Client:   authsdk.NewClient(server.URL),
		Store:    st,
		Tokens:   tokens,
		Registry: registry,
	}
}

// seedUser creates an active, confirmed user holding one of the bootstrap
// roles (Admin, Editor, Viewer).
func seedUser(t *testing.T, st store.Store, username, password, roleName string) domain.User {
	t.Helper()
	ctx := context.Background()

	hash, err := cryptox.HashPassword(password)
	require.NoError(t, err)

	u := domain.User{
		ID:             idx.New().String(),
		Username:       username,
		Email:          username + "@example.com",
		EmailConfirmed: true,
		Active:         true,
		PasswordHash:   hash,
	}
	require.NoError(t, st.Users().CreateUser(ctx, u))

	role, err := st.Roles().GetRoleByName(ctx, roleName)
	require.NoError(t, err)
	require.NoError(t, st.Roles().AssignRole(ctx, u.ID, role.ID))

	return u
}

// assertTokenResponse verifies a token response has all required fields.
func assertTokenResponse(t *testing.T, resp *authsdk.TokenResponse) {
	t.Helper()
	require.NotNil(t, resp)
	require.NotEmpty(t, resp.AccessToken, "Access token should not be empty")
	require.NotEmpty(t, resp.RefreshToken, "Refresh token should not be empty")
	require.Equal(t, "Bearer", resp.TokenType, "Token type should be Bearer")
	require.Positive(t, resp.ExpiresIn, "Expiry should be set")
}

// assertAPIError checks that an error is an APIError with the given code.
func assertAPIError(t *testing.T, err error, code string, context string) {
	t.Helper()
	require.Error(t, err, context)

	var apiErr *authsdk.APIError
	require.ErrorAs(t, err, &apiErr, context)
	require.Equal(t, code, apiErr.Code, context)
}
