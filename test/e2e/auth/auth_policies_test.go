package auth_test

import (
	"context"
	"testing"

	"github.com/skyvault-io/skyvault/internal/auth/domain"
	"github.com/skyvault-io/skyvault/pkg/idx"
	"github.com/stretchr/testify/require"
)

// TestPolicyEndpoints verifies that the registry built from the seeded roles
// is visible over the API and that reload is restricted to holders of the
// ManageUsers policy.
func TestPolicyEndpoints(t *testing.T) {
	env := setupAuthServer(t)
	ctx := context.Background()

	admin, err := env.Client.Login(ctx, adminUsername, adminPassword, "")
	require.NoError(t, err)
	viewer, err := env.Client.Login(ctx, userUsername, userPassword, "")
	require.NoError(t, err)

	t.Run("any authenticated user can list", func(t *testing.T) {
		resp, err := env.Client.Policies(ctx, viewer.AccessToken)
		require.NoError(t, err)
		require.ElementsMatch(t,
			[]string{"ReadAccess", "WriteAccess", "ManageUsers"}, resp.Policies)
	})

	t.Run("viewer cannot reload", func(t *testing.T) {
		_, err := env.Client.ReloadPolicies(ctx, viewer.AccessToken)
		require.Error(t, err)
	})

	t.Run("admin reload picks up new claims", func(t *testing.T) {
		role := domain.Role{ID: idx.New().String(), Name: "Archivist"}
		require.NoError(t, env.Store.Roles().CreateRole(context.Background(), role))
		require.NoError(t, env.Store.Claims().AddRoleClaim(context.Background(), role.ID,
			domain.Claim{Type: "permission", Value: "ExportAccess"}))

		// Not visible until an explicit reload.
		before, err := env.Client.Policies(ctx, admin.AccessToken)
		require.NoError(t, err)
		require.NotContains(t, before.Policies, "ExportAccess")

		after, err := env.Client.ReloadPolicies(ctx, admin.AccessToken)
		require.NoError(t, err)
		require.Contains(t, after.Policies, "ExportAccess")
	})
}
