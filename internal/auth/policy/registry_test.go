package policy

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/skyvault-io/skyvault/internal/auth/domain"
	"github.com/skyvault-io/skyvault/internal/auth/store"
	"github.com/skyvault-io/skyvault/internal/auth/store/drivers/sqlite"
	"github.com/skyvault-io/skyvault/pkg/idx"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) store.Store {
	t.Helper()

	s, err := sqlite.NewStore("file:" + filepath.Join(t.TempDir(), "auth.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.ApplyMigrations())
	return s
}

func addRole(t *testing.T, st store.Store, name string, claims ...domain.Claim) domain.Role {
	t.Helper()

	ctx := context.Background()
	role := domain.Role{ID: idx.New().String(), Name: name}
	require.NoError(t, st.Roles().CreateRole(ctx, role))
	for _, c := range claims {
		require.NoError(t, st.Claims().AddRoleClaim(ctx, role.ID, c))
	}
	return role
}

func TestLoadFromRolesRegistersOnePolicyPerDistinctValue(t *testing.T) {
	t.Parallel()

	st := newTestStore(t)
	addRole(t, st, "Admin",
		domain.Claim{Type: "permission", Value: "ReadAccess"},
		domain.Claim{Type: "permission", Value: "WriteAccess"},
	)
	// Same value under a different claim type must not register twice.
	addRole(t, st, "Auditor",
		domain.Claim{Type: "capability", Value: "ReadAccess"},
	)

	r := NewRegistry()
	require.NoError(t, r.LoadFromRoles(context.Background(), st))

	require.Equal(t, 2, r.Len())
	require.Equal(t, []string{"ReadAccess", "WriteAccess"}, r.Names())
	require.True(t, r.IsRegistered("ReadAccess"))
	require.False(t, r.IsRegistered("DeleteAccess"))
}

func TestLookupReturnsTheRequiredClaimPair(t *testing.T) {
	t.Parallel()

	st := newTestStore(t)
	addRole(t, st, "Editor", domain.Claim{Type: "permission", Value: "WriteAccess"})

	r := NewRegistry()
	require.NoError(t, r.LoadFromRoles(context.Background(), st))

	c, ok := r.Lookup("WriteAccess")
	require.True(t, ok)
	require.Equal(t, domain.Claim{Type: "permission", Value: "WriteAccess"}, c)

	_, ok = r.Lookup("missing")
	require.False(t, ok)
}

func TestReloadPicksUpNewClaims(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	st := newTestStore(t)
	role := addRole(t, st, "Admin", domain.Claim{Type: "permission", Value: "ReadAccess"})

	r := NewRegistry()
	require.NoError(t, r.LoadFromRoles(ctx, st))
	require.Equal(t, 1, r.Len())

	require.NoError(t, st.Claims().AddRoleClaim(ctx, role.ID,
		domain.Claim{Type: "permission", Value: "DeleteAccess"}))

	// Registry still serves the startup snapshot until reloaded.
	require.False(t, r.IsRegistered("DeleteAccess"))

	require.NoError(t, r.Reload(ctx, st))
	require.True(t, r.IsRegistered("DeleteAccess"))
	require.Equal(t, 2, r.Len())
}

func TestEmptyDatabaseRegistersNothing(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	require.NoError(t, r.LoadFromRoles(context.Background(), newTestStore(t)))
	require.Zero(t, r.Len())
	require.Empty(t, r.Names())
}
