package app

import (
	"testing"
	"time"

	"github.com/skyvault-io/skyvault/internal/auth/service"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	cfg := LoadConfig()
	cfg.SecretKey = "test-secret"
	return cfg
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg := LoadConfig()

	require.Equal(t, "skyvault-auth", cfg.Issuer)
	require.Equal(t, "skyvault-api", cfg.Audience)
	require.Equal(t, 15*time.Minute, cfg.AccessTokenTTL)
	require.Equal(t, 7*24*time.Hour, cfg.RefreshTokenTTL)
	require.Equal(t, service.RoleClaimsFirst, cfg.RoleClaimsMode)
	require.Equal(t, 8080, cfg.Port)
}

func TestConfigEnvOverrides(t *testing.T) {
	t.Setenv("AUTH_ISSUER", "other-issuer")
	t.Setenv("AUTH_ACCESS_TOKEN_TTL", "5m")
	t.Setenv("AUTH_REFRESH_TOKEN_TTL", "48h")
	t.Setenv("AUTH_ROLE_CLAIMS_MODE", "union")
	t.Setenv("PORT", "9090")

	cfg := LoadConfig()
	require.Equal(t, "other-issuer", cfg.Issuer)
	require.Equal(t, 5*time.Minute, cfg.AccessTokenTTL)
	require.Equal(t, 48*time.Hour, cfg.RefreshTokenTTL)
	require.Equal(t, service.RoleClaimsUnion, cfg.RoleClaimsMode)
	require.Equal(t, 9090, cfg.Port)
}

func TestConfigTTLAcceptsBareMinutes(t *testing.T) {
	t.Setenv("AUTH_ACCESS_TOKEN_TTL", "30")

	cfg := LoadConfig()
	require.Equal(t, 30*time.Minute, cfg.AccessTokenTTL)
}

func TestConfigValidate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		require.NoError(t, validConfig().Validate())
	})

	t.Run("empty secret rejected", func(t *testing.T) {
		cfg := validConfig()
		cfg.SecretKey = ""
		require.Error(t, cfg.Validate())
	})

	t.Run("non-positive ttl rejected", func(t *testing.T) {
		cfg := validConfig()
		cfg.AccessTokenTTL = 0
		require.Error(t, cfg.Validate())
	})

	t.Run("unknown claims mode rejected", func(t *testing.T) {
		cfg := validConfig()
		cfg.RoleClaimsMode = "both"
		require.Error(t, cfg.Validate())
	})
}
