package jwtx

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestClaimsJSONFlattensExtra(t *testing.T) {
	t.Parallel()

	c := testClaims(time.Minute)
	data, err := json.Marshal(c)
	require.NoError(t, err)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(data, &payload))

	// Extra pairs live at the top level of the payload, next to the
	// registered claims.
	require.Equal(t, "WriteAccess", payload["permission"])
	require.Equal(t, "mira@example.com", payload["email"])
	require.Equal(t, "skyvault-auth", payload["iss"])
	require.NotContains(t, payload, "Extra")
}

func TestClaimsJSONRoundTrip(t *testing.T) {
	t.Parallel()

	in := testClaims(time.Minute)
	data, err := json.Marshal(in)
	require.NoError(t, err)

	var out Claims
	require.NoError(t, json.Unmarshal(data, &out))

	require.Equal(t, in.Subject, out.Subject)
	require.Equal(t, in.Username, out.Username)
	require.Equal(t, in.Email, out.Email)
	require.Equal(t, in.IP, out.IP)
	require.Equal(t, in.Roles, out.Roles)
	require.Equal(t, in.Extra, out.Extra)
}

func TestExtraCannotShadowReservedClaims(t *testing.T) {
	t.Parallel()

	c := testClaims(time.Minute)
	c.Extra = map[string]string{
		"sub":        "spoofed-subject",
		"email":      "spoofed@example.com",
		"permission": "ReadAccess",
	}

	data, err := json.Marshal(c)
	require.NoError(t, err)

	var out Claims
	require.NoError(t, json.Unmarshal(data, &out))

	require.Equal(t, "01JTESTUSERID", out.Subject)
	require.Equal(t, "mira@example.com", out.Email)
	require.Equal(t, "ReadAccess", out.Extra["permission"])
}

func TestNewJTIIsUnique(t *testing.T) {
	t.Parallel()

	seen := make(map[string]struct{})
	for i := 0; i < 64; i++ {
		jti := NewJTI()
		require.NotEmpty(t, jti)
		_, dup := seen[jti]
		require.False(t, dup)
		seen[jti] = struct{}{}
	}
}
