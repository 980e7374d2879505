package httpx_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/skyvault-io/skyvault/pkg/httpx"
	"github.com/skyvault-io/skyvault/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

const testSecret = "httpx-test-secret"

func signedToken(t *testing.T, roles []string, extra map[string]string, ttl time.Duration) string {
	t.Helper()

	signer, err := jwtx.NewSignerHS256(testSecret)
	require.NoError(t, err)

	claims := jwtx.NewAccessClaims(
		"01JUSERID", "nova", "nova@example.com", "192.0.2.1",
		roles, extra, ttl, "skyvault-auth", []string{"skyvault-api"}, time.Now().UTC(),
	)
	token, err := signer.Sign(claims)
	require.NoError(t, err)
	return token
}

func newVerifier(t *testing.T) jwtx.Verifier {
	t.Helper()

	v, err := jwtx.NewVerifierHS256(testSecret, "skyvault-auth", []string{"skyvault-api"})
	require.NoError(t, err)
	return v
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthnMiddleware(t *testing.T) {
	secured := httpx.Chain(okHandler(), httpx.AuthnMiddleware(newVerifier(t)))

	t.Run("valid bearer token passes", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+signedToken(t, nil, nil, time.Minute))
		rec := httptest.NewRecorder()

		secured.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("missing header rejected", func(t *testing.T) {
		rec := httptest.NewRecorder()
		secured.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Contains(t, rec.Header().Get("WWW-Authenticate"), "invalid_token")
	})

	t.Run("expired token rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+signedToken(t, nil, nil, -time.Minute))
		rec := httptest.NewRecorder()

		secured.ServeHTTP(rec, req)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("garbage token rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer not.a.jwt")
		rec := httptest.NewRecorder()

		secured.ServeHTTP(rec, req)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestAuthnMiddlewareInjectsClaims(t *testing.T) {
	var got jwtx.Claims
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := httpx.ClaimsFromContext(r.Context())
		require.True(t, ok)
		got = claims
		require.Equal(t, "01JUSERID", httpx.UserIDFromContext(r.Context()))
		w.WriteHeader(http.StatusOK)
	})

	secured := httpx.Chain(inner, httpx.AuthnMiddleware(newVerifier(t)))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signedToken(t,
		[]string{"Editor"}, map[string]string{"permission": "WriteAccess"}, time.Minute))
	rec := httptest.NewRecorder()

	secured.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, []string{"Editor"}, got.Roles)
	require.Equal(t, "WriteAccess", got.Extra["permission"])
}

func TestRequireClaim(t *testing.T) {
	secured := httpx.Chain(okHandler(),
		httpx.AuthnMiddleware(newVerifier(t)),
		httpx.RequireClaim("permission", "WriteAccess"),
	)

	send := func(token string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		secured.ServeHTTP(rec, req)
		return rec
	}

	t.Run("matching claim pair passes", func(t *testing.T) {
		rec := send(signedToken(t, nil, map[string]string{"permission": "WriteAccess"}, time.Minute))
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("wrong value forbidden", func(t *testing.T) {
		rec := send(signedToken(t, nil, map[string]string{"permission": "ReadAccess"}, time.Minute))
		require.Equal(t, http.StatusForbidden, rec.Code)
		require.Contains(t, rec.Header().Get("WWW-Authenticate"), "insufficient_scope")
	})

	t.Run("missing claim forbidden", func(t *testing.T) {
		rec := send(signedToken(t, nil, nil, time.Minute))
		require.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestRequireAnyRole(t *testing.T) {
	secured := httpx.Chain(okHandler(),
		httpx.AuthnMiddleware(newVerifier(t)),
		httpx.RequireAnyRole("Admin", "Editor"),
	)

	send := func(roles []string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+signedToken(t, roles, nil, time.Minute))
		rec := httptest.NewRecorder()
		secured.ServeHTTP(rec, req)
		return rec
	}

	require.Equal(t, http.StatusOK, send([]string{"Editor"}).Code)
	require.Equal(t, http.StatusOK, send([]string{"Viewer", "Admin"}).Code)
	require.Equal(t, http.StatusForbidden, send([]string{"Viewer"}).Code)
	require.Equal(t, http.StatusForbidden, send(nil).Code)
}

func TestIPKeyExtractor(t *testing.T) {
	t.Run("extracts from RemoteAddr", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "192.168.1.1:12345"

		require.Equal(t, "192.168.1.1", httpx.IPKeyExtractor(req))
	})

	t.Run("prefers X-Forwarded-For", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "192.168.1.1:12345"
		req.Header.Set("X-Forwarded-For", "203.0.113.1, 192.168.1.1")

		require.Equal(t, "203.0.113.1", httpx.IPKeyExtractor(req))
	})

	t.Run("uses X-Real-IP if X-Forwarded-For absent", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "192.168.1.1:12345"
		req.Header.Set("X-Real-IP", "203.0.113.2")

		require.Equal(t, "203.0.113.2", httpx.IPKeyExtractor(req))
	})
}

func TestRateLimitMiddleware(t *testing.T) {
	t.Run("allows requests under limit", func(t *testing.T) {
		config := httpx.RateLimitConfig{
			RequestsPerWindow: 5,
			Window:            time.Second,
			Burst:             5,
		}

		limited := httpx.RateLimitMiddleware(config, httpx.IPKeyExtractor)(okHandler())

		for i := 0; i < 5; i++ {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = "192.168.1.1:12345"
			rec := httptest.NewRecorder()

			limited.ServeHTTP(rec, req)
			require.Equal(t, http.StatusOK, rec.Code, "request %d should succeed", i+1)
		}
	})

	t.Run("blocks requests over limit", func(t *testing.T) {
		config := httpx.RateLimitConfig{
			RequestsPerWindow: 2,
			Window:            time.Minute,
			Burst:             2,
		}

		limited := httpx.RateLimitMiddleware(config, httpx.IPKeyExtractor)(okHandler())

		send := func() *httptest.ResponseRecorder {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = "192.168.1.2:12345"
			rec := httptest.NewRecorder()
			limited.ServeHTTP(rec, req)
			return rec
		}

		require.Equal(t, http.StatusOK, send().Code)
		require.Equal(t, http.StatusOK, send().Code)

		rec := send()
		require.Equal(t, http.StatusTooManyRequests, rec.Code)
		require.NotEmpty(t, rec.Header().Get("Retry-After"))
	})

	t.Run("limits are per key", func(t *testing.T) {
		config := httpx.RateLimitConfig{
			RequestsPerWindow: 1,
			Window:            time.Minute,
			Burst:             1,
		}

		limited := httpx.RateLimitMiddleware(config, httpx.IPKeyExtractor)(okHandler())

		send := func(addr string) int {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = addr
			rec := httptest.NewRecorder()
			limited.ServeHTTP(rec, req)
			return rec.Code
		}

		require.Equal(t, http.StatusOK, send("10.0.0.1:1"))
		require.Equal(t, http.StatusTooManyRequests, send("10.0.0.1:1"))
		require.Equal(t, http.StatusOK, send("10.0.0.2:1"))
	})
}
