package httpx

import (
	"net/http"
	"strings"
)

// RequireClaim the caller's token must carry the exact claim pair.
func RequireClaim(claimType, claimValue string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok || !claims.HasClaim(claimType, claimValue) {
				writeBearerClaimError(w, http.StatusForbidden, claimType+"="+claimValue)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAnyRole the caller must hold at least one of the listed roles.
func RequireAnyRole(required ...string) Middleware {
	want := make(map[string]struct{}, len(required))
	for _, role := range required {
		want[role] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, role := range rolesFromCtx(r.Context()) {
				if _, ok := want[role]; ok {
					next.ServeHTTP(w, r)
					return
				}
			}
			writeBearerClaimError(w, http.StatusForbidden, "roles="+strings.Join(required, "|"))
		})
	}
}

// RFC 6750-style error response for an authenticated but unauthorized caller.
func writeBearerClaimError(w http.ResponseWriter, code int, required string) {
	w.Header().
		Set("WWW-Authenticate", `Bearer error="insufficient_scope", scope="`+required+`"`)
	w.WriteHeader(code)
	_, _ = w.Write([]byte("insufficient_scope"))
}
