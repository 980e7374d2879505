package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/skyvault-io/skyvault/internal/auth/obs"
	"github.com/skyvault-io/skyvault/internal/auth/policy"
	"github.com/skyvault-io/skyvault/internal/auth/service"
	"github.com/skyvault-io/skyvault/internal/auth/store"
	"github.com/skyvault-io/skyvault/pkg/httpx"
	"github.com/skyvault-io/skyvault/pkg/jwtx"
	"github.com/skyvault-io/skyvault/pkg/slogx"

	_ "github.com/skyvault-io/skyvault/api/auth" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// PolicyManageUsers guards the policy admin endpoints.
const PolicyManageUsers = "ManageUsers"

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	verifier     jwtx.Verifier
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store    store.Store
	registry *policy.Registry

	TokenService *service.TokenService
	LoginService *service.LoginService
	MFAService   *service.MFAService
}

func NewRouter(
	verifier jwtx.Verifier,
	buildVersion string,
	st store.Store,
	registry *policy.Registry,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		verifier:     verifier,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		registry:     registry,
		logger:       logger,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
		obs.Instrument,
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerTokens()
	r.registerMFA()
	r.registerPolicies()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			SkyVault Authentication Service API
//	@version		0.1.0
//	@description	Token-based authentication for the SkyVault catalog API: password login with optional TOTP, JWT access tokens, rotating refresh tokens, and claim-driven authorization policies.
//	@description
//	@description				All tokens are signed with HS256 over a shared secret.
//
//	@contact.name				SkyVault Team
//	@contact.url				https://github.com/skyvault-io/skyvault
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT access token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

// RequirePolicy resolves a registered policy name to its claim pair and
// enforces it on the wrapped handler. An unregistered policy denies every
// request rather than failing open.
func RequirePolicy(registry *policy.Registry, name string) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			claim, ok := registry.Lookup(name)
			if !ok {
				w.WriteHeader(http.StatusForbidden)
				return
			}
			httpx.RequireClaim(claim.Type, claim.Value)(next).ServeHTTP(w, req)
		})
	}
}

func (r *Router) registerTokens() {
	loginHandler := &LoginHandler{LoginService: r.LoginService}
	r.Mux.Handle("POST /v1/auth/login",
		httpx.Chain(loginHandler,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	refreshHandler := &RefreshHandler{TokenService: r.TokenService}
	r.Mux.Handle("POST /v1/auth/refresh",
		httpx.Chain(refreshHandler,
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)

	logoutHandler := &LogoutHandler{LoginService: r.LoginService}
	r.Mux.Handle("POST /v1/auth/logout",
		httpx.Chain(logoutHandler,
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerMFA() {
	h := &MFAHandler{MFAService: r.MFAService}

	r.Mux.Handle("POST /v1/auth/mfa/enroll",
		httpx.Chain(http.HandlerFunc(h.HandleEnroll),
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("POST /v1/auth/mfa/activate",
		httpx.Chain(http.HandlerFunc(h.HandleActivate),
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitByUser(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /v1/auth/mfa/disable",
		httpx.Chain(http.HandlerFunc(h.HandleDisable),
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitByUser(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerPolicies() {
	h := &PoliciesHandler{Registry: r.registry, Store: r.store}

	r.Mux.Handle("GET /v1/auth/policies",
		httpx.Chain(http.HandlerFunc(h.HandleList),
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitByUser(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("POST /v1/auth/policies/reload",
		httpx.Chain(http.HandlerFunc(h.HandleReload),
			httpx.AuthnMiddleware(r.verifier),
			RequirePolicy(r.registry, PolicyManageUsers),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez", LivezHandler(r.startTime, r.buildVersion))
	r.Mux.Handle("GET /readyz",
		ReadyzHandler(r.startTime, r.buildVersion, r.store, r.TokenService.Signer))
	r.Mux.Handle("GET /metrics", obs.Handler())
}
