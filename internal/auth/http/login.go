package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/skyvault-io/skyvault/internal/auth/service"
	"github.com/skyvault-io/skyvault/pkg/authsdk"
	"github.com/skyvault-io/skyvault/pkg/httpx"
	"github.com/skyvault-io/skyvault/pkg/slogx"
)

// LoginHandler serves POST /v1/auth/login.
type LoginHandler struct {
	LoginService *service.LoginService
}

// ServeHTTP godoc
//
//	@Summary		Login Endpoint
//	@Description	Authenticates a user by username (or email) and password, optionally with a TOTP code, and returns a token pair.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.LoginRequest	true	"Credentials"
//	@Success		200		{object}	authsdk.TokenResponse	"access_token, refresh_token, token_type, expires_in, refresh_expires_at"
//	@Failure		400		{object}	authsdk.ErrorResponse	"error, error_description"
//	@Failure		401		{object}	authsdk.ErrorResponse	"error, error_description"
//	@Failure		403		{object}	authsdk.ErrorResponse	"error, error_description"
//	@Header			200		{string}	Cache-Control			"no-store"
//	@Router			/v1/auth/login [post].
func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req authsdk.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}
	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	pair, err := h.LoginService.Login(ctx, req.Username, req.Password, req.OTPCode,
		httpx.IPKeyExtractor(r))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			authsdk.ErrInvalidGrant.WriteError(w)
		case errors.Is(err, service.ErrMFARequired):
			authsdk.ErrMFARequired.WriteError(w)
		case errors.Is(err, service.ErrUserInactive),
			errors.Is(err, service.ErrEmailNotConfirmed):
			authsdk.ErrAccessDenied.WriteError(w)
		default:
			log.Error("login failed", "err", err)
			authsdk.ErrServerError.WriteError(w)
		}
		return
	}

	httpx.WriteJSON(w, http.StatusOK, tokenResponse(pair))
}
