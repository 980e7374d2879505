package http

import (
	"net/http"

	"github.com/skyvault-io/skyvault/internal/auth/service"
	"github.com/skyvault-io/skyvault/pkg/authsdk"
	"github.com/skyvault-io/skyvault/pkg/httpx"
	"github.com/skyvault-io/skyvault/pkg/slogx"
)

// LogoutHandler serves POST /v1/auth/logout.
type LogoutHandler struct {
	LoginService *service.LoginService
}

// ServeHTTP godoc
//
//	@Summary		Logout Endpoint
//	@Description	Revokes the caller's refresh token. The access token remains valid until it expires naturally.
//	@Tags			Auth
//	@Produce		json
//	@Success		204	"refresh token revoked"
//	@Failure		401	{object}	authsdk.ErrorResponse	"error, error_description"
//	@Security		BearerAuth
//	@Router			/v1/auth/logout [post].
func (h *LogoutHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	userID := httpx.UserIDFromContext(ctx)
	if userID == "" {
		authsdk.ErrInvalidToken.WriteError(w)
		return
	}

	if err := h.LoginService.Logout(ctx, userID); err != nil {
		log.Error("logout failed", "err", err, "user_id", userID)
		authsdk.ErrServerError.WriteError(w)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
