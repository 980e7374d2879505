package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/skyvault-io/skyvault/internal/auth/service"
	"github.com/skyvault-io/skyvault/pkg/authsdk"
	"github.com/skyvault-io/skyvault/pkg/httpx"
	"github.com/skyvault-io/skyvault/pkg/slogx"
)

// MFAHandler serves the TOTP enrollment endpoints.
type MFAHandler struct {
	MFAService *service.MFAService
}

// HandleEnroll godoc
//
//	@Summary		MFA Enrollment Endpoint
//	@Description	Generates a TOTP secret for the authenticated account. MFA is not enforced until activated with a valid code.
//	@Tags			MFA
//	@Produce		json
//	@Success		200	{object}	authsdk.MFAEnrollResponse	"secret, url"
//	@Failure		401	{object}	authsdk.ErrorResponse		"error, error_description"
//	@Security		BearerAuth
//	@Router			/v1/auth/mfa/enroll [post].
func (h *MFAHandler) HandleEnroll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	secret, url, err := h.MFAService.Enroll(ctx, httpx.UserIDFromContext(ctx))
	if err != nil {
		log.Error("mfa enroll failed", "err", err)
		authsdk.ErrServerError.WriteError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.MFAEnrollResponse{
		Secret: secret,
		URL:    url,
	})
}

// HandleActivate godoc
//
//	@Summary		MFA Activation Endpoint
//	@Description	Turns MFA enforcement on after the caller proves possession of the enrolled secret with a valid TOTP code.
//	@Tags			MFA
//	@Accept			json
//	@Produce		json
//	@Param			request	body	authsdk.MFACodeRequest	true	"Current TOTP code"
//	@Success		204		"MFA enabled"
//	@Failure		400		{object}	authsdk.ErrorResponse	"error, error_description"
//	@Failure		401		{object}	authsdk.ErrorResponse	"error, error_description"
//	@Security		BearerAuth
//	@Router			/v1/auth/mfa/activate [post].
func (h *MFAHandler) HandleActivate(w http.ResponseWriter, r *http.Request) {
	h.verifyCode(w, r, h.MFAService.Activate)
}

// HandleDisable godoc
//
//	@Summary		MFA Disable Endpoint
//	@Description	Turns MFA enforcement off. A valid TOTP code is still required so a hijacked session cannot weaken the account silently.
//	@Tags			MFA
//	@Accept			json
//	@Produce		json
//	@Param			request	body	authsdk.MFACodeRequest	true	"Current TOTP code"
//	@Success		204		"MFA disabled"
//	@Failure		400		{object}	authsdk.ErrorResponse	"error, error_description"
//	@Failure		401		{object}	authsdk.ErrorResponse	"error, error_description"
//	@Security		BearerAuth
//	@Router			/v1/auth/mfa/disable [post].
func (h *MFAHandler) HandleDisable(w http.ResponseWriter, r *http.Request) {
	h.verifyCode(w, r, h.MFAService.Disable)
}

func (h *MFAHandler) verifyCode(
	w http.ResponseWriter,
	r *http.Request,
	apply func(ctx context.Context, userID, code string) error,
) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req authsdk.MFACodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Code == "" {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	err := apply(ctx, httpx.UserIDFromContext(ctx), req.Code)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMFANotProvisioned):
			authsdk.ErrInvalidRequest.WriteError(w)
		case errors.Is(err, service.ErrInvalidOTP):
			authsdk.ErrInvalidGrant.WriteError(w)
		default:
			log.Error("mfa update failed", "err", err)
			authsdk.ErrServerError.WriteError(w)
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
