package http

import (
	"net/http"

	"github.com/skyvault-io/skyvault/internal/auth/obs"
	"github.com/skyvault-io/skyvault/internal/auth/policy"
	"github.com/skyvault-io/skyvault/internal/auth/store"
	"github.com/skyvault-io/skyvault/pkg/authsdk"
	"github.com/skyvault-io/skyvault/pkg/httpx"
	"github.com/skyvault-io/skyvault/pkg/slogx"
)

// PoliciesHandler serves the policy registry endpoints.
type PoliciesHandler struct {
	Registry *policy.Registry
	Store    store.Store
}

// HandleList godoc
//
//	@Summary		List Policies Endpoint
//	@Description	Lists the names of all registered authorization policies.
//	@Tags			Policies
//	@Produce		json
//	@Success		200	{object}	authsdk.PoliciesResponse	"policies"
//	@Failure		401	{object}	authsdk.ErrorResponse		"error, error_description"
//	@Security		BearerAuth
//	@Router			/v1/auth/policies [get].
func (h *PoliciesHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, authsdk.PoliciesResponse{
		Policies: h.Registry.Names(),
	})
}

// HandleReload godoc
//
//	@Summary		Reload Policies Endpoint
//	@Description	Rebuilds the policy registry from the role claims currently in the database, picking up claims added since startup.
//	@Tags			Policies
//	@Produce		json
//	@Success		200	{object}	authsdk.PoliciesResponse	"policies"
//	@Failure		401	{object}	authsdk.ErrorResponse		"error, error_description"
//	@Failure		403	{object}	authsdk.ErrorResponse		"error, error_description"
//	@Security		BearerAuth
//	@Router			/v1/auth/policies/reload [post].
func (h *PoliciesHandler) HandleReload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	if err := h.Registry.Reload(ctx, h.Store); err != nil {
		log.Error("policy reload failed", "err", err)
		authsdk.ErrServerError.WriteError(w)
		return
	}

	obs.SetRegisteredPolicies(h.Registry.Len())
	log.Info("policy registry reloaded", "policies", h.Registry.Len())

	httpx.WriteJSON(w, http.StatusOK, authsdk.PoliciesResponse{
		Policies: h.Registry.Names(),
	})
}
