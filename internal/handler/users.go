package handler

import (
	"net/http"

	"github.com/itchan-dev/userhub/internal/api"
	"github.com/itchan-dev/userhub/internal/domain"
	mw "github.com/itchan-dev/userhub/internal/middleware"
	"github.com/itchan-dev/userhub/internal/utils"
)

// ListUsers returns the live roster ordered by recency of login.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.auth.ActiveUsers()
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	response := make([]api.UserResponse, 0, len(users))
	for _, u := range users {
		response = append(response, api.NewUserResponse(u))
	}
	writeJSON(w, response)
}

func (h *Handler) BlockUsers(w http.ResponseWriter, r *http.Request) {
	h.bulkAction(w, r, h.auth.BlockUsers, "Users blocked successfully.")
}

func (h *Handler) UnblockUsers(w http.ResponseWriter, r *http.Request) {
	h.bulkAction(w, r, h.auth.UnblockUsers, "Users unblocked successfully.")
}

func (h *Handler) DeleteUsers(w http.ResponseWriter, r *http.Request) {
	h.bulkAction(w, r, h.auth.DeleteUsers, "Users deleted successfully.")
}

// bulkAction re-checks the acting account before applying a roster mutation.
// The account-status middleware performs the same check; both layers use the
// shared lifecycle predicate so they can't drift apart.
func (h *Handler) bulkAction(w http.ResponseWriter, r *http.Request, action func([]domain.UserId) (int64, error), successMessage string) {
	claims := mw.GetClaimsFromContext(r)
	if claims == nil {
		http.Error(w, "Please sign-in", http.StatusUnauthorized)
		return
	}

	if err := h.auth.EnsureActive(claims.UserId); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	var ids []domain.UserId
	if err := utils.Decode(r.Body, &ids); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	affected, err := action(ids)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	writeJSON(w, api.BulkActionResponse{Message: successMessage, Affected: affected})
}
