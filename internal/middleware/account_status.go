package middleware

import (
	"net/http"

	"github.com/itchan-dev/userhub/internal/domain"
	"github.com/itchan-dev/userhub/internal/errors"
	"github.com/itchan-dev/userhub/internal/logger"
)

// ActorStore fetches the acting account's current row.
type ActorStore interface {
	UserById(id domain.UserId) (domain.User, error)
}

// RequireActiveAccount re-fetches the acting account and rejects the request
// if it has been blocked or deleted since the token was issued. Apply it to
// mutating routes; the token's signature alone is not enough there because a
// token outlives lifecycle changes to its account. Read routes stay exempt
// on purpose (see DESIGN.md).
func RequireActiveAccount(store ActorStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := GetClaimsFromContext(r)
			if claims == nil {
				http.Error(w, "Please sign-in", http.StatusUnauthorized)
				return
			}

			if !claims.HasCapability(domain.CapManageUsers) {
				http.Error(w, "Access denied", http.StatusForbidden)
				return
			}

			user, err := store.UserById(claims.UserId)
			if err != nil {
				if errors.IsNotFound(err) {
					http.Error(w, "Account is blocked or deleted. Please log in again.", http.StatusUnauthorized)
					return
				}
				logger.Log.Error("failed to fetch acting account", "user_id", claims.UserId, "error", err)
				http.Error(w, "Internal server error", http.StatusInternalServerError)
				return
			}

			if !user.CanManageUsers() {
				http.Error(w, "Account is blocked or deleted. Please log in again.", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
