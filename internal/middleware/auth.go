package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/itchan-dev/userhub/internal/domain"
	"github.com/itchan-dev/userhub/internal/utils"
)

// Key to store the verified claims in the request context
type key int

const UserClaimsKey key = 0

type TokenDecoder interface {
	DecodeClaims(jwtStr string) (*domain.Claims, error)
}

// Auth holds dependencies for authentication middleware
type Auth struct {
	jwt TokenDecoder
}

func NewAuth(jwt TokenDecoder) *Auth {
	return &Auth{jwt: jwt}
}

// RequireAuth returns middleware that verifies the bearer token and stores
// the extracted claims in the request context.
func (a *Auth) RequireAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, found := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !found || tokenString == "" {
				http.Error(w, "Please sign-in", http.StatusUnauthorized)
				return
			}

			claims, err := a.jwt.DecodeClaims(tokenString)
			if err != nil {
				utils.WriteErrorAndStatusCode(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), UserClaimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetClaimsFromContext retrieves the verified claims from the context
func GetClaimsFromContext(r *http.Request) *domain.Claims {
	claims, ok := r.Context().Value(UserClaimsKey).(*domain.Claims)
	if !ok {
		return nil
	}
	return claims
}
