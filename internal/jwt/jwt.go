package jwt

import (
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/itchan-dev/userhub/internal/domain"
	internal_errors "github.com/itchan-dev/userhub/internal/errors"
	"github.com/itchan-dev/userhub/internal/logger"
)

type TokenService interface {
	NewToken(user domain.User) (string, error)
	DecodeClaims(jwtStr string) (*domain.Claims, error)
}

type Jwt struct {
	secretKey string
	issuer    string
	audience  string
	ttl       time.Duration
}

func New(secretKey, issuer, audience string, ttl time.Duration) TokenService {
	return &Jwt{secretKey, issuer, audience, ttl}
}

// NewToken issues a signed access token binding the account identity and a
// fixed role claim. Everything beyond identity is re-derived from storage on
// each request, so the claims stay minimal.
func (j *Jwt) NewToken(user domain.User) (string, error) {
	claims := jwt.MapClaims{}
	claims["uid"] = user.Id
	claims["email"] = user.Email
	claims["role"] = domain.RoleAdmin
	claims["iss"] = j.issuer
	claims["aud"] = j.audience
	claims["exp"] = time.Now().Add(j.ttl).Unix()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(j.secretKey))
	if err != nil {
		logger.Log.Error("failed to sign token", "error", err)
		return "", fmt.Errorf("can't create token: %w", err)
	}

	return tokenString, nil
}

// DecodeClaims verifies signature, algorithm, issuer, audience and expiry,
// then extracts the identity claims. Any failure maps to 401.
func (j *Jwt) DecodeClaims(jwtStr string) (*domain.Claims, error) {
	token, err := jwt.Parse(jwtStr,
		func(token *jwt.Token) (interface{}, error) {
			return []byte(j.secretKey), nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(j.issuer),
		jwt.WithAudience(j.audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		logger.Log.Debug("token verification failed", "error", err)
		return nil, &internal_errors.ErrorWithStatusCode{Message: "Invalid access token", StatusCode: http.StatusUnauthorized}
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, &internal_errors.ErrorWithStatusCode{Message: "Invalid token claims", StatusCode: http.StatusUnauthorized}
	}

	uid, ok := mapClaims["uid"].(float64)
	if !ok {
		return nil, &internal_errors.ErrorWithStatusCode{Message: "Invalid token claims", StatusCode: http.StatusUnauthorized}
	}
	email, ok := mapClaims["email"].(string)
	if !ok {
		return nil, &internal_errors.ErrorWithStatusCode{Message: "Invalid token claims", StatusCode: http.StatusUnauthorized}
	}
	role, ok := mapClaims["role"].(string)
	if !ok {
		return nil, &internal_errors.ErrorWithStatusCode{Message: "Invalid token claims", StatusCode: http.StatusUnauthorized}
	}

	return &domain.Claims{
		UserId: domain.UserId(uid),
		Email:  email,
		Role:   role,
	}, nil
}
