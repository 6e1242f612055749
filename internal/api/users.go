package api

import (
	"time"

	"github.com/itchan-dev/userhub/internal/domain"
)

// Request DTOs

type RegisterRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Response DTOs

type TokenResponse struct {
	Token string `json:"token"`
}

// UserResponse is the roster projection. The password hash never leaves the
// service, so it has no field here.
type UserResponse struct {
	Id        domain.UserId     `json:"id"`
	Name      string            `json:"name"`
	Email     domain.Email      `json:"email"`
	Status    domain.UserStatus `json:"status"`
	LastLogin *time.Time        `json:"last_login"`
	CreatedAt time.Time         `json:"created_at"`
}

func NewUserResponse(u domain.User) UserResponse {
	return UserResponse{
		Id:        u.Id,
		Name:      u.Name,
		Email:     u.Email,
		Status:    u.Status,
		LastLogin: u.LastLogin,
		CreatedAt: u.CreatedAt,
	}
}

type BulkActionResponse struct {
	Message  string `json:"message"`
	Affected int64  `json:"affected"`
}
