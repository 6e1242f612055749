package domain

import "time"

type UserId = int64
type Email = string

// UserStatus gates the account's ability to authenticate and to act on others.
// It is independent from the soft-delete flag: a deleted account keeps its
// last status, but the system never observes it.
type UserStatus string

const (
	StatusActive  UserStatus = "active"
	StatusBlocked UserStatus = "blocked"
)

type User struct {
	Id           UserId
	Name         string
	Email        Email
	PasswordHash string
	Status       UserStatus
	LastLogin    *time.Time // nil means "never logged in"
	CreatedAt    time.Time
	IsDeleted    bool
}

// CanManageUsers reports whether the account may perform roster mutations.
// This is the single lifecycle predicate shared by the account-status
// middleware and the bulk handlers; keep both layers on this function.
func (u User) CanManageUsers() bool {
	return !u.IsDeleted && u.Status != StatusBlocked
}
