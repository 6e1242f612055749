package service

import (
	"net/http"
	"strings"
	"time"

	"github.com/itchan-dev/userhub/internal/domain"
	"github.com/itchan-dev/userhub/internal/errors"
	"github.com/itchan-dev/userhub/internal/logger"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/crypto/bcrypt"
)

type AuthService interface {
	Register(name, email, password string) (domain.User, error)
	Login(email, password string) (domain.User, error)
	GenerateToken(user domain.User) (string, error)
	ActiveUsers() ([]domain.User, error)
	BlockUsers(ids []domain.UserId) (int64, error)
	UnblockUsers(ids []domain.UserId) (int64, error)
	DeleteUsers(ids []domain.UserId) (int64, error)
	EnsureActive(id domain.UserId) error
}

type UserStorage interface {
	SaveUser(user domain.User) (domain.User, error)
	ReactivateUser(user domain.User) (domain.User, error)
	User(email domain.Email) (domain.User, error)
	DeletedUser(email domain.Email) (domain.User, error)
	UserById(id domain.UserId) (domain.User, error)
	UpdateLastLogin(id domain.UserId, at time.Time) error
	ActiveUsers() ([]domain.User, error)
	UpdateStatus(ids []domain.UserId, status domain.UserStatus) (int64, error)
	SoftDeleteUsers(ids []domain.UserId) (int64, error)
}

type TokenIssuer interface {
	NewToken(user domain.User) (string, error)
}

type Auth struct {
	storage UserStorage
	jwt     TokenIssuer
}

// namePolicy strips all markup from display names before they are stored.
var namePolicy = bluemonday.StrictPolicy()

func NewAuth(storage UserStorage, jwt TokenIssuer) *Auth {
	return &Auth{storage: storage, jwt: jwt}
}

// All login failure modes share one public error so callers can't probe
// which accounts exist or which are blocked.
func invalidCredentials() error {
	return &errors.ErrorWithStatusCode{Message: "Invalid email or password", StatusCode: http.StatusUnauthorized}
}

func accountUnavailable() error {
	return &errors.ErrorWithStatusCode{Message: "Account is blocked or deleted. Please log in again.", StatusCode: http.StatusUnauthorized}
}

// Register creates a fresh account, or reclaims the email of a soft-deleted
// one by overwriting that row in place. A live account with the same email
// surfaces as a conflict via the storage's unique index.
func (a *Auth) Register(name, email, password string) (domain.User, error) {
	name = strings.TrimSpace(namePolicy.Sanitize(name))

	passHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		logger.Log.Error("failed to hash password", "error", err)
		return domain.User{}, err
	}

	now := time.Now().UTC()

	existing, err := a.storage.DeletedUser(email)
	if err == nil {
		existing.Name = name
		existing.PasswordHash = string(passHash)
		existing.Status = domain.StatusActive
		existing.CreatedAt = now
		existing.LastLogin = &now
		existing.IsDeleted = false
		user, err := a.storage.ReactivateUser(existing)
		if err != nil {
			return domain.User{}, err
		}
		logger.Log.Info("account reactivated", "user_id", user.Id)
		return user, nil
	}
	if !errors.IsNotFound(err) {
		return domain.User{}, err
	}

	user, err := a.storage.SaveUser(domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(passHash),
		Status:       domain.StatusActive,
		LastLogin:    &now,
		CreatedAt:    now,
	})
	if err != nil {
		return domain.User{}, err
	}
	logger.Log.Info("account registered", "user_id", user.Id)
	return user, nil
}

// Login verifies credentials against a live account. Unknown email, blocked
// status and wrong password are logged distinctly but are indistinguishable
// to the caller. On success last_login is stamped and persisted.
func (a *Auth) Login(email, password string) (domain.User, error) {
	user, err := a.storage.User(email)
	if err != nil {
		if errors.IsNotFound(err) {
			logger.Log.Info("login rejected: no live account for email")
			return domain.User{}, invalidCredentials()
		}
		return domain.User{}, err
	}

	if user.Status == domain.StatusBlocked {
		logger.Log.Info("login rejected: account blocked", "user_id", user.Id)
		return domain.User{}, invalidCredentials()
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		logger.Log.Info("login rejected: password mismatch", "user_id", user.Id)
		return domain.User{}, invalidCredentials()
	}

	now := time.Now().UTC()
	if err := a.storage.UpdateLastLogin(user.Id, now); err != nil {
		return domain.User{}, err
	}
	user.LastLogin = &now

	return user, nil
}

func (a *Auth) GenerateToken(user domain.User) (string, error) {
	token, err := a.jwt.NewToken(user)
	if err != nil {
		logger.Log.Error("failed to create jwt token", "user_id", user.Id, "error", err)
		return "", err
	}
	return token, nil
}

func (a *Auth) ActiveUsers() ([]domain.User, error) {
	return a.storage.ActiveUsers()
}

// BlockUsers sets every matching live account to blocked. Empty or unmatched
// id sets are a successful no-op.
func (a *Auth) BlockUsers(ids []domain.UserId) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	return a.storage.UpdateStatus(ids, domain.StatusBlocked)
}

func (a *Auth) UnblockUsers(ids []domain.UserId) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	return a.storage.UpdateStatus(ids, domain.StatusActive)
}

func (a *Auth) DeleteUsers(ids []domain.UserId) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	return a.storage.SoftDeleteUsers(ids)
}

// EnsureActive re-checks the acting account against fresh storage state. A
// token that is still cryptographically valid does not survive its account
// being blocked or deleted.
func (a *Auth) EnsureActive(id domain.UserId) error {
	user, err := a.storage.UserById(id)
	if err != nil {
		if errors.IsNotFound(err) {
			logger.Log.Info("action rejected: acting account deleted", "user_id", id)
			return accountUnavailable()
		}
		return err
	}
	if !user.CanManageUsers() {
		logger.Log.Info("action rejected: acting account blocked", "user_id", id)
		return accountUnavailable()
	}
	return nil
}
