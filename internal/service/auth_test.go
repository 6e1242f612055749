package service

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/itchan-dev/userhub/internal/domain"
	internal_errors "github.com/itchan-dev/userhub/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// --- Mocks ---

var notFound = &internal_errors.ErrorWithStatusCode{Message: "User not found", StatusCode: http.StatusNotFound}

type MockUserStorage struct {
	SaveUserFunc        func(user domain.User) (domain.User, error)
	ReactivateUserFunc  func(user domain.User) (domain.User, error)
	UserFunc            func(email domain.Email) (domain.User, error)
	DeletedUserFunc     func(email domain.Email) (domain.User, error)
	UserByIdFunc        func(id domain.UserId) (domain.User, error)
	UpdateLastLoginFunc func(id domain.UserId, at time.Time) error
	ActiveUsersFunc     func() ([]domain.User, error)
	UpdateStatusFunc    func(ids []domain.UserId, status domain.UserStatus) (int64, error)
	SoftDeleteUsersFunc func(ids []domain.UserId) (int64, error)
}

func (m *MockUserStorage) SaveUser(user domain.User) (domain.User, error) {
	if m.SaveUserFunc != nil {
		return m.SaveUserFunc(user)
	}
	user.Id = 1
	return user, nil
}

func (m *MockUserStorage) ReactivateUser(user domain.User) (domain.User, error) {
	if m.ReactivateUserFunc != nil {
		return m.ReactivateUserFunc(user)
	}
	return user, nil
}

func (m *MockUserStorage) User(email domain.Email) (domain.User, error) {
	if m.UserFunc != nil {
		return m.UserFunc(email)
	}
	return domain.User{}, notFound
}

func (m *MockUserStorage) DeletedUser(email domain.Email) (domain.User, error) {
	if m.DeletedUserFunc != nil {
		return m.DeletedUserFunc(email)
	}
	// Default: no soft-deleted row to reclaim
	return domain.User{}, notFound
}

func (m *MockUserStorage) UserById(id domain.UserId) (domain.User, error) {
	if m.UserByIdFunc != nil {
		return m.UserByIdFunc(id)
	}
	return domain.User{Id: id, Status: domain.StatusActive}, nil
}

func (m *MockUserStorage) UpdateLastLogin(id domain.UserId, at time.Time) error {
	if m.UpdateLastLoginFunc != nil {
		return m.UpdateLastLoginFunc(id, at)
	}
	return nil
}

func (m *MockUserStorage) ActiveUsers() ([]domain.User, error) {
	if m.ActiveUsersFunc != nil {
		return m.ActiveUsersFunc()
	}
	return nil, nil
}

func (m *MockUserStorage) UpdateStatus(ids []domain.UserId, status domain.UserStatus) (int64, error) {
	if m.UpdateStatusFunc != nil {
		return m.UpdateStatusFunc(ids, status)
	}
	return int64(len(ids)), nil
}

func (m *MockUserStorage) SoftDeleteUsers(ids []domain.UserId) (int64, error) {
	if m.SoftDeleteUsersFunc != nil {
		return m.SoftDeleteUsersFunc(ids)
	}
	return int64(len(ids)), nil
}

type MockTokenIssuer struct {
	NewTokenFunc func(user domain.User) (string, error)
}

func (m *MockTokenIssuer) NewToken(user domain.User) (string, error) {
	if m.NewTokenFunc != nil {
		return m.NewTokenFunc(user)
	}
	return "test_token", nil
}

func newTestAuth(storage *MockUserStorage) *Auth {
	return NewAuth(storage, &MockTokenIssuer{})
}

// --- Register ---

func TestRegister_NewAccount(t *testing.T) {
	var saved domain.User
	storage := &MockUserStorage{
		SaveUserFunc: func(user domain.User) (domain.User, error) {
			saved = user
			user.Id = 42
			return user, nil
		},
	}
	auth := newTestAuth(storage)

	before := time.Now().UTC()
	user, err := auth.Register("Alice", "a@x.com", "pw1")
	require.NoError(t, err)

	assert.Equal(t, domain.UserId(42), user.Id)
	assert.Equal(t, "Alice", saved.Name)
	assert.Equal(t, "a@x.com", saved.Email)
	assert.Equal(t, domain.StatusActive, saved.Status)
	assert.False(t, saved.IsDeleted)
	require.NotNil(t, saved.LastLogin)
	assert.False(t, saved.LastLogin.Before(before))
	assert.Equal(t, saved.CreatedAt, *saved.LastLogin)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(saved.PasswordHash), []byte("pw1")))
}

func TestRegister_SanitizesName(t *testing.T) {
	var saved domain.User
	storage := &MockUserStorage{
		SaveUserFunc: func(user domain.User) (domain.User, error) {
			saved = user
			return user, nil
		},
	}
	auth := newTestAuth(storage)

	_, err := auth.Register("  <script>alert(1)</script>Alice ", "a@x.com", "pw1")
	require.NoError(t, err)
	assert.Equal(t, "Alice", saved.Name)
}

func TestRegister_ReactivatesDeletedRow(t *testing.T) {
	deletedAt := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	saveCalled := false
	var reactivated domain.User
	storage := &MockUserStorage{
		DeletedUserFunc: func(email domain.Email) (domain.User, error) {
			return domain.User{
				Id:           7,
				Name:         "Old Name",
				Email:        email,
				PasswordHash: "old_hash",
				Status:       domain.StatusBlocked,
				CreatedAt:    deletedAt,
				IsDeleted:    true,
			}, nil
		},
		ReactivateUserFunc: func(user domain.User) (domain.User, error) {
			reactivated = user
			return user, nil
		},
		SaveUserFunc: func(user domain.User) (domain.User, error) {
			saveCalled = true
			return user, nil
		},
	}
	auth := newTestAuth(storage)

	user, err := auth.Register("Alice", "a@x.com", "pw2")
	require.NoError(t, err)

	assert.False(t, saveCalled, "reactivation must not insert a second row")
	assert.Equal(t, domain.UserId(7), user.Id, "reactivation keeps the existing id")
	assert.Equal(t, "Alice", reactivated.Name)
	assert.Equal(t, domain.StatusActive, reactivated.Status)
	assert.False(t, reactivated.IsDeleted)
	assert.True(t, reactivated.CreatedAt.After(deletedAt), "timestamps are reset on reactivation")
	require.NotNil(t, reactivated.LastLogin)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(reactivated.PasswordHash), []byte("pw2")))
}

func TestRegister_Conflict(t *testing.T) {
	conflict := &internal_errors.ErrorWithStatusCode{Message: "Email already exists", StatusCode: http.StatusBadRequest}
	storage := &MockUserStorage{
		SaveUserFunc: func(user domain.User) (domain.User, error) {
			return domain.User{}, conflict
		},
	}
	auth := newTestAuth(storage)

	_, err := auth.Register("Alice", "a@x.com", "pw1")
	require.Error(t, err)
	assert.Equal(t, conflict, err)
}

// --- Login ---

func TestLogin_Success(t *testing.T) {
	passHash, _ := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	previous := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	var stampedId domain.UserId
	var stampedAt time.Time
	storage := &MockUserStorage{
		UserFunc: func(email domain.Email) (domain.User, error) {
			return domain.User{Id: 3, Email: email, PasswordHash: string(passHash), Status: domain.StatusActive, LastLogin: &previous}, nil
		},
		UpdateLastLoginFunc: func(id domain.UserId, at time.Time) error {
			stampedId = id
			stampedAt = at
			return nil
		},
	}
	auth := newTestAuth(storage)

	before := time.Now().UTC()
	user, err := auth.Login("a@x.com", "password")
	require.NoError(t, err)

	assert.Equal(t, domain.UserId(3), stampedId)
	assert.False(t, stampedAt.Before(before))
	assert.False(t, stampedAt.After(time.Now().UTC()))
	require.NotNil(t, user.LastLogin)
	assert.True(t, user.LastLogin.After(previous), "last login is monotonically non-decreasing")
}

func TestLogin_UniformFailure(t *testing.T) {
	passHash, _ := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)

	tests := []struct {
		name    string
		storage *MockUserStorage
	}{
		{
			name:    "unknown email",
			storage: &MockUserStorage{}, // default User returns not found
		},
		{
			name: "wrong password",
			storage: &MockUserStorage{
				UserFunc: func(email domain.Email) (domain.User, error) {
					return domain.User{Id: 1, PasswordHash: string(passHash), Status: domain.StatusActive}, nil
				},
			},
		},
		{
			name: "blocked account",
			storage: &MockUserStorage{
				UserFunc: func(email domain.Email) (domain.User, error) {
					return domain.User{Id: 1, PasswordHash: string(passHash), Status: domain.StatusBlocked}, nil
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			auth := newTestAuth(tt.storage)
			_, err := auth.Login("a@x.com", "wrong")
			require.Error(t, err)
			e, ok := err.(*internal_errors.ErrorWithStatusCode)
			require.True(t, ok)
			// All three failure modes must be indistinguishable to the caller
			assert.Equal(t, http.StatusUnauthorized, e.StatusCode)
			assert.Equal(t, "Invalid email or password", e.Message)
		})
	}
}

func TestLogin_StorageErrorPropagates(t *testing.T) {
	storage := &MockUserStorage{
		UserFunc: func(email domain.Email) (domain.User, error) {
			return domain.User{}, fmt.Errorf("db down")
		},
	}
	auth := newTestAuth(storage)

	_, err := auth.Login("a@x.com", "password")
	require.Error(t, err)
	assert.EqualError(t, err, "db down")
}

// --- Bulk operations ---

func TestBulkOperations(t *testing.T) {
	t.Run("empty id set is a no-op", func(t *testing.T) {
		storageCalled := false
		storage := &MockUserStorage{
			UpdateStatusFunc: func(ids []domain.UserId, status domain.UserStatus) (int64, error) {
				storageCalled = true
				return 0, nil
			},
			SoftDeleteUsersFunc: func(ids []domain.UserId) (int64, error) {
				storageCalled = true
				return 0, nil
			},
		}
		auth := newTestAuth(storage)

		for _, op := range []func([]domain.UserId) (int64, error){auth.BlockUsers, auth.UnblockUsers, auth.DeleteUsers} {
			affected, err := op(nil)
			require.NoError(t, err)
			assert.Zero(t, affected)
		}
		assert.False(t, storageCalled)
	})

	t.Run("block sets blocked status", func(t *testing.T) {
		var gotStatus domain.UserStatus
		var gotIds []domain.UserId
		storage := &MockUserStorage{
			UpdateStatusFunc: func(ids []domain.UserId, status domain.UserStatus) (int64, error) {
				gotIds = ids
				gotStatus = status
				return 2, nil
			},
		}
		auth := newTestAuth(storage)

		affected, err := auth.BlockUsers([]domain.UserId{1, 2})
		require.NoError(t, err)
		assert.Equal(t, int64(2), affected)
		assert.Equal(t, []domain.UserId{1, 2}, gotIds)
		assert.Equal(t, domain.StatusBlocked, gotStatus)
	})

	t.Run("unblock sets active status", func(t *testing.T) {
		var gotStatus domain.UserStatus
		storage := &MockUserStorage{
			UpdateStatusFunc: func(ids []domain.UserId, status domain.UserStatus) (int64, error) {
				gotStatus = status
				return 1, nil
			},
		}
		auth := newTestAuth(storage)

		_, err := auth.UnblockUsers([]domain.UserId{1})
		require.NoError(t, err)
		assert.Equal(t, domain.StatusActive, gotStatus)
	})

	t.Run("delete soft-deletes", func(t *testing.T) {
		var gotIds []domain.UserId
		storage := &MockUserStorage{
			SoftDeleteUsersFunc: func(ids []domain.UserId) (int64, error) {
				gotIds = ids
				return 1, nil
			},
		}
		auth := newTestAuth(storage)

		affected, err := auth.DeleteUsers([]domain.UserId{9})
		require.NoError(t, err)
		assert.Equal(t, int64(1), affected)
		assert.Equal(t, []domain.UserId{9}, gotIds)
	})
}

// --- EnsureActive ---

func TestEnsureActive(t *testing.T) {
	tests := []struct {
		name       string
		storage    *MockUserStorage
		wantStatus int
	}{
		{
			name:       "active account passes",
			storage:    &MockUserStorage{},
			wantStatus: 0,
		},
		{
			name: "blocked account rejected",
			storage: &MockUserStorage{
				UserByIdFunc: func(id domain.UserId) (domain.User, error) {
					return domain.User{Id: id, Status: domain.StatusBlocked}, nil
				},
			},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name: "deleted account rejected",
			storage: &MockUserStorage{
				UserByIdFunc: func(id domain.UserId) (domain.User, error) {
					return domain.User{}, notFound
				},
			},
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			auth := newTestAuth(tt.storage)
			err := auth.EnsureActive(1)
			if tt.wantStatus == 0 {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			e, ok := err.(*internal_errors.ErrorWithStatusCode)
			require.True(t, ok)
			assert.Equal(t, tt.wantStatus, e.StatusCode)
			assert.Equal(t, "Account is blocked or deleted. Please log in again.", e.Message)
		})
	}
}

func TestGenerateToken(t *testing.T) {
	issuedFor := domain.UserId(0)
	auth := NewAuth(&MockUserStorage{}, &MockTokenIssuer{
		NewTokenFunc: func(user domain.User) (string, error) {
			issuedFor = user.Id
			return "signed", nil
		},
	})

	token, err := auth.GenerateToken(domain.User{Id: 5})
	require.NoError(t, err)
	assert.Equal(t, "signed", token)
	assert.Equal(t, domain.UserId(5), issuedFor)
}
