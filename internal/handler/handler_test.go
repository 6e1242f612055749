package handler

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/itchan-dev/userhub/internal/domain"
)

type MockAuthService struct {
	MockRegister      func(name, email, password string) (domain.User, error)
	MockLogin         func(email, password string) (domain.User, error)
	MockGenerateToken func(user domain.User) (string, error)
	MockActiveUsers   func() ([]domain.User, error)
	MockBlockUsers    func(ids []domain.UserId) (int64, error)
	MockUnblockUsers  func(ids []domain.UserId) (int64, error)
	MockDeleteUsers   func(ids []domain.UserId) (int64, error)
	MockEnsureActive  func(id domain.UserId) error
}

func (m *MockAuthService) Register(name, email, password string) (domain.User, error) {
	if m.MockRegister != nil {
		return m.MockRegister(name, email, password)
	}
	return domain.User{Id: 1, Name: name, Email: email}, nil
}

func (m *MockAuthService) Login(email, password string) (domain.User, error) {
	if m.MockLogin != nil {
		return m.MockLogin(email, password)
	}
	return domain.User{Id: 1, Email: email}, nil
}

func (m *MockAuthService) GenerateToken(user domain.User) (string, error) {
	if m.MockGenerateToken != nil {
		return m.MockGenerateToken(user)
	}
	return "test_token", nil
}

func (m *MockAuthService) ActiveUsers() ([]domain.User, error) {
	if m.MockActiveUsers != nil {
		return m.MockActiveUsers()
	}
	return nil, nil
}

func (m *MockAuthService) BlockUsers(ids []domain.UserId) (int64, error) {
	if m.MockBlockUsers != nil {
		return m.MockBlockUsers(ids)
	}
	return int64(len(ids)), nil
}

func (m *MockAuthService) UnblockUsers(ids []domain.UserId) (int64, error) {
	if m.MockUnblockUsers != nil {
		return m.MockUnblockUsers(ids)
	}
	return int64(len(ids)), nil
}

func (m *MockAuthService) DeleteUsers(ids []domain.UserId) (int64, error) {
	if m.MockDeleteUsers != nil {
		return m.MockDeleteUsers(ids)
	}
	return int64(len(ids)), nil
}

func (m *MockAuthService) EnsureActive(id domain.UserId) error {
	if m.MockEnsureActive != nil {
		return m.MockEnsureActive(id)
	}
	return nil
}

func createRequest(t *testing.T, method, url string, body []byte) *http.Request {
	t.Helper()
	return httptest.NewRequest(method, url, bytes.NewBuffer(body))
}
