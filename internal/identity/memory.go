package identity

import (
	"context"
	"sync"
)

// MemoryProvider is an in-memory Provider for tests.
type MemoryProvider struct {
	mu        sync.Mutex
	users     map[string]*memoryUser
	LastCode  string
	ValidCode string
}

type memoryUser struct {
	user     User
	password string
}

var _ Provider = (*MemoryProvider)(nil)

// NewMemoryProvider creates an empty directory. Confirmation and reset codes
// validate against ValidCode, "123456" by default.
func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{
		users:     make(map[string]*memoryUser),
		ValidCode: "123456",
	}
}

func (m *MemoryProvider) SignUp(_ context.Context, user User, password string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[user.Email]; ok {
		return ErrUserExists
	}
	user.IsEnabled = true
	m.users[user.Email] = &memoryUser{user: user, password: password}
	m.LastCode = m.ValidCode
	return nil
}

func (m *MemoryProvider) ConfirmSignUp(_ context.Context, email, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[email]
	if !ok {
		return ErrUserNotFound
	}
	if code != m.ValidCode {
		return ErrCodeMismatch
	}
	u.user.IsConfirmed = true
	return nil
}

func (m *MemoryProvider) ResendConfirmation(_ context.Context, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[email]
	if !ok {
		return ErrUserNotFound
	}
	if u.user.IsConfirmed {
		return ErrNotAuthorized
	}
	m.LastCode = m.ValidCode
	return nil
}

func (m *MemoryProvider) Login(_ context.Context, creds Credentials) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[creds.Email]
	if !ok {
		return User{}, ErrUserNotFound
	}
	if u.password != creds.Password {
		return User{}, ErrNotAuthorized
	}
	if !u.user.IsConfirmed {
		return User{}, ErrUserNotConfirmed
	}
	if !u.user.IsEnabled {
		return User{}, ErrNotAuthorized
	}
	return u.user, nil
}

func (m *MemoryProvider) EnableUser(_ context.Context, email string) error {
	return m.setEnabled(email, true)
}

func (m *MemoryProvider) DisableUser(_ context.Context, email string) error {
	return m.setEnabled(email, false)
}

func (m *MemoryProvider) setEnabled(email string, enabled bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[email]
	if !ok {
		return ErrUserNotFound
	}
	u.user.IsEnabled = enabled
	return nil
}

func (m *MemoryProvider) GetUser(_ context.Context, email string) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[email]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return u.user, nil
}

func (m *MemoryProvider) ForgotPassword(_ context.Context, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[email]; !ok {
		return ErrUserNotFound
	}
	m.LastCode = m.ValidCode
	return nil
}

func (m *MemoryProvider) ConfirmForgotPassword(_ context.Context, email, code, password string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[email]
	if !ok {
		return ErrUserNotFound
	}
	if code != m.ValidCode {
		return ErrCodeMismatch
	}
	u.password = password
	return nil
}
