// Package identity abstracts the user directory behind the developer portal:
// vendor developers sign up, confirm their address, and log in to receive a
// session token. The production implementation delegates to AWS Cognito.
package identity

import (
	"context"
	"errors"
)

// Directory errors. Implementations translate their provider's error types
// into these so callers can branch without knowing the backend.
var (
	ErrUserNotFound     = errors.New("user not found")
	ErrUserNotConfirmed = errors.New("user is not confirmed")
	ErrUserExists       = errors.New("user already exists")
	ErrNotAuthorized    = errors.New("not authorized")
	ErrCodeMismatch     = errors.New("invalid confirmation code")
)

// User is a directory account as the portal sees it.
type User struct {
	Email       string `json:"email"`
	Name        string `json:"name"`
	Vendor      string `json:"vendor"`
	IsEnabled   bool   `json:"isEnabled"`
	IsConfirmed bool   `json:"isConfirmed"`
}

// Credentials of a login attempt.
type Credentials struct {
	Email    string
	Password string
}

// Provider is the user directory. All operations are remote calls.
type Provider interface {
	// SignUp registers a new account bound to a vendor. The account stays
	// unusable until confirmed.
	SignUp(ctx context.Context, user User, password string) error
	// ConfirmSignUp redeems the emailed confirmation code.
	ConfirmSignUp(ctx context.Context, email, code string) error
	// ResendConfirmation sends a fresh confirmation code. Fails with
	// ErrNotAuthorized when the account is already confirmed.
	ResendConfirmation(ctx context.Context, email string) error
	// Login verifies credentials and returns the account.
	Login(ctx context.Context, creds Credentials) (User, error)
	// GetUser looks an account up by email.
	GetUser(ctx context.Context, email string) (User, error)
	// EnableUser and DisableUser toggle whether an account may log in.
	EnableUser(ctx context.Context, email string) error
	DisableUser(ctx context.Context, email string) error
	// ForgotPassword starts a password reset by emailing a code.
	ForgotPassword(ctx context.Context, email string) error
	// ConfirmForgotPassword redeems a reset code with the new password.
	ConfirmForgotPassword(ctx context.Context, email, code, password string) error
}
