package services

import (
	"context"
	"errors"

	"github.com/connectorhub/registry/internal/apperr"
	"github.com/connectorhub/registry/internal/identity"
	"github.com/connectorhub/registry/internal/registry/storage"
	"github.com/connectorhub/registry/pkg/logger"
)

// Auth implements signup, confirmation and login on top of the identity
// provider. Vendor membership is checked here, before the directory ever
// sees the account.
type Auth struct {
	provider identity.Provider
	issuer   *identity.TokenIssuer
	vendors  storage.VendorStore
	admins   map[string]bool
	log      *logger.Logger
}

// NewAuth wires the auth service. adminEmails receive the admin claim on
// login.
func NewAuth(provider identity.Provider, issuer *identity.TokenIssuer,
	vendors storage.VendorStore, adminEmails []string, log *logger.Logger) *Auth {
	admins := make(map[string]bool, len(adminEmails))
	for _, email := range adminEmails {
		admins[email] = true
	}
	return &Auth{provider: provider, issuer: issuer, vendors: vendors, admins: admins, log: log}
}

// SignUp registers a developer account bound to an existing vendor.
func (s *Auth) SignUp(ctx context.Context, user identity.User, password string) error {
	if user.Email == "" {
		return apperr.BadRequest("email is required")
	}
	if user.Vendor == "" {
		return apperr.BadRequest("vendor is required")
	}
	if len(password) < 8 {
		return apperr.BadRequest("password must be at least 8 characters")
	}
	if err := s.vendors.VendorExists(ctx, user.Vendor); err != nil {
		return err
	}
	if err := s.provider.SignUp(ctx, user, password); err != nil {
		if errors.Is(err, identity.ErrUserExists) {
			return apperr.BadRequest("user %s already exists", user.Email)
		}
		return err
	}
	s.log.Info("user signed up", "email", user.Email, "vendor", user.Vendor)
	return nil
}

// Confirm redeems a signup confirmation code. A freshly confirmed account
// is immediately disabled again: it stays pending until an admin enables
// it, and Login refuses disabled accounts.
func (s *Auth) Confirm(ctx context.Context, email, code string) error {
	err := s.provider.ConfirmSignUp(ctx, email, code)
	switch {
	case errors.Is(err, identity.ErrUserNotFound):
		return apperr.NotFound("user %s does not exist", email)
	case errors.Is(err, identity.ErrCodeMismatch):
		return apperr.BadRequest("invalid confirmation code")
	case errors.Is(err, identity.ErrNotAuthorized):
		return apperr.BadRequest("Already confirmed")
	case err != nil:
		return err
	}
	if err := s.provider.DisableUser(ctx, email); err != nil {
		return err
	}
	s.log.Info("user confirmed, awaiting approval", "email", email)
	return nil
}

// ResendConfirmation sends a fresh confirmation code to an unconfirmed
// account.
func (s *Auth) ResendConfirmation(ctx context.Context, email string) error {
	err := s.provider.ResendConfirmation(ctx, email)
	switch {
	case errors.Is(err, identity.ErrUserNotFound):
		return apperr.NotFound("user %s does not exist", email)
	case errors.Is(err, identity.ErrNotAuthorized):
		return apperr.BadRequest("Already confirmed")
	}
	return err
}

// LoginResult is a successful login.
type LoginResult struct {
	Token string        `json:"token"`
	User  identity.User `json:"user"`
}

// Login verifies credentials and issues a session token. Unconfirmed
// accounts are told so; everything else fails uniformly.
func (s *Auth) Login(ctx context.Context, creds identity.Credentials) (LoginResult, error) {
	user, err := s.provider.Login(ctx, creds)
	switch {
	case errors.Is(err, identity.ErrUserNotConfirmed):
		return LoginResult{}, apperr.Unauthorized("user %s is not confirmed", creds.Email)
	case errors.Is(err, identity.ErrUserNotFound), errors.Is(err, identity.ErrNotAuthorized):
		return LoginResult{}, apperr.Unauthorized("invalid credentials")
	case err != nil:
		return LoginResult{}, err
	}

	token, err := s.issuer.Issue(identity.Session{
		Email:   user.Email,
		Name:    user.Name,
		Vendor:  user.Vendor,
		IsAdmin: s.admins[user.Email],
	})
	if err != nil {
		return LoginResult{}, err
	}
	s.log.Info("user logged in", "email", user.Email, "vendor", user.Vendor)
	return LoginResult{Token: token, User: user}, nil
}

// Profile returns the directory account of the session.
func (s *Auth) Profile(ctx context.Context, email string) (identity.User, error) {
	user, err := s.provider.GetUser(ctx, email)
	if errors.Is(err, identity.ErrUserNotFound) {
		return identity.User{}, apperr.NotFound("user %s does not exist", email)
	}
	return user, err
}

// SetUserEnabled toggles whether an account may log in. Admin only.
func (s *Auth) SetUserEnabled(ctx context.Context, email string, enabled bool) error {
	var err error
	if enabled {
		err = s.provider.EnableUser(ctx, email)
	} else {
		err = s.provider.DisableUser(ctx, email)
	}
	if errors.Is(err, identity.ErrUserNotFound) {
		return apperr.NotFound("user %s does not exist", email)
	}
	if err == nil {
		s.log.Info("user enablement changed", "email", email, "enabled", enabled)
	}
	return err
}

// ForgotPassword starts a password reset.
func (s *Auth) ForgotPassword(ctx context.Context, email string) error {
	err := s.provider.ForgotPassword(ctx, email)
	if errors.Is(err, identity.ErrUserNotFound) {
		return apperr.NotFound("user %s does not exist", email)
	}
	return err
}

// ConfirmForgotPassword redeems a reset code with the new password.
func (s *Auth) ConfirmForgotPassword(ctx context.Context, email, code, password string) error {
	if len(password) < 8 {
		return apperr.BadRequest("password must be at least 8 characters")
	}
	err := s.provider.ConfirmForgotPassword(ctx, email, code, password)
	switch {
	case errors.Is(err, identity.ErrUserNotFound):
		return apperr.NotFound("user %s does not exist", email)
	case errors.Is(err, identity.ErrCodeMismatch):
		return apperr.BadRequest("invalid confirmation code")
	}
	return err
}
