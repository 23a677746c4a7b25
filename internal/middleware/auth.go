// Package middleware provides HTTP middleware for the registry API.
package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/connectorhub/registry/internal/identity"
	"github.com/connectorhub/registry/pkg/logger"
)

type contextKey int

const sessionKey contextKey = iota

// SessionFromContext returns the authenticated session, if any.
func SessionFromContext(ctx context.Context) (identity.Session, bool) {
	s, ok := ctx.Value(sessionKey).(identity.Session)
	return s, ok
}

// WithSession returns a context carrying the session. Exposed for tests.
func WithSession(ctx context.Context, s identity.Session) context.Context {
	return context.WithValue(ctx, sessionKey, s)
}

// AuthMiddleware validates bearer session tokens.
type AuthMiddleware struct {
	issuer *identity.TokenIssuer
	log    *logger.Logger
}

// NewAuthMiddleware creates an authentication middleware.
func NewAuthMiddleware(issuer *identity.TokenIssuer, log *logger.Logger) *AuthMiddleware {
	return &AuthMiddleware{issuer: issuer, log: log}
}

// Handler rejects requests without a valid bearer token and stores the
// session in the request context.
func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			respondError(w, http.StatusUnauthorized, "Missing Authorization header")
			return
		}
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			respondError(w, http.StatusUnauthorized, "Invalid Authorization header format")
			return
		}

		session, err := m.issuer.Validate(parts[1])
		if err != nil {
			m.log.WithError(err).Warn("token validation failed", "path", r.URL.Path)
			respondError(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), session)))
	})
}

// RequireVendor rejects sessions that are not bound to a vendor.
func RequireVendor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, ok := SessionFromContext(r.Context())
		if !ok || session.Vendor == "" {
			respondError(w, http.StatusForbidden, "Vendor account required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin rejects sessions without the admin claim.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, ok := SessionFromContext(r.Context())
		if !ok || !session.IsAdmin {
			respondError(w, http.StatusForbidden, "Admin account required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func respondError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
