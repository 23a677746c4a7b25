package identity

import (
	"testing"
	"time"
)

func TestTokenRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)

	session := Session{
		Email:   "dev@acme.test",
		Name:    "Dev",
		Vendor:  "acme",
		IsAdmin: false,
	}
	token, err := issuer.Issue(session)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	got, err := issuer.Validate(token)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if got != session {
		t.Fatalf("session round trip: got %+v, want %+v", got, session)
	}
}

func TestTokenAdminClaim(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)

	token, err := issuer.Issue(Session{Email: "admin@example.com", IsAdmin: true})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	got, err := issuer.Validate(token)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if !got.IsAdmin {
		t.Fatal("admin claim lost")
	}
}

func TestTokenWrongSecret(t *testing.T) {
	token, err := NewTokenIssuer("secret-a", time.Hour).Issue(Session{Email: "dev@acme.test"})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := NewTokenIssuer("secret-b", time.Hour).Validate(token); err == nil {
		t.Fatal("expected validation failure")
	}
}

func TestTokenExpired(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", -time.Minute)
	// A non-positive ttl falls back to the default, so build one expired by hand.
	issuer.ttl = -time.Minute
	token, err := issuer.Issue(Session{Email: "dev@acme.test"})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := issuer.Validate(token); err == nil {
		t.Fatal("expected expiry failure")
	}
}
