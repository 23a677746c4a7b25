package app

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/connectorhub/registry/internal/apperr"
)

func strptr(s string) *string { return &s }
func boolptr(b bool) *bool    { return &b }

func TestPublicHidesUnapproved(t *testing.T) {
	a := App{ID: "v.a1", Name: "App"}
	if _, err := a.Public(); !apperr.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}

	a.IsPublic = true
	p, err := a.Public()
	if err != nil {
		t.Fatalf("Public: %v", err)
	}
	if p.ID != "v.a1" || p.Name != "App" {
		t.Fatalf("projection = %+v", p)
	}
}

func TestPublicProjectionOmitsAuditFields(t *testing.T) {
	a := App{ID: "v.a1", IsPublic: true, CreatedBy: "dev@example.com"}
	p, err := a.Public()
	if err != nil {
		t.Fatalf("Public: %v", err)
	}

	raw, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for _, field := range []string{"createdBy", "createdOn", "deletedOn", "permissions"} {
		if strings.Contains(string(raw), `"`+field+`"`) {
			t.Errorf("field %s leaked: %s", field, raw)
		}
	}
}

func TestDisplayURI(t *testing.T) {
	if got := DisplayURI("v.a1", ""); got != "docker/v.a1" {
		t.Fatalf("got %s", got)
	}
	if got := DisplayURI("v.a1", "wr-legacy"); got != "wr-legacy" {
		t.Fatalf("got %s", got)
	}
}

func TestIconPath(t *testing.T) {
	if got := IconPath("v.a1", 32, 3); got != "v.a1/32/3.png" {
		t.Fatalf("got %s", got)
	}
	if got := IconPath("v.a1", 64, 10); got != "v.a1/64/10.png" {
		t.Fatalf("got %s", got)
	}
}
