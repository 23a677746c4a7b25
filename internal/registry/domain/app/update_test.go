package app

import (
	"testing"

	"github.com/connectorhub/registry/internal/apperr"
)

func TestEmpty(t *testing.T) {
	if !(Update{}).Empty() {
		t.Fatal("zero update should be empty")
	}
	if (Update{Name: strptr("x")}).Empty() {
		t.Fatal("update with a field should not be empty")
	}
	if (Update{UIOptions: []string{}}).Empty() {
		t.Fatal("present-but-empty slice counts as a change")
	}
}

func TestValidateType(t *testing.T) {
	if err := (Update{Type: strptr("extractor")}).Validate(nil); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	err := (Update{Type: strptr("widget")}).Validate(nil)
	if !apperr.IsUnprocessable(err) {
		t.Fatalf("expected unprocessable, got %v", err)
	}
}

func TestValidatePermissions(t *testing.T) {
	stacks := []string{"connection.example.com"}

	u := Update{Permissions: []Permission{{Stack: "connection.example.com", Projects: []int64{1}}}}
	if err := u.Validate(stacks); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	u = Update{Permissions: []Permission{{Stack: "other.example.com"}}}
	if err := u.Validate(stacks); !apperr.IsUnprocessable(err) {
		t.Fatalf("expected unprocessable, got %v", err)
	}
}

func TestApplyPartial(t *testing.T) {
	a := App{
		Name:             "Old",
		ShortDescription: "Old description",
		Encryption:       true,
	}
	a.Apply(Update{Name: strptr("New")})

	if a.Name != "New" {
		t.Fatalf("name = %s", a.Name)
	}
	if a.ShortDescription != "Old description" || !a.Encryption {
		t.Fatal("untouched fields changed")
	}
}

func TestApplyRepositorySubfields(t *testing.T) {
	a := App{Repository: &Repository{Type: "quay", URI: "acme/app", Tag: "1.0.0"}}
	a.Apply(Update{Repository: &RepositoryUpdate{Tag: strptr("2.0.0")}})

	if a.Repository.Tag != "2.0.0" {
		t.Fatalf("tag = %s", a.Repository.Tag)
	}
	if a.Repository.Type != "quay" || a.Repository.URI != "acme/app" {
		t.Fatalf("repository = %+v", a.Repository)
	}

	// Setting repository fields on an app without one materializes it.
	b := App{}
	b.Apply(Update{Repository: &RepositoryUpdate{Type: strptr("ecr")}})
	if b.Repository == nil || b.Repository.Type != "ecr" {
		t.Fatalf("repository = %+v", b.Repository)
	}
}

func TestApplyFlags(t *testing.T) {
	a := App{IsVisible: true}
	a.Apply(Update{IsVisible: boolptr(false), Fees: boolptr(true)})
	if a.IsVisible || !a.Fees {
		t.Fatalf("flags = visible:%v fees:%v", a.IsVisible, a.Fees)
	}
}
