package memory

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/connectorhub/registry/internal/apperr"
	"github.com/connectorhub/registry/internal/registry/domain/app"
	"github.com/connectorhub/registry/internal/registry/domain/vendor"
	"github.com/connectorhub/registry/internal/registry/storage"
)

func strptr(s string) *string { return &s }

func seeded(t *testing.T, apps int) *Store {
	t.Helper()
	s := New("connection.example.com")
	ctx := context.Background()
	if err := s.CreateVendor(ctx, vendor.Vendor{ID: "v", Name: "Vendor"}); err != nil {
		t.Fatalf("CreateVendor: %v", err)
	}
	for i := 0; i < apps; i++ {
		id := fmt.Sprintf("v.app-%02d", i)
		err := s.CreateApp(ctx, id, "v", "dev@example.com", app.Update{
			Name: strptr(fmt.Sprintf("App %02d", i)),
			Type: strptr("extractor"),
		})
		if err != nil {
			t.Fatalf("CreateApp %s: %v", id, err)
		}
	}
	return s
}

func TestListAppsPaging(t *testing.T) {
	s := seeded(t, 5)
	ctx := context.Background()

	page, err := s.ListApps(ctx, storage.ListFilter{Page: storage.Page{Offset: 2, Limit: 2}})
	if err != nil {
		t.Fatalf("ListApps: %v", err)
	}
	if len(page) != 2 {
		t.Fatalf("page = %d, want 2", len(page))
	}
	if page[0].Name != "App 02" || page[1].Name != "App 03" {
		t.Fatalf("page order: %s, %s", page[0].Name, page[1].Name)
	}

	tail, err := s.ListApps(ctx, storage.ListFilter{Page: storage.Page{Offset: 4, Limit: 10}})
	if err != nil {
		t.Fatalf("ListApps: %v", err)
	}
	if len(tail) != 1 {
		t.Fatalf("tail = %d, want 1", len(tail))
	}

	beyond, err := s.ListApps(ctx, storage.ListFilter{Page: storage.Page{Offset: 100}})
	if err != nil {
		t.Fatalf("ListApps: %v", err)
	}
	if len(beyond) != 0 {
		t.Fatalf("beyond = %d, want 0", len(beyond))
	}
}

func TestListAppsFilters(t *testing.T) {
	s := seeded(t, 3)
	ctx := context.Background()

	if err := s.PublishApp(ctx, "v.app-00", "admin@example.com"); err != nil {
		t.Fatalf("PublishApp: %v", err)
	}

	public, err := s.ListApps(ctx, storage.ListFilter{OnlyPublic: true})
	if err != nil {
		t.Fatalf("ListApps: %v", err)
	}
	if len(public) != 1 || public[0].ID != "v.app-00" {
		t.Fatalf("public = %+v", public)
	}

	pending, err := s.ListApps(ctx, storage.ListFilter{OnlyUnapproved: true})
	if err != nil {
		t.Fatalf("ListApps: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("pending = %d, want 2", len(pending))
	}
}

func TestGetAppVersionSnapshotIsolation(t *testing.T) {
	s := seeded(t, 1)
	ctx := context.Background()

	err := s.UpdateApp(ctx, "v.app-00", app.Update{ShortDescription: strptr("changed")}, "dev@example.com")
	if err != nil {
		t.Fatalf("UpdateApp: %v", err)
	}

	v1, err := s.GetAppVersion(ctx, "v.app-00", 1)
	if err != nil {
		t.Fatalf("GetAppVersion: %v", err)
	}
	if v1.ShortDescription != "" {
		t.Fatalf("version 1 mutated: %q", v1.ShortDescription)
	}
	if _, err := s.GetAppVersion(ctx, "v.app-00", 9); !apperr.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestListChangesWindow(t *testing.T) {
	s := seeded(t, 2)
	ctx := context.Background()

	changes, err := s.ListChanges(ctx, time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("ListChanges: %v", err)
	}
	if len(changes) != 2 {
		t.Fatalf("changes = %d, want 2", len(changes))
	}

	old, err := s.ListChanges(ctx, time.Time{}, time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("ListChanges: %v", err)
	}
	if len(old) != 0 {
		t.Fatalf("old window = %d, want 0", len(old))
	}
}

func TestVendorPaging(t *testing.T) {
	s := New()
	ctx := context.Background()
	for _, id := range []string{"alpha", "beta", "gamma"} {
		if err := s.CreateVendor(ctx, vendor.Vendor{ID: id, Name: id}); err != nil {
			t.Fatalf("CreateVendor: %v", err)
		}
	}

	page, err := s.ListVendors(ctx, storage.Page{Offset: 1, Limit: 1})
	if err != nil {
		t.Fatalf("ListVendors: %v", err)
	}
	if len(page) != 1 || page[0].ID != "beta" {
		t.Fatalf("page = %+v", page)
	}
}
