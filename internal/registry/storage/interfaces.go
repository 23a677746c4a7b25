// Package storage defines the persistence interfaces for the registry.
package storage

import (
	"context"
	"time"

	"github.com/connectorhub/registry/internal/registry/domain/app"
	"github.com/connectorhub/registry/internal/registry/domain/vendor"
)

// DefaultLimit is the page size used when the caller supplies none.
const DefaultLimit = 1000

// Page carries pagination inputs. Malformed values normalize to defaults
// instead of failing.
type Page struct {
	Offset int
	Limit  int
}

// Normalize coerces the page to safe values: negative offsets become 0 and a
// missing or non-positive limit falls back to DefaultLimit.
func (p Page) Normalize() Page {
	if p.Offset < 0 {
		p.Offset = 0
	}
	if p.Limit <= 0 {
		p.Limit = DefaultLimit
	}
	return p
}

// ListFilter selects which apps a list query returns.
type ListFilter struct {
	// Vendor scopes the list to one vendor when non-empty.
	Vendor string
	// OnlyPublic keeps approved apps only (the public read model).
	OnlyPublic bool
	// OnlyUnapproved keeps apps awaiting approval (the admin queue).
	OnlyUnapproved bool
	Page           Page
}

// AppStore persists apps and their immutable version history.
//
// Guards (AppExists, AppNotExists, AppAccess) run a single count query and
// fail fast with the taxonomy error; they never mutate. Every mutating call
// bumps the canonical version by exactly one and appends one snapshot inside
// the same transaction, so the canonical version always equals the newest
// snapshot version.
type AppStore interface {
	AppExists(ctx context.Context, id string) error
	AppNotExists(ctx context.Context, id string) error
	AppAccess(ctx context.Context, id, vendorID string) error

	CreateApp(ctx context.Context, id, vendorID, actor string, u app.Update) error
	UpdateApp(ctx context.Context, id string, u app.Update, actor string) error
	PublishApp(ctx context.Context, id, actor string) error
	SoftDeleteApp(ctx context.Context, id, actor string) error
	// AddAppIcon stamps both icon paths for the next version and returns the
	// new version number, used to build the icon upload target.
	AddAppIcon(ctx context.Context, id string) (int, error)

	GetApp(ctx context.Context, id string) (app.App, error)
	GetAppVersion(ctx context.Context, id string, version int) (app.App, error)
	ListApps(ctx context.Context, f ListFilter) ([]app.App, error)
	ListAppVersions(ctx context.Context, id string, p Page) ([]app.App, error)
	// ListChanges returns version snapshots created in the given window,
	// newest first. A zero since defaults to the last 24 hours.
	ListChanges(ctx context.Context, since, until time.Time) ([]app.App, error)
}

// VendorStore persists vendor records.
type VendorStore interface {
	VendorExists(ctx context.Context, id string) error
	VendorNotExists(ctx context.Context, id string) error

	CreateVendor(ctx context.Context, v vendor.Vendor) error
	GetVendor(ctx context.Context, id string) (vendor.Vendor, error)
	ListVendors(ctx context.Context, p Page) ([]vendor.Vendor, error)
}

// StackStore lists the deployment stacks app permissions may reference.
type StackStore interface {
	ListStacks(ctx context.Context) ([]string, error)
}
