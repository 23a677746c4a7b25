// Package services implements the portal's use cases on top of the storage
// and identity layers. Handlers stay thin: every guard, ownership check and
// projection decision lives here.
package services

import (
	"context"
	"regexp"
	"time"

	"github.com/connectorhub/registry/internal/apperr"
	"github.com/connectorhub/registry/internal/iconstore"
	"github.com/connectorhub/registry/internal/metrics"
	"github.com/connectorhub/registry/internal/registry/domain/app"
	"github.com/connectorhub/registry/internal/registry/storage"
	"github.com/connectorhub/registry/pkg/logger"
)

// idPattern constrains the vendor-chosen app id suffix.
var idPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{2,50}$`)

// Apps implements app registry use cases.
type Apps struct {
	store   storage.AppStore
	stacks  storage.StackStore
	vendors storage.VendorStore
	icons   iconstore.UploadTargeter
	metrics *metrics.Metrics
	log     *logger.Logger
}

// NewApps wires the apps service.
func NewApps(store storage.AppStore, stacks storage.StackStore, vendors storage.VendorStore,
	icons iconstore.UploadTargeter, m *metrics.Metrics, log *logger.Logger) *Apps {
	return &Apps{store: store, stacks: stacks, vendors: vendors, icons: icons, metrics: m, log: log}
}

// IconUploadResult pairs the new version with its upload targets.
type IconUploadResult struct {
	Version int             `json:"version"`
	Links   iconstore.Links `json:"links"`
}

// --- Vendor operations ------------------------------------------------------

// Create registers a new app under the vendor. The final id is the vendor id
// joined with the vendor-chosen suffix, so ids cannot collide across vendors.
func (s *Apps) Create(ctx context.Context, vendorID, actor, shortID string, u app.Update) (app.App, error) {
	if !idPattern.MatchString(shortID) {
		return app.App{}, apperr.BadRequest("id must be 2-50 characters of a-z, A-Z, 0-9, - and _")
	}
	if u.Name == nil || *u.Name == "" {
		return app.App{}, apperr.BadRequest("name is required")
	}
	if u.Type == nil || *u.Type == "" {
		return app.App{}, apperr.BadRequest("type is required")
	}
	if err := s.vendors.VendorExists(ctx, vendorID); err != nil {
		return app.App{}, err
	}

	id := vendorID + "." + shortID
	if err := s.store.AppNotExists(ctx, id); err != nil {
		return app.App{}, err
	}
	if err := s.store.CreateApp(ctx, id, vendorID, actor, u); err != nil {
		return app.App{}, err
	}
	s.metrics.RecordAppVersion("create")
	s.log.Info("app created", "app", id, "vendor", vendorID, "by", actor)
	return s.store.GetApp(ctx, id)
}

// Get returns an app the vendor owns.
func (s *Apps) Get(ctx context.Context, vendorID, id string) (app.App, error) {
	if err := s.store.AppAccess(ctx, id, vendorID); err != nil {
		return app.App{}, err
	}
	return s.store.GetApp(ctx, id)
}

// Update applies a partial update to an app the vendor owns and returns the
// new state. An empty update returns the current state untouched.
func (s *Apps) Update(ctx context.Context, vendorID, id, actor string, u app.Update) (app.App, error) {
	if err := s.store.AppAccess(ctx, id, vendorID); err != nil {
		return app.App{}, err
	}
	if err := s.store.UpdateApp(ctx, id, u, actor); err != nil {
		return app.App{}, err
	}
	if !u.Empty() {
		s.metrics.RecordAppVersion("update")
	}
	return s.store.GetApp(ctx, id)
}

// Delete soft-deletes an app the vendor owns. Its history stays queryable.
func (s *Apps) Delete(ctx context.Context, vendorID, id, actor string) error {
	if err := s.store.AppAccess(ctx, id, vendorID); err != nil {
		return err
	}
	if err := s.store.SoftDeleteApp(ctx, id, actor); err != nil {
		return err
	}
	s.metrics.RecordAppVersion("delete")
	s.log.Info("app deleted", "app", id, "by", actor)
	return nil
}

// ListVendor lists the vendor's own apps, approved or not.
func (s *Apps) ListVendor(ctx context.Context, vendorID string, page storage.Page) ([]app.App, error) {
	return s.store.ListApps(ctx, storage.ListFilter{Vendor: vendorID, Page: page})
}

// Versions lists the history of an app the vendor owns, oldest first.
func (s *Apps) Versions(ctx context.Context, vendorID, id string, page storage.Page) ([]app.App, error) {
	if err := s.store.AppAccess(ctx, id, vendorID); err != nil {
		return nil, err
	}
	return s.store.ListAppVersions(ctx, id, page)
}

// GetVersion returns one historical version of an app the vendor owns.
func (s *Apps) GetVersion(ctx context.Context, vendorID, id string, version int) (app.App, error) {
	if err := s.store.AppAccess(ctx, id, vendorID); err != nil {
		return app.App{}, err
	}
	return s.store.GetAppVersion(ctx, id, version)
}

// RequestIconUpload bumps the app to a new version with icon paths stamped
// for it and returns presigned targets for both sizes. The caller uploads
// after the version exists, so a failed upload leaves dangling paths rather
// than overwritten icons.
func (s *Apps) RequestIconUpload(ctx context.Context, vendorID, id string) (IconUploadResult, error) {
	if err := s.store.AppAccess(ctx, id, vendorID); err != nil {
		return IconUploadResult{}, err
	}
	version, err := s.store.AddAppIcon(ctx, id)
	if err != nil {
		return IconUploadResult{}, err
	}
	links, err := s.icons.UploadTargets(ctx, id, version)
	if err != nil {
		return IconUploadResult{}, err
	}
	s.metrics.RecordAppVersion("icon")
	s.log.Info("icon upload requested", "app", id, "version", version)
	return IconUploadResult{Version: version, Links: links}, nil
}

// --- Admin operations -------------------------------------------------------

// AdminList lists every live app, optionally narrowed to unapproved ones.
func (s *Apps) AdminList(ctx context.Context, onlyUnapproved bool, page storage.Page) ([]app.App, error) {
	return s.store.ListApps(ctx, storage.ListFilter{OnlyUnapproved: onlyUnapproved, Page: page})
}

// AdminGet returns any app regardless of owner or approval.
func (s *Apps) AdminGet(ctx context.Context, id string) (app.App, error) {
	return s.store.GetApp(ctx, id)
}

// AdminUpdate applies a partial update to any app.
func (s *Apps) AdminUpdate(ctx context.Context, id, actor string, u app.Update) (app.App, error) {
	if err := s.store.AppExists(ctx, id); err != nil {
		return app.App{}, err
	}
	if err := s.store.UpdateApp(ctx, id, u, actor); err != nil {
		return app.App{}, err
	}
	if !u.Empty() {
		s.metrics.RecordAppVersion("update")
	}
	return s.store.GetApp(ctx, id)
}

// Approve publishes an app to the public read models. The store rejects
// apps that are already public, so racing approvals bump the version once.
func (s *Apps) Approve(ctx context.Context, id, actor string) (app.App, error) {
	if err := s.store.PublishApp(ctx, id, actor); err != nil {
		return app.App{}, err
	}
	s.metrics.RecordAppVersion("publish")
	s.log.Info("app approved", "app", id, "by", actor)
	return s.store.GetApp(ctx, id)
}

// Changes lists version snapshots created in the window, newest first. A zero
// since defaults to the last 24 hours.
func (s *Apps) Changes(ctx context.Context, since, until time.Time) ([]app.App, error) {
	return s.store.ListChanges(ctx, since, until)
}

// --- Public operations ------------------------------------------------------

// PublicList lists approved apps in the public projection. Invisible apps are
// listed too; isVisible is a rendering hint, not an access control.
func (s *Apps) PublicList(ctx context.Context, page storage.Page) ([]app.PublicApp, error) {
	apps, err := s.store.ListApps(ctx, storage.ListFilter{OnlyPublic: true, Page: page})
	if err != nil {
		return nil, err
	}
	result := make([]app.PublicApp, 0, len(apps))
	for _, a := range apps {
		p, err := a.Public()
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, nil
}

// PublicGet returns one approved app in the public projection. Unapproved and
// deleted apps read as missing.
func (s *Apps) PublicGet(ctx context.Context, id string) (app.PublicApp, error) {
	a, err := s.store.GetApp(ctx, id)
	if err != nil {
		return app.PublicApp{}, err
	}
	if a.DeletedOn != nil {
		return app.PublicApp{}, apperr.NotFound("app %s does not exist", id)
	}
	return a.Public()
}

// Stacks lists the known stacks permissions may reference.
func (s *Apps) Stacks(ctx context.Context) ([]string, error) {
	return s.stacks.ListStacks(ctx)
}
