// Package memory is a thread-safe in-memory implementation of the storage
// interfaces. It is intended for tests and prototyping and mirrors the
// transactional semantics of the relational store: every mutation bumps the
// version and appends exactly one snapshot.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/connectorhub/registry/internal/apperr"
	"github.com/connectorhub/registry/internal/registry/domain/app"
	"github.com/connectorhub/registry/internal/registry/domain/vendor"
	"github.com/connectorhub/registry/internal/registry/storage"
)

// Store holds all registry state in maps guarded by one mutex.
type Store struct {
	mu       sync.RWMutex
	apps     map[string]*app.App
	versions map[string][]app.App
	vendors  map[string]vendor.Vendor
	stacks   []string
}

var _ storage.AppStore = (*Store)(nil)
var _ storage.VendorStore = (*Store)(nil)
var _ storage.StackStore = (*Store)(nil)

// New creates an empty in-memory store with the given stacks available for
// permission validation.
func New(stacks ...string) *Store {
	return &Store{
		apps:     make(map[string]*app.App),
		versions: make(map[string][]app.App),
		vendors:  make(map[string]vendor.Vendor),
		stacks:   stacks,
	}
}

// --- Guards -----------------------------------------------------------------

func (s *Store) AppExists(_ context.Context, id string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.apps[id]; !ok {
		return apperr.NotFound("app %s does not exist", id)
	}
	return nil
}

func (s *Store) AppNotExists(_ context.Context, id string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.apps[id]; ok {
		return apperr.Conflict("app %s already exists", id)
	}
	return nil
}

func (s *Store) AppAccess(_ context.Context, id, vendorID string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.apps[id]
	if !ok || a.Vendor.ID != vendorID {
		return apperr.NotFound("app %s does not exist", id)
	}
	return nil
}

func (s *Store) VendorExists(_ context.Context, id string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.vendors[id]; !ok {
		return apperr.BadRequest("vendor %s does not exist", id)
	}
	return nil
}

func (s *Store) VendorNotExists(_ context.Context, id string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.vendors[id]; ok {
		return apperr.BadRequest("vendor %s already exists", id)
	}
	return nil
}

// --- Version manager --------------------------------------------------------

func (s *Store) snapshotLocked(a *app.App, actor string) {
	snap := *a
	snap.Vendor = vendor.Vendor{ID: a.Vendor.ID}
	now := time.Now().UTC()
	snap.CreatedOn = &now
	snap.CreatedBy = actor
	s.versions[a.ID] = append(s.versions[a.ID], snap)
}

func (s *Store) CreateApp(ctx context.Context, id, vendorID, actor string, u app.Update) error {
	stacks, _ := s.ListStacks(ctx)
	if err := u.Validate(stacks); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.apps[id]; ok {
		return apperr.Conflict("app %s already exists", id)
	}
	v, ok := s.vendors[vendorID]
	if !ok {
		v = vendor.Vendor{ID: vendorID}
	}

	now := time.Now().UTC()
	a := &app.App{
		ID:          id,
		Vendor:      v,
		Version:     1,
		CreatedOn:   &now,
		CreatedBy:   actor,
		UIOptions:   []string{},
		Actions:     []string{},
		Permissions: []app.Permission{},
		IsVisible:   true,
	}
	a.Apply(u)
	a.URI = app.DisplayURI(id, "")
	s.apps[id] = a
	s.snapshotLocked(a, actor)
	return nil
}

func (s *Store) UpdateApp(ctx context.Context, id string, u app.Update, actor string) error {
	if u.Empty() {
		return nil
	}
	stacks, _ := s.ListStacks(ctx)
	if err := u.Validate(stacks); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.apps[id]
	if !ok {
		return apperr.NotFound("app %s does not exist", id)
	}
	a.Apply(u)
	a.Version++
	s.snapshotLocked(a, actor)
	return nil
}

func (s *Store) PublishApp(_ context.Context, id, actor string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.apps[id]
	if !ok {
		return apperr.NotFound("app %s does not exist", id)
	}
	if a.IsPublic {
		return apperr.BadRequest("app %s is already approved", id)
	}
	a.IsPublic = true
	a.Version++
	s.snapshotLocked(a, actor)
	return nil
}

func (s *Store) SoftDeleteApp(_ context.Context, id, actor string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.apps[id]
	if !ok {
		return apperr.NotFound("app %s does not exist", id)
	}
	now := time.Now().UTC()
	a.DeletedOn = &now
	a.Version++
	s.snapshotLocked(a, actor)
	return nil
}

func (s *Store) AddAppIcon(_ context.Context, id string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.apps[id]
	if !ok {
		return 0, apperr.NotFound("app %s does not exist", id)
	}
	next := a.Version + 1
	a.Icon32 = app.IconPath(id, 32, next)
	a.Icon64 = app.IconPath(id, 64, next)
	a.Version = next
	s.snapshotLocked(a, "upload")
	return next, nil
}

// --- Read models ------------------------------------------------------------

func (s *Store) GetApp(_ context.Context, id string) (app.App, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.apps[id]
	if !ok {
		return app.App{}, apperr.NotFound("app %s does not exist", id)
	}
	return *a, nil
}

func (s *Store) GetAppVersion(_ context.Context, id string, version int) (app.App, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, snap := range s.versions[id] {
		if snap.Version == version {
			if a, ok := s.apps[id]; ok {
				snap.Vendor = a.Vendor
			}
			return snap, nil
		}
	}
	return app.App{}, apperr.NotFound("version %d of app %s does not exist", version, id)
}

func (s *Store) ListApps(_ context.Context, f storage.ListFilter) ([]app.App, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []app.App{}
	for _, a := range s.apps {
		if a.DeletedOn != nil {
			continue
		}
		if f.Vendor != "" && a.Vendor.ID != f.Vendor {
			continue
		}
		if f.OnlyPublic && !a.IsPublic {
			continue
		}
		if f.OnlyUnapproved && a.IsPublic {
			continue
		}
		result = append(result, *a)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return pageApps(result, f.Page), nil
}

func (s *Store) ListAppVersions(_ context.Context, id string, p storage.Page) ([]app.App, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snaps := s.versions[id]
	result := make([]app.App, len(snaps))
	copy(result, snaps)
	if a, ok := s.apps[id]; ok {
		for i := range result {
			result[i].Vendor = a.Vendor
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Version < result[j].Version })
	return pageApps(result, p), nil
}

func (s *Store) ListChanges(_ context.Context, since, until time.Time) ([]app.App, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if since.IsZero() {
		since = time.Now().UTC().Add(-24 * time.Hour)
	}
	result := []app.App{}
	for _, snaps := range s.versions {
		for _, snap := range snaps {
			if snap.CreatedOn == nil || snap.CreatedOn.Before(since) {
				continue
			}
			if !until.IsZero() && snap.CreatedOn.After(until) {
				continue
			}
			result = append(result, snap)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedOn.After(*result[j].CreatedOn) })
	return result, nil
}

func pageApps(apps []app.App, p storage.Page) []app.App {
	page := p.Normalize()
	if page.Offset >= len(apps) {
		return []app.App{}
	}
	end := page.Offset + page.Limit
	if end > len(apps) {
		end = len(apps)
	}
	return apps[page.Offset:end]
}

// --- Vendors ----------------------------------------------------------------

func (s *Store) CreateVendor(_ context.Context, v vendor.Vendor) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.vendors[v.ID]; ok {
		return apperr.BadRequest("vendor %s already exists", v.ID)
	}
	s.vendors[v.ID] = v
	return nil
}

func (s *Store) GetVendor(_ context.Context, id string) (vendor.Vendor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.vendors[id]
	if !ok {
		return vendor.Vendor{}, apperr.NotFound("vendor %s does not exist", id)
	}
	return v, nil
}

func (s *Store) ListVendors(_ context.Context, p storage.Page) ([]vendor.Vendor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]vendor.Vendor, 0, len(s.vendors))
	for _, v := range s.vendors {
		result = append(result, v)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })

	page := p.Normalize()
	if page.Offset >= len(result) {
		return []vendor.Vendor{}, nil
	}
	end := page.Offset + page.Limit
	if end > len(result) {
		end = len(result)
	}
	return result[page.Offset:end], nil
}

// --- Stacks -----------------------------------------------------------------

func (s *Store) ListStacks(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]string, len(s.stacks))
	copy(result, s.stacks)
	sort.Strings(result)
	return result, nil
}
