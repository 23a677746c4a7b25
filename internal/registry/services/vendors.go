package services

import (
	"context"
	"regexp"

	"github.com/connectorhub/registry/internal/apperr"
	"github.com/connectorhub/registry/internal/registry/domain/vendor"
	"github.com/connectorhub/registry/internal/registry/storage"
	"github.com/connectorhub/registry/pkg/logger"
)

var vendorIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{2,32}$`)

// Vendors implements vendor directory use cases.
type Vendors struct {
	store storage.VendorStore
	log   *logger.Logger
}

// NewVendors wires the vendors service.
func NewVendors(store storage.VendorStore, log *logger.Logger) *Vendors {
	return &Vendors{store: store, log: log}
}

// Create registers a vendor. Ids are permanent: they prefix every app id the
// vendor will ever create.
func (s *Vendors) Create(ctx context.Context, v vendor.Vendor) (vendor.Vendor, error) {
	if !vendorIDPattern.MatchString(v.ID) {
		return vendor.Vendor{}, apperr.BadRequest("id must be 2-32 characters of a-z, A-Z, 0-9, - and _")
	}
	if v.Name == "" {
		return vendor.Vendor{}, apperr.BadRequest("name is required")
	}
	if v.Email == "" {
		return vendor.Vendor{}, apperr.BadRequest("email is required")
	}
	if err := s.store.VendorNotExists(ctx, v.ID); err != nil {
		return vendor.Vendor{}, err
	}
	if err := s.store.CreateVendor(ctx, v); err != nil {
		return vendor.Vendor{}, err
	}
	s.log.Info("vendor created", "vendor", v.ID)
	return v, nil
}

// Get returns one vendor.
func (s *Vendors) Get(ctx context.Context, id string) (vendor.Vendor, error) {
	return s.store.GetVendor(ctx, id)
}

// List returns vendors ordered by id.
func (s *Vendors) List(ctx context.Context, page storage.Page) ([]vendor.Vendor, error) {
	return s.store.ListVendors(ctx, page)
}
