// Package postgres implements the storage interfaces backed by PostgreSQL.
//
// Every mutation bumps apps.version by one and appends a snapshot to
// app_versions inside a single transaction; concurrent mutations of the same
// app serialize on the row lock taken by the version-increment UPDATE.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/connectorhub/registry/internal/apperr"
	"github.com/connectorhub/registry/internal/registry/domain/app"
	"github.com/connectorhub/registry/internal/registry/domain/vendor"
	"github.com/connectorhub/registry/internal/registry/storage"
)

// Store implements the storage interfaces over a database handle.
type Store struct {
	db *sql.DB
}

var _ storage.AppStore = (*Store)(nil)
var _ storage.VendorStore = (*Store)(nil)
var _ storage.StackStore = (*Store)(nil)

// New creates a Store using the provided database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// --- Guards -----------------------------------------------------------------

func (s *Store) count(ctx context.Context, query string, args ...any) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (s *Store) AppExists(ctx context.Context, id string) error {
	n, err := s.count(ctx, `SELECT COUNT(*) FROM apps WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.NotFound("app %s does not exist", id)
	}
	return nil
}

func (s *Store) AppNotExists(ctx context.Context, id string) error {
	n, err := s.count(ctx, `SELECT COUNT(*) FROM apps WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n != 0 {
		return apperr.Conflict("app %s already exists", id)
	}
	return nil
}

// AppAccess reports NotFound both for missing apps and for apps owned by a
// different vendor, so callers cannot tell foreign apps from missing ones.
func (s *Store) AppAccess(ctx context.Context, id, vendorID string) error {
	n, err := s.count(ctx, `SELECT COUNT(*) FROM apps WHERE id = $1 AND vendor = $2`, id, vendorID)
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.NotFound("app %s does not exist", id)
	}
	return nil
}

func (s *Store) VendorExists(ctx context.Context, id string) error {
	n, err := s.count(ctx, `SELECT COUNT(*) FROM vendors WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.BadRequest("vendor %s does not exist", id)
	}
	return nil
}

func (s *Store) VendorNotExists(ctx context.Context, id string) error {
	n, err := s.count(ctx, `SELECT COUNT(*) FROM vendors WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n != 0 {
		return apperr.BadRequest("vendor %s already exists", id)
	}
	return nil
}

// --- Version manager --------------------------------------------------------

// copyVersion appends the current canonical row to the history, stamped with
// the actor of this change instead of the app's original author.
func copyVersion(ctx context.Context, tx *sql.Tx, id, actor string) error {
	query := "INSERT INTO app_versions (" + strings.Join(snapshotColumns, ", ") + ", created_by) " +
		"SELECT " + prefixed("a", snapshotColumns) + ", $2 FROM apps a WHERE a.id = $1"
	res, err := tx.ExecContext(ctx, query, id, actor)
	if err != nil {
		return err
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return apperr.NotFound("app %s does not exist", id)
	}
	return nil
}

func (s *Store) validateUpdate(ctx context.Context, u app.Update) error {
	var stacks []string
	if len(u.Permissions) > 0 {
		var err error
		stacks, err = s.ListStacks(ctx)
		if err != nil {
			return err
		}
	}
	return u.Validate(stacks)
}

// CreateApp inserts the canonical row at version 1 together with the
// version-1 snapshot. Both inserts share one transaction, so a failed
// snapshot never leaves a canonical row without history.
func (s *Store) CreateApp(ctx context.Context, id, vendorID, actor string, u app.Update) error {
	if err := s.validateUpdate(ctx, u); err != nil {
		return err
	}
	cols, args, err := updateColumns(u)
	if err != nil {
		return err
	}
	cols = append([]string{"id", "vendor", "version", "created_by"}, cols...)
	args = append([]any{id, vendorID, 1, actor}, args...)

	placeholders := make([]string, len(cols))
	for i := range cols {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	query := "INSERT INTO apps (" + strings.Join(cols, ", ") + ") VALUES (" +
		strings.Join(placeholders, ", ") + ")"

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		tx.Rollback()
		return err
	}
	if err := copyVersion(ctx, tx, id, actor); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

// UpdateApp applies the present fields of u, bumps the version and snapshots
// the result, all in one transaction. An empty update is a no-op success.
func (s *Store) UpdateApp(ctx context.Context, id string, u app.Update, actor string) error {
	if u.Empty() {
		return nil
	}
	if err := s.validateUpdate(ctx, u); err != nil {
		return err
	}
	cols, args, err := updateColumns(u)
	if err != nil {
		return err
	}
	assignments := make([]string, len(cols))
	for i, c := range cols {
		assignments[i] = fmt.Sprintf("%s = $%d", c, i+1)
	}
	query := "UPDATE apps SET " + strings.Join(assignments, ", ") +
		fmt.Sprintf(", version = version + 1 WHERE id = $%d", len(cols)+1)
	args = append(args, id)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		tx.Rollback()
		return err
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		tx.Rollback()
		return apperr.NotFound("app %s does not exist", id)
	}
	if err := copyVersion(ctx, tx, id, actor); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

// PublishApp approves an app for the public listing.
func (s *Store) PublishApp(ctx context.Context, id, actor string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	// The is_public guard makes concurrent approvals settle to a single
	// version bump: the second one matches no row.
	res, err := tx.ExecContext(ctx,
		"UPDATE apps SET is_public = 1, version = version + 1 WHERE id = $1 AND is_public = 0", id)
	if err != nil {
		tx.Rollback()
		return err
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		tx.Rollback()
		var count int
		if err := s.db.QueryRowContext(ctx,
			"SELECT COUNT(id) FROM apps WHERE id = $1", id).Scan(&count); err != nil {
			return err
		}
		if count == 0 {
			return apperr.NotFound("app %s does not exist", id)
		}
		return apperr.BadRequest("app %s is already approved", id)
	}
	if err := copyVersion(ctx, tx, id, actor); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

// SoftDeleteApp marks an app deleted. The row and its history persist.
func (s *Store) SoftDeleteApp(ctx context.Context, id, actor string) error {
	return s.flagUpdate(ctx, id, actor, "deleted_on = NOW()")
}

func (s *Store) flagUpdate(ctx context.Context, id, actor, assignment string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx,
		"UPDATE apps SET "+assignment+", version = version + 1 WHERE id = $1", id)
	if err != nil {
		tx.Rollback()
		return err
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		tx.Rollback()
		return apperr.NotFound("app %s does not exist", id)
	}
	if err := copyVersion(ctx, tx, id, actor); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

// AddAppIcon stamps both icon paths with the next version number, bumps the
// version and snapshots, returning the new version for the upload target.
// The paths use the pre-increment version + 1, computed inside the UPDATE so
// the stamp and the bump cannot drift apart.
func (s *Store) AddAppIcon(ctx context.Context, id string) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	var version int
	err = tx.QueryRowContext(ctx,
		`UPDATE apps SET `+
			`icon32 = $2 || (version + 1) || '.png', `+
			`icon64 = $3 || (version + 1) || '.png', `+
			`version = version + 1 WHERE id = $1 RETURNING version`,
		id, id+"/32/", id+"/64/").Scan(&version)
	if err != nil {
		tx.Rollback()
		if errors.Is(err, sql.ErrNoRows) {
			return 0, apperr.NotFound("app %s does not exist", id)
		}
		return 0, err
	}
	if err := copyVersion(ctx, tx, id, "upload"); err != nil {
		tx.Rollback()
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return version, nil
}

// --- Read models ------------------------------------------------------------

func (s *Store) GetApp(ctx context.Context, id string) (app.App, error) {
	row := s.db.QueryRowContext(ctx, selectApps()+"WHERE a.id = $1", id)
	a, err := scanApp(row)
	if errors.Is(err, sql.ErrNoRows) {
		return app.App{}, apperr.NotFound("app %s does not exist", id)
	}
	return a, err
}

func (s *Store) GetAppVersion(ctx context.Context, id string, version int) (app.App, error) {
	row := s.db.QueryRowContext(ctx,
		selectVersions()+"WHERE a.id = $1 AND a.version = $2", id, version)
	a, err := scanApp(row)
	if errors.Is(err, sql.ErrNoRows) {
		return app.App{}, apperr.NotFound("version %d of app %s does not exist", version, id)
	}
	return a, err
}

func (s *Store) ListApps(ctx context.Context, f storage.ListFilter) ([]app.App, error) {
	query := selectApps() + "WHERE a.deleted_on IS NULL "
	var args []any
	if f.Vendor != "" {
		args = append(args, f.Vendor)
		query += fmt.Sprintf("AND a.vendor = $%d ", len(args))
	}
	if f.OnlyPublic {
		query += "AND a.is_public = 1 "
	}
	if f.OnlyUnapproved {
		query += "AND a.is_public = 0 "
	}
	page := f.Page.Normalize()
	args = append(args, page.Limit, page.Offset)
	query += fmt.Sprintf("ORDER BY a.name LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	return s.queryApps(ctx, query, args...)
}

func (s *Store) ListAppVersions(ctx context.Context, id string, p storage.Page) ([]app.App, error) {
	page := p.Normalize()
	return s.queryApps(ctx,
		selectVersions()+"WHERE a.id = $1 ORDER BY a.version LIMIT $2 OFFSET $3",
		id, page.Limit, page.Offset)
}

func (s *Store) ListChanges(ctx context.Context, since, until time.Time) ([]app.App, error) {
	if since.IsZero() {
		since = time.Now().UTC().Add(-24 * time.Hour)
	}
	query := selectVersions() + "WHERE a.created_on >= $1 "
	args := []any{since}
	if !until.IsZero() {
		args = append(args, until)
		query += "AND a.created_on <= $2 "
	}
	query += "ORDER BY a.created_on DESC"
	return s.queryApps(ctx, query, args...)
}

func (s *Store) queryApps(ctx context.Context, query string, args ...any) ([]app.App, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []app.App{}
	for rows.Next() {
		a, err := scanApp(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	return result, rows.Err()
}

// --- Vendors ----------------------------------------------------------------

func (s *Store) CreateVendor(ctx context.Context, v vendor.Vendor) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO vendors (id, name, address, email) VALUES ($1, $2, $3, $4)`,
		v.ID, v.Name, v.Address, v.Email)
	return err
}

func (s *Store) GetVendor(ctx context.Context, id string) (vendor.Vendor, error) {
	var v vendor.Vendor
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, address, email FROM vendors WHERE id = $1`, id).
		Scan(&v.ID, &v.Name, &v.Address, &v.Email)
	if errors.Is(err, sql.ErrNoRows) {
		return vendor.Vendor{}, apperr.NotFound("vendor %s does not exist", id)
	}
	return v, err
}

func (s *Store) ListVendors(ctx context.Context, p storage.Page) ([]vendor.Vendor, error) {
	page := p.Normalize()
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, address, email FROM vendors ORDER BY id LIMIT $1 OFFSET $2`,
		page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []vendor.Vendor{}
	for rows.Next() {
		var v vendor.Vendor
		if err := rows.Scan(&v.ID, &v.Name, &v.Address, &v.Email); err != nil {
			return nil, err
		}
		result = append(result, v)
	}
	return result, rows.Err()
}

// --- Stacks -----------------------------------------------------------------

func (s *Store) ListStacks(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM stacks ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		result = append(result, name)
	}
	return result, rows.Err()
}
