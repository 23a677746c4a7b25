package postgres

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/connectorhub/registry/internal/registry/domain/app"
)

// appRowColumns returns the column list of the selectApps/selectVersions
// projection in scan order.
func appRowColumns() []string {
	cols := append([]string{}, snapshotColumns...)
	return append(cols, "created_on", "created_by",
		"vendor_id", "vendor_name", "vendor_address", "vendor_email")
}

func boolptr(b bool) *bool { return &b }
func intptr(n int) *int    { return &n }

func TestUpdateColumnsMapsPresentFieldsOnly(t *testing.T) {
	u := app.Update{
		Name:          strptr("My App"),
		Encryption:    boolptr(true),
		DefaultBucket: boolptr(false),
		CPUShares:     intptr(512),
		UIOptions:     []string{"genericDockerUI"},
		Repository: &app.RepositoryUpdate{
			Type: strptr("quay"),
			URI:  strptr("keboola/my-app"),
		},
	}

	cols, args, err := updateColumns(u)
	if err != nil {
		t.Fatalf("updateColumns: %v", err)
	}
	wantCols := []string{"name", "repo_type", "repo_uri", "cpu_shares", "ui_options", "encryption", "default_bucket"}
	for _, want := range wantCols {
		if !containsCol(cols, want) {
			t.Fatalf("column %s missing from %v", want, cols)
		}
	}
	if containsCol(cols, "short_description") || containsCol(cols, "repo_tag") {
		t.Fatalf("absent fields leaked into %v", cols)
	}
	if len(cols) != len(args) {
		t.Fatalf("columns and args out of step: %d vs %d", len(cols), len(args))
	}
	// Booleans become 0/1, string slices become JSON text.
	if got := argFor(t, cols, args, "encryption"); got != 1 {
		t.Fatalf("encryption = %v, want 1", got)
	}
	if got := argFor(t, cols, args, "default_bucket"); got != 0 {
		t.Fatalf("default_bucket = %v, want 0", got)
	}
	if got := argFor(t, cols, args, "ui_options"); got != `["genericDockerUI"]` {
		t.Fatalf("ui_options = %v", got)
	}
}

func containsCol(cols []string, name string) bool {
	for _, c := range cols {
		if c == name {
			return true
		}
	}
	return false
}

func argFor(t *testing.T, cols []string, args []any, name string) any {
	t.Helper()
	for i, c := range cols {
		if c == name {
			return args[i]
		}
	}
	t.Fatalf("column %s not found", name)
	return nil
}

func TestScanAppNormalizesRow(t *testing.T) {
	store, mock := newMockStore(t)

	created := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	row := sqlmock.NewRows(appRowColumns()).AddRow(
		"acme.extractor", "Acme Extractor", "extractor",
		"quay", "acme/extractor", "1.2.3", `{"username":"robot"}`,
		"Pulls data", nil, nil, "https://docs.acme.test",
		nil, nil, 1, nil,
		0, nil,
		nil, nil, nil, nil,
		`["genericDockerUI"]`, `{"mode":"full"}`, nil,
		nil, nil, nil,
		nil, `["run"]`, 0, nil,
		nil, nil, nil,
		1, 1, 0,
		nil, nil, nil,
		"acme.extractor/32/2.png", "acme.extractor/64/2.png", nil,
		`[{"stack":"connection.example.com","projects":[11]}]`, 2,
		created, "dev@acme.test",
		"acme", "Acme", "1 Main St", "hello@acme.test",
	)
	mock.ExpectQuery("SELECT").WithArgs("acme.extractor").WillReturnRows(row)

	a, err := store.GetApp(context.Background(), "acme.extractor")
	if err != nil {
		t.Fatalf("GetApp: %v", err)
	}

	if !a.Encryption || a.DefaultBucket || !a.IsPublic || !a.IsVisible || a.IsDeprecated {
		t.Fatalf("flag coercion wrong: %+v", a)
	}
	if a.Repository == nil || a.Repository.Type != "quay" || a.Repository.Options["username"] != "robot" {
		t.Fatalf("repository not reassembled: %+v", a.Repository)
	}
	if !reflect.DeepEqual(a.UIOptions, []string{"genericDockerUI"}) {
		t.Fatalf("uiOptions: %v", a.UIOptions)
	}
	// NULL JSON columns normalize to empty containers, never nil.
	if a.TestConfiguration == nil || len(a.TestConfiguration) != 0 {
		t.Fatalf("testConfiguration: %v", a.TestConfiguration)
	}
	if a.Actions == nil || a.Actions[0] != "run" {
		t.Fatalf("actions: %v", a.Actions)
	}
	if len(a.Permissions) != 1 || a.Permissions[0].Stack != "connection.example.com" {
		t.Fatalf("permissions: %+v", a.Permissions)
	}
	if a.URI != "docker/acme.extractor" {
		t.Fatalf("uri: %s", a.URI)
	}
	if a.Vendor.ID != "acme" || a.Vendor.Email != "hello@acme.test" {
		t.Fatalf("vendor: %+v", a.Vendor)
	}
	if a.CreatedOn == nil || !a.CreatedOn.Equal(created) || a.CreatedBy != "dev@acme.test" {
		t.Fatalf("audit fields: %v %s", a.CreatedOn, a.CreatedBy)
	}
	expectMet(t, mock)
}

func TestScanAppLegacyURIWins(t *testing.T) {
	store, mock := newMockStore(t)

	row := sqlmock.NewRows(appRowColumns()).AddRow(
		"acme.legacy", "Legacy", "writer",
		nil, nil, nil, nil,
		nil, nil, nil, nil,
		nil, nil, nil, nil,
		nil, nil,
		nil, nil, nil, nil,
		nil, nil, nil,
		nil, nil, nil,
		nil, nil, nil, nil,
		nil, nil, nil,
		1, 1, 0,
		nil, nil, nil,
		nil, nil, "wr-legacy", nil, 1,
		nil, nil,
		"acme", "Acme", "", "",
	)
	mock.ExpectQuery("SELECT").WithArgs("acme.legacy").WillReturnRows(row)

	a, err := store.GetApp(context.Background(), "acme.legacy")
	if err != nil {
		t.Fatalf("GetApp: %v", err)
	}
	if a.URI != "wr-legacy" {
		t.Fatalf("uri: %s", a.URI)
	}
	if a.Repository != nil {
		t.Fatalf("repository should be absent: %+v", a.Repository)
	}
	if a.UIOptions == nil || a.Permissions == nil || a.ImageParameters == nil {
		t.Fatal("JSON defaults missing")
	}
	expectMet(t, mock)
}
