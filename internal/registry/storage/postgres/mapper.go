package postgres

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/connectorhub/registry/internal/registry/domain/app"
	"github.com/connectorhub/registry/internal/registry/domain/vendor"
)

// snapshotColumns are the columns shared by the apps table and the
// app_versions history table: everything except vendor, created_on and
// created_by, which the snapshot copy handles separately.
var snapshotColumns = []string{
	"id", "name", "type",
	"repo_type", "repo_uri", "repo_tag", "repo_options",
	"short_description", "long_description", "license_url", "documentation_url",
	"required_memory", "process_timeout", "encryption", "network",
	"default_bucket", "default_bucket_stage",
	"forward_token", "forward_token_details", "inject_environment", "cpu_shares",
	"ui_options", "image_parameters", "test_configuration",
	"configuration_schema", "configuration_description", "configuration_format",
	"empty_configuration", "actions", "fees", "limits",
	"logger", "logger_configuration", "staging_storage_input",
	"is_public", "is_visible", "is_deprecated",
	"expired_on", "replacement_app", "deleted_on",
	"icon32", "icon64", "legacy_uri", "permissions", "version",
}

func prefixed(alias string, cols []string) string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = alias + "." + c
	}
	return strings.Join(out, ", ")
}

// selectApps builds the projection for reads over the apps table, with vendor
// display fields joined in.
func selectApps() string {
	return "SELECT " + prefixed("a", snapshotColumns) + ", a.created_on, a.created_by, " +
		"a.vendor AS vendor_id, v.name AS vendor_name, v.address AS vendor_address, v.email AS vendor_email " +
		"FROM apps a LEFT JOIN vendors v ON (v.id = a.vendor) "
}

// selectVersions builds the same projection over the history table; the
// vendor comes from the canonical row since snapshots do not store it.
func selectVersions() string {
	return "SELECT " + prefixed("a", snapshotColumns) + ", a.created_on, a.created_by, " +
		"ap.vendor AS vendor_id, v.name AS vendor_name, v.address AS vendor_address, v.email AS vendor_email " +
		"FROM app_versions a " +
		"LEFT JOIN apps ap ON (ap.id = a.id) " +
		"LEFT JOIN vendors v ON (v.id = ap.vendor) "
}

// updateColumns maps the present fields of an update to column names and
// arguments: booleans to 0/1, JSON fields to serialized text, repository
// subfields to the flat repo_* columns. Absent fields produce nothing.
func updateColumns(u app.Update) ([]string, []any, error) {
	var cols []string
	var args []any
	add := func(col string, v any) {
		cols = append(cols, col)
		args = append(args, v)
	}
	addStr := func(col string, v *string) {
		if v != nil {
			add(col, *v)
		}
	}
	addBool := func(col string, v *bool) {
		if v != nil {
			add(col, boolToInt(*v))
		}
	}
	addInt := func(col string, v *int) {
		if v != nil {
			add(col, *v)
		}
	}
	addJSON := func(col string, v any, present bool) error {
		if !present {
			return nil
		}
		raw, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("serialize %s: %w", col, err)
		}
		add(col, string(raw))
		return nil
	}

	addStr("name", u.Name)
	addStr("type", u.Type)
	if u.Repository != nil {
		addStr("repo_type", u.Repository.Type)
		addStr("repo_uri", u.Repository.URI)
		addStr("repo_tag", u.Repository.Tag)
		if err := addJSON("repo_options", u.Repository.Options, u.Repository.Options != nil); err != nil {
			return nil, nil, err
		}
	}
	addStr("short_description", u.ShortDescription)
	addStr("long_description", u.LongDescription)
	addStr("license_url", u.LicenseURL)
	addStr("documentation_url", u.DocumentationURL)
	addStr("required_memory", u.RequiredMemory)
	addInt("process_timeout", u.ProcessTimeout)
	addBool("encryption", u.Encryption)
	addStr("network", u.Network)
	addBool("default_bucket", u.DefaultBucket)
	addStr("default_bucket_stage", u.DefaultBucketStage)
	addBool("forward_token", u.ForwardToken)
	addBool("forward_token_details", u.ForwardTokenDetails)
	addBool("inject_environment", u.InjectEnvironment)
	addInt("cpu_shares", u.CPUShares)
	if err := addJSON("ui_options", u.UIOptions, u.UIOptions != nil); err != nil {
		return nil, nil, err
	}
	if err := addJSON("image_parameters", u.ImageParameters, u.ImageParameters != nil); err != nil {
		return nil, nil, err
	}
	if err := addJSON("test_configuration", u.TestConfiguration, u.TestConfiguration != nil); err != nil {
		return nil, nil, err
	}
	if err := addJSON("configuration_schema", u.ConfigurationSchema, u.ConfigurationSchema != nil); err != nil {
		return nil, nil, err
	}
	addStr("configuration_description", u.ConfigurationDescription)
	addStr("configuration_format", u.ConfigurationFormat)
	if err := addJSON("empty_configuration", u.EmptyConfiguration, u.EmptyConfiguration != nil); err != nil {
		return nil, nil, err
	}
	if err := addJSON("actions", u.Actions, u.Actions != nil); err != nil {
		return nil, nil, err
	}
	addBool("fees", u.Fees)
	addStr("limits", u.Limits)
	addStr("logger", u.Logger)
	if err := addJSON("logger_configuration", u.LoggerConfiguration, u.LoggerConfiguration != nil); err != nil {
		return nil, nil, err
	}
	addStr("staging_storage_input", u.StagingStorageInput)
	addBool("is_visible", u.IsVisible)
	addBool("is_deprecated", u.IsDeprecated)
	if u.ExpiredOn != nil {
		add("expired_on", *u.ExpiredOn)
	}
	addStr("replacement_app", u.ReplacementApp)
	if err := addJSON("permissions", u.Permissions, u.Permissions != nil); err != nil {
		return nil, nil, err
	}

	return cols, args, nil
}

type scanner interface {
	Scan(dest ...any) error
}

// scanApp reads one row of the selectApps/selectVersions projection back into
// the public shape: 0/1 columns become booleans, JSON text becomes structured
// values with NULL normalized to empty array/object, the flat repo columns
// reassemble into Repository, the joined vendor columns into Vendor, and the
// display uri is synthesized from legacy_uri or the canonical docker path.
func scanApp(s scanner) (app.App, error) {
	var (
		a app.App

		repoType, repoURI, repoTag sql.NullString
		repoOptions                []byte

		shortDescription, longDescription, licenseURL, documentationURL sql.NullString
		requiredMemory, network, defaultBucketStage                     sql.NullString
		confDescription, confFormat, limits, loggerName                 sql.NullString
		stagingStorageInput, replacementApp, icon32, icon64             sql.NullString
		legacyURI, createdBy                                            sql.NullString

		processTimeout, cpuShares sql.NullInt64

		encryption, defaultBucket, forwardToken, forwardTokenDetails sql.NullInt16
		injectEnvironment, fees, isPublic, isVisible, isDeprecated   sql.NullInt16

		uiOptions, imageParameters, testConfiguration []byte
		configurationSchema, emptyConfiguration       []byte
		actions, loggerConfiguration, permissions     []byte

		expiredOn, deletedOn, createdOn sql.NullTime

		vendorID, vendorName, vendorAddress, vendorEmail sql.NullString
	)

	err := s.Scan(
		&a.ID, &a.Name, &a.Type,
		&repoType, &repoURI, &repoTag, &repoOptions,
		&shortDescription, &longDescription, &licenseURL, &documentationURL,
		&requiredMemory, &processTimeout, &encryption, &network,
		&defaultBucket, &defaultBucketStage,
		&forwardToken, &forwardTokenDetails, &injectEnvironment, &cpuShares,
		&uiOptions, &imageParameters, &testConfiguration,
		&configurationSchema, &confDescription, &confFormat,
		&emptyConfiguration, &actions, &fees, &limits,
		&loggerName, &loggerConfiguration, &stagingStorageInput,
		&isPublic, &isVisible, &isDeprecated,
		&expiredOn, &replacementApp, &deletedOn,
		&icon32, &icon64, &legacyURI, &permissions, &a.Version,
		&createdOn, &createdBy,
		&vendorID, &vendorName, &vendorAddress, &vendorEmail,
	)
	if err != nil {
		return app.App{}, err
	}

	a.ShortDescription = shortDescription.String
	a.LongDescription = longDescription.String
	a.LicenseURL = licenseURL.String
	a.DocumentationURL = documentationURL.String
	a.RequiredMemory = requiredMemory.String
	a.ProcessTimeout = int(processTimeout.Int64)
	a.Encryption = intToBool(encryption)
	a.Network = network.String
	a.DefaultBucket = intToBool(defaultBucket)
	a.DefaultBucketStage = defaultBucketStage.String
	a.ForwardToken = intToBool(forwardToken)
	a.ForwardTokenDetails = intToBool(forwardTokenDetails)
	a.InjectEnvironment = intToBool(injectEnvironment)
	a.CPUShares = int(cpuShares.Int64)
	a.ConfigurationDescription = confDescription.String
	a.ConfigurationFormat = confFormat.String
	a.Fees = intToBool(fees)
	a.Limits = limits.String
	a.Logger = loggerName.String
	a.StagingStorageInput = stagingStorageInput.String
	a.IsPublic = intToBool(isPublic)
	a.IsVisible = intToBool(isVisible)
	a.IsDeprecated = intToBool(isDeprecated)
	a.ReplacementApp = replacementApp.String
	a.Icon32 = icon32.String
	a.Icon64 = icon64.String
	a.CreatedBy = createdBy.String

	if expiredOn.Valid {
		t := expiredOn.Time.UTC()
		a.ExpiredOn = &t
	}
	if deletedOn.Valid {
		t := deletedOn.Time.UTC()
		a.DeletedOn = &t
	}
	if createdOn.Valid {
		t := createdOn.Time.UTC()
		a.CreatedOn = &t
	}

	if err := decodeStrings(uiOptions, &a.UIOptions); err != nil {
		return app.App{}, fmt.Errorf("app %s: ui_options: %w", a.ID, err)
	}
	if err := decodeObject(imageParameters, &a.ImageParameters); err != nil {
		return app.App{}, fmt.Errorf("app %s: image_parameters: %w", a.ID, err)
	}
	if err := decodeObject(testConfiguration, &a.TestConfiguration); err != nil {
		return app.App{}, fmt.Errorf("app %s: test_configuration: %w", a.ID, err)
	}
	if err := decodeObject(configurationSchema, &a.ConfigurationSchema); err != nil {
		return app.App{}, fmt.Errorf("app %s: configuration_schema: %w", a.ID, err)
	}
	if err := decodeObject(emptyConfiguration, &a.EmptyConfiguration); err != nil {
		return app.App{}, fmt.Errorf("app %s: empty_configuration: %w", a.ID, err)
	}
	if err := decodeStrings(actions, &a.Actions); err != nil {
		return app.App{}, fmt.Errorf("app %s: actions: %w", a.ID, err)
	}
	if err := decodeObject(loggerConfiguration, &a.LoggerConfiguration); err != nil {
		return app.App{}, fmt.Errorf("app %s: logger_configuration: %w", a.ID, err)
	}
	if len(permissions) > 0 {
		if err := json.Unmarshal(permissions, &a.Permissions); err != nil {
			return app.App{}, fmt.Errorf("app %s: permissions: %w", a.ID, err)
		}
	}
	if a.Permissions == nil {
		a.Permissions = []app.Permission{}
	}

	if repoType.Valid {
		repo := &app.Repository{
			Type: repoType.String,
			URI:  repoURI.String,
			Tag:  repoTag.String,
		}
		if err := decodeObject(repoOptions, &repo.Options); err != nil {
			return app.App{}, fmt.Errorf("app %s: repo_options: %w", a.ID, err)
		}
		a.Repository = repo
	}

	if vendorID.Valid {
		a.Vendor = vendor.Vendor{
			ID:      vendorID.String,
			Name:    vendorName.String,
			Address: vendorAddress.String,
			Email:   vendorEmail.String,
		}
	}

	a.URI = app.DisplayURI(a.ID, legacyURI.String)
	return a, nil
}

// decodeObject parses a JSON text column into a map, substituting an empty
// object for NULL or JSON null.
func decodeObject(raw []byte, dst *map[string]any) error {
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, dst); err != nil {
			return err
		}
	}
	if *dst == nil {
		*dst = map[string]any{}
	}
	return nil
}

// decodeStrings parses a JSON text column into a string slice, substituting
// an empty array for NULL or JSON null.
func decodeStrings(raw []byte, dst *[]string) error {
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, dst); err != nil {
			return err
		}
	}
	if *dst == nil {
		*dst = []string{}
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func intToBool(v sql.NullInt16) bool {
	return v.Valid && v.Int16 == 1
}
