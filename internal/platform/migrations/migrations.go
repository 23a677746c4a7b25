// Package migrations applies the registry schema.
package migrations

import (
	"context"
	"database/sql"
	"fmt"
)

// statements run in order on startup. Each is idempotent.
var statements = []string{
	`CREATE TABLE IF NOT EXISTS vendors (
		id      VARCHAR(32)  PRIMARY KEY,
		name    VARCHAR(128) NOT NULL,
		address VARCHAR(255) NOT NULL DEFAULT '',
		email   VARCHAR(128) NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS stacks (
		name VARCHAR(128) PRIMARY KEY
	)`,
	`CREATE TABLE IF NOT EXISTS apps (
		id                        VARCHAR(128) PRIMARY KEY,
		vendor                    VARCHAR(32)  NOT NULL REFERENCES vendors (id),
		name                      VARCHAR(128) NOT NULL DEFAULT '',
		type                      VARCHAR(32)  NOT NULL DEFAULT 'other',
		repo_type                 VARCHAR(32),
		repo_uri                  VARCHAR(128),
		repo_tag                  VARCHAR(20),
		repo_options              TEXT,
		short_description         TEXT,
		long_description          TEXT,
		license_url               VARCHAR(255),
		documentation_url         VARCHAR(255),
		required_memory           VARCHAR(10),
		process_timeout           INTEGER,
		encryption                SMALLINT NOT NULL DEFAULT 0,
		network                   VARCHAR(16),
		default_bucket            SMALLINT NOT NULL DEFAULT 0,
		default_bucket_stage      VARCHAR(3),
		forward_token             SMALLINT NOT NULL DEFAULT 0,
		forward_token_details     SMALLINT NOT NULL DEFAULT 0,
		inject_environment        SMALLINT NOT NULL DEFAULT 0,
		cpu_shares                INTEGER,
		ui_options                TEXT,
		image_parameters          TEXT,
		test_configuration        TEXT,
		configuration_schema      TEXT,
		configuration_description TEXT,
		configuration_format      VARCHAR(16),
		empty_configuration       TEXT,
		actions                   TEXT,
		fees                      SMALLINT NOT NULL DEFAULT 0,
		limits                    TEXT,
		logger                    VARCHAR(16),
		logger_configuration      TEXT,
		staging_storage_input     VARCHAR(16),
		is_public                 SMALLINT NOT NULL DEFAULT 0,
		is_visible                SMALLINT NOT NULL DEFAULT 1,
		is_deprecated             SMALLINT NOT NULL DEFAULT 0,
		expired_on                TIMESTAMPTZ,
		replacement_app           VARCHAR(128),
		deleted_on                TIMESTAMPTZ,
		icon32                    VARCHAR(255),
		icon64                    VARCHAR(255),
		legacy_uri                VARCHAR(255),
		permissions               TEXT,
		version                   INTEGER NOT NULL DEFAULT 1,
		created_on                TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		created_by                VARCHAR(128) NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS app_versions (
		id                        VARCHAR(128) NOT NULL,
		name                      VARCHAR(128) NOT NULL DEFAULT '',
		type                      VARCHAR(32)  NOT NULL DEFAULT 'other',
		repo_type                 VARCHAR(32),
		repo_uri                  VARCHAR(128),
		repo_tag                  VARCHAR(20),
		repo_options              TEXT,
		short_description         TEXT,
		long_description          TEXT,
		license_url               VARCHAR(255),
		documentation_url         VARCHAR(255),
		required_memory           VARCHAR(10),
		process_timeout           INTEGER,
		encryption                SMALLINT NOT NULL DEFAULT 0,
		network                   VARCHAR(16),
		default_bucket            SMALLINT NOT NULL DEFAULT 0,
		default_bucket_stage      VARCHAR(3),
		forward_token             SMALLINT NOT NULL DEFAULT 0,
		forward_token_details     SMALLINT NOT NULL DEFAULT 0,
		inject_environment        SMALLINT NOT NULL DEFAULT 0,
		cpu_shares                INTEGER,
		ui_options                TEXT,
		image_parameters          TEXT,
		test_configuration        TEXT,
		configuration_schema      TEXT,
		configuration_description TEXT,
		configuration_format      VARCHAR(16),
		empty_configuration       TEXT,
		actions                   TEXT,
		fees                      SMALLINT NOT NULL DEFAULT 0,
		limits                    TEXT,
		logger                    VARCHAR(16),
		logger_configuration      TEXT,
		staging_storage_input     VARCHAR(16),
		is_public                 SMALLINT NOT NULL DEFAULT 0,
		is_visible                SMALLINT NOT NULL DEFAULT 1,
		is_deprecated             SMALLINT NOT NULL DEFAULT 0,
		expired_on                TIMESTAMPTZ,
		replacement_app           VARCHAR(128),
		deleted_on                TIMESTAMPTZ,
		icon32                    VARCHAR(255),
		icon64                    VARCHAR(255),
		legacy_uri                VARCHAR(255),
		permissions               TEXT,
		version                   INTEGER NOT NULL,
		created_on                TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		created_by                VARCHAR(128) NOT NULL DEFAULT '',
		PRIMARY KEY (id, version)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_apps_vendor ON apps (vendor)`,
	`CREATE INDEX IF NOT EXISTS idx_app_versions_created_on ON app_versions (created_on)`,
}

// Apply runs all schema statements in order.
func Apply(ctx context.Context, db *sql.DB) error {
	for i, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}
