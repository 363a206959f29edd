package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/roach88/rolodex/internal/contact"
)

// CurrentSchemaVersion is the newest schema this build can create.
const CurrentSchemaVersion = 3

// migration upgrades the schema from version-1 to version.
type migration struct {
	version int
	name    string
	stmts   []string
}

// migrations is the upgrade chain, one entry per version, in order.
var migrations = []migration{
	{
		version: 1,
		name:    "contacts table",
		stmts: []string{
			`CREATE TABLE IF NOT EXISTS contacts (
				id           TEXT PRIMARY KEY,
				published    TEXT NOT NULL,
				updated      TEXT NOT NULL,
				display_name TEXT NOT NULL DEFAULT '',
				family_name  TEXT NOT NULL DEFAULT '',
				given_name   TEXT NOT NULL DEFAULT '',
				properties   TEXT NOT NULL DEFAULT '{}'
			)`,
			`CREATE INDEX IF NOT EXISTS idx_contacts_display_name ON contacts(display_name)`,
			`CREATE INDEX IF NOT EXISTS idx_contacts_family_name ON contacts(family_name)`,
			`CREATE INDEX IF NOT EXISTS idx_contacts_given_name ON contacts(given_name)`,
		},
	},
	{
		version: 2,
		name:    "activities table",
		stmts: []string{
			`CREATE TABLE IF NOT EXISTS activities (
				date    TEXT NOT NULL,
				title   TEXT NOT NULL,
				author  TEXT NOT NULL DEFAULT '',
				payload TEXT NOT NULL DEFAULT '{}',
				PRIMARY KEY (date, title)
			)`,
			`CREATE INDEX IF NOT EXISTS idx_activities_date ON activities(date)`,
		},
	},
	{
		version: 3,
		name:    "timestamps, frecency and provenance",
		stmts: []string{
			`ALTER TABLE contacts ADD COLUMN frecency INTEGER NOT NULL DEFAULT 0`,
			`ALTER TABLE contacts ADD COLUMN source TEXT NOT NULL DEFAULT ''`,
			`ALTER TABLE contacts ADD COLUMN sources TEXT NOT NULL DEFAULT '[]'`,
			`CREATE INDEX IF NOT EXISTS idx_contacts_published ON contacts(published)`,
			`CREATE INDEX IF NOT EXISTS idx_contacts_updated ON contacts(updated)`,
		},
	},
}

// migrationFor returns the step that produces version.
func migrationFor(version int) (migration, bool) {
	for _, m := range migrations {
		if m.version == version {
			return m, true
		}
	}
	return migration{}, false
}

// migrate brings the database to target in one transaction.
//
// A matching version returns immediately. A newer database, or a missing
// step between the current and target version, is NotSupported and leaves
// the file untouched.
func migrate(ctx context.Context, db *sql.DB, target int, logger *slog.Logger) error {
	current, err := userVersion(ctx, db)
	if err != nil {
		return err
	}
	if current == target {
		return nil
	}
	if current > target {
		return contact.Errorf(contact.NotSupported, "migrate",
			"database is at schema version %d, newer than %d", current, target)
	}
	for v := current + 1; v <= target; v++ {
		if _, ok := migrationFor(v); !ok {
			return contact.Errorf(contact.NotSupported, "migrate",
				"no migration from schema version %d to %d", v-1, v)
		}
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("migrate: begin tx: %w", err)
	}
	defer tx.Rollback()

	for v := current + 1; v <= target; v++ {
		m, _ := migrationFor(v)
		for _, stmt := range m.stmts {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("migrate to v%d (%s): %w", v, m.name, err)
			}
		}
		logger.Info("schema migrated", "version", v, "step", m.name)
	}

	if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", target)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("migrate: commit: %w", err)
	}
	return nil
}
