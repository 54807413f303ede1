package sqlite

import (
	"database/sql"
	"fmt"
)

// migration represents a single database migration
type migration struct {
	version int
	name    string
	up      string
}

// migrations is the ordered list of all database migrations.
// Each migration should be idempotent and safe to run multiple times.
var migrations = []migration{
	{
		version: 1,
		name:    "create_posts_table",
		up: `
			CREATE TABLE IF NOT EXISTS posts (
				id TEXT PRIMARY KEY,
				title TEXT NOT NULL,
				excerpt TEXT NOT NULL,
				content TEXT NOT NULL,
				featured_image TEXT,
				author_id TEXT NOT NULL,
				created_at TIMESTAMP NOT NULL,
				updated_at TIMESTAMP NOT NULL,
				published INTEGER NOT NULL DEFAULT 0,
				slug TEXT NOT NULL UNIQUE
			);

			CREATE INDEX IF NOT EXISTS idx_posts_published_created
			ON posts(published, created_at DESC);

			CREATE INDEX IF NOT EXISTS idx_posts_author
			ON posts(author_id);
		`,
	},
	{
		version: 2,
		name:    "create_profiles_table",
		up: `
			CREATE TABLE IF NOT EXISTS profiles (
				id TEXT PRIMARY KEY,
				username TEXT NOT NULL UNIQUE,
				full_name TEXT NOT NULL DEFAULT '',
				avatar_url TEXT NOT NULL DEFAULT '',
				website TEXT NOT NULL DEFAULT '',
				bio TEXT NOT NULL DEFAULT '',
				created_at TIMESTAMP NOT NULL
			);
		`,
	},
}

// runMigrations executes all pending migrations
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create schema_migrations table: %w", err)
	}

	currentVersion := 0
	err = db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get current schema version: %w", err)
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue // Already applied
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("failed to begin transaction for migration %d: %w", m.version, err)
		}

		_, err = tx.Exec(m.up)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to execute migration %d (%s): %w", m.version, m.name, err)
		}

		_, err = tx.Exec(
			"INSERT INTO schema_migrations (version, name) VALUES (?, ?)",
			m.version,
			m.name,
		)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", m.version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", m.version, err)
		}
	}

	return nil
}
