package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schema is applied on startup. Statements are idempotent; there is no
// version ladder here since the Postgres deployment is expected to be
// managed, unlike the embedded SQLite file.
const schema = `
	CREATE TABLE IF NOT EXISTS posts (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		excerpt TEXT NOT NULL,
		content TEXT NOT NULL,
		featured_image TEXT,
		author_id TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL,
		published BOOLEAN NOT NULL DEFAULT FALSE,
		slug TEXT NOT NULL UNIQUE
	);

	CREATE INDEX IF NOT EXISTS idx_posts_published_created
	ON posts (published, created_at DESC);

	CREATE INDEX IF NOT EXISTS idx_posts_author
	ON posts (author_id);

	CREATE TABLE IF NOT EXISTS profiles (
		id TEXT PRIMARY KEY,
		username TEXT NOT NULL UNIQUE,
		full_name TEXT NOT NULL DEFAULT '',
		avatar_url TEXT NOT NULL DEFAULT '',
		website TEXT NOT NULL DEFAULT '',
		bio TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL
	);
`

// EnsureSchema creates the tables and indexes if they do not exist.
func EnsureSchema(ctx context.Context, db *pgxpool.Pool) error {
	if _, err := db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}
