package sqlite

import (
	"database/sql"
	"fmt"
	"os"

	"github.com/inkpress/inkpress/shared/db"
	_ "modernc.org/sqlite"
)

const defaultPath = "./inkpress.db"

type Config struct {
	Path string
}

// NewConfig resolves the database path from the environment, falling back
// to the default relative path.
func NewConfig() *Config {
	path := os.Getenv("INKPRESS_DB_PATH")
	if path == "" {
		path = defaultPath
	}

	return &Config{Path: path}
}

// SQLiteDB implements db.Database for SQLite.
type SQLiteDB struct {
	dbPath string
	db     *sql.DB
}

var _ db.Database = (*SQLiteDB)(nil)

func NewSQLiteDB(cfg *Config) *SQLiteDB {
	return &SQLiteDB{dbPath: cfg.Path}
}

// Connect opens the database, applies connection pragmas, and runs any
// pending migrations.
func (s *SQLiteDB) Connect() error {
	if s.db != nil {
		return fmt.Errorf("database already connected")
	}

	conn, err := sql.Open("sqlite", s.dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",   // Write-Ahead Logging for better concurrency
		"PRAGMA synchronous=NORMAL", // Balance between safety and performance
		"PRAGMA foreign_keys=ON",    // Enable foreign key constraints
		"PRAGMA busy_timeout=5000",  // Wait up to 5 seconds if database is locked
	}

	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			conn.Close()
			return fmt.Errorf("failed to set pragma %q: %w", pragma, err)
		}
	}

	s.db = conn

	if err := runMigrations(conn); err != nil {
		conn.Close()
		s.db = nil
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

func (s *SQLiteDB) Close() error {
	if s.db == nil {
		return nil
	}

	err := s.db.Close()
	s.db = nil
	return err
}

// DB returns the underlying *sql.DB instance.
func (s *SQLiteDB) DB() *sql.DB {
	return s.db
}
