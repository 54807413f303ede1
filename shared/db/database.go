package db

import (
	"database/sql"
)

// Database abstracts the lifecycle of a SQL connection so the CLI can open
// whichever driver the config selects.
type Database interface {
	Connect() error
	Close() error
	DB() *sql.DB
}
