package sqlite

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// DB wraps a SQLite database connection
type DB struct {
	*sql.DB
}

// New creates a new SQLite database connection
func New(dataSourceName string) (*DB, error) {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite allows a single writer; one pooled connection keeps the
	// transactional lock and migration batches free of SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	return &DB{db}, nil
}

// RunMigrations creates the schema.
func (db *DB) RunMigrations() error {
	schema := `
-- Project-level scenario documents
CREATE TABLE IF NOT EXISTS scenarios (
    project_id TEXT PRIMARY KEY,
    participants TEXT NOT NULL DEFAULT '[]',
    participants_in_subcollection INTEGER NOT NULL DEFAULT 0,
    project_params TEXT NOT NULL DEFAULT '{}',
    deed_date TEXT NOT NULL DEFAULT '',
    formula_params TEXT NOT NULL DEFAULT '{}',
    version INTEGER NOT NULL DEFAULT 0,
    last_modified_by TEXT NOT NULL DEFAULT '',
    last_modified_at TIMESTAMP
);

-- Standalone participant records (post-migration layout)
CREATE TABLE IF NOT EXISTS participants (
    project_id TEXT NOT NULL,
    display_order INTEGER NOT NULL,
    doc TEXT NOT NULL,
    version INTEGER NOT NULL,
    last_modified_by TEXT NOT NULL,
    last_modified_at TIMESTAMP NOT NULL,
    PRIMARY KEY (project_id, display_order),
    FOREIGN KEY (project_id) REFERENCES scenarios(project_id)
);

-- One edit lock per project
CREATE TABLE IF NOT EXISTS edit_locks (
    project_id TEXT PRIMARY KEY,
    owner_identity TEXT NOT NULL,
    session_id TEXT NOT NULL,
    acquired_at TIMESTAMP NOT NULL,
    expires_at TIMESTAMP NOT NULL,
    last_heartbeat TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_lock_expiry ON edit_locks(expires_at);

-- Liveness heartbeats, one row per active session
CREATE TABLE IF NOT EXISTS presence (
    project_id TEXT NOT NULL,
    session_id TEXT NOT NULL,
    identity TEXT NOT NULL,
    last_seen TIMESTAMP NOT NULL,
    PRIMARY KEY (project_id, session_id)
);
CREATE INDEX IF NOT EXISTS idx_presence_project ON presence(project_id);
`

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}
