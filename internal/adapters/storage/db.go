package storage

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Supported driver names.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// SQLitePragmas is appended to file-backed SQLite DSNs that carry no query string.
const SQLitePragmas = "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"

// Open opens the record store for the given driver.
// PRE: driver is DriverSQLite or DriverPostgres; dsn is non-empty
// POST: Returns an open (not yet pinged) pool
func Open(driver, dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("empty dsn for driver %q", driver)
	}
	switch driver {
	case DriverSQLite:
		if dsn != ":memory:" && !strings.Contains(dsn, "?") {
			dsn += SQLitePragmas
		}
	case DriverPostgres:
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	return db, nil
}

// InitDB creates the local development schema.
// The hosted record store owns its own schema; this is SQLite only.
// PRE: db is a valid SQLite connection
// POST: shots and attendance tables exist with their read indexes
func InitDB(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS shots (
		id TEXT PRIMARY KEY,
		client_name TEXT NOT NULL,
		project_name TEXT NOT NULL,
		shot_name TEXT NOT NULL,
		status TEXT NOT NULL,
		workload INTEGER NOT NULL DEFAULT 0,
		eta_date TEXT,
		assigned_to TEXT NOT NULL DEFAULT '',
		estimated_id TEXT NOT NULL DEFAULT '',
		package_id TEXT NOT NULL DEFAULT '',
		in_date TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_shots_created_at ON shots(created_at);

	CREATE TABLE IF NOT EXISTS attendance (
		id TEXT PRIMARY KEY,
		team_member_name TEXT NOT NULL,
		date TEXT NOT NULL,
		status TEXT NOT NULL,
		check_in_time TEXT,
		check_out_time TEXT,
		notes TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_attendance_date_member ON attendance(date, team_member_name);
	`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}
