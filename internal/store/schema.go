// Package store provides the embedded SQLite database holding the four
// record collections and the settings bag.
package store

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Collection names. Each collection is an ordered list of JSON records and
// is always replaced as a whole (no partial patches).
const (
	CollectionBoards        = "boards"
	CollectionNotes         = "notes"
	CollectionDeletedNotes  = "deletedNotes"
	CollectionDeletedBoards = "deletedBoards"
)

// schemaVersion is stamped into PRAGMA user_version. Upgrades must only
// create missing objects; existing rows are never discarded.
const schemaVersion = 1

const schemaSQL = `
CREATE TABLE IF NOT EXISTS records (
	collection TEXT    NOT NULL,
	position   INTEGER NOT NULL,
	payload    TEXT    NOT NULL,
	PRIMARY KEY (collection, position)
);

CREATE TABLE IF NOT EXISTS settings (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

// DB wraps a sql.DB with collection and settings operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
// Schema creation is idempotent: opening a database written by an older
// version creates whatever is missing and stamps the current version.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("store: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	var version int
	if err := conn.QueryRow(`PRAGMA user_version`).Scan(&version); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: read schema version: %w", err)
	}
	if version > schemaVersion {
		conn.Close()
		return nil, fmt.Errorf("store: database schema version %d is newer than supported %d", version, schemaVersion)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: apply schema: %w", err)
	}
	if version < schemaVersion {
		if _, err := conn.Exec(fmt.Sprintf(`PRAGMA user_version = %d`, schemaVersion)); err != nil {
			conn.Close()
			return nil, fmt.Errorf("store: stamp schema version: %w", err)
		}
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
