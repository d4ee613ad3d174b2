package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// Collection returns all records of a named collection in insertion order.
// A collection that has never been written reads as an empty list.
func (db *DB) Collection(name string) ([]json.RawMessage, error) {
	rows, err := db.conn.Query(`SELECT payload FROM records WHERE collection = ? ORDER BY position`, name)
	if err != nil {
		return nil, fmt.Errorf("store: read collection %s: %w", name, err)
	}
	defer rows.Close()

	var out []json.RawMessage
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		out = append(out, json.RawMessage(payload))
	}
	return out, rows.Err()
}

// ReplaceCollection atomically clears and rewrites all records of a
// collection. On failure the prior contents remain intact.
func (db *DB) ReplaceCollection(name string, records []json.RawMessage) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	if _, err := tx.Exec(`DELETE FROM records WHERE collection = ?`, name); err != nil {
		return fmt.Errorf("store: clear collection %s: %w", name, err)
	}
	if len(records) > 0 {
		stmt, err := tx.Prepare(`INSERT INTO records (collection, position, payload) VALUES (?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("store: prepare record insert: %w", err)
		}
		defer stmt.Close()
		for i, rec := range records {
			if _, err := stmt.Exec(name, i, string(rec)); err != nil {
				return fmt.Errorf("store: insert record %s[%d]: %w", name, i, err)
			}
		}
	}

	return tx.Commit()
}

// Setting reads a scalar setting into out. The second return is false when
// the key has never been set.
func (db *DB) Setting(key string, out any) (bool, error) {
	var value string
	err := db.conn.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("store: read setting %s: %w", key, err)
	}
	if err := json.Unmarshal([]byte(value), out); err != nil {
		return false, fmt.Errorf("store: decode setting %s: %w", key, err)
	}
	return true, nil
}

// SetSetting writes a scalar setting, replacing any previous value.
func (db *DB) SetSetting(key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("store: encode setting %s: %w", key, err)
	}
	_, err = db.conn.Exec(`
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, string(data))
	if err != nil {
		return fmt.Errorf("store: write setting %s: %w", key, err)
	}
	return nil
}
