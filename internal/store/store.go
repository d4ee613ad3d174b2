package store

import "encoding/json"

// Store defines the interface for the embedded database.
// Consumers should depend on this interface rather than the concrete *DB type
// to facilitate testing with mocks.
type Store interface {
	Collection(name string) ([]json.RawMessage, error)
	ReplaceCollection(name string, records []json.RawMessage) error
	Setting(key string, out any) (bool, error)
	SetSetting(key string, value any) error
	Close() error
}

// Verify *DB satisfies Store at compile time.
var _ Store = (*DB)(nil)
