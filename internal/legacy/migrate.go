// Package legacy imports state left behind by the old flat key/value store.
//
// The old mechanism persisted five keys as JSON files in a single directory:
// boards, notes, deletedNotes, deletedBoards and fontSize. Migration runs at
// most once per installation: a "migrated" flag in the embedded store guards
// it, and the legacy files are erased after a successful import.
package legacy

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/starford/tabula/internal/models"
	"github.com/starford/tabula/internal/store"
)

// Keys of the legacy flat store, one file per key.
var legacyKeys = []string{"boards", "notes", "deletedNotes", "deletedBoards", "fontSize"}

// Migrate moves any pre-existing legacy state from dir into st and marks
// migration complete. It reports whether a migration was performed. Failures
// are logged and reported as false; they never block initialization — the
// embedded store becomes the source of truth regardless.
func Migrate(st store.Store, dir string, logger *slog.Logger) bool {
	var migrated bool
	if _, err := st.Setting("migrated", &migrated); err != nil {
		logger.Warn("legacy: read migrated flag failed", slog.String("error", err.Error()))
		return false
	}
	if migrated {
		return false
	}

	if err := importAll(st, dir); err != nil {
		logger.Warn("legacy: migration failed", slog.String("error", err.Error()))
		return false
	}

	if err := st.SetSetting("migrated", true); err != nil {
		logger.Warn("legacy: mark migrated failed", slog.String("error", err.Error()))
		return false
	}

	// Erase legacy keys only after everything is safely in the store.
	for _, key := range legacyKeys {
		if err := os.Remove(filepath.Join(dir, key)); err != nil && !os.IsNotExist(err) {
			logger.Warn("legacy: remove key failed", slog.String("key", key), slog.String("error", err.Error()))
		}
	}

	logger.Info("legacy: migration complete", slog.String("dir", dir))
	return true
}

// importAll copies every present legacy key into the store. Absent keys are
// skipped; a present but unreadable key aborts the migration.
func importAll(st store.Store, dir string) error {
	var boards []string
	if ok, err := readKey(dir, "boards", &boards); err != nil {
		return err
	} else if ok {
		if err := writeCollection(st, store.CollectionBoards, boards); err != nil {
			return err
		}
	}

	var notes []models.Note
	if ok, err := readKey(dir, "notes", &notes); err != nil {
		return err
	} else if ok {
		if err := writeCollection(st, store.CollectionNotes, notes); err != nil {
			return err
		}
	}

	var deletedNotes []models.Note
	if ok, err := readKey(dir, "deletedNotes", &deletedNotes); err != nil {
		return err
	} else if ok {
		if err := writeCollection(st, store.CollectionDeletedNotes, deletedNotes); err != nil {
			return err
		}
	}

	var deletedBoards []models.DeletedBoard
	if ok, err := readKey(dir, "deletedBoards", &deletedBoards); err != nil {
		return err
	} else if ok {
		if err := writeCollection(st, store.CollectionDeletedBoards, deletedBoards); err != nil {
			return err
		}
	}

	var fontSize int
	if ok, err := readKey(dir, "fontSize", &fontSize); err != nil {
		return err
	} else if ok {
		if err := st.SetSetting("fontSize", fontSize); err != nil {
			return err
		}
	}

	return nil
}

// readKey reads and decodes one legacy key file. The first return is false
// when the file does not exist.
func readKey(dir, key string, out any) (bool, error) {
	data, err := os.ReadFile(filepath.Join(dir, key))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, err
	}
	return true, nil
}

// writeCollection marshals each item as one record of the named collection.
func writeCollection[T any](st store.Store, name string, items []T) error {
	records := make([]json.RawMessage, len(items))
	for i, item := range items {
		data, err := json.Marshal(item)
		if err != nil {
			return err
		}
		records[i] = data
	}
	return st.ReplaceCollection(name, records)
}
