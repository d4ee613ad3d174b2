// Package session bridges the in-memory application state and the embedded
// store.
//
// Every setter updates the in-memory snapshot synchronously and hands the
// persistence write to a per-collection writer goroutine. Writes to one
// collection are therefore serialized in setter order, and a burst of rapid
// mutations coalesces to a single write of the latest snapshot. Persistence
// failures are logged, never surfaced: the in-memory state stays
// authoritative for the session.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/starford/tabula/internal/models"
	"github.com/starford/tabula/internal/store"
)

// Snapshot is the full in-memory state mirrored from the store.
type Snapshot struct {
	Boards        []string
	Notes         []models.Note
	DeletedBoards []models.DeletedBoard
	DeletedNotes  []models.Note
	FontSize      int
}

// Session owns the snapshot and its persistence writers.
type Session struct {
	st     store.Store
	logger *slog.Logger

	mu     sync.RWMutex
	snap   Snapshot
	loaded bool
	closed bool

	writers map[string]*mailbox
	wg      sync.WaitGroup
}

// New creates a session over st and starts one writer per collection.
// Call Load before reading the snapshot and Close on shutdown.
func New(st store.Store, logger *slog.Logger) *Session {
	s := &Session{
		st:      st,
		logger:  logger,
		writers: make(map[string]*mailbox),
		snap: Snapshot{
			Boards:   []string{models.DefaultBoardName},
			FontSize: models.DefaultFontSize,
		},
	}
	for _, name := range []string{
		store.CollectionBoards,
		store.CollectionNotes,
		store.CollectionDeletedBoards,
		store.CollectionDeletedNotes,
		settingFontSize,
	} {
		mb := newMailbox()
		s.writers[name] = mb
		s.wg.Add(1)
		go s.runWriter(mb)
	}
	return s
}

const settingFontSize = "fontSize"

// Load fetches the four collections and the font size concurrently and
// installs them as the initial snapshot. Until Load returns, Loading
// reports true.
func (s *Session) Load(ctx context.Context) error {
	var next Snapshot

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		boards, err := decodeCollection[string](s.st, store.CollectionBoards)
		if err != nil {
			return err
		}
		if len(boards) == 0 {
			boards = []string{models.DefaultBoardName}
		}
		next.Boards = boards
		return nil
	})
	g.Go(func() error {
		notes, err := decodeCollection[models.Note](s.st, store.CollectionNotes)
		if err != nil {
			return err
		}
		next.Notes = notes
		return nil
	})
	g.Go(func() error {
		boards, err := decodeCollection[models.DeletedBoard](s.st, store.CollectionDeletedBoards)
		if err != nil {
			return err
		}
		next.DeletedBoards = boards
		return nil
	})
	g.Go(func() error {
		notes, err := decodeCollection[models.Note](s.st, store.CollectionDeletedNotes)
		if err != nil {
			return err
		}
		next.DeletedNotes = notes
		return nil
	})
	g.Go(func() error {
		fontSize := models.DefaultFontSize
		if _, err := s.st.Setting(settingFontSize, &fontSize); err != nil {
			return err
		}
		next.FontSize = fontSize
		return nil
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("session: load: %w", err)
	}

	s.mu.Lock()
	s.snap = next
	s.loaded = true
	s.mu.Unlock()
	return nil
}

// Loading reports whether the initial load has not yet completed.
func (s *Session) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return !s.loaded
}

// Snapshot returns a copy of the current in-memory state. The contained
// slices are fresh; callers may not mutate shared note values through them.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Boards:        append([]string(nil), s.snap.Boards...),
		Notes:         append([]models.Note(nil), s.snap.Notes...),
		DeletedBoards: append([]models.DeletedBoard(nil), s.snap.DeletedBoards...),
		DeletedNotes:  append([]models.Note(nil), s.snap.DeletedNotes...),
		FontSize:      s.snap.FontSize,
	}
}

// SetBoards replaces the active boards list.
func (s *Session) SetBoards(boards []string) {
	s.mu.Lock()
	s.snap.Boards = boards
	s.mu.Unlock()
	s.persistCollection(store.CollectionBoards, boards)
}

// SetNotes replaces the active notes collection.
func (s *Session) SetNotes(notes []models.Note) {
	s.mu.Lock()
	s.snap.Notes = notes
	s.mu.Unlock()
	s.persistCollection(store.CollectionNotes, notes)
}

// SetDeletedBoards replaces the soft-deleted boards collection.
func (s *Session) SetDeletedBoards(boards []models.DeletedBoard) {
	s.mu.Lock()
	s.snap.DeletedBoards = boards
	s.mu.Unlock()
	s.persistCollection(store.CollectionDeletedBoards, boards)
}

// SetDeletedNotes replaces the soft-deleted notes collection.
func (s *Session) SetDeletedNotes(notes []models.Note) {
	s.mu.Lock()
	s.snap.DeletedNotes = notes
	s.mu.Unlock()
	s.persistCollection(store.CollectionDeletedNotes, notes)
}

// SetFontSize replaces the display font size preference.
func (s *Session) SetFontSize(fontSize int) {
	s.mu.Lock()
	s.snap.FontSize = fontSize
	s.mu.Unlock()
	s.enqueue(settingFontSize, func() {
		if err := s.st.SetSetting(settingFontSize, fontSize); err != nil {
			s.logger.Warn("session: persist setting failed",
				slog.String("setting", settingFontSize),
				slog.String("error", err.Error()))
		}
	})
}

// Close stops the writers after draining any pending writes.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	for _, mb := range s.writers {
		mb.close()
	}
	s.wg.Wait()
}

func (s *Session) persistCollection(name string, items any) {
	s.enqueue(name, func() {
		records, err := encodeRecords(items)
		if err != nil {
			s.logger.Warn("session: encode collection failed",
				slog.String("collection", name),
				slog.String("error", err.Error()))
			return
		}
		if err := s.st.ReplaceCollection(name, records); err != nil {
			s.logger.Warn("session: persist collection failed",
				slog.String("collection", name),
				slog.String("error", err.Error()))
		}
	})
}

func (s *Session) enqueue(name string, job func()) {
	s.mu.RLock()
	closed := s.closed
	s.mu.RUnlock()
	if closed {
		// Shutdown already in progress; apply the write inline so the
		// final state still reaches the store.
		job()
		return
	}
	s.writers[name].put(job)
}

func (s *Session) runWriter(mb *mailbox) {
	defer s.wg.Done()
	for job := range mb.jobs {
		job()
	}
}

func decodeCollection[T any](st store.Store, name string) ([]T, error) {
	records, err := st.Collection(name)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(records))
	for _, rec := range records {
		var item T
		if err := json.Unmarshal(rec, &item); err != nil {
			return nil, fmt.Errorf("decode %s record: %w", name, err)
		}
		out = append(out, item)
	}
	return out, nil
}

func encodeRecords(items any) ([]json.RawMessage, error) {
	switch v := items.(type) {
	case []string:
		return marshalEach(v)
	case []models.Note:
		return marshalEach(v)
	case []models.DeletedBoard:
		return marshalEach(v)
	default:
		return nil, fmt.Errorf("unsupported collection type %T", items)
	}
}

func marshalEach[T any](items []T) ([]json.RawMessage, error) {
	records := make([]json.RawMessage, len(items))
	for i, item := range items {
		data, err := json.Marshal(item)
		if err != nil {
			return nil, err
		}
		records[i] = data
	}
	return records, nil
}
