// Package boardservice implements the board and note lifecycle rules over a
// session: create, rename, reorder, soft-delete, restore, permanent delete,
// and import/export.
package boardservice

import (
	"fmt"
	"strings"
	"sync"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/tabula/internal/apperr"
	"github.com/starford/tabula/internal/models"
	"github.com/starford/tabula/internal/session"
)

// EventFunc receives change notifications, e.g. ("note.created", noteID).
type EventFunc func(kind, subject string)

// Service applies lifecycle rules to the session state. All mutations are
// serialized through an internal mutex so that read-modify-write cycles on
// the snapshot stay consistent under concurrent API calls.
type Service struct {
	sess   *session.Session
	events EventFunc

	mu          sync.Mutex
	activeBoard string
}

// NewService creates a service over a loaded session. The first board in the
// list becomes the active (viewed) board. events may be nil.
func NewService(sess *session.Session, events EventFunc) *Service {
	s := &Service{sess: sess, events: events}
	if boards := sess.Snapshot().Boards; len(boards) > 0 {
		s.activeBoard = boards[0]
	}
	return s
}

// Snapshot returns the current in-memory state.
func (s *Service) Snapshot() session.Snapshot {
	return s.sess.Snapshot()
}

// ActiveBoard returns the currently viewed board name.
func (s *Service) ActiveBoard() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeBoard
}

// SetActiveBoard switches the viewed board.
func (s *Service) SetActiveBoard(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !contains(s.sess.Snapshot().Boards, name) {
		return fmt.Errorf("board %q: %w", name, apperr.ErrNotFound)
	}
	s.activeBoard = name
	return nil
}

// AddBoard appends a new board to the end of the ordered list.
func (s *Service) AddBoard(name string) error {
	if err := validateBoardName(name); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.sess.Snapshot()
	if contains(snap.Boards, name) {
		return fmt.Errorf("board %q: %w", name, apperr.ErrAlreadyExists)
	}
	s.sess.SetBoards(append(snap.Boards, name))
	s.notify("board.created", name)
	return nil
}

// RenameBoard renames a board and cascades the new name to every active note
// owned by it. Renaming onto a different existing board is rejected: it would
// silently merge two boards' notes.
func (s *Service) RenameBoard(oldName, newName string) error {
	if err := validateBoardName(newName); err != nil {
		return err
	}
	if oldName == newName {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.sess.Snapshot()
	if !contains(snap.Boards, oldName) {
		return fmt.Errorf("board %q: %w", oldName, apperr.ErrNotFound)
	}
	if contains(snap.Boards, newName) {
		return fmt.Errorf("board %q: %w", newName, apperr.ErrAlreadyExists)
	}

	boards := make([]string, len(snap.Boards))
	for i, b := range snap.Boards {
		if b == oldName {
			boards[i] = newName
		} else {
			boards[i] = b
		}
	}
	notes := snap.Notes
	for i := range notes {
		if notes[i].Board == oldName {
			notes[i].Board = newName
		}
	}
	s.sess.SetBoards(boards)
	s.sess.SetNotes(notes)
	if s.activeBoard == oldName {
		s.activeBoard = newName
	}
	s.notify("board.renamed", newName)
	return nil
}

// DeleteBoard soft-deletes a board: its notes are snapshotted into a
// DeletedBoard record and both board and notes leave the active collections.
// confirmation must match the board name exactly, and the last remaining
// board can never be deleted.
func (s *Service) DeleteBoard(name, confirmation string) error {
	if confirmation != name {
		return apperr.ErrConfirmationMismatch
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.sess.Snapshot()
	if !contains(snap.Boards, name) {
		return fmt.Errorf("board %q: %w", name, apperr.ErrNotFound)
	}
	if len(snap.Boards) < 2 {
		return apperr.ErrLastBoard
	}

	var kept []models.Note
	var captured []models.Note
	for _, n := range snap.Notes {
		if n.Board == name {
			captured = append(captured, n)
		} else {
			kept = append(kept, n)
		}
	}
	boards := remove(snap.Boards, name)

	s.sess.SetBoards(boards)
	s.sess.SetNotes(kept)
	s.sess.SetDeletedBoards(append(snap.DeletedBoards, models.DeletedBoard{Board: name, Notes: captured}))

	// The view cannot stay on a board that no longer exists.
	if s.activeBoard == name {
		s.activeBoard = boards[0]
	}
	s.notify("board.deleted", name)
	return nil
}

// ReorderBoards replaces the board order with a caller-supplied permutation.
// The new order must contain exactly the current boards.
func (s *Service) ReorderBoards(newOrder []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.sess.Snapshot()
	if !samePermutation(snap.Boards, newOrder) {
		return fmt.Errorf("reorder must keep the same boards: %w", apperr.ErrInvalid)
	}
	s.sess.SetBoards(append([]string(nil), newOrder...))
	s.notify("boards.reordered", "")
	return nil
}

// FontSize returns the display font size preference.
func (s *Service) FontSize() int {
	return s.sess.Snapshot().FontSize
}

// SetFontSize updates the display font size preference.
func (s *Service) SetFontSize(size int) error {
	if err := validation.Validate(size,
		validation.Min(models.MinFontSize),
		validation.Max(models.MaxFontSize),
	); err != nil {
		return fmt.Errorf("font size: %v: %w", err, apperr.ErrInvalid)
	}
	s.sess.SetFontSize(size)
	return nil
}

func (s *Service) notify(kind, subject string) {
	if s.events != nil {
		s.events(kind, subject)
	}
}

func validateBoardName(name string) error {
	err := validation.Validate(name,
		validation.Required,
		validation.By(func(any) error {
			if strings.TrimSpace(name) == "" {
				return fmt.Errorf("must not be blank")
			}
			return nil
		}),
	)
	if err != nil {
		return fmt.Errorf("board name: %v: %w", err, apperr.ErrInvalid)
	}
	return nil
}

func contains(boards []string, name string) bool {
	for _, b := range boards {
		if b == name {
			return true
		}
	}
	return false
}

func remove(boards []string, name string) []string {
	out := make([]string, 0, len(boards))
	for _, b := range boards {
		if b != name {
			out = append(out, b)
		}
	}
	return out
}

func samePermutation(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	counts := make(map[string]int, len(a))
	for _, s := range a {
		counts[s]++
	}
	for _, s := range b {
		counts[s]--
		if counts[s] < 0 {
			return false
		}
	}
	return true
}
