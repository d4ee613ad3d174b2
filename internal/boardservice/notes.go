package boardservice

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/starford/tabula/internal/apperr"
	"github.com/starford/tabula/internal/models"
)

// AddNote creates a note on the active board and prepends it to the notes
// list so it shows first.
func (s *Service) AddNote(content string, images []string) (models.Note, error) {
	if strings.TrimSpace(content) == "" && len(images) == 0 {
		return models.Note{}, fmt.Errorf("note content: must not be blank: %w", apperr.ErrInvalid)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	note := models.Note{
		ID:        uuid.NewString(),
		Content:   content,
		Board:     s.activeBoard,
		Images:    images,
		CreatedAt: models.Timestamp(time.Now()),
	}
	snap := s.sess.Snapshot()
	s.sess.SetNotes(append([]models.Note{note}, snap.Notes...))
	s.notify("note.created", note.ID)
	return note, nil
}

// UpdateNote replaces a note's content and images. ID, board and creation
// date are immutable.
func (s *Service) UpdateNote(id, content string, images []string) (models.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.sess.Snapshot()
	notes := snap.Notes
	for i := range notes {
		if notes[i].ID == id {
			notes[i].Content = content
			notes[i].Images = images
			s.sess.SetNotes(notes)
			s.notify("note.updated", id)
			return notes[i], nil
		}
	}
	return models.Note{}, fmt.Errorf("note %q: %w", id, apperr.ErrNotFound)
}

// MoveNote rewrites a note's owning board in place; its position in the
// notes list does not change.
func (s *Service) MoveNote(id, targetBoard string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.sess.Snapshot()
	if !contains(snap.Boards, targetBoard) {
		return fmt.Errorf("board %q: %w", targetBoard, apperr.ErrNotFound)
	}
	notes := snap.Notes
	for i := range notes {
		if notes[i].ID == id {
			notes[i].Board = targetBoard
			s.sess.SetNotes(notes)
			s.notify("note.moved", id)
			return nil
		}
	}
	return fmt.Errorf("note %q: %w", id, apperr.ErrNotFound)
}

// DeleteNote soft-deletes a note: it moves by value from the active to the
// deleted collection, keeping all fields.
func (s *Service) DeleteNote(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.sess.Snapshot()
	for i, n := range snap.Notes {
		if n.ID == id {
			s.sess.SetNotes(append(snap.Notes[:i:i], snap.Notes[i+1:]...))
			s.sess.SetDeletedNotes(append(snap.DeletedNotes, n))
			s.notify("note.deleted", id)
			return nil
		}
	}
	return fmt.Errorf("note %q: %w", id, apperr.ErrNotFound)
}

// RestoreNote moves a note back from the deleted collection. If its board no
// longer exists, it lands on the first active board.
func (s *Service) RestoreNote(id string) (models.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.sess.Snapshot()
	for i, n := range snap.DeletedNotes {
		if n.ID == id {
			if !contains(snap.Boards, n.Board) {
				n.Board = snap.Boards[0]
			}
			s.sess.SetDeletedNotes(append(snap.DeletedNotes[:i:i], snap.DeletedNotes[i+1:]...))
			s.sess.SetNotes(append(snap.Notes, n))
			s.notify("note.restored", id)
			return n, nil
		}
	}
	return models.Note{}, fmt.Errorf("deleted note %q: %w", id, apperr.ErrNotFound)
}

// PurgeNote permanently erases a note from the deleted collection. There is
// no recovery path; confirmation is the caller's concern.
func (s *Service) PurgeNote(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.sess.Snapshot()
	for i, n := range snap.DeletedNotes {
		if n.ID == id {
			s.sess.SetDeletedNotes(append(snap.DeletedNotes[:i:i], snap.DeletedNotes[i+1:]...))
			s.notify("note.purged", id)
			return nil
		}
	}
	return fmt.Errorf("deleted note %q: %w", id, apperr.ErrNotFound)
}

// RestoreBoard re-activates the notes captured in a DeletedBoard snapshot,
// rewriting each onto targetBoard. The original board is not recreated, and
// the snapshot entry is removed.
func (s *Service) RestoreBoard(deletedBoardName, targetBoard string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.sess.Snapshot()
	if !contains(snap.Boards, targetBoard) {
		return fmt.Errorf("board %q: %w", targetBoard, apperr.ErrNotFound)
	}
	for i, db := range snap.DeletedBoards {
		if db.Board == deletedBoardName {
			notes := snap.Notes
			for _, n := range db.Notes {
				n.Board = targetBoard
				notes = append(notes, n)
			}
			s.sess.SetNotes(notes)
			s.sess.SetDeletedBoards(append(snap.DeletedBoards[:i:i], snap.DeletedBoards[i+1:]...))
			s.notify("board.restored", deletedBoardName)
			return nil
		}
	}
	return fmt.Errorf("deleted board %q: %w", deletedBoardName, apperr.ErrNotFound)
}

// PurgeBoard permanently erases a DeletedBoard snapshot and every note
// inside it.
func (s *Service) PurgeBoard(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.sess.Snapshot()
	for i, db := range snap.DeletedBoards {
		if db.Board == name {
			s.sess.SetDeletedBoards(append(snap.DeletedBoards[:i:i], snap.DeletedBoards[i+1:]...))
			s.notify("board.purged", name)
			return nil
		}
	}
	return fmt.Errorf("deleted board %q: %w", name, apperr.ErrNotFound)
}
