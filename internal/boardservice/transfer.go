package boardservice

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/starford/tabula/internal/apperr"
	"github.com/starford/tabula/internal/models"
)

// ExportAll serializes the full state into the portable document format.
func (s *Service) ExportAll() models.ExportDocument {
	snap := s.sess.Snapshot()
	return models.ExportDocument{
		Boards:        snap.Boards,
		Notes:         snap.Notes,
		DeletedBoards: snap.DeletedBoards,
		DeletedNotes:  snap.DeletedNotes,
		ExportDate:    models.Timestamp(time.Now()),
	}
}

// ExportBoard serializes one active board's notes.
func (s *Service) ExportBoard(name string) (models.BoardExportDocument, error) {
	snap := s.sess.Snapshot()
	if !contains(snap.Boards, name) {
		return models.BoardExportDocument{}, fmt.Errorf("board %q: %w", name, apperr.ErrNotFound)
	}
	var notes []models.Note
	for _, n := range snap.Notes {
		if n.Board == name {
			notes = append(notes, n)
		}
	}
	return models.BoardExportDocument{
		BoardName:  name,
		Notes:      notes,
		ExportDate: models.Timestamp(time.Now()),
	}, nil
}

// ImportAll replaces the live state with the document's. boards and notes are
// required; the deleted collections are replaced only when present. Malformed
// documents are rejected wholesale with no state change. Imported notes may
// reference boards missing from the list; that inconsistency is tolerated.
func (s *Service) ImportAll(data []byte) error {
	var doc struct {
		Boards        *[]string              `json:"boards"`
		Notes         *[]models.Note         `json:"notes"`
		DeletedBoards *[]models.DeletedBoard `json:"deletedBoards"`
		DeletedNotes  *[]models.Note         `json:"deletedNotes"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrBadDocument, err)
	}
	if doc.Boards == nil || doc.Notes == nil {
		return fmt.Errorf("%w: boards and notes are required", apperr.ErrBadDocument)
	}
	if len(*doc.Boards) == 0 {
		return fmt.Errorf("%w: boards must not be empty", apperr.ErrBadDocument)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.sess.SetBoards(*doc.Boards)
	s.sess.SetNotes(*doc.Notes)
	if doc.DeletedBoards != nil {
		s.sess.SetDeletedBoards(*doc.DeletedBoards)
	}
	if doc.DeletedNotes != nil {
		s.sess.SetDeletedNotes(*doc.DeletedNotes)
	}
	s.activeBoard = (*doc.Boards)[0]
	s.notify("state.imported", "")
	return nil
}

// ImportBoard imports a single-board document as a new board. A name clash
// with an existing board is resolved by appending the smallest free " (N)"
// suffix; every imported note gets a freshly generated id and is rewritten
// onto the new board, which becomes the active board.
func (s *Service) ImportBoard(data []byte) (string, error) {
	var doc struct {
		BoardName *string        `json:"boardName"`
		Notes     *[]models.Note `json:"notes"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return "", fmt.Errorf("%w: %v", apperr.ErrBadDocument, err)
	}
	if doc.BoardName == nil || *doc.BoardName == "" || doc.Notes == nil {
		return "", fmt.Errorf("%w: boardName and notes are required", apperr.ErrBadDocument)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.sess.Snapshot()
	name := disambiguate(*doc.BoardName, snap.Boards)

	imported := make([]models.Note, len(*doc.Notes))
	for i, n := range *doc.Notes {
		n.ID = uuid.NewString()
		n.Board = name
		imported[i] = n
	}

	s.sess.SetBoards(append(snap.Boards, name))
	s.sess.SetNotes(append(snap.Notes, imported...))
	s.activeBoard = name
	s.notify("board.imported", name)
	return name, nil
}

// disambiguate returns name, or name with the smallest " (N)" suffix (N >= 1)
// not already taken by an existing board.
func disambiguate(name string, boards []string) string {
	if !contains(boards, name) {
		return name
	}
	for n := 1; ; n++ {
		candidate := fmt.Sprintf("%s (%d)", name, n)
		if !contains(boards, candidate) {
			return candidate
		}
	}
}
