// Package models defines the domain types for Tabula.
package models

import "time"

// Font size bounds for the display preference.
const (
	MinFontSize     = 10
	MaxFontSize     = 24
	DefaultFontSize = 14
)

// DefaultBoardName seeds the boards list on first run.
const DefaultBoardName = "الرئيسية"

// Note is a user-authored text record owned by exactly one board.
// Board is the owning board's name, not a stable identifier: renaming a
// board cascades to every note referencing the old name.
type Note struct {
	ID        string   `json:"id"`
	Content   string   `json:"content"`
	Board     string   `json:"board"`
	Images    []string `json:"images,omitempty"` // data-URI encoded
	CreatedAt string   `json:"createdAt,omitempty"`
}

// DeletedBoard is a point-in-time capture of a board and all notes it owned
// when it was soft-deleted. Later edits to the live state do not affect it.
type DeletedBoard struct {
	Board string `json:"board"`
	Notes []Note `json:"notes"`
}

// ExportDocument is the portable full-state export format.
type ExportDocument struct {
	Boards        []string       `json:"boards"`
	Notes         []Note         `json:"notes"`
	DeletedBoards []DeletedBoard `json:"deletedBoards"`
	DeletedNotes  []Note         `json:"deletedNotes"`
	ExportDate    string         `json:"exportDate"`
}

// BoardExportDocument is the portable single-board export format.
type BoardExportDocument struct {
	BoardName  string `json:"boardName"`
	Notes      []Note `json:"notes"`
	ExportDate string `json:"exportDate"`
}

// Timestamp formats t the way export documents and note creation dates
// are stored (ISO-8601 / RFC 3339).
func Timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
