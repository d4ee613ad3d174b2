package api

import "github.com/starford/tabula/internal/models"

// CreateBoardRequest is the request body for creating a board.
type CreateBoardRequest struct {
	Name string `json:"name"`
}

// RenameBoardRequest is the request body for renaming a board.
type RenameBoardRequest struct {
	NewName string `json:"new_name"`
}

// DeleteBoardRequest carries the confirmation text that must match the
// board name exactly.
type DeleteBoardRequest struct {
	Confirm string `json:"confirm"`
}

// ReorderBoardsRequest is the request body for reordering boards.
type ReorderBoardsRequest struct {
	Boards []string `json:"boards"`
}

// ActiveBoardRequest selects the viewed board.
type ActiveBoardRequest struct {
	Name string `json:"name"`
}

// CreateNoteRequest is the request body for creating a note on the active board.
type CreateNoteRequest struct {
	Content string   `json:"content"`
	Images  []string `json:"images,omitempty"`
}

// UpdateNoteRequest is the request body for editing a note.
type UpdateNoteRequest struct {
	Content string   `json:"content"`
	Images  []string `json:"images,omitempty"`
}

// MoveNoteRequest is the request body for moving a note to another board.
type MoveNoteRequest struct {
	Board string `json:"board"`
}

// RestoreBoardRequest names the live board that receives a deleted board's notes.
type RestoreBoardRequest struct {
	TargetBoard string `json:"target_board"`
}

// FontSizeRequest is the request body for the font size preference.
type FontSizeRequest struct {
	FontSize int `json:"font_size"`
}

// StateResponse is the full state snapshot returned by GET /state.
type StateResponse struct {
	Boards        []string              `json:"boards"`
	ActiveBoard   string                `json:"active_board"`
	Notes         []models.Note         `json:"notes"`
	DeletedBoards []models.DeletedBoard `json:"deletedBoards"`
	DeletedNotes  []models.Note         `json:"deletedNotes"`
	FontSize      int                   `json:"font_size"`
}

// AttachmentResponse is returned after a successful attachment upload.
type AttachmentResponse struct {
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
	DataURI  string `json:"data_uri"`
}
