package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/starford/tabula/internal/apperr"
	"github.com/starford/tabula/internal/boardservice"
	"github.com/starford/tabula/internal/models"
)

const maxBodyBytes = 10 << 20 // notes may embed data-URI images

// Handler holds API route handlers.
type Handler struct {
	svc *boardservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *boardservice.Service) *Handler {
	return &Handler{svc: svc}
}

// boardName extracts and decodes the {board} URL parameter; board names are
// arbitrary user strings and arrive percent-encoded.
func boardName(r *http.Request) string {
	raw := chi.URLParam(r, "board")
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// writeError maps service errors onto HTTP statuses. Validation problems are
// the user's to correct (400/409); anything unrecognized is logged as internal.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody(err.Error()))
	case errors.Is(err, apperr.ErrAlreadyExists), errors.Is(err, apperr.ErrLastBoard):
		writeJSON(w, http.StatusConflict, errorBody(err.Error()))
	case errors.Is(err, apperr.ErrInvalid),
		errors.Is(err, apperr.ErrConfirmationMismatch),
		errors.Is(err, apperr.ErrBadDocument):
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
	default:
		slog.Error("request failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return false
	}
	return true
}

// State handles GET /state.
func (h *Handler) State(w http.ResponseWriter, _ *http.Request) {
	snap := h.svc.Snapshot()
	writeJSON(w, http.StatusOK, StateResponse{
		Boards:        snap.Boards,
		ActiveBoard:   h.svc.ActiveBoard(),
		Notes:         snap.Notes,
		DeletedBoards: snap.DeletedBoards,
		DeletedNotes:  snap.DeletedNotes,
		FontSize:      snap.FontSize,
	})
}

// ListBoards handles GET /boards.
func (h *Handler) ListBoards(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"boards": h.svc.Snapshot().Boards,
		"active": h.svc.ActiveBoard(),
	})
}

// CreateBoard handles POST /boards.
func (h *Handler) CreateBoard(w http.ResponseWriter, r *http.Request) {
	var req CreateBoardRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := h.svc.AddBoard(req.Name); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

// RenameBoard handles PUT /boards/{board}.
func (h *Handler) RenameBoard(w http.ResponseWriter, r *http.Request) {
	var req RenameBoardRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := h.svc.RenameBoard(boardName(r), req.NewName); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteBoard handles DELETE /boards/{board}. The body must repeat the board
// name as confirmation.
func (h *Handler) DeleteBoard(w http.ResponseWriter, r *http.Request) {
	var req DeleteBoardRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := h.svc.DeleteBoard(boardName(r), req.Confirm); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ReorderBoards handles PUT /boards/order.
func (h *Handler) ReorderBoards(w http.ResponseWriter, r *http.Request) {
	var req ReorderBoardsRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := h.svc.ReorderBoards(req.Boards); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetActiveBoard handles PUT /boards/active.
func (h *Handler) SetActiveBoard(w http.ResponseWriter, r *http.Request) {
	var req ActiveBoardRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := h.svc.SetActiveBoard(req.Name); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListNotes handles GET /notes with an optional board filter.
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	board := r.URL.Query().Get("board")
	notes := h.svc.Snapshot().Notes
	if board != "" {
		filtered := make([]models.Note, 0, len(notes))
		for _, n := range notes {
			if n.Board == board {
				filtered = append(filtered, n)
			}
		}
		notes = filtered
	}
	writeJSON(w, http.StatusOK, map[string]any{"notes": notes})
}

// CreateNote handles POST /notes; the note lands on the active board.
func (h *Handler) CreateNote(w http.ResponseWriter, r *http.Request) {
	var req CreateNoteRequest
	if !decodeBody(w, r, &req) {
		return
	}
	note, err := h.svc.AddNote(req.Content, req.Images)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, note)
}

// UpdateNote handles PUT /notes/{id}.
func (h *Handler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	var req UpdateNoteRequest
	if !decodeBody(w, r, &req) {
		return
	}
	note, err := h.svc.UpdateNote(chi.URLParam(r, "id"), req.Content, req.Images)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// MoveNote handles POST /notes/{id}/move.
func (h *Handler) MoveNote(w http.ResponseWriter, r *http.Request) {
	var req MoveNoteRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := h.svc.MoveNote(chi.URLParam(r, "id"), req.Board); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteNote handles DELETE /notes/{id} (soft delete).
func (h *Handler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteNote(chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListTrash handles GET /trash.
func (h *Handler) ListTrash(w http.ResponseWriter, _ *http.Request) {
	snap := h.svc.Snapshot()
	writeJSON(w, http.StatusOK, map[string]any{
		"deletedNotes":  snap.DeletedNotes,
		"deletedBoards": snap.DeletedBoards,
	})
}

// RestoreNote handles POST /trash/notes/{id}/restore.
func (h *Handler) RestoreNote(w http.ResponseWriter, r *http.Request) {
	note, err := h.svc.RestoreNote(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// PurgeNote handles DELETE /trash/notes/{id} (permanent, no recovery).
func (h *Handler) PurgeNote(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.PurgeNote(chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RestoreBoard handles POST /trash/boards/{board}/restore.
func (h *Handler) RestoreBoard(w http.ResponseWriter, r *http.Request) {
	var req RestoreBoardRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := h.svc.RestoreBoard(boardName(r), req.TargetBoard); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PurgeBoard handles DELETE /trash/boards/{board} (permanent, no recovery).
func (h *Handler) PurgeBoard(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.PurgeBoard(boardName(r)); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetFontSize handles GET /settings/fontsize.
func (h *Handler) GetFontSize(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, FontSizeRequest{FontSize: h.svc.FontSize()})
}

// SetFontSize handles PUT /settings/fontsize.
func (h *Handler) SetFontSize(w http.ResponseWriter, r *http.Request) {
	var req FontSizeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := h.svc.SetFontSize(req.FontSize); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ExportAll handles GET /export.
func (h *Handler) ExportAll(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.ExportAll())
}

// ExportBoard handles GET /export/boards/{board}.
func (h *Handler) ExportBoard(w http.ResponseWriter, r *http.Request) {
	doc, err := h.svc.ExportBoard(boardName(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// ImportAll handles POST /import: a full-state document replaces the live state.
func (h *Handler) ImportAll(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	data, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("failed to read body"))
		return
	}
	if err := h.svc.ImportAll(data); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ImportBoard handles POST /import/board: a single-board document is added
// as a new (possibly renamed) board.
func (h *Handler) ImportBoard(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	data, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("failed to read body"))
		return
	}
	name, err := h.svc.ImportBoard(data)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"board": name})
}
