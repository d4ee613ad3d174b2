package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/tabula/internal/boardservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *boardservice.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)
	ah := NewAttachmentHandler()

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Full snapshot.
	r.Get("/state", h.State)

	// Boards.
	r.Get("/boards", h.ListBoards)
	r.Post("/boards", h.CreateBoard)
	r.Put("/boards/order", h.ReorderBoards)
	r.Put("/boards/active", h.SetActiveBoard)
	r.Put("/boards/{board}", h.RenameBoard)
	r.Delete("/boards/{board}", h.DeleteBoard)

	// Notes.
	r.Get("/notes", h.ListNotes)
	r.Post("/notes", h.CreateNote)
	r.Put("/notes/{id}", h.UpdateNote)
	r.Delete("/notes/{id}", h.DeleteNote)
	r.Post("/notes/{id}/move", h.MoveNote)

	// Trash (soft-deleted notes and boards).
	r.Get("/trash", h.ListTrash)
	r.Post("/trash/notes/{id}/restore", h.RestoreNote)
	r.Delete("/trash/notes/{id}", h.PurgeNote)
	r.Post("/trash/boards/{board}/restore", h.RestoreBoard)
	r.Delete("/trash/boards/{board}", h.PurgeBoard)

	// Settings.
	r.Get("/settings/fontsize", h.GetFontSize)
	r.Put("/settings/fontsize", h.SetFontSize)

	// Import/export.
	r.Get("/export", h.ExportAll)
	r.Get("/export/boards/{board}", h.ExportBoard)
	r.Post("/import", h.ImportAll)
	r.Post("/import/board", h.ImportBoard)

	// Attachments upload (auth-protected).
	r.Post("/attachments", ah.Upload)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
