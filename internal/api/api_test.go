package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"net/url"
	"strings"
	"testing"

	"github.com/starford/tabula/internal/boardservice"
	"github.com/starford/tabula/internal/models"
	"github.com/starford/tabula/internal/session"
	"github.com/starford/tabula/internal/testutil"
)

// testEnv sets up a temp store, session, service, and router for testing.
func testEnv(t *testing.T, authToken string) (*boardservice.Service, http.Handler) {
	t.Helper()

	st := testutil.TestStore(t)
	sess := session.New(st, testutil.DiscardLogger())
	if err := sess.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	t.Cleanup(sess.Close)

	svc := boardservice.NewService(sess, nil)
	router := NewRouter(svc, authToken != "", authToken, nil)
	return svc, router
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestStateEndpoint(t *testing.T) {
	_, router := testEnv(t, "")

	w := doJSON(t, router, http.MethodGet, "/state", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var state StateResponse
	_ = json.Unmarshal(w.Body.Bytes(), &state)
	if len(state.Boards) != 1 || state.Boards[0] != models.DefaultBoardName {
		t.Errorf("boards = %v", state.Boards)
	}
	if state.ActiveBoard != models.DefaultBoardName {
		t.Errorf("active = %q", state.ActiveBoard)
	}
	if state.FontSize != models.DefaultFontSize {
		t.Errorf("fontSize = %d", state.FontSize)
	}
}

func TestCreateBoard(t *testing.T) {
	_, router := testEnv(t, "")

	w := doJSON(t, router, http.MethodPost, "/boards", CreateBoardRequest{Name: "عمل"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", w.Code, w.Body.String())
	}

	// Duplicate should 409.
	w = doJSON(t, router, http.MethodPost, "/boards", CreateBoardRequest{Name: "عمل"})
	if w.Code != http.StatusConflict {
		t.Errorf("duplicate status = %d, want 409", w.Code)
	}

	// Blank should 400.
	w = doJSON(t, router, http.MethodPost, "/boards", CreateBoardRequest{Name: "  "})
	if w.Code != http.StatusBadRequest {
		t.Errorf("blank status = %d, want 400", w.Code)
	}
}

func TestDeleteBoardConfirmationFlow(t *testing.T) {
	_, router := testEnv(t, "")
	_ = doJSON(t, router, http.MethodPost, "/boards", CreateBoardRequest{Name: "B"})

	w := doJSON(t, router, http.MethodDelete, "/boards/B", DeleteBoardRequest{Confirm: "wrong"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("mismatched confirmation status = %d, want 400", w.Code)
	}

	w = doJSON(t, router, http.MethodDelete, "/boards/B", DeleteBoardRequest{Confirm: "B"})
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d, body = %s", w.Code, w.Body.String())
	}

	// Deleting the survivor must 409: the last board is protected.
	name := url.PathEscape(models.DefaultBoardName)
	w = doJSON(t, router, http.MethodDelete, "/boards/"+name, DeleteBoardRequest{Confirm: models.DefaultBoardName})
	if w.Code != http.StatusConflict {
		t.Errorf("last-board delete status = %d, want 409", w.Code)
	}
}

func TestNoteLifecycleOverHTTP(t *testing.T) {
	_, router := testEnv(t, "")

	// Create.
	w := doJSON(t, router, http.MethodPost, "/notes", CreateNoteRequest{Content: "hello"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", w.Code, w.Body.String())
	}
	var note models.Note
	_ = json.Unmarshal(w.Body.Bytes(), &note)
	if note.ID == "" || note.Board != models.DefaultBoardName {
		t.Fatalf("note = %+v", note)
	}

	// Update.
	w = doJSON(t, router, http.MethodPut, "/notes/"+note.ID, UpdateNoteRequest{Content: "edited"})
	if w.Code != http.StatusOK {
		t.Fatalf("update status = %d", w.Code)
	}

	// Soft delete.
	w = doJSON(t, router, http.MethodDelete, "/notes/"+note.ID, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", w.Code)
	}

	// It shows in the trash.
	w = doJSON(t, router, http.MethodGet, "/trash", nil)
	var trash struct {
		DeletedNotes []models.Note `json:"deletedNotes"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &trash)
	if len(trash.DeletedNotes) != 1 || trash.DeletedNotes[0].ID != note.ID {
		t.Fatalf("trash = %+v", trash)
	}

	// Restore.
	w = doJSON(t, router, http.MethodPost, "/trash/notes/"+note.ID+"/restore", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("restore status = %d", w.Code)
	}
	var restored models.Note
	_ = json.Unmarshal(w.Body.Bytes(), &restored)
	if restored.Content != "edited" {
		t.Errorf("restored content = %q", restored.Content)
	}

	// Purge a missing note 404s.
	w = doJSON(t, router, http.MethodDelete, "/trash/notes/"+note.ID, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("purge restored note status = %d, want 404", w.Code)
	}
}

func TestMoveNote(t *testing.T) {
	svc, router := testEnv(t, "")
	_ = doJSON(t, router, http.MethodPost, "/boards", CreateBoardRequest{Name: "B"})

	w := doJSON(t, router, http.MethodPost, "/notes", CreateNoteRequest{Content: "x"})
	var note models.Note
	_ = json.Unmarshal(w.Body.Bytes(), &note)

	w = doJSON(t, router, http.MethodPost, "/notes/"+note.ID+"/move", MoveNoteRequest{Board: "ghost"})
	if w.Code != http.StatusNotFound {
		t.Errorf("move to ghost status = %d, want 404", w.Code)
	}

	w = doJSON(t, router, http.MethodPost, "/notes/"+note.ID+"/move", MoveNoteRequest{Board: "B"})
	if w.Code != http.StatusNoContent {
		t.Fatalf("move status = %d", w.Code)
	}
	if svc.Snapshot().Notes[0].Board != "B" {
		t.Error("note not moved")
	}
}

func TestListNotesFilter(t *testing.T) {
	_, router := testEnv(t, "")
	_ = doJSON(t, router, http.MethodPost, "/boards", CreateBoardRequest{Name: "B"})
	_ = doJSON(t, router, http.MethodPost, "/notes", CreateNoteRequest{Content: "on default"})
	_ = doJSON(t, router, http.MethodPut, "/boards/active", ActiveBoardRequest{Name: "B"})
	_ = doJSON(t, router, http.MethodPost, "/notes", CreateNoteRequest{Content: "on B"})

	w := doJSON(t, router, http.MethodGet, "/notes?board=B", nil)
	var resp struct {
		Notes []models.Note `json:"notes"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Notes) != 1 || resp.Notes[0].Content != "on B" {
		t.Errorf("filtered notes = %+v", resp.Notes)
	}
}

func TestFontSizeValidation(t *testing.T) {
	_, router := testEnv(t, "")

	w := doJSON(t, router, http.MethodPut, "/settings/fontsize", FontSizeRequest{FontSize: 30})
	if w.Code != http.StatusBadRequest {
		t.Errorf("out-of-range status = %d, want 400", w.Code)
	}

	w = doJSON(t, router, http.MethodPut, "/settings/fontsize", FontSizeRequest{FontSize: 16})
	if w.Code != http.StatusNoContent {
		t.Fatalf("set status = %d", w.Code)
	}
	w = doJSON(t, router, http.MethodGet, "/settings/fontsize", nil)
	var resp FontSizeRequest
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.FontSize != 16 {
		t.Errorf("fontSize = %d", resp.FontSize)
	}
}

func TestExportImportOverHTTP(t *testing.T) {
	_, router := testEnv(t, "")
	_ = doJSON(t, router, http.MethodPost, "/boards", CreateBoardRequest{Name: "B"})
	_ = doJSON(t, router, http.MethodPost, "/notes", CreateNoteRequest{Content: "keep me"})

	w := doJSON(t, router, http.MethodGet, "/export", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("export status = %d", w.Code)
	}
	exported := w.Body.Bytes()

	// Replace state with something else, then import the export back.
	_ = doJSON(t, router, http.MethodPost, "/boards", CreateBoardRequest{Name: "noise"})

	req := httptest.NewRequest(http.MethodPost, "/import", bytes.NewReader(exported))
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("import status = %d, body = %s", w.Code, w.Body.String())
	}

	w = doJSON(t, router, http.MethodGet, "/state", nil)
	var state StateResponse
	_ = json.Unmarshal(w.Body.Bytes(), &state)
	if len(state.Boards) != 2 {
		t.Errorf("boards after import = %v", state.Boards)
	}
	if len(state.Notes) != 1 || state.Notes[0].Content != "keep me" {
		t.Errorf("notes after import = %+v", state.Notes)
	}
}

func TestImportMalformed(t *testing.T) {
	_, router := testEnv(t, "")
	req := httptest.NewRequest(http.MethodPost, "/import", strings.NewReader(`{"boards":["a"]}`))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestImportBoardOverHTTP(t *testing.T) {
	_, router := testEnv(t, "")

	doc := models.BoardExportDocument{
		BoardName: models.DefaultBoardName, // collides
		Notes:     []models.Note{{ID: "old", Content: "x", Board: models.DefaultBoardName}},
	}
	w := doJSON(t, router, http.MethodPost, "/import/board", doc)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp map[string]string
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["board"] != models.DefaultBoardName+" (1)" {
		t.Errorf("board = %q", resp["board"])
	}
}

func TestAuthMiddleware(t *testing.T) {
	_, router := testEnv(t, "secret")

	w := doJSON(t, router, http.MethodGet, "/state", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated status = %d, want 401", w.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/state", nil)
	req.Header.Set("Authorization", "Bearer secret")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("authenticated status = %d, want 200", rec.Code)
	}
}

func TestAttachmentUpload(t *testing.T) {
	_, router := testEnv(t, "")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	hdr := textproto.MIMEHeader{}
	hdr.Set("Content-Disposition", `form-data; name="file"; filename="pixel.png"`)
	hdr.Set("Content-Type", "image/png")
	part, err := mw.CreatePart(hdr)
	if err != nil {
		t.Fatal(err)
	}
	_, _ = part.Write([]byte{0x89, 0x50, 0x4e, 0x47})
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/attachments", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("upload status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp AttachmentResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if !strings.HasPrefix(resp.DataURI, "data:image/png;base64,") {
		t.Errorf("data_uri = %q", resp.DataURI)
	}
	if resp.Size != 4 {
		t.Errorf("size = %d", resp.Size)
	}

	// Non-image uploads are rejected.
	buf.Reset()
	mw = multipart.NewWriter(&buf)
	hdr = textproto.MIMEHeader{}
	hdr.Set("Content-Disposition", `form-data; name="file"; filename="doc.txt"`)
	hdr.Set("Content-Type", "text/plain")
	part, _ = mw.CreatePart(hdr)
	_, _ = part.Write([]byte("hi"))
	mw.Close()

	req = httptest.NewRequest(http.MethodPost, "/attachments", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("non-image status = %d, want 400", w.Code)
	}
}
