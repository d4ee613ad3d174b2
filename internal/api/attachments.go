package api

import (
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const maxUploadBytes = 5 << 20 // notes store images inline, keep them small

// AttachmentHandler converts uploaded images into data URIs for embedding in
// a note's images list. Nothing is written to disk: the embedded store is
// the only persistence mechanism.
type AttachmentHandler struct{}

// NewAttachmentHandler creates an attachment handler.
func NewAttachmentHandler() *AttachmentHandler {
	return &AttachmentHandler{}
}

// Upload handles POST /attachments (multipart/form-data, field "file").
func (h *AttachmentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("file too large or invalid multipart"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("missing 'file' field in multipart form"))
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		writeJSON(w, http.StatusBadRequest, errorBody(fmt.Sprintf("unsupported content type: %s", contentType)))
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("failed to read file"))
		return
	}

	dataURI := fmt.Sprintf("data:%s;base64,%s", contentType, base64.StdEncoding.EncodeToString(data))
	writeJSON(w, http.StatusCreated, AttachmentResponse{
		Filename: header.Filename,
		Size:     int64(len(data)),
		DataURI:  dataURI,
	})
}
