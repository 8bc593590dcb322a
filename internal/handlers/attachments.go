package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lifetrack-app/lifetrack-backend/internal/journal"
)

const maxUploadBytes = 10 << 20 // 10MB

// Attach handles POST /journals/{id}/attachments. The file arrives as
// multipart form data under the "file" field.
func (h *Journal) Attach(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid multipart form"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("file field is required"))
		return
	}
	defer file.Close()

	entry, err := h.svc.Attach(r.Context(), journal.AttachInput{
		UserID:      p.ID,
		EntryID:     chi.URLParam(r, "id"),
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		File:        file,
	})
	if err != nil {
		writeError(w, "attach file", err, h.expose)
		return
	}
	writeEntry(w, http.StatusCreated, entry)
}

// Detach handles DELETE /journals/{id}/attachments/{attachmentID}. The
// response is the updated entry; the underlying blob is released.
func (h *Journal) Detach(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	entry, err := h.svc.Detach(r.Context(), p.ID, chi.URLParam(r, "id"), chi.URLParam(r, "attachmentID"))
	if err != nil {
		writeError(w, "detach file", err, h.expose)
		return
	}
	writeEntry(w, http.StatusOK, entry)
}
