package http

import (
	"errors"
	"io"
	"net/http"

	"github.com/Strob0t/showcase/internal/service"
)

const maxUploadFiles = 50

// UploadFiles handles POST /api/v1/uploads. The multipart form carries one
// or more "files" parts and an optional "project_id" to add files to an
// ID allocated by an earlier upload. The response lists the stored files
// in upload order, ready to be sent as the files of a project.
func (h *Handlers) UploadFiles(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.BodyLimit)
	if err := r.ParseMultipartForm(h.BodyLimit); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "upload too large")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	parts := r.MultipartForm.File["files"]
	if len(parts) > maxUploadFiles {
		writeError(w, http.StatusBadRequest, "too many files")
		return
	}

	uploads := make([]service.Upload, 0, len(parts))
	for _, fh := range parts {
		f, err := fh.Open()
		if err != nil {
			writeInternalError(w, err)
			return
		}
		data, err := io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			writeInternalError(w, err)
			return
		}
		uploads = append(uploads, service.Upload{
			Name:        fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Data:        data,
		})
	}

	res, err := h.Uploads.Store(r.Context(), r.FormValue("project_id"), uploads)
	if err != nil {
		writeDomainError(w, err, "not found")
		return
	}
	writeJSON(w, http.StatusCreated, res)
}
