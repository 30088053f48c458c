package storage

import (
	"io"
	"net/http"

	"github.com/go-chi/chi"

	"github.com/frahmantamala/leave-management/internal/transport"
	"github.com/frahmantamala/leave-management/pkg/logger"
)

// maxAttachmentSize caps uploads at 10 MiB.
const maxAttachmentSize = 10 << 20

type Handler struct {
	*transport.BaseHandler
	Store Storage
}

func NewHandler(store Storage) *Handler {
	return &Handler{
		BaseHandler: transport.NewBaseHandler(logger.L()),
		Store:       store,
	}
}

// Upload accepts a multipart form with a "file" field and returns the
// stored name to reference from a leave application.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxAttachmentSize)
	if err := r.ParseMultipartForm(maxAttachmentSize); err != nil {
		h.Logger.Error("Upload: invalid multipart form", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer file.Close()

	storedName, err := h.Store.Store(header.Filename, file)
	if err != nil {
		h.Logger.Error("Upload: store failed", "error", err, "filename", header.Filename)
		h.HandleServiceError(w, err)
		return
	}

	h.Logger.Info("attachment stored", "stored_name", storedName, "original_name", header.Filename)
	h.WriteJSON(w, http.StatusCreated, map[string]string{"attachment": storedName})
}

// Download streams a stored attachment.
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	f, err := h.Store.Retrieve(name)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	if _, err := io.Copy(w, f); err != nil {
		h.Logger.Error("Download: stream failed", "error", err, "attachment", name)
	}
}
