package attachment

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/civicworks/revenue-tracker/internal/auth"
	"github.com/civicworks/revenue-tracker/internal/transport"
	"github.com/civicworks/revenue-tracker/pkg/logger"
	"github.com/go-chi/chi"
)

type ServiceAPI interface {
	Upload(ownerType string, ownerID int64, fileName string, size int64, file io.Reader, userID int64) (*Attachment, error)
	GetAttachment(id int64) (*Attachment, error)
	ListByOwner(ownerType string, ownerID int64) ([]*Attachment, error)
	Verify(id, userID int64, notes string) (*Attachment, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(service ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: transport.NewBaseHandler(logger.L()),
		Service:     service,
	}
}

// Upload handles multipart POST /{owner}s/{id}/attachments. The file part
// must be named "file".
func (h *Handler) Upload(ownerType string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := auth.UserFromContext(r.Context())
		if !ok || user == nil {
			h.WriteError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		ownerID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			h.WriteError(w, http.StatusBadRequest, "invalid ID")
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, MaxFileSize+1<<20)
		if err := r.ParseMultipartForm(MaxFileSize); err != nil {
			h.WriteError(w, http.StatusBadRequest, "invalid multipart form")
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			h.WriteError(w, http.StatusBadRequest, "missing file field")
			return
		}
		defer file.Close()

		a, err := h.Service.Upload(ownerType, ownerID, header.Filename, header.Size, file, user.ID)
		if err != nil {
			h.HandleServiceError(w, err)
			return
		}

		h.WriteJSON(w, http.StatusCreated, a)
	}
}

func (h *Handler) ListByOwner(ownerType string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			h.WriteError(w, http.StatusBadRequest, "invalid ID")
			return
		}

		attachments, err := h.Service.ListByOwner(ownerType, ownerID)
		if err != nil {
			h.HandleServiceError(w, err)
			return
		}

		h.WriteJSON(w, http.StatusOK, map[string]interface{}{"attachments": attachments})
	}
}

type verifyRequest struct {
	Notes string `json:"notes,omitempty"`
}

// Verify handles PATCH /attachments/{id}/verify.
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid attachment ID")
		return
	}

	var req verifyRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	a, err := h.Service.Verify(id, user.ID, req.Notes)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, a)
}
