package retirement

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/civicworks/revenue-tracker/internal/auth"
	"github.com/civicworks/revenue-tracker/internal/transport"
	"github.com/civicworks/revenue-tracker/pkg/logger"
	"github.com/go-chi/chi"
)

type ServiceAPI interface {
	CreateRetirement(dto CreateRetirementDTO, userID int64) (*ExpenditureRetirement, error)
	GetRetirement(id int64) (*ExpenditureRetirement, error)
	ListRetirements(status string, limit, offset int) ([]*ExpenditureRetirement, error)
	UpdateRetirement(id int64, dto UpdateRetirementDTO) (*ExpenditureRetirement, error)
	SubmitRetirement(id, userID int64) (*ExpenditureRetirement, error)
	ReviewRetirement(id, userID int64) (*ExpenditureRetirement, error)
	ApproveRetirement(id, userID int64) (*ExpenditureRetirement, error)
	RejectRetirement(id, userID int64, reason string) (*ExpenditureRetirement, error)
	CompleteRetirement(id, userID int64) (*ExpenditureRetirement, error)
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

func (h *Handler) CreateRetirement(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var dto CreateRetirementDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ret, err := h.Service.CreateRetirement(dto, user.ID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, ret)
}

func (h *Handler) GetRetirement(w http.ResponseWriter, r *http.Request) {
	id, ok := h.retirementID(w, r)
	if !ok {
		return
	}

	ret, err := h.Service.GetRetirement(id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, ret)
}

func (h *Handler) ListRetirements(w http.ResponseWriter, r *http.Request) {
	limit, offset := transport.Pagination(r)
	status := r.URL.Query().Get("status")

	rets, err := h.Service.ListRetirements(status, limit, offset)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"retirements": rets,
		"limit":       limit,
		"offset":      offset,
	})
}

func (h *Handler) UpdateRetirement(w http.ResponseWriter, r *http.Request) {
	id, ok := h.retirementID(w, r)
	if !ok {
		return
	}

	var dto UpdateRetirementDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ret, err := h.Service.UpdateRetirement(id, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, ret)
}

func (h *Handler) SubmitRetirement(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, h.Service.SubmitRetirement)
}

func (h *Handler) ReviewRetirement(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, h.Service.ReviewRetirement)
}

func (h *Handler) ApproveRetirement(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, h.Service.ApproveRetirement)
}

func (h *Handler) RejectRetirement(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, ok := h.retirementID(w, r)
	if !ok {
		return
	}

	var dto RejectRetirementDTO
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&dto)
	}

	ret, err := h.Service.RejectRetirement(id, user.ID, dto.Reason)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, ret)
}

func (h *Handler) CompleteRetirement(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, h.Service.CompleteRetirement)
}

func (h *Handler) act(w http.ResponseWriter, r *http.Request, fn func(id, userID int64) (*ExpenditureRetirement, error)) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, ok := h.retirementID(w, r)
	if !ok {
		return
	}

	ret, err := fn(id, user.ID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, ret)
}

func (h *Handler) retirementID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid retirement ID")
		return 0, false
	}
	return id, true
}
