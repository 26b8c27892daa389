package expenditure

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
	CreateExpenditure(userID int64, dto CreateExpenditureDTO) (*Expenditure, error)
	GetExpenditure(id int64) (*Expenditure, error)
	ListExpenditures(mdaID, lineItemID int64, status string, limit, offset int) ([]*Expenditure, error)
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

func (h *Handler) CreateExpenditure(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var dto CreateExpenditureDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	e, err := h.Service.CreateExpenditure(user.ID, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.Logger.Info("expenditure created", "expenditure_id", e.ID, "user_id", user.ID, "amount", e.Amount)
	h.WriteJSON(w, http.StatusCreated, e)
}

func (h *Handler) GetExpenditure(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid expenditure ID")
		return
	}

	e, err := h.Service.GetExpenditure(id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, e)
}

func (h *Handler) ListExpenditures(w http.ResponseWriter, r *http.Request) {
	limit, offset := transport.Pagination(r)

	var mdaID, lineItemID int64
	if s := r.URL.Query().Get("mda_id"); s != "" {
		mdaID, _ = strconv.ParseInt(s, 10, 64)
	}
	if s := r.URL.Query().Get("line_item_id"); s != "" {
		lineItemID, _ = strconv.ParseInt(s, 10, 64)
	}
	status := r.URL.Query().Get("status")

	expenditures, err := h.Service.ListExpenditures(mdaID, lineItemID, status, limit, offset)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"expenditures": expenditures,
		"limit":        limit,
		"offset":       offset,
	})
}
