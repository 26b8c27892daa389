package budget

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/civicworks/revenue-tracker/internal/auth"
	"github.com/civicworks/revenue-tracker/internal/transport"
	"github.com/civicworks/revenue-tracker/pkg/logger"
	"github.com/go-chi/chi"
)

type ServiceAPI interface {
	CreateBudget(dto CreateBudgetDTO) (*Budget, error)
	GetBudget(id int64) (*Budget, error)
	ListBudgets(mdaID int64, fiscalYear int, limit, offset int) ([]*Budget, error)
	PublishBudget(id int64) (*Budget, error)
	AddLineItem(budgetID int64, dto CreateLineItemDTO) (*BudgetLineItem, error)
	ListLineItems(budgetID int64) ([]*BudgetLineItem, error)
	ComputeUtilization(lineItemID int64) (*UtilizationDTO, error)
	CheckThresholds(ctx context.Context, lineItemID int64) (*ThresholdWarning, error)
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

func (h *Handler) CreateBudget(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var dto CreateBudgetDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	// Non-admins may only draft budgets for their own MDA.
	if !user.IsAdmin() && (user.MDAID == nil || *user.MDAID != dto.MDAID) {
		h.WriteError(w, http.StatusForbidden, "cannot create budgets for another MDA")
		return
	}

	b, err := h.Service.CreateBudget(dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.Logger.Info("budget created", "budget_id", b.ID, "user_id", user.ID)
	h.WriteJSON(w, http.StatusCreated, b)
}

func (h *Handler) GetBudget(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid budget ID")
		return
	}

	b, err := h.Service.GetBudget(id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, b)
}

func (h *Handler) ListBudgets(w http.ResponseWriter, r *http.Request) {
	limit, offset := transport.Pagination(r)

	var mdaID int64
	if s := r.URL.Query().Get("mda_id"); s != "" {
		mdaID, _ = strconv.ParseInt(s, 10, 64)
	}
	var fiscalYear int
	if s := r.URL.Query().Get("fiscal_year"); s != "" {
		fiscalYear, _ = strconv.Atoi(s)
	}

	budgets, err := h.Service.ListBudgets(mdaID, fiscalYear, limit, offset)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"budgets": budgets,
		"limit":   limit,
		"offset":  offset,
	})
}

func (h *Handler) PublishBudget(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid budget ID")
		return
	}

	b, err := h.Service.PublishBudget(id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, b)
}

func (h *Handler) AddLineItem(w http.ResponseWriter, r *http.Request) {
	budgetID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid budget ID")
		return
	}

	var dto CreateLineItemDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	li, err := h.Service.AddLineItem(budgetID, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, li)
}

func (h *Handler) ListLineItems(w http.ResponseWriter, r *http.Request) {
	budgetID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid budget ID")
		return
	}

	items, err := h.Service.ListLineItems(budgetID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"line_items": items})
}

func (h *Handler) GetUtilization(w http.ResponseWriter, r *http.Request) {
	lineItemID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid line item ID")
		return
	}

	util, err := h.Service.ComputeUtilization(lineItemID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, util)
}
