package workflow

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

type EngineAPI interface {
	SubmitForApproval(ctx context.Context, kind EntityKind, entityID, userID int64) (*Result, error)
	Approve(ctx context.Context, kind EntityKind, entityID, userID int64, opts ActionOptions) (*Result, error)
	Reject(ctx context.Context, kind EntityKind, entityID, userID int64, opts ActionOptions) (*Result, error)
	History(kind EntityKind, entityID int64, limit, offset int) ([]*ApprovalHistory, error)
}

type Handler struct {
	*transport.BaseHandler
	Engine EngineAPI
}

func NewHandler(engine EngineAPI) *Handler {
	return &Handler{
		BaseHandler: transport.NewBaseHandler(logger.L()),
		Engine:      engine,
	}
}

type actionRequest struct {
	Comment string `json:"comment,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

// Submit handles POST /{kind}s/{id}/submit.
func (h *Handler) Submit(kind EntityKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, entityID, ok := h.actor(w, r)
		if !ok {
			return
		}

		result, err := h.Engine.SubmitForApproval(r.Context(), kind, entityID, user.ID)
		if err != nil {
			h.HandleServiceError(w, err)
			return
		}

		h.WriteJSON(w, http.StatusOK, result)
	}
}

// Approve handles POST /{kind}s/{id}/approve.
func (h *Handler) Approve(kind EntityKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, entityID, ok := h.actor(w, r)
		if !ok {
			return
		}

		var req actionRequest
		if r.Body != nil {
			_ = json.NewDecoder(r.Body).Decode(&req)
		}

		result, err := h.Engine.Approve(r.Context(), kind, entityID, user.ID, ActionOptions{Comment: req.Comment})
		if err != nil {
			h.HandleServiceError(w, err)
			return
		}

		h.WriteJSON(w, http.StatusOK, result)
	}
}

// Reject handles POST /{kind}s/{id}/reject. Admins may reject on behalf
// of the current approver.
func (h *Handler) Reject(kind EntityKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, entityID, ok := h.actor(w, r)
		if !ok {
			return
		}

		var req actionRequest
		if r.Body != nil {
			_ = json.NewDecoder(r.Body).Decode(&req)
		}

		opts := ActionOptions{Reason: req.Reason, AdminOverride: user.IsAdmin()}
		result, err := h.Engine.Reject(r.Context(), kind, entityID, user.ID, opts)
		if err != nil {
			h.HandleServiceError(w, err)
			return
		}

		h.WriteJSON(w, http.StatusOK, result)
	}
}

// HistoryList handles GET /{kind}s/{id}/history.
func (h *Handler) HistoryList(kind EntityKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entityID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			h.WriteError(w, http.StatusBadRequest, "invalid ID")
			return
		}

		limit, offset := transport.Pagination(r)
		history, err := h.Engine.History(kind, entityID, limit, offset)
		if err != nil {
			h.HandleServiceError(w, err)
			return
		}

		h.WriteJSON(w, http.StatusOK, map[string]interface{}{
			"history": history,
			"limit":   limit,
			"offset":  offset,
		})
	}
}

// HistoryQuery handles GET /approval-history?entity_type=&entity_id=.
func (h *Handler) HistoryQuery(w http.ResponseWriter, r *http.Request) {
	kind := EntityKind(r.URL.Query().Get("entity_type"))
	if !ValidKind(kind) {
		h.WriteError(w, http.StatusBadRequest, "invalid entity_type")
		return
	}

	entityID, err := strconv.ParseInt(r.URL.Query().Get("entity_id"), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid entity_id")
		return
	}

	limit, offset := transport.Pagination(r)
	history, err := h.Engine.History(kind, entityID, limit, offset)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"history": history,
		"limit":   limit,
		"offset":  offset,
	})
}

func (h *Handler) actor(w http.ResponseWriter, r *http.Request) (*auth.ContextUser, int64, bool) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return nil, 0, false
	}

	entityID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid ID")
		return nil, 0, false
	}

	return user, entityID, true
}
