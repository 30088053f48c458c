package leavetype

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"

	"github.com/frahmantamala/leave-management/internal"
	"github.com/frahmantamala/leave-management/internal/transport"
	"github.com/frahmantamala/leave-management/pkg/logger"
)

type ServiceAPI interface {
	ListTypes() ([]*LeaveType, error)
	GetType(id int64) (*LeaveType, error)
	CreateType(actor internal.Actor, dto LeaveTypeDTO) (*LeaveType, error)
	UpdateType(actor internal.Actor, id int64, dto LeaveTypeDTO) (*LeaveType, error)
	DeleteType(ctx context.Context, actor internal.Actor, id int64) error
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

func (h *Handler) typeID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	idStr := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		h.Logger.Error("invalid leave type ID", "id", idStr)
		h.WriteError(w, http.StatusBadRequest, "invalid leave type ID")
		return 0, false
	}
	return id, true
}

func (h *Handler) ListTypes(w http.ResponseWriter, r *http.Request) {
	types, err := h.Service.ListTypes()
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"leave_types": types})
}

func (h *Handler) GetType(w http.ResponseWriter, r *http.Request) {
	id, ok := h.typeID(w, r)
	if !ok {
		return
	}

	lt, err := h.Service.GetType(id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, lt)
}

func (h *Handler) CreateType(w http.ResponseWriter, r *http.Request) {
	actor, ok := internal.ActorFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var dto LeaveTypeDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("CreateType: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	lt, err := h.Service.CreateType(actor, dto)
	if err != nil {
		h.Logger.Error("CreateType: service error", "error", err, "actor_id", actor.EmployeeID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, lt)
}

func (h *Handler) UpdateType(w http.ResponseWriter, r *http.Request) {
	actor, ok := internal.ActorFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	id, ok := h.typeID(w, r)
	if !ok {
		return
	}

	var dto LeaveTypeDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("UpdateType: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	lt, err := h.Service.UpdateType(actor, id, dto)
	if err != nil {
		h.Logger.Error("UpdateType: service error", "error", err, "leave_type_id", id)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, lt)
}

func (h *Handler) DeleteType(w http.ResponseWriter, r *http.Request) {
	actor, ok := internal.ActorFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	id, ok := h.typeID(w, r)
	if !ok {
		return
	}

	if err := h.Service.DeleteType(r.Context(), actor, id); err != nil {
		h.Logger.Error("DeleteType: service error", "error", err, "leave_type_id", id)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
