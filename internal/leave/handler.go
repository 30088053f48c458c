package leave

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi"

	"github.com/frahmantamala/leave-management/internal"
	"github.com/frahmantamala/leave-management/internal/transport"
	"github.com/frahmantamala/leave-management/pkg/logger"
)

type ServiceAPI interface {
	Apply(ctx context.Context, actor internal.Actor, dto ApplyLeaveDTO) (*Application, error)
	Update(ctx context.Context, actor internal.Actor, applicationID int64, dto ApplyLeaveDTO) (*Application, error)
	Cancel(ctx context.Context, actor internal.Actor, applicationID int64) error
	Approve(ctx context.Context, actor internal.Actor, applicationID int64, note string) (*Application, error)
	Reject(ctx context.Context, actor internal.Actor, applicationID int64, note string) (*Application, error)
	Recall(ctx context.Context, actor internal.Actor, applicationID int64, dto RecallDTO) (*Application, error)

	GetApplication(actor internal.Actor, applicationID int64) (*Application, error)
	MyApplications(actor internal.Actor, year *int) ([]*Application, error)
	TeamApplications(actor internal.Actor, year *int) ([]*Application, error)
	AllApplications(actor internal.Actor, year *int) ([]*Application, error)
	PendingApprovals(actor internal.Actor) ([]*Application, error)
	ApprovalTrail(actor internal.Actor, applicationID int64) ([]*ApprovalLog, error)
	Stats(actor internal.Actor, year int) (*StatsDTO, error)
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

func (h *Handler) actor(w http.ResponseWriter, r *http.Request) (internal.Actor, bool) {
	actor, ok := internal.ActorFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
	}
	return actor, ok
}

func (h *Handler) applicationID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	idStr := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		h.Logger.Error("invalid application ID", "id", idStr)
		h.WriteError(w, http.StatusBadRequest, "invalid application ID")
		return 0, false
	}
	return id, true
}

func yearParam(r *http.Request) *int {
	yearStr := r.URL.Query().Get("year")
	if yearStr == "" {
		return nil
	}
	year, err := strconv.Atoi(yearStr)
	if err != nil {
		return nil
	}
	return &year
}

func (h *Handler) Apply(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	var dto ApplyLeaveDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("Apply: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	app, err := h.Service.Apply(r.Context(), actor, dto)
	if err != nil {
		h.Logger.Error("Apply: service error", "error", err, "employee_id", actor.EmployeeID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, app)
}

func (h *Handler) GetApplication(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, ok := h.applicationID(w, r)
	if !ok {
		return
	}

	app, err := h.Service.GetApplication(actor, id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, app)
}

func (h *Handler) UpdateApplication(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, ok := h.applicationID(w, r)
	if !ok {
		return
	}

	var dto ApplyLeaveDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("UpdateApplication: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	app, err := h.Service.Update(r.Context(), actor, id, dto)
	if err != nil {
		h.Logger.Error("UpdateApplication: service error", "error", err, "application_id", id)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, app)
}

func (h *Handler) CancelApplication(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, ok := h.applicationID(w, r)
	if !ok {
		return
	}

	if err := h.Service.Cancel(r.Context(), actor, id); err != nil {
		h.Logger.Error("CancelApplication: service error", "error", err, "application_id", id)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

func (h *Handler) ApproveApplication(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.Service.Approve)
}

func (h *Handler) RejectApplication(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.Service.Reject)
}

func (h *Handler) decide(w http.ResponseWriter, r *http.Request, fn func(context.Context, internal.Actor, int64, string) (*Application, error)) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, ok := h.applicationID(w, r)
	if !ok {
		return
	}

	var dto DecisionDTO
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
			h.WriteError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	app, err := fn(r.Context(), actor, id, dto.Note)
	if err != nil {
		h.Logger.Error("decision: service error", "error", err, "application_id", id, "approver_id", actor.EmployeeID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, app)
}

func (h *Handler) RecallApplication(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, ok := h.applicationID(w, r)
	if !ok {
		return
	}

	var dto RecallDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	app, err := h.Service.Recall(r.Context(), actor, id, dto)
	if err != nil {
		h.Logger.Error("RecallApplication: service error", "error", err, "application_id", id)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, app)
}

func (h *Handler) MyApplications(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	apps, err := h.Service.MyApplications(actor, yearParam(r))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"applications": apps})
}

func (h *Handler) TeamApplications(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	apps, err := h.Service.TeamApplications(actor, yearParam(r))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"applications": apps})
}

func (h *Handler) AllApplications(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	apps, err := h.Service.AllApplications(actor, yearParam(r))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"applications": apps})
}

func (h *Handler) PendingApprovals(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	apps, err := h.Service.PendingApprovals(actor)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"applications": apps})
}

func (h *Handler) ApprovalTrail(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, ok := h.applicationID(w, r)
	if !ok {
		return
	}

	logs, err := h.Service.ApprovalTrail(actor, id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"logs": logs})
}

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	year := time.Now().Year()
	if y := yearParam(r); y != nil {
		year = *y
	}

	stats, err := h.Service.Stats(actor, year)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, stats)
}
