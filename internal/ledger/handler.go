package ledger

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/frahmantamala/leave-management/internal"
	"github.com/frahmantamala/leave-management/internal/transport"
	"github.com/frahmantamala/leave-management/pkg/logger"
)

type ServiceAPI interface {
	MyBalances(ctx context.Context, employeeID int64, year int) ([]*Balance, error)
	TeamBalances(ctx context.Context, managerID int64, year int) ([]*Balance, error)
	AllBalances(ctx context.Context, year int) ([]*Balance, error)
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

func balanceYear(r *http.Request) int {
	if yearStr := r.URL.Query().Get("year"); yearStr != "" {
		if y, err := strconv.Atoi(yearStr); err == nil {
			return y
		}
	}
	return time.Now().Year()
}

func (h *Handler) MyBalances(w http.ResponseWriter, r *http.Request) {
	actor, ok := internal.ActorFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	year := balanceYear(r)
	balances, err := h.Service.MyBalances(r.Context(), actor.EmployeeID, year)
	if err != nil {
		h.Logger.Error("MyBalances: service error", "error", err, "employee_id", actor.EmployeeID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"balances": balances, "year": year})
}

func (h *Handler) TeamBalances(w http.ResponseWriter, r *http.Request) {
	actor, ok := internal.ActorFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if !actor.IsManager() {
		h.WriteError(w, http.StatusForbidden, "manager access required")
		return
	}

	year := balanceYear(r)
	balances, err := h.Service.TeamBalances(r.Context(), actor.EmployeeID, year)
	if err != nil {
		h.Logger.Error("TeamBalances: service error", "error", err, "manager_id", actor.EmployeeID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"balances": balances, "year": year})
}

func (h *Handler) AllBalances(w http.ResponseWriter, r *http.Request) {
	actor, ok := internal.ActorFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if !actor.IsAdmin() {
		h.WriteError(w, http.StatusForbidden, "admin access required")
		return
	}

	year := balanceYear(r)
	balances, err := h.Service.AllBalances(r.Context(), year)
	if err != nil {
		h.Logger.Error("AllBalances: service error", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"balances": balances, "year": year})
}
