package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/hrms-attendance-go/internal/domain/dashboard"
	"github.com/cmlabs-hris/hrms-attendance-go/internal/handler/http/response"
)

// DashboardHandler exposes the dashboard auto refresh controls.
type DashboardHandler interface {
	GetRefresh(w http.ResponseWriter, r *http.Request)
	UpdateRefresh(w http.ResponseWriter, r *http.Request)
	RefreshNow(w http.ResponseWriter, r *http.Request)
}

type dashboardHandlerImpl struct {
	refreshService dashboard.RefreshService
}

func NewDashboardHandler(refreshService dashboard.RefreshService) DashboardHandler {
	return &dashboardHandlerImpl{refreshService: refreshService}
}

// GetRefresh implements DashboardHandler.
func (h *dashboardHandlerImpl) GetRefresh(w http.ResponseWriter, r *http.Request) {
	response.Success(w, h.refreshService.Status())
}

// UpdateRefresh implements DashboardHandler.
func (h *dashboardHandlerImpl) UpdateRefresh(w http.ResponseWriter, r *http.Request) {
	var req dashboard.UpdateRefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("UpdateRefresh decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	status, err := h.refreshService.Update(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Auto refresh updated", status)
}

// RefreshNow implements DashboardHandler.
func (h *dashboardHandlerImpl) RefreshNow(w http.ResponseWriter, r *http.Request) {
	d, err := h.refreshService.RefreshNow(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, d)
}
