package handlers

import (
	"context"
	"net/http"

	"github.com/benvon/checkauto-admin/internal/logger"
	"github.com/benvon/checkauto-admin/internal/request"
	"github.com/benvon/checkauto-admin/internal/services/dashboard"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// DashboardService builds the reporting summary.
type DashboardService interface {
	Summary(ctx context.Context) (*dashboard.Summary, error)
}

// DashboardHandler serves the staff reporting dashboard.
type DashboardHandler struct {
	dashboard DashboardService
	logger    *zap.Logger
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(svc DashboardService, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{dashboard: svc, logger: logger}
}

// RegisterRoutes registers dashboard routes on a staff-only router with the /api/admin prefix.
func (h *DashboardHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/dashboard/", h.GetDashboard).Methods(http.MethodGet)
}

// GetDashboard returns the site labels and current marketplace counts.
func (h *DashboardHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	summary, err := h.dashboard.Summary(r.Context())
	if err != nil {
		h.logger.Error("dashboard_summary_failed",
			zap.String("error", logger.SanitizeError(err)),
			zap.String("request_id", request.RequestID(r.Context())),
		)
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to load dashboard")
		return
	}

	respondJSON(w, http.StatusOK, summary)
}
