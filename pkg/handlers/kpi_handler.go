package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/vantagedesk/vantage-console/pkg/auth"
	"github.com/vantagedesk/vantage-console/pkg/models"
	"github.com/vantagedesk/vantage-console/pkg/services"
)

// KPIListResponse for GET /api/kpis
type KPIListResponse struct {
	KPIs []*models.KPI `json:"kpis"`
}

// KPIHandler serves the dashboard metric strip.
type KPIHandler struct {
	kpis   services.KPIService
	logger *zap.Logger
}

// NewKPIHandler creates a new KPI handler.
func NewKPIHandler(kpis services.KPIService, logger *zap.Logger) *KPIHandler {
	return &KPIHandler{kpis: kpis, logger: logger}
}

// RegisterRoutes registers the KPI handler's routes on the given mux.
func (h *KPIHandler) RegisterRoutes(mux *http.ServeMux, mw *auth.Middleware) {
	mux.HandleFunc("GET /api/kpis", mw.RequireAuth(h.List))
}

// List handles GET /api/kpis
func (h *KPIHandler) List(w http.ResponseWriter, r *http.Request) {
	kpis, err := h.kpis.Compute(r.Context())
	if err != nil {
		h.logger.Error("Failed to compute KPIs", zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "compute_kpis_failed", err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, models.APIResponse{Success: true, Data: KPIListResponse{KPIs: kpis}}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
