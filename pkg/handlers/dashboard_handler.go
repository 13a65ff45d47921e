package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/vantagedesk/vantage-console/pkg/auth"
	"github.com/vantagedesk/vantage-console/pkg/dashboard"
	"github.com/vantagedesk/vantage-console/pkg/models"
	"github.com/vantagedesk/vantage-console/pkg/services"
)

// BoundExecuteRequest for POST /api/dashboards/execute. Conditions come
// from the dashboard's filter controls and are conjunctive.
type BoundExecuteRequest struct {
	QueryID    int64                 `json:"query_id"`
	Conditions []dashboard.Condition `json:"conditions,omitempty"`
}

// WidgetListResponse for GET /api/widgets
type WidgetListResponse struct {
	Widgets []*models.DashboardWidget `json:"widgets"`
	Total   int                       `json:"total"`
}

// DashboardHandler handles interactive dashboard resolution, bound query
// execution, and the classic widget grid.
type DashboardHandler struct {
	dashboards services.DashboardService
	queries    services.QueryService
	logger     *zap.Logger
}

// NewDashboardHandler creates a new dashboard handler.
func NewDashboardHandler(dashboards services.DashboardService, queries services.QueryService, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{dashboards: dashboards, queries: queries, logger: logger}
}

// RegisterRoutes registers the dashboard handler's routes on the given mux.
func (h *DashboardHandler) RegisterRoutes(mux *http.ServeMux, mw *auth.Middleware) {
	mux.HandleFunc("GET /api/dashboards/{id}", mw.RequireAuth(h.Resolve))
	mux.HandleFunc("POST /api/dashboards/execute", mw.RequireAuth(h.Execute))
	mux.HandleFunc("GET /api/widgets", mw.RequireAuth(h.Widgets))
}

// Resolve handles GET /api/dashboards/{id}
func (h *DashboardHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, h.logger)
	if !ok {
		return
	}

	role := auth.RoleFromContext(r.Context())
	view, err := h.dashboards.Resolve(r.Context(), id, role)
	if err != nil {
		status, code := StatusForError(err)
		if status == http.StatusInternalServerError {
			h.logger.Error("Failed to resolve dashboard", zap.Int64("menu_id", id), zap.Error(err))
		}
		if err := ErrorResponse(w, status, code, "Dashboard not found"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, models.APIResponse{Success: true, Data: view}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Execute handles POST /api/dashboards/execute
func (h *DashboardHandler) Execute(w http.ResponseWriter, r *http.Request) {
	var req BoundExecuteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}
	if req.QueryID <= 0 {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "query_id is required"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	role := auth.RoleFromContext(r.Context())
	executor := services.NewBoundExecutor(h.queries, role)

	result, err := executor.ExecuteBound(r.Context(), req.QueryID, req.Conditions)
	if err != nil {
		status, code := StatusForError(err)
		if status == http.StatusInternalServerError {
			h.logger.Error("Failed bound execution", zap.Int64("query_id", req.QueryID), zap.Error(err))
		}
		if err := ErrorResponse(w, status, code, "Could not execute query"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, result); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Widgets handles GET /api/widgets
func (h *DashboardHandler) Widgets(w http.ResponseWriter, r *http.Request) {
	var menuID *int64
	if raw := r.URL.Query().Get("menu_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid menu_id"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}
		menuID = &id
	}

	widgets, err := h.dashboards.Widgets(r.Context(), menuID)
	if err != nil {
		h.logger.Error("Failed to list widgets", zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "list_widgets_failed", err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	response := WidgetListResponse{Widgets: widgets, Total: len(widgets)}
	if err := WriteJSON(w, http.StatusOK, models.APIResponse{Success: true, Data: response}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
