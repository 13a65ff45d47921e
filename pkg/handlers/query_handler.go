package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/vantagedesk/vantage-console/pkg/auth"
	"github.com/vantagedesk/vantage-console/pkg/datasource"
	"github.com/vantagedesk/vantage-console/pkg/models"
	"github.com/vantagedesk/vantage-console/pkg/services"
)

// QueryListResponse for GET /api/queries
type QueryListResponse struct {
	Queries []*models.Query `json:"queries"`
	Total   int             `json:"total"`
}

// SaveQueryRequest for POST /api/queries and PUT /api/queries/{id}
type SaveQueryRequest struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	SQLQuery    string         `json:"sql_query"`
	ChartType   string         `json:"chart_type,omitempty"`
	ChartConfig map[string]any `json:"chart_config,omitempty"`
	MenuItemID  *int64         `json:"menu_item_id,omitempty"`
	Role        string         `json:"role,omitempty"`
}

// ExecuteQueryRequest for POST /api/queries/{id}/execute. Filters are
// optional dashboard control conditions applied on top of the saved SQL.
type ExecuteQueryRequest struct {
	Filters *datasource.FilterSet `json:"filters,omitempty"`
}

// ValidateQueryRequest for POST /api/queries/validate
type ValidateQueryRequest struct {
	SQLQuery string `json:"sql_query"`
}

// QueryHandler handles saved query management and execution.
type QueryHandler struct {
	queries services.QueryService
	logger  *zap.Logger
}

// NewQueryHandler creates a new query handler.
func NewQueryHandler(queries services.QueryService, logger *zap.Logger) *QueryHandler {
	return &QueryHandler{queries: queries, logger: logger}
}

// RegisterRoutes registers the query handler's routes on the given mux.
// Management is admin only; execution is open to any authenticated user
// and role-gated per query by the service.
func (h *QueryHandler) RegisterRoutes(mux *http.ServeMux, mw *auth.Middleware) {
	mux.HandleFunc("GET /api/queries", mw.RequireAdmin(h.List))
	mux.HandleFunc("POST /api/queries", mw.RequireAdmin(h.Create))
	mux.HandleFunc("POST /api/queries/validate", mw.RequireAdmin(h.Validate))
	mux.HandleFunc("GET /api/queries/{id}", mw.RequireAdmin(h.Get))
	mux.HandleFunc("PUT /api/queries/{id}", mw.RequireAdmin(h.Update))
	mux.HandleFunc("DELETE /api/queries/{id}", mw.RequireAdmin(h.Delete))
	mux.HandleFunc("POST /api/queries/{id}/execute", mw.RequireAuth(h.Execute))
	mux.HandleFunc("GET /api/menu/{id}/queries", mw.RequireAuth(h.ListForMenu))
}

// List handles GET /api/queries
func (h *QueryHandler) List(w http.ResponseWriter, r *http.Request) {
	queries, err := h.queries.List(r.Context())
	if err != nil {
		h.logger.Error("Failed to list queries", zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "list_queries_failed", err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	response := QueryListResponse{Queries: queries, Total: len(queries)}
	if err := WriteJSON(w, http.StatusOK, models.APIResponse{Success: true, Data: response}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// ListForMenu handles GET /api/menu/{id}/queries. It returns only the
// reports the caller's role may run.
func (h *QueryHandler) ListForMenu(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, h.logger)
	if !ok {
		return
	}

	role := auth.RoleFromContext(r.Context())
	queries, err := h.queries.ListForMenu(r.Context(), id, role)
	if err != nil {
		h.logger.Error("Failed to list menu queries", zap.Int64("menu_id", id), zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "list_queries_failed", err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	response := QueryListResponse{Queries: queries, Total: len(queries)}
	if err := WriteJSON(w, http.StatusOK, models.APIResponse{Success: true, Data: response}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Create handles POST /api/queries
func (h *QueryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req SaveQueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	query := req.toModel()
	if err := h.queries.Create(r.Context(), query); err != nil {
		h.logger.Warn("Failed to create query", zap.String("name", req.Name), zap.Error(err))
		if err := ErrorResponse(w, http.StatusBadRequest, "validation_error", err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusCreated, models.APIResponse{Success: true, Data: query}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Get handles GET /api/queries/{id}
func (h *QueryHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, h.logger)
	if !ok {
		return
	}

	query, err := h.queries.Get(r.Context(), id)
	if err != nil {
		status, code := StatusForError(err)
		if status == http.StatusInternalServerError {
			h.logger.Error("Failed to get query", zap.Int64("query_id", id), zap.Error(err))
		}
		if err := ErrorResponse(w, status, code, "Query not found"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, models.APIResponse{Success: true, Data: query}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Update handles PUT /api/queries/{id}
func (h *QueryHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, h.logger)
	if !ok {
		return
	}

	var req SaveQueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	query := req.toModel()
	query.ID = id
	if err := h.queries.Update(r.Context(), query); err != nil {
		status, code := StatusForError(err)
		if status == http.StatusInternalServerError {
			// Service validation errors are plain errors, not sentinels.
			status, code = http.StatusBadRequest, "validation_error"
		}
		h.logger.Warn("Failed to update query", zap.Int64("query_id", id), zap.Error(err))
		if err := ErrorResponse(w, status, code, err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, models.APIResponse{Success: true, Data: query}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Delete handles DELETE /api/queries/{id}
func (h *QueryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.queries.Delete(r.Context(), id); err != nil {
		status, code := StatusForError(err)
		if status == http.StatusInternalServerError {
			h.logger.Error("Failed to delete query", zap.Int64("query_id", id), zap.Error(err))
		}
		if err := ErrorResponse(w, status, code, "Could not delete query"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, models.APIResponse{Success: true, Message: "Query deleted"}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Execute handles POST /api/queries/{id}/execute
func (h *QueryHandler) Execute(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, h.logger)
	if !ok {
		return
	}

	// Body is optional; an empty body means no filters.
	var req ExecuteQueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	role := auth.RoleFromContext(r.Context())

	var (
		result *models.QueryResult
		err    error
	)
	if req.Filters != nil && !req.Filters.Empty() {
		result, err = h.queries.ExecuteFiltered(r.Context(), id, role, req.Filters)
	} else {
		result, err = h.queries.Execute(r.Context(), id, role)
	}
	if err != nil {
		status, code := StatusForError(err)
		if status == http.StatusInternalServerError {
			h.logger.Error("Failed to execute query", zap.Int64("query_id", id), zap.Error(err))
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

// Validate handles POST /api/queries/validate
func (h *QueryHandler) Validate(w http.ResponseWriter, r *http.Request) {
	var req ValidateQueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := h.queries.Validate(r.Context(), req.SQLQuery); err != nil {
		if err := WriteJSON(w, http.StatusOK, models.APIResponse{Success: false, Error: err.Error()}); err != nil {
			h.logger.Error("Failed to write response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, models.APIResponse{Success: true, Message: "Query is valid"}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

func (req *SaveQueryRequest) toModel() *models.Query {
	query := &models.Query{
		Name:        req.Name,
		SQLQuery:    req.SQLQuery,
		ChartType:   req.ChartType,
		ChartConfig: req.ChartConfig,
		MenuItemID:  req.MenuItemID,
		Role:        req.Role,
	}
	if req.Description != "" {
		query.Description = &req.Description
	}
	return query
}

// parseID extracts the {id} path value. Writes a 400 response and returns
// false when it is missing or not a positive integer.
func parseID(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (int64, bool) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_id", "Invalid id in path"); err != nil {
			logger.Error("Failed to write error response", zap.Error(err))
		}
		return 0, false
	}
	return id, true
}
