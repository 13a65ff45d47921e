package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/vantagedesk/vantage-console/pkg/auth"
	"github.com/vantagedesk/vantage-console/pkg/models"
	"github.com/vantagedesk/vantage-console/pkg/services"
)

// RoleListResponse for GET /api/roles
type RoleListResponse struct {
	Roles []services.RoleInfo `json:"roles"`
	Total int                 `json:"total"`
}

// CreateRoleRequest for POST /api/roles
type CreateRoleRequest struct {
	Name string `json:"name"`
}

// PurgeRolesResponse for POST /api/roles/purge
type PurgeRolesResponse struct {
	Purged []string `json:"purged"`
	Total  int      `json:"total"`
}

// RoleHandler handles role registry management.
type RoleHandler struct {
	roles  services.RoleService
	logger *zap.Logger
}

// NewRoleHandler creates a new role handler.
func NewRoleHandler(roles services.RoleService, logger *zap.Logger) *RoleHandler {
	return &RoleHandler{roles: roles, logger: logger}
}

// RegisterRoutes registers the role handler's routes on the given mux.
// Listing is available to any authenticated user so assignment pickers can
// populate; mutation is admin only.
func (h *RoleHandler) RegisterRoutes(mux *http.ServeMux, mw *auth.Middleware) {
	mux.HandleFunc("GET /api/roles", mw.RequireAuth(h.List))
	mux.HandleFunc("POST /api/roles", mw.RequireAdmin(h.Create))
	mux.HandleFunc("POST /api/roles/purge", mw.RequireAdmin(h.Purge))
	mux.HandleFunc("GET /api/roles/{name}/users", mw.RequireAdmin(h.Users))
	mux.HandleFunc("DELETE /api/roles/{name}", mw.RequireAdmin(h.Delete))
}

// List handles GET /api/roles
func (h *RoleHandler) List(w http.ResponseWriter, r *http.Request) {
	infos, err := h.roles.List(r.Context())
	if err != nil {
		h.logger.Error("Failed to list roles", zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "list_roles_failed", err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	response := RoleListResponse{Roles: infos, Total: len(infos)}
	if err := WriteJSON(w, http.StatusOK, models.APIResponse{Success: true, Data: response}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Create handles POST /api/roles
func (h *RoleHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	code, err := h.roles.Create(r.Context(), req.Name)
	if err != nil {
		status, errCode := StatusForError(err)
		if status == http.StatusInternalServerError {
			h.logger.Error("Failed to create role", zap.String("name", req.Name), zap.Error(err))
		} else {
			h.logger.Warn("Rejected role creation", zap.String("name", req.Name), zap.Error(err))
		}
		if err := ErrorResponse(w, status, errCode, err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusCreated, models.APIResponse{Success: true, Data: map[string]string{"code": code}}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Users handles GET /api/roles/{name}/users
func (h *RoleHandler) Users(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	users, err := h.roles.UsersWith(r.Context(), name)
	if err != nil {
		h.logger.Error("Failed to list role users", zap.String("role", name), zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "list_role_users_failed", err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	response := UserListResponse{Users: users, Total: len(users)}
	if err := WriteJSON(w, http.StatusOK, models.APIResponse{Success: true, Data: response}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Purge handles POST /api/roles/purge
func (h *RoleHandler) Purge(w http.ResponseWriter, r *http.Request) {
	purged, err := h.roles.PurgeStale(r.Context())
	if err != nil {
		h.logger.Error("Failed to purge stale roles", zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "purge_roles_failed", err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	response := PurgeRolesResponse{Purged: purged, Total: len(purged)}
	if err := WriteJSON(w, http.StatusOK, models.APIResponse{Success: true, Data: response}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Delete handles DELETE /api/roles/{name}. An optional reassign_to query
// parameter moves users and assignments to another role instead of
// scrubbing the deleted one.
func (h *RoleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if name == "" {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Role name is required"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := h.roles.Delete(r.Context(), name, r.URL.Query().Get("reassign_to")); err != nil {
		status, code := StatusForError(err)
		if status == http.StatusInternalServerError {
			h.logger.Error("Failed to delete role", zap.String("name", name), zap.Error(err))
		}
		if err := ErrorResponse(w, status, code, err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, models.APIResponse{Success: true, Message: "Role deleted"}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
