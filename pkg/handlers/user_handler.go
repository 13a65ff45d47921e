package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vantagedesk/vantage-console/pkg/auth"
	"github.com/vantagedesk/vantage-console/pkg/models"
	"github.com/vantagedesk/vantage-console/pkg/services"
)

// UserListResponse for GET /api/users
type UserListResponse struct {
	Users []*models.User `json:"users"`
	Total int            `json:"total"`
}

// CreateUserRequest for POST /api/users
type CreateUserRequest struct {
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

// UpdateUserRoleRequest for PUT /api/users/{id}/role
type UpdateUserRoleRequest struct {
	Role string `json:"role"`
}

// SetUserActiveRequest for PUT /api/users/{id}/active
type SetUserActiveRequest struct {
	Active bool `json:"active"`
}

// UserHandler handles account administration.
type UserHandler struct {
	users  services.UserService
	logger *zap.Logger
}

// NewUserHandler creates a new user handler.
func NewUserHandler(users services.UserService, logger *zap.Logger) *UserHandler {
	return &UserHandler{users: users, logger: logger}
}

// RegisterRoutes registers the user handler's routes on the given mux.
// All account administration is admin only.
func (h *UserHandler) RegisterRoutes(mux *http.ServeMux, mw *auth.Middleware) {
	mux.HandleFunc("GET /api/users", mw.RequireAdmin(h.List))
	mux.HandleFunc("POST /api/users", mw.RequireAdmin(h.Create))
	mux.HandleFunc("GET /api/users/{id}", mw.RequireAdmin(h.Get))
	mux.HandleFunc("PUT /api/users/{id}/role", mw.RequireAdmin(h.UpdateRole))
	mux.HandleFunc("PUT /api/users/{id}/active", mw.RequireAdmin(h.SetActive))
}

// List handles GET /api/users
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		h.logger.Error("Failed to list users", zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "list_users_failed", err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	response := UserListResponse{Users: users, Total: len(users)}
	if err := WriteJSON(w, http.StatusOK, models.APIResponse{Success: true, Data: response}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Create handles POST /api/users
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	user := &models.User{
		Username: req.Username,
		Email:    req.Email,
		Role:     req.Role,
	}
	if err := h.users.Create(r.Context(), user, req.Password); err != nil {
		h.logger.Warn("Failed to create user", zap.String("username", req.Username), zap.Error(err))
		if err := ErrorResponse(w, http.StatusBadRequest, "validation_error", err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusCreated, models.APIResponse{Success: true, Data: user}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Get handles GET /api/users/{id}
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUserID(w, r, h.logger)
	if !ok {
		return
	}

	user, err := h.users.Get(r.Context(), id)
	if err != nil {
		status, code := StatusForError(err)
		if status == http.StatusInternalServerError {
			h.logger.Error("Failed to get user", zap.String("user_id", id.String()), zap.Error(err))
		}
		if err := ErrorResponse(w, status, code, "User not found"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, models.APIResponse{Success: true, Data: user}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// UpdateRole handles PUT /api/users/{id}/role
func (h *UserHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUserID(w, r, h.logger)
	if !ok {
		return
	}

	var req UpdateUserRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := h.users.UpdateRole(r.Context(), id, req.Role); err != nil {
		status, code := StatusForError(err)
		if status == http.StatusInternalServerError {
			h.logger.Error("Failed to update user role", zap.String("user_id", id.String()), zap.Error(err))
		}
		if err := ErrorResponse(w, status, code, err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, models.APIResponse{Success: true, Message: "Role updated"}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// SetActive handles PUT /api/users/{id}/active
func (h *UserHandler) SetActive(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUserID(w, r, h.logger)
	if !ok {
		return
	}

	var req SetUserActiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := h.users.SetActive(r.Context(), id, req.Active); err != nil {
		status, code := StatusForError(err)
		if status == http.StatusInternalServerError {
			h.logger.Error("Failed to set user active state", zap.String("user_id", id.String()), zap.Error(err))
		}
		if err := ErrorResponse(w, status, code, err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, models.APIResponse{Success: true, Message: "User updated"}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// parseUserID extracts the {id} path value as a UUID.
func parseUserID(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_id", "Invalid user id in path"); err != nil {
			logger.Error("Failed to write error response", zap.Error(err))
		}
		return uuid.Nil, false
	}
	return id, true
}
