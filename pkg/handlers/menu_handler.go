package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/vantagedesk/vantage-console/pkg/auth"
	"github.com/vantagedesk/vantage-console/pkg/models"
	"github.com/vantagedesk/vantage-console/pkg/services"
)

// MenuTreeResponse for GET /api/menu
type MenuTreeResponse struct {
	Items []*models.MenuItem `json:"items"`
}

// SaveMenuItemRequest for POST /api/menu and PUT /api/menu/{id}
type SaveMenuItemRequest struct {
	ParentID            *int64  `json:"parent_id,omitempty"`
	Name                string  `json:"name"`
	Type                string  `json:"type"`
	Icon                string  `json:"icon,omitempty"`
	SortOrder           int     `json:"sort_order"`
	Role                string  `json:"role,omitempty"`
	InteractiveTemplate *string `json:"interactive_template,omitempty"`
}

// MenuHandler handles navigation tree reads and menu item management.
type MenuHandler struct {
	menus  services.MenuService
	logger *zap.Logger
}

// NewMenuHandler creates a new menu handler.
func NewMenuHandler(menus services.MenuService, logger *zap.Logger) *MenuHandler {
	return &MenuHandler{menus: menus, logger: logger}
}

// RegisterRoutes registers the menu handler's routes on the given mux.
func (h *MenuHandler) RegisterRoutes(mux *http.ServeMux, mw *auth.Middleware) {
	mux.HandleFunc("GET /api/menu", mw.RequireAuth(h.Tree))
	mux.HandleFunc("POST /api/menu", mw.RequireAdmin(h.Create))
	mux.HandleFunc("GET /api/menu/{id}", mw.RequireAdmin(h.Get))
	mux.HandleFunc("PUT /api/menu/{id}", mw.RequireAdmin(h.Update))
	mux.HandleFunc("DELETE /api/menu/{id}", mw.RequireAdmin(h.Delete))
}

// Tree handles GET /api/menu
func (h *MenuHandler) Tree(w http.ResponseWriter, r *http.Request) {
	role := auth.RoleFromContext(r.Context())

	items, err := h.menus.Tree(r.Context(), role)
	if err != nil {
		h.logger.Error("Failed to build menu tree", zap.String("role", role), zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "menu_tree_failed", err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, models.APIResponse{Success: true, Data: MenuTreeResponse{Items: items}}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Get handles GET /api/menu/{id}
func (h *MenuHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, h.logger)
	if !ok {
		return
	}

	item, err := h.menus.Get(r.Context(), id)
	if err != nil {
		status, code := StatusForError(err)
		if status == http.StatusInternalServerError {
			h.logger.Error("Failed to get menu item", zap.Int64("menu_id", id), zap.Error(err))
		}
		if err := ErrorResponse(w, status, code, "Menu item not found"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, models.APIResponse{Success: true, Data: item}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Create handles POST /api/menu
func (h *MenuHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req SaveMenuItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	item := req.toModel()
	if err := h.menus.Create(r.Context(), item); err != nil {
		h.logger.Warn("Failed to create menu item", zap.String("name", req.Name), zap.Error(err))
		if err := ErrorResponse(w, http.StatusBadRequest, "validation_error", err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusCreated, models.APIResponse{Success: true, Data: item}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Update handles PUT /api/menu/{id}
func (h *MenuHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, h.logger)
	if !ok {
		return
	}

	var req SaveMenuItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	item := req.toModel()
	item.ID = id
	if err := h.menus.Update(r.Context(), item); err != nil {
		status, code := StatusForError(err)
		if status == http.StatusInternalServerError {
			status, code = http.StatusBadRequest, "validation_error"
		}
		h.logger.Warn("Failed to update menu item", zap.Int64("menu_id", id), zap.Error(err))
		if err := ErrorResponse(w, status, code, err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, models.APIResponse{Success: true, Data: item}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Delete handles DELETE /api/menu/{id}
func (h *MenuHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.menus.Delete(r.Context(), id); err != nil {
		status, code := StatusForError(err)
		if status == http.StatusInternalServerError {
			h.logger.Error("Failed to delete menu item", zap.Int64("menu_id", id), zap.Error(err))
		}
		if err := ErrorResponse(w, status, code, "Could not delete menu item"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, models.APIResponse{Success: true, Message: "Menu item deleted"}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

func (req *SaveMenuItemRequest) toModel() *models.MenuItem {
	item := &models.MenuItem{
		ParentID:            req.ParentID,
		Name:                req.Name,
		Type:                req.Type,
		Icon:                req.Icon,
		SortOrder:           req.SortOrder,
		Role:                req.Role,
		InteractiveTemplate: req.InteractiveTemplate,
	}
	item.IsInteractiveDashboard = item.Type == models.MenuDashboard && req.InteractiveTemplate != nil
	return item
}
