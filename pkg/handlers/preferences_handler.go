package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/sessions"
	"go.uber.org/zap"

	"github.com/vantagedesk/vantage-console/pkg/auth"
	"github.com/vantagedesk/vantage-console/pkg/models"
)

const (
	preferencesSession = "vantage_prefs"
	preferencesKey     = "prefs"
)

// Preferences is per-browser UI state. It lives in a signed cookie, not
// the database, so losing it only resets the presentation.
type Preferences struct {
	ExpandedMenuIDs []int64 `json:"expanded_menu_ids,omitempty"`
	PageSize        int     `json:"page_size,omitempty"`
	Theme           string  `json:"theme,omitempty"`
}

// PreferencesHandler persists UI preferences in a cookie session.
type PreferencesHandler struct {
	store  sessions.Store
	logger *zap.Logger
}

// NewPreferencesHandler creates a preferences handler backed by a signed
// cookie store.
func NewPreferencesHandler(sessionSecret string, logger *zap.Logger) *PreferencesHandler {
	store := sessions.NewCookieStore([]byte(sessionSecret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 30,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	return &PreferencesHandler{store: store, logger: logger}
}

// RegisterRoutes registers the preferences handler's routes on the given mux.
func (h *PreferencesHandler) RegisterRoutes(mux *http.ServeMux, mw *auth.Middleware) {
	mux.HandleFunc("GET /api/preferences", mw.RequireAuth(h.Get))
	mux.HandleFunc("PUT /api/preferences", mw.RequireAuth(h.Put))
}

// Get handles GET /api/preferences
func (h *PreferencesHandler) Get(w http.ResponseWriter, r *http.Request) {
	prefs := h.load(r)
	if err := WriteJSON(w, http.StatusOK, models.APIResponse{Success: true, Data: prefs}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Put handles PUT /api/preferences
func (h *PreferencesHandler) Put(w http.ResponseWriter, r *http.Request) {
	var prefs Preferences
	if err := json.NewDecoder(r.Body).Decode(&prefs); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	// Preference persistence is best effort. A cookie that fails to save
	// must not break the request that carried it.
	session, _ := h.store.Get(r, preferencesSession)
	encoded, err := json.Marshal(prefs)
	if err != nil {
		h.logger.Warn("Failed to encode preferences", zap.Error(err))
	} else {
		session.Values[preferencesKey] = string(encoded)
		if err := session.Save(r, w); err != nil {
			h.logger.Warn("Failed to save preferences cookie", zap.Error(err))
		}
	}

	if err := WriteJSON(w, http.StatusOK, models.APIResponse{Success: true, Data: prefs}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// load returns the stored preferences, or zero values when the cookie is
// missing or unreadable.
func (h *PreferencesHandler) load(r *http.Request) Preferences {
	var prefs Preferences
	session, err := h.store.Get(r, preferencesSession)
	if err != nil {
		// A tampered or re-keyed cookie decodes as empty preferences.
		return prefs
	}
	raw, ok := session.Values[preferencesKey].(string)
	if !ok {
		return prefs
	}
	if err := json.Unmarshal([]byte(raw), &prefs); err != nil {
		h.logger.Debug("Discarding unreadable preferences cookie", zap.Error(err))
	}
	return prefs
}
