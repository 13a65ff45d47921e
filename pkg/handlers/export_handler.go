package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/vantagedesk/vantage-console/pkg/auth"
	"github.com/vantagedesk/vantage-console/pkg/export"
	"github.com/vantagedesk/vantage-console/pkg/exportfile"
	"github.com/vantagedesk/vantage-console/pkg/roles"
	"github.com/vantagedesk/vantage-console/pkg/services"
)

// ExportHandler streams complete-dataset export files. Each caller gets one
// export slot; a second request while one is pending gets a conflict
// instead of racing two jobs. Current-view CSV is serialized in the browser
// from the loaded view and never reaches this endpoint.
type ExportHandler struct {
	queries services.QueryService
	exports *export.Slots
	logger  *zap.Logger
	now     func() time.Time
}

// NewExportHandler creates a new export handler.
func NewExportHandler(queries services.QueryService, exports *export.Slots, logger *zap.Logger) *ExportHandler {
	return &ExportHandler{queries: queries, exports: exports, logger: logger, now: time.Now}
}

// RegisterRoutes registers the export handler's routes on the given mux.
func (h *ExportHandler) RegisterRoutes(mux *http.ServeMux, mw *auth.Middleware) {
	mux.HandleFunc("POST /api/export", mw.RequireAuth(h.Export))
}

// Export handles POST /api/export
func (h *ExportHandler) Export(w http.ResponseWriter, r *http.Request) {
	var req export.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}
	if req.Scope == "" {
		req.Scope = export.ScopeComplete
	}
	if !h.acceptable(w, req) {
		return
	}

	role := auth.RoleFromContext(r.Context())
	if !h.permitted(w, r, req, role) {
		return
	}

	caller := auth.UserIDFromContext(r.Context())
	job, err := h.exports.For(caller).Start(r.Context(), req, nil)
	if err != nil {
		status, code := StatusForError(err)
		if err := ErrorResponse(w, status, code, "Another export is already running"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	switch job.State {
	case export.StateSuccess:
		h.stream(w, req, job.File)
	case export.StateTimedOut:
		if err := ErrorResponse(w, http.StatusGatewayTimeout, "export_timeout", job.Message); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
	default:
		h.logger.Error("Export failed",
			zap.Int64("query_id", req.QueryID),
			zap.String("format", req.Format),
			zap.String("state", job.State),
			zap.String("message", job.Message))
		if err := ErrorResponse(w, http.StatusInternalServerError, "internal_error", "Export failed"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
	}
}

// acceptable rejects requests the coordinator could never complete here:
// unknown formats, unknown scopes, and current-view CSV, which the browser
// builds locally from view state the server does not hold.
func (h *ExportHandler) acceptable(w http.ResponseWriter, req export.Request) bool {
	reason := ""
	switch {
	case req.Format != exportfile.FormatCSV && req.Format != exportfile.FormatExcel:
		reason = fmt.Sprintf("Unsupported export format %q", req.Format)
	case req.Scope != export.ScopeCurrent && req.Scope != export.ScopeComplete:
		reason = fmt.Sprintf("Unsupported export scope %q", req.Scope)
	case req.Scope == export.ScopeCurrent && req.Format == exportfile.FormatCSV:
		reason = "Current-view CSV exports are generated client side"
	}
	if reason == "" {
		return true
	}
	if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", reason); err != nil {
		h.logger.Error("Failed to write error response", zap.Error(err))
	}
	return false
}

func (h *ExportHandler) stream(w http.ResponseWriter, req export.Request, file *export.File) {
	name := h.filename(req)
	w.Header().Set("Content-Type", file.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("Content-Length", strconv.Itoa(len(file.Data)))
	if _, err := w.Write(file.Data); err != nil {
		h.logger.Error("Failed to stream export", zap.String("filename", name), zap.Error(err))
	}
}

// permitted applies the per-query role gate. Raw SQL exports bypass saved
// query assignments entirely, so they are admin only.
func (h *ExportHandler) permitted(w http.ResponseWriter, r *http.Request, req export.Request, role string) bool {
	if req.QueryID <= 0 {
		if roles.IsAdmin(role) {
			return true
		}
		if err := ErrorResponse(w, http.StatusForbidden, "forbidden", "Raw SQL export requires admin access"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return false
	}

	query, err := h.queries.Get(r.Context(), req.QueryID)
	if err != nil {
		status, code := StatusForError(err)
		if status == http.StatusInternalServerError {
			h.logger.Error("Failed to load query for export", zap.Int64("query_id", req.QueryID), zap.Error(err))
		}
		if err := ErrorResponse(w, status, code, "Query not found"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return false
	}

	if !roles.Authorized(role, query.Role) {
		h.logger.Warn("Export denied",
			zap.Int64("query_id", req.QueryID),
			zap.String("user_id", auth.UserIDFromContext(r.Context())),
			zap.String("role", role))
		if err := ErrorResponse(w, http.StatusForbidden, "forbidden", "You do not have access to this query"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return false
	}
	return true
}

func (h *ExportHandler) filename(req export.Request) string {
	name := strings.TrimSpace(req.Filename)
	if name == "" {
		name = exportfile.DefaultFilename(h.now())
	}
	ext := ".csv"
	if req.Format == exportfile.FormatExcel {
		ext = ".xlsx"
	}
	if !strings.HasSuffix(name, ext) {
		name += ext
	}
	return name
}
