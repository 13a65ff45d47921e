package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/vantagedesk/vantage-console/pkg/apperrors"
)

// ErrorResponse writes a JSON error response and returns any encoding error.
func ErrorResponse(w http.ResponseWriter, statusCode int, errorCode, message string) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(map[string]string{
		"error":   errorCode,
		"message": message,
	})
}

// WriteJSON writes a JSON response and returns any encoding error.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	if statusCode != http.StatusOK {
		w.WriteHeader(statusCode)
	}
	return json.NewEncoder(w).Encode(data)
}

// StatusForError maps service sentinel errors to an HTTP status and error
// code. Unrecognized errors map to 500 / internal_error; handlers that
// treat unknown errors as validation failures override the default.
func StatusForError(err error) (int, string) {
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, apperrors.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, apperrors.ErrInvalidRole):
		return http.StatusBadRequest, "invalid_role"
	case errors.Is(err, apperrors.ErrRoleExists):
		return http.StatusConflict, "role_exists"
	case errors.Is(err, apperrors.ErrRoleInUse):
		return http.StatusConflict, "role_in_use"
	case errors.Is(err, apperrors.ErrSystemRole):
		return http.StatusConflict, "system_role"
	case errors.Is(err, apperrors.ErrLastAdmin):
		return http.StatusConflict, "last_admin"
	case errors.Is(err, apperrors.ErrConflict):
		return http.StatusConflict, "conflict"
	case errors.Is(err, apperrors.ErrExportInFlight):
		return http.StatusConflict, "export_in_flight"
	case errors.Is(err, apperrors.ErrExportTimeout):
		return http.StatusGatewayTimeout, "export_timeout"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
