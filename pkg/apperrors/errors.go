package apperrors

import "errors"

var (
	ErrNotFound       = errors.New("not found")
	ErrForbidden      = errors.New("forbidden")
	ErrConflict       = errors.New("conflict")
	ErrInvalidRole    = errors.New("invalid role")
	ErrRoleExists     = errors.New("role already exists")
	ErrRoleInUse      = errors.New("role still assigned to users")
	ErrSystemRole     = errors.New("reserved system role")
	ErrLastAdmin      = errors.New("cannot remove last admin")
	ErrExportInFlight = errors.New("an export is already in progress")
	ErrExportTimeout  = errors.New("export timed out")
)
