package models

import "time"

// MenuItem is one node of the navigation tree. Dashboard-type items may
// carry an interactive HTML template whose binding markers are resolved by
// the dashboard package at render time.
type MenuItem struct {
	ID                     int64      `json:"id"`
	ParentID               *int64     `json:"parent_id,omitempty"`
	Name                   string     `json:"name"`
	Type                   string     `json:"type"` // 'folder', 'report', 'dashboard'
	Icon                   string     `json:"icon,omitempty"`
	SortOrder              int        `json:"sort_order"`
	Role                   string     `json:"role,omitempty"`
	IsInteractiveDashboard bool       `json:"is_interactive_dashboard"`
	InteractiveTemplate    *string    `json:"interactive_template,omitempty"`
	CreatedAt              time.Time  `json:"created_at"`
	UpdatedAt              time.Time  `json:"updated_at"`
	Children               []*MenuItem `json:"children,omitempty"`
}

// Menu item types.
const (
	MenuFolder    = "folder"
	MenuReport    = "report"
	MenuDashboard = "dashboard"
)
