package models

import "time"

// DashboardWidget places a saved query on a classic (non-interactive)
// dashboard grid.
type DashboardWidget struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	QueryID   int64     `json:"query_id"`
	MenuID    *int64    `json:"menu_id,omitempty"`
	PositionX int       `json:"position_x"`
	PositionY int       `json:"position_y"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
