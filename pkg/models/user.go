package models

import (
	"time"

	"github.com/google/uuid"
)

// User is an account in the console. Role holds a single canonical role
// code; an empty value displays as the default role.
type User struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RoleRecord is a row of the roles table. System roles are seeded by
// migration and cannot be created or deleted through the API.
type RoleRecord struct {
	Name     string `json:"name"`
	IsSystem bool   `json:"is_system"`
}

// KPI is a single numeric metric shown on the dashboard strip. Value is
// computed at read time by running SQLQuery; a failed query reports zero
// rather than breaking the strip.
type KPI struct {
	ID        int64   `json:"id"`
	Label     string  `json:"label"`
	SQLQuery  string  `json:"-"`
	SortOrder int     `json:"-"`
	IsActive  bool    `json:"-"`
	Value     float64 `json:"value"`
}
