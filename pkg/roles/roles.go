// Package roles is the single place role identifiers are normalized,
// compared, and merged. Role values arrive from several origins with
// inconsistent casing (the system enum, the roles table, free-text role
// columns on queries and menus, and user records); every access decision
// goes through the canonical form produced here. No other package compares
// raw role strings.
package roles

import (
	"sort"
	"strings"
)

// System role codes. These exist independently of the roles table and must
// stay in sync with the seed migration.
const (
	RoleAdmin   = "ADMIN"
	RoleITUser  = "IT_USER"
	RoleCEO     = "CEO"
	RoleFinance = "FINANCE_USER"
	RoleTech    = "TECH_USER"
	RoleUser    = "USER"
)

// DefaultRole is displayed and stored when a record carries no role at all.
const DefaultRole = RoleUser

// SystemRoles lists the built-in role codes in display order.
var SystemRoles = []string{RoleAdmin, RoleITUser, RoleCEO, RoleFinance, RoleTech, RoleUser}

var systemLabels = map[string]string{
	RoleAdmin:   "Admin",
	RoleUser:    "User",
	RoleITUser:  "IT User",
	RoleTech:    "Tech User",
	RoleCEO:     "CEO",
	RoleFinance: "Finance User",
}

var systemDescriptions = map[string]string{
	RoleAdmin:   "Full system access and user management",
	RoleITUser:  "IT infrastructure and system administration",
	RoleCEO:     "Executive dashboards and reports",
	RoleFinance: "Financial data and analytics",
	RoleTech:    "Technical metrics and system data",
	RoleUser:    "Basic access to assigned dashboards",
}

// Normalize converts a raw role value to its canonical form: trimmed,
// upper-cased, internal whitespace collapsed to underscores. Display labels
// are therefore aliases of their codes ("IT User" -> "IT_USER"). An empty
// or blank value maps to DefaultRole. Unrecognized values pass through so
// administrator-defined roles keep working; Normalize never fails.
func Normalize(raw string) string {
	fields := strings.Fields(strings.ToUpper(raw))
	if len(fields) == 0 {
		return DefaultRole
	}
	return strings.Join(fields, "_")
}

// IsSystem reports whether the role is one of the built-in system roles.
func IsSystem(role string) bool {
	for _, s := range SystemRoles {
		if Normalize(role) == s {
			return true
		}
	}
	return false
}

// IsAdmin reports whether the (possibly comma-separated) role value grants
// admin access.
func IsAdmin(role string) bool {
	for _, r := range Split(role) {
		if r == RoleAdmin {
			return true
		}
	}
	return false
}

// Authorized reports whether a user's role may access a record whose role
// column holds the comma-separated assignment. Admins always pass; an empty
// assignment means the record is unrestricted.
func Authorized(userRole, assigned string) bool {
	if IsAdmin(userRole) {
		return true
	}
	assignedSet := Split(assigned)
	if len(assignedSet) == 0 {
		return true
	}
	user := Normalize(userRole)
	for _, r := range assignedSet {
		if r == user {
			return true
		}
	}
	return false
}

// Split breaks a comma-separated role column into canonical tokens,
// dropping blanks. A nil result means "no restriction".
func Split(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		out = append(out, Normalize(part))
	}
	return out
}

// Serialize renders a role list as the sorted, deduplicated comma-separated
// form stored in role columns. Blank entries are dropped; an empty list
// serializes to "".
func Serialize(values []string) string {
	seen := make(map[string]struct{}, len(values))
	var out []string
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			continue
		}
		n := Normalize(v)
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	sort.Strings(out)
	return strings.Join(out, ",")
}

// MergeUniverse combines role identifiers from the four places they occur
// into one deduplicated vocabulary: the roles table is authoritative and
// goes first, then the system enum, then free-text roles embedded in saved
// queries and menu items. Entries keep first-seen order; duplicates under
// Normalize collapse to the earliest occurrence. Blank entries never make
// it into the universe.
func MergeUniverse(system, backend, queryEmbedded, menuEmbedded []string) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0, len(system)+len(backend))
	add := func(raw string) {
		if strings.TrimSpace(raw) == "" {
			return
		}
		n := Normalize(raw)
		if _, ok := seen[n]; ok {
			return
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	for _, r := range backend {
		add(r)
	}
	for _, r := range system {
		add(r)
	}
	for _, r := range queryEmbedded {
		add(r)
	}
	for _, r := range menuEmbedded {
		add(r)
	}
	return out
}

// FormatLabel turns a canonical role into its human label. System roles use
// fixed labels; custom roles are title-cased with underscores replaced by
// spaces. Normalize(FormatLabel(r)) == r holds for every system role.
func FormatLabel(role string) string {
	n := Normalize(role)
	if label, ok := systemLabels[n]; ok {
		return label
	}
	words := strings.Fields(strings.ReplaceAll(n, "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}

// Describe returns the role's description, falling back to the default
// role's description for custom roles.
func Describe(role string) string {
	if d, ok := systemDescriptions[Normalize(role)]; ok {
		return d
	}
	return systemDescriptions[DefaultRole]
}
