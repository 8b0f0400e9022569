package models

import "strings"

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleEmployee Role = "employee"
	RoleUnknown  Role = "unknown"
)

// ParseRole normalizes a raw role claim. Anything that is not a known role
// maps to RoleUnknown rather than an error, so callers can treat a bad
// credential the same as a missing one.
func ParseRole(raw string) Role {
	switch {
	case strings.EqualFold(raw, string(RoleAdmin)):
		return RoleAdmin
	case strings.EqualFold(raw, string(RoleEmployee)):
		return RoleEmployee
	default:
		return RoleUnknown
	}
}

// Session is the resolved identity of the current caller. It is derived from
// the bearer credential (or the upstream identity endpoint) and carried
// through the request context; the upstream backend re-validates the
// credential itself on every call.
type Session struct {
	UserID   int    `json:"userId"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
}

// Resolved reports whether the session carries a usable role.
func (s Session) Resolved() bool {
	return s.Role == RoleAdmin || s.Role == RoleEmployee
}
