package auth

// Package auth contains domain-level types for directory authentication and sessions.
// It is pure and free of framework/adapter concerns.

import (
	"slices"
	"time"
)

// Role represents an application's authorization role.
// Keep string form for easy persistence and cookies.
type Role string

const (
	RoleRead   Role = "read"
	RoleChange Role = "change"
	RoleFull   Role = "full"
)

// AllRoles lists roles from least to most privileged.
var AllRoles = []Role{RoleRead, RoleChange, RoleFull}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return slices.Contains(AllRoles, r)
}

// RoleSet is an unordered collection of roles.
type RoleSet map[Role]struct{}

// NewRoleSet builds a set from the given roles. Unknown roles are dropped.
func NewRoleSet(roles ...Role) RoleSet {
	set := make(RoleSet, len(roles))
	for _, r := range roles {
		if r.Valid() {
			set[r] = struct{}{}
		}
	}
	return set
}

// Has reports whether the set contains r.
func (s RoleSet) Has(r Role) bool {
	_, ok := s[r]
	return ok
}

// Normalize returns a copy of s closed under the hierarchy full ⇒ change ⇒ read.
func (s RoleSet) Normalize() RoleSet {
	out := make(RoleSet, len(AllRoles))
	for r := range s {
		if r.Valid() {
			out[r] = struct{}{}
		}
	}
	if out.Has(RoleFull) {
		out[RoleChange] = struct{}{}
		out[RoleRead] = struct{}{}
	}
	if out.Has(RoleChange) {
		out[RoleRead] = struct{}{}
	}
	return out
}

// Slice returns the roles in hierarchy order (read, change, full).
func (s RoleSet) Slice() []Role {
	out := make([]Role, 0, len(s))
	for _, r := range AllRoles {
		if s.Has(r) {
			out = append(out, r)
		}
	}
	return out
}

// Identity is the authenticated principal produced by a successful directory login.
// It is never persisted by the authentication core.
type Identity struct {
	Username string
	UserDN   string
	Roles    RoleSet
}

// Session is the server-side record we persist for an authenticated user.
// ID is an opaque session identifier.
type Session struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	UserDN    string    `json:"user_dn"`
	Roles     []Role    `json:"roles"`
	ExpiresAt time.Time `json:"expires_at"`
}

// RoleSet returns the session roles as a normalized set.
func (s Session) RoleSet() RoleSet {
	return NewRoleSet(s.Roles...).Normalize()
}

// HasRole reports whether the session grants r, honouring the role hierarchy.
func (s Session) HasRole(r Role) bool {
	return s.RoleSet().Has(r)
}
