// Package entity contains the marketplace's core types and the pure rules attached to them.
package entity

import (
	"slices"

	"github.com/google/uuid"
)

// Role is persisted on users.role and travels in access token claims.
type Role string

const (
	RoleUser Role = "user"
	// RoleAdmin may moderate any beat or comment.
	RoleAdmin Role = "admin"
)

func (r Role) String() string { return string(r) }

func (r Role) IsValid() bool {
	return r == RoleUser || r == RoleAdmin
}

// Roles is the claim representation of an account's roles.
type Roles []Role

func (rs Roles) Contains(role Role) bool {
	return slices.Contains(rs, role)
}

func (rs Roles) ToStrings() []string {
	out := make([]string, 0, len(rs))
	for _, r := range rs {
		out = append(out, string(r))
	}

	return out
}

// RolesFromStrings parses token claims; unknown names are dropped rather than rejected.
func RolesFromStrings(names []string) Roles {
	var out Roles
	for _, name := range names {
		if role := Role(name); role.IsValid() && !out.Contains(role) {
			out = append(out, role)
		}
	}

	return out
}

// Principal is the authenticated caller that ownership checks run against.
type Principal struct {
	UserID uuid.UUID
	Role   Role
}

func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// PrincipalFromRoles picks the strongest role; an empty set means RoleUser.
func PrincipalFromRoles(userID uuid.UUID, roles Roles) Principal {
	p := Principal{UserID: userID, Role: RoleUser}
	if roles.Contains(RoleAdmin) {
		p.Role = RoleAdmin
	}

	return p
}
