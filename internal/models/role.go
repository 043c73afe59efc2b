package models

import "strings"

// Role is the closed set of duties a principal can hold.
type Role string

const (
	RoleAdministrator     Role = "administrator"
	RoleCommandingOfficer Role = "commanding_officer"
	RoleSupervisor        Role = "supervisor"
	RoleInvestigator      Role = "investigator"
	RoleAnalyst           Role = "analyst"
	RoleExhibitOfficer    Role = "exhibit_officer"
)

// Roles lists every role in display order.
var Roles = []Role{
	RoleAdministrator,
	RoleCommandingOfficer,
	RoleSupervisor,
	RoleInvestigator,
	RoleAnalyst,
	RoleExhibitOfficer,
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	for _, known := range Roles {
		if r == known {
			return true
		}
	}
	return false
}

// ParseRole normalises input such as "Exhibit_Officer".
func ParseRole(raw string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(raw)))
	return r, r.Valid()
}

// Principal is the authenticated actor performing an operation.
type Principal struct {
	ID          string `json:"id"`
	Role        Role   `json:"role"`
	Name        string `json:"name"`
	BadgeNumber string `json:"badge_number"`
}

// Valid reports whether the principal carries an id and a known role.
func (p Principal) Valid() bool {
	return p.ID != "" && p.Role.Valid()
}

// Is reports whether the principal holds any of roles.
func (p Principal) Is(roles ...Role) bool {
	for _, r := range roles {
		if p.Role == r {
			return true
		}
	}
	return false
}

// Officer returns the custody ledger view of the principal. The id stands
// in for a missing name.
func (p Principal) Officer() Officer {
	name := p.Name
	if name == "" {
		name = p.ID
	}
	return Officer{ID: p.ID, Name: name, Badge: p.BadgeNumber}
}
