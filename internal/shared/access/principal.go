package access

import "strings"

// Role is the coarse permission level carried by every authenticated user.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// ParseRole normalizes a stored or claimed role. Unknown values map to RoleUser.
func ParseRole(raw string) Role {
	if strings.EqualFold(strings.TrimSpace(raw), string(RoleAdmin)) {
		return RoleAdmin
	}
	return RoleUser
}

// Principal is the acting user passed explicitly into every operation.
type Principal struct {
	UserID string
	Name   string
	Email  string
	Role   Role
	Agency string
}

// IsAdmin reports whether the principal holds the admin role.
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// CanAccessAgency reports whether the principal may read or attach to
// resources owned by the given agency.
func (p Principal) CanAccessAgency(agency string) bool {
	if p.IsAdmin() {
		return true
	}
	return p.Agency != "" && p.Agency == agency
}

// AgencyScope returns the agency filter to apply to listings; admins see everything.
func (p Principal) AgencyScope() string {
	if p.IsAdmin() {
		return ""
	}
	return p.Agency
}
