package model

// Role is the coarse access level of a user.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// Privileges returns the privilege codes granted to r.
func (r Role) Privileges() []string {
	codes := make([]string, 0, len(DefaultPrivileges))
	for _, p := range DefaultPrivileges {
		if r == RoleAdmin || !p.AdminOnly {
			codes = append(codes, p.Code)
		}
	}
	return codes
}

// Roles lists every role in display order.
var Roles = []Role{RoleAdmin, RoleUser}
