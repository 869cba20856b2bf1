package models

// Role values carried in the identity token.
const (
	RoleStudent    = "student"
	RoleSupervisor = "supervisor"
	RoleAdmin      = "admin"
)

// Identity is the verified caller identity extracted from the bearer token.
// Service methods take it explicitly rather than reading ambient auth state.
type Identity struct {
	UserID        uint
	Role          string
	EmailVerified bool
}

// IsAdmin reports whether the caller holds the admin role.
func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}
