package identity

import "time"

type Role string

const (
	RoleSales      Role = "sales"
	RoleResearcher Role = "researcher"
	RoleAdmin      Role = "admin"
)

// ValidRole reports whether role is one of the three fixed roles.
func ValidRole(role Role) bool {
	switch role {
	case RoleSales, RoleResearcher, RoleAdmin:
		return true
	default:
		return false
	}
}

// User is the domain representation of an account. It mirrors the users
// table and carries no serialization tags so any presentation layer can
// shape it as needed.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	Role         Role
	DisplayName  string
	CreatedAt    time.Time
}
