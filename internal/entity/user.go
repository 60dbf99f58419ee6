package entity

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleCompany  Role = "company"
	RoleEmployee Role = "employee"
)

func IsValidRole(role string) bool {
	switch Role(role) {
	case RoleAdmin, RoleCompany, RoleEmployee:
		return true
	default:
		return false
	}
}

// UserLoginData is the caller identity taken from the access token. For a
// company account ID and OrganizationID are the same.
type UserLoginData struct {
	ID             string
	Email          string
	Role           Role
	OrganizationID string
}
