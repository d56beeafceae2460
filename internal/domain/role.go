package domain

import "fmt"

// Role is the closed set of account roles. Platform roles form a strict
// hierarchy; shop roles only carry meaning inside the shops where the
// account has staff standing.
type Role string

const (
	RoleOwner     Role = "OWNER"
	RoleSecurity  Role = "SECURITY"
	RoleHeadAdmin Role = "HEADADMIN"
	RoleAdmin     Role = "ADMIN"
	RoleModerator Role = "MODERATOR"
	RoleShopOwner Role = "SHOP_OWNER"
	RoleShopMain  Role = "SHOP_MAIN"
	RoleShopStaff Role = "SHOP_STAFF"
	RoleUser      Role = "USER"
)

// AllRoles lists every role from highest to lowest rank.
var AllRoles = []Role{
	RoleOwner,
	RoleSecurity,
	RoleHeadAdmin,
	RoleAdmin,
	RoleModerator,
	RoleShopOwner,
	RoleShopMain,
	RoleShopStaff,
	RoleUser,
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	for _, candidate := range AllRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseRole converts a raw value into a Role.
func ParseRole(raw string) (Role, error) {
	role := Role(raw)
	if !role.Valid() {
		return "", fmt.Errorf("unknown role %q", raw)
	}
	return role, nil
}
