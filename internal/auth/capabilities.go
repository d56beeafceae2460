package auth

import (
	"slices"

	"github.com/spec-kit/moderation-service/internal/domain"
)

// Capability names a permission granted to a role.
type Capability string

const (
	CapManageUsers      Capability = "manageUsers"
	CapManageShops      Capability = "manageShops"
	CapManageComplaints Capability = "manageComplaints"
	CapCreateAccounts   Capability = "createAccounts"
	CapBlockUsers       Capability = "blockUsers"
	CapViewAdminPanel   Capability = "viewAdminPanel"
)

// Capabilities is the capability set of a role.
type Capabilities struct {
	ManageUsers      bool
	ManageShops      bool
	ManageComplaints bool
	CreateAccounts   bool
	BlockUsers       bool
	ViewAdminPanel   bool
}

// Has reports whether the set contains c.
func (c Capabilities) Has(capability Capability) bool {
	switch capability {
	case CapManageUsers:
		return c.ManageUsers
	case CapManageShops:
		return c.ManageShops
	case CapManageComplaints:
		return c.ManageComplaints
	case CapCreateAccounts:
		return c.CreateAccounts
	case CapBlockUsers:
		return c.BlockUsers
	case CapViewAdminPanel:
		return c.ViewAdminPanel
	}
	return false
}

// Shop roles hold manageShops/manageComplaints only inside their own shops;
// scope is enforced by CanAccessShop.
var capabilityTable = map[domain.Role]Capabilities{
	domain.RoleOwner: {
		ManageUsers: true, ManageShops: true, ManageComplaints: true,
		CreateAccounts: true, BlockUsers: true, ViewAdminPanel: true,
	},
	domain.RoleSecurity: {
		ManageUsers: true, ManageShops: true, ManageComplaints: true,
		CreateAccounts: true, BlockUsers: true, ViewAdminPanel: true,
	},
	domain.RoleHeadAdmin: {
		ManageUsers: true, ManageShops: true, ManageComplaints: true,
		CreateAccounts: true, BlockUsers: true, ViewAdminPanel: true,
	},
	domain.RoleAdmin: {
		ManageUsers: true, ManageShops: true, ManageComplaints: true,
		BlockUsers: true, ViewAdminPanel: true,
	},
	domain.RoleModerator: {
		ManageComplaints: true, BlockUsers: true, ViewAdminPanel: true,
	},
	domain.RoleShopOwner: {ManageShops: true, ManageComplaints: true},
	domain.RoleShopMain:  {ManageShops: true, ManageComplaints: true},
	domain.RoleShopStaff: {ManageComplaints: true},
	domain.RoleUser:      {},
}

// Platform roles are ranked; shop roles sit below every platform staff role
// and above USER.
var rankTable = map[domain.Role]int{
	domain.RoleOwner:     100,
	domain.RoleSecurity:  90,
	domain.RoleHeadAdmin: 80,
	domain.RoleAdmin:     70,
	domain.RoleModerator: 60,
	domain.RoleShopOwner: 30,
	domain.RoleShopMain:  30,
	domain.RoleShopStaff: 20,
	domain.RoleUser:      10,
}

// CapabilitiesOf returns the static capability set for role. Unknown roles
// get the empty set.
func CapabilitiesOf(role domain.Role) Capabilities {
	return capabilityTable[role]
}

// Rank returns the hierarchy rank of role, 0 for unknown roles.
func Rank(role domain.Role) int {
	return rankTable[role]
}

// Outranks reports whether a sits strictly above b.
func Outranks(a, b domain.Role) bool {
	return Rank(a) > Rank(b)
}

// IsPlatformStaff reports whether role belongs to the platform hierarchy
// above USER.
func IsPlatformStaff(role domain.Role) bool {
	switch role {
	case domain.RoleOwner, domain.RoleSecurity, domain.RoleHeadAdmin, domain.RoleAdmin, domain.RoleModerator:
		return true
	}
	return false
}

// HasFullAccess is true only for OWNER and SECURITY.
func HasFullAccess(role domain.Role) bool {
	return role == domain.RoleOwner || role == domain.RoleSecurity
}

// HasAdminAccess is true for OWNER, SECURITY, HEADADMIN and ADMIN.
func HasAdminAccess(role domain.Role) bool {
	switch role {
	case domain.RoleOwner, domain.RoleSecurity, domain.RoleHeadAdmin, domain.RoleAdmin:
		return true
	}
	return false
}

// IsShopStaff is true for SHOP_OWNER, SHOP_MAIN and SHOP_STAFF.
func IsShopStaff(role domain.Role) bool {
	switch role {
	case domain.RoleShopOwner, domain.RoleShopMain, domain.RoleShopStaff:
		return true
	}
	return false
}

// CanAccessShop reports whether an actor may work inside shopID: admins
// everywhere, shop staff only in shops where they hold standing.
func CanAccessShop(role domain.Role, shopIDs []string, shopID string) bool {
	if HasAdminAccess(role) {
		return true
	}
	return IsShopStaff(role) && slices.Contains(shopIDs, shopID)
}

// CanActOnTicket reports whether the actor may see and work a ticket in scope.
func CanActOnTicket(role domain.Role, shopIDs []string, scope domain.TicketScope) bool {
	if HasAdminAccess(role) {
		return true
	}
	shopID, ok := scope.Shop()
	if !ok {
		return false
	}
	return CanAccessShop(role, shopIDs, shopID)
}
