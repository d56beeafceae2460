package domain

import "time"

// ShopStatus enumerates shop lifecycle states.
type ShopStatus string

const (
	ShopStatusActive  ShopStatus = "ACTIVE"
	ShopStatusPending ShopStatus = "PENDING"
	ShopStatusBlocked ShopStatus = "BLOCKED"
)

// Shop is a storefront owned by a user.
type Shop struct {
	ID        string
	Name      string
	OwnerID   string
	Status    ShopStatus
	CreatedAt time.Time
}

// ShopStaffMember grants a user staff standing inside one shop.
type ShopStaffMember struct {
	ShopID  string
	UserID  string
	Role    Role
	AddedAt time.Time
}
