package domain

import "time"

// User is the marketplace account. Block fields are owned by the blocking
// workflow; everything else is managed by the account service.
type User struct {
	ID            string
	Username      string
	DisplayName   string
	Role          Role
	IsBlocked     bool
	BlockReason   *string
	BlockedAt     *time.Time
	BlockDuration *string
	// BlockedByID is nil for system-initiated blocks.
	BlockedByID *string
	IsPremium   bool
	IsVerified  bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// BlockRecord is written atomically onto a user when a block is applied.
type BlockRecord struct {
	Reason      string
	Duration    *string
	BlockedByID *string
	BlockedAt   time.Time
}
