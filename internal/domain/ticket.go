package domain

import (
	"errors"
	"time"
)

// TicketStatus enumerates lifecycle states for complaint tickets.
type TicketStatus string

const (
	TicketStatusPending    TicketStatus = "PENDING"
	TicketStatusInProgress TicketStatus = "IN_PROGRESS"
	TicketStatusResolved   TicketStatus = "RESOLVED"
	TicketStatusRejected   TicketStatus = "REJECTED"
)

// Terminal reports whether no further transition is possible.
func (s TicketStatus) Terminal() bool {
	return s == TicketStatusResolved || s == TicketStatusRejected
}

// Valid reports whether s is a known status.
func (s TicketStatus) Valid() bool {
	switch s {
	case TicketStatusPending, TicketStatusInProgress, TicketStatusResolved, TicketStatusRejected:
		return true
	}
	return false
}

// ScopeKind tags a TicketScope.
type ScopeKind string

const (
	ScopePlatform ScopeKind = "PLATFORM"
	ScopeShop     ScopeKind = "SHOP"
)

// TicketScope is either Platform or Shop(ShopID).
type TicketScope struct {
	Kind   ScopeKind
	ShopID string
}

// PlatformScope returns the platform-wide scope.
func PlatformScope() TicketScope {
	return TicketScope{Kind: ScopePlatform}
}

// ShopScope returns the scope of a single shop.
func ShopScope(shopID string) TicketScope {
	return TicketScope{Kind: ScopeShop, ShopID: shopID}
}

// IsPlatform reports whether the scope is Platform.
func (s TicketScope) IsPlatform() bool {
	return s.Kind == ScopePlatform
}

// Shop returns the shop id for Shop scopes.
func (s TicketScope) Shop() (string, bool) {
	if s.Kind != ScopeShop {
		return "", false
	}
	return s.ShopID, true
}

// Validate checks the variant is well formed.
func (s TicketScope) Validate() error {
	switch s.Kind {
	case ScopePlatform:
		if s.ShopID != "" {
			return errors.New("platform scope cannot reference a shop")
		}
		return nil
	case ScopeShop:
		if s.ShopID == "" {
			return errors.New("shop scope requires a shop id")
		}
		return nil
	default:
		return errors.New("unknown scope kind")
	}
}

func (s TicketScope) String() string {
	if s.Kind == ScopeShop {
		return "shop:" + s.ShopID
	}
	return "platform"
}

// Ticket is a complaint or support request. Tickets are never deleted.
type Ticket struct {
	ID           string
	Title        string
	Description  string
	Status       TicketStatus
	ReporterID   string
	TargetUserID *string
	Scope        TicketScope
	AssignedToID *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TicketTransition is applied by a status compare-and-swap.
type TicketTransition struct {
	Status TicketStatus
	// AssignedToID replaces the assignee when non-nil.
	AssignedToID *string
	UpdatedAt    time.Time
}
