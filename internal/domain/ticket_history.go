package domain

import "time"

// TicketHistory is an immutable audit entry for a status transition.
type TicketHistory struct {
	ID           string
	TicketID     string
	ActorID      string
	FromStatus   TicketStatus
	ToStatus     TicketStatus
	AssignedToID *string
	CreatedAt    time.Time
}
