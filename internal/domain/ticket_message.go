package domain

import "time"

// TicketMessage is an append-only entry in a ticket thread.
type TicketMessage struct {
	ID        string
	TicketID  string
	AuthorID  string
	Body      string
	CreatedAt time.Time
}
