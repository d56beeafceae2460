package events

import (
	"time"

	"github.com/spec-kit/moderation-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated       EventType = "ticket_created"
	EventTicketAssigned      EventType = "ticket_assigned"
	EventTicketStatusChanged EventType = "ticket_status_changed"
	EventTicketMessageAdded  EventType = "ticket_message_added"
	EventChatMessageAdded    EventType = "chat_message_added"
	EventUserBlocked         EventType = "user_blocked"
	EventUserUnblocked       EventType = "user_unblocked"
)

// AllEventTypes lists every type a subscriber may register for.
var AllEventTypes = []EventType{
	EventTicketCreated,
	EventTicketAssigned,
	EventTicketStatusChanged,
	EventTicketMessageAdded,
	EventChatMessageAdded,
	EventUserBlocked,
	EventUserUnblocked,
}

// Event represents a domain event emitted by services. EntityID is the
// ticket, chat or user the event is about. ActorID is nil for system actions.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	EntityID  string    `json:"entity_id"`
	ActorID   *string   `json:"actor_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload,omitempty"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	Scope      string  `json:"scope"`
	ReporterID string  `json:"reporter_id"`
	TargetID   *string `json:"target_user_id,omitempty"`
	Title      string  `json:"title"`
}

// TicketAssignedPayload payload.
type TicketAssignedPayload struct {
	AssigneeID string `json:"assignee_id"`
	Scope      string `json:"scope"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
}

// MessageAddedPayload is shared by ticket and chat messages.
type MessageAddedPayload struct {
	MessageID   string `json:"message_id"`
	AuthorID    string `json:"author_id"`
	BodyPreview string `json:"body_preview"`
}

// UserBlockPayload payload.
type UserBlockPayload struct {
	Reason   *string `json:"reason,omitempty"`
	Duration *string `json:"duration,omitempty"`
}
