package dto

import (
	"time"

	"github.com/spec-kit/moderation-service/internal/domain"
)

// CreateTicketRequest payload. ShopID is required when Scope is SHOP.
type CreateTicketRequest struct {
	Title        string           `json:"title"`
	Description  string           `json:"description"`
	TargetUserID *string          `json:"target_user_id"`
	Scope        domain.ScopeKind `json:"scope"`
	ShopID       string           `json:"shop_id"`
}

// AssignTicketRequest payload. An empty body assigns the caller.
type AssignTicketRequest struct {
	AssigneeID *string `json:"assignee_id"`
}

// TicketSummary response.
type TicketSummary struct {
	ID           string              `json:"id"`
	Title        string              `json:"title"`
	Status       domain.TicketStatus `json:"status"`
	Scope        domain.ScopeKind    `json:"scope"`
	ShopID       *string             `json:"shop_id"`
	ReporterID   string              `json:"reporter_id"`
	TargetUserID *string             `json:"target_user_id"`
	AssignedToID *string             `json:"assigned_to_id"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
}

// TicketDetailResponse provides full ticket info.
type TicketDetailResponse struct {
	TicketSummary
	Description string                  `json:"description"`
	Messages    []TicketMessageResponse `json:"messages"`
	History     []TicketHistoryResponse `json:"history"`
}

// TicketMessageResponse represents a thread message.
type TicketMessageResponse struct {
	ID        string    `json:"id"`
	TicketID  string    `json:"ticket_id"`
	AuthorID  string    `json:"author_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// TicketHistoryResponse is one status transition.
type TicketHistoryResponse struct {
	ID           string              `json:"id"`
	ActorID      string              `json:"actor_id"`
	FromStatus   domain.TicketStatus `json:"from_status"`
	ToStatus     domain.TicketStatus `json:"to_status"`
	AssignedToID *string             `json:"assigned_to_id"`
	CreatedAt    time.Time           `json:"created_at"`
}

// CreateMessageRequest payload for ticket and chat messages.
type CreateMessageRequest struct {
	Body string `json:"body"`
}

// NewTicketSummary maps a ticket.
func NewTicketSummary(ticket *domain.Ticket) TicketSummary {
	summary := TicketSummary{
		ID:           ticket.ID,
		Title:        ticket.Title,
		Status:       ticket.Status,
		Scope:        ticket.Scope.Kind,
		ReporterID:   ticket.ReporterID,
		TargetUserID: ticket.TargetUserID,
		AssignedToID: ticket.AssignedToID,
		CreatedAt:    ticket.CreatedAt,
		UpdatedAt:    ticket.UpdatedAt,
	}
	if shopID, ok := ticket.Scope.Shop(); ok {
		summary.ShopID = &shopID
	}
	return summary
}

// NewTicketSummaries maps a list, never returning nil.
func NewTicketSummaries(tickets []domain.Ticket) []TicketSummary {
	items := make([]TicketSummary, 0, len(tickets))
	for i := range tickets {
		items = append(items, NewTicketSummary(&tickets[i]))
	}
	return items
}

// NewTicketDetail maps a ticket with its thread and history.
func NewTicketDetail(ticket *domain.Ticket, messages []domain.TicketMessage, history []domain.TicketHistory) TicketDetailResponse {
	resp := TicketDetailResponse{
		TicketSummary: NewTicketSummary(ticket),
		Description:   ticket.Description,
		Messages:      NewTicketMessages(messages),
		History:       make([]TicketHistoryResponse, 0, len(history)),
	}
	for _, entry := range history {
		resp.History = append(resp.History, TicketHistoryResponse{
			ID:           entry.ID,
			ActorID:      entry.ActorID,
			FromStatus:   entry.FromStatus,
			ToStatus:     entry.ToStatus,
			AssignedToID: entry.AssignedToID,
			CreatedAt:    entry.CreatedAt,
		})
	}
	return resp
}

func NewTicketMessage(msg *domain.TicketMessage) TicketMessageResponse {
	return TicketMessageResponse{
		ID:        msg.ID,
		TicketID:  msg.TicketID,
		AuthorID:  msg.AuthorID,
		Body:      msg.Body,
		CreatedAt: msg.CreatedAt,
	}
}

func NewTicketMessages(messages []domain.TicketMessage) []TicketMessageResponse {
	items := make([]TicketMessageResponse, 0, len(messages))
	for i := range messages {
		items = append(items, NewTicketMessage(&messages[i]))
	}
	return items
}
