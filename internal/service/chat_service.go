package service

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/moderation-service/internal/auth"
	"github.com/spec-kit/moderation-service/internal/domain"
	"github.com/spec-kit/moderation-service/internal/events"
	"github.com/spec-kit/moderation-service/internal/repository"
	apperrors "github.com/spec-kit/moderation-service/pkg/util/errorutil"
)

const previewLength = 120

// ChatService owns the append-only ticket threads and shop chats.
type ChatService struct {
	tickets        repository.TicketRepository
	ticketMessages repository.TicketMessageRepository
	chats          repository.ChatRepository
	chatMessages   repository.ChatMessageRepository
	shops          repository.ShopRepository
	users          repository.UserRepository
	Common
}

// ChatDependencies bundles repositories for the chat service.
type ChatDependencies struct {
	TicketRepo        repository.TicketRepository
	TicketMessageRepo repository.TicketMessageRepository
	ChatRepo          repository.ChatRepository
	ChatMessageRepo   repository.ChatMessageRepository
	ShopRepo          repository.ShopRepository
	UserRepo          repository.UserRepository
	Common
}

// NewChatService constructs the service.
func NewChatService(deps ChatDependencies) *ChatService {
	return &ChatService{
		tickets:        deps.TicketRepo,
		ticketMessages: deps.TicketMessageRepo,
		chats:          deps.ChatRepo,
		chatMessages:   deps.ChatMessageRepo,
		shops:          deps.ShopRepo,
		users:          deps.UserRepo,
		Common:         deps.Common.withDefaults(),
	}
}

// AppendTicketMessage adds a message to a ticket thread. Terminal tickets
// accept no further messages.
func (s *ChatService) AppendTicketMessage(ctx context.Context, p *auth.Principal, ticketID, body string) (*domain.TicketMessage, error) {
	if err := requirePrincipal(p); err != nil {
		return nil, err
	}
	text, err := requireText("body", body)
	if err != nil {
		return nil, err
	}
	ticket, err := s.readableTicket(ctx, p, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.Status.Terminal() {
		s.Metrics.RecordConflict("ticket_message")
		s.Logger.Warn("message to closed ticket", zap.String("ticket_id", ticket.ID), zap.String("status", string(ticket.Status)))
		return nil, apperrors.NewConflict("ticket is closed", map[string]any{"ticket_id": ticket.ID, "status": ticket.Status})
	}

	msg := &domain.TicketMessage{
		ID:        uuid.NewString(),
		TicketID:  ticket.ID,
		AuthorID:  p.UserID,
		Body:      text,
		CreatedAt: s.now(),
	}
	if err := s.ticketMessages.Create(ctx, msg); err != nil {
		return nil, s.storeError(err, "ticket", ticket.ID)
	}
	s.publish(ctx, events.EventTicketMessageAdded, ticket.ID, &p.UserID, events.MessageAddedPayload{
		MessageID:   msg.ID,
		AuthorID:    msg.AuthorID,
		BodyPreview: stringPreview(msg.Body, previewLength),
	})
	return msg, nil
}

// ListTicketMessages returns a ticket thread oldest first.
func (s *ChatService) ListTicketMessages(ctx context.Context, p *auth.Principal, ticketID string) ([]domain.TicketMessage, error) {
	if err := requirePrincipal(p); err != nil {
		return nil, err
	}
	ticket, err := s.readableTicket(ctx, p, ticketID)
	if err != nil {
		return nil, err
	}
	messages, err := s.ticketMessages.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, s.storeError(err, "ticket_message", ticket.ID)
	}
	return messages, nil
}

func (s *ChatService) readableTicket(ctx context.Context, p *auth.Principal, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, s.storeError(err, "ticket", ticketID)
	}
	if !canReadTicket(p, ticket) {
		return nil, apperrors.NewUnauthorized("not allowed to access this ticket")
	}
	return ticket, nil
}

// GetOrCreateShopChat returns the thread between shopID and customerID,
// creating it on first use. An empty customerID means the caller. Opening a
// thread for another customer requires access to the shop.
func (s *ChatService) GetOrCreateShopChat(ctx context.Context, p *auth.Principal, shopID, customerID string) (*domain.ShopChat, error) {
	if err := requirePrincipal(p); err != nil {
		return nil, err
	}
	if customerID == "" {
		customerID = p.UserID
	}
	if customerID != p.UserID && !p.CanAccessShop(shopID) {
		return nil, apperrors.NewUnauthorized("not allowed to open chats for this shop")
	}
	if _, err := s.shops.GetByID(ctx, shopID); err != nil {
		return nil, s.storeError(err, "shop", shopID)
	}
	if customerID != p.UserID {
		if _, err := s.users.GetByID(ctx, customerID); err != nil {
			return nil, s.storeError(err, "user", customerID)
		}
	}

	now := s.now()
	chat, created, err := s.chats.CreateIfAbsent(ctx, &domain.ShopChat{
		ID:            uuid.NewString(),
		ShopID:        shopID,
		UserID:        customerID,
		CreatedAt:     now,
		LastMessageAt: now,
	})
	if err != nil {
		return nil, s.storeError(err, "chat", shopID)
	}
	if created {
		s.Logger.Info("shop chat opened", zap.String("chat_id", chat.ID), zap.String("shop_id", shopID))
	}
	return chat, nil
}

// AppendChatMessage appends to a shop chat and advances its lastMessageAt.
func (s *ChatService) AppendChatMessage(ctx context.Context, p *auth.Principal, chatID, body string) (*domain.ChatMessage, error) {
	if err := requirePrincipal(p); err != nil {
		return nil, err
	}
	text, err := requireText("body", body)
	if err != nil {
		return nil, err
	}
	chat, err := s.readableChat(ctx, p, chatID)
	if err != nil {
		return nil, err
	}

	msg := &domain.ChatMessage{
		ID:        uuid.NewString(),
		ChatID:    chat.ID,
		AuthorID:  p.UserID,
		Body:      text,
		CreatedAt: s.now(),
	}
	if err := s.chatMessages.Append(ctx, msg); err != nil {
		return nil, s.storeError(err, "chat", chat.ID)
	}
	s.publish(ctx, events.EventChatMessageAdded, chat.ID, &p.UserID, events.MessageAddedPayload{
		MessageID:   msg.ID,
		AuthorID:    msg.AuthorID,
		BodyPreview: stringPreview(msg.Body, previewLength),
	})
	return msg, nil
}

// ListChatMessages returns a chat oldest first.
func (s *ChatService) ListChatMessages(ctx context.Context, p *auth.Principal, chatID string) ([]domain.ChatMessage, error) {
	if err := requirePrincipal(p); err != nil {
		return nil, err
	}
	chat, err := s.readableChat(ctx, p, chatID)
	if err != nil {
		return nil, err
	}
	messages, err := s.chatMessages.ListByChat(ctx, chat.ID)
	if err != nil {
		return nil, s.storeError(err, "chat_message", chat.ID)
	}
	return messages, nil
}

// MarkChatRead marks the messages addressed to the caller's side of the
// thread as read and returns how many changed.
func (s *ChatService) MarkChatRead(ctx context.Context, p *auth.Principal, chatID string) (int, error) {
	if err := requirePrincipal(p); err != nil {
		return 0, err
	}
	chat, err := s.readableChat(ctx, p, chatID)
	if err != nil {
		return 0, err
	}
	changed, err := s.chatMessages.MarkRead(ctx, chat.ID, chat.UserID == p.UserID)
	if err != nil {
		return 0, s.storeError(err, "chat", chat.ID)
	}
	return changed, nil
}

// ListCustomerChats returns the caller's own chats, most recent first.
func (s *ChatService) ListCustomerChats(ctx context.Context, p *auth.Principal) ([]domain.ShopChat, error) {
	if err := requirePrincipal(p); err != nil {
		return nil, err
	}
	chats, err := s.chats.ListByUser(ctx, p.UserID)
	if err != nil {
		return nil, s.storeError(err, "chat", p.UserID)
	}
	return chats, nil
}

// ListShopChats returns a shop's chats, most recent first.
func (s *ChatService) ListShopChats(ctx context.Context, p *auth.Principal, shopID string) ([]domain.ShopChat, error) {
	if err := requirePrincipal(p); err != nil {
		return nil, err
	}
	if !p.CanAccessShop(shopID) {
		return nil, apperrors.NewUnauthorized("not allowed to read chats of this shop")
	}
	if _, err := s.shops.GetByID(ctx, shopID); err != nil {
		return nil, s.storeError(err, "shop", shopID)
	}
	chats, err := s.chats.ListByShop(ctx, shopID)
	if err != nil {
		return nil, s.storeError(err, "chat", shopID)
	}
	return chats, nil
}

func (s *ChatService) readableChat(ctx context.Context, p *auth.Principal, chatID string) (*domain.ShopChat, error) {
	chat, err := s.chats.GetByID(ctx, chatID)
	if err != nil {
		return nil, s.storeError(err, "chat", chatID)
	}
	if !canReadChat(p, chat) {
		return nil, apperrors.NewUnauthorized("not allowed to access this chat")
	}
	return chat, nil
}
