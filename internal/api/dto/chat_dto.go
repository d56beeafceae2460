package dto

import (
	"time"

	"github.com/spec-kit/moderation-service/internal/domain"
)

// OpenChatRequest payload. Staff set UserID to open a thread with a
// customer; customers leave it empty.
type OpenChatRequest struct {
	UserID string `json:"user_id"`
}

// ChatResponse describes a shop chat.
type ChatResponse struct {
	ID            string    `json:"id"`
	ShopID        string    `json:"shop_id"`
	UserID        string    `json:"user_id"`
	CreatedAt     time.Time `json:"created_at"`
	LastMessageAt time.Time `json:"last_message_at"`
}

// ChatMessageResponse describes a chat message.
type ChatMessageResponse struct {
	ID        string    `json:"id"`
	ChatID    string    `json:"chat_id"`
	AuthorID  string    `json:"author_id"`
	Body      string    `json:"body"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

// MarkReadResponse reports how many messages changed.
type MarkReadResponse struct {
	Marked int `json:"marked"`
}

func NewChat(chat *domain.ShopChat) ChatResponse {
	return ChatResponse{
		ID:            chat.ID,
		ShopID:        chat.ShopID,
		UserID:        chat.UserID,
		CreatedAt:     chat.CreatedAt,
		LastMessageAt: chat.LastMessageAt,
	}
}

func NewChats(chats []domain.ShopChat) []ChatResponse {
	items := make([]ChatResponse, 0, len(chats))
	for i := range chats {
		items = append(items, NewChat(&chats[i]))
	}
	return items
}

func NewChatMessage(msg *domain.ChatMessage) ChatMessageResponse {
	return ChatMessageResponse{
		ID:        msg.ID,
		ChatID:    msg.ChatID,
		AuthorID:  msg.AuthorID,
		Body:      msg.Body,
		Read:      msg.Read,
		CreatedAt: msg.CreatedAt,
	}
}

func NewChatMessages(messages []domain.ChatMessage) []ChatMessageResponse {
	items := make([]ChatMessageResponse, 0, len(messages))
	for i := range messages {
		items = append(items, NewChatMessage(&messages[i]))
	}
	return items
}
