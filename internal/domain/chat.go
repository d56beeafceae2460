package domain

import "time"

// ShopChat is the single live thread between a shop and one customer.
type ShopChat struct {
	ID            string
	ShopID        string
	UserID        string
	CreatedAt     time.Time
	LastMessageAt time.Time
}

// ChatMessage is an append-only message in a shop chat.
type ChatMessage struct {
	ID        string
	ChatID    string
	AuthorID  string
	Body      string
	Read      bool
	CreatedAt time.Time
}
