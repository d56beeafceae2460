package repository

import "github.com/jackc/pgx/v5/pgxpool"

// Store bundles every repository used by the services.
type Store struct {
	Users          UserRepository
	Shops          ShopRepository
	Tickets        TicketRepository
	TicketMessages TicketMessageRepository
	TicketHistory  TicketHistoryRepository
	Chats          ChatRepository
	ChatMessages   ChatMessageRepository
	BlockLog       BlockLogRepository
}

// NewPostgresStore returns a Store backed by the given pool.
func NewPostgresStore(pool *pgxpool.Pool) *Store {
	return &Store{
		Users:          NewUserRepository(pool),
		Shops:          NewShopRepository(pool),
		Tickets:        NewTicketRepository(pool),
		TicketMessages: NewTicketMessageRepository(pool),
		TicketHistory:  NewTicketHistoryRepository(pool),
		Chats:          NewChatRepository(pool),
		ChatMessages:   NewChatMessageRepository(pool),
		BlockLog:       NewBlockLogRepository(pool),
	}
}
