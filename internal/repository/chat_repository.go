package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/moderation-service/internal/domain"
)

// ChatRepository persists shop chat threads, unique per (shop, customer).
type ChatRepository interface {
	// CreateIfAbsent inserts chat unless a thread already exists for its
	// shop and customer. It returns the stored thread and whether it was
	// created by this call.
	CreateIfAbsent(ctx context.Context, chat *domain.ShopChat) (*domain.ShopChat, bool, error)
	GetByID(ctx context.Context, id string) (*domain.ShopChat, error)
	GetByShopAndUser(ctx context.Context, shopID, userID string) (*domain.ShopChat, error)
	ListByUser(ctx context.Context, userID string) ([]domain.ShopChat, error)
	ListByShop(ctx context.Context, shopID string) ([]domain.ShopChat, error)
	// CountUnreadForCustomer counts threads of userID holding unread
	// messages written by someone else.
	CountUnreadForCustomer(ctx context.Context, userID string) (int, error)
	// CountUnreadForShops counts threads in shopIDs holding unread messages
	// written by the customer.
	CountUnreadForShops(ctx context.Context, shopIDs []string) (int, error)
}

type chatRepository struct {
	pool *pgxpool.Pool
}

// NewChatRepository returns a Postgres-backed implementation.
func NewChatRepository(pool *pgxpool.Pool) ChatRepository {
	return &chatRepository{pool: pool}
}

const chatColumns = `id, shop_id, user_id, created_at, last_message_at`

func (r *chatRepository) CreateIfAbsent(ctx context.Context, chat *domain.ShopChat) (*domain.ShopChat, bool, error) {
	const query = `
        INSERT INTO shop_chats (id, shop_id, user_id, created_at, last_message_at)
        VALUES ($1,$2,$3,$4,$5)
        ON CONFLICT (shop_id, user_id) DO NOTHING
        RETURNING ` + chatColumns
	created, err := scanChat(r.pool.QueryRow(ctx, query,
		chat.ID,
		chat.ShopID,
		chat.UserID,
		chat.CreatedAt,
		chat.LastMessageAt,
	))
	if err == nil {
		return created, true, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, false, err
	}
	existing, err := r.GetByShopAndUser(ctx, chat.ShopID, chat.UserID)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

func (r *chatRepository) GetByID(ctx context.Context, id string) (*domain.ShopChat, error) {
	query := `SELECT ` + chatColumns + ` FROM shop_chats WHERE id=$1`
	return scanChat(r.pool.QueryRow(ctx, query, id))
}

func (r *chatRepository) GetByShopAndUser(ctx context.Context, shopID, userID string) (*domain.ShopChat, error) {
	query := `SELECT ` + chatColumns + ` FROM shop_chats WHERE shop_id=$1 AND user_id=$2`
	return scanChat(r.pool.QueryRow(ctx, query, shopID, userID))
}

func (r *chatRepository) ListByUser(ctx context.Context, userID string) ([]domain.ShopChat, error) {
	query := `SELECT ` + chatColumns + ` FROM shop_chats WHERE user_id=$1 ORDER BY last_message_at DESC, id ASC`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanChats(rows)
}

func (r *chatRepository) ListByShop(ctx context.Context, shopID string) ([]domain.ShopChat, error) {
	query := `SELECT ` + chatColumns + ` FROM shop_chats WHERE shop_id=$1 ORDER BY last_message_at DESC, id ASC`
	rows, err := r.pool.Query(ctx, query, shopID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanChats(rows)
}

func (r *chatRepository) CountUnreadForCustomer(ctx context.Context, userID string) (int, error) {
	const query = `
        SELECT COUNT(*) FROM shop_chats c
        WHERE c.user_id=$1 AND EXISTS (
            SELECT 1 FROM chat_messages m
            WHERE m.chat_id=c.id AND m.read=FALSE AND m.author_id<>c.user_id)`
	var count int
	if err := r.pool.QueryRow(ctx, query, userID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *chatRepository) CountUnreadForShops(ctx context.Context, shopIDs []string) (int, error) {
	if len(shopIDs) == 0 {
		return 0, nil
	}
	const query = `
        SELECT COUNT(*) FROM shop_chats c
        WHERE c.shop_id = ANY($1) AND EXISTS (
            SELECT 1 FROM chat_messages m
            WHERE m.chat_id=c.id AND m.read=FALSE AND m.author_id=c.user_id)`
	var count int
	if err := r.pool.QueryRow(ctx, query, shopIDs).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func scanChat(row rowScanner) (*domain.ShopChat, error) {
	var chat domain.ShopChat
	if err := row.Scan(&chat.ID, &chat.ShopID, &chat.UserID, &chat.CreatedAt, &chat.LastMessageAt); err != nil {
		return nil, mapNoRows(err)
	}
	return &chat, nil
}

func scanChats(rows pgx.Rows) ([]domain.ShopChat, error) {
	result := []domain.ShopChat{}
	for rows.Next() {
		chat, err := scanChat(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *chat)
	}
	return result, rows.Err()
}
