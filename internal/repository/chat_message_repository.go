package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/moderation-service/internal/domain"
)

// ChatMessageRepository persists shop chat messages.
type ChatMessageRepository interface {
	// Append stores msg and advances the chat's last_message_at in the same
	// transaction.
	Append(ctx context.Context, msg *domain.ChatMessage) error
	ListByChat(ctx context.Context, chatID string) ([]domain.ChatMessage, error)
	// MarkRead flags unread messages addressed to one side of the thread:
	// shop-side messages when byCustomer is set, customer messages otherwise.
	// It returns how many changed.
	MarkRead(ctx context.Context, chatID string, byCustomer bool) (int, error)
}

type chatMessageRepository struct {
	pool *pgxpool.Pool
}

// NewChatMessageRepository returns a Postgres-backed implementation.
func NewChatMessageRepository(pool *pgxpool.Pool) ChatMessageRepository {
	return &chatMessageRepository{pool: pool}
}

func (r *chatMessageRepository) Append(ctx context.Context, msg *domain.ChatMessage) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		const insert = `
            INSERT INTO chat_messages (id, chat_id, author_id, body, read, created_at)
            VALUES ($1,$2,$3,$4,$5,$6)`
		if _, err := tx.Exec(ctx, insert, msg.ID, msg.ChatID, msg.AuthorID, msg.Body, msg.Read, msg.CreatedAt); err != nil {
			return err
		}
		const touch = `
            UPDATE shop_chats SET last_message_at = GREATEST(last_message_at, $1)
            WHERE id=$2`
		tag, err := tx.Exec(ctx, touch, msg.CreatedAt, msg.ChatID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (r *chatMessageRepository) ListByChat(ctx context.Context, chatID string) ([]domain.ChatMessage, error) {
	const query = `
        SELECT id, chat_id, author_id, body, read, created_at
        FROM chat_messages WHERE chat_id=$1 ORDER BY created_at ASC, id ASC`
	rows, err := r.pool.Query(ctx, query, chatID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.ChatMessage{}
	for rows.Next() {
		var msg domain.ChatMessage
		if err := rows.Scan(&msg.ID, &msg.ChatID, &msg.AuthorID, &msg.Body, &msg.Read, &msg.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, msg)
	}
	return result, rows.Err()
}

func (r *chatMessageRepository) MarkRead(ctx context.Context, chatID string, byCustomer bool) (int, error) {
	const query = `
        UPDATE chat_messages m SET read=TRUE
        FROM shop_chats c
        WHERE c.id=$1 AND m.chat_id=c.id AND m.read=FALSE AND (m.author_id=c.user_id) <> $2`
	tag, err := r.pool.Exec(ctx, query, chatID, byCustomer)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}
