package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/moderation-service/internal/domain"
)

// BlockLogRepository is the append-only audit trail of blocks and unblocks.
type BlockLogRepository interface {
	Create(ctx context.Context, entry *domain.BlockLogEntry) error
	ListByUser(ctx context.Context, userID string) ([]domain.BlockLogEntry, error)
}

type blockLogRepository struct {
	pool *pgxpool.Pool
}

// NewBlockLogRepository returns a Postgres-backed implementation.
func NewBlockLogRepository(pool *pgxpool.Pool) BlockLogRepository {
	return &blockLogRepository{pool: pool}
}

func (r *blockLogRepository) Create(ctx context.Context, entry *domain.BlockLogEntry) error {
	const query = `
        INSERT INTO block_log (id, user_id, action, actor_id, reason, duration, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7)`
	_, err := r.pool.Exec(ctx, query,
		entry.ID,
		entry.UserID,
		entry.Action,
		entry.ActorID,
		entry.Reason,
		entry.Duration,
		entry.CreatedAt,
	)
	return err
}

func (r *blockLogRepository) ListByUser(ctx context.Context, userID string) ([]domain.BlockLogEntry, error) {
	const query = `
        SELECT id, user_id, action, actor_id, reason, duration, created_at
        FROM block_log WHERE user_id=$1 ORDER BY created_at ASC, id ASC`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.BlockLogEntry{}
	for rows.Next() {
		var entry domain.BlockLogEntry
		if err := rows.Scan(
			&entry.ID,
			&entry.UserID,
			&entry.Action,
			&entry.ActorID,
			&entry.Reason,
			&entry.Duration,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}
