package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/moderation-service/internal/domain"
)

// UserRepository defines persistence access for accounts.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	// ApplyBlock writes every block field in one statement.
	ApplyBlock(ctx context.Context, userID string, record domain.BlockRecord) (*domain.User, error)
	// ClearBlock lifts the block flag and keeps the block metadata.
	ClearBlock(ctx context.Context, userID string, at time.Time) (*domain.User, error)
}

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

const userColumns = `id, username, display_name, role, is_blocked, block_reason, blocked_at,
        block_duration, blocked_by_id, is_premium, is_verified, created_at, updated_at`

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO users (id, username, display_name, role, is_blocked, block_reason, blocked_at,
            block_duration, blocked_by_id, is_premium, is_verified, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`
	_, err := r.pool.Exec(ctx, query,
		user.ID,
		user.Username,
		user.DisplayName,
		user.Role,
		user.IsBlocked,
		user.BlockReason,
		user.BlockedAt,
		user.BlockDuration,
		user.BlockedByID,
		user.IsPremium,
		user.IsVerified,
		user.CreatedAt,
		user.UpdatedAt,
	)
	return err
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id=$1`
	return scanUser(r.pool.QueryRow(ctx, query, id))
}

func (r *userRepository) ApplyBlock(ctx context.Context, userID string, record domain.BlockRecord) (*domain.User, error) {
	query := `
        UPDATE users SET is_blocked=TRUE, block_reason=$1, blocked_at=$2, block_duration=$3,
            blocked_by_id=$4, updated_at=$2
        WHERE id=$5
        RETURNING ` + userColumns
	return scanUser(r.pool.QueryRow(ctx, query,
		record.Reason,
		record.BlockedAt,
		record.Duration,
		record.BlockedByID,
		userID,
	))
}

func (r *userRepository) ClearBlock(ctx context.Context, userID string, at time.Time) (*domain.User, error) {
	query := `UPDATE users SET is_blocked=FALSE, updated_at=$1 WHERE id=$2 RETURNING ` + userColumns
	return scanUser(r.pool.QueryRow(ctx, query, at, userID))
}

func scanUser(row rowScanner) (*domain.User, error) {
	var user domain.User
	if err := row.Scan(
		&user.ID,
		&user.Username,
		&user.DisplayName,
		&user.Role,
		&user.IsBlocked,
		&user.BlockReason,
		&user.BlockedAt,
		&user.BlockDuration,
		&user.BlockedByID,
		&user.IsPremium,
		&user.IsVerified,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, mapNoRows(err)
	}
	return &user, nil
}
