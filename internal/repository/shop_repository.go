package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/moderation-service/internal/domain"
)

// ShopRepository exposes shops and their staff standing.
type ShopRepository interface {
	Create(ctx context.Context, shop *domain.Shop) error
	GetByID(ctx context.Context, id string) (*domain.Shop, error)
	// AddStaff grants or updates staff standing for a user in a shop.
	AddStaff(ctx context.Context, member domain.ShopStaffMember) error
	ListStaffShopIDs(ctx context.Context, userID string) ([]string, error)
}

type shopRepository struct {
	pool *pgxpool.Pool
}

// NewShopRepository builds repository.
func NewShopRepository(pool *pgxpool.Pool) ShopRepository {
	return &shopRepository{pool: pool}
}

func (r *shopRepository) Create(ctx context.Context, shop *domain.Shop) error {
	const query = `
        INSERT INTO shops (id, name, owner_id, status, created_at)
        VALUES ($1,$2,$3,$4,$5)`
	_, err := r.pool.Exec(ctx, query, shop.ID, shop.Name, shop.OwnerID, shop.Status, shop.CreatedAt)
	return err
}

func (r *shopRepository) GetByID(ctx context.Context, id string) (*domain.Shop, error) {
	const query = `SELECT id, name, owner_id, status, created_at FROM shops WHERE id=$1`
	var shop domain.Shop
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&shop.ID,
		&shop.Name,
		&shop.OwnerID,
		&shop.Status,
		&shop.CreatedAt,
	); err != nil {
		return nil, mapNoRows(err)
	}
	return &shop, nil
}

func (r *shopRepository) AddStaff(ctx context.Context, member domain.ShopStaffMember) error {
	const query = `
        INSERT INTO shop_staff (shop_id, user_id, role, added_at)
        VALUES ($1,$2,$3,$4)
        ON CONFLICT (shop_id, user_id) DO UPDATE SET role=EXCLUDED.role`
	_, err := r.pool.Exec(ctx, query, member.ShopID, member.UserID, member.Role, member.AddedAt)
	return err
}

func (r *shopRepository) ListStaffShopIDs(ctx context.Context, userID string) ([]string, error) {
	const query = `SELECT shop_id FROM shop_staff WHERE user_id=$1 ORDER BY shop_id`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
