package repository

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/moderation-service/internal/domain"
)

// TicketFilter selects tickets. The scope fields form a union: a ticket
// matches when it is platform-scoped and IncludePlatform is set, or when it
// is shop-scoped and either AllShops is set or its shop is in ShopIDs. A
// filter with no scope enabled matches nothing.
type TicketFilter struct {
	IncludePlatform bool
	AllShops        bool
	ShopIDs         []string
	ReporterID      *string
	Statuses        []domain.TicketStatus
	// ActionableFor keeps PENDING tickets plus IN_PROGRESS tickets assigned
	// to the given user.
	ActionableFor *string
	Limit         int
	Offset        int
}

// MatchesNothing reports whether no scope is enabled.
func (f TicketFilter) MatchesNothing() bool {
	return !f.IncludePlatform && !f.AllShops && len(f.ShopIDs) == 0
}

// Matches evaluates the filter against one ticket, ignoring paging.
func (f TicketFilter) Matches(ticket *domain.Ticket) bool {
	inScope := false
	if ticket.Scope.IsPlatform() {
		inScope = f.IncludePlatform
	} else if shopID, ok := ticket.Scope.Shop(); ok {
		inScope = f.AllShops || slices.Contains(f.ShopIDs, shopID)
	}
	if !inScope {
		return false
	}
	if f.ReporterID != nil && ticket.ReporterID != *f.ReporterID {
		return false
	}
	if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, ticket.Status) {
		return false
	}
	if f.ActionableFor != nil {
		switch ticket.Status {
		case domain.TicketStatusPending:
		case domain.TicketStatusInProgress:
			if ticket.AssignedToID == nil || *ticket.AssignedToID != *f.ActionableFor {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// NormalizedLimit applies the default and maximum page size.
func (f TicketFilter) NormalizedLimit() int {
	switch {
	case f.Limit <= 0:
		return 20
	case f.Limit > 200:
		return 200
	}
	return f.Limit
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	Count(ctx context.Context, filter TicketFilter) (int, error)
	// Transition applies change only if the stored status still equals
	// expected, returning ErrStaleStatus otherwise.
	Transition(ctx context.Context, id string, expected domain.TicketStatus, change domain.TicketTransition) (*domain.Ticket, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `id, title, description, status, reporter_id, target_user_id, scope_kind,
        scope_shop_id, assigned_to_id, created_at, updated_at`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (id, title, description, status, reporter_id, target_user_id, scope_kind,
            scope_shop_id, assigned_to_id, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`
	_, err := r.pool.Exec(ctx, query,
		ticket.ID,
		ticket.Title,
		ticket.Description,
		ticket.Status,
		ticket.ReporterID,
		ticket.TargetUserID,
		ticket.Scope.Kind,
		scopeShopColumn(ticket.Scope),
		ticket.AssignedToID,
		ticket.CreatedAt,
		ticket.UpdatedAt,
	)
	return err
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id=$1`
	return scanTicket(r.pool.QueryRow(ctx, query, id))
}

func (r *ticketRepository) Transition(ctx context.Context, id string, expected domain.TicketStatus, change domain.TicketTransition) (*domain.Ticket, error) {
	query := `
        UPDATE tickets SET status=$1, assigned_to_id=COALESCE($2, assigned_to_id), updated_at=$3
        WHERE id=$4 AND status=$5
        RETURNING ` + ticketColumns
	ticket, err := scanTicket(r.pool.QueryRow(ctx, query,
		change.Status,
		change.AssignedToID,
		change.UpdatedAt,
		id,
		expected,
	))
	if err == nil {
		return ticket, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	// No row matched: either the ticket is gone or its status moved on.
	if _, getErr := r.GetByID(ctx, id); getErr != nil {
		return nil, getErr
	}
	return nil, ErrStaleStatus
}

func (r *ticketRepository) List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	if filter.MatchesNothing() {
		return []domain.Ticket{}, nil
	}
	where, args := buildTicketWhere(filter)
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE %s ORDER BY created_at DESC, id DESC LIMIT %d OFFSET %d`,
		ticketColumns, where, filter.NormalizedLimit(), max(filter.Offset, 0))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) Count(ctx context.Context, filter TicketFilter) (int, error) {
	if filter.MatchesNothing() {
		return 0, nil
	}
	where, args := buildTicketWhere(filter)
	var count int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM tickets WHERE `+where, args...).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func buildTicketWhere(filter TicketFilter) (string, []any) {
	args := []any{}
	scopes := []string{}
	if filter.IncludePlatform {
		scopes = append(scopes, fmt.Sprintf("scope_kind='%s'", domain.ScopePlatform))
	}
	if filter.AllShops {
		scopes = append(scopes, fmt.Sprintf("scope_kind='%s'", domain.ScopeShop))
	} else if len(filter.ShopIDs) > 0 {
		args = append(args, filter.ShopIDs)
		scopes = append(scopes, fmt.Sprintf("(scope_kind='%s' AND scope_shop_id = ANY($%d))", domain.ScopeShop, len(args)))
	}
	clauses := []string{"(" + strings.Join(scopes, " OR ") + ")"}

	if filter.ReporterID != nil {
		args = append(args, *filter.ReporterID)
		clauses = append(clauses, fmt.Sprintf("reporter_id=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			statuses[i] = string(status)
		}
		args = append(args, statuses)
		clauses = append(clauses, fmt.Sprintf("status = ANY($%d)", len(args)))
	}
	if filter.ActionableFor != nil {
		args = append(args, *filter.ActionableFor)
		clauses = append(clauses, fmt.Sprintf("(status='%s' OR (status='%s' AND assigned_to_id=$%d))",
			domain.TicketStatusPending, domain.TicketStatusInProgress, len(args)))
	}
	return strings.Join(clauses, " AND "), args
}

func scopeShopColumn(scope domain.TicketScope) *string {
	if shopID, ok := scope.Shop(); ok {
		return &shopID
	}
	return nil
}

func scanTicket(row rowScanner) (*domain.Ticket, error) {
	var (
		ticket domain.Ticket
		shopID *string
	)
	if err := row.Scan(
		&ticket.ID,
		&ticket.Title,
		&ticket.Description,
		&ticket.Status,
		&ticket.ReporterID,
		&ticket.TargetUserID,
		&ticket.Scope.Kind,
		&shopID,
		&ticket.AssignedToID,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	); err != nil {
		return nil, mapNoRows(err)
	}
	if shopID != nil {
		ticket.Scope.ShopID = *shopID
	}
	return &ticket, nil
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	result := []domain.Ticket{}
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ticket)
	}
	return result, rows.Err()
}
