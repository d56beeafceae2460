package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/moderation-service/internal/auth"
	"github.com/spec-kit/moderation-service/internal/domain"
	"github.com/spec-kit/moderation-service/internal/events"
	"github.com/spec-kit/moderation-service/internal/repository"
	apperrors "github.com/spec-kit/moderation-service/pkg/util/errorutil"
)

// TicketService owns the complaint state machine.
type TicketService struct {
	tickets  repository.TicketRepository
	messages repository.TicketMessageRepository
	history  repository.TicketHistoryRepository
	users    repository.UserRepository
	shops    repository.ShopRepository
	Common
}

// TicketDependencies bundles repositories for ticket service.
type TicketDependencies struct {
	TicketRepo  repository.TicketRepository
	MessageRepo repository.TicketMessageRepository
	HistoryRepo repository.TicketHistoryRepository
	UserRepo    repository.UserRepository
	ShopRepo    repository.ShopRepository
	Common
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Title        string
	Description  string
	TargetUserID *string
	Scope        domain.TicketScope
}

// TicketListFilter narrows a staff listing. A nil Scope lists everything
// the caller may act on.
type TicketListFilter struct {
	Scope    *domain.TicketScope
	Statuses []domain.TicketStatus
	Limit    int
	Offset   int
}

// TicketDetails is a ticket with its thread and audit trail.
type TicketDetails struct {
	Ticket   *domain.Ticket
	Messages []domain.TicketMessage
	History  []domain.TicketHistory
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets:  deps.TicketRepo,
		messages: deps.MessageRepo,
		history:  deps.HistoryRepo,
		users:    deps.UserRepo,
		shops:    deps.ShopRepo,
		Common:   deps.Common.withDefaults(),
	}
}

// CreateTicket files a new PENDING ticket on behalf of the caller.
func (s *TicketService) CreateTicket(ctx context.Context, p *auth.Principal, input TicketCreateInput) (*domain.Ticket, error) {
	if err := requirePrincipal(p); err != nil {
		return nil, err
	}
	title, err := requireText("title", input.Title)
	if err != nil {
		return nil, err
	}
	description, err := requireText("body", input.Description)
	if err != nil {
		return nil, err
	}
	if err := input.Scope.Validate(); err != nil {
		return nil, apperrors.NewValidationError(err.Error(), map[string]any{"field": "scope"})
	}
	if shopID, ok := input.Scope.Shop(); ok {
		if _, err := s.shops.GetByID(ctx, shopID); err != nil {
			return nil, s.storeError(err, "shop", shopID)
		}
	}
	if input.TargetUserID != nil {
		if *input.TargetUserID == "" {
			input.TargetUserID = nil
		} else if _, err := s.users.GetByID(ctx, *input.TargetUserID); err != nil {
			return nil, s.storeError(err, "user", *input.TargetUserID)
		}
	}

	now := s.now()
	ticket := &domain.Ticket{
		ID:           uuid.NewString(),
		Title:        title,
		Description:  description,
		Status:       domain.TicketStatusPending,
		ReporterID:   p.UserID,
		TargetUserID: input.TargetUserID,
		Scope:        input.Scope,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, s.storeError(err, "ticket", ticket.ID)
	}

	s.Logger.Info("ticket created",
		zap.String("ticket_id", ticket.ID),
		zap.String("scope", ticket.Scope.String()),
		zap.String("reporter_id", ticket.ReporterID),
	)
	s.publish(ctx, events.EventTicketCreated, ticket.ID, &p.UserID, events.TicketCreatedPayload{
		Scope:      ticket.Scope.String(),
		ReporterID: ticket.ReporterID,
		TargetID:   ticket.TargetUserID,
		Title:      ticket.Title,
	})
	return ticket, nil
}

// AssignTicket moves a PENDING ticket to IN_PROGRESS. A nil or empty
// assigneeID assigns the caller. Assigning someone else requires admin
// access with manageComplaints, and the assignee must be able to act on the
// ticket. Of two concurrent assignments exactly one succeeds; the other gets
// a Conflict.
func (s *TicketService) AssignTicket(ctx context.Context, p *auth.Principal, ticketID string, assigneeID *string) (*domain.Ticket, error) {
	if err := requirePrincipal(p); err != nil {
		return nil, err
	}
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, s.storeError(err, "ticket", ticketID)
	}
	if !p.CanActOnTicket(ticket.Scope) {
		return nil, apperrors.NewUnauthorized("not allowed to act on this ticket")
	}

	assignee := p.UserID
	if assigneeID != nil && *assigneeID != "" && *assigneeID != p.UserID {
		assignee = *assigneeID
		if err := s.authorizeDelegation(ctx, p, ticket, assignee); err != nil {
			return nil, err
		}
	}

	if ticket.Status != domain.TicketStatusPending {
		return nil, s.conflict("assign", ticket, "ticket is not pending")
	}
	return s.transition(ctx, p, ticket, domain.TicketStatusInProgress, &assignee)
}

func (s *TicketService) authorizeDelegation(ctx context.Context, p *auth.Principal, ticket *domain.Ticket, assigneeID string) error {
	caps := p.Capabilities()
	if !auth.HasAdminAccess(p.Role) || !caps.ManageComplaints {
		return apperrors.NewUnauthorized("assigning on behalf of another user requires admin access")
	}
	user, err := s.users.GetByID(ctx, assigneeID)
	if err != nil {
		return s.storeError(err, "user", assigneeID)
	}
	shopIDs, err := s.shops.ListStaffShopIDs(ctx, assigneeID)
	if err != nil {
		return s.storeError(err, "shop_staff", assigneeID)
	}
	if user.IsBlocked || !auth.CanActOnTicket(user.Role, shopIDs, ticket.Scope) {
		return apperrors.NewUnauthorized("assignee cannot act on this ticket")
	}
	return nil
}

// ResolveTicket closes an IN_PROGRESS ticket as RESOLVED.
func (s *TicketService) ResolveTicket(ctx context.Context, p *auth.Principal, ticketID string) (*domain.Ticket, error) {
	return s.closeTicket(ctx, p, ticketID, domain.TicketStatusResolved)
}

// RejectTicket closes an IN_PROGRESS ticket as REJECTED.
func (s *TicketService) RejectTicket(ctx context.Context, p *auth.Principal, ticketID string) (*domain.Ticket, error) {
	return s.closeTicket(ctx, p, ticketID, domain.TicketStatusRejected)
}

// closeTicket is allowed for the assignee, or for admins holding
// manageComplaints as an override.
func (s *TicketService) closeTicket(ctx context.Context, p *auth.Principal, ticketID string, target domain.TicketStatus) (*domain.Ticket, error) {
	if err := requirePrincipal(p); err != nil {
		return nil, err
	}
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, s.storeError(err, "ticket", ticketID)
	}
	isAssignee := ticket.AssignedToID != nil && *ticket.AssignedToID == p.UserID
	if !isAssignee && !p.CanActOnTicket(ticket.Scope) {
		return nil, apperrors.NewUnauthorized("not allowed to act on this ticket")
	}
	if ticket.Status != domain.TicketStatusInProgress {
		return nil, s.conflict(string(target), ticket, "ticket is not in progress")
	}
	if !isAssignee && !hasOverride(p) {
		return nil, apperrors.NewUnauthorized("only the assignee or an admin can close this ticket")
	}
	return s.transition(ctx, p, ticket, target, nil)
}

func hasOverride(p *auth.Principal) bool {
	return auth.HasAdminAccess(p.Role) && p.Capabilities().ManageComplaints
}

// transition commits from ticket.Status to target with a compare-and-swap
// and records history. A lost race surfaces as Conflict.
func (s *TicketService) transition(ctx context.Context, p *auth.Principal, ticket *domain.Ticket, target domain.TicketStatus, assignee *string) (*domain.Ticket, error) {
	from := ticket.Status
	now := s.now()
	updated, err := s.tickets.Transition(ctx, ticket.ID, from, domain.TicketTransition{
		Status:       target,
		AssignedToID: assignee,
		UpdatedAt:    now,
	})
	if errors.Is(err, repository.ErrStaleStatus) {
		return nil, s.conflict(string(target), ticket, "ticket status changed concurrently; refetch before retrying")
	}
	if err != nil {
		return nil, s.storeError(err, "ticket", ticket.ID)
	}

	entry := &domain.TicketHistory{
		ID:           uuid.NewString(),
		TicketID:     ticket.ID,
		ActorID:      p.UserID,
		FromStatus:   from,
		ToStatus:     target,
		AssignedToID: updated.AssignedToID,
		CreatedAt:    now,
	}
	if err := s.history.Create(ctx, entry); err != nil {
		// The status change is already committed.
		s.Logger.Error("record ticket history", zap.String("ticket_id", ticket.ID), zap.Error(err))
	}

	s.Metrics.RecordTransition(string(from), string(target))
	s.Logger.Info("ticket transitioned",
		zap.String("ticket_id", ticket.ID),
		zap.String("from", string(from)),
		zap.String("to", string(target)),
		zap.String("actor_id", p.UserID),
	)
	if assignee != nil {
		s.publish(ctx, events.EventTicketAssigned, ticket.ID, &p.UserID, events.TicketAssignedPayload{
			AssigneeID: *assignee,
			Scope:      ticket.Scope.String(),
		})
	}
	s.publish(ctx, events.EventTicketStatusChanged, ticket.ID, &p.UserID, events.TicketStatusChangedPayload{
		OldStatus: from,
		NewStatus: target,
	})
	return updated, nil
}

func (s *TicketService) conflict(operation string, ticket *domain.Ticket, message string) error {
	s.Metrics.RecordConflict(operation)
	s.Logger.Warn("ticket conflict",
		zap.String("operation", operation),
		zap.String("ticket_id", ticket.ID),
		zap.String("status", string(ticket.Status)),
	)
	return apperrors.NewConflict(message, map[string]any{"ticket_id": ticket.ID, "status": ticket.Status})
}

// ListTickets returns tickets the caller may act on. Platform tickets are
// visible only to admin-access roles; shop tickets to admins and to staff
// of the shop. Callers without any ticket scope get an empty list.
func (s *TicketService) ListTickets(ctx context.Context, p *auth.Principal, filter TicketListFilter) ([]domain.Ticket, error) {
	if err := requirePrincipal(p); err != nil {
		return nil, err
	}
	repoFilter := repository.TicketFilter{
		Statuses: filter.Statuses,
		Limit:    filter.Limit,
		Offset:   filter.Offset,
	}

	switch {
	case filter.Scope != nil:
		if err := filter.Scope.Validate(); err != nil {
			return nil, apperrors.NewValidationError(err.Error(), map[string]any{"field": "scope"})
		}
		if !p.CanActOnTicket(*filter.Scope) {
			return nil, apperrors.NewUnauthorized("not allowed to list tickets in " + filter.Scope.String())
		}
		if shopID, ok := filter.Scope.Shop(); ok {
			repoFilter.ShopIDs = []string{shopID}
		} else {
			repoFilter.IncludePlatform = true
		}
	case auth.HasAdminAccess(p.Role):
		repoFilter.IncludePlatform = true
		repoFilter.AllShops = true
	case auth.IsShopStaff(p.Role):
		repoFilter.ShopIDs = p.ShopIDs
	}

	tickets, err := s.tickets.List(ctx, repoFilter)
	if err != nil {
		return nil, s.storeError(err, "ticket", "")
	}
	return tickets, nil
}

// ListReportedTickets returns the tickets the caller filed.
func (s *TicketService) ListReportedTickets(ctx context.Context, p *auth.Principal, limit, offset int) ([]domain.Ticket, error) {
	if err := requirePrincipal(p); err != nil {
		return nil, err
	}
	tickets, err := s.tickets.List(ctx, repository.TicketFilter{
		IncludePlatform: true,
		AllShops:        true,
		ReporterID:      &p.UserID,
		Limit:           limit,
		Offset:          offset,
	})
	if err != nil {
		return nil, s.storeError(err, "ticket", "")
	}
	return tickets, nil
}

// GetTicket returns a ticket with its messages and history.
func (s *TicketService) GetTicket(ctx context.Context, p *auth.Principal, ticketID string) (*TicketDetails, error) {
	if err := requirePrincipal(p); err != nil {
		return nil, err
	}
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, s.storeError(err, "ticket", ticketID)
	}
	if !canReadTicket(p, ticket) {
		return nil, apperrors.NewUnauthorized("not allowed to read this ticket")
	}
	messages, err := s.messages.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, s.storeError(err, "ticket_message", ticket.ID)
	}
	history, err := s.history.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, s.storeError(err, "ticket_history", ticket.ID)
	}
	return &TicketDetails{Ticket: ticket, Messages: messages, History: history}, nil
}
