package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/moderation-service/internal/auth"
	"github.com/spec-kit/moderation-service/internal/domain"
	"github.com/spec-kit/moderation-service/internal/notify"
	"github.com/spec-kit/moderation-service/internal/repository"
)

// CountsService recomputes a user's notification counts on every call.
type CountsService struct {
	tickets       repository.TicketRepository
	chats         repository.ChatRepository
	notifications notify.Source
	Common
}

// CountsDependencies bundles collaborators for the counts service.
type CountsDependencies struct {
	TicketRepo    repository.TicketRepository
	ChatRepo      repository.ChatRepository
	Notifications notify.Source
	Common
}

// NewCountsService constructs the service. A nil notification source counts
// zero system notifications.
func NewCountsService(deps CountsDependencies) *CountsService {
	source := deps.Notifications
	if source == nil {
		source = notify.Static{}
	}
	return &CountsService{
		tickets:       deps.TicketRepo,
		chats:         deps.ChatRepo,
		notifications: source,
		Common:        deps.Common.withDefaults(),
	}
}

// GetNotificationCounts returns five independent counts for the caller.
// Ticket counts include PENDING tickets and IN_PROGRESS tickets assigned to
// the caller. The system notification count degrades to zero when its
// collaborator fails; store failures are errors.
func (s *CountsService) GetNotificationCounts(ctx context.Context, p *auth.Principal) (domain.NotificationCounts, error) {
	var counts domain.NotificationCounts
	if err := requirePrincipal(p); err != nil {
		return counts, err
	}

	chats, err := s.chats.CountUnreadForCustomer(ctx, p.UserID)
	if err != nil {
		return counts, s.storeError(err, "chat", p.UserID)
	}
	counts.Chats = chats

	notifications, err := s.notifications.UnreadCount(ctx, p.UserID)
	if err != nil {
		s.Logger.Warn("notification source failed", zap.String("user_id", p.UserID), zap.Error(err))
		notifications = 0
	}
	counts.Notifications = notifications

	if auth.HasAdminAccess(p.Role) {
		complaints, err := s.tickets.Count(ctx, repository.TicketFilter{
			IncludePlatform: true,
			ActionableFor:   &p.UserID,
		})
		if err != nil {
			return counts, s.storeError(err, "ticket", p.UserID)
		}
		counts.Complaints = complaints
	}

	staffShops := s.staffShops(p)
	if len(staffShops) > 0 {
		shopComplaints, err := s.tickets.Count(ctx, repository.TicketFilter{
			ShopIDs:       staffShops,
			ActionableFor: &p.UserID,
		})
		if err != nil {
			return counts, s.storeError(err, "ticket", p.UserID)
		}
		counts.ShopComplaints = shopComplaints

		shopChats, err := s.chats.CountUnreadForShops(ctx, staffShops)
		if err != nil {
			return counts, s.storeError(err, "chat", p.UserID)
		}
		counts.ShopChats = shopChats
	}

	counts.Chats = max(counts.Chats, 0)
	counts.Notifications = max(counts.Notifications, 0)
	counts.Complaints = max(counts.Complaints, 0)
	counts.ShopComplaints = max(counts.ShopComplaints, 0)
	counts.ShopChats = max(counts.ShopChats, 0)
	return counts, nil
}

// staffShops keeps the shops in which the caller holds staff standing and
// may act.
func (s *CountsService) staffShops(p *auth.Principal) []string {
	shops := make([]string, 0, len(p.ShopIDs))
	for _, shopID := range p.ShopIDs {
		if p.CanAccessShop(shopID) {
			shops = append(shops, shopID)
		}
	}
	return shops
}
