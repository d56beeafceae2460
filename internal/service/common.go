package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/moderation-service/internal/auth"
	"github.com/spec-kit/moderation-service/internal/domain"
	"github.com/spec-kit/moderation-service/internal/events"
	"github.com/spec-kit/moderation-service/internal/observability"
	"github.com/spec-kit/moderation-service/internal/repository"
	apperrors "github.com/spec-kit/moderation-service/pkg/util/errorutil"
)

// Clock returns the current time. Tests inject a fixed clock.
type Clock func() time.Time

// Common bundles collaborators shared by every service. Zero values are
// replaced with no-op implementations.
type Common struct {
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	Metrics    *observability.Metrics
	Clock      Clock
}

func (c Common) withDefaults() Common {
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	if c.Clock == nil {
		c.Clock = func() time.Time { return time.Now().UTC() }
	}
	return c
}

func (c Common) now() time.Time {
	return c.Clock()
}

func (c Common) publish(ctx context.Context, eventType events.EventType, entityID string, actorID *string, payload any) {
	if c.Dispatcher == nil {
		return
	}
	_ = c.Dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		EntityID:  entityID,
		ActorID:   actorID,
		Timestamp: c.now(),
		Payload:   payload,
	})
}

// storeError maps a repository error onto the error kinds callers see.
// Anything other than a missing entity is an opaque internal failure.
func (c Common) storeError(err error, resource, id string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NewNotFound(resource, map[string]any{"id": id})
	}
	c.Logger.Error("store failure", zap.String("resource", resource), zap.String("id", id), zap.Error(err))
	return apperrors.NewInternalError(err)
}

func requirePrincipal(p *auth.Principal) error {
	if p == nil || p.UserID == "" {
		return apperrors.NewUnauthenticated("authentication required")
	}
	return nil
}

// canReadTicket grants thread access to eligible staff, the reporter, the
// target and the assignee.
func canReadTicket(p *auth.Principal, ticket *domain.Ticket) bool {
	if p.CanActOnTicket(ticket.Scope) || ticket.ReporterID == p.UserID {
		return true
	}
	if ticket.TargetUserID != nil && *ticket.TargetUserID == p.UserID {
		return true
	}
	return ticket.AssignedToID != nil && *ticket.AssignedToID == p.UserID
}

// canReadChat grants access to the customer, staff of the shop and admins.
func canReadChat(p *auth.Principal, chat *domain.ShopChat) bool {
	return chat.UserID == p.UserID || p.CanAccessShop(chat.ShopID)
}

func requireText(field, value string) (string, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", apperrors.NewValidationError(field+" is required", map[string]any{"field": field})
	}
	return trimmed, nil
}

func stringPreview(body string, limit int) string {
	runes := []rune(strings.TrimSpace(body))
	if len(runes) <= limit {
		return string(runes)
	}
	if limit <= 3 {
		return string(runes[:limit])
	}
	return string(runes[:limit-3]) + "..."
}
