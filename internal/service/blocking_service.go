package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/moderation-service/internal/auth"
	"github.com/spec-kit/moderation-service/internal/domain"
	"github.com/spec-kit/moderation-service/internal/events"
	"github.com/spec-kit/moderation-service/internal/repository"
	apperrors "github.com/spec-kit/moderation-service/pkg/util/errorutil"
)

// BlockingService blocks and unblocks accounts and keeps the block log.
type BlockingService struct {
	users    repository.UserRepository
	blockLog repository.BlockLogRepository
	Common
}

// BlockingDependencies bundles repositories for the blocking service.
type BlockingDependencies struct {
	UserRepo     repository.UserRepository
	BlockLogRepo repository.BlockLogRepository
	Common
}

// BlockInput describes a block request. A nil or empty Duration means
// indefinite.
type BlockInput struct {
	Reason   string
	Duration *string
}

// NewBlockingService constructs the service.
func NewBlockingService(deps BlockingDependencies) *BlockingService {
	return &BlockingService{
		users:    deps.UserRepo,
		blockLog: deps.BlockLogRepo,
		Common:   deps.Common.withDefaults(),
	}
}

// BlockUser blocks targetID. Blocking an already blocked user overwrites the
// block record.
func (s *BlockingService) BlockUser(ctx context.Context, p *auth.Principal, targetID string, input BlockInput) (*domain.User, error) {
	if err := s.authorize(p); err != nil {
		return nil, err
	}
	reason, err := requireText("reason", input.Reason)
	if err != nil {
		return nil, err
	}
	target, err := s.users.GetByID(ctx, targetID)
	if err != nil {
		return nil, s.storeError(err, "user", targetID)
	}
	if err := checkHierarchy(p, target); err != nil {
		return nil, err
	}
	return s.applyBlock(ctx, target.ID, reason, normalizeDuration(input.Duration), &p.UserID)
}

// BlockAsSystem applies an automated block with no acting user. It is the
// entry point for automated moderation jobs and is not exposed over HTTP.
func (s *BlockingService) BlockAsSystem(ctx context.Context, targetID string, input BlockInput) (*domain.User, error) {
	reason, err := requireText("reason", input.Reason)
	if err != nil {
		return nil, err
	}
	if _, err := s.users.GetByID(ctx, targetID); err != nil {
		return nil, s.storeError(err, "user", targetID)
	}
	return s.applyBlock(ctx, targetID, reason, normalizeDuration(input.Duration), nil)
}

func (s *BlockingService) applyBlock(ctx context.Context, targetID, reason string, duration, actorID *string) (*domain.User, error) {
	now := s.now()
	user, err := s.users.ApplyBlock(ctx, targetID, domain.BlockRecord{
		Reason:      reason,
		Duration:    duration,
		BlockedByID: actorID,
		BlockedAt:   now,
	})
	if err != nil {
		return nil, s.storeError(err, "user", targetID)
	}

	s.appendLog(ctx, &domain.BlockLogEntry{
		ID:        uuid.NewString(),
		UserID:    targetID,
		Action:    domain.BlockActionBlock,
		ActorID:   actorID,
		Reason:    &reason,
		Duration:  duration,
		CreatedAt: now,
	})
	s.Logger.Info("user blocked", zap.String("user_id", targetID), zap.Stringp("actor_id", actorID))
	s.publish(ctx, events.EventUserBlocked, targetID, actorID, events.UserBlockPayload{Reason: &reason, Duration: duration})
	return user, nil
}

// UnblockUser lifts a block. The block metadata on the user is kept for
// audit and the unblocking actor is recorded in the block log. Unblocking a
// user who is not blocked changes nothing.
func (s *BlockingService) UnblockUser(ctx context.Context, p *auth.Principal, targetID string) (*domain.User, error) {
	if err := s.authorize(p); err != nil {
		return nil, err
	}
	target, err := s.users.GetByID(ctx, targetID)
	if err != nil {
		return nil, s.storeError(err, "user", targetID)
	}
	if err := checkHierarchy(p, target); err != nil {
		return nil, err
	}
	if !target.IsBlocked {
		return target, nil
	}

	now := s.now()
	user, err := s.users.ClearBlock(ctx, target.ID, now)
	if err != nil {
		return nil, s.storeError(err, "user", target.ID)
	}
	s.appendLog(ctx, &domain.BlockLogEntry{
		ID:        uuid.NewString(),
		UserID:    target.ID,
		Action:    domain.BlockActionUnblock,
		ActorID:   &p.UserID,
		CreatedAt: now,
	})
	s.Logger.Info("user unblocked", zap.String("user_id", target.ID), zap.String("actor_id", p.UserID))
	s.publish(ctx, events.EventUserUnblocked, target.ID, &p.UserID, nil)
	return user, nil
}

// ListBlockLog returns every block and unblock of targetID, oldest first.
func (s *BlockingService) ListBlockLog(ctx context.Context, p *auth.Principal, targetID string) ([]domain.BlockLogEntry, error) {
	if err := s.authorize(p); err != nil {
		return nil, err
	}
	if _, err := s.users.GetByID(ctx, targetID); err != nil {
		return nil, s.storeError(err, "user", targetID)
	}
	entries, err := s.blockLog.ListByUser(ctx, targetID)
	if err != nil {
		return nil, s.storeError(err, "block_log", targetID)
	}
	return entries, nil
}

func (s *BlockingService) authorize(p *auth.Principal) error {
	if err := requirePrincipal(p); err != nil {
		return err
	}
	if !p.Capabilities().BlockUsers {
		return apperrors.NewUnauthorized("missing capability " + string(auth.CapBlockUsers))
	}
	return nil
}

func (s *BlockingService) appendLog(ctx context.Context, entry *domain.BlockLogEntry) {
	if err := s.blockLog.Create(ctx, entry); err != nil {
		s.Logger.Error("append block log", zap.String("user_id", entry.UserID), zap.Error(err))
	}
}

// checkHierarchy refuses self-targeting and acting on platform staff of
// equal or higher rank.
func checkHierarchy(p *auth.Principal, target *domain.User) error {
	if target.ID == p.UserID {
		return apperrors.NewValidationError("cannot block or unblock yourself", map[string]any{"user_id": target.ID})
	}
	if auth.IsPlatformStaff(target.Role) && !auth.Outranks(p.Role, target.Role) {
		return apperrors.NewUnauthorized("target outranks or equals the caller")
	}
	return nil
}

func normalizeDuration(duration *string) *string {
	if duration == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*duration)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
