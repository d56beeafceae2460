// Package notify reads the system notification counts owned by an external
// collaborator.
package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/spec-kit/moderation-service/internal/config"
)

// Source returns the number of unread system notifications for a user.
type Source interface {
	UnreadCount(ctx context.Context, userID string) (int, error)
}

// ErrUnavailable is returned while the breaker is open.
var ErrUnavailable = errors.New("notification source unavailable")

type redisGetter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

// RedisCounter reads integer counters stored at <prefix><user id>. The
// notification service increments and clears them; this side only reads.
type RedisCounter struct {
	client redisGetter
	prefix string
}

// NewRedisCounter builds a counter over client.
func NewRedisCounter(client *redis.Client, prefix string) *RedisCounter {
	return &RedisCounter{client: client, prefix: prefix}
}

// UnreadCount returns 0 for users without a counter.
func (r *RedisCounter) UnreadCount(ctx context.Context, userID string) (int, error) {
	count, err := r.client.Get(ctx, r.prefix+userID).Int()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read notification counter: %w", err)
	}
	return max(count, 0), nil
}

// BreakerSource guards a Source with a circuit breaker so a failing
// collaborator is not queried on every counts request.
type BreakerSource struct {
	next    Source
	breaker *gobreaker.CircuitBreaker
}

// NewBreakerSource wraps next using the configured thresholds.
func NewBreakerSource(next Source, cfg config.BreakerConfig, logger *zap.Logger) *BreakerSource {
	minRequests := cfg.MinRequests
	ratio := cfg.FailureRatio
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "notification-source",
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval(),
		Timeout:     cfg.Timeout(),
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < minRequests || counts.Requests == 0 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= ratio
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
	return &BreakerSource{next: next, breaker: breaker}
}

// UnreadCount delegates through the breaker.
func (b *BreakerSource) UnreadCount(ctx context.Context, userID string) (int, error) {
	result, err := b.breaker.Execute(func() (interface{}, error) {
		return b.next.UnreadCount(ctx, userID)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return 0, ErrUnavailable
	}
	if err != nil {
		return 0, err
	}
	return result.(int), nil
}

// State returns the breaker state name.
func (b *BreakerSource) State() string {
	return b.breaker.State().String()
}

// Ping reports ErrUnavailable while the breaker is open so readiness
// reflects a tripped notification source.
func (b *BreakerSource) Ping(context.Context) error {
	if b.breaker.State() == gobreaker.StateOpen {
		return ErrUnavailable
	}
	return nil
}

// Static is a Source that always reports zero. It stands in when Redis is
// not configured.
type Static struct{}

// UnreadCount implements Source.
func (Static) UnreadCount(context.Context, string) (int, error) {
	return 0, nil
}
