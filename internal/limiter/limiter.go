// Package limiter throttles refresh attempts per identity with fixed-window
// Redis counters.
package limiter

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dunet/session-server/internal/logger"
	"github.com/dunet/session-server/internal/model"
)

var _ model.RefreshLimiter = (*Redis)(nil)

// Config holds throttle parameters.
type Config struct {
	MaxRefresh int
	Window     time.Duration
	KeyPrefix  string
	// FailOpen lets refreshes through when Redis cannot be reached.
	FailOpen bool
}

// Redis counts refresh attempts in keys that expire with the window.
type Redis struct {
	client redis.UniversalClient
	config Config
	logger *logger.Logger
}

// New creates a Redis limiter on top of the given client.
func New(client redis.UniversalClient, cfg Config, logger *logger.Logger) *Redis {
	return &Redis{client: client, config: cfg, logger: logger}
}

// Allow increments the identity's counter and returns model.ErrRateLimited
// once the window budget is exceeded.
func (l *Redis) Allow(ctx context.Context, identityID int64) error {
	count, err := l.incrementWithTTL(ctx, l.key(identityID))
	if err != nil {
		if l.config.FailOpen {
			l.logger.Warn("Refresh limiter: redis unavailable, allowing request",
				"identity_id", identityID,
				"error", err.Error())
			return nil
		}
		return fmt.Errorf("%w: %w", model.ErrUnavailable, err)
	}

	if count > int64(l.config.MaxRefresh) {
		l.logger.Info("Refresh limiter: budget exceeded",
			"identity_id", identityID,
			"count", count)
		return model.ErrRateLimited
	}

	return nil
}

func (l *Redis) key(identityID int64) string {
	return l.config.KeyPrefix + ":refresh:" + strconv.FormatInt(identityID, 10)
}

func (l *Redis) incrementWithTTL(ctx context.Context, key string) (int64, error) {
	var incr *redis.IntCmd
	var ttl *redis.DurationCmd
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		ttl = pipe.TTL(ctx, key)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("incr refresh counter: %w", err)
	}

	// a counter without TTL either started this window or lost its EXPIRE
	// to an earlier failure; arm it on every hit until it sticks
	if ttl.Val() < 0 {
		if err := l.client.Expire(ctx, key, l.config.Window).Err(); err != nil {
			return 0, fmt.Errorf("expire refresh counter: %w", err)
		}
	}

	return incr.Val(), nil
}
