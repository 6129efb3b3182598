package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrLockNotAcquired is returned when the lock stays held past the wait limit.
var ErrLockNotAcquired = errors.New("scope lock not acquired")

// UnlockFunc releases a lock obtained from a ScopeLocker.
type UnlockFunc func(ctx context.Context) error

// ScopeLocker serializes writes to a single question bank across replicas.
type ScopeLocker interface {
	Lock(ctx context.Context, scopeKey string) (UnlockFunc, error)
}

type LockConfig struct {
	Prefix   string
	TTL      time.Duration
	Wait     time.Duration
	RetryGap time.Duration
}

type redisScopeLocker struct {
	client *redis.Client
	config LockConfig
	logger *slog.Logger
}

// releaseScript deletes the key only while it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

func NewRedisScopeLocker(client *redis.Client, config LockConfig, logger *slog.Logger) ScopeLocker {
	if config.Prefix == "" {
		config.Prefix = "qbank:lock:"
	}
	if config.TTL <= 0 {
		config.TTL = 10 * time.Second
	}
	if config.RetryGap <= 0 {
		config.RetryGap = 50 * time.Millisecond
	}
	return &redisScopeLocker{
		client: client,
		config: config,
		logger: logger,
	}
}

func (l *redisScopeLocker) Lock(ctx context.Context, scopeKey string) (UnlockFunc, error) {
	key := l.config.Prefix + scopeKey
	token := uuid.NewString()
	deadline := time.Now().Add(l.config.Wait)

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.config.TTL).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to acquire lock %s: %w", key, err)
		}
		if ok {
			return func(ctx context.Context) error {
				if err := releaseScript.Run(ctx, l.client, []string{key}, token).Err(); err != nil {
					return fmt.Errorf("failed to release lock %s: %w", key, err)
				}
				return nil
			}, nil
		}

		if time.Now().After(deadline) {
			l.logger.Debug("Scope lock busy", "key", key, "wait", l.config.Wait)
			return nil, ErrLockNotAcquired
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.config.RetryGap):
		}
	}
}

type noopScopeLocker struct{}

// NewNoopScopeLocker returns a locker that never blocks.
func NewNoopScopeLocker() ScopeLocker {
	return noopScopeLocker{}
}

func (noopScopeLocker) Lock(context.Context, string) (UnlockFunc, error) {
	return func(context.Context) error { return nil }, nil
}
