package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	goredis "github.com/redis/go-redis/v9"

	"github.com/bafnalights-dot/stock/internal/model"
)

type locker struct {
	client *redislock.Client
	prefix string
}

// NewLocker returns a distributed lock backed by redis. Keys are namespaced with prefix.
func NewLocker(rdb goredis.UniversalClient, prefix string) *locker {
	return &locker{client: redislock.New(rdb), prefix: prefix}
}

// Lock obtains key without retrying. A held key yields model.ErrServiceBusy.
func (l *locker) Lock(ctx context.Context, key string, ttl time.Duration) (func(ctx context.Context) error, error) {
	lock, err := l.client.Obtain(ctx, l.prefix+key, ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, fmt.Errorf("%w: %s is locked", model.ErrServiceBusy, key)
	}
	if err != nil {
		return nil, fmt.Errorf("obtain lock %s: %w", key, err)
	}

	return func(ctx context.Context) error {
		if err := lock.Release(ctx); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			return fmt.Errorf("release lock %s: %w", key, err)
		}
		return nil
	}, nil
}
