package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	goredislib "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisLocker is a RedLock-based locker shared by every replica
type RedisLocker struct {
	redsync *redsync.Redsync
	opts    Options
	logger  *zap.Logger
}

// Options tune lock acquisition
type Options struct {
	Expiry     time.Duration
	Tries      int
	RetryDelay time.Duration
}

// DefaultOptions waits up to roughly eight seconds for a busy book
func DefaultOptions() Options {
	return Options{
		Expiry:     3 * time.Minute,
		Tries:      32,
		RetryDelay: 250 * time.Millisecond,
	}
}

// NewRedisLocker creates a locker backed by the given redis client
func NewRedisLocker(client goredislib.UniversalClient, opts Options, logger *zap.Logger) *RedisLocker {
	return &RedisLocker{
		redsync: redsync.New(goredis.NewPool(client)),
		opts:    opts,
		logger:  logger.Named("lock"),
	}
}

// WithLock executes fn while holding the distributed lock for key
func (r *RedisLocker) WithLock(ctx context.Context, key string, fn func() error) error {
	mutex := r.redsync.NewMutex(
		key,
		redsync.WithExpiry(r.opts.Expiry),
		redsync.WithTries(r.opts.Tries),
		redsync.WithRetryDelay(r.opts.RetryDelay),
	)

	if err := mutex.LockContext(ctx); err != nil {
		return fmt.Errorf("failed to acquire lock %s: %w", key, err)
	}
	r.logger.Debug("lock acquired", zap.String("key", key))

	defer func() {
		if ok, err := mutex.UnlockContext(context.WithoutCancel(ctx)); !ok || err != nil {
			r.logger.Error("failed to release lock", zap.String("key", key), zap.Bool("ok", ok), zap.Error(err))
		}
	}()

	return fn()
}
