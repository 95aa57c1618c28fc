package lock

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"
)

const (
	redisKeyPrefix  = "lock:"
	redisExpiry     = 30 * time.Second
	redisTries      = 32
	redisRetryDelay = 100 * time.Millisecond
	unlockTimeout   = 3 * time.Second
)

// RedisLocker is a redsync mutex shared by every process using the same Redis.
type RedisLocker struct {
	rs  *redsync.Redsync
	log *slog.Logger
}

func NewRedis(client redis.UniversalClient, log *slog.Logger) *RedisLocker {
	return &RedisLocker{
		rs:  redsync.New(goredis.NewPool(client)),
		log: log,
	}
}

// Acquire retries for roughly redisTries*redisRetryDelay before giving up.
// The lock expires on its own after redisExpiry if the holder dies.
func (l *RedisLocker) Acquire(ctx context.Context, name string) (func(), error) {
	const op = "lock.RedisLocker.Acquire"

	mutex := l.rs.NewMutex(redisKeyPrefix+name,
		redsync.WithExpiry(redisExpiry),
		redsync.WithTries(redisTries),
		redsync.WithRetryDelay(redisRetryDelay),
		redsync.WithDriftFactor(0.01),
	)

	if err := mutex.LockContext(ctx); err != nil {
		return nil, fmt.Errorf("%s: %s: %w", op, name, err)
	}

	return func() {
		unlockCtx, cancel := context.WithTimeout(context.Background(), unlockTimeout)
		defer cancel()

		if ok, err := mutex.UnlockContext(unlockCtx); err != nil || !ok {
			l.log.Warn("failed to release lock",
				slog.String("name", name),
				slog.Any("error", err),
			)
		}
	}, nil
}
