package scheduler

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/go-redis/redis/v8"
)

// Locker makes sure a trigger runs once across replicas.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

// RedisLocker takes a SETNX lock per trigger. Locks are never released
// early; they expire after the TTL.
type RedisLocker struct {
	client redis.Cmdable
	owner  string
}

func NewRedisLocker(client redis.Cmdable) *RedisLocker {
	owner, _ := os.Hostname()
	return &RedisLocker{client: client, owner: fmt.Sprintf("%s:%d", owner, os.Getpid())}
}

func (l *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := l.client.SetNX(ctx, key, l.owner, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquire %s: %w", key, err)
	}
	return ok, nil
}

// LocalLocker always grants the lock. Used when Redis is not configured.
type LocalLocker struct{}

func (LocalLocker) Acquire(context.Context, string, time.Duration) (bool, error) { return true, nil }

// lockKey is scheduler:<job>:<trigger minute in UTC>.
func lockKey(job Job, trigger time.Time) string {
	return fmt.Sprintf("scheduler:%s:%s", job, trigger.UTC().Truncate(time.Minute).Format("200601021504"))
}
