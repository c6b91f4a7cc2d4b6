package pendinglock

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	id "vouch/pkg/domain"
	"vouch/pkg/platform/sentinel"
)

// defaultLockTTL bounds how long a crashed orchestration can block a subject.
// Comfortably above the worst-case poll budget; refreshed on every Acquire.
const defaultLockTTL = 10 * time.Minute

// Redis implements Lock with SET NX so the discipline holds across service
// instances.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// RedisOption configures a Redis lock.
type RedisOption func(*Redis)

// WithTTL overrides the lock expiry.
func WithTTL(ttl time.Duration) RedisOption {
	return func(l *Redis) {
		if ttl > 0 {
			l.ttl = ttl
		}
	}
}

// NewRedis constructs a Redis-backed lock.
func NewRedis(client *redis.Client, opts ...RedisOption) *Redis {
	l := &Redis{client: client, ttl: defaultLockTTL}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func lockKey(subject id.SubjectID) string {
	return "vouch:pending:" + subject.String()
}

func (l *Redis) Acquire(ctx context.Context, subject id.SubjectID) error {
	ok, err := l.client.SetNX(ctx, lockKey(subject), "1", l.ttl).Result()
	if err != nil {
		return fmt.Errorf("acquire pending lock: %w", err)
	}
	if !ok {
		return sentinel.ErrConflict
	}
	return nil
}

func (l *Redis) Release(ctx context.Context, subject id.SubjectID) error {
	if err := l.client.Del(ctx, lockKey(subject)).Err(); err != nil {
		return fmt.Errorf("release pending lock: %w", err)
	}
	return nil
}

var _ Lock = (*Redis)(nil)
