package lock

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ayurtrace/ayurtrace/internal/apperror"
	"github.com/ayurtrace/ayurtrace/internal/observability/metrics"
	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
)

const lockReleaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`

// RedisLocker holds keys with SET NX and releases them only when the token
// still matches, so an expired holder cannot free a successor's lock.
type RedisLocker struct {
	client  *redis.Client
	script  *redis.Script
	ttl     time.Duration
	wait    time.Duration
	retry   time.Duration
	metrics *metrics.TraceMetrics
}

func NewRedisLocker(client *redis.Client, ttl, wait time.Duration, m *metrics.TraceMetrics) *RedisLocker {
	return &RedisLocker{
		client:  client,
		script:  redis.NewScript(lockReleaseScript),
		ttl:     ttl,
		wait:    wait,
		retry:   25 * time.Millisecond,
		metrics: m,
	}
}

func (l *RedisLocker) TryLock(ctx context.Context, key string) (string, bool, error) {
	if key == "" {
		return "", false, errors.New("lock key is empty")
	}
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return "", false, apperror.Storage(err)
	}
	return token, ok, nil
}

func (l *RedisLocker) Release(ctx context.Context, key, token string) error {
	if key == "" || token == "" {
		return nil
	}
	return l.script.Run(ctx, l.client, []string{key}, token).Err()
}

func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	start := time.Now()
	deadline := start.Add(l.wait)
	for {
		token, ok, err := l.TryLock(ctx, key)
		if err != nil {
			return nil, err
		}
		if ok {
			l.metrics.ObserveLockWait(time.Since(start))
			var once sync.Once
			return func() {
				once.Do(func() {
					_ = l.Release(context.WithoutCancel(ctx), key, token)
				})
			}, nil
		}
		if time.Now().After(deadline) {
			return nil, ErrLockTimeout
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.retry):
		}
	}
}
