package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/ayurtrace/ayurtrace/internal/apperror"
	"github.com/ayurtrace/ayurtrace/internal/config"
	"github.com/ayurtrace/ayurtrace/internal/observability/metrics"
	"github.com/bwmarrin/snowflake"
	redis "github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("lock",
	fx.Provide(NewRedisClient),
	fx.Provide(New),
)

// ErrLockTimeout is returned when a key stays held past the wait budget.
var ErrLockTimeout = apperror.New(apperror.KindStorage, "lock_timeout")

// Locker serializes work per key. The returned unlock func is safe to call once.
type Locker interface {
	Lock(ctx context.Context, key string) (func(), error)
}

const (
	defaultTTL  = 30 * time.Second
	defaultWait = 10 * time.Second
)

func BatchKey(batchID snowflake.ID) string {
	return fmt.Sprintf("ayurtrace:lock:batch:%s", batchID.String())
}

type Params struct {
	fx.In

	Log     *zap.Logger
	Redis   *redis.Client         `optional:"true"`
	Metrics *metrics.TraceMetrics `optional:"true"`
}

// New returns a redis-backed locker when a client is configured, else an
// in-process keyed mutex.
func New(p Params) Locker {
	log := p.Log.Named("lock")
	if p.Redis != nil {
		log.Info("using redis batch lock")
		return NewRedisLocker(p.Redis, defaultTTL, defaultWait, p.Metrics)
	}
	log.Info("using in-process batch lock")
	return NewMemoryLocker(p.Metrics)
}

// NewRedisClient returns nil when REDIS_ADDR is unset.
func NewRedisClient(lc fx.Lifecycle, cfg config.Config) *redis.Client {
	if cfg.RedisAddr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return client.Close()
		},
	})
	return client
}
