package ratelimit

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/ayurtrace/ayurtrace/internal/clock"
	"github.com/ayurtrace/ayurtrace/internal/config"
	redis "github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	keyOTPRequest  = "ayurtrace:otp:request:%s"
	keyPublicTrace = "ayurtrace:trace:client:%s"
)

// limiter is a token bucket per key. It uses the shared redis bucket when
// available and a process-local bucket otherwise.
type limiter struct {
	bucket *TokenBucket
	local  *localBuckets
	rate   float64
	burst  int
	log    *zap.Logger
}

func (l *limiter) allow(ctx context.Context, key string) *RateLimitResult {
	if l.bucket != nil {
		res, err := l.bucket.Allow(ctx, key, l.rate, l.burst)
		if err == nil {
			return res
		}
		l.log.Warn("redis rate limit unavailable, using local bucket", zap.Error(err))
	}
	return l.local.allow(key, l.rate, l.burst)
}

// OTPLimiter caps OTP requests per phone number.
type OTPLimiter struct {
	limiter
}

type OTPLimiterParams struct {
	fx.In

	Config config.Config
	Log    *zap.Logger
	Clock  clock.Clock
	Redis  *redis.Client `optional:"true"`
}

func NewOTPLimiter(p OTPLimiterParams) *OTPLimiter {
	perHour := p.Config.OTPRatePerHour
	if perHour <= 0 {
		return nil
	}
	return &OTPLimiter{limiter{
		bucket: NewTokenBucket(p.Redis),
		local:  newLocalBuckets(p.Clock),
		rate:   float64(perHour) / time.Hour.Seconds(),
		burst:  perHour,
		log:    p.Log.Named("ratelimit.otp"),
	}}
}

// Allow reports whether another OTP may be sent to phone. A nil limiter
// allows everything.
func (l *OTPLimiter) Allow(ctx context.Context, phone string) (*RateLimitResult, error) {
	if l == nil {
		return &RateLimitResult{Allowed: true}, nil
	}
	return l.allow(ctx, fmt.Sprintf(keyOTPRequest, strings.TrimSpace(phone))), nil
}

// TraceLimiter caps unauthenticated QR lookups per client address.
type TraceLimiter struct {
	limiter
}

func NewTraceLimiter(p OTPLimiterParams) *TraceLimiter {
	perMinute := p.Config.PublicTraceRatePerMinute
	if perMinute <= 0 {
		return nil
	}
	return &TraceLimiter{limiter{
		bucket: NewTokenBucket(p.Redis),
		local:  newLocalBuckets(p.Clock),
		rate:   float64(perMinute) / time.Minute.Seconds(),
		burst:  perMinute,
		log:    p.Log.Named("ratelimit.trace"),
	}}
}

// Allow reports whether client may look up another code. A nil limiter
// allows everything.
func (l *TraceLimiter) Allow(ctx context.Context, client string) *RateLimitResult {
	if l == nil {
		return &RateLimitResult{Allowed: true}
	}
	return l.allow(ctx, fmt.Sprintf(keyPublicTrace, strings.TrimSpace(client)))
}

type localBucket struct {
	tokens float64
	ts     time.Time
}

type localBuckets struct {
	mu      sync.Mutex
	clock   clock.Clock
	buckets map[string]*localBucket
}

func newLocalBuckets(c clock.Clock) *localBuckets {
	if c == nil {
		c = clock.SystemClock{}
	}
	return &localBuckets{clock: c, buckets: make(map[string]*localBucket)}
}

func (b *localBuckets) allow(key string, rate float64, burst int) *RateLimitResult {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.clock.Now()
	bucket, ok := b.buckets[key]
	if !ok {
		bucket = &localBucket{tokens: float64(burst), ts: now}
		b.buckets[key] = bucket
	} else {
		elapsed := now.Sub(bucket.ts).Seconds()
		if elapsed > 0 {
			bucket.tokens = math.Min(float64(burst), bucket.tokens+elapsed*rate)
		}
		bucket.ts = now
	}

	res := &RateLimitResult{Limit: burst}
	if bucket.tokens >= 1 {
		bucket.tokens--
		res.Allowed = true
	} else {
		res.RetryAfter = time.Duration((1 - bucket.tokens) / rate * float64(time.Second))
	}
	res.Remaining = int(bucket.tokens)
	res.ResetTime = now.Add(res.RetryAfter)
	return res
}
