package payments

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/pawcare-booking/pkg/logging"
)

// AttemptResult contains the result of an attempt check.
type AttemptResult struct {
	Allowed      bool
	CurrentCount int
	MaxAllowed   int
	WindowExpiry time.Time
	Message      string
}

// AttemptLimiter caps payment attempts per key within a window.
type AttemptLimiter interface {
	Allow(ctx context.Context, key string) (*AttemptResult, error)
	Reset(ctx context.Context, key string) error
}

// AttemptConfig contains attempt limit configuration.
type AttemptConfig struct {
	MaxAttempts int
	Window      time.Duration
}

// DefaultAttemptConfig returns default attempt limits.
func DefaultAttemptConfig() AttemptConfig {
	return AttemptConfig{MaxAttempts: 5, Window: time.Hour}
}

func (c AttemptConfig) normalized() AttemptConfig {
	def := DefaultAttemptConfig()
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = def.MaxAttempts
	}
	if c.Window <= 0 {
		c.Window = def.Window
	}
	return c
}

// RedisAttemptLimiter counts attempts with INCR and a window EXPIRE.
type RedisAttemptLimiter struct {
	redis  redis.Cmdable
	config AttemptConfig
	logger *logging.Logger
}

// NewRedisAttemptLimiter creates a Redis-backed limiter.
func NewRedisAttemptLimiter(client redis.Cmdable, config AttemptConfig, logger *logging.Logger) *RedisAttemptLimiter {
	if client == nil {
		panic("payments: redis client required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &RedisAttemptLimiter{redis: client, config: config.normalized(), logger: logger}
}

func attemptKey(key string) string {
	return fmt.Sprintf("attempts:payment:%s", key)
}

// Allow records an attempt. Redis failures allow the attempt.
func (l *RedisAttemptLimiter) Allow(ctx context.Context, key string) (*AttemptResult, error) {
	ctx, span := paymentsTracer.Start(ctx, "payments.attempts.allow")
	defer span.End()
	span.SetAttributes(attribute.String("pawcare.attempt_key", key))

	rkey := attemptKey(key)
	count, expiry, err := l.incrementAndGet(ctx, rkey)
	if err != nil {
		l.logger.Error("attempt check failed", "error", err, "key", rkey)
		// Fail open - allow the attempt if Redis is down
		return &AttemptResult{Allowed: true, MaxAllowed: l.config.MaxAttempts, Message: "attempt check unavailable"}, nil
	}

	result := &AttemptResult{
		Allowed:      count <= l.config.MaxAttempts,
		CurrentCount: count,
		MaxAllowed:   l.config.MaxAttempts,
		WindowExpiry: expiry,
	}
	if !result.Allowed {
		result.Message = fmt.Sprintf("exceeded %d payment attempts in %s", l.config.MaxAttempts, l.config.Window)
		l.logger.Warn("payment attempts exceeded", "key", key, "count", count, "max", l.config.MaxAttempts)
		span.SetAttributes(attribute.Bool("pawcare.attempts_exceeded", true))
	}
	return result, nil
}

// incrementAndGet increments a counter and returns the new value with expiry time.
func (l *RedisAttemptLimiter) incrementAndGet(ctx context.Context, key string) (int, time.Time, error) {
	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return 0, time.Time{}, err
	}
	// Set expiry only on first increment
	if count == 1 {
		l.redis.Expire(ctx, key, l.config.Window)
	}
	ttl, err := l.redis.TTL(ctx, key).Result()
	if err != nil || ttl < 0 {
		ttl = l.config.Window
	}
	return int(count), time.Now().Add(ttl), nil
}

// Reset clears the counter for key (admin use).
func (l *RedisAttemptLimiter) Reset(ctx context.Context, key string) error {
	return l.redis.Del(ctx, attemptKey(key)).Err()
}

// MemoryAttemptLimiter is the single-process limiter used without Redis.
type MemoryAttemptLimiter struct {
	mu      sync.Mutex
	config  AttemptConfig
	windows map[string]*attemptWindow
	now     func() time.Time
}

type attemptWindow struct {
	count   int
	expires time.Time
}

func NewMemoryAttemptLimiter(config AttemptConfig) *MemoryAttemptLimiter {
	return &MemoryAttemptLimiter{config: config.normalized(), windows: map[string]*attemptWindow{}, now: time.Now}
}

func (l *MemoryAttemptLimiter) Allow(_ context.Context, key string) (*AttemptResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	w, ok := l.windows[key]
	if !ok || !now.Before(w.expires) {
		w = &attemptWindow{expires: now.Add(l.config.Window)}
		l.windows[key] = w
	}
	w.count++
	result := &AttemptResult{
		Allowed:      w.count <= l.config.MaxAttempts,
		CurrentCount: w.count,
		MaxAllowed:   l.config.MaxAttempts,
		WindowExpiry: w.expires,
	}
	if !result.Allowed {
		result.Message = fmt.Sprintf("exceeded %d payment attempts in %s", l.config.MaxAttempts, l.config.Window)
	}
	return result, nil
}

func (l *MemoryAttemptLimiter) Reset(_ context.Context, key string) error {
	l.mu.Lock()
	delete(l.windows, key)
	l.mu.Unlock()
	return nil
}
