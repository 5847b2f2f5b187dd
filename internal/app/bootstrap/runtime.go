package bootstrap

import (
	"context"
	"crypto/tls"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	appconfig "github.com/wolfman30/pawcare-booking/internal/config"
	"github.com/wolfman30/pawcare-booking/internal/events"
	"github.com/wolfman30/pawcare-booking/internal/payments"
	"github.com/wolfman30/pawcare-booking/pkg/logging"
)

// processedTTL bounds how long settlement references are remembered in Redis.
const processedTTL = 7 * 24 * time.Hour

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	opts := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(opts)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available, falling back to memory", "addr", cfg.RedisAddr, "error", err)
		_ = client.Close()
		return nil
	}
	return client
}

// BuildProcessedStore remembers committed settlement references in Redis when
// available, otherwise in memory.
func BuildProcessedStore(client *redis.Client) events.ProcessedStore {
	if client == nil {
		return events.NewMemoryProcessedStore()
	}
	return events.NewRedisProcessedStore(client, processedTTL)
}

// BuildAttemptLimiter caps payment attempts per checkout.
func BuildAttemptLimiter(client *redis.Client, cfg *appconfig.Config, logger *logging.Logger) payments.AttemptLimiter {
	limits := payments.AttemptConfig{MaxAttempts: cfg.MaxPaymentAttempts, Window: cfg.PaymentAttemptWindow}
	if client == nil {
		return payments.NewMemoryAttemptLimiter(limits)
	}
	return payments.NewRedisAttemptLimiter(client, limits, logger)
}
