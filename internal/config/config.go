package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port            string
	Env             string
	LogLevel        string
	UserID          string
	ShutdownTimeout time.Duration

	// CatalogFile points at a TOML service catalog. Empty uses the built-in catalog.
	CatalogFile string

	// Redis backs settlement idempotency and payment attempt limits when set.
	// Empty keeps both in memory.
	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	// Simulated settlement
	SettlementLatency      time.Duration
	SettlementDeclineCards []string
	MaxPaymentAttempts     int
	PaymentAttemptWindow   time.Duration

	CORSAllowedOrigins []string

	// AdminJWTSecret signs staff tokens for /admin routes. Empty disables them.
	AdminJWTSecret string

	// Per-client request rate for the public API. Zero disables limiting.
	RateLimitRPS   float64
	RateLimitBurst int

	// Front desk email notifications. Provider is "sendgrid", "ses" or empty
	// for a logging stub.
	NotifyEmailProvider string
	NotifyFromEmail     string
	NotifyFromName      string
	NotifyRecipients    []string
	SendGridAPIKey      string

	AWSRegion          string
	AWSAccessKeyID     string
	AWSSecretAccessKey string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:            getEnv("PORT", "8080"),
		Env:             getEnv("ENV", "development"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		UserID:          getEnv("USER_ID", "demo-user"),
		ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", 30*time.Second),

		CatalogFile: strings.TrimSpace(getEnv("CATALOG_FILE", "")),

		RedisAddr:     strings.TrimSpace(getEnv("REDIS_ADDR", "")),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		SettlementLatency:      getEnvAsDuration("SETTLEMENT_LATENCY", 2*time.Second),
		SettlementDeclineCards: getEnvAsList("SETTLEMENT_DECLINE_CARDS", []string{"4000000000000002"}),
		MaxPaymentAttempts:     getEnvAsInt("MAX_PAYMENT_ATTEMPTS", 5),
		PaymentAttemptWindow:   getEnvAsDuration("PAYMENT_ATTEMPT_WINDOW", time.Hour),

		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", nil),

		AdminJWTSecret: getEnv("ADMIN_JWT_SECRET", ""),

		RateLimitRPS:   getEnvAsFloat("RATE_LIMIT_RPS", 10),
		RateLimitBurst: getEnvAsInt("RATE_LIMIT_BURST", 20),

		NotifyEmailProvider: strings.ToLower(strings.TrimSpace(getEnv("NOTIFY_EMAIL_PROVIDER", ""))),
		NotifyFromEmail:     getEnv("NOTIFY_FROM_EMAIL", "no-reply@pawcare.example"),
		NotifyFromName:      getEnv("NOTIFY_FROM_NAME", ""),
		NotifyRecipients:    getEnvAsList("NOTIFY_RECIPIENTS", nil),
		SendGridAPIKey:      getEnv("SENDGRID_API_KEY", ""),

		AWSRegion:          getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
	}
}

// IsProduction reports whether the service runs with ENV=production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.Env), "production")
}

// UsesRedis reports whether a Redis address was configured.
func (c *Config) UsesRedis() bool {
	return c.RedisAddr != ""
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsList splits a comma separated variable, dropping blank entries.
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
