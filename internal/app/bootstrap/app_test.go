package bootstrap

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appconfig "github.com/wolfman30/pawcare-booking/internal/config"
	"github.com/wolfman30/pawcare-booking/internal/events"
	"github.com/wolfman30/pawcare-booking/internal/payments"
	"github.com/wolfman30/pawcare-booking/pkg/logging"
)

func testConfig() *appconfig.Config {
	return &appconfig.Config{
		UserID:               "demo-user",
		SettlementLatency:    0,
		MaxPaymentAttempts:   5,
		PaymentAttemptWindow: time.Hour,
	}
}

func TestBuildRequiresConfig(t *testing.T) {
	_, err := Build(context.Background(), nil, logging.New("error"), Options{})
	require.Error(t, err)
}

func TestBuildRedisClientDisabled(t *testing.T) {
	if client := BuildRedisClient(context.Background(), testConfig(), nil, true); client != nil {
		t.Fatalf("expected nil client without REDIS_ADDR")
	}
}

func TestBuildRedisClientUnreachableFallsBack(t *testing.T) {
	cfg := testConfig()
	cfg.RedisAddr = "127.0.0.1:1"
	if client := BuildRedisClient(context.Background(), cfg, logging.New("error"), true); client != nil {
		t.Fatalf("expected nil client when ping fails")
	}
}

func TestBuildInMemory(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, err := Build(ctx, testConfig(), logging.New("error"), Options{Registry: prometheus.NewRegistry()})
	require.NoError(t, err)
	defer app.Close()
	assert.Nil(t, app.Redis)
	require.NotNil(t, app.Notifier)

	rec := httptest.NewRecorder()
	app.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/catalog", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "General Health Checkup")

	rec = httptest.NewRecorder()
	app.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/events", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBuildWithRedis(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	cfg := testConfig()
	cfg.RedisAddr = mr.Addr()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	app, err := Build(ctx, cfg, logging.New("error"), Options{Registry: prometheus.NewRegistry()})
	if err != nil {
		mr.Close()
		t.Fatalf("build: %v", err)
	}
	defer app.Close()
	require.NotNil(t, app.Redis)

	rec := httptest.NewRecorder()
	app.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	mr.Close()
	rec = httptest.NewRecorder()
	app.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "redis"))
}

func TestBuildStoresUseRedisWhenAvailable(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig()
	cfg.RedisAddr = mr.Addr()
	client := BuildRedisClient(context.Background(), cfg, nil, true)
	require.NotNil(t, client)
	defer client.Close()

	_, ok := BuildProcessedStore(client).(*events.RedisProcessedStore)
	assert.True(t, ok)
	_, ok = BuildAttemptLimiter(client, cfg, nil).(*payments.RedisAttemptLimiter)
	assert.True(t, ok)

	_, ok = BuildProcessedStore(nil).(*events.MemoryProcessedStore)
	assert.True(t, ok)
	_, ok = BuildAttemptLimiter(nil, cfg, nil).(*payments.MemoryAttemptLimiter)
	assert.True(t, ok)
}
