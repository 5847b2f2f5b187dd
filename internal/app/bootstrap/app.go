package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/pawcare-booking/internal/api/router"
	"github.com/wolfman30/pawcare-booking/internal/bookings"
	"github.com/wolfman30/pawcare-booking/internal/catalog"
	appconfig "github.com/wolfman30/pawcare-booking/internal/config"
	"github.com/wolfman30/pawcare-booking/internal/events"
	"github.com/wolfman30/pawcare-booking/internal/http/handlers"
	httpmiddleware "github.com/wolfman30/pawcare-booking/internal/http/middleware"
	"github.com/wolfman30/pawcare-booking/internal/live"
	"github.com/wolfman30/pawcare-booking/internal/notify"
	"github.com/wolfman30/pawcare-booking/internal/observability/metrics"
	"github.com/wolfman30/pawcare-booking/internal/payments"
	"github.com/wolfman30/pawcare-booking/internal/pets"
	"github.com/wolfman30/pawcare-booking/internal/session"
	"github.com/wolfman30/pawcare-booking/pkg/logging"
)

const eventJournalSize = 256

// App is the wired API.
type App struct {
	Handler http.Handler
	Bus     *events.Bus
	Session *session.Store
	Redis   *redis.Client

	Notifier *notify.Notifier
}

// Close releases external connections.
func (a *App) Close() error {
	if a.Redis != nil {
		return a.Redis.Close()
	}
	return nil
}

// Options overrides pieces of the wiring. Zero values use production defaults.
type Options struct {
	// Registry receives the booking metrics and backs /metrics. Nil uses a
	// fresh registry with Go and process collectors.
	Registry *prometheus.Registry
	Now      func() time.Time
}

// Build wires the booking API from configuration. ctx bounds background work
// such as rate limiter eviction.
func Build(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, opts Options) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	reg := opts.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}

	cat, err := catalog.Load(cfg.CatalogFile)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: load catalog: %w", err)
	}

	petRepo := pets.NewInMemoryRepository()
	if _, err := pets.SeedDemoPets(ctx, petRepo, cfg.UserID); err != nil {
		return nil, fmt.Errorf("bootstrap: seed pets: %w", err)
	}

	redisClient := BuildRedisClient(ctx, cfg, logger, true)

	m := metrics.NewBookingMetrics(reg)
	bus := events.NewBus(eventJournalSize, logger)
	ledger := bookings.NewMemoryLedger()
	apptSvc := bookings.NewService(ledger, bus, m, logger)

	paySvc := payments.NewService(payments.ServiceDeps{
		Ledger:    ledger,
		Settler:   payments.NewSimulatedSettler(cfg.SettlementLatency, cfg.SettlementDeclineCards, logger),
		Processed: BuildProcessedStore(redisClient),
		Limiter:   BuildAttemptLimiter(redisClient, cfg, logger),
		Publisher: bus,
		Metrics:   m,
		Logger:    logger,
		Now:       opts.Now,
	})

	store := session.NewStore(session.Deps{
		UserID:    cfg.UserID,
		Services:  cat,
		Pets:      petRepo,
		Publisher: bus,
		Metrics:   m,
		Logger:    logger,
		Now:       opts.Now,
	})
	session.NewCoordinator(store, paySvc, logger).Attach(bus)
	hub := live.NewHub(store, logger)
	hub.Attach(bus)

	email, err := BuildEmailSender(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: email sender: %w", err)
	}
	notifier := notify.NewNotifier(email, apptSvc, notify.NotifierConfig{
		ClinicName: cfg.NotifyFromName,
		Recipients: cfg.NotifyRecipients,
	}, logger)
	notifier.Attach(bus)
	notifier.Start(ctx)

	checks := map[string]handlers.HealthCheck{}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}

	var limiter *httpmiddleware.RateLimiter
	if cfg.RateLimitRPS > 0 {
		limiter = httpmiddleware.NewRateLimiter(ctx, cfg.RateLimitRPS, cfg.RateLimitBurst)
	}

	handler := router.New(&router.Config{
		Logger:             logger,
		Health:             handlers.NewHealthHandler(checks),
		Catalog:            handlers.NewCatalogHandler(cat, petRepo, cfg.UserID, logger),
		Booking:            handlers.NewBookingHandler(store, logger),
		Checkout:           handlers.NewCheckoutHandler(store, logger),
		Appointments:       handlers.NewAppointmentsHandler(apptSvc, logger),
		AdminEvents:        handlers.NewAdminEventsHandler(bus),
		LiveUpdates:        hub.ServeWS,
		MetricsHandler:     promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		AdminAuthSecret:    cfg.AdminJWTSecret,
		RateLimiter:        limiter,
	})

	logger.Info("booking api wired",
		"services", len(cat.List()),
		"redis", redisClient != nil,
		"settlement_latency", cfg.SettlementLatency.String(),
		"admin_routes", cfg.AdminJWTSecret != "",
		"notify_recipients", len(cfg.NotifyRecipients),
	)
	return &App{Handler: handler, Bus: bus, Session: store, Redis: redisClient, Notifier: notifier}, nil
}
