package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/wolfman30/pawcare-booking/internal/http/handlers"
	httpmiddleware "github.com/wolfman30/pawcare-booking/internal/http/middleware"
	"github.com/wolfman30/pawcare-booking/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger       *logging.Logger
	Health       *handlers.HealthHandler
	Catalog      *handlers.CatalogHandler
	Booking      *handlers.BookingHandler
	Checkout     *handlers.CheckoutHandler
	Appointments *handlers.AppointmentsHandler
	AdminEvents  *handlers.AdminEventsHandler
	// LiveUpdates serves the session WebSocket stream. Nil leaves it unmounted.
	LiveUpdates http.HandlerFunc

	MetricsHandler     http.Handler
	CORSAllowedOrigins []string
	// AdminAuthSecret enables /admin. Empty leaves the admin routes unmounted.
	AdminAuthSecret string
	// RateLimiter throttles the client API. Nil disables throttling.
	RateLimiter *httpmiddleware.RateLimiter
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}

	health := cfg.Health
	if health == nil {
		health = handlers.NewHealthHandler(nil)
	}
	r.Get("/health", health.Check)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	// Client API for the signed-in pet owner.
	r.Group(func(api chi.Router) {
		api.Use(httpmiddleware.RateLimit(cfg.RateLimiter))

		api.Get("/catalog", cfg.Catalog.ListServices)
		api.Get("/pets", cfg.Catalog.ListPets)

		api.Route("/booking", func(b chi.Router) {
			b.Post("/", cfg.Booking.Start)
			b.Get("/", cfg.Booking.Get)
			b.Patch("/details", cfg.Booking.UpdateDetails)
			b.Get("/slots", cfg.Booking.Slots)
			b.Put("/services/{serviceID}", cfg.Booking.SelectService)
			b.Delete("/services/{serviceID}", cfg.Booking.DeselectService)
			b.Post("/next", cfg.Booking.Next)
			b.Post("/back", cfg.Booking.Back)
			b.Post("/skip", cfg.Booking.Skip)
			b.Post("/continue", cfg.Booking.Continue)
			b.Post("/confirm", cfg.Booking.Confirm)
			if cfg.LiveUpdates != nil {
				b.Get("/live", cfg.LiveUpdates)
			}
		})

		api.Route("/checkout", func(c chi.Router) {
			c.Get("/", cfg.Checkout.Get)
			c.Delete("/", cfg.Checkout.Abandon)
			c.Post("/confirm", cfg.Checkout.ConfirmFree)
			c.Post("/pay", cfg.Checkout.Pay)
		})

		api.Route("/appointments", func(a chi.Router) {
			a.Get("/", cfg.Appointments.List)
			a.Get("/upcoming", cfg.Appointments.Upcoming)
			a.Get("/{appointmentID}", cfg.Appointments.Get)
		})
	})

	// Staff routes (HS256 staff JWT)
	if cfg.AdminAuthSecret != "" {
		r.Route("/admin", func(admin chi.Router) {
			admin.Use(httpmiddleware.AdminJWT(cfg.AdminAuthSecret))
			admin.Get("/appointments", cfg.Appointments.List)
			admin.Get("/appointments/summary", cfg.Appointments.Summary)
			admin.Patch("/appointments/{appointmentID}/status", cfg.Appointments.UpdateStatus)
			if cfg.AdminEvents != nil {
				admin.Get("/events", cfg.AdminEvents.List)
			}
		})
	}

	return r
}
