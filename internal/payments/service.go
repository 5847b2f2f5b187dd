package payments

import (
	"time"

	"go.opentelemetry.io/otel"

	"github.com/wolfman30/pawcare-booking/internal/booking"
	"github.com/wolfman30/pawcare-booking/internal/bookings"
	"github.com/wolfman30/pawcare-booking/internal/events"
	"github.com/wolfman30/pawcare-booking/internal/observability/metrics"
	"github.com/wolfman30/pawcare-booking/pkg/logging"
)

var paymentsTracer = otel.Tracer("pawcare.internal.payments")

// ServiceDeps wires a checkout service. Ledger and Settler are required.
type ServiceDeps struct {
	Ledger    bookings.Ledger
	Settler   Settler
	Processed events.ProcessedStore
	Limiter   AttemptLimiter
	Publisher events.Publisher
	Metrics   *metrics.BookingMetrics
	Logger    *logging.Logger
	Now       func() time.Time
}

// Service opens checkouts for confirmed orders.
type Service struct {
	ledger    bookings.Ledger
	settler   Settler
	processed events.ProcessedStore
	limiter   AttemptLimiter
	publisher events.Publisher
	metrics   *metrics.BookingMetrics
	logger    *logging.Logger
	now       func() time.Time
}

func NewService(deps ServiceDeps) *Service {
	if deps.Ledger == nil {
		panic("payments: ledger required")
	}
	if deps.Settler == nil {
		panic("payments: settler required")
	}
	if deps.Processed == nil {
		deps.Processed = events.NewMemoryProcessedStore()
	}
	if deps.Limiter == nil {
		deps.Limiter = NewMemoryAttemptLimiter(DefaultAttemptConfig())
	}
	if deps.Logger == nil {
		deps.Logger = logging.Default()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Service{
		ledger:    deps.Ledger,
		settler:   deps.Settler,
		processed: deps.Processed,
		limiter:   deps.Limiter,
		publisher: deps.Publisher,
		metrics:   deps.Metrics,
		logger:    deps.Logger,
		now:       deps.Now,
	}
}

// Open starts a checkout for order. The free or paid path follows the
// order's pricing.
func (s *Service) Open(sessionID string, order booking.Order) *Checkout {
	path := PathPaid
	if !order.Pricing.RequiresPayment() {
		path = PathFree
	}
	s.logger.Info("checkout opened",
		"session_id", sessionID,
		"order_id", order.ID,
		"path", path,
		"deposit_cents", order.Pricing.DepositAmount.Cents(),
	)
	return &Checkout{
		svc:       s,
		sessionID: sessionID,
		order:     order,
		path:      path,
		state:     StateAwaitingPayment,
	}
}
