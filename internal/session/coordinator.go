package session

import (
	"context"

	"github.com/wolfman30/pawcare-booking/internal/events"
	"github.com/wolfman30/pawcare-booking/internal/payments"
	"github.com/wolfman30/pawcare-booking/pkg/logging"
)

// Coordinator moves a Store between wizard, checkout and overview as
// booking and payment events arrive.
type Coordinator struct {
	store    *Store
	payments *payments.Service
	logger   *logging.Logger
}

func NewCoordinator(store *Store, svc *payments.Service, logger *logging.Logger) *Coordinator {
	if logger == nil {
		logger = logging.Default()
	}
	return &Coordinator{store: store, payments: svc, logger: logger}
}

// Attach subscribes the coordinator to bus.
func (c *Coordinator) Attach(bus *events.Bus) {
	bus.Subscribe(c.Handle)
}

// Handle implements events.Handler. Events for other sessions are ignored.
func (c *Coordinator) Handle(ctx context.Context, env events.Envelope, evt events.CanonicalEvent) error {
	switch e := evt.(type) {
	case events.WizardCompletedV1:
		if e.SessionID != c.store.ID() {
			return nil
		}
		c.store.openCheckout(c.payments.Open(e.SessionID, e.Order))
		c.logger.Info("session entered checkout", "session_id", e.SessionID, "order_id", e.Order.ID, "event_id", env.EventID.String())
	case events.PaymentCommittedV1:
		if e.SessionID != c.store.ID() {
			return nil
		}
		if c.store.finishCheckout(e.OrderID, e.AppointmentID) {
			c.logger.Info("session returned to overview", "session_id", e.SessionID, "appointment_id", e.AppointmentID)
		}
	case events.CheckoutAbandonedV1:
		if e.SessionID != c.store.ID() {
			return nil
		}
		if c.store.reopenBooking(e.OrderID) {
			c.logger.Info("session returned to booking", "session_id", e.SessionID, "order_id", e.OrderID)
		}
	case events.PaymentFailedV1:
		c.logger.Debug("payment attempt failed", "session_id", e.SessionID, "order_id", e.OrderID, "reason", e.Reason)
	}
	return nil
}
