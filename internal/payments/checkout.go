package payments

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/pawcare-booking/internal/booking"
	"github.com/wolfman30/pawcare-booking/internal/bookings"
	"github.com/wolfman30/pawcare-booking/internal/events"
)

// State is a checkout's position in the payment flow.
type State string

const (
	StateAwaitingPayment State = "awaiting_payment"
	StateProcessing      State = "processing"
	StateCommitted       State = "committed"
	StateAbandoned       State = "abandoned"
)

const (
	PathFree = "free"
	PathPaid = "paid"
)

// Checkout settles one order. It is safe for concurrent use.
type Checkout struct {
	svc       *Service
	sessionID string
	order     booking.Order
	path      string

	mu          sync.Mutex
	state       State
	attempts    int
	lastError   string
	current     *Settlement
	appointment *bookings.Appointment
}

// View is a point-in-time snapshot of a checkout.
type View struct {
	OrderID       string        `json:"order_id"`
	Path          string        `json:"path"`
	State         State         `json:"state"`
	Order         booking.Order `json:"order"`
	Attempts      int           `json:"attempts"`
	LastError     string        `json:"last_error,omitempty"`
	SettlementRef string        `json:"settlement_ref,omitempty"`
	AppointmentID string        `json:"appointment_id,omitempty"`
}

func (c *Checkout) Order() booking.Order { return c.order }

func (c *Checkout) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	v := View{
		OrderID:   c.order.ID,
		Path:      c.path,
		State:     c.state,
		Order:     c.order,
		Attempts:  c.attempts,
		LastError: c.lastError,
	}
	if c.current != nil {
		v.SettlementRef = c.current.Reference
	}
	if c.appointment != nil {
		v.AppointmentID = c.appointment.ID.String()
	}
	return v
}

func (c *Checkout) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// ConfirmFree commits a booking-only order with no payment step.
func (c *Checkout) ConfirmFree(ctx context.Context) (bookings.Appointment, error) {
	if c.path != PathFree {
		return bookings.Appointment{}, ErrPaymentRequired
	}
	return c.HandleSettled(ctx, Receipt{
		Reference: "free:" + c.order.ID,
		Provider:  PathFree,
		SettledAt: c.svc.now().UTC(),
	})
}

// Pay settles the deposit and blocks until the attempt resolves. Cancelling
// ctx cancels the settlement.
func (c *Checkout) Pay(ctx context.Context, inst Instrument) (bookings.Appointment, error) {
	st, err := c.Submit(ctx, inst)
	if err != nil {
		return bookings.Appointment{}, err
	}
	return st.Wait(ctx)
}

// Submit starts a settlement in the background. The settlement is bound
// to ctx and to the returned handle's Cancel.
func (c *Checkout) Submit(ctx context.Context, inst Instrument) (*Settlement, error) {
	if c.path != PathPaid {
		return nil, ErrPaymentNotRequired
	}
	if err := inst.Validate(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	switch c.state {
	case StateCommitted:
		c.mu.Unlock()
		return nil, ErrAlreadyCommitted
	case StateAbandoned:
		c.mu.Unlock()
		return nil, ErrCheckoutAbandoned
	case StateProcessing:
		c.mu.Unlock()
		return nil, ErrSettlementInProgress
	}

	res, err := c.svc.limiter.Allow(ctx, "order:"+c.order.ID)
	if err != nil {
		c.mu.Unlock()
		return nil, fmt.Errorf("payments: attempt check: %w", err)
	}
	if !res.Allowed {
		c.lastError = res.Message
		c.mu.Unlock()
		c.svc.metrics.ObserveCheckout(c.path, "rate_limited")
		return nil, fmt.Errorf("%w: %s", ErrTooManyAttempts, res.Message)
	}

	settleCtx, cancel := context.WithCancel(ctx)
	st := &Settlement{
		Reference: uuid.NewString(),
		done:      make(chan struct{}),
		cancel:    cancel,
	}
	c.attempts++
	attempt := c.attempts
	c.state = StateProcessing
	c.lastError = ""
	c.current = st
	c.mu.Unlock()

	c.svc.logger.Info("settlement started",
		"order_id", c.order.ID,
		"reference", st.Reference,
		"attempt", attempt,
		"card_last4", inst.Last4(),
	)
	go c.settle(settleCtx, st, attempt, inst)
	return st, nil
}

func (c *Checkout) settle(ctx context.Context, st *Settlement, attempt int, inst Instrument) {
	defer st.cancel()
	ctx, span := paymentsTracer.Start(ctx, "payments.settle")
	defer span.End()
	span.SetAttributes(
		attribute.String("pawcare.order_id", c.order.ID),
		attribute.String("pawcare.settlement_ref", st.Reference),
		attribute.Int("pawcare.attempt", attempt),
	)

	start := time.Now()
	receipt, err := c.svc.settler.Settle(ctx, SettlementRequest{
		Reference:  st.Reference,
		OrderID:    c.order.ID,
		Amount:     c.order.Pricing.DepositAmount,
		Instrument: inst,
	})
	elapsed := time.Since(start).Seconds()

	if ctx.Err() != nil {
		cause := ctx.Err()
		c.mu.Lock()
		if c.state == StateProcessing && c.current == st {
			c.state = StateAwaitingPayment
		}
		c.mu.Unlock()
		c.svc.metrics.ObserveSettlement("cancelled", elapsed)
		c.svc.metrics.ObserveCheckout(c.path, "cancelled")
		c.svc.logger.Info("settlement cancelled", "order_id", c.order.ID, "reference", st.Reference)
		st.finish(bookings.Appointment{}, fmt.Errorf("%w: %v", ErrSettlementCancelled, cause))
		return
	}
	if err != nil {
		span.RecordError(err)
		c.mu.Lock()
		if c.current == st && c.state == StateProcessing {
			c.state = StateAwaitingPayment
			c.lastError = err.Error()
		}
		c.mu.Unlock()
		outcome := "failed"
		if errors.Is(err, ErrCardDeclined) {
			outcome = "declined"
		}
		c.svc.metrics.ObserveSettlement(outcome, elapsed)
		c.svc.metrics.ObserveCheckout(c.path, outcome)
		c.svc.logger.Warn("settlement failed", "order_id", c.order.ID, "reference", st.Reference, "attempt", attempt, "error", err)
		c.publish(context.WithoutCancel(ctx), events.PaymentFailedV1{
			SessionID:     c.sessionID,
			OrderID:       c.order.ID,
			SettlementRef: st.Reference,
			Attempt:       attempt,
			AmountCents:   c.order.Pricing.DepositAmount.Cents(),
			Reason:        err.Error(),
			FailedAt:      c.svc.now().UTC(),
		})
		st.finish(bookings.Appointment{}, err)
		return
	}

	c.svc.metrics.ObserveSettlement("committed", elapsed)
	appt, err := c.HandleSettled(ctx, receipt)
	st.finish(appt, err)
}

// HandleSettled is the completion signal for a settlement. The first signal
// per reference appends one appointment; repeats return that appointment.
// A checkout that was abandoned or cancelled before the signal never appends.
func (c *Checkout) HandleSettled(ctx context.Context, receipt Receipt) (bookings.Appointment, error) {
	ctx, span := paymentsTracer.Start(ctx, "payments.commit")
	defer span.End()
	span.SetAttributes(
		attribute.String("pawcare.order_id", c.order.ID),
		attribute.String("pawcare.settlement_ref", receipt.Reference),
	)

	c.mu.Lock()
	if c.state == StateCommitted && c.appointment != nil {
		appt := *c.appointment
		c.mu.Unlock()
		return appt, nil
	}
	if c.state == StateAbandoned {
		c.mu.Unlock()
		return bookings.Appointment{}, ErrCheckoutAbandoned
	}
	if c.path == PathPaid && (c.current == nil || c.current.Reference != receipt.Reference) {
		c.mu.Unlock()
		return bookings.Appointment{}, fmt.Errorf("payments: unknown settlement reference %q", receipt.Reference)
	}
	if err := ctx.Err(); err != nil {
		c.releaseLocked()
		c.mu.Unlock()
		return bookings.Appointment{}, fmt.Errorf("%w: %v", ErrSettlementCancelled, err)
	}
	// Past this point the commit is decided; cancellation no longer applies.
	ctx = context.WithoutCancel(ctx)

	first, err := c.svc.processed.MarkProcessed(ctx, receipt.Provider, receipt.Reference)
	if err != nil {
		c.failLocked(err)
		c.mu.Unlock()
		span.RecordError(err)
		return bookings.Appointment{}, fmt.Errorf("payments: mark settlement processed: %w", err)
	}
	if !first {
		err := fmt.Errorf("%w: reference %s", ErrAlreadyCommitted, receipt.Reference)
		c.failLocked(err)
		c.mu.Unlock()
		return bookings.Appointment{}, err
	}

	deposit := c.order.Pricing.DepositAmount
	if c.path == PathFree {
		deposit = 0
	}
	appt, err := c.svc.ledger.Append(ctx, bookings.Appointment{
		ID:            uuid.New(),
		OrderID:       c.order.ID,
		Date:          c.order.Date,
		Time:          c.order.Time,
		Pet:           c.order.Pet,
		Services:      c.order.Services,
		Total:         c.order.Pricing.ServicesTotal,
		Notes:         c.order.Notes,
		Status:        bookings.StatusUpcoming,
		DepositPaid:   deposit,
		SettlementRef: receipt.Reference,
		CreatedAt:     c.svc.now().UTC(),
	})
	if err != nil {
		c.failLocked(err)
		c.mu.Unlock()
		span.RecordError(err)
		if ferr := c.svc.processed.Forget(ctx, receipt.Provider, receipt.Reference); ferr != nil {
			c.svc.logger.Error("failed to clear settlement marker", "error", ferr, "reference", receipt.Reference)
		}
		return bookings.Appointment{}, fmt.Errorf("payments: append appointment: %w", err)
	}
	c.state = StateCommitted
	c.lastError = ""
	c.appointment = &appt
	c.mu.Unlock()

	c.svc.metrics.ObserveCheckout(c.path, "committed")
	c.svc.metrics.AddDeposit(deposit.Cents())
	c.svc.logger.Info("appointment committed",
		"appointment_id", appt.ID,
		"order_id", c.order.ID,
		"path", c.path,
		"total_cents", appt.Total.Cents(),
		"deposit_cents", deposit.Cents(),
	)
	c.publish(ctx, events.PaymentCommittedV1{
		SessionID:     c.sessionID,
		OrderID:       c.order.ID,
		AppointmentID: appt.ID.String(),
		SettlementRef: receipt.Reference,
		TotalCents:    appt.Total.Cents(),
		DepositCents:  deposit.Cents(),
		Free:          c.path == PathFree,
		CommittedAt:   appt.CreatedAt,
	})
	return appt, nil
}

// releaseLocked returns a processing checkout to the payment step.
func (c *Checkout) releaseLocked() {
	if c.state == StateProcessing {
		c.state = StateAwaitingPayment
	}
}

func (c *Checkout) failLocked(err error) {
	c.releaseLocked()
	c.lastError = err.Error()
}

// Abandon leaves checkout. An outstanding settlement is cancelled and will
// not append. Abandoning twice is a no-op.
func (c *Checkout) Abandon(ctx context.Context) error {
	c.mu.Lock()
	switch c.state {
	case StateCommitted:
		c.mu.Unlock()
		return ErrAlreadyCommitted
	case StateAbandoned:
		c.mu.Unlock()
		return nil
	}
	c.state = StateAbandoned
	current := c.current
	c.mu.Unlock()

	if current != nil {
		current.Cancel()
	}
	c.svc.metrics.ObserveCheckout(c.path, "abandoned")
	c.svc.logger.Info("checkout abandoned", "order_id", c.order.ID, "session_id", c.sessionID)
	c.publish(ctx, events.CheckoutAbandonedV1{
		SessionID:   c.sessionID,
		OrderID:     c.order.ID,
		AbandonedAt: c.svc.now().UTC(),
	})
	return nil
}

func (c *Checkout) publish(ctx context.Context, evt events.CanonicalEvent) {
	if c.svc.publisher == nil {
		return
	}
	if _, err := c.svc.publisher.Publish(ctx, evt, events.WithCorrelationID(c.sessionID)); err != nil {
		c.svc.logger.Error("failed to publish checkout event", "error", err, "event_type", evt.EventType(), "order_id", c.order.ID)
	}
}

// Settlement is a handle to one in-flight settlement attempt.
type Settlement struct {
	Reference string

	done   chan struct{}
	cancel context.CancelFunc
	once   sync.Once
	appt   bookings.Appointment
	err    error
}

// Done is closed once the attempt resolves.
func (s *Settlement) Done() <-chan struct{} { return s.done }

// Result returns the outcome, or ErrSettlementPending before Done is closed.
func (s *Settlement) Result() (bookings.Appointment, error) {
	select {
	case <-s.done:
		return s.appt, s.err
	default:
		return bookings.Appointment{}, ErrSettlementPending
	}
}

// Wait blocks until the attempt resolves or ctx is done.
func (s *Settlement) Wait(ctx context.Context) (bookings.Appointment, error) {
	select {
	case <-s.done:
		return s.appt, s.err
	case <-ctx.Done():
		s.Cancel()
		<-s.done
		return s.appt, s.err
	}
}

// Cancel stops the attempt. The checkout returns to the payment step.
func (s *Settlement) Cancel() { s.cancel() }

func (s *Settlement) finish(appt bookings.Appointment, err error) {
	s.once.Do(func() {
		s.appt = appt
		s.err = err
		close(s.done)
	})
}
