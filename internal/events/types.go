package events

import (
	"time"

	"github.com/wolfman30/pawcare-booking/internal/booking"
)

// WizardCompletedV1 hands a confirmed order from the wizard to checkout.
type WizardCompletedV1 struct {
	SessionID   string        `json:"session_id"`
	Order       booking.Order `json:"order"`
	CompletedAt time.Time     `json:"completed_at"`
}

func (WizardCompletedV1) EventType() string { return "booking.wizard.completed.v1" }

func (e WizardCompletedV1) AggregateID() string { return "order:" + e.Order.ID }

// PaymentCommittedV1 is emitted once per committed appointment.
type PaymentCommittedV1 struct {
	SessionID     string    `json:"session_id"`
	OrderID       string    `json:"order_id"`
	AppointmentID string    `json:"appointment_id"`
	SettlementRef string    `json:"settlement_ref"`
	TotalCents    int64     `json:"total_cents"`
	DepositCents  int64     `json:"deposit_cents"`
	Free          bool      `json:"free"`
	CommittedAt   time.Time `json:"committed_at"`
}

func (PaymentCommittedV1) EventType() string { return "payments.committed.v1" }

func (e PaymentCommittedV1) AggregateID() string { return "order:" + e.OrderID }

// PaymentFailedV1 records a settlement attempt that did not commit.
type PaymentFailedV1 struct {
	SessionID     string    `json:"session_id"`
	OrderID       string    `json:"order_id"`
	SettlementRef string    `json:"settlement_ref"`
	Attempt       int       `json:"attempt"`
	AmountCents   int64     `json:"amount_cents"`
	Reason        string    `json:"reason"`
	FailedAt      time.Time `json:"failed_at"`
}

func (PaymentFailedV1) EventType() string { return "payments.failed.v1" }

func (e PaymentFailedV1) AggregateID() string { return "order:" + e.OrderID }

// CheckoutAbandonedV1 is emitted when the client leaves checkout before committing.
type CheckoutAbandonedV1 struct {
	SessionID   string    `json:"session_id"`
	OrderID     string    `json:"order_id"`
	AbandonedAt time.Time `json:"abandoned_at"`
}

func (CheckoutAbandonedV1) EventType() string { return "payments.checkout.abandoned.v1" }

func (e CheckoutAbandonedV1) AggregateID() string { return "order:" + e.OrderID }

// AppointmentStatusChangedV1 records an admin lifecycle update.
type AppointmentStatusChangedV1 struct {
	AppointmentID string    `json:"appointment_id"`
	From          string    `json:"from"`
	To            string    `json:"to"`
	ChangedAt     time.Time `json:"changed_at"`
}

func (AppointmentStatusChangedV1) EventType() string { return "bookings.status.changed.v1" }

func (e AppointmentStatusChangedV1) AggregateID() string { return "appointment:" + e.AppointmentID }
