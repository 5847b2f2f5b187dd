package bookings

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/pawcare-booking/internal/events"
	"github.com/wolfman30/pawcare-booking/internal/observability/metrics"
	"github.com/wolfman30/pawcare-booking/internal/pricing"
	"github.com/wolfman30/pawcare-booking/pkg/logging"
)

var bookingsTracer = otel.Tracer("pawcare.internal.bookings")

// Service exposes the ledger to the overview screen and the clinic side.
type Service struct {
	ledger    Ledger
	publisher events.Publisher
	metrics   *metrics.BookingMetrics
	logger    *logging.Logger
	now       func() time.Time
}

// NewService constructs a bookings service. publisher and m may be nil.
func NewService(ledger Ledger, publisher events.Publisher, m *metrics.BookingMetrics, logger *logging.Logger) *Service {
	if ledger == nil {
		panic("bookings: ledger required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{ledger: ledger, publisher: publisher, metrics: m, logger: logger, now: time.Now}
}

// List returns every appointment in commit order.
func (s *Service) List(ctx context.Context) ([]Appointment, error) {
	return s.ledger.List(ctx)
}

// ListByStatus filters List by status.
func (s *Service) ListByStatus(ctx context.Context, status Status) ([]Appointment, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	all, err := s.ledger.List(ctx)
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, appt := range all {
		if appt.Status == status {
			out = append(out, appt)
		}
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, id string) (Appointment, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return Appointment{}, fmt.Errorf("%w: %q", ErrAppointmentNotFound, id)
	}
	return s.ledger.Get(ctx, parsed)
}

// Upcoming returns upcoming appointments, earliest first.
func (s *Service) Upcoming(ctx context.Context) ([]Appointment, error) {
	upcoming, err := s.ListByStatus(ctx, StatusUpcoming)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(upcoming, func(i, j int) bool {
		a, b := upcoming[i], upcoming[j]
		if a.Date != b.Date {
			return a.Date.Before(b.Date)
		}
		if a.Time != b.Time {
			return a.Time.Before(b.Time)
		}
		return a.Sequence < b.Sequence
	})
	return upcoming, nil
}

// UpdateStatus applies an admin lifecycle change. Setting the current status
// again succeeds without emitting an event.
func (s *Service) UpdateStatus(ctx context.Context, id string, to Status) (Appointment, error) {
	ctx, span := bookingsTracer.Start(ctx, "bookings.update_status")
	defer span.End()
	span.SetAttributes(
		attribute.String("pawcare.appointment_id", id),
		attribute.String("pawcare.status_to", string(to)),
	)

	parsed, err := uuid.Parse(id)
	if err != nil {
		err = fmt.Errorf("%w: %q", ErrAppointmentNotFound, id)
		span.RecordError(err)
		return Appointment{}, err
	}
	appt, from, err := s.ledger.SetStatus(ctx, parsed, to)
	if err != nil {
		span.RecordError(err)
		s.logger.Warn("appointment status update rejected", "appointment_id", id, "from", from, "to", to, "error", err)
		return Appointment{}, err
	}
	if from == to {
		return appt, nil
	}

	s.metrics.ObserveStatusChange(string(from), string(to))
	s.logger.Info("appointment status updated", "appointment_id", id, "from", from, "to", to)
	if s.publisher != nil {
		if _, err := s.publisher.Publish(ctx, events.AppointmentStatusChangedV1{
			AppointmentID: appt.ID.String(),
			From:          string(from),
			To:            string(to),
			ChangedAt:     s.now().UTC(),
		}); err != nil {
			s.logger.Error("failed to publish status change", "error", err, "appointment_id", id)
		}
	}
	return appt, nil
}

// Summary aggregates the ledger for the clinic dashboard.
type Summary struct {
	Total              int            `json:"total"`
	ByStatus           map[Status]int `json:"by_status"`
	DepositsCollected  pricing.Money  `json:"deposits_collected_cents"`
	OutstandingBalance pricing.Money  `json:"outstanding_balance_cents"`
}

// Summary counts appointments per status. The outstanding balance only
// covers upcoming appointments.
func (s *Service) Summary(ctx context.Context) (Summary, error) {
	all, err := s.ledger.List(ctx)
	if err != nil {
		return Summary{}, err
	}
	sum := Summary{
		Total: len(all),
		ByStatus: map[Status]int{
			StatusUpcoming:  0,
			StatusCompleted: 0,
			StatusCancelled: 0,
		},
	}
	for _, appt := range all {
		sum.ByStatus[appt.Status]++
		sum.DepositsCollected += appt.DepositPaid
		if appt.Status == StatusUpcoming {
			sum.OutstandingBalance += appt.BalanceDue()
		}
	}
	return sum, nil
}
