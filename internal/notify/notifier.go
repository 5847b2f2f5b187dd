package notify

import (
	"context"
	"fmt"
	"html"
	"strings"
	"sync"

	"github.com/wolfman30/pawcare-booking/internal/bookings"
	"github.com/wolfman30/pawcare-booking/internal/events"
	"github.com/wolfman30/pawcare-booking/pkg/logging"
)

// AppointmentLookup resolves the appointment an event refers to.
type AppointmentLookup interface {
	Get(ctx context.Context, id string) (bookings.Appointment, error)
}

// NotifierConfig configures clinic notifications.
type NotifierConfig struct {
	ClinicName string
	// Recipients receive every notification, typically the front desk.
	Recipients []string
	QueueSize  int
}

// Notifier emails the clinic when appointments are booked or cancelled.
// Handle only enqueues; delivery happens in Run.
type Notifier struct {
	email        EmailSender
	appointments AppointmentLookup
	cfg          NotifierConfig
	logger       *logging.Logger

	queue chan EmailMessage
	wg    sync.WaitGroup
}

func NewNotifier(email EmailSender, appointments AppointmentLookup, cfg NotifierConfig, logger *logging.Logger) *Notifier {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 64
	}
	if cfg.ClinicName == "" {
		cfg.ClinicName = DefaultFromName
	}
	return &Notifier{
		email:        email,
		appointments: appointments,
		cfg:          cfg,
		logger:       logger,
		queue:        make(chan EmailMessage, cfg.QueueSize),
	}
}

// Start runs the delivery loop on its own goroutine.
func (n *Notifier) Start(ctx context.Context) {
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		n.Run(ctx)
	}()
}

// Run delivers queued messages until ctx is done, then drains what is left.
func (n *Notifier) Run(ctx context.Context) {
	for {
		select {
		case msg := <-n.queue:
			n.deliver(context.WithoutCancel(ctx), msg)
		case <-ctx.Done():
			for {
				select {
				case msg := <-n.queue:
					n.deliver(context.WithoutCancel(ctx), msg)
				default:
					return
				}
			}
		}
	}
}

// Wait blocks until the loop launched by Start has returned.
func (n *Notifier) Wait() { n.wg.Wait() }

func (n *Notifier) deliver(ctx context.Context, msg EmailMessage) {
	if err := n.email.Send(ctx, msg); err != nil {
		n.logger.Error("notify: failed to send email", "error", err, "to", msg.To, "subject", msg.Subject)
		return
	}
	n.logger.Info("notify: email sent", "to", msg.To, "subject", msg.Subject)
}

// Attach subscribes the notifier to bus.
func (n *Notifier) Attach(bus *events.Bus) {
	bus.Subscribe(n.Handle)
}

// Handle implements events.Handler.
func (n *Notifier) Handle(ctx context.Context, _ events.Envelope, evt events.CanonicalEvent) error {
	if n.email == nil || len(n.cfg.Recipients) == 0 {
		return nil
	}
	var (
		subject, body string
		appointmentID string
	)
	switch e := evt.(type) {
	case events.PaymentCommittedV1:
		appointmentID = e.AppointmentID
	case events.AppointmentStatusChangedV1:
		if e.To != string(bookings.StatusCancelled) {
			return nil
		}
		appointmentID = e.AppointmentID
	default:
		return nil
	}

	appt, err := n.appointments.Get(ctx, appointmentID)
	if err != nil {
		n.logger.Warn("notify: appointment lookup failed", "appointment_id", appointmentID, "error", err)
		return nil
	}
	if _, ok := evt.(events.PaymentCommittedV1); ok {
		subject, body = BookedMessage(appt)
	} else {
		subject, body = CancelledMessage(appt)
	}

	for _, to := range n.cfg.Recipients {
		msg := EmailMessage{
			To:      to,
			Subject: subject,
			Body:    body + "\n\n" + n.cfg.ClinicName,
			HTML:    "<pre style=\"font-family: sans-serif\">" + html.EscapeString(body) + "</pre><p>" + html.EscapeString(n.cfg.ClinicName) + "</p>",
		}
		select {
		case n.queue <- msg:
		default:
			n.logger.Warn("notify: queue full, dropping email", "to", to, "appointment_id", appointmentID)
		}
	}
	return nil
}

// BookedMessage formats the front-desk email for a new appointment.
func BookedMessage(a bookings.Appointment) (subject, body string) {
	subject = fmt.Sprintf("New appointment: %s on %s at %s", a.Pet.Name, a.Date, a.Time)
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s) is booked for %s at %s.\n\n", a.Pet.Name, a.Pet.Species, a.Date, a.Time)
	if len(a.Services) == 0 {
		b.WriteString("Services: appointment only\n")
	} else {
		b.WriteString("Services:\n")
		for _, s := range a.Services {
			fmt.Fprintf(&b, "  - %s (%s)\n", s.Name, s.Price)
		}
	}
	fmt.Fprintf(&b, "Total: %s\nDeposit paid: %s\nBalance due at visit: %s\n", a.Total, a.DepositPaid, a.BalanceDue())
	if a.Notes != "" {
		fmt.Fprintf(&b, "Notes: %s\n", a.Notes)
	}
	fmt.Fprintf(&b, "Reference: #%d %s", a.Sequence, a.ID)
	return subject, b.String()
}

// CancelledMessage formats the front-desk email for a cancellation.
func CancelledMessage(a bookings.Appointment) (subject, body string) {
	subject = fmt.Sprintf("Cancelled: %s on %s at %s", a.Pet.Name, a.Date, a.Time)
	body = fmt.Sprintf("The appointment for %s (%s) on %s at %s was cancelled.\nDeposit paid: %s\nReference: #%d %s",
		a.Pet.Name, a.Pet.Species, a.Date, a.Time, a.DepositPaid, a.Sequence, a.ID)
	return subject, body
}
