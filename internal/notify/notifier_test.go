package notify

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wolfman30/pawcare-booking/internal/bookings"
	"github.com/wolfman30/pawcare-booking/internal/catalog"
	"github.com/wolfman30/pawcare-booking/internal/events"
	"github.com/wolfman30/pawcare-booking/internal/pets"
	"github.com/wolfman30/pawcare-booking/internal/pricing"
	"github.com/wolfman30/pawcare-booking/internal/schedule"
	"github.com/wolfman30/pawcare-booking/pkg/logging"
)

type chanSender struct {
	sent chan EmailMessage
	err  error
}

func (s *chanSender) Send(_ context.Context, msg EmailMessage) error {
	s.sent <- msg
	return s.err
}

type stubLookup map[string]bookings.Appointment

func (l stubLookup) Get(_ context.Context, id string) (bookings.Appointment, error) {
	a, ok := l[id]
	if !ok {
		return bookings.Appointment{}, bookings.ErrAppointmentNotFound
	}
	return a, nil
}

func testAppointment(t *testing.T) bookings.Appointment {
	t.Helper()
	date, err := schedule.ParseDate("2025-11-21")
	require.NoError(t, err)
	return bookings.Appointment{
		ID:       uuid.New(),
		Sequence: 7,
		Date:     date,
		Time:     schedule.MustTimeOfDay("10:30"),
		Pet:      pets.Pet{ID: "pet-1", Name: "Biscuit", Species: "Dog"},
		Services: []catalog.Service{
			{ID: 1, Name: "Wellness Exam", Price: pricing.Dollars(75)},
			{ID: 2, Name: "Vaccinations", Price: pricing.Dollars(45)},
		},
		Total:       pricing.Dollars(120),
		DepositPaid: pricing.Dollars(60),
		Notes:       "nervous around cats",
		Status:      bookings.StatusUpcoming,
	}
}

func receive(t *testing.T, ch <-chan EmailMessage) EmailMessage {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for email")
	}
	return EmailMessage{}
}

func TestNotifier_BookedEmailPerRecipient(t *testing.T) {
	appt := testAppointment(t)
	sender := &chanSender{sent: make(chan EmailMessage, 4)}
	n := NewNotifier(sender, stubLookup{appt.ID.String(): appt}, NotifierConfig{
		Recipients: []string{"desk@pawcare.example", "vet@pawcare.example"},
	}, logging.Default())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	n.Start(ctx)

	bus := events.NewBus(8, logging.Default())
	n.Attach(bus)
	_, err := bus.Publish(ctx, events.PaymentCommittedV1{SessionID: "s1", OrderID: "o1", AppointmentID: appt.ID.String()})
	require.NoError(t, err)

	first := receive(t, sender.sent)
	second := receive(t, sender.sent)
	assert.ElementsMatch(t, []string{"desk@pawcare.example", "vet@pawcare.example"}, []string{first.To, second.To})
	assert.Equal(t, "New appointment: Biscuit on 2025-11-21 at 10:30", first.Subject)
	assert.Contains(t, first.Body, "Deposit paid: $60.00")
	assert.Contains(t, first.Body, "Balance due at visit: $60.00")
	assert.Contains(t, first.Body, DefaultFromName)
	assert.Contains(t, first.HTML, "Biscuit")
}

func TestNotifier_OnlyCancellationsNotify(t *testing.T) {
	appt := testAppointment(t)
	sender := &chanSender{sent: make(chan EmailMessage, 4)}
	n := NewNotifier(sender, stubLookup{appt.ID.String(): appt}, NotifierConfig{Recipients: []string{"desk@pawcare.example"}}, nil)

	ctx := context.Background()
	require.NoError(t, n.Handle(ctx, events.Envelope{}, events.AppointmentStatusChangedV1{AppointmentID: appt.ID.String(), From: "upcoming", To: "completed"}))
	require.NoError(t, n.Handle(ctx, events.Envelope{}, events.AppointmentStatusChangedV1{AppointmentID: appt.ID.String(), From: "upcoming", To: "cancelled"}))
	require.NoError(t, n.Handle(ctx, events.Envelope{}, events.PaymentFailedV1{SessionID: "s1"}))

	if len(n.queue) != 1 {
		t.Fatalf("expected 1 queued email, got %d", len(n.queue))
	}
	msg := <-n.queue
	if !strings.HasPrefix(msg.Subject, "Cancelled: Biscuit") {
		t.Fatalf("unexpected subject %q", msg.Subject)
	}
}

func TestNotifier_SkipsUnknownAppointmentAndMissingRecipients(t *testing.T) {
	sender := &chanSender{sent: make(chan EmailMessage, 1)}
	n := NewNotifier(sender, stubLookup{}, NotifierConfig{Recipients: []string{"desk@pawcare.example"}}, nil)
	require.NoError(t, n.Handle(context.Background(), events.Envelope{}, events.PaymentCommittedV1{AppointmentID: "missing"}))
	assert.Empty(t, n.queue)

	quiet := NewNotifier(sender, stubLookup{}, NotifierConfig{}, nil)
	require.NoError(t, quiet.Handle(context.Background(), events.Envelope{}, events.PaymentCommittedV1{AppointmentID: "missing"}))
	assert.Empty(t, quiet.queue)
}

func TestNotifier_FullQueueDrops(t *testing.T) {
	appt := testAppointment(t)
	n := NewNotifier(&chanSender{sent: make(chan EmailMessage, 1)}, stubLookup{appt.ID.String(): appt},
		NotifierConfig{Recipients: []string{"a@pawcare.example", "b@pawcare.example"}, QueueSize: 1}, nil)
	require.NoError(t, n.Handle(context.Background(), events.Envelope{}, events.PaymentCommittedV1{AppointmentID: appt.ID.String()}))
	assert.Len(t, n.queue, 1)
}

func TestNotifier_RunDrainsOnShutdown(t *testing.T) {
	appt := testAppointment(t)
	sender := &chanSender{sent: make(chan EmailMessage, 2), err: errors.New("provider down")}
	n := NewNotifier(sender, stubLookup{appt.ID.String(): appt}, NotifierConfig{Recipients: []string{"desk@pawcare.example"}}, nil)
	require.NoError(t, n.Handle(context.Background(), events.Envelope{}, events.PaymentCommittedV1{AppointmentID: appt.ID.String()}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	n.Run(ctx)

	msg := receive(t, sender.sent)
	assert.Equal(t, "desk@pawcare.example", msg.To)
	assert.Empty(t, n.queue)
}

func TestBookedMessage_AppointmentOnly(t *testing.T) {
	appt := testAppointment(t)
	appt.Services = nil
	appt.Total, appt.DepositPaid, appt.Notes = 0, 0, ""
	_, body := BookedMessage(appt)
	assert.Contains(t, body, "Services: appointment only")
	assert.NotContains(t, body, "Notes:")
	assert.Contains(t, body, "Reference: #7 ")
}
