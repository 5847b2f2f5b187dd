package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/pawcare-booking/internal/booking"
	"github.com/wolfman30/pawcare-booking/internal/bookings"
	"github.com/wolfman30/pawcare-booking/internal/catalog"
	"github.com/wolfman30/pawcare-booking/internal/events"
	"github.com/wolfman30/pawcare-booking/internal/observability/metrics"
	"github.com/wolfman30/pawcare-booking/internal/payments"
	"github.com/wolfman30/pawcare-booking/internal/pets"
	"github.com/wolfman30/pawcare-booking/internal/pricing"
	"github.com/wolfman30/pawcare-booking/internal/schedule"
)

var card = payments.Instrument{CardholderName: "Jane Doe", Number: "4242424242424242", Expiry: "12/30", CVV: "123"}

type fixture struct {
	store  *Store
	ledger *bookings.MemoryLedger
	bus    *events.Bus
	reg    *prometheus.Registry
	repo   *pets.InMemoryRepository
	pets   map[string]pets.Pet
}

func newFixture(t *testing.T, settler payments.Settler) *fixture {
	t.Helper()
	ctx := context.Background()
	if settler == nil {
		settler = payments.NewSimulatedSettler(0, []string{"4000000000000002"}, nil)
	}

	repo := pets.NewInMemoryRepository()
	seeded, err := pets.SeedDemoPets(ctx, repo, "demo-user")
	require.NoError(t, err)
	byName := make(map[string]pets.Pet, len(seeded))
	for _, p := range seeded {
		byName[p.Name] = p
	}

	reg := prometheus.NewRegistry()
	m := metrics.NewBookingMetrics(reg)
	bus := events.NewBus(64, nil)
	ledger := bookings.NewMemoryLedger()
	paySvc := payments.NewService(payments.ServiceDeps{
		Ledger:    ledger,
		Settler:   settler,
		Publisher: bus,
		Metrics:   m,
	})
	store := NewStore(Deps{
		UserID:    "demo-user",
		Services:  catalog.Default(),
		Pets:      repo,
		Publisher: bus,
		Metrics:   m,
		Now:       func() time.Time { return time.Date(2025, 11, 20, 9, 0, 0, 0, time.UTC) },
	})
	NewCoordinator(store, paySvc, nil).Attach(bus)

	return &fixture{store: store, ledger: ledger, bus: bus, reg: reg, repo: repo, pets: byName}
}

func (f *fixture) wizardCount(t *testing.T, action, outcome string) float64 {
	t.Helper()
	families, err := f.reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != "pawcare_booking_wizard_transitions_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			labels := map[string]string{}
			for _, lp := range m.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			if labels["action"] == action && labels["outcome"] == outcome {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func (f *fixture) fillDetails(t *testing.T, petName, date, at string) {
	t.Helper()
	petID := f.pets[petName].ID
	d, err := schedule.ParseDate(date)
	require.NoError(t, err)
	tod := schedule.MustTimeOfDay(at)
	require.NoError(t, f.store.UpdateDetails(context.Background(), DetailsPatch{PetID: &petID, Date: &d, Time: &tod}))
	require.NoError(t, f.store.Next())
}

func TestFreeBookingViaSkip(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	view := f.store.StartBooking(ctx)
	assert.Equal(t, PhaseBooking, view.Phase)
	assert.Equal(t, booking.StepDetails, view.Step)
	assert.Empty(t, view.AvailableSlots, "slots appear once a date is chosen")

	f.fillDetails(t, "Buddy", "2025-12-01", "10:00")
	assert.Len(t, f.store.View().AvailableSlots, 12)
	require.NoError(t, f.store.Skip())
	assert.Contains(t, f.store.View().Summary, "Payment: no deposit required")

	order, err := f.store.Confirm(ctx)
	require.NoError(t, err)
	assert.False(t, order.Pricing.RequiresPayment())

	view = f.store.View()
	require.Equal(t, PhaseCheckout, view.Phase)
	require.NotNil(t, view.Checkout)
	assert.Equal(t, payments.PathFree, view.Checkout.Path)

	appt, err := f.store.ConfirmFree(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Buddy", appt.Pet.Name)
	assert.Equal(t, "2025-12-01", appt.Date.String())
	assert.Equal(t, "10:00", appt.Time.String())
	assert.Equal(t, pricing.Money(0), appt.Total)
	assert.Equal(t, pricing.Money(0), appt.DepositPaid)
	assert.Equal(t, bookings.StatusUpcoming, appt.Status)

	view = f.store.View()
	assert.Equal(t, PhaseOverview, view.Phase)
	assert.Nil(t, view.Draft)
	assert.Nil(t, view.Checkout)
	assert.Equal(t, appt.ID.String(), view.LastAppointmentID)
}

func TestPaidBookingCollectsDeposit(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	f.store.StartBooking(ctx)
	f.fillDetails(t, "Whiskers", "2025-12-02", "14:30")
	require.NoError(t, f.store.ToggleService(1, true))
	require.NoError(t, f.store.ToggleService(2, true))

	view := f.store.View()
	require.NotNil(t, view.Pricing)
	assert.Equal(t, pricing.Dollars(120), view.Pricing.ServicesTotal)
	assert.Equal(t, pricing.Dollars(60), view.Pricing.DepositAmount)

	require.NoError(t, f.store.Continue())
	_, err := f.store.Confirm(ctx)
	require.NoError(t, err)

	_, err = f.store.ConfirmFree(ctx)
	require.ErrorIs(t, err, payments.ErrPaymentRequired)

	appt, err := f.store.Pay(ctx, card)
	require.NoError(t, err)
	assert.Equal(t, pricing.Dollars(120), appt.Total)
	assert.Equal(t, pricing.Dollars(60), appt.DepositPaid)
	assert.Equal(t, pricing.Dollars(60), appt.BalanceDue())
	assert.Equal(t, []int{1, 2}, []int{appt.Services[0].ID, appt.Services[1].ID})

	assert.Equal(t, PhaseOverview, f.store.View().Phase)
	list, err := f.ledger.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestDeselectingEverythingFallsBackToSkip(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	f.store.StartBooking(ctx)
	f.fillDetails(t, "Buddy", "2025-12-01", "09:30")
	require.NoError(t, f.store.ToggleService(2, true))
	require.NoError(t, f.store.ToggleService(2, false))

	err := f.store.Continue()
	require.ErrorIs(t, err, booking.ErrNoServicesSelected)
	assert.Equal(t, booking.StepServices, f.store.View().Step)
	assert.NotEmpty(t, f.store.View().Notice)
	assert.Equal(t, 1.0, f.wizardCount(t, "continue", "rejected"))

	require.NoError(t, f.store.Skip())
	_, err = f.store.Confirm(ctx)
	require.NoError(t, err)
	appt, err := f.store.ConfirmFree(ctx)
	require.NoError(t, err)
	assert.Empty(t, appt.Services)
	assert.Equal(t, pricing.Money(0), appt.Total)
}

func TestAbandonReturnsToConfirmation(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	f.store.StartBooking(ctx)
	f.fillDetails(t, "Whiskers", "2025-12-03", "11:00")
	require.NoError(t, f.store.ToggleService(3, true))
	require.NoError(t, f.store.Continue())
	first, err := f.store.Confirm(ctx)
	require.NoError(t, err)

	require.NoError(t, f.store.AbandonCheckout(ctx))
	view := f.store.View()
	assert.Equal(t, PhaseBooking, view.Phase)
	assert.Equal(t, booking.StepConfirmation, view.Step)
	assert.Nil(t, view.Checkout)

	_, err = f.store.Pay(ctx, card)
	require.ErrorIs(t, err, ErrNoActiveCheckout)

	second, err := f.store.Confirm(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
	_, err = f.store.Pay(ctx, card)
	require.NoError(t, err)

	list, err := f.ledger.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, second.ID, list[0].OrderID)
}

func TestWizardLockedDuringCheckout(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	require.ErrorIs(t, f.store.Next(), ErrNoActiveBooking)

	f.store.StartBooking(ctx)
	f.fillDetails(t, "Buddy", "2025-12-01", "10:00")
	require.NoError(t, f.store.Skip())
	_, err := f.store.Confirm(ctx)
	require.NoError(t, err)

	require.ErrorIs(t, f.store.ToggleService(1, true), ErrNoActiveBooking)
	require.ErrorIs(t, f.store.Back(), ErrNoActiveBooking)
}

func TestDeclinedPaymentStaysInCheckout(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	f.store.StartBooking(ctx)
	f.fillDetails(t, "Whiskers", "2025-12-01", "15:00")
	require.NoError(t, f.store.ToggleService(4, true))
	require.NoError(t, f.store.Continue())
	_, err := f.store.Confirm(ctx)
	require.NoError(t, err)

	declined := card
	declined.Number = "4000 0000 0000 0002"
	_, err = f.store.Pay(ctx, declined)
	require.ErrorIs(t, err, payments.ErrCardDeclined)

	view, err := f.store.CheckoutView()
	require.NoError(t, err)
	assert.Equal(t, payments.StateAwaitingPayment, view.State)
	assert.NotEmpty(t, view.LastError)
	assert.Equal(t, PhaseCheckout, f.store.View().Phase)

	_, err = f.store.Pay(ctx, card)
	require.NoError(t, err)
	assert.Equal(t, PhaseOverview, f.store.View().Phase)
}

func TestRestartAbandonsOpenCheckout(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	f.store.StartBooking(ctx)
	f.fillDetails(t, "Buddy", "2025-12-01", "10:00")
	require.NoError(t, f.store.ToggleService(5, true))
	require.NoError(t, f.store.Continue())
	_, err := f.store.Confirm(ctx)
	require.NoError(t, err)

	view := f.store.StartBooking(ctx)
	assert.Equal(t, PhaseBooking, view.Phase)
	assert.Equal(t, booking.StepDetails, view.Step)
	assert.Nil(t, view.Draft.Pet)

	var abandoned int
	for _, env := range f.bus.Recent(0) {
		if env.EventType == (events.CheckoutAbandonedV1{}).EventType() {
			abandoned++
		}
	}
	assert.Equal(t, 1, abandoned)
}

func TestCoordinatorIgnoresOtherSessions(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	_, err := f.bus.Publish(ctx, events.WizardCompletedV1{SessionID: "someone-else", Order: booking.Order{ID: "o"}})
	require.NoError(t, err)
	assert.Equal(t, PhaseOverview, f.store.View().Phase)

	_, err = f.bus.Publish(ctx, events.PaymentCommittedV1{SessionID: f.store.ID(), OrderID: "unknown"})
	require.NoError(t, err)
	assert.Equal(t, PhaseOverview, f.store.View().Phase)
}

func TestUnknownPetIsRejected(t *testing.T) {
	f := newFixture(t, nil)
	f.store.StartBooking(context.Background())
	missing := "nope"
	err := f.store.UpdateDetails(context.Background(), DetailsPatch{PetID: &missing})
	if !errors.Is(err, pets.ErrPetNotFound) {
		t.Fatalf("expected ErrPetNotFound, got %v", err)
	}
}

func TestPetOwnedByAnotherUserIsRejected(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	f.store.StartBooking(ctx)

	foreign, err := f.repo.Create(ctx, &pets.PetRequest{OwnerID: "someone-else", Name: "Rex", Species: "Dog"})
	require.NoError(t, err)

	err = f.store.UpdateDetails(ctx, DetailsPatch{PetID: &foreign.ID})
	require.ErrorIs(t, err, pets.ErrPetNotFound)
	view := f.store.View()
	require.NotNil(t, view.Draft)
	assert.Nil(t, view.Draft.Pet)
}
