package bookings

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/pawcare-booking/internal/catalog"
	"github.com/wolfman30/pawcare-booking/internal/pets"
	"github.com/wolfman30/pawcare-booking/internal/pricing"
	"github.com/wolfman30/pawcare-booking/internal/schedule"
)

func newAppointment(t *testing.T, date, tod string, total, deposit pricing.Money) Appointment {
	t.Helper()
	d, err := schedule.ParseDate(date)
	require.NoError(t, err)
	return Appointment{
		ID:          uuid.New(),
		Date:        d,
		Time:        schedule.MustTimeOfDay(tod),
		Pet:         pets.Pet{ID: "pet-1", Name: "Buddy"},
		Services:    []catalog.Service{{ID: 1, Name: "General Health Checkup", Price: total}},
		Total:       total,
		DepositPaid: deposit,
		Status:      StatusUpcoming,
	}
}

func TestLedgerAppendAssignsSequence(t *testing.T) {
	ledger := NewMemoryLedger()
	ctx := context.Background()

	first, err := ledger.Append(ctx, newAppointment(t, "2025-12-01", "10:00", 0, 0))
	require.NoError(t, err)
	second, err := ledger.Append(ctx, newAppointment(t, "2025-12-02", "09:00", 12000, 6000))
	require.NoError(t, err)

	assert.Equal(t, int64(1), first.Sequence)
	assert.Equal(t, int64(2), second.Sequence)

	list, err := ledger.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, first.ID, list[0].ID)
	assert.Equal(t, second.ID, list[1].ID)
}

func TestLedgerRejectsDuplicateID(t *testing.T) {
	ledger := NewMemoryLedger()
	ctx := context.Background()
	appt := newAppointment(t, "2025-12-01", "10:00", 0, 0)
	_, err := ledger.Append(ctx, appt)
	require.NoError(t, err)
	_, err = ledger.Append(ctx, appt)
	require.ErrorIs(t, err, ErrDuplicateAppointment)

	list, _ := ledger.List(ctx)
	assert.Len(t, list, 1)
}

func TestLedgerReturnsCopies(t *testing.T) {
	ledger := NewMemoryLedger()
	ctx := context.Background()
	stored, err := ledger.Append(ctx, newAppointment(t, "2025-12-01", "10:00", 7500, 3750))
	require.NoError(t, err)

	stored.Services[0].Name = "changed"
	got, err := ledger.Get(ctx, stored.ID)
	require.NoError(t, err)
	assert.Equal(t, "General Health Checkup", got.Services[0].Name)
}

func TestLedgerSetStatus(t *testing.T) {
	ledger := NewMemoryLedger()
	ctx := context.Background()
	stored, _ := ledger.Append(ctx, newAppointment(t, "2025-12-01", "10:00", 0, 0))

	updated, from, err := ledger.SetStatus(ctx, stored.ID, StatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, StatusUpcoming, from)
	assert.Equal(t, StatusCancelled, updated.Status)

	_, from, err = ledger.SetStatus(ctx, stored.ID, StatusCompleted)
	require.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, StatusCancelled, from)

	got, _ := ledger.Get(ctx, stored.ID)
	assert.Equal(t, StatusCancelled, got.Status)

	_, _, err = ledger.SetStatus(ctx, uuid.New(), StatusCompleted)
	require.ErrorIs(t, err, ErrAppointmentNotFound)
}

func TestLedgerConcurrentAppends(t *testing.T) {
	ledger := NewMemoryLedger()
	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := ledger.Append(ctx, newAppointment(t, "2025-12-01", "10:00", 0, 0))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	list, _ := ledger.List(ctx)
	require.Len(t, list, 50)
	seen := map[int64]bool{}
	for _, appt := range list {
		seen[appt.Sequence] = true
	}
	assert.Len(t, seen, 50)
}
