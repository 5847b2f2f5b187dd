package bookings

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Ledger is the append-only record of committed appointments.
type Ledger interface {
	Append(ctx context.Context, appt Appointment) (Appointment, error)
	List(ctx context.Context) ([]Appointment, error)
	Get(ctx context.Context, id uuid.UUID) (Appointment, error)
	// SetStatus applies a validated transition and returns the previous status.
	SetStatus(ctx context.Context, id uuid.UUID, to Status) (Appointment, Status, error)
}

// MemoryLedger keeps appointments in commit order.
type MemoryLedger struct {
	mu      sync.RWMutex
	entries []Appointment
	index   map[uuid.UUID]int
	seq     int64
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{index: make(map[uuid.UUID]int)}
}

// Append stores a fully built appointment and assigns its sequence number.
func (l *MemoryLedger) Append(_ context.Context, appt Appointment) (Appointment, error) {
	if err := appt.validate(); err != nil {
		return Appointment{}, err
	}
	appt = appt.clone()

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, exists := l.index[appt.ID]; exists {
		return Appointment{}, ErrDuplicateAppointment
	}
	l.seq++
	appt.Sequence = l.seq
	l.index[appt.ID] = len(l.entries)
	l.entries = append(l.entries, appt)
	return appt.clone(), nil
}

func (l *MemoryLedger) List(_ context.Context) ([]Appointment, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Appointment, 0, len(l.entries))
	for _, appt := range l.entries {
		out = append(out, appt.clone())
	}
	return out, nil
}

func (l *MemoryLedger) Get(_ context.Context, id uuid.UUID) (Appointment, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	idx, ok := l.index[id]
	if !ok {
		return Appointment{}, ErrAppointmentNotFound
	}
	return l.entries[idx].clone(), nil
}

func (l *MemoryLedger) SetStatus(_ context.Context, id uuid.UUID, to Status) (Appointment, Status, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	idx, ok := l.index[id]
	if !ok {
		return Appointment{}, "", ErrAppointmentNotFound
	}
	from := l.entries[idx].Status
	next, err := Transition(from, to)
	if err != nil {
		return l.entries[idx].clone(), from, err
	}
	l.entries[idx].Status = next
	return l.entries[idx].clone(), from, nil
}
