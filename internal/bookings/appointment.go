package bookings

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/wolfman30/pawcare-booking/internal/catalog"
	"github.com/wolfman30/pawcare-booking/internal/pets"
	"github.com/wolfman30/pawcare-booking/internal/pricing"
	"github.com/wolfman30/pawcare-booking/internal/schedule"
)

var (
	ErrInvalidStatus        = errors.New("bookings: invalid status")
	ErrInvalidTransition    = errors.New("bookings: invalid status transition")
	ErrAppointmentNotFound  = errors.New("bookings: appointment not found")
	ErrDuplicateAppointment = errors.New("bookings: duplicate appointment id")
	ErrInvalidAppointment   = errors.New("bookings: invalid appointment")
)

// Status is an appointment's lifecycle state.
type Status string

const (
	StatusUpcoming  Status = "upcoming"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// ParseStatus accepts any casing of a known status.
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	if !st.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
	return st, nil
}

func (s Status) Valid() bool {
	switch s {
	case StatusUpcoming, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transitions are allowed.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Transition validates moving from one status to another. Staying on the
// same status is allowed and changes nothing. Only upcoming appointments
// may move.
func Transition(from, to Status) (Status, error) {
	if !from.Valid() {
		return from, fmt.Errorf("%w: %q", ErrInvalidStatus, from)
	}
	if !to.Valid() {
		return from, fmt.Errorf("%w: %q", ErrInvalidStatus, to)
	}
	if from == to {
		return to, nil
	}
	if from.Terminal() {
		return from, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return to, nil
}

// Appointment is a committed booking. Only Status changes after commit.
type Appointment struct {
	ID            uuid.UUID          `json:"id"`
	Sequence      int64              `json:"sequence"`
	OrderID       string             `json:"order_id"`
	Date          schedule.Date      `json:"date"`
	Time          schedule.TimeOfDay `json:"time"`
	Pet           pets.Pet           `json:"pet"`
	Services      []catalog.Service  `json:"services"`
	Total         pricing.Money      `json:"total_cents"`
	Notes         string             `json:"notes"`
	Status        Status             `json:"status"`
	DepositPaid   pricing.Money      `json:"deposit_paid_cents"`
	SettlementRef string             `json:"settlement_ref,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
}

// BalanceDue is what remains to be paid at the visit.
func (a Appointment) BalanceDue() pricing.Money {
	return a.Total - a.DepositPaid
}

func (a Appointment) clone() Appointment {
	out := a
	out.Services = make([]catalog.Service, len(a.Services))
	copy(out.Services, a.Services)
	return out
}

func (a Appointment) validate() error {
	switch {
	case a.ID == uuid.Nil:
		return fmt.Errorf("%w: id required", ErrInvalidAppointment)
	case !a.Status.Valid():
		return fmt.Errorf("%w: status %q", ErrInvalidAppointment, a.Status)
	case a.Date.IsZero():
		return fmt.Errorf("%w: date required", ErrInvalidAppointment)
	case a.DepositPaid < 0 || a.DepositPaid > a.Total:
		return fmt.Errorf("%w: deposit %s outside total %s", ErrInvalidAppointment, a.DepositPaid, a.Total)
	}
	return nil
}
