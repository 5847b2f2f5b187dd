package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wolfman30/pawcare-booking/internal/booking"
	"github.com/wolfman30/pawcare-booking/internal/bookings"
	"github.com/wolfman30/pawcare-booking/internal/events"
	"github.com/wolfman30/pawcare-booking/internal/observability/metrics"
	"github.com/wolfman30/pawcare-booking/internal/payments"
	"github.com/wolfman30/pawcare-booking/internal/pets"
	"github.com/wolfman30/pawcare-booking/internal/pricing"
	"github.com/wolfman30/pawcare-booking/internal/schedule"
	"github.com/wolfman30/pawcare-booking/pkg/logging"
)

var (
	ErrNoActiveBooking  = errors.New("session: no booking in progress")
	ErrNoActiveCheckout = errors.New("session: no checkout in progress")
)

// Phase is the screen the session is on.
type Phase string

const (
	PhaseOverview Phase = "overview"
	PhaseBooking  Phase = "booking"
	PhaseCheckout Phase = "checkout"
)

// Deps wires a Store. Services, Pets and Publisher are required.
type Deps struct {
	UserID    string
	Services  booking.ServiceLookup
	Schedule  *schedule.DailySchedule
	Pets      pets.Repository
	Publisher events.Publisher
	Metrics   *metrics.BookingMetrics
	Logger    *logging.Logger
	Location  *time.Location
	Now       func() time.Time
}

// Store is the application state for one signed-in user: the active
// wizard, the active checkout and the last committed appointment.
type Store struct {
	id        string
	userID    string
	services  booking.ServiceLookup
	schedule  *schedule.DailySchedule
	pets      pets.Repository
	publisher events.Publisher
	metrics   *metrics.BookingMetrics
	logger    *logging.Logger
	loc       *time.Location
	now       func() time.Time

	mu              sync.Mutex
	phase           Phase
	wizard          *booking.Wizard
	checkout        *payments.Checkout
	lastAppointment string
}

func NewStore(deps Deps) *Store {
	if deps.Services == nil || deps.Pets == nil || deps.Publisher == nil {
		panic("session: services, pets and publisher are required")
	}
	if deps.Schedule == nil {
		deps.Schedule = schedule.DefaultDailySchedule()
	}
	if deps.Logger == nil {
		deps.Logger = logging.Default()
	}
	if deps.Location == nil {
		deps.Location = time.UTC
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	id := uuid.NewString()
	return &Store{
		id:        id,
		userID:    deps.UserID,
		services:  deps.Services,
		schedule:  deps.Schedule,
		pets:      deps.Pets,
		publisher: deps.Publisher,
		metrics:   deps.Metrics,
		logger:    deps.Logger.With("session_id", id, "user_id", deps.UserID),
		loc:       deps.Location,
		now:       deps.Now,
		phase:     PhaseOverview,
	}
}

func (s *Store) ID() string { return s.id }

// View is a snapshot of the session for rendering.
type View struct {
	SessionID         string               `json:"session_id"`
	UserID            string               `json:"user_id"`
	Phase             Phase                `json:"phase"`
	Step              booking.Step         `json:"step,omitempty"`
	Draft             *booking.Draft       `json:"draft,omitempty"`
	Pricing           *pricing.Result      `json:"pricing,omitempty"`
	Notice            string               `json:"notice,omitempty"`
	AvailableSlots    []schedule.TimeOfDay `json:"available_slots,omitempty"`
	Summary           string               `json:"summary,omitempty"`
	Checkout          *payments.View       `json:"checkout,omitempty"`
	LastAppointmentID string               `json:"last_appointment_id,omitempty"`
}

func (s *Store) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := View{
		SessionID:         s.id,
		UserID:            s.userID,
		Phase:             s.phase,
		LastAppointmentID: s.lastAppointment,
	}
	if s.wizard != nil {
		d := s.wizard.Draft()
		p := s.wizard.Pricing()
		v.Step = s.wizard.Step()
		v.Draft = &d
		v.Pricing = &p
		v.Notice = s.wizard.Notice()
		v.AvailableSlots = s.wizard.AvailableSlots()
		v.Summary = s.wizard.Summary()
	}
	if s.checkout != nil {
		cv := s.checkout.View()
		v.Checkout = &cv
	}
	return v
}

// StartBooking begins a fresh wizard. An open checkout is abandoned first.
func (s *Store) StartBooking(ctx context.Context) View {
	s.mu.Lock()
	co := s.checkout
	s.mu.Unlock()
	if co != nil {
		if err := co.Abandon(ctx); err != nil && !errors.Is(err, payments.ErrAlreadyCommitted) {
			s.logger.Warn("failed to abandon checkout on restart", "error", err)
		}
	}

	s.mu.Lock()
	s.checkout = nil
	s.wizard = booking.NewWizard(s.services, booking.Options{Schedule: s.schedule, Location: s.loc, Now: s.now})
	s.phase = PhaseBooking
	s.mu.Unlock()

	s.metrics.ObserveWizard("start", "ok")
	s.logger.Info("booking started")
	return s.View()
}

// withWizard runs fn against the active wizard and records the outcome.
func (s *Store) withWizard(action string, fn func(w *booking.Wizard) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseBooking || s.wizard == nil {
		return fmt.Errorf("%w (session is on %s)", ErrNoActiveBooking, s.phase)
	}
	err := fn(s.wizard)
	switch {
	case err == nil:
		s.metrics.ObserveWizard(action, "ok")
	case errors.As(err, new(*booking.ValidationError)):
		s.metrics.ObserveWizard(action, "rejected")
	default:
		s.metrics.ObserveWizard(action, "error")
	}
	return err
}

// DetailsPatch updates the Details step. Nil fields are left alone.
type DetailsPatch struct {
	PetID *string
	Date  *schedule.Date
	Time  *schedule.TimeOfDay
	Notes *string
}

// UpdateDetails applies the patch in pet, date, time, notes order and stops
// at the first error.
func (s *Store) UpdateDetails(ctx context.Context, patch DetailsPatch) error {
	var pet *pets.Pet
	if patch.PetID != nil {
		p, err := s.pets.GetByID(ctx, *patch.PetID)
		if err != nil {
			return fmt.Errorf("session: select pet: %w", err)
		}
		if p.OwnerID != s.userID {
			return fmt.Errorf("session: select pet: %w: %q", pets.ErrPetNotFound, *patch.PetID)
		}
		pet = p
	}
	return s.withWizard("details", func(w *booking.Wizard) error {
		if pet != nil {
			if err := w.SelectPet(*pet); err != nil {
				return err
			}
		}
		if patch.Date != nil {
			if err := w.SetDate(*patch.Date); err != nil {
				return err
			}
		}
		if patch.Time != nil {
			if err := w.SetTime(*patch.Time); err != nil {
				return err
			}
		}
		if patch.Notes != nil {
			if err := w.SetNotes(*patch.Notes); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) ToggleService(id int, selected bool) error {
	return s.withWizard("toggle_service", func(w *booking.Wizard) error { return w.ToggleService(id, selected) })
}

func (s *Store) Next() error {
	return s.withWizard("next", (*booking.Wizard).Next)
}

func (s *Store) Back() error {
	return s.withWizard("back", (*booking.Wizard).Back)
}

func (s *Store) Skip() error {
	return s.withWizard("skip", (*booking.Wizard).Skip)
}

func (s *Store) Continue() error {
	return s.withWizard("continue", (*booking.Wizard).Continue)
}

// SlotListing is the bookable times for the chosen date, flat and grouped
// by schedule block.
type SlotListing struct {
	Slots  []schedule.TimeOfDay            `json:"slots"`
	Blocks map[string][]schedule.TimeOfDay `json:"blocks"`
}

// Slots lists bookable times for the chosen date. Both lists are empty
// until a date is chosen.
func (s *Store) Slots() (SlotListing, error) {
	var listing SlotListing
	err := s.withWizard("slots", func(w *booking.Wizard) error {
		listing.Slots = w.AvailableSlots()
		listing.Blocks = w.AvailableBlocks()
		return nil
	})
	if listing.Slots == nil {
		listing.Slots = []schedule.TimeOfDay{}
	}
	if listing.Blocks == nil {
		listing.Blocks = map[string][]schedule.TimeOfDay{}
	}
	return listing, err
}

// Confirm finalizes the wizard and announces the order. The coordinator
// opens checkout in response.
func (s *Store) Confirm(ctx context.Context) (booking.Order, error) {
	var order booking.Order
	err := s.withWizard("confirm", func(w *booking.Wizard) error {
		o, err := w.Confirm()
		order = o
		return err
	})
	if err != nil {
		return booking.Order{}, err
	}
	s.logger.Info("booking confirmed", "order_id", order.ID, "service_ids", order.ServiceIDs())
	if _, err := s.publisher.Publish(ctx, events.WizardCompletedV1{
		SessionID:   s.id,
		Order:       order,
		CompletedAt: s.now().UTC(),
	}, events.WithCorrelationID(s.id)); err != nil {
		return order, fmt.Errorf("session: hand off order: %w", err)
	}
	return order, nil
}

func (s *Store) activeCheckout() (*payments.Checkout, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseCheckout || s.checkout == nil {
		return nil, ErrNoActiveCheckout
	}
	return s.checkout, nil
}

// CheckoutView returns the active checkout.
func (s *Store) CheckoutView() (payments.View, error) {
	co, err := s.activeCheckout()
	if err != nil {
		return payments.View{}, err
	}
	return co.View(), nil
}

func (s *Store) ConfirmFree(ctx context.Context) (bookings.Appointment, error) {
	co, err := s.activeCheckout()
	if err != nil {
		return bookings.Appointment{}, err
	}
	return co.ConfirmFree(ctx)
}

// Pay blocks until the settlement attempt resolves or ctx ends.
func (s *Store) Pay(ctx context.Context, inst payments.Instrument) (bookings.Appointment, error) {
	co, err := s.activeCheckout()
	if err != nil {
		return bookings.Appointment{}, err
	}
	return co.Pay(ctx, inst)
}

// SubmitPayment starts a settlement that outlives the caller's context.
func (s *Store) SubmitPayment(ctx context.Context, inst payments.Instrument) (*payments.Settlement, error) {
	co, err := s.activeCheckout()
	if err != nil {
		return nil, err
	}
	return co.Submit(context.WithoutCancel(ctx), inst)
}

// AbandonCheckout leaves checkout and returns to the wizard's confirmation step.
func (s *Store) AbandonCheckout(ctx context.Context) error {
	co, err := s.activeCheckout()
	if err != nil {
		return err
	}
	return co.Abandon(ctx)
}

func (s *Store) openCheckout(co *payments.Checkout) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checkout = co
	s.phase = PhaseCheckout
}

// finishCheckout discards the draft and returns to the overview.
func (s *Store) finishCheckout(orderID, appointmentID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.checkout == nil || s.checkout.Order().ID != orderID {
		return false
	}
	s.checkout = nil
	s.wizard = nil
	s.phase = PhaseOverview
	s.lastAppointment = appointmentID
	return true
}

// reopenBooking drops an abandoned checkout and keeps the draft.
func (s *Store) reopenBooking(orderID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.checkout == nil || s.checkout.Order().ID != orderID {
		return false
	}
	s.checkout = nil
	if s.wizard != nil {
		s.phase = PhaseBooking
	} else {
		s.phase = PhaseOverview
	}
	return true
}
