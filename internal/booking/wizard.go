package booking

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/wolfman30/pawcare-booking/internal/catalog"
	"github.com/wolfman30/pawcare-booking/internal/pets"
	"github.com/wolfman30/pawcare-booking/internal/pricing"
	"github.com/wolfman30/pawcare-booking/internal/schedule"
)

// ServiceLookup resolves catalog services by id.
type ServiceLookup interface {
	Get(id int) (catalog.Service, error)
}

// Options configures a Wizard.
type Options struct {
	Schedule *schedule.DailySchedule
	// Location decides what "today" means for past-date checks. Defaults to UTC.
	Location *time.Location
	Now      func() time.Time
}

// Wizard walks a client through Details, Services and Confirmation.
// A Wizard is not safe for concurrent use; the session serializes access.
type Wizard struct {
	services ServiceLookup
	schedule *schedule.DailySchedule
	loc      *time.Location
	now      func() time.Time

	step   Step
	draft  Draft
	notice string
}

// NewWizard starts a wizard at the Details step with an empty draft.
func NewWizard(services ServiceLookup, opts Options) *Wizard {
	if services == nil {
		panic("booking: service lookup required")
	}
	if opts.Schedule == nil {
		opts.Schedule = schedule.DefaultDailySchedule()
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Wizard{
		services: services,
		schedule: opts.Schedule,
		loc:      opts.Location,
		now:      opts.Now,
		step:     StepDetails,
	}
}

func (w *Wizard) Step() Step { return w.step }

// Draft returns a copy of the current draft.
func (w *Wizard) Draft() Draft { return w.draft.clone() }

// Notice is the last validation message. It clears on the next successful transition.
func (w *Wizard) Notice() string { return w.notice }

// Pricing is recomputed from the current selection on every call.
func (w *Wizard) Pricing() pricing.Result {
	return pricing.Price(w.draft.Services)
}

func (w *Wizard) today() schedule.Date {
	return schedule.DateOf(w.now().In(w.loc))
}

func (w *Wizard) require(step Step, action string) error {
	if w.step != step {
		return fmt.Errorf("%w: %s requires the %s step, wizard is at %s", ErrWrongStep, action, step, w.step)
	}
	return nil
}

func (w *Wizard) moveTo(step Step) {
	w.step = step
	w.notice = ""
}

func (w *Wizard) reject(err *ValidationError) error {
	w.notice = err.Error()
	return err
}

// SelectPet sets the pet for the appointment.
func (w *Wizard) SelectPet(pet pets.Pet) error {
	if err := w.require(StepDetails, "select pet"); err != nil {
		return err
	}
	if strings.TrimSpace(pet.ID) == "" {
		return ErrInvalidPet
	}
	w.draft.Pet = &pet
	return nil
}

// SetDate sets the appointment date. Dates before today are rejected.
// A previously chosen time is kept because every day has the same slots.
func (w *Wizard) SetDate(d schedule.Date) error {
	if err := w.require(StepDetails, "set date"); err != nil {
		return err
	}
	if d.Before(w.today()) {
		return fmt.Errorf("%w: %s", ErrDateInPast, d)
	}
	w.draft.Date = &d
	return nil
}

// SetTime sets the appointment time. A date must already be chosen.
func (w *Wizard) SetTime(t schedule.TimeOfDay) error {
	if err := w.require(StepDetails, "set time"); err != nil {
		return err
	}
	if w.draft.Date == nil {
		return ErrDateRequired
	}
	if !w.schedule.Contains(t) {
		return fmt.Errorf("%w: %s", ErrUnknownSlot, t)
	}
	w.draft.Time = &t
	return nil
}

func (w *Wizard) SetNotes(notes string) error {
	if err := w.require(StepDetails, "set notes"); err != nil {
		return err
	}
	w.draft.Notes = strings.TrimSpace(notes)
	return nil
}

// AvailableSlots lists the bookable times for the chosen date. It is empty
// until a date is chosen.
func (w *Wizard) AvailableSlots() []schedule.TimeOfDay {
	if w.draft.Date == nil {
		return nil
	}
	return w.schedule.Slots()
}

// AvailableBlocks groups the available times by schedule block, e.g.
// morning and afternoon.
func (w *Wizard) AvailableBlocks() map[string][]schedule.TimeOfDay {
	if w.draft.Date == nil {
		return nil
	}
	blocks := make(map[string][]schedule.TimeOfDay)
	for _, name := range w.schedule.BlockNames() {
		if slots := w.schedule.BlockSlots(name); len(slots) > 0 {
			blocks[name] = slots
		}
	}
	return blocks
}

// ToggleService adds or removes a service from the selection. Selection
// order is kept and a service appears at most once.
func (w *Wizard) ToggleService(id int, selected bool) error {
	if err := w.require(StepServices, "toggle service"); err != nil {
		return err
	}
	svc, err := w.services.Get(id)
	if err != nil {
		return fmt.Errorf("%w: %d", ErrUnknownService, id)
	}
	if selected {
		if !w.draft.hasService(id) {
			w.draft.Services = append(w.draft.Services, svc)
		}
		return nil
	}
	kept := w.draft.Services[:0]
	for _, s := range w.draft.Services {
		if s.ID != id {
			kept = append(kept, s)
		}
	}
	w.draft.Services = kept
	return nil
}

// Next leaves Details once pet, date and time are set.
func (w *Wizard) Next() error {
	if err := w.require(StepDetails, "next"); err != nil {
		return err
	}
	if missing := w.draft.missingDetails(); len(missing) > 0 {
		return w.reject(&ValidationError{
			Step:    StepDetails,
			Fields:  missing,
			Message: "Please select " + joinFields(missing) + " to continue",
			Err:     ErrIncompleteDetails,
		})
	}
	if w.draft.Date.Before(w.today()) {
		return w.reject(&ValidationError{
			Step:    StepDetails,
			Fields:  []string{"date"},
			Message: "The selected date has passed, please choose another",
			Err:     ErrDateInPast,
		})
	}
	w.moveTo(StepServices)
	return nil
}

// Skip clears the selection and books the appointment only.
func (w *Wizard) Skip() error {
	if err := w.require(StepServices, "skip"); err != nil {
		return err
	}
	w.draft.Services = nil
	w.moveTo(StepConfirmation)
	return nil
}

// Continue proceeds with the selected services. An empty selection must use Skip.
func (w *Wizard) Continue() error {
	if err := w.require(StepServices, "continue"); err != nil {
		return err
	}
	if len(w.draft.Services) == 0 {
		return w.reject(&ValidationError{
			Step:    StepServices,
			Fields:  []string{"services"},
			Message: "Select at least one service, or skip to book the appointment only",
			Err:     ErrNoServicesSelected,
		})
	}
	w.moveTo(StepConfirmation)
	return nil
}

// Back returns to the previous step without touching the draft.
func (w *Wizard) Back() error {
	switch w.step {
	case StepConfirmation:
		w.moveTo(StepServices)
	case StepServices:
		w.moveTo(StepDetails)
	default:
		return ErrNoPreviousStep
	}
	return nil
}

// Confirm freezes the draft into an Order for checkout.
func (w *Wizard) Confirm() (Order, error) {
	if err := w.require(StepConfirmation, "confirm"); err != nil {
		return Order{}, err
	}
	d := w.draft.clone()
	if missing := d.missingDetails(); len(missing) > 0 {
		return Order{}, fmt.Errorf("%w: missing %s", ErrIncompleteDetails, strings.Join(missing, ", "))
	}
	o := orderFrom(d)
	o.ID = uuid.NewString()
	o.ConfirmedAt = w.now().UTC()
	return o, nil
}

// Summary renders the order as it would be confirmed. It is empty before
// the Confirmation step.
func (w *Wizard) Summary() string {
	if w.step != StepConfirmation {
		return ""
	}
	d := w.draft.clone()
	if len(d.missingDetails()) > 0 {
		return ""
	}
	return FormatOrderSummary(orderFrom(d))
}

func orderFrom(d Draft) Order {
	return Order{
		Pet:      *d.Pet,
		Date:     *d.Date,
		Time:     *d.Time,
		Services: d.Services,
		Notes:    d.Notes,
		Pricing:  pricing.Price(d.Services),
	}
}

func joinFields(fields []string) string {
	switch len(fields) {
	case 0:
		return ""
	case 1:
		return "a " + fields[0]
	}
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = "a " + f
	}
	return strings.Join(parts[:len(parts)-1], ", ") + " and " + parts[len(parts)-1]
}
