package booking

import (
	"errors"
	"strings"
)

var (
	ErrWrongStep          = errors.New("booking: action not available in the current step")
	ErrNoPreviousStep     = errors.New("booking: already at the first step")
	ErrIncompleteDetails  = errors.New("booking: pet, date and time are required")
	ErrNoServicesSelected = errors.New("booking: no services selected")
	ErrDateInPast         = errors.New("booking: date is in the past")
	ErrDateRequired       = errors.New("booking: choose a date before a time")
	ErrUnknownSlot        = errors.New("booking: time is not on the schedule")
	ErrUnknownService     = errors.New("booking: unknown service")
	ErrInvalidPet         = errors.New("booking: pet is required")
)

// ValidationError blocks a step transition. It is meant to be shown inline
// on the step named by Step; the wizard stays where it was.
type ValidationError struct {
	Step    Step
	Fields  []string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if len(e.Fields) > 0 {
		return "booking: missing " + strings.Join(e.Fields, ", ")
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error { return e.Err }

// AsValidationError unwraps err into a *ValidationError when possible.
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
