package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/wolfman30/pawcare-booking/internal/booking"
	"github.com/wolfman30/pawcare-booking/internal/bookings"
	"github.com/wolfman30/pawcare-booking/internal/catalog"
	"github.com/wolfman30/pawcare-booking/internal/payments"
	"github.com/wolfman30/pawcare-booking/internal/pets"
	"github.com/wolfman30/pawcare-booking/internal/schedule"
	"github.com/wolfman30/pawcare-booking/internal/session"
	"github.com/wolfman30/pawcare-booking/pkg/logging"
)

const maxBodyBytes = 1 << 20

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error  string       `json:"error"`
	Step   booking.Step `json:"step,omitempty"`
	Fields []string     `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func jsonError(w http.ResponseWriter, msg string, status int) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// decodeJSON reads a bounded JSON body into dst. An empty body leaves dst untouched.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, payments.ErrCardDeclined):
		return http.StatusPaymentRequired
	case errors.Is(err, payments.ErrTooManyAttempts):
		return http.StatusTooManyRequests
	case errors.Is(err, bookings.ErrAppointmentNotFound),
		errors.Is(err, catalog.ErrServiceNotFound),
		errors.Is(err, booking.ErrUnknownService),
		errors.Is(err, pets.ErrPetNotFound):
		return http.StatusNotFound
	case errors.Is(err, booking.ErrWrongStep),
		errors.Is(err, booking.ErrNoPreviousStep),
		errors.Is(err, session.ErrNoActiveBooking),
		errors.Is(err, session.ErrNoActiveCheckout),
		errors.Is(err, payments.ErrCheckoutAbandoned),
		errors.Is(err, payments.ErrSettlementCancelled),
		errors.Is(err, payments.ErrSettlementInProgress),
		errors.Is(err, payments.ErrAlreadyCommitted),
		errors.Is(err, payments.ErrPaymentRequired),
		errors.Is(err, payments.ErrPaymentNotRequired),
		errors.Is(err, bookings.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, booking.ErrIncompleteDetails),
		errors.Is(err, booking.ErrNoServicesSelected),
		errors.Is(err, booking.ErrDateInPast),
		errors.Is(err, booking.ErrDateRequired),
		errors.Is(err, booking.ErrUnknownSlot),
		errors.Is(err, booking.ErrInvalidPet),
		errors.Is(err, payments.ErrInvalidInstrument),
		errors.Is(err, bookings.ErrInvalidStatus),
		errors.Is(err, schedule.ErrInvalidDate),
		errors.Is(err, schedule.ErrInvalidTime):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders err. Validation errors carry the step and fields so the
// client can show them inline.
func writeError(w http.ResponseWriter, logger *logging.Logger, err error) {
	if ve, ok := booking.AsValidationError(err); ok {
		writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
			Error:  ve.Error(),
			Step:   ve.Step,
			Fields: ve.Fields,
		})
		return
	}
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.Error("request failed", "error", err)
		jsonError(w, "internal error", status)
		return
	}
	jsonError(w, err.Error(), status)
}
