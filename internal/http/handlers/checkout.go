package handlers

import (
	"net/http"

	"github.com/wolfman30/pawcare-booking/internal/bookings"
	"github.com/wolfman30/pawcare-booking/internal/payments"
	"github.com/wolfman30/pawcare-booking/internal/session"
	"github.com/wolfman30/pawcare-booking/pkg/logging"
)

// CheckoutHandler settles the order produced by the wizard.
type CheckoutHandler struct {
	store  *session.Store
	logger *logging.Logger
}

func NewCheckoutHandler(store *session.Store, logger *logging.Logger) *CheckoutHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &CheckoutHandler{store: store, logger: logger}
}

// PaymentRequest carries the card entered on the payment step.
type PaymentRequest struct {
	CardholderName string `json:"cardholder_name"`
	Number         string `json:"number"`
	Expiry         string `json:"expiry"`
	CVV            string `json:"cvv"`
}

func (p PaymentRequest) instrument() payments.Instrument {
	return payments.Instrument{CardholderName: p.CardholderName, Number: p.Number, Expiry: p.Expiry, CVV: p.CVV}
}

// CommitResponse is returned once an appointment is on the ledger.
type CommitResponse struct {
	Appointment bookings.Appointment `json:"appointment"`
	BalanceDue  int64                `json:"balance_due_cents"`
	Session     session.View         `json:"session"`
}

// GET /checkout
func (h *CheckoutHandler) Get(w http.ResponseWriter, r *http.Request) {
	view, err := h.store.CheckoutView()
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// ConfirmFree books an appointment that needs no payment.
// POST /checkout/confirm
func (h *CheckoutHandler) ConfirmFree(w http.ResponseWriter, r *http.Request) {
	appt, err := h.store.ConfirmFree(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.committed(w, appt)
}

// Pay settles the deposit. With ?async=true it returns 202 immediately and the
// outcome is read from GET /checkout; otherwise it blocks until settlement.
// POST /checkout/pay
func (h *CheckoutHandler) Pay(w http.ResponseWriter, r *http.Request) {
	var req PaymentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if r.URL.Query().Get("async") == "true" {
		st, err := h.store.SubmitPayment(r.Context(), req.instrument())
		if err != nil {
			writeError(w, h.logger, err)
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]string{"settlement_ref": st.Reference})
		return
	}

	appt, err := h.store.Pay(r.Context(), req.instrument())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.committed(w, appt)
}

// Abandon leaves checkout and returns to the confirmation step.
// DELETE /checkout
func (h *CheckoutHandler) Abandon(w http.ResponseWriter, r *http.Request) {
	if err := h.store.AbandonCheckout(r.Context()); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, h.store.View())
}

func (h *CheckoutHandler) committed(w http.ResponseWriter, appt bookings.Appointment) {
	writeJSON(w, http.StatusCreated, CommitResponse{
		Appointment: appt,
		BalanceDue:  appt.BalanceDue().Cents(),
		Session:     h.store.View(),
	})
}
