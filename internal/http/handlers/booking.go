package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/pawcare-booking/internal/schedule"
	"github.com/wolfman30/pawcare-booking/internal/session"
	"github.com/wolfman30/pawcare-booking/pkg/logging"
)

// BookingHandler drives the booking wizard. Every successful call returns
// the session view.
type BookingHandler struct {
	store  *session.Store
	logger *logging.Logger
}

func NewBookingHandler(store *session.Store, logger *logging.Logger) *BookingHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &BookingHandler{store: store, logger: logger}
}

// DetailsRequest patches the Details step. Omitted fields are unchanged.
type DetailsRequest struct {
	PetID *string `json:"pet_id"`
	Date  *string `json:"date"`
	Time  *string `json:"time"`
	Notes *string `json:"notes"`
}

func (req DetailsRequest) patch() (session.DetailsPatch, error) {
	p := session.DetailsPatch{PetID: req.PetID, Notes: req.Notes}
	if req.Date != nil {
		d, err := schedule.ParseDate(*req.Date)
		if err != nil {
			return p, err
		}
		p.Date = &d
	}
	if req.Time != nil {
		t, err := schedule.ParseTimeOfDay(*req.Time)
		if err != nil {
			return p, err
		}
		p.Time = &t
	}
	return p, nil
}

// Start begins a new booking, abandoning any open checkout.
// POST /booking
func (h *BookingHandler) Start(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusCreated, h.store.StartBooking(r.Context()))
}

// GET /booking
func (h *BookingHandler) Get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store.View())
}

// UpdateDetails sets pet, date, time and notes.
// PATCH /booking/details
func (h *BookingHandler) UpdateDetails(w http.ResponseWriter, r *http.Request) {
	var req DetailsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	patch, err := req.patch()
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if err := h.store.UpdateDetails(r.Context(), patch); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, h.store.View())
}

// Slots lists the times available for the chosen date.
// GET /booking/slots
func (h *BookingHandler) Slots(w http.ResponseWriter, r *http.Request) {
	listing, err := h.store.Slots()
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, listing)
}

// SelectService adds a service to the selection.
// PUT /booking/services/{serviceID}
func (h *BookingHandler) SelectService(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, true)
}

// DeselectService removes a service from the selection.
// DELETE /booking/services/{serviceID}
func (h *BookingHandler) DeselectService(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, false)
}

func (h *BookingHandler) toggle(w http.ResponseWriter, r *http.Request, selected bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "serviceID"))
	if err != nil {
		jsonError(w, "serviceID must be an integer", http.StatusBadRequest)
		return
	}
	if err := h.store.ToggleService(id, selected); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, h.store.View())
}

// POST /booking/next
func (h *BookingHandler) Next(w http.ResponseWriter, r *http.Request) {
	h.transition(w, h.store.Next)
}

// POST /booking/back
func (h *BookingHandler) Back(w http.ResponseWriter, r *http.Request) {
	h.transition(w, h.store.Back)
}

// POST /booking/skip
func (h *BookingHandler) Skip(w http.ResponseWriter, r *http.Request) {
	h.transition(w, h.store.Skip)
}

// POST /booking/continue
func (h *BookingHandler) Continue(w http.ResponseWriter, r *http.Request) {
	h.transition(w, h.store.Continue)
}

func (h *BookingHandler) transition(w http.ResponseWriter, step func() error) {
	if err := step(); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, h.store.View())
}

// Confirm hands the draft to checkout.
// POST /booking/confirm
func (h *BookingHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	if _, err := h.store.Confirm(r.Context()); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, h.store.View())
}
