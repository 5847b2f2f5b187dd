package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/pawcare-booking/internal/bookings"
	"github.com/wolfman30/pawcare-booking/internal/http/middleware"
	"github.com/wolfman30/pawcare-booking/internal/pricing"
	"github.com/wolfman30/pawcare-booking/pkg/logging"
)

// AppointmentsHandler exposes the appointment ledger to the client and to staff.
type AppointmentsHandler struct {
	svc    *bookings.Service
	logger *logging.Logger
}

func NewAppointmentsHandler(svc *bookings.Service, logger *logging.Logger) *AppointmentsHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &AppointmentsHandler{svc: svc, logger: logger}
}

// AppointmentItem is an appointment with its balance due.
type AppointmentItem struct {
	bookings.Appointment
	BalanceDue pricing.Money `json:"balance_due_cents"`
}

type AppointmentsResponse struct {
	Appointments []AppointmentItem `json:"appointments"`
	Total        int               `json:"total"`
}

type StatusUpdateRequest struct {
	Status string `json:"status"`
}

func toItems(list []bookings.Appointment) AppointmentsResponse {
	items := make([]AppointmentItem, 0, len(list))
	for _, a := range list {
		items = append(items, AppointmentItem{Appointment: a, BalanceDue: a.BalanceDue()})
	}
	return AppointmentsResponse{Appointments: items, Total: len(items)}
}

// List returns every appointment in booking order, optionally filtered.
// GET /appointments?status=upcoming
func (h *AppointmentsHandler) List(w http.ResponseWriter, r *http.Request) {
	var (
		list []bookings.Appointment
		err  error
	)
	if raw := r.URL.Query().Get("status"); raw != "" {
		status, perr := bookings.ParseStatus(raw)
		if perr != nil {
			writeError(w, h.logger, perr)
			return
		}
		list, err = h.svc.ListByStatus(r.Context(), status)
	} else {
		list, err = h.svc.List(r.Context())
	}
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toItems(list))
}

// Upcoming returns upcoming appointments, earliest first.
// GET /appointments/upcoming
func (h *AppointmentsHandler) Upcoming(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.Upcoming(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toItems(list))
}

// GET /appointments/{appointmentID}
func (h *AppointmentsHandler) Get(w http.ResponseWriter, r *http.Request) {
	appt, err := h.svc.Get(r.Context(), chi.URLParam(r, "appointmentID"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, AppointmentItem{Appointment: appt, BalanceDue: appt.BalanceDue()})
}

// Summary reports counts per status and money collected and outstanding.
// GET /admin/appointments/summary
func (h *AppointmentsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.svc.Summary(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// UpdateStatus completes or cancels an upcoming appointment.
// PATCH /admin/appointments/{appointmentID}/status
func (h *AppointmentsHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req StatusUpdateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	status, err := bookings.ParseStatus(req.Status)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	appt, err := h.svc.UpdateStatus(r.Context(), chi.URLParam(r, "appointmentID"), status)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	staff := "unauthenticated"
	if claims, ok := middleware.StaffClaimsFromContext(r.Context()); ok {
		staff = claims.Subject
	}
	h.logger.Info("staff set appointment status", "appointment_id", appt.ID, "status", appt.Status, "staff", staff)
	writeJSON(w, http.StatusOK, AppointmentItem{Appointment: appt, BalanceDue: appt.BalanceDue()})
}
