package handlers

import (
	"net/http"
	"strconv"

	"github.com/wolfman30/pawcare-booking/internal/events"
)

// EventJournal is the read side of the event bus.
type EventJournal interface {
	Recent(n int) []events.Envelope
}

// AdminEventsHandler lists recently published domain events.
type AdminEventsHandler struct {
	journal EventJournal
}

func NewAdminEventsHandler(journal EventJournal) *AdminEventsHandler {
	return &AdminEventsHandler{journal: journal}
}

// List returns the most recent events, oldest first.
// GET /admin/events?limit=50
func (h *AdminEventsHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 || limit > 500 {
		limit = 50
	}
	envs := h.journal.Recent(limit)
	if eventType := r.URL.Query().Get("type"); eventType != "" {
		filtered := envs[:0]
		for _, env := range envs {
			if env.EventType == eventType {
				filtered = append(filtered, env)
			}
		}
		envs = filtered
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": envs, "count": len(envs)})
}
