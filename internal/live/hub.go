// Package live pushes session changes to connected clients over WebSocket.
package live

import (
	"context"
	"net/http"
	"sync"
	"time"

	"golang.org/x/net/websocket"

	"github.com/wolfman30/pawcare-booking/internal/events"
	"github.com/wolfman30/pawcare-booking/internal/session"
	"github.com/wolfman30/pawcare-booking/pkg/logging"
)

const clientBuffer = 16

// Viewer renders the current session.
type Viewer interface {
	ID() string
	View() session.View
}

// InboundMessage is what a client sends.
type InboundMessage struct {
	Type string `json:"type"` // "ping"
}

// OutboundMessage is what a client receives.
type OutboundMessage struct {
	Type    string        `json:"type"` // "session", "update", "pong"
	Event   string        `json:"event,omitempty"`
	Session *session.View `json:"session,omitempty"`
}

// Hub fans session events out to every open connection. The bus handler only
// enqueues; each connection renders and writes on its own goroutine.
type Hub struct {
	viewer Viewer
	logger *logging.Logger

	mu      sync.RWMutex
	clients map[*client]struct{}
}

type client struct {
	conn *websocket.Conn
	send chan OutboundMessage
}

func NewHub(viewer Viewer, logger *logging.Logger) *Hub {
	if logger == nil {
		logger = logging.Default()
	}
	return &Hub{
		viewer:  viewer,
		logger:  logger,
		clients: make(map[*client]struct{}),
	}
}

// Attach subscribes the hub to bus.
func (h *Hub) Attach(bus *events.Bus) {
	bus.Subscribe(h.Handle)
}

// Connections reports how many clients are attached.
func (h *Hub) Connections() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Handle implements events.Handler.
func (h *Hub) Handle(_ context.Context, env events.Envelope, evt events.CanonicalEvent) error {
	var sessionID string
	switch e := evt.(type) {
	case events.WizardCompletedV1:
		sessionID = e.SessionID
	case events.PaymentCommittedV1:
		sessionID = e.SessionID
	case events.PaymentFailedV1:
		sessionID = e.SessionID
	case events.CheckoutAbandonedV1:
		sessionID = e.SessionID
	default:
		return nil
	}
	if sessionID != h.viewer.ID() {
		return nil
	}
	h.broadcast(OutboundMessage{Type: "update", Event: env.EventType})
	return nil
}

func (h *Hub) broadcast(msg OutboundMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			h.logger.Warn("live: client buffer full, dropping update", "event", msg.Event)
		}
	}
}

// ServeWS upgrades the request and streams session updates until the client
// disconnects.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	websocket.Handler(h.serve).ServeHTTP(w, r)
}

func (h *Hub) serve(conn *websocket.Conn) {
	// Hijacked connections keep the server's read and write deadlines.
	_ = conn.SetDeadline(time.Time{})

	c := &client{conn: conn, send: make(chan OutboundMessage, clientBuffer)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	done := make(chan struct{})
	defer func() {
		h.mu.Lock()
		delete(h.clients, c)
		h.mu.Unlock()
		close(done)
	}()

	c.send <- OutboundMessage{Type: "session"}
	go h.writeLoop(c, done)

	h.logger.Info("live: connection opened", "session_id", h.viewer.ID())
	for {
		var msg InboundMessage
		if err := websocket.JSON.Receive(conn, &msg); err != nil {
			h.logger.Debug("live: connection closed", "error", err)
			return
		}
		if msg.Type == "ping" {
			select {
			case c.send <- OutboundMessage{Type: "pong"}:
			default:
			}
		}
	}
}

func (h *Hub) writeLoop(c *client, done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case msg := <-c.send:
			if msg.Type != "pong" {
				v := h.viewer.View()
				msg.Session = &v
			}
			if err := websocket.JSON.Send(c.conn, msg); err != nil {
				h.logger.Debug("live: write failed", "error", err)
				return
			}
		}
	}
}
