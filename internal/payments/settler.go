package payments

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/wolfman30/pawcare-booking/internal/pricing"
	"github.com/wolfman30/pawcare-booking/pkg/logging"
)

// SettlementRequest is one attempt to collect a deposit.
type SettlementRequest struct {
	Reference  string
	OrderID    string
	Amount     pricing.Money
	Instrument Instrument
}

// Receipt confirms a settled deposit.
type Receipt struct {
	Reference string        `json:"reference"`
	Provider  string        `json:"provider"`
	Amount    pricing.Money `json:"amount_cents"`
	SettledAt time.Time     `json:"settled_at"`
}

// Settler collects a deposit. Implementations must return promptly once ctx is done.
type Settler interface {
	Name() string
	Settle(ctx context.Context, req SettlementRequest) (Receipt, error)
}

// SimulatedSettler is a demo settler that waits a fixed latency and then
// succeeds, unless the card number is on its decline list.
//
// It never touches a real payment network.
type SimulatedSettler struct {
	latency  time.Duration
	declines map[string]struct{}
	now      func() time.Time
	logger   *logging.Logger
}

// DefaultSettlementLatency stands in for a network round trip.
const DefaultSettlementLatency = 2 * time.Second

func NewSimulatedSettler(latency time.Duration, declineNumbers []string, logger *logging.Logger) *SimulatedSettler {
	if latency < 0 {
		latency = DefaultSettlementLatency
	}
	if logger == nil {
		logger = logging.Default()
	}
	declines := make(map[string]struct{}, len(declineNumbers))
	for _, n := range declineNumbers {
		d := Instrument{Number: n}.digits()
		if d != "" {
			declines[d] = struct{}{}
		}
	}
	return &SimulatedSettler{latency: latency, declines: declines, now: time.Now, logger: logger}
}

func (s *SimulatedSettler) Name() string { return "simulated" }

func (s *SimulatedSettler) Settle(ctx context.Context, req SettlementRequest) (Receipt, error) {
	if strings.TrimSpace(req.Reference) == "" {
		return Receipt{}, fmt.Errorf("payments: simulated settlement requires a reference")
	}
	if s.latency > 0 {
		timer := time.NewTimer(s.latency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return Receipt{}, ctx.Err()
		case <-timer.C:
		}
	} else if err := ctx.Err(); err != nil {
		return Receipt{}, err
	}

	if _, declined := s.declines[req.Instrument.digits()]; declined {
		s.logger.Info("simulated settlement declined", "reference", req.Reference, "order_id", req.OrderID, "card_last4", req.Instrument.Last4())
		return Receipt{}, ErrCardDeclined
	}
	return Receipt{
		Reference: req.Reference,
		Provider:  s.Name(),
		Amount:    req.Amount,
		SettledAt: s.now().UTC(),
	}, nil
}
