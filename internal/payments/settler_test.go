package payments

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/pawcare-booking/internal/pricing"
)

var goodCard = Instrument{CardholderName: "Jane Doe", Number: "4242 4242 4242 4242", Expiry: "12/30", CVV: "123"}

func TestInstrumentValidate(t *testing.T) {
	require.NoError(t, goodCard.Validate())
	assert.Equal(t, "4242", goodCard.Last4())

	bad := Instrument{CardholderName: "Jane", Number: "  ", Expiry: "", CVV: "1"}
	err := bad.Validate()
	require.ErrorIs(t, err, ErrInvalidInstrument)
	assert.Contains(t, err.Error(), "number, expiry")

	assert.Equal(t, "12", Instrument{Number: "12"}.Last4())
}

func TestSimulatedSettlerSucceeds(t *testing.T) {
	s := NewSimulatedSettler(5*time.Millisecond, nil, nil)
	receipt, err := s.Settle(context.Background(), SettlementRequest{Reference: "ref-1", OrderID: "o-1", Amount: pricing.Dollars(60), Instrument: goodCard})
	require.NoError(t, err)
	assert.Equal(t, "ref-1", receipt.Reference)
	assert.Equal(t, "simulated", receipt.Provider)
	assert.Equal(t, pricing.Dollars(60), receipt.Amount)
	assert.False(t, receipt.SettledAt.IsZero())
}

func TestSimulatedSettlerDeclinesConfiguredCards(t *testing.T) {
	s := NewSimulatedSettler(0, []string{"4000-0000-0000-0002"}, nil)
	card := goodCard
	card.Number = "4000000000000002"
	_, err := s.Settle(context.Background(), SettlementRequest{Reference: "ref-1", Instrument: card})
	require.ErrorIs(t, err, ErrCardDeclined)
}

func TestSimulatedSettlerHonoursCancellation(t *testing.T) {
	s := NewSimulatedSettler(time.Hour, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	start := time.Now()
	_, err := s.Settle(ctx, SettlementRequest{Reference: "ref-1", Instrument: goodCard})
	require.True(t, errors.Is(err, context.Canceled))
	assert.Less(t, time.Since(start), time.Minute)
}

func TestSimulatedSettlerRequiresReference(t *testing.T) {
	s := NewSimulatedSettler(0, nil, nil)
	_, err := s.Settle(context.Background(), SettlementRequest{})
	require.Error(t, err)
}
