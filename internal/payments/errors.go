package payments

import "errors"

var (
	ErrPaymentRequired      = errors.New("payments: this booking requires a deposit")
	ErrPaymentNotRequired   = errors.New("payments: booking-only appointments need no payment")
	ErrInvalidInstrument    = errors.New("payments: payment details incomplete")
	ErrCardDeclined         = errors.New("payments: card declined")
	ErrTooManyAttempts      = errors.New("payments: too many payment attempts")
	ErrSettlementInProgress = errors.New("payments: settlement already in progress")
	ErrSettlementCancelled  = errors.New("payments: settlement cancelled")
	ErrSettlementPending    = errors.New("payments: settlement not finished")
	ErrCheckoutAbandoned    = errors.New("payments: checkout abandoned")
	ErrAlreadyCommitted     = errors.New("payments: checkout already committed")
)
