package pricing

// Priced is anything with a list price.
type Priced interface {
	ListPrice() Money
}

// Result is the pricing model shown alongside a booking.
type Result struct {
	ServicesTotal Money `json:"services_total_cents"`
	IsBookingOnly bool  `json:"is_booking_only"`
	DepositAmount Money `json:"deposit_amount_cents"`
	BalanceDue    Money `json:"balance_due_cents"`
}

// RequiresPayment reports whether a deposit must be settled before the
// booking is committed.
func (r Result) RequiresPayment() bool {
	return !r.IsBookingOnly && r.DepositAmount > 0
}

// Price computes totals for the selected items. A booking with no items is
// booking-only and carries no deposit.
func Price[T Priced](items []T) Result {
	var total Money
	for _, item := range items {
		total += item.ListPrice()
	}
	if len(items) == 0 {
		return Result{IsBookingOnly: true}
	}
	deposit := total.Half()
	return Result{
		ServicesTotal: total,
		DepositAmount: deposit,
		BalanceDue:    total - deposit,
	}
}
