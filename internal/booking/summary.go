package booking

import (
	"fmt"
	"strings"
)

// FormatOrderSummary renders a plain-text confirmation summary for an order.
func FormatOrderSummary(o Order) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Pet: %s\n", describePet(o)))
	b.WriteString(fmt.Sprintf("When: %s at %s\n", o.Date, o.Time))
	if len(o.Services) == 0 {
		b.WriteString("Services: none (booking only)\n")
	} else {
		names := make([]string, 0, len(o.Services))
		for _, svc := range o.Services {
			names = append(names, fmt.Sprintf("%s (%s)", svc.Name, svc.Price))
		}
		b.WriteString(fmt.Sprintf("Services: %s\n", strings.Join(names, ", ")))
	}
	if o.Notes != "" {
		b.WriteString(fmt.Sprintf("Notes: %s\n", o.Notes))
	}
	if o.Pricing.IsBookingOnly {
		b.WriteString("Payment: no deposit required\n")
		return b.String()
	}
	b.WriteString(fmt.Sprintf("Total: %s\n", o.Pricing.ServicesTotal))
	b.WriteString(fmt.Sprintf("Deposit due now (50%%): %s\n", o.Pricing.DepositAmount))
	b.WriteString(fmt.Sprintf("Balance due at appointment: %s\n", o.Pricing.BalanceDue))
	return b.String()
}

func describePet(o Order) string {
	name := valueOrNA(o.Pet.Name)
	var details []string
	if o.Pet.Species != "" {
		details = append(details, o.Pet.Species)
	}
	if o.Pet.Breed != "" {
		details = append(details, o.Pet.Breed)
	}
	if len(details) == 0 {
		return name
	}
	return fmt.Sprintf("%s (%s)", name, strings.Join(details, ", "))
}

func valueOrNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}
