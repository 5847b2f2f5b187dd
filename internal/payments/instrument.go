package payments

import (
	"fmt"
	"strings"
)

// Instrument holds illustrative card fields. Nothing is sent to a processor.
type Instrument struct {
	CardholderName string `json:"cardholder_name"`
	Number         string `json:"number"`
	Expiry         string `json:"expiry"`
	CVV            string `json:"cvv"`
}

// Validate only checks that every field was filled in.
func (i Instrument) Validate() error {
	var missing []string
	if strings.TrimSpace(i.CardholderName) == "" {
		missing = append(missing, "cardholder_name")
	}
	if i.digits() == "" {
		missing = append(missing, "number")
	}
	if strings.TrimSpace(i.Expiry) == "" {
		missing = append(missing, "expiry")
	}
	if strings.TrimSpace(i.CVV) == "" {
		missing = append(missing, "cvv")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrInvalidInstrument, strings.Join(missing, ", "))
	}
	return nil
}

// Last4 is safe to log.
func (i Instrument) Last4() string {
	d := i.digits()
	if len(d) <= 4 {
		return d
	}
	return d[len(d)-4:]
}

func (i Instrument) digits() string {
	var b strings.Builder
	for _, r := range i.Number {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
