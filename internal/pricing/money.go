package pricing

import "fmt"

// Money is an amount in US cents.
type Money int64

// Dollars builds a Money value from whole dollars.
func Dollars(d int64) Money {
	return Money(d * 100)
}

// Cents returns the raw cent amount.
func (m Money) Cents() int64 {
	return int64(m)
}

// Half returns 50% of m rounded half-up to the cent.
func (m Money) Half() Money {
	if m < 0 {
		return -((-m + 1) / 2)
	}
	return (m + 1) / 2
}

func (m Money) String() string {
	sign := ""
	c := int64(m)
	if c < 0 {
		sign = "-"
		c = -c
	}
	return fmt.Sprintf("%s$%d.%02d", sign, c/100, c%100)
}
