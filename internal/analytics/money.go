package analytics

import "github.com/shopspring/decimal"

// Cents is an amount in minor units. All accumulation in this package happens
// on Cents; decimals only appear at the edges.
type Cents int64

// CentsOf converts d to cents, rounding half away from zero.
func CentsOf(d decimal.Decimal) Cents {
	return Cents(d.Round(2).Shift(2).IntPart())
}

// Decimal converts c back to a two-place decimal.
func (c Cents) Decimal() decimal.Decimal {
	return decimal.New(int64(c), -2)
}

func (c Cents) String() string {
	return c.Decimal().StringFixed(2)
}

// amountCents returns the non-negative amount of a record. Negative amounts
// break the unsigned-amount invariant and count as zero.
func amountCents(d decimal.Decimal) Cents {
	c := CentsOf(d)
	if c < 0 {
		return 0
	}
	return c
}
