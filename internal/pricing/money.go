package pricing

import (
	"github.com/shopspring/decimal"
)

// Cents is an amount of money in minor units.
type Cents int64

var hundred = decimal.NewFromInt(100)

// Decimal returns the amount in major units.
func (c Cents) Decimal() decimal.Decimal {
	return decimal.New(int64(c), -2)
}

// String formats the amount as dollars, e.g. "$83.30".
func (c Cents) String() string {
	return "$" + c.Decimal().StringFixed(2)
}

// Dollars converts whole major units to Cents.
func Dollars(d int64) Cents { return Cents(d * 100) }

// FromDecimal rounds a major-unit amount half up to the nearest cent.
func FromDecimal(d decimal.Decimal) Cents {
	return Cents(d.Mul(hundred).Round(0).IntPart())
}
