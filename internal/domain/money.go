package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Money is an amount in minor units (cents).
type Money int64

var hundred = decimal.NewFromInt(100)

// MoneyFromMajor converts a major-unit amount (e.g. dollars) to cents, rounding half away from zero.
func MoneyFromMajor(amount decimal.Decimal) Money {
	return Money(amount.Mul(hundred).Round(0).IntPart())
}

// Major returns the amount in major units.
func (m Money) Major() decimal.Decimal {
	return decimal.NewFromInt(int64(m)).Div(hundred)
}

// Format renders the amount as a USD-style string, e.g. "$2,300.00".
func (m Money) Format() string {
	sign := ""
	v := int64(m)
	if v < 0 {
		sign = "-"
		v = -v
	}
	whole := fmt.Sprintf("%d", v/100)
	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return fmt.Sprintf("%s$%s.%02d", sign, b.String(), v%100)
}
