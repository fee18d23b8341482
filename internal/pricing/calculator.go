// Package pricing derives booking totals from a unit price and traveler count.
package pricing

import (
	"fmt"

	"github.com/Domenick1991/travelagent/internal/domain"
	"github.com/shopspring/decimal"
)

var DefaultTaxRate = decimal.RequireFromString("0.15")

type Quote struct {
	UnitPrice domain.Money `json:"unit_price"`
	Travelers int          `json:"travelers"`
	Subtotal  domain.Money `json:"subtotal"`
	Taxes     domain.Money `json:"taxes"`
	Total     domain.Money `json:"total"`
}

type Calculator struct {
	taxRate decimal.Decimal
}

func NewCalculator(taxRate decimal.Decimal) *Calculator {
	return &Calculator{taxRate: taxRate}
}

// Calculate returns subtotal = base*travelers, taxes = round(subtotal*rate) in cents, total = subtotal+taxes.
func (c *Calculator) Calculate(basePrice domain.Money, travelers int) (Quote, error) {
	verr := domain.NewValidationError()
	if travelers < 1 {
		verr.Add("travelers", "at least 1 traveler required")
	}
	if basePrice < 0 {
		verr.Add("base_price", "must not be negative")
	}
	if err := verr.OrNil(); err != nil {
		return Quote{}, fmt.Errorf("calculate price: %w", err)
	}

	subtotal := basePrice * domain.Money(travelers)
	taxes := domain.Money(decimal.NewFromInt(int64(subtotal)).Mul(c.taxRate).Round(0).IntPart())

	return Quote{
		UnitPrice: basePrice,
		Travelers: travelers,
		Subtotal:  subtotal,
		Taxes:     taxes,
		Total:     subtotal + taxes,
	}, nil
}

// UnitPrice picks the package price when a package is selected, else the destination's starting price.
func UnitPrice(dest *domain.Destination, pkg *domain.Package) domain.Money {
	if pkg != nil {
		return pkg.Price
	}
	return dest.PriceFrom
}
