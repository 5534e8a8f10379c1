package pricing

import (
	"errors"

	"stayfinder/internal/domain/shared/daterange"
	"stayfinder/internal/domain/shared/money"
)

var (
	ErrNegativeRate = errors.New("pricing: nightly rate cannot be negative")
	ErrEmptyRange   = errors.New("pricing: range must cover at least one night")
)

// PricedBooking is the derived, read-only price of a validated range. It is
// recomputed from its inputs on every quote, never cached across a mutation
// of the range or rate.
type PricedBooking struct {
	Nights  int         `json:"nights"`
	Nightly money.Money `json:"nightly"`
	Total   money.Money `json:"total"`
}

// Quote computes nights and total price for a validated range. Deterministic:
// identical inputs always produce identical totals.
func Quote(dr daterange.DateRange, nightly money.Money) (PricedBooking, error) {
	if nightly.IsNegative() {
		return PricedBooking{}, ErrNegativeRate
	}
	nights := dr.Nights()
	if nights < 1 {
		return PricedBooking{}, ErrEmptyRange
	}
	return PricedBooking{
		Nights:  nights,
		Nightly: nightly,
		Total:   nightly.Multiply(int64(nights)),
	}, nil
}
