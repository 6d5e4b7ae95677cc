package pricing

import (
	"context"
	"errors"

	"kavholm/internal/domain/listings"
	"kavholm/internal/domain/shared/daterange"
	"kavholm/internal/domain/shared/money"
)

var (
	ErrNoNights     = errors.New("pricing: stay must cover at least one night")
	ErrRateRequired = errors.New("pricing: nightly rate must be positive")
)

// serviceFeePct is the platform surcharge applied on top of the nightly total.
const serviceFeePct = 10

// Calculator quotes the total cost of a stay.
type Calculator interface {
	Quote(ctx context.Context, listing *listings.Listing, dr daterange.DateRange) (money.Money, error)
}

// NightlyRateCalculator implements the platform's flat pricing formula:
//
//	total = ceil(billableNights * rate * 1.1)
//
// billableNights is the number of nights stayed plus one. Pricing the first
// night twice is the established business rule the revenue reports are built
// on; do not change it here without a product decision.
type NightlyRateCalculator struct{}

func (NightlyRateCalculator) Quote(ctx context.Context, listing *listings.Listing, dr daterange.DateRange) (money.Money, error) {
	nights := int64(dr.Nights())
	if nights <= 0 {
		return money.Money{}, ErrNoNights
	}
	rate := listing.NightlyRate
	if rate.Amount <= 0 || rate.Currency == "" {
		return money.Money{}, ErrRateRequired
	}
	billable := nights + 1
	// Integer ceiling division keeps fractional units rounding up, never down.
	total := (billable*rate.Amount*(100+serviceFeePct) + 99) / 100
	return money.Money{Amount: total, Currency: rate.Currency}, nil
}

var _ Calculator = NightlyRateCalculator{}
