package pricing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kavholm/internal/domain/listings"
	"kavholm/internal/domain/shared/daterange"
	"kavholm/internal/domain/shared/money"
)

func stay(t *testing.T, checkIn, checkOut string) daterange.DateRange {
	t.Helper()
	in, err := time.Parse("2006-01-02", checkIn)
	require.NoError(t, err)
	out, err := time.Parse("2006-01-02", checkOut)
	require.NoError(t, err)
	dr, err := daterange.New(in, out)
	require.NoError(t, err)
	return dr
}

func listingWithRate(amount int64) *listings.Listing {
	return &listings.Listing{
		ID:          "listing-1",
		Host:        "lebron",
		Title:       "Beach house",
		NightlyRate: money.USD(amount),
	}
}

func TestQuote(t *testing.T) {
	calc := NightlyRateCalculator{}

	tests := []struct {
		name     string
		rate     int64
		checkIn  string
		checkOut string
		want     int64
	}{
		// 7 nights bill as 8: 8 * 100 * 1.1 = 880.
		{"week at 100", 100, "2026-06-01", "2026-06-08", 880},
		// 1 night bills as 2: 2 * 100 * 1.1 = 220.
		{"single night", 100, "2026-06-01", "2026-06-02", 220},
		// 2 * 95 * 1.1 = 209, exact.
		{"exact fee", 95, "2026-06-01", "2026-06-02", 209},
		// 3 * 33 * 1.1 = 108.9, rounds up to 109.
		{"fractional fee rounds up", 33, "2026-06-01", "2026-06-03", 109},
		{"long stay", 250, "2026-07-01", "2026-07-15", 4125},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			total, err := calc.Quote(context.Background(), listingWithRate(tc.rate), stay(t, tc.checkIn, tc.checkOut))
			require.NoError(t, err)
			assert.Equal(t, tc.want, total.Amount)
			assert.Equal(t, money.DefaultCurrency, total.Currency)
		})
	}
}

func TestQuote_RejectsMissingRate(t *testing.T) {
	calc := NightlyRateCalculator{}
	listing := &listings.Listing{ID: "listing-1", Host: "lebron"}

	_, err := calc.Quote(context.Background(), listing, stay(t, "2026-06-01", "2026-06-08"))
	assert.ErrorIs(t, err, ErrRateRequired)
}

func TestQuote_RejectsZeroNights(t *testing.T) {
	calc := NightlyRateCalculator{}

	_, err := calc.Quote(context.Background(), listingWithRate(100), daterange.DateRange{})
	assert.ErrorIs(t, err, ErrNoNights)
}
