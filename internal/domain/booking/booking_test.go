package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kavholm/internal/domain/listings"
	"kavholm/internal/domain/shared/daterange"
	"kavholm/internal/domain/shared/money"
)

func testListing() *listings.Listing {
	return &listings.Listing{
		ID:          "listing-1",
		Host:        "lebron",
		Title:       "Beach house",
		NightlyRate: money.USD(100),
	}
}

func testRange(t *testing.T) daterange.DateRange {
	t.Helper()
	dr, err := daterange.New(
		time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 6, 8, 0, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)
	return dr
}

func validParams(t *testing.T) CreateParams {
	t.Helper()
	return CreateParams{
		ID:        "booking-1",
		Listing:   testListing(),
		Username:  "jlo",
		Range:     testRange(t),
		Guests:    2,
		TotalCost: money.USD(880),
		CreatedAt: time.Date(2026, 5, 20, 12, 0, 0, 0, time.UTC),
	}
}

func TestNewBooking(t *testing.T) {
	b, err := NewBooking(validParams(t))
	require.NoError(t, err)

	assert.Equal(t, BookingID("booking-1"), b.ID)
	assert.Equal(t, listings.ListingID("listing-1"), b.ListingID)
	assert.Equal(t, "jlo", b.Username)
	assert.Equal(t, "lebron", b.HostUsername)
	assert.Equal(t, PaymentMethodCard, b.PaymentMethod)
	assert.Equal(t, int64(880), b.TotalCost.Amount)
}

func TestNewBooking_RecordsCreatedEvent(t *testing.T) {
	b, err := NewBooking(validParams(t))
	require.NoError(t, err)

	pending := b.PendingEvents()
	require.Len(t, pending, 1)
	created, ok := pending[0].(BookingCreated)
	require.True(t, ok)
	assert.Equal(t, b.ID, created.BookingID)
	assert.Equal(t, "jlo", created.Username)

	b.ClearEvents()
	assert.Empty(t, b.PendingEvents())
}

func TestNewBooking_RejectsEmptyGuest(t *testing.T) {
	params := validParams(t)
	params.Username = "   "

	_, err := NewBooking(params)
	assert.ErrorIs(t, err, ErrGuestRequired)
}

func TestNewBooking_RejectsNonPositiveGuests(t *testing.T) {
	for _, guests := range []int{0, -1} {
		params := validParams(t)
		params.Guests = guests

		_, err := NewBooking(params)
		assert.ErrorIs(t, err, ErrInvalidGuests)
	}
}

func TestNewBooking_RejectsListingOwner(t *testing.T) {
	params := validParams(t)
	params.Username = "lebron"

	_, err := NewBooking(params)
	assert.ErrorIs(t, err, ErrOwnListing)

	// Ownership comparison ignores case.
	params.Username = "LeBron"
	_, err = NewBooking(params)
	assert.ErrorIs(t, err, ErrOwnListing)
}

func TestNewBooking_RejectsNonPositiveTotal(t *testing.T) {
	params := validParams(t)
	params.TotalCost = money.Money{Amount: 0, Currency: money.DefaultCurrency}

	_, err := NewBooking(params)
	assert.ErrorIs(t, err, ErrTotalRequired)
}
