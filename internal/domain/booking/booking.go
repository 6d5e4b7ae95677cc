package booking

import (
	"context"
	"errors"
	"strings"
	"time"

	"kavholm/internal/domain/listings"
	"kavholm/internal/domain/shared/daterange"
	"kavholm/internal/domain/shared/events"
	"kavholm/internal/domain/shared/money"
)

var (
	ErrInvalidGuests   = errors.New("booking: guests count must be positive")
	ErrGuestRequired   = errors.New("booking: guest username is required")
	ErrOwnListing      = errors.New("booking: hosts cannot book their own listing")
	ErrDateConflict    = errors.New("booking: dates conflict with an existing booking")
	ErrTotalRequired   = errors.New("booking: total cost must be positive")
	ErrBookingNotFound = errors.New("booking: not found")
)

type BookingID string

// PaymentMethodCard is the only payment method the platform records today.
const PaymentMethodCard = "card"

// Booking is an immutable reservation record. TotalCost is computed once at
// creation time and HostUsername is a snapshot of the listing owner taken at
// booking time; neither is recomputed later even if the listing changes hands.
type Booking struct {
	ID            BookingID
	ListingID     listings.ListingID
	Username      string
	HostUsername  string
	Range         daterange.DateRange
	Guests        int
	PaymentMethod string
	TotalCost     money.Money
	CreatedAt     time.Time
	events.EventRecorder
}

// Repository persists reservation records.
//
// CreateIfAvailable is the single atomic check-and-insert: it must verify that
// no persisted booking for the same listing overlaps the candidate's half-open
// range and insert the record in one serialized step, returning ErrDateConflict
// to exactly the losers of a race. List methods return bookings in insertion
// order and an empty slice, not an error, when nothing matches.
type Repository interface {
	CreateIfAvailable(ctx context.Context, b *Booking) error
	ListByGuest(ctx context.Context, username string) ([]*Booking, error)
	ListByHost(ctx context.Context, hostUsername string) ([]*Booking, error)
	ListByListing(ctx context.Context, listingID listings.ListingID) ([]*Booking, error)
}

type CreateParams struct {
	ID        BookingID
	Listing   *listings.Listing
	Username  string
	Range     daterange.DateRange
	Guests    int
	TotalCost money.Money
	CreatedAt time.Time
}

// NewBooking validates the reservation invariants and builds the aggregate.
// The listing owner is rejected as a guest here regardless of what the route
// layer already filtered.
func NewBooking(params CreateParams) (*Booking, error) {
	username := strings.TrimSpace(params.Username)
	if username == "" {
		return nil, ErrGuestRequired
	}
	if params.Guests < 1 {
		return nil, ErrInvalidGuests
	}
	if strings.EqualFold(username, params.Listing.Host) {
		return nil, ErrOwnListing
	}
	if params.TotalCost.Amount <= 0 {
		return nil, ErrTotalRequired
	}
	now := params.CreatedAt.UTC()
	b := &Booking{
		ID:            params.ID,
		ListingID:     params.Listing.ID,
		Username:      username,
		HostUsername:  params.Listing.Host,
		Range:         params.Range,
		Guests:        params.Guests,
		PaymentMethod: PaymentMethodCard,
		TotalCost:     params.TotalCost,
		CreatedAt:     now,
	}
	b.Record(BookingCreated{
		BookingID:    b.ID,
		ListingID:    b.ListingID,
		Username:     b.Username,
		HostUsername: b.HostUsername,
		Range:        b.Range,
		Guests:       b.Guests,
		TotalCost:    b.TotalCost,
		At:           now,
	})
	return b, nil
}
