package booking

import (
	"time"

	"kavholm/internal/domain/listings"
	"kavholm/internal/domain/shared/daterange"
	"kavholm/internal/domain/shared/money"
)

type BookingCreated struct {
	BookingID    BookingID
	ListingID    listings.ListingID
	Username     string
	HostUsername string
	Range        daterange.DateRange
	Guests       int
	TotalCost    money.Money
	At           time.Time
}

func (e BookingCreated) EventName() string     { return "booking.created" }
func (e BookingCreated) AggregateID() string   { return string(e.BookingID) }
func (e BookingCreated) OccurredAt() time.Time { return e.At }
