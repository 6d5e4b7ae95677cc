package dto

import (
	"time"

	domainbooking "kavholm/internal/domain/booking"
)

// Booking is the wire representation of a reservation record.
type Booking struct {
	ID            string    `json:"id"`
	ListingID     string    `json:"listingId"`
	Username      string    `json:"username"`
	HostUsername  string    `json:"hostUsername"`
	StartDate     time.Time `json:"startDate"`
	EndDate       time.Time `json:"endDate"`
	Guests        int       `json:"guests"`
	PaymentMethod string    `json:"paymentMethod"`
	TotalCost     int64     `json:"totalCost"`
	Currency      string    `json:"currency"`
	CreatedAt     time.Time `json:"createdAt"`
}

type BookingCollection struct {
	Bookings []Booking `json:"bookings"`
}

func MapBooking(b *domainbooking.Booking) Booking {
	return Booking{
		ID:            string(b.ID),
		ListingID:     string(b.ListingID),
		Username:      b.Username,
		HostUsername:  b.HostUsername,
		StartDate:     b.Range.CheckIn,
		EndDate:       b.Range.CheckOut,
		Guests:        b.Guests,
		PaymentMethod: b.PaymentMethod,
		TotalCost:     b.TotalCost.Amount,
		Currency:      b.TotalCost.Currency,
		CreatedAt:     b.CreatedAt,
	}
}

func MapBookingCollection(items []*domainbooking.Booking) BookingCollection {
	bookings := make([]Booking, 0, len(items))
	for _, item := range items {
		bookings = append(bookings, MapBooking(item))
	}
	return BookingCollection{Bookings: bookings}
}
